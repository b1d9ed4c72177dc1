package feed

// Coordinates extracts a representative (lat, lon) pair from a GeoJSON
// geometry object. Point geometry yields the pair itself; line, polygon,
// and multi geometries yield the first vertex of the first ring or segment.
// Unrecognized types descend through nested lists until a two-element
// numeric pair turns up. GeoJSON coordinate order is [lon, lat].
func Coordinates(geometry map[string]any) (lat, lon *float64) {
	if geometry == nil {
		return nil, nil
	}
	coords, ok := geometry["coordinates"]
	if !ok {
		return nil, nil
	}

	pair := firstPair(coords)
	if pair == nil {
		return nil, nil
	}
	return &pair[1], &pair[0]
}

// firstPair walks nested coordinate lists depth-first and returns the first
// [lon, lat] numeric pair found.
func firstPair(v any) *[2]float64 {
	list, ok := v.([]any)
	if !ok || len(list) == 0 {
		return nil
	}

	if lon, okLon := asFloat(list[0]); okLon && len(list) >= 2 {
		if lat, okLat := asFloat(list[1]); okLat {
			return &[2]float64{lon, lat}
		}
	}

	for _, el := range list {
		if pair := firstPair(el); pair != nil {
			return pair
		}
	}
	return nil
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}
