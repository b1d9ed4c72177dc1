package feed

import (
	"encoding/json"
	"strings"
)

// wrapperKeys are the result-collection key names observed across OHGO
// deployments and revisions, in priority order. "features" (GeoJSON) is
// tried last so an explicit result wrapper wins over an embedded feature
// collection.
var wrapperKeys = []string{"Results", "items", "data", "results", "incidents", "content", "value"}

// metaKeys are the pagination/metadata keys collected alongside items.
var metaKeys = []string{"TotalResultCount", "CurrentResultCount", "TotalPageCount", "LastUpdated"}

// Items locates the list of result objects inside an arbitrary decoded JSON
// value, regardless of wrapper key naming or casing, and collects any
// pagination metadata found next to it. It never fails: unrecognized or
// malformed input degrades to an empty item list.
func Items(data any) ([]map[string]any, map[string]any) {
	meta := map[string]any{}

	switch v := data.(type) {
	case map[string]any:
		for _, key := range wrapperKeys {
			val, ok := getCI(v, key)
			if !ok {
				continue
			}
			switch inner := val.(type) {
			case []any:
				for _, mk := range metaKeys {
					if mv, ok := getCI(v, mk); ok && mv != nil {
						meta[mk] = mv
					}
				}
				return onlyObjects(inner), meta
			case map[string]any:
				// A single-object wrapper is treated as a singleton list.
				return []map[string]any{inner}, meta
			}
		}
		if feats, ok := getCI(v, "features"); ok {
			if list, ok := feats.([]any); ok {
				return onlyObjects(list), meta
			}
		}
		if len(v) == 0 {
			return nil, meta
		}
		// No wrapper matched: the whole dict is a single item.
		return []map[string]any{v}, meta

	case []any:
		return onlyObjects(v), meta

	case string:
		var decoded any
		if err := json.Unmarshal([]byte(v), &decoded); err != nil {
			return nil, meta
		}
		return Items(decoded)
	}

	return nil, meta
}

// getCI looks up key in m case-insensitively.
func getCI(m map[string]any, key string) (any, bool) {
	if v, ok := m[key]; ok {
		return v, true
	}
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

// onlyObjects keeps the dict elements of a mixed list, silently dropping
// scalars and strings that malformed provider responses sometimes include.
func onlyObjects(list []any) []map[string]any {
	out := make([]map[string]any, 0, len(list))
	for _, el := range list {
		if m, ok := el.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}
