package feed

import "strings"

// knownResources are trailing path segments that identify a specific OHGO
// collection. APIRoot strips them so sibling endpoints can be composed from
// a base URL that was configured pointing at one resource.
var knownResources = map[string]bool{
	"incidents": true, "roads": true, "construction": true,
	"digital-signs": true, "cameras": true, "travel-delays": true,
	"truck-parking": true, "weather-sensor-sites": true,
	"dangerous-slowdowns": true, "work-zones": true,
}

// BuildURL joins a base URL and a path segment into one well-formed absolute
// URL. A missing scheme defaults to https, trailing/leading slashes are
// normalized, and a segment the base already ends with (compared
// case-insensitively) is not appended a second time.
func BuildURL(base, path string) string {
	base = strings.TrimSpace(base)
	if base != "" && !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + strings.TrimLeft(base, "/")
	}
	base = strings.TrimRight(base, "/")

	seg := strings.TrimSpace(path)
	if seg == "" {
		return base
	}
	seg = "/" + strings.TrimLeft(seg, "/")
	if strings.HasSuffix(strings.ToLower(base), strings.ToLower(seg)) {
		return base
	}
	return base + seg
}

// APIRoot returns the parent of base when base ends with a known resource
// segment (e.g. ".../api/v1/incidents" -> ".../api/v1"). Prevents building
// nonsense like /incidents/construction when the configured base points at
// the incidents collection.
func APIRoot(base string) string {
	u := strings.TrimRight(strings.TrimSpace(base), "/")
	idx := strings.LastIndex(u, "/")
	if idx < 0 {
		return u
	}
	if knownResources[strings.ToLower(u[idx+1:])] {
		return u[:idx]
	}
	return u
}
