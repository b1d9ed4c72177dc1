package provider

import (
	"fmt"
	"strconv"
)

// The helpers below read one logical field out of a decoded JSON object by
// trying an ordered list of candidate key names. Providers are inconsistent
// about case and naming across revisions (route_name vs ROUTE_NAME), so
// every adapter works from candidate lists instead of fixed keys. Empty
// strings and nulls count as absent.

// Str returns the first present, non-empty string value among keys.
func Str(m map[string]any, keys ...string) string {
	for _, k := range keys {
		v, ok := m[k]
		if !ok || v == nil {
			continue
		}
		switch s := v.(type) {
		case string:
			if s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(s, 'f', -1, 64)
		case bool:
			return strconv.FormatBool(s)
		}
	}
	return ""
}

// Float returns the first present numeric value among keys. Numeric strings
// are parsed; anything else counts as absent.
func Float(m map[string]any, keys ...string) *float64 {
	for _, k := range keys {
		v, ok := m[k]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			f := n
			return &f
		case string:
			if f, err := strconv.ParseFloat(n, 64); err == nil {
				return &f
			}
		}
	}
	return nil
}

// Int returns the first present integral value among keys.
func Int(m map[string]any, keys ...string) *int {
	if f := Float(m, keys...); f != nil {
		n := int(*f)
		return &n
	}
	return nil
}

// Bool returns the first present boolean value among keys. Only genuine JSON
// booleans qualify; truthy strings are left for the caller to interpret.
func Bool(m map[string]any, keys ...string) *bool {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if b, ok := v.(bool); ok {
				return &b
			}
		}
	}
	return nil
}

// ID stringifies the first present identity-ish value among keys. Numeric
// ids are rendered without an exponent or trailing zeros.
func ID(m map[string]any, keys ...string) string {
	for _, k := range keys {
		v, ok := m[k]
		if !ok || v == nil {
			continue
		}
		switch id := v.(type) {
		case string:
			if id != "" {
				return id
			}
		case float64:
			return strconv.FormatFloat(id, 'f', -1, 64)
		default:
			return fmt.Sprintf("%v", id)
		}
	}
	return ""
}
