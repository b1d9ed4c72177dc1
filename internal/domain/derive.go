package domain

import (
	"strings"
	"time"
	"unicode"
)

// Severity word tables, tried in order by DeriveSeverity. Scores run
// 1 (low) to 3 (high).
var (
	severityTextScores = map[string]int{
		"severe": 3, "major": 3, "high": 3,
		"moderate": 2, "medium": 2,
		"minor": 1, "low": 1,
	}
	statusScores = map[string]int{
		"closed": 3,
		"restricted": 2, "incident": 2, "delay": 2, "active": 2,
		"open": 1, "cleared": 1, "completed": 1, "ended": 1,
	}
	// Category matching is by substring; ordered so the more specific
	// phrases win over their substrings.
	categoryScores = []struct {
		substr string
		score  int
	}{
		{"crash", 3},
		{"accident", 3},
		{"work zone", 2},
		{"construction", 2},
		{"hazard", 2},
		{"repairs/maintenance", 1},
		{"maintenance", 1},
		{"disabled vehicle", 1},
	}
)

// ParseTime parses an ISO-8601 timestamp, tolerating a trailing Z and
// timestamps with no zone offset. Returns nil on empty or unparseable
// input; upstream feeds routinely omit or mangle timestamps and a bad
// one must not sink the record.
func ParseTime(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, layout := range []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
	} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	return nil
}

// Clip truncates s to at most max characters. Truncation, not
// rejection, is the policy for length-bounded columns. Counting is by
// rune so multibyte input is never cut into invalid UTF-8.
func Clip(s *string, max int) *string {
	if s == nil {
		return nil
	}
	r := []rune(*s)
	if len(r) <= max {
		return s
	}
	clipped := string(r[:max])
	return &clipped
}

// DeriveActive resolves is_active when the provider omits it. An
// explicit boolean wins; a cleared/end time means inactive; otherwise a
// small status vocabulary decides. Absence of evidence of closure is
// treated as still-open so live incidents are never silently hidden.
func DeriveActive(explicit *bool, cleared bool, status string) bool {
	if explicit != nil {
		return *explicit
	}
	if cleared {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "cleared", "completed", "ended":
		return false
	case "closed", "restricted", "incident", "delay", "active", "open":
		return true
	}
	return true
}

// ActiveFromCleared derives is_active from a cleared timestamp alone:
// no cleared time means active, a cleared time in the future means the
// closure is still in effect.
func ActiveFromCleared(cleared *time.Time) bool {
	if cleared == nil {
		return true
	}
	return cleared.After(clock.Now())
}

// DeriveSeverity resolves (severity_flag, severity_score) from partial
// signals, first match wins: an explicit numeric score, the flag text,
// the status text, then the category text by substring. Both results
// stay nil when nothing matches.
func DeriveSeverity(explicitScore *int, flag, status, category string) (*string, *int) {
	outFlag := optional(flag)
	if explicitScore != nil {
		return outFlag, explicitScore
	}
	if flag != "" {
		if score, ok := severityTextScores[strings.ToLower(strings.TrimSpace(flag))]; ok {
			return outFlag, &score
		}
	}
	if status != "" {
		if score, ok := statusScores[strings.ToLower(strings.TrimSpace(status))]; ok {
			if outFlag == nil {
				outFlag = optional(titleCase(status))
			}
			return outFlag, &score
		}
	}
	if category != "" {
		c := strings.ToLower(strings.TrimSpace(category))
		for _, entry := range categoryScores {
			if strings.Contains(c, entry.substr) {
				score := entry.score
				if outFlag == nil {
					outFlag = optional(titleCase(category))
				}
				return outFlag, &score
			}
		}
	}
	return outFlag, nil
}

// ClosureFromText classifies a free-text condition or description into
// one of the closure status values by substring matching.
func ClosureFromText(text string) string {
	t := strings.ToLower(text)
	switch {
	case strings.Contains(t, "closure"), strings.Contains(t, "closed"):
		return ClosureClosed
	case strings.Contains(t, "lane blocked"), strings.Contains(t, "lanes blocked"),
		strings.Contains(t, "shoulder blocked"), strings.Contains(t, "lane restricted"):
		return ClosurePartial
	case strings.Contains(t, "open"):
		return ClosureOpen
	}
	return ClosureUnknown
}

// ClassifyRoute returns INTERSTATE for routes following the "I-" naming
// convention, STATE for everything else.
func ClassifyRoute(route string) string {
	if strings.HasPrefix(route, "I-") {
		return RouteClassInterstate
	}
	return RouteClassState
}

// optional returns nil for the empty string, a pointer otherwise.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// titleCase uppercases the first letter of each space-separated word.
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(strings.TrimSpace(s)))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
