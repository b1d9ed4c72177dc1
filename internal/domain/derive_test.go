package domain

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }
func intPtr(n int) *int    { return &n }

func TestParseTime(t *testing.T) {
	t.Run("trailing Z means UTC", func(t *testing.T) {
		result := ParseTime("2025-10-08T14:30:00Z")
		require.NotNil(t, result)
		assert.Equal(t, time.Date(2025, 10, 8, 14, 30, 0, 0, time.UTC), result.UTC())
	})

	t.Run("explicit offset", func(t *testing.T) {
		result := ParseTime("2025-10-08T14:30:00-05:00")
		require.NotNil(t, result)
		assert.Equal(t, time.Date(2025, 10, 8, 19, 30, 0, 0, time.UTC), result.UTC())
	})

	t.Run("no zone", func(t *testing.T) {
		result := ParseTime("2025-10-08T14:30:00")
		require.NotNil(t, result)
		assert.Equal(t, 14, result.Hour())
	})

	t.Run("fractional seconds", func(t *testing.T) {
		result := ParseTime("2025-10-08T14:30:00.123456")
		require.NotNil(t, result)
	})

	t.Run("empty", func(t *testing.T) {
		assert.Nil(t, ParseTime(""))
		assert.Nil(t, ParseTime("   "))
	})

	t.Run("garbage", func(t *testing.T) {
		assert.Nil(t, ParseTime("not a time"))
	})
}

func TestClip(t *testing.T) {
	long := strings.Repeat("x", 40)
	short := "Both Directions"

	t.Run("over limit truncated", func(t *testing.T) {
		result := Clip(&long, DirectionMaxLen)
		require.NotNil(t, result)
		assert.Len(t, *result, 32)
		assert.Equal(t, long[:32], *result)
	})

	t.Run("under limit unchanged", func(t *testing.T) {
		result := Clip(&short, DirectionMaxLen)
		require.NotNil(t, result)
		assert.Equal(t, short, *result)
	})

	t.Run("nil passes through", func(t *testing.T) {
		assert.Nil(t, Clip(nil, DirectionMaxLen))
	})

	t.Run("counts runes not bytes", func(t *testing.T) {
		multibyte := strings.Repeat("ü", 40)
		result := Clip(&multibyte, DirectionMaxLen)
		require.NotNil(t, result)
		assert.Equal(t, strings.Repeat("ü", 32), *result)
		assert.True(t, utf8.ValidString(*result))
	})
}

func TestDeriveActive(t *testing.T) {
	tests := []struct {
		name     string
		explicit *bool
		cleared  bool
		status   string
		expected bool
	}{
		{"explicit true wins", boolPtr(true), true, "cleared", true},
		{"explicit false wins", boolPtr(false), false, "active", false},
		{"cleared time means inactive", nil, true, "", false},
		{"status cleared", nil, false, "cleared", false},
		{"status completed", nil, false, "Completed", false},
		{"status ended", nil, false, "ENDED", false},
		{"status restricted", nil, false, "restricted", true},
		{"status closed", nil, false, "closed", true},
		{"status delay", nil, false, "delay", true},
		{"unknown status defaults active", nil, false, "pending review", true},
		{"nothing at all defaults active", nil, false, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DeriveActive(tt.explicit, tt.cleared, tt.status))
		})
	}
}

func TestActiveFromCleared(t *testing.T) {
	now := time.Date(2025, 10, 14, 12, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(now))
	defer SetClock(nil)

	t.Run("no cleared time is active", func(t *testing.T) {
		assert.True(t, ActiveFromCleared(nil))
	})

	t.Run("future clearance still active", func(t *testing.T) {
		future := now.Add(2 * time.Hour)
		assert.True(t, ActiveFromCleared(&future))
	})

	t.Run("past clearance inactive", func(t *testing.T) {
		past := now.Add(-2 * time.Hour)
		assert.False(t, ActiveFromCleared(&past))
	})
}

func TestDeriveSeverity(t *testing.T) {
	t.Run("explicit score wins", func(t *testing.T) {
		flag, score := DeriveSeverity(intPtr(3), "minor", "open", "maintenance")
		require.NotNil(t, score)
		assert.Equal(t, 3, *score)
		require.NotNil(t, flag)
		assert.Equal(t, "minor", *flag)
	})

	t.Run("flag word table", func(t *testing.T) {
		for word, want := range map[string]int{"Severe": 3, "major": 3, "HIGH": 3, "moderate": 2, "medium": 2, "minor": 1, "low": 1} {
			flag, score := DeriveSeverity(nil, word, "", "")
			require.NotNil(t, score, word)
			assert.Equal(t, want, *score, word)
			require.NotNil(t, flag)
			assert.Equal(t, word, *flag)
		}
	})

	t.Run("status table fallback", func(t *testing.T) {
		flag, score := DeriveSeverity(nil, "", "restricted", "")
		require.NotNil(t, score)
		assert.Equal(t, 2, *score)
		require.NotNil(t, flag)
		assert.Equal(t, "Restricted", *flag)
	})

	t.Run("category substring fallback", func(t *testing.T) {
		for category, want := range map[string]int{
			"Crash":               3,
			"Multi-car accident":  3,
			"Work Zone":           2,
			"construction detour": 2,
			"Repairs/Maintenance": 1,
			"disabled vehicle":    1,
		} {
			_, score := DeriveSeverity(nil, "", "", category)
			require.NotNil(t, score, category)
			assert.Equal(t, want, *score, category)
		}
	})

	t.Run("no signal leaves both nil", func(t *testing.T) {
		flag, score := DeriveSeverity(nil, "", "", "routine patrol")
		assert.Nil(t, flag)
		assert.Nil(t, score)
	})

	t.Run("unmapped flag keeps text, no score", func(t *testing.T) {
		flag, score := DeriveSeverity(nil, "weird", "", "")
		require.NotNil(t, flag)
		assert.Equal(t, "weird", *flag)
		assert.Nil(t, score)
	})
}

func TestClosureFromText(t *testing.T) {
	tests := []struct {
		text     string
		expected string
	}{
		{"Road closed at MM 12", ClosureClosed},
		{"Full closure expected overnight", ClosureClosed},
		{"Left lane blocked", ClosurePartial},
		{"Shoulder blocked by debris", ClosurePartial},
		{"All lanes open", ClosureOpen},
		{"Heavy congestion", ClosureUnknown},
		{"", ClosureUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClosureFromText(tt.text))
		})
	}
}

func TestClassifyRoute(t *testing.T) {
	assert.Equal(t, RouteClassInterstate, ClassifyRoute("I-70"))
	assert.Equal(t, RouteClassInterstate, ClassifyRoute("I-271 N"))
	assert.Equal(t, RouteClassState, ClassifyRoute("SR-315"))
	assert.Equal(t, RouteClassState, ClassifyRoute("US-23"))
	assert.Equal(t, RouteClassState, ClassifyRoute(""))
}
