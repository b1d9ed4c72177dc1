package feed

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, raw string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(raw), &v))
	return v
}

func TestItems_WrapperVariants(t *testing.T) {
	// The same upstream API returns different wrapper conventions across
	// deployments; all of these must yield the same single item.
	variants := map[string]string{
		"pascal Results":   `{"Results": [{"id": 1}], "TotalResultCount": 1}`,
		"lower results":    `{"results": [{"id": 1}]}`,
		"items":            `{"items": [{"id": 1}]}`,
		"upper ITEMS":      `{"ITEMS": [{"id": 1}]}`,
		"data":             `{"data": [{"id": 1}]}`,
		"incidents":        `{"incidents": [{"id": 1}]}`,
		"content":          `{"content": [{"id": 1}]}`,
		"value":            `{"value": [{"id": 1}]}`,
		"geojson features": `{"type": "FeatureCollection", "features": [{"id": 1}]}`,
		"bare list":        `[{"id": 1}]`,
	}

	for name, raw := range variants {
		t.Run(name, func(t *testing.T) {
			items, _ := Items(decode(t, raw))
			require.Len(t, items, 1)
			assert.Equal(t, float64(1), items[0]["id"])
		})
	}
}

func TestItems_JSONEncodedString(t *testing.T) {
	items, _ := Items(`[{"id": 1}]`)
	require.Len(t, items, 1)
	assert.Equal(t, float64(1), items[0]["id"])
}

func TestItems_Metadata(t *testing.T) {
	data := decode(t, `{"Results": [{"id": 1}], "totalresultcount": 7, "TotalPageCount": 2, "LastUpdated": "2025-10-08T12:00:00Z"}`)

	items, meta := Items(data)

	require.Len(t, items, 1)
	assert.Equal(t, float64(7), meta["TotalResultCount"])
	assert.Equal(t, float64(2), meta["TotalPageCount"])
	assert.Equal(t, "2025-10-08T12:00:00Z", meta["LastUpdated"])
}

func TestItems_SingletonDictWrapped(t *testing.T) {
	items, _ := Items(decode(t, `{"Results": {"id": 42}}`))

	require.Len(t, items, 1)
	assert.Equal(t, float64(42), items[0]["id"])
}

func TestItems_DropsNonDictElements(t *testing.T) {
	items, _ := Items(decode(t, `{"Results": [{"id": 1}, "garbage", 3, null, {"id": 2}]}`))

	require.Len(t, items, 2)
	assert.Equal(t, float64(1), items[0]["id"])
	assert.Equal(t, float64(2), items[1]["id"])
}

func TestItems_Degradation(t *testing.T) {
	t.Run("unparseable string", func(t *testing.T) {
		items, meta := Items("not json at all")
		assert.Empty(t, items)
		assert.Empty(t, meta)
	})

	t.Run("empty dict", func(t *testing.T) {
		items, _ := Items(map[string]any{})
		assert.Empty(t, items)
	})

	t.Run("nil", func(t *testing.T) {
		items, _ := Items(nil)
		assert.Empty(t, items)
	})

	t.Run("scalar", func(t *testing.T) {
		items, _ := Items(3.14)
		assert.Empty(t, items)
	})
}

func TestItems_UnwrappedDictIsSingleItem(t *testing.T) {
	items, _ := Items(decode(t, `{"id": "EVT-1", "routeName": "I-70"}`))

	require.Len(t, items, 1)
	assert.Equal(t, "EVT-1", items[0]["id"])
}
