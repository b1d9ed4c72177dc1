// Command genfeed generates deterministic mock feed payloads in the shapes
// the OHGO and DriveTexas APIs actually serve. The fixtures are useful for
// pointing the service at a local static file server during development and
// for seeding manual test databases.
//
// Usage:
//
//	go run ./cmd/genfeed \
//	  -count 25 \
//	  -ohgo-out data/mock/ohgo_incidents.json \
//	  -texas-out data/mock/drivetexas_conditions.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// baseTime anchors every generated timestamp so repeated runs produce
// identical fixtures.
var baseTime = time.Date(2025, time.October, 14, 6, 0, 0, 0, time.UTC)

type route struct {
	name      string
	direction string
	county    string
	lat, lon  float64
}

var ohioRoutes = []route{
	{"I-70", "Eastbound", "Franklin", 39.9612, -82.9988},
	{"I-71", "Northbound", "Delaware", 40.2987, -83.0680},
	{"I-270", "Both Directions", "Franklin", 40.0150, -82.8700},
	{"SR-315", "Southbound", "Franklin", 40.0060, -83.0235},
	{"I-75", "Northbound", "Hamilton", 39.1031, -84.5120},
}

var texasRoutes = []route{
	{"I-35", "Northbound", "227", 30.2672, -97.7431},
	{"US-290", "Westbound", "227", 30.3200, -97.8000},
	{"LOOP-410", "Eastbound", "15", 29.4241, -98.4936},
	{"I-45", "Southbound", "101", 29.7604, -95.3698},
}

var categories = []string{"Crash", "Disabled Vehicle", "Debris", "Construction"}

var texasConditions = []string{
	"Left lane blocked by crash",
	"Road closed for repairs",
	"Shoulder blocked, expect delays",
	"Debris reported on roadway",
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	count := flag.Int("count", 25, "incidents to generate per feed")
	ohgoOut := flag.String("ohgo-out", "", "output path for the OHGO incidents fixture")
	texasOut := flag.String("texas-out", "", "output path for the DriveTexas conditions fixture")
	flag.Parse()

	if *ohgoOut == "" || *texasOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -ohgo-out, -texas-out")
	}

	if err := writeJSON(*ohgoOut, ohgoFeed(*count)); err != nil {
		return fmt.Errorf("writing OHGO fixture: %w", err)
	}
	log.Printf("wrote OHGO fixture: %s (%d incidents)", *ohgoOut, *count)

	if err := writeJSON(*texasOut, texasFeed(*count)); err != nil {
		return fmt.Errorf("writing DriveTexas fixture: %w", err)
	}
	log.Printf("wrote DriveTexas fixture: %s (%d features)", *texasOut, *count)
	return nil
}

// ohgoFeed builds a single-page OHGO response in the flat item shape, with
// the Results wrapper and pagination metadata the live API returns.
func ohgoFeed(count int) map[string]any {
	items := make([]any, 0, count)
	for i := 0; i < count; i++ {
		r := ohioRoutes[i%len(ohioRoutes)]
		id := fmt.Sprintf("MOCK-OH-%04d", i+1)
		reported := baseTime.Add(time.Duration(i) * 7 * time.Minute)

		item := map[string]any{
			"id":          id,
			"category":    categories[i%len(categories)],
			"roadStatus":  "Lane Blocked",
			"routeName":   r.name,
			"direction":   r.direction,
			"county":      r.county,
			"latitude":    r.lat + float64(i)*0.001,
			"longitude":   r.lon - float64(i)*0.001,
			"description": fmt.Sprintf("%s on %s %s", categories[i%len(categories)], r.name, r.direction),
			"reportedTime": reported.Format(time.RFC3339),
			"lastUpdated":  reported.Add(12 * time.Minute).Format(time.RFC3339),
			"links": []any{
				map[string]any{
					"rel":  "self",
					"href": "https://publicapi.ohgo.com/api/v1/incidents/" + id,
				},
			},
		}
		// Every fifth incident is already cleared.
		if i%5 == 4 {
			item["roadStatus"] = "Cleared"
			item["endTime"] = reported.Add(45 * time.Minute).Format(time.RFC3339)
		}
		items = append(items, item)
	}

	return map[string]any{
		"Results":           items,
		"TotalResultCount":  count,
		"TotalPageCount":    1,
		"CurrentPageNumber": 1,
	}
}

// texasFeed builds a DriveTexas conditions FeatureCollection.
func texasFeed(count int) map[string]any {
	features := make([]any, 0, count)
	for i := 0; i < count; i++ {
		r := texasRoutes[i%len(texasRoutes)]
		start := baseTime.Add(time.Duration(i) * 11 * time.Minute)

		props := map[string]any{
			"GLOBALID":         fmt.Sprintf("MOCK-TX-%04d", i+1),
			"route_name":       r.name,
			"travel_direction": r.direction,
			"county_num":       r.county,
			"condition":        "Incident",
			"description":      texasConditions[i%len(texasConditions)],
			"start_time":       start.Format(time.RFC3339),
			"from_ref_marker":  fmt.Sprintf("%.1f", 100.0+float64(i)*2.5),
		}
		if i%4 == 1 {
			props["delay_flag"] = "true"
		}
		if i%6 == 5 {
			props["end_time"] = start.Add(90 * time.Minute).Format(time.RFC3339)
		}

		features = append(features, map[string]any{
			"type": "Feature",
			"geometry": map[string]any{
				"type":        "Point",
				"coordinates": []any{r.lon - float64(i)*0.002, r.lat + float64(i)*0.002},
			},
			"properties": props,
		})
	}

	return map[string]any{
		"type":     "FeatureCollection",
		"features": features,
	}
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
