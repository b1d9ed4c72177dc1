// Package domain models normalized traffic-incident data from state DOT feeds.
//
// # Data Sources
//
// Incidents originate from two upstream APIs with very different shapes:
//
//	OHGO (Ohio DOT):       https://publicapi.ohgo.com/api/v1
//	DriveTexas (TxDOT):    https://api.drivetexas.org/api/conditions.geojson
//
// OHGO returns either a flat JSON result wrapper or GeoJSON features
// depending on the deployment and endpoint; DriveTexas is always a GeoJSON
// FeatureCollection. Field naming is inconsistent across providers and even
// across revisions of the same provider (routeName vs route_name vs
// ROUTE_NAME), so normalization works from ordered candidate lists rather
// than a single schema.
//
// # Identity
//
// Every stored incident carries a globally unique uuid. Records first seen
// without a provider-native uuid get a synthesized one:
//
//	"ohgo:<event id>"        for OHGO
//	"drivetexas:<event id>"  for DriveTexas
//
// (source_system, source_event_id) is a secondary uniqueness key. The same
// event may legitimately be addressable under several identity candidates
// because providers started supplying native ids mid-stream; the ingest
// engine considers all of them when reconciling against the store.
//
// # Derivation Heuristics
//
// Providers frequently omit fields the schema wants, so missing values are
// derived from partial signals:
//
//	is_active:       explicit boolean > cleared/end time present (inactive) >
//	                 status vocabulary (cleared/completed/ended vs
//	                 closed/restricted/incident/delay/active/open) > true.
//	                 Defaulting to active biases toward not hiding live
//	                 incidents.
//	severity:        explicit numeric score > severity word table
//	                 (severe/major/high=3, moderate/medium=2, minor/low=1) >
//	                 status table > category substring table
//	                 (crash/accident=3, work zone/construction=2,
//	                 maintenance/disabled vehicle=1). First match wins.
//	closure_status:  substring classification of free text into
//	                 CLOSED / PARTIAL / OPEN / UNKNOWN.
//	route_class:     "I-" route name prefix means INTERSTATE, else STATE.
//
// # Column Width Policy
//
// Free text destined for length-bounded columns is clipped, never rejected.
// The direction column is 32 characters, widened once after values like
// "Both Directions" appeared in OHGO payloads.
package domain
