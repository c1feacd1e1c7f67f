// Package domain models citizen incident reports for the Nakuru County
// safety platform.
//
// # Data Source
//
// Reports originate from the public intake boundary (web and USSD forms).
// The intake service publishes each submission as flat JSON to the Kafka
// source topic. Coordinates arrive as strings because they come straight
// from form fields: they may be empty, "0", or garbage, and every consumer
// must tolerate that.
//
// # Geography
//
// The deployment covers Nakuru County, Kenya. Coordinates are considered
// plausible only inside the county bounding box:
//
//	-1.2 <= lat <= 0.2
//	35.7 <= lon <= 36.5
//
// Distances between points use planar Euclidean math over raw (lat, lon)
// degrees. That approximation is acceptable at county scale and keeps the
// clustering and density thresholds directly comparable to the operational
// values the county reviewed (cluster cut 0.01 deg, density radius 0.005 deg,
// roughly 550 m).
//
// # Languages
//
// The platform supports English ("en") and Kiswahili ("sw") only. Reports
// declare a language; when the declaration is missing the pipeline detects
// one. Keyword tables for scoring exist per language, with English as the
// fallback set.
//
// # Hotspots
//
// A hotspot is a (constituency, location) aggregate owned by the persistence
// collaborator. The pipeline only emits the hotspot key with each scored
// report; it never increments counts itself.
package domain
