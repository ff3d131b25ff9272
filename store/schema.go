package store

import _ "embed"

// TripsIndex is the index definition (settings and mappings) for trip
// documents. Station names are keywords so they can be aggregated, times are
// dates, and locations are geo points built from "lat,lon" strings.
//
//go:embed trips_index.json
var TripsIndex string
