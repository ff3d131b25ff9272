package tripload

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/MasterOfBinary/tripload/store"
)

// DefaultBatchSize is the number of documents in one bulk request.
const DefaultBatchSize = 300

// DefaultStations is the number of station buckets returned by the query.
const DefaultStations = 10

// Config configures Run. Only File is required.
type Config struct {
	// File is the path of the trips CSV file.
	File string

	// URL of the Elasticsearch cluster. Defaults to store.DefaultURL.
	URL string

	// Index name. Defaults to store.DefaultIndex.
	Index string

	// BatchSize is the number of documents per bulk request. Defaults to
	// DefaultBatchSize.
	BatchSize uint64

	// Stations is the number of station buckets in the report. Defaults to
	// DefaultStations.
	Stations int

	// Registerer, if set, receives the ingestion metrics.
	Registerer prometheus.Registerer

	// Log receives progress and diagnostics. Nil disables logging.
	Log *zerolog.Logger
}

func (c Config) withDefaults() Config {
	if c.URL == "" {
		c.URL = store.DefaultURL
	}
	if c.Index == "" {
		c.Index = store.DefaultIndex
	}
	if c.BatchSize == 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.Stations <= 0 {
		c.Stations = DefaultStations
	}
	return c
}
