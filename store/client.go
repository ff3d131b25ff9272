package store

import (
	"context"
	"net/http"

	"github.com/olivere/elastic/v7"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/MasterOfBinary/tripload/trip"
)

// DefaultURL is the address of a local single-node cluster.
const DefaultURL = "http://localhost:9200"

// DefaultIndex is the name of the trips index.
const DefaultIndex = "trips"

// Config configures a Client.
type Config struct {
	// URL of the cluster. Defaults to DefaultURL.
	URL string
	// Index name. Defaults to DefaultIndex.
	Index string
	// Schema is the index body used by CreateIndex. Defaults to TripsIndex.
	Schema string
	// HTTPClient is used for requests if set.
	HTTPClient *http.Client
	// Log receives index administration messages. Nil disables logging.
	Log *zerolog.Logger
}

// Client performs index administration, bulk writes and queries on one
// index.
type Client struct {
	es     *elastic.Client
	index  string
	schema string
	log    zerolog.Logger
}

// New creates a Client. No request is made; sniffing and health checks are
// disabled so a single node behind a proxy or container port works.
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Index == "" {
		cfg.Index = DefaultIndex
	}
	if cfg.Schema == "" {
		cfg.Schema = TripsIndex
	}

	opts := []elastic.ClientOptionFunc{
		elastic.SetURL(cfg.URL),
		elastic.SetRetrier(elastic.NewStopRetrier()),
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, elastic.SetHttpClient(cfg.HTTPClient))
	}

	log := zerolog.Nop()
	if cfg.Log != nil {
		log = *cfg.Log
	}

	es, err := elastic.NewSimpleClient(opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "creating elasticsearch client for %s", cfg.URL)
	}

	return &Client{
		es:     es,
		index:  cfg.Index,
		schema: cfg.Schema,
		log:    log.With().Str("index", cfg.Index).Logger(),
	}, nil
}

// Index returns the name of the index the Client works on.
func (c *Client) Index() string {
	return c.index
}

// IndexExists reports whether the index exists.
func (c *Client) IndexExists(ctx context.Context) (bool, error) {
	exists, err := c.es.IndexExists(c.index).Do(ctx)
	if err != nil {
		return false, errors.Wrapf(err, "checking index %s", c.index)
	}
	return exists, nil
}

// DeleteIndex deletes the index.
func (c *Client) DeleteIndex(ctx context.Context) error {
	if _, err := c.es.DeleteIndex(c.index).Do(ctx); err != nil {
		return errors.Wrapf(err, "deleting index %s", c.index)
	}
	return nil
}

// CreateIndex creates the index from the configured schema.
func (c *Client) CreateIndex(ctx context.Context) error {
	res, err := c.es.CreateIndex(c.index).BodyString(c.schema).Do(ctx)
	if err != nil {
		return errors.Wrapf(err, "creating index %s", c.index)
	}
	if !res.Acknowledged {
		return errors.Errorf("creating index %s: not acknowledged", c.index)
	}
	return nil
}

// Recreate deletes the index if it exists and creates it again, empty.
func (c *Client) Recreate(ctx context.Context) error {
	exists, err := c.IndexExists(ctx)
	if err != nil {
		return err
	}
	if exists {
		c.log.Info().Msg("deleting existing index")
		if err := c.DeleteIndex(ctx); err != nil {
			return err
		}
	}
	c.log.Info().Msg("creating index")
	return c.CreateIndex(ctx)
}

// Refresh makes all writes so far visible to search.
func (c *Client) Refresh(ctx context.Context) error {
	if _, err := c.es.Refresh(c.index).Do(ctx); err != nil {
		return errors.Wrapf(err, "refreshing index %s", c.index)
	}
	return nil
}

// BulkResult summarizes an acknowledged bulk request.
type BulkResult struct {
	// Indexed is the number of documents the store accepted.
	Indexed int
	// Failed holds the per-document failures, keyed by document ID.
	Failed map[string]string
}

// Bulk writes docs in one bulk request, using each document's ID as _id.
// A non-nil error means the request itself failed; documents refused
// individually are reported in BulkResult.Failed.
func (c *Client) Bulk(ctx context.Context, docs []*trip.Document) (BulkResult, error) {
	if len(docs) == 0 {
		return BulkResult{}, nil
	}

	bulk := c.es.Bulk().Index(c.index)
	for _, doc := range docs {
		bulk.Add(elastic.NewBulkIndexRequest().Id(doc.DocID()).Doc(doc))
	}

	res, err := bulk.Do(ctx)
	if err != nil {
		return BulkResult{}, errors.Wrapf(err, "bulk indexing %d documents", len(docs))
	}

	result := BulkResult{Indexed: len(docs)}
	for _, item := range res.Failed() {
		if result.Failed == nil {
			result.Failed = make(map[string]string)
		}
		reason := "unknown"
		if item.Error != nil {
			reason = item.Error.Type + ": " + item.Error.Reason
		}
		result.Failed[item.Id] = reason
	}
	result.Indexed -= len(result.Failed)
	return result, nil
}
