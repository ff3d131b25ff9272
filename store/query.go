package store

import (
	"context"
	"fmt"
	"time"

	"github.com/olivere/elastic/v7"
	"github.com/pkg/errors"
)

// Aggregation names in the station activity query.
const (
	byStartStation = "by_start_station"
	byTwoHours     = "by_2hour"
)

// StationReport is the result of StationActivity.
type StationReport struct {
	// Total is the number of documents matched by the query.
	Total    int64
	Stations []StationBucket
}

// StationBucket holds the trips that started at one station.
type StationBucket struct {
	Name    string
	Trips   int64
	Windows []TimeBucket
}

// TimeBucket counts the trips that started in one 2-hour window.
type TimeBucket struct {
	Start time.Time
	Trips int64
}

// StationActivityQuery returns the aggregation used by StationActivity: a
// terms aggregation on the start station name with a nested 2-hour date
// histogram on the start time. size is the number of stations returned.
func StationActivityQuery(size int) *elastic.TermsAggregation {
	return elastic.NewTermsAggregation().
		Field("start_station_name").
		Size(size).
		SubAggregation(byTwoHours, elastic.NewDateHistogramAggregation().
			Field("start_time").
			FixedInterval("2h"))
}

// StationActivity groups all trips by start station and, within each
// station, by 2-hour start time window. Only the aggregation is returned, no
// hits.
func (c *Client) StationActivity(ctx context.Context, size int) (*StationReport, error) {
	if size <= 0 {
		size = 10
	}

	res, err := c.es.Search(c.index).
		Size(0).
		Aggregation(byStartStation, StationActivityQuery(size)).
		Do(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "querying index %s", c.index)
	}

	report := &StationReport{}
	if res.Hits != nil && res.Hits.TotalHits != nil {
		report.Total = res.Hits.TotalHits.Value
	}

	stations, ok := res.Aggregations.Terms(byStartStation)
	if !ok {
		return report, nil
	}

	for _, station := range stations.Buckets {
		sb := StationBucket{
			Name:  fmt.Sprint(station.Key),
			Trips: station.DocCount,
		}
		if hist, ok := station.DateHistogram(byTwoHours); ok {
			for _, w := range hist.Buckets {
				sb.Windows = append(sb.Windows, TimeBucket{
					Start: time.Unix(0, int64(w.Key)*int64(time.Millisecond)).UTC(),
					Trips: w.DocCount,
				})
			}
		}
		report.Stations = append(report.Stations, sb)
	}
	return report, nil
}
