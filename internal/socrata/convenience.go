package socrata

import (
	"context"

	"github.com/dallasopendata/incidents/internal/offense"
	"github.com/dallasopendata/incidents/internal/query"
	"github.com/dallasopendata/incidents/internal/response"
)

func (c *Client) getWith(ctx context.Context, opts []query.Option, extra ...query.Option) (*response.Response, error) {
	q, err := query.New(append(extra, opts...)...)
	if err != nil {
		return nil, err
	}
	return c.Get(ctx, q)
}

// ByBeat fetches records for the given beats.
func (c *Client) ByBeat(ctx context.Context, beats []string, opts ...query.Option) (*response.Response, error) {
	return c.getWith(ctx, opts, query.WithBeats(beats...))
}

// ByDateRange fetches records between two ISO-8601 dates, either of which may be empty.
func (c *Client) ByDateRange(ctx context.Context, start, end string, opts ...query.Option) (*response.Response, error) {
	return c.getWith(ctx, opts, query.WithDates(start, end))
}

// ByLocation fetches GeoJSON features within radiusMeters of a point.
func (c *Client) ByLocation(ctx context.Context, lat, lon, radiusMeters float64, opts ...query.Option) (*response.Response, error) {
	return c.getWith(ctx, opts, query.WithGeo(lat, lon, radiusMeters), query.WithFormat(query.FormatGeoJSON))
}

// ByCategory fetches records whose offense is one of the category's curated types.
func (c *Client) ByCategory(ctx context.Context, category offense.Category, opts ...query.Option) (*response.Response, error) {
	return c.getWith(ctx, opts, query.WithOffenseCategory(category))
}

// ByKeyword fetches records whose offense text contains keyword.
func (c *Client) ByKeyword(ctx context.Context, keyword string, opts ...query.Option) (*response.Response, error) {
	return c.getWith(ctx, opts, query.WithOffenseKeyword(keyword))
}

// Search runs a full-text search.
func (c *Client) Search(ctx context.Context, terms string, opts ...query.Option) (*response.Response, error) {
	return c.getWith(ctx, opts, query.WithSearch(terms))
}
