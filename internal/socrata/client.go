// Package socrata executes compiled queries against a Socrata (SODA 2.x) portal.
package socrata

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dallasopendata/incidents/internal/query"
	"github.com/dallasopendata/incidents/internal/response"
	"github.com/dallasopendata/incidents/internal/schema"
	"github.com/dallasopendata/incidents/internal/telemetry"
)

const (
	// DefaultPageSize is the page size used by GetAll.
	DefaultPageSize = 1000
	defaultTimeout  = 30 * time.Second
	userAgent       = "dallas-incidents/1.0"
	maxErrorBody    = 2048
)

// APIError is a non-2xx answer from the portal.
type APIError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("portal returned status %d: %s", e.StatusCode, e.Body)
}

// Client fetches records for one dataset schema.
type Client struct {
	httpClient *http.Client
	schema     schema.Schema
	compiler   *query.Compiler
	metrics    *telemetry.Metrics
	appToken   string
	baseURL    string
	pageSize   int
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.httpClient = h } }

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithAppToken sets the credential sent as X-App-Token. It is passed through untouched.
func WithAppToken(token string) Option { return func(c *Client) { c.appToken = token } }

// WithBaseURL overrides the https://<domain> prefix.
func WithBaseURL(u string) Option { return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") } }

// WithPageSize sets the page size used by GetAll.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithMetrics records portal requests.
func WithMetrics(m *telemetry.Metrics) Option { return func(c *Client) { c.metrics = m } }

// WithCompiler sets the query compiler.
func WithCompiler(comp *query.Compiler) Option { return func(c *Client) { c.compiler = comp } }

// NewClient creates a client for s. An invalid schema is a configuration error.
func NewClient(s schema.Schema, opts ...Option) (*Client, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		schema:     s,
		compiler:   query.NewCompiler(nil),
		baseURL:    "https://" + s.Domain,
		pageSize:   DefaultPageSize,
	}
	if s.Domain == "" {
		c.baseURL = "https://" + schema.DefaultDomain
	}
	for _, opt := range opts {
		opt(c)
	}

	log.Info().
		Str("dataset", s.DatasetID).
		Str("base_url", c.baseURL).
		Bool("app_token", c.appToken != "").
		Msg("Portal client initialized")
	return c, nil
}

// Schema returns the dataset schema the client targets.
func (c *Client) Schema() schema.Schema { return c.schema }

// Compile translates q for this client's dataset.
func (c *Client) Compile(q *query.Query) (*query.Compiled, error) {
	compiled, err := c.compiler.Compile(q, c.schema)
	if err != nil {
		return nil, err
	}
	c.metrics.ObserveCompile(c.schema.DatasetID, compiled.Omitted)
	if len(compiled.Omitted) > 0 {
		log.Debug().
			Str("dataset", c.schema.DatasetID).
			Strs("omitted", compiled.Omitted).
			Msg("Filters not supported by dataset were dropped")
	}
	return compiled, nil
}

// ResourceURL returns the full request URL for q.
func (c *Client) ResourceURL(q *query.Query) (string, *query.Compiled, error) {
	compiled, err := c.Compile(q)
	if err != nil {
		return "", nil, err
	}
	return c.resourceURL(formatOf(q), compiled), compiled, nil
}

func (c *Client) resourceURL(format query.Format, compiled *query.Compiled) string {
	u := fmt.Sprintf("%s/resource/%s.%s", c.baseURL, url.PathEscape(c.schema.DatasetID), format)
	if v := compiled.Values(); len(v) > 0 {
		u += "?" + v.Encode()
	}
	return u
}

func formatOf(q *query.Query) query.Format {
	if q == nil || q.Format == "" {
		return query.FormatJSON
	}
	return q.Format
}

// Get runs q once and wraps the returned page.
func (c *Client) Get(ctx context.Context, q *query.Query) (*response.Response, error) {
	if q == nil {
		d := query.Default()
		q = &d
	}
	compiled, err := c.Compile(q)
	if err != nil {
		return nil, err
	}

	format := formatOf(q)
	records, err := c.fetch(ctx, c.resourceURL(format, compiled), format)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("dataset", c.schema.DatasetID).
		Int("records", len(records)).
		Str("where", compiled.Where).
		Msg("Retrieved records")
	return response.New(records, q, c.schema), nil
}

// GetAll pages through every record matching q, starting at q.Offset, and
// calls fn once per page in arrival order. q.Limit is ignored in favour of
// the client's page size. It stops after the first short page and returns
// the number of records seen.
func (c *Client) GetAll(ctx context.Context, q *query.Query, fn func(*response.Response) error) (int, error) {
	if q == nil {
		d := query.Default()
		q = &d
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	total := 0
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		resp, err := c.Get(ctx, q.Page(offset, c.pageSize))
		if err != nil {
			return total, fmt.Errorf("page %d: %w", page, err)
		}
		total += resp.TotalReturned
		if resp.TotalReturned > 0 && fn != nil {
			if err := fn(resp); err != nil {
				return total, err
			}
		}
		if resp.TotalReturned < c.pageSize {
			break
		}
		offset += resp.TotalReturned
	}

	log.Info().Str("dataset", c.schema.DatasetID).Int("records", total).Msg("Pagination complete")
	return total, nil
}

// Collect is GetAll gathered into a single response.
func (c *Client) Collect(ctx context.Context, q *query.Query) (*response.Response, error) {
	var all []response.Record
	if _, err := c.GetAll(ctx, q, func(page *response.Response) error {
		all = append(all, page.Data...)
		return nil
	}); err != nil {
		return nil, err
	}
	return response.New(all, q, c.schema), nil
}

func (c *Client) newRequest(ctx context.Context, u string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if c.appToken != "" {
		req.Header.Set("X-App-Token", c.appToken)
	}
	return req, nil
}

// do sends a GET and returns the body of a 2xx answer.
func (c *Client) do(ctx context.Context, u string) ([]byte, int, error) {
	req, err := c.newRequest(ctx, u)
	if err != nil {
		return nil, 0, err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObservePortal(c.schema.DatasetID, 0, time.Since(start), 0)
		return nil, 0, fmt.Errorf("portal request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.metrics.ObservePortal(c.schema.DatasetID, resp.StatusCode, time.Since(start), 0)
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return nil, resp.StatusCode, &APIError{StatusCode: resp.StatusCode, URL: u, Body: strings.TrimSpace(string(body))}
	}
	return body, resp.StatusCode, nil
}

func (c *Client) fetch(ctx context.Context, u string, format query.Format) ([]response.Record, error) {
	start := time.Now()
	body, status, err := c.do(ctx, u)
	if err != nil {
		return nil, err
	}

	records, err := decode(body, format)
	if err != nil {
		return nil, err
	}
	c.metrics.ObservePortal(c.schema.DatasetID, status, time.Since(start), len(records))
	return records, nil
}

func decode(body []byte, format query.Format) ([]response.Record, error) {
	switch format {
	case query.FormatGeoJSON:
		var fc struct {
			Features []response.Record `json:"features"`
		}
		if err := json.Unmarshal(body, &fc); err != nil {
			return nil, fmt.Errorf("failed to decode GeoJSON: %w", err)
		}
		return fc.Features, nil
	case query.FormatCSV:
		return decodeCSV(body)
	default:
		var rows []response.Record
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("failed to decode JSON: %w", err)
		}
		return rows, nil
	}
}

func decodeCSV(body []byte) ([]response.Record, error) {
	r := csv.NewReader(bytes.NewReader(body))
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	var rows []response.Record
	for {
		line, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}
		rec := make(response.Record, len(header))
		for i, col := range header {
			if i < len(line) && line[i] != "" {
				rec[col] = line[i]
			}
		}
		rows = append(rows, rec)
	}
	return rows, nil
}
