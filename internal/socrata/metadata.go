package socrata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
)

// Column describes one dataset column.
type Column struct {
	Name         string `json:"name"`
	FieldName    string `json:"fieldName"`
	DataTypeName string `json:"dataTypeName"`
	Description  string `json:"description,omitempty"`
}

// Metadata is the subset of the views API the tooling uses.
type Metadata struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Category      string   `json:"category,omitempty"`
	RowsUpdatedAt int64    `json:"rowsUpdatedAt,omitempty"`
	Columns       []Column `json:"columns"`
}

// UpdatedAt returns the last data update time, or zero if unknown.
func (m *Metadata) UpdatedAt() time.Time {
	if m.RowsUpdatedAt == 0 {
		return time.Time{}
	}
	return time.Unix(m.RowsUpdatedAt, 0).UTC()
}

// TimestampColumns lists columns holding dates or times.
func (m *Metadata) TimestampColumns() []Column {
	var out []Column
	for _, col := range m.Columns {
		name := strings.ToLower(col.Name)
		if col.DataTypeName == "calendar_date" || col.DataTypeName == "floating_timestamp" ||
			strings.Contains(name, "date") || strings.Contains(name, "time") {
			out = append(out, col)
		}
	}
	return out
}

// Metadata fetches the dataset description. HTML in descriptions is
// reduced to plain text.
func (c *Client) Metadata(ctx context.Context) (*Metadata, error) {
	u := fmt.Sprintf("%s/api/views/%s.json", c.baseURL, url.PathEscape(c.schema.DatasetID))

	start := time.Now()
	body, status, err := c.do(ctx, u)
	if err != nil {
		return nil, err
	}
	c.metrics.ObservePortal(c.schema.DatasetID, status, time.Since(start), 0)

	var meta Metadata
	if err := json.Unmarshal(body, &meta); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	meta.Description = StripHTML(meta.Description)
	for i := range meta.Columns {
		meta.Columns[i].Description = StripHTML(meta.Columns[i].Description)
	}

	log.Debug().
		Str("dataset", meta.ID).
		Int("columns", len(meta.Columns)).
		Msg("Fetched dataset metadata")
	return &meta, nil
}

// FieldNames lists the API field names of every column.
func (c *Client) FieldNames(ctx context.Context) ([]string, error) {
	meta, err := c.Metadata(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(meta.Columns))
	for _, col := range meta.Columns {
		names = append(names, col.FieldName)
	}
	return names, nil
}

// StripHTML returns the text content of an HTML fragment with whitespace collapsed.
func StripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.StartTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "script", "style":
				skip++
			case "br", "p", "div", "li":
				b.WriteByte(' ')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if n := string(name); (n == "script" || n == "style") && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
				b.WriteByte(' ')
			}
		}
	}
}
