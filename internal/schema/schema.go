// Package schema describes the backend datasets the query compiler targets.
package schema

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultDomain is the Socrata portal hosting the Dallas datasets.
const DefaultDomain = "www.dallasopendata.com"

// DefaultBeatField is used when a custom schema does not name its beat column.
const DefaultBeatField = "beat"

// Preset names.
const (
	PresetPoliceIncidents      = "police_incidents"
	PresetActiveCallsNortheast = "active_calls_northeast"
	PresetActiveCallsAll       = "active_calls_all"
)

// ConfigurationError reports an unknown preset or a structurally invalid schema.
type ConfigurationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("configuration error: %s %q: %s", e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// Schema describes one backend dataset. It is a value: copies are
// independent and nothing in this module modifies a schema after New or
// FromPreset returns it. Build schemas with those constructors; a struct
// literal is only usable once Validate accepts it.
// An empty optional field name means the dataset has no such column.
type Schema struct {
	DatasetID     string
	Name          string
	Description   string
	Domain        string
	DatetimeField string // optional
	LocationField string
	BeatField     string
	DivisionField string // optional
	OffenseField  string // optional
	UCRField      string // optional

	// ExtendedFilters marks datasets carrying NIBRS, UCR, demographic and
	// geocoded columns.
	ExtendedFilters bool

	fields []string
}

// Option customises a schema built with New.
type Option func(*Schema)

// WithName sets the human-readable dataset name.
func WithName(name string) Option { return func(s *Schema) { s.Name = name } }

// WithDescription sets the dataset description.
func WithDescription(desc string) Option { return func(s *Schema) { s.Description = desc } }

// WithDomain overrides the portal domain.
func WithDomain(domain string) Option { return func(s *Schema) { s.Domain = domain } }

// WithDatetimeField declares the timestamp column used for date filters.
func WithDatetimeField(field string) Option { return func(s *Schema) { s.DatetimeField = field } }

// WithBeatField overrides the beat column name.
func WithBeatField(field string) Option { return func(s *Schema) { s.BeatField = field } }

// WithDivisionField declares the division column.
func WithDivisionField(field string) Option { return func(s *Schema) { s.DivisionField = field } }

// WithOffenseFields declares the offense description and UCR columns.
func WithOffenseFields(offense, ucr string) Option {
	return func(s *Schema) {
		s.OffenseField = offense
		s.UCRField = ucr
	}
}

// WithExtendedFilters enables NIBRS, UCR, demographic, geo, category and keyword filters.
func WithExtendedFilters() Option { return func(s *Schema) { s.ExtendedFilters = true } }

// WithFields declares the dataset's column set. Without it the field set is
// unknown and projections pass through untouched.
func WithFields(fields ...string) Option {
	return func(s *Schema) { s.fields = append([]string(nil), fields...) }
}

// New builds a custom schema. The dataset id and location field are required.
func New(datasetID, locationField string, opts ...Option) (Schema, error) {
	s := Schema{
		DatasetID:     strings.TrimSpace(datasetID),
		LocationField: strings.TrimSpace(locationField),
		BeatField:     DefaultBeatField,
		Domain:        DefaultDomain,
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.BeatField == "" {
		s.BeatField = DefaultBeatField
	}
	if err := s.Validate(); err != nil {
		return Schema{}, err
	}
	return s, nil
}

// Validate checks the fields every compiled query depends on.
func (s Schema) Validate() error {
	if s.DatasetID == "" {
		return &ConfigurationError{Field: "dataset_id", Reason: "is required"}
	}
	if s.LocationField == "" {
		return &ConfigurationError{Field: "location_field", Reason: "is required"}
	}
	if s.BeatField == "" {
		return &ConfigurationError{Field: "beat_field", Reason: "is required"}
	}
	return nil
}

// SupportsTimestamps reports whether date filters can be expressed.
func (s Schema) SupportsTimestamps() bool {
	return s.DatetimeField != ""
}

// HasDivision reports whether division filters can be expressed.
func (s Schema) HasDivision() bool {
	return s.DivisionField != ""
}

// Fields returns a copy of the declared column set, or nil if undeclared.
func (s Schema) Fields() []string {
	if s.fields == nil {
		return nil
	}
	return append([]string(nil), s.fields...)
}

// HasField reports whether the field is declared. Schemas without a declared
// field set accept every name.
func (s Schema) HasField(name string) bool {
	if s.fields == nil {
		return true
	}
	for _, f := range s.fields {
		if f == name {
			return true
		}
	}
	return false
}

// EndpointURL returns the SODA resource URL for the given format extension.
func (s Schema) EndpointURL(format string) string {
	domain := s.Domain
	if domain == "" {
		domain = DefaultDomain
	}
	if format == "" {
		return fmt.Sprintf("https://%s/resource/%s", domain, s.DatasetID)
	}
	return fmt.Sprintf("https://%s/resource/%s.%s", domain, s.DatasetID, format)
}

// Info returns a human-readable capability summary.
func (s Schema) Info() string {
	name := s.Name
	if name == "" {
		name = s.DatasetID
	}
	desc := s.Description
	if desc == "" {
		desc = "N/A"
	}
	support := "No"
	if s.SupportsTimestamps() {
		support = "Yes"
	}

	lines := []string{
		"Dataset: " + name,
		"Description: " + desc,
		"Endpoint: " + s.EndpointURL(""),
		"Timestamp Support: " + support,
	}
	if s.SupportsTimestamps() {
		lines = append(lines, "Datetime Field: "+s.DatetimeField)
	}
	if s.HasDivision() {
		lines = append(lines, "Division Field: "+s.DivisionField)
	}
	if s.ExtendedFilters {
		lines = append(lines, "Extended Filters: NIBRS, UCR, demographics, geo, offense category/keyword")
	}
	return strings.Join(lines, "\n")
}

// Descriptor summarises a preset for reference artifacts and the API.
type Descriptor struct {
	Name      string `json:"name"`
	DatasetID string `json:"dataset_id"`
	Kind      string `json:"kind"`
	Notes     string `json:"notes"`
}

// Presets lists the known dataset presets sorted by name.
func Presets() []Descriptor {
	out := make([]Descriptor, 0, len(presets))
	for name, p := range presets {
		out = append(out, Descriptor{
			Name:      name,
			DatasetID: p.schema.DatasetID,
			Kind:      p.kind,
			Notes:     p.notes,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// PresetNames returns the sorted preset names.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PresetFor returns the name of the preset serving datasetID.
func PresetFor(datasetID string) (string, bool) {
	for _, name := range PresetNames() {
		if presets[name].schema.DatasetID == datasetID {
			return name, true
		}
	}
	return "", false
}

// FromPreset returns the schema registered under name (case-insensitive).
func FromPreset(name string) (Schema, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	p, ok := presets[key]
	if !ok {
		return Schema{}, &ConfigurationError{
			Field:  "preset",
			Value:  name,
			Reason: "unknown preset, available presets: " + strings.Join(PresetNames(), ", "),
		}
	}
	s := p.schema
	s.fields = append([]string(nil), p.schema.fields...)
	return s, nil
}

// Spec is the serializable form of a schema, used by configuration files and
// API requests. A non-empty Preset wins over the explicit fields.
type Spec struct {
	Preset          string   `json:"preset,omitempty" yaml:"preset"`
	DatasetID       string   `json:"dataset_id,omitempty" yaml:"dataset_id"`
	Name            string   `json:"name,omitempty" yaml:"name"`
	Domain          string   `json:"domain,omitempty" yaml:"domain"`
	DatetimeField   string   `json:"datetime_field,omitempty" yaml:"datetime_field"`
	LocationField   string   `json:"location_field,omitempty" yaml:"location_field"`
	BeatField       string   `json:"beat_field,omitempty" yaml:"beat_field"`
	DivisionField   string   `json:"division_field,omitempty" yaml:"division_field"`
	OffenseField    string   `json:"offense_field,omitempty" yaml:"offense_field"`
	UCRField        string   `json:"ucr_field,omitempty" yaml:"ucr_field"`
	ExtendedFilters bool     `json:"extended_filters,omitempty" yaml:"extended_filters"`
	Fields          []string `json:"fields,omitempty" yaml:"fields"`
}

// Build resolves sp into a schema. A preset may still have its domain
// overridden.
func (sp Spec) Build() (Schema, error) {
	if sp.Preset != "" {
		s, err := FromPreset(sp.Preset)
		if err != nil {
			return Schema{}, err
		}
		if sp.Domain != "" {
			s.Domain = sp.Domain
		}
		return s, nil
	}

	opts := []Option{
		WithName(sp.Name),
		WithDatetimeField(sp.DatetimeField),
		WithBeatField(sp.BeatField),
		WithDivisionField(sp.DivisionField),
		WithOffenseFields(sp.OffenseField, sp.UCRField),
	}
	if sp.Domain != "" {
		opts = append(opts, WithDomain(sp.Domain))
	}
	if sp.ExtendedFilters {
		opts = append(opts, WithExtendedFilters())
	}
	if len(sp.Fields) > 0 {
		opts = append(opts, WithFields(sp.Fields...))
	}
	return New(sp.DatasetID, sp.LocationField, opts...)
}

// Spec returns the explicit-field form of s.
func (s Schema) Spec() Spec {
	return Spec{
		DatasetID:       s.DatasetID,
		Name:            s.Name,
		Domain:          s.Domain,
		DatetimeField:   s.DatetimeField,
		LocationField:   s.LocationField,
		BeatField:       s.BeatField,
		DivisionField:   s.DivisionField,
		OffenseField:    s.OffenseField,
		UCRField:        s.UCRField,
		ExtendedFilters: s.ExtendedFilters,
		Fields:          s.Fields(),
	}
}
