package query

import "strings"

// DemographicField is a complainant demographic column of the police
// incidents dataset.
type DemographicField string

const (
	FieldRace      DemographicField = "comprace"
	FieldEthnicity DemographicField = "compethnicity"
	FieldSex       DemographicField = "compsex"
)

// DemographicFields returns the demographic columns in reporting order.
func DemographicFields() []DemographicField {
	return []DemographicField{FieldRace, FieldEthnicity, FieldSex}
}

type demographicValue struct {
	code  string
	label string
}

// Portal codes and their readable labels, per field.
var demographicValues = map[DemographicField][]demographicValue{
	FieldRace: {
		{"W", "White"},
		{"B", "Black"},
		{"H", "Hispanic"},
		{"A", "Asian"},
		{"I", "American Indian/Alaska Native"},
		{"U", "Unknown"},
		{"O", "Other"},
	},
	FieldEthnicity: {
		{"H", "Hispanic"},
		{"N", "Non-Hispanic"},
		{"U", "Unknown"},
	},
	FieldSex: {
		{"M", "Male"},
		{"F", "Female"},
		{"U", "Unknown"},
	},
}

// Name is the short name used in JSON and error messages.
func (f DemographicField) Name() string {
	switch f {
	case FieldRace:
		return "race"
	case FieldEthnicity:
		return "ethnicity"
	case FieldSex:
		return "sex"
	}
	return string(f)
}

// Code resolves a one-letter portal code or a readable label to the code,
// case-insensitively. Values the field does not know report false.
func (f DemographicField) Code(v string) (string, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", false
	}
	for _, dv := range demographicValues[f] {
		if strings.EqualFold(v, dv.code) || strings.EqualFold(v, dv.label) {
			return dv.code, true
		}
	}
	return "", false
}

// Label renders a raw column value readable. Unknown codes come back
// upper-cased and trimmed; empty input stays empty.
func (f DemographicField) Label(raw string) string {
	v := strings.ToUpper(strings.TrimSpace(raw))
	if v == "" {
		return ""
	}
	for _, dv := range demographicValues[f] {
		if v == dv.code {
			return dv.label
		}
	}
	return v
}

// Codes resolves every set value of d, keyed by field. The first unknown
// value is returned as a ValidationError.
func (d *Demographics) Codes() (map[DemographicField]string, error) {
	out := make(map[DemographicField]string, 3)
	if d == nil {
		return out, nil
	}
	for _, f := range DemographicFields() {
		v := d.value(f)
		if strings.TrimSpace(v) == "" {
			continue
		}
		code, ok := f.Code(v)
		if !ok {
			return nil, &ValidationError{Field: "demographics." + f.Name(), Value: v, Reason: "unknown value"}
		}
		out[f] = code
	}
	return out, nil
}

func (d *Demographics) value(f DemographicField) string {
	switch f {
	case FieldRace:
		return d.Race
	case FieldEthnicity:
		return d.Ethnicity
	case FieldSex:
		return d.Sex
	}
	return ""
}
