package config

import (
	"fmt"

	"github.com/ajitpratap0/filereader/pkg/table"
)

// SchemaConfig is the serialized form of a row schema.
type SchemaConfig struct {
	// RowIDColumn marks the first token of each row as its identifier
	RowIDColumn bool           `yaml:"row_id_column" json:"row_id_column"`
	Columns     []ColumnConfig `yaml:"columns" json:"columns"`
}

// ColumnConfig describes one column.
type ColumnConfig struct {
	Name string `yaml:"name" json:"name"`
	// Type is int, double, string or a registered extension type
	Type string `yaml:"type" json:"type"`
	// MissingPattern overrides the global pattern when set
	MissingPattern     *string `yaml:"missing_pattern,omitempty" json:"missing_pattern,omitempty"`
	Skip               bool    `yaml:"skip" json:"skip"`
	ReadPossibleValues bool    `yaml:"read_possible_values" json:"read_possible_values"`
	// PossibleValues pre-seeds the domain value set
	PossibleValues []string `yaml:"possible_values,omitempty" json:"possible_values,omitempty"`
	// Lower and Upper pre-seed numeric bounds
	Lower *float64 `yaml:"lower,omitempty" json:"lower,omitempty"`
	Upper *float64 `yaml:"upper,omitempty" json:"upper,omitempty"`
}

// Build converts the configuration into a table schema. Pre-seeded bounds are
// stored with the Go type of the column.
func (s SchemaConfig) Build() (table.Schema, error) {
	schema := table.Schema{RowIDColumn: s.RowIDColumn, Columns: make([]table.Column, 0, len(s.Columns))}
	for i, cc := range s.Columns {
		col := table.Column{
			Name:               cc.Name,
			Type:               table.DataType(cc.Type),
			MissingPattern:     cc.MissingPattern,
			Skip:               cc.Skip,
			ReadPossibleValues: cc.ReadPossibleValues,
		}
		if col.Name == "" {
			col.Name = fmt.Sprintf("col%d", i)
		}

		if len(cc.PossibleValues) > 0 || cc.Lower != nil || cc.Upper != nil {
			d := table.NewDomain()
			for _, v := range cc.PossibleValues {
				d.Add(v)
			}
			lower, err := bound(col.Type, cc.Lower)
			if err != nil {
				return table.Schema{}, fmt.Errorf("column %q: %w", col.Name, err)
			}
			upper, err := bound(col.Type, cc.Upper)
			if err != nil {
				return table.Schema{}, fmt.Errorf("column %q: %w", col.Name, err)
			}
			d.Lower, d.Upper = lower, upper
			col.Domain = d
		}
		schema.Columns = append(schema.Columns, col)
	}
	return schema, nil
}

func bound(t table.DataType, v *float64) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch t {
	case table.TypeInt:
		return int64(*v), nil
	case table.TypeDouble:
		return *v, nil
	}
	return nil, fmt.Errorf("bounds need a numeric column, got %s", t)
}

// FromSchema is the inverse of Build, used to save inferred or edited schemas.
func FromSchema(schema table.Schema) SchemaConfig {
	out := SchemaConfig{RowIDColumn: schema.RowIDColumn}
	for _, col := range schema.Columns {
		cc := ColumnConfig{
			Name:               col.Name,
			Type:               string(col.Type),
			MissingPattern:     col.MissingPattern,
			Skip:               col.Skip,
			ReadPossibleValues: col.ReadPossibleValues,
		}
		if col.Domain != nil {
			for _, v := range col.Domain.Values() {
				cc.PossibleValues = append(cc.PossibleValues, fmt.Sprint(v))
			}
			cc.Lower = toFloat(col.Domain.Lower)
			cc.Upper = toFloat(col.Domain.Upper)
		}
		out.Columns = append(out.Columns, cc)
	}
	return out
}

func toFloat(v any) *float64 {
	switch n := v.(type) {
	case int64:
		f := float64(n)
		return &f
	case float64:
		return &n
	}
	return nil
}
