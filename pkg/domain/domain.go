// Package domain accumulates per-column value sets and numeric bounds while
// rows are read.
package domain

import (
	"github.com/ajitpratap0/filereader/pkg/table"
)

// Accumulator owns cloned domains for one run. Columns that are skipped or
// do not read possible values from the file keep the supplied domain untouched.
type Accumulator struct {
	columns []table.Column
	domains []*table.Domain
	track   []bool
}

// New clones the configured domains of schema.
func New(schema table.Schema) *Accumulator {
	a := &Accumulator{
		columns: schema.Columns,
		domains: make([]*table.Domain, len(schema.Columns)),
		track:   make([]bool, len(schema.Columns)),
	}
	for i, c := range schema.Columns {
		a.domains[i] = c.Domain.Clone()
		a.track[i] = c.ReadPossibleValues && !c.Skip
		if a.track[i] && a.domains[i] == nil {
			a.domains[i] = table.NewDomain()
		}
	}
	return a
}

// Tracked reports whether Observe records values for column i.
func (a *Accumulator) Tracked(i int) bool {
	return i >= 0 && i < len(a.track) && a.track[i]
}

// Observe records cell for the schema column at index i. Missing cells are
// ignored. Numeric cells widen the bounds; everything else goes into the
// value set.
func (a *Accumulator) Observe(i int, cell table.Cell) {
	if !a.Tracked(i) || cell.Missing {
		return
	}
	d := a.domains[i]
	switch v := cell.Value.(type) {
	case int64:
		if lo, ok := d.Lower.(int64); !ok || v < lo {
			d.Lower = v
		}
		if hi, ok := d.Upper.(int64); !ok || v > hi {
			d.Upper = v
		}
	case float64:
		if lo, ok := d.Lower.(float64); !ok || v < lo {
			d.Lower = v
		}
		if hi, ok := d.Upper.(float64); !ok || v > hi {
			d.Upper = v
		}
	default:
		d.Add(v)
	}
}

// Domain returns the current domain of column i.
func (a *Accumulator) Domain(i int) *table.Domain {
	if i < 0 || i >= len(a.domains) {
		return nil
	}
	return a.domains[i]
}

// Domains returns a snapshot keyed by column name.
func (a *Accumulator) Domains() map[string]*table.Domain {
	out := make(map[string]*table.Domain, len(a.columns))
	for i, c := range a.columns {
		if a.domains[i] != nil {
			out[c.Name] = a.domains[i].Clone()
		}
	}
	return out
}
