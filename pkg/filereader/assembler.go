package filereader

import (
	"strconv"
	"strings"

	"github.com/ajitpratap0/filereader/pkg/coerce"
	"github.com/ajitpratap0/filereader/pkg/domain"
	"github.com/ajitpratap0/filereader/pkg/table"
	"github.com/ajitpratap0/filereader/pkg/tokenizer"
)

// AssemblyState is the progress of the row being assembled.
type AssemblyState int

const (
	StateStart AssemblyState = iota
	StateCountChecked
	StateIDResolved
	StateCellsCoerced
	StateDone
	StateFailed
)

func (s AssemblyState) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateCountChecked:
		return "count_checked"
	case StateIDResolved:
		return "id_resolved"
	case StateCellsCoerced:
		return "cells_coerced"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// AssemblerOptions holds the row policies of a run.
type AssemblerOptions struct {
	PadShortRows             bool
	IgnoreTrailingDelimiters bool
	UniquifyRowIDs           bool
	// RowIDPrefix prefixes synthesized identifiers, followed by the 1-based
	// row number.
	RowIDPrefix string
}

// Assembler turns raw rows into typed rows.
type Assembler struct {
	schema   table.Schema
	coercer  *coerce.Coercer
	registry *RowIDRegistry
	domains  *domain.Accumulator
	opts     AssemblerOptions

	rowNumber int64
	state     AssemblyState
}

// NewAssembler wires the per-run collaborators together and resolves the
// extension types of schema on coercer.
func NewAssembler(schema table.Schema, coercer *coerce.Coercer, registry *RowIDRegistry, domains *domain.Accumulator, opts AssemblerOptions) *Assembler {
	if opts.RowIDPrefix == "" {
		opts.RowIDPrefix = "Row"
	}
	coercer.Resolve(schema)
	return &Assembler{
		schema:   schema,
		coercer:  coercer,
		registry: registry,
		domains:  domains,
		opts:     opts,
	}
}

// State is the state the last Assemble call ended in.
func (a *Assembler) State() AssemblyState {
	return a.state
}

// RowNumber is the number of raw rows handed to Assemble so far.
func (a *Assembler) RowNumber() int64 {
	return a.rowNumber
}

// Assemble builds the typed row for raw. On failure the returned row is the
// best-effort partial row: the identifier if known and every cell that could
// be coerced, missing cells elsewhere.
func (a *Assembler) Assemble(raw *tokenizer.RawRow) (table.Row, error) {
	a.rowNumber++
	a.state = StateStart

	tokens := raw.Tokens
	expected := a.schema.ExpectedTokens()
	var countErr error
	switch {
	case len(tokens) < expected && !a.opts.PadShortRows:
		countErr = &ShortRowError{Line: raw.Line, Expected: expected, Actual: len(tokens)}
	case len(tokens) > expected:
		if a.opts.IgnoreTrailingDelimiters && blankTail(tokens[expected:]) {
			tokens = tokens[:expected]
		} else {
			countErr = &LongRowError{Line: raw.Line, Expected: expected, Actual: len(tokens)}
		}
	}
	if countErr != nil {
		cells, _ := a.coerceCells(tokens)
		a.state = StateFailed
		return table.Row{ID: a.peekID(tokens), Cells: cells}, countErr
	}
	a.state = StateCountChecked

	id, err := a.resolveID(tokens, raw.Line)
	if err != nil {
		cells, _ := a.coerceCells(tokens)
		a.state = StateFailed
		return table.Row{ID: id, Cells: cells}, err
	}
	a.state = StateIDResolved

	cells, err := a.coerceCells(tokens)
	row := table.Row{ID: id, Cells: cells}
	if err != nil {
		a.state = StateFailed
		return row, err
	}
	a.state = StateCellsCoerced

	if a.domains != nil {
		out := 0
		for i, col := range a.schema.Columns {
			if col.Skip {
				continue
			}
			a.domains.Observe(i, cells[out])
			out++
		}
	}
	a.state = StateDone
	return row, nil
}

// blankTail reports whether every token is unquoted and blank.
func blankTail(tokens []tokenizer.Token) bool {
	for _, t := range tokens {
		if t.Quoted || strings.TrimSpace(t.Text) != "" {
			return false
		}
	}
	return true
}

func (a *Assembler) peekID(tokens []tokenizer.Token) string {
	if !a.schema.RowIDColumn {
		return a.opts.RowIDPrefix + strconv.FormatInt(a.rowNumber, 10)
	}
	if len(tokens) == 0 || (!tokens[0].Quoted && tokens[0].Text == "") {
		return "?" + strconv.FormatInt(a.rowNumber, 10)
	}
	return tokens[0].Text
}

// resolveID picks the identifier and registers it. Synthesized identifiers
// are unique by construction and are not registered.
func (a *Assembler) resolveID(tokens []tokenizer.Token, line int) (string, error) {
	id := a.peekID(tokens)
	if !a.schema.RowIDColumn {
		return id, nil
	}
	if a.registry.Register(id) {
		return id, nil
	}
	if a.opts.UniquifyRowIDs {
		return a.registry.Uniquify(id), nil
	}
	return id, &DuplicateRowIDError{ID: id, Line: line}
}

// coerceCells converts every non-skipped column. Tokens beyond the end of a
// short row become missing cells. A failed cell is left missing and the sweep
// continues; the first failure is returned.
func (a *Assembler) coerceCells(tokens []tokenizer.Token) ([]table.Cell, error) {
	offset := 0
	if a.schema.RowIDColumn {
		offset = 1
	}
	cells := make([]table.Cell, 0, len(a.schema.Columns))
	var first error
	for i, col := range a.schema.Columns {
		if col.Skip {
			continue
		}
		idx := i + offset
		if idx >= len(tokens) {
			cells = append(cells, table.MissingCell(a.coercer.EffectiveType(col.Type)))
			continue
		}
		cell, err := a.coercer.Coerce(tokens[idx], col)
		if err != nil && first == nil {
			first = err
		}
		cells = append(cells, cell)
	}
	return cells, first
}
