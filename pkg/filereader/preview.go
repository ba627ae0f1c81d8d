package filereader

import (
	"errors"
	"io"

	"github.com/ajitpratap0/filereader/pkg/table"
)

// ErrorRowPrefix marks the synthesized row that ends a preview on bad input.
const ErrorRowPrefix = "ERROR_ROW"

// PreviewResult is one preview item: a row, or the terminal error row
// together with the failure that produced it.
type PreviewResult struct {
	Row table.Row
	Err *RowReadError
}

// IsError reports whether the result is the synthesized error row.
func (r PreviewResult) IsError() bool {
	return r.Err != nil
}

// Preview samples the first rows of a stream without ever failing on bad
// data. A row failure becomes a final error row and a recorded diagnostic.
type Preview struct {
	stream     *Stream
	limit      int
	returned   int
	done       bool
	diagnostic *RowReadError
	err        error
}

// NewPreview wraps stream. limit <= 0 means no limit.
func NewPreview(stream *Stream, limit int) *Preview {
	return &Preview{stream: stream, limit: limit}
}

// Next returns the next result and false once the preview is over.
func (p *Preview) Next() (PreviewResult, bool) {
	if p.done {
		return PreviewResult{}, false
	}
	if p.limit > 0 && p.returned >= p.limit {
		p.done = true
		return PreviewResult{}, false
	}
	if !p.stream.HasNext() {
		p.done = true
		return PreviewResult{}, false
	}

	row, err := p.stream.Next()
	if err == nil {
		p.returned++
		return PreviewResult{Row: row}, true
	}

	p.done = true
	var rre *RowReadError
	if errors.As(err, &rre) {
		p.diagnostic = rre
		p.returned++
		return PreviewResult{Row: errorRow(rre), Err: rre}, true
	}
	if !errors.Is(err, io.EOF) {
		p.err = err
	}
	return PreviewResult{}, false
}

func errorRow(err *RowReadError) table.Row {
	id := err.Partial.ID
	if id == "" {
		id = "?"
	}
	cells := make([]table.Cell, len(err.Partial.Cells))
	copy(cells, err.Partial.Cells)
	return table.Row{ID: ErrorRowPrefix + " (" + id + ")", Cells: cells}
}

// Collect drains the preview into a slice.
func (p *Preview) Collect() []PreviewResult {
	var out []PreviewResult
	for {
		r, ok := p.Next()
		if !ok {
			return out
		}
		out = append(out, r)
	}
}

// Diagnostic is the row failure that ended the preview, if any.
func (p *Preview) Diagnostic() *RowReadError {
	return p.diagnostic
}

// Err is a failure that is not a row failure, such as an interruption.
func (p *Preview) Err() error {
	return p.err
}

// Close closes the underlying stream.
func (p *Preview) Close() error {
	p.done = true
	return p.stream.Close()
}
