// Package materialize drains a row stream into an output sink: Arrow IPC
// files, JSON lines or CSV.
package materialize

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	"github.com/ajitpratap0/filereader/pkg/errors"
	"github.com/ajitpratap0/filereader/pkg/table"
)

// Format names an output encoding.
type Format string

const (
	FormatJSON  Format = "json"
	FormatCSV   Format = "csv"
	FormatArrow Format = "arrow"
)

// ParseFormat validates a format name; the empty string means JSON lines.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatCSV, FormatArrow:
		return f, nil
	}
	return "", errors.Newf(errors.ErrorTypeValidation, "unsupported output format %q", s)
}

// Rows is the iterator a sink drains. *filereader.Stream implements it.
type Rows interface {
	HasNext() bool
	Next() (table.Row, error)
}

// Sink receives rows. Close flushes buffered output.
type Sink interface {
	Write(row table.Row) error
	Close() error
}

// NewSink creates a sink of format f writing to w.
func NewSink(f Format, w io.Writer, schema table.Schema) (Sink, error) {
	switch f {
	case FormatJSON, "":
		return NewJSONSink(w, schema), nil
	case FormatCSV:
		return NewCSVSink(w, schema)
	case FormatArrow:
		return NewArrowSink(w, schema, DefaultBatchSize)
	}
	return nil, errors.Newf(errors.ErrorTypeValidation, "unsupported output format %q", f)
}

// Drain copies rows into sink until rows is exhausted, a row fails or ctx is
// done. The sink is not closed. The number of rows written is returned.
func Drain(ctx context.Context, rows Rows, sink Sink) (int64, error) {
	var n int64
	for rows.HasNext() {
		if err := ctx.Err(); err != nil {
			return n, errors.Wrap(err, errors.ErrorTypeCancelled, "drain cancelled")
		}
		row, err := rows.Next()
		if err != nil {
			if stderrors.Is(err, io.EOF) {
				break
			}
			return n, err
		}
		if err := sink.Write(row); err != nil {
			return n, fmt.Errorf("write row %s: %w", row.ID, err)
		}
		n++
	}
	return n, nil
}

// Collect drains rows into memory.
func Collect(ctx context.Context, rows Rows) ([]table.Row, error) {
	var sink sliceSink
	_, err := Drain(ctx, rows, &sink)
	return sink.rows, err
}

type sliceSink struct {
	rows []table.Row
}

func (s *sliceSink) Write(row table.Row) error {
	s.rows = append(s.rows, row)
	return nil
}

func (s *sliceSink) Close() error { return nil }
