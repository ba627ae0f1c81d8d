package materialize

import (
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/ajitpratap0/filereader/pkg/table"
)

// DefaultBatchSize is the number of rows per Arrow record batch.
const DefaultBatchSize = 4096

// RowIDField is the name of the Arrow field holding row identifiers.
const RowIDField = "row_id"

// ArrowSchema maps the output columns of schema to Arrow fields, preceded by
// the row identifier. Extension types are stored as strings.
func ArrowSchema(schema table.Schema) *arrow.Schema {
	cols := schema.OutputColumns()
	fields := make([]arrow.Field, 0, len(cols)+1)
	fields = append(fields, arrow.Field{Name: RowIDField, Type: arrow.BinaryTypes.String})
	for _, c := range cols {
		fields = append(fields, arrow.Field{Name: c.Name, Type: arrowType(c.Type), Nullable: true})
	}
	return arrow.NewSchema(fields, nil)
}

func arrowType(t table.DataType) arrow.DataType {
	switch t {
	case table.TypeInt:
		return arrow.PrimitiveTypes.Int64
	case table.TypeDouble:
		return arrow.PrimitiveTypes.Float64
	}
	return arrow.BinaryTypes.String
}

// ArrowSink writes rows as an Arrow IPC file.
type ArrowSink struct {
	schema    *arrow.Schema
	builder   *array.RecordBuilder
	writer    *ipc.FileWriter
	batchSize int
	pending   int
	written   int64
}

// NewArrowSink writes the file header to w.
func NewArrowSink(w io.Writer, schema table.Schema, batchSize int) (*ArrowSink, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	as := ArrowSchema(schema)
	pool := memory.NewGoAllocator()

	fw, err := ipc.NewFileWriter(w, ipc.WithSchema(as), ipc.WithAllocator(pool))
	if err != nil {
		return nil, fmt.Errorf("failed to create Arrow writer: %w", err)
	}
	return &ArrowSink{
		schema:    as,
		builder:   array.NewRecordBuilder(pool, as),
		writer:    fw,
		batchSize: batchSize,
	}, nil
}

// Write appends row to the current batch.
func (s *ArrowSink) Write(row table.Row) error {
	if len(row.Cells)+1 != len(s.schema.Fields()) {
		return fmt.Errorf("row %s has %d cells, schema has %d columns", row.ID, len(row.Cells), len(s.schema.Fields())-1)
	}
	s.builder.Field(0).(*array.StringBuilder).Append(row.ID)
	for i, cell := range row.Cells {
		if err := appendCell(s.builder.Field(i+1), cell); err != nil {
			return fmt.Errorf("column %s: %w", s.schema.Field(i+1).Name, err)
		}
	}
	s.pending++
	if s.pending >= s.batchSize {
		return s.flush()
	}
	return nil
}

func appendCell(b array.Builder, cell table.Cell) error {
	if cell.Missing {
		b.AppendNull()
		return nil
	}
	switch b := b.(type) {
	case *array.Int64Builder:
		v, ok := cell.Value.(int64)
		if !ok {
			return fmt.Errorf("expected int64, got %T", cell.Value)
		}
		b.Append(v)
	case *array.Float64Builder:
		v, ok := cell.Value.(float64)
		if !ok {
			return fmt.Errorf("expected float64, got %T", cell.Value)
		}
		b.Append(v)
	case *array.StringBuilder:
		b.Append(cell.String())
	default:
		return fmt.Errorf("unsupported builder %T", b)
	}
	return nil
}

func (s *ArrowSink) flush() error {
	if s.pending == 0 {
		return nil
	}
	rec := s.builder.NewRecord()
	defer rec.Release()

	if err := s.writer.Write(rec); err != nil {
		return fmt.Errorf("failed to write record batch: %w", err)
	}
	s.written += int64(s.pending)
	s.pending = 0
	return nil
}

// RowsWritten counts rows in flushed batches.
func (s *ArrowSink) RowsWritten() int64 {
	return s.written
}

// Close flushes the last batch and writes the file footer.
func (s *ArrowSink) Close() error {
	defer s.builder.Release()
	if err := s.flush(); err != nil {
		return err
	}
	if err := s.writer.Close(); err != nil {
		return fmt.Errorf("failed to close Arrow writer: %w", err)
	}
	return nil
}
