package materialize

import (
	"bufio"
	"encoding/csv"
	"io"

	"github.com/goccy/go-json"

	"github.com/ajitpratap0/filereader/pkg/table"
)

// JSONSink writes one JSON object per row. Missing cells become null.
type JSONSink struct {
	w       *bufio.Writer
	enc     *json.Encoder
	columns []string
}

// NewJSONSink creates a JSON lines sink.
func NewJSONSink(w io.Writer, schema table.Schema) *JSONSink {
	bw := bufio.NewWriter(w)
	cols := schema.OutputColumns()
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return &JSONSink{w: bw, enc: json.NewEncoder(bw), columns: names}
}

type jsonRow struct {
	ID     string         `json:"id"`
	Values map[string]any `json:"values"`
}

func (s *JSONSink) Write(row table.Row) error {
	values := make(map[string]any, len(row.Cells))
	for i, cell := range row.Cells {
		if i >= len(s.columns) {
			break
		}
		values[s.columns[i]] = jsonValue(cell)
	}
	return s.enc.Encode(jsonRow{ID: row.ID, Values: values})
}

func jsonValue(c table.Cell) any {
	if c.Missing {
		return nil
	}
	switch c.Value.(type) {
	case int64, float64, string:
		return c.Value
	}
	return c.String()
}

func (s *JSONSink) Close() error {
	return s.w.Flush()
}

// CSVSink writes a header line followed by one record per row. Missing cells
// are written as empty fields.
type CSVSink struct {
	w      *csv.Writer
	header []string
	wrote  bool
}

// NewCSVSink creates a CSV sink.
func NewCSVSink(w io.Writer, schema table.Schema) (*CSVSink, error) {
	cols := schema.OutputColumns()
	header := make([]string, 0, len(cols)+1)
	header = append(header, "id")
	for _, c := range cols {
		header = append(header, c.Name)
	}
	return &CSVSink{w: csv.NewWriter(w), header: header}, nil
}

func (s *CSVSink) Write(row table.Row) error {
	if !s.wrote {
		s.wrote = true
		if err := s.w.Write(s.header); err != nil {
			return err
		}
	}
	record := make([]string, 0, len(row.Cells)+1)
	record = append(record, row.ID)
	for _, cell := range row.Cells {
		if cell.Missing {
			record = append(record, "")
			continue
		}
		record = append(record, cell.String())
	}
	return s.w.Write(record)
}

func (s *CSVSink) Close() error {
	if !s.wrote {
		s.wrote = true
		_ = s.w.Write(s.header)
	}
	s.w.Flush()
	return s.w.Error()
}
