// Package filereader reads delimited text into typed rows.
//
// A Stream pulls raw rows from the tokenizer, assembles them against the
// schema and exposes them through HasNext/Next. Any row failure ends the
// stream with a single *RowReadError carrying the partial row and its line.
// Streams must be closed, including after early termination.
//
// Basic usage:
//
//	stream, err := filereader.Open(ctx, "exports.zip!/orders.csv", cfg)
//	if err != nil {
//	    return err
//	}
//	defer stream.Close()
//
//	for stream.HasNext() {
//	    row, err := stream.Next()
//	    if err != nil {
//	        return err
//	    }
//	    consume(row)
//	}
package filereader

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ajitpratap0/filereader/pkg/cancel"
	"github.com/ajitpratap0/filereader/pkg/coerce"
	"github.com/ajitpratap0/filereader/pkg/config"
	"github.com/ajitpratap0/filereader/pkg/domain"
	ferrors "github.com/ajitpratap0/filereader/pkg/errors"
	"github.com/ajitpratap0/filereader/pkg/source"
	"github.com/ajitpratap0/filereader/pkg/table"
	"github.com/ajitpratap0/filereader/pkg/tokenizer"
)

// Recorder receives run metrics. metrics.Collector implements it.
type Recorder interface {
	RowRead()
	RowFailed(kind string)
	DomainSize(column string, n int)
	Finished(outcome string, bytes int64, d time.Duration)
}

type streamState int

const (
	streamOpen streamState = iota
	streamExhausted
	streamTruncated
	streamCapped
	streamFailed
	streamClosed
)

func (s streamState) outcome() string {
	switch s {
	case streamExhausted:
		return "complete"
	case streamTruncated:
		return "cancelled"
	case streamCapped:
		return "capped"
	case streamFailed:
		return "failed"
	}
	return "abandoned"
}

// Option customizes a stream.
type Option func(*Stream)

// WithLogger sets the logger; the default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *Stream) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMonitor shares a cancellation monitor with the caller.
func WithMonitor(m *cancel.Monitor) Option {
	return func(s *Stream) {
		if m != nil {
			s.monitor = m
		}
	}
}

// WithExtensions sets the extension type registry.
func WithExtensions(r *coerce.Registry) Option {
	return func(s *Stream) {
		s.extensions = r
	}
}

// WithRecorder reports metrics to r.
func WithRecorder(r Recorder) Option {
	return func(s *Stream) {
		s.recorder = r
	}
}

// WithSourceOptions overrides the source options derived from the config,
// for injecting HTTP, S3 or GCS clients.
func WithSourceOptions(fn func(*source.Options)) Option {
	return func(s *Stream) {
		s.sourceOpts = fn
	}
}

// WithRunID sets the identifier logged with every message of the run.
func WithRunID(id string) Option {
	return func(s *Stream) {
		s.runID = id
	}
}

// Stream is the row iterator of one ingestion run. It is not safe for
// concurrent use, except for the monitor it was given.
type Stream struct {
	cfg    *config.IngestionConfig
	schema table.Schema

	src       *source.Source
	closer    io.Closer
	tok       *tokenizer.Tokenizer
	asm       *Assembler
	coercer   *coerce.Coercer
	domains   *domain.Accumulator
	monitor   *cancel.Monitor
	stopWatch func()

	logger     *zap.Logger
	recorder   Recorder
	extensions *coerce.Registry
	sourceOpts func(*source.Options)
	runID      string
	name       string

	headerDone bool
	pending    *tokenizer.RawRow
	pendingErr error
	rowsRead   int64
	state      streamState
	truncated  bool
	capped     bool
	err        error
	started    time.Time
}

// Open resolves location, validates cfg and returns a stream over it. ctx
// governs opening the source; cancelling it later interrupts the stream.
func Open(ctx context.Context, location string, cfg *config.IngestionConfig, opts ...Option) (*Stream, error) {
	s, err := newStream(cfg, opts...)
	if err != nil {
		return nil, err
	}
	s.name = location

	loc, err := source.ParseLocation(location)
	if err != nil {
		return nil, err
	}
	sopts := cfg.SourceOptions()
	sopts.Logger = s.logger
	if s.sourceOpts != nil {
		s.sourceOpts(&sopts)
	}
	src, err := source.Open(ctx, loc, sopts)
	if err != nil {
		return nil, err
	}
	s.src = src
	s.closer = src
	s.start(src.Reader())
	if ctx.Done() != nil {
		s.stopWatch = s.monitor.WatchContext(ctx)
	}

	s.logger.Info("stream opened",
		zap.String("compression", string(src.Compression())),
		zap.String("entry", src.EntryName()),
		zap.Int64("size", src.Size()))
	return s, nil
}

// NewStream reads already decoded text from r. The stream does not close r.
func NewStream(r io.Reader, cfg *config.IngestionConfig, opts ...Option) (*Stream, error) {
	s, err := newStream(cfg, opts...)
	if err != nil {
		return nil, err
	}
	s.name = cfg.Name
	s.start(r)
	return s, nil
}

func newStream(cfg *config.IngestionConfig, opts ...Option) (*Stream, error) {
	if cfg == nil {
		return nil, ferrors.New(ferrors.ErrorTypeConfig, "configuration is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, ferrors.Wrap(err, ferrors.ErrorTypeConfig, "invalid configuration")
	}
	schema, err := cfg.Schema.Build()
	if err != nil {
		return nil, ferrors.Wrap(err, ferrors.ErrorTypeConfig, "invalid schema")
	}

	s := &Stream{
		cfg:     cfg,
		schema:  schema,
		monitor: cancel.New(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.runID == "" {
		s.runID = uuid.NewString()
	}
	s.logger = s.logger.With(zap.String("run_id", s.runID), zap.String("run", cfg.Name))
	return s, nil
}

func (s *Stream) start(r io.Reader) {
	s.started = time.Now()
	s.logger = s.logger.With(zap.String("location", s.name))

	s.coercer = coerce.New(s.cfg.CoerceOptions(), s.extensions)
	s.coercer.OnDegrade(func(t table.DataType) {
		s.logger.Warn("extension type unavailable, reading as string", zap.String("type", string(t)))
	})
	s.domains = domain.New(s.schema)
	s.asm = NewAssembler(s.schema, s.coercer, NewRowIDRegistry(), s.domains, AssemblerOptions{
		PadShortRows:             s.cfg.Rows.ShortRows == config.ShortRowsPad,
		IgnoreTrailingDelimiters: s.cfg.Rows.IgnoreTrailingDelimiters,
		UniquifyRowIDs:           s.cfg.Rows.UniquifyRowIDs,
		RowIDPrefix:              s.cfg.Rows.RowIDPrefix,
	})

	s.tok = tokenizer.New(r, s.cfg.TokenizerConfig())
	s.tok.SetInterrupt(s.monitor.Interrupted)
}

// Monitor returns the cancellation monitor polled by the stream.
func (s *Stream) Monitor() *cancel.Monitor {
	return s.monitor
}

// HasNext reports whether Next will return a row or an error. It is false
// once the input is exhausted, the stream failed or was closed, a soft cancel
// was seen, or the row cap was reached. After a hard interrupt it stays true
// so that Next can report the interruption.
func (s *Stream) HasNext() bool {
	if s.state != streamOpen {
		return false
	}
	if s.monitor.Interrupted() {
		return true
	}
	if s.monitor.Cancelled() {
		s.finish(streamTruncated)
		return false
	}
	if s.pending == nil && s.pendingErr == nil {
		s.fill()
	}
	if s.pending == nil && s.pendingErr == nil {
		s.finish(streamExhausted)
		return false
	}
	// rows past the cap are never assembled, even broken ones
	if limit := s.cfg.Rows.MaxRows; limit > 0 && s.rowsRead >= limit {
		s.finish(streamCapped)
		return false
	}
	return true
}

// fill pulls the next raw row worth assembling into pending.
func (s *Stream) fill() {
	for {
		raw, err := s.tok.Next()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			s.pendingErr = err
			return
		}
		if !s.headerDone {
			s.headerDone = true
			if s.cfg.Format.HasColumnHeader {
				continue
			}
		}
		if len(raw.Tokens) == 0 && s.cfg.Rows.IgnoreEmptyLines {
			continue
		}
		s.pending = raw
		return
	}
}

// Next returns the next row. Row failures are returned as *RowReadError,
// interruption as *InterruptedError; both end the stream. io.EOF is returned
// when HasNext is false for any other reason.
func (s *Stream) Next() (table.Row, error) {
	switch s.state {
	case streamClosed:
		return table.Row{}, ErrClosed
	case streamFailed:
		return table.Row{}, s.err
	}
	if !s.HasNext() {
		return table.Row{}, io.EOF
	}
	if s.monitor.Interrupted() {
		return table.Row{}, s.interrupted()
	}

	if err := s.pendingErr; err != nil {
		s.pendingErr = nil
		if errors.Is(err, tokenizer.ErrInterrupted) {
			return table.Row{}, s.interrupted()
		}
		line := s.tok.Line()
		var te *tokenizer.TokenizeError
		if errors.As(err, &te) {
			line = te.Line
		}
		partial := table.Row{Cells: s.missingCells()}
		return partial, s.fail(newRowReadError(err, partial, line, s.name))
	}

	raw := s.pending
	s.pending = nil
	row, err := s.asm.Assemble(raw)
	if err != nil {
		return row, s.fail(newRowReadError(err, row, raw.Line, s.name))
	}
	s.rowsRead++
	if s.recorder != nil {
		s.recorder.RowRead()
	}
	return row, nil
}

func (s *Stream) missingCells() []table.Cell {
	cols := s.schema.OutputColumns()
	cells := make([]table.Cell, len(cols))
	for i, c := range cols {
		cells[i] = table.MissingCell(s.coercer.EffectiveType(c.Type))
	}
	return cells
}

func (s *Stream) interrupted() error {
	err := &InterruptedError{Line: s.tok.Line(), RowsRead: s.rowsRead}
	s.err = err
	s.finish(streamFailed)
	s.logger.Warn("stream interrupted", zap.Int64("rows", s.rowsRead))
	return err
}

func (s *Stream) fail(err *RowReadError) error {
	s.err = err
	s.finish(streamFailed)
	if s.recorder != nil {
		s.recorder.RowFailed(err.Kind())
	}
	s.logger.Error("row read failed",
		zap.Int("line", err.Line),
		zap.String("kind", err.Kind()),
		zap.Error(err.Cause))
	return err
}

func (s *Stream) finish(state streamState) {
	if s.state != streamOpen {
		return
	}
	s.state = state
	s.truncated = state == streamTruncated
	s.capped = state == streamCapped
	s.logger.Debug("stream finished",
		zap.String("outcome", state.outcome()),
		zap.Int64("rows", s.rowsRead))
}

// Close releases the source. It is safe to call more than once.
func (s *Stream) Close() error {
	if s.state == streamClosed {
		return nil
	}
	outcome := s.state.outcome()
	s.state = streamClosed
	if s.stopWatch != nil {
		s.stopWatch()
	}

	if s.recorder != nil {
		for name, d := range s.domains.Domains() {
			if d.Len() > 0 {
				s.recorder.DomainSize(name, d.Len())
			}
		}
		s.recorder.Finished(outcome, s.BytesRead(), time.Since(s.started))
	}
	s.logger.Info("stream closed",
		zap.String("outcome", outcome),
		zap.Int64("rows", s.rowsRead),
		zap.Duration("elapsed", time.Since(s.started)))

	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

// Err is the terminal error, if any.
func (s *Stream) Err() error {
	return s.err
}

// RowsRead is the number of rows returned so far.
func (s *Stream) RowsRead() int64 {
	return s.rowsRead
}

// Truncated reports whether a soft cancel ended the stream.
func (s *Stream) Truncated() bool {
	return s.truncated
}

// Cancelled reports whether a soft cancel was requested.
func (s *Stream) Cancelled() bool {
	return s.monitor.Cancelled()
}

// RowCapReached reports whether the configured row cap ended the stream
// while more rows were available.
func (s *Stream) RowCapReached() bool {
	return s.capped
}

// ArchiveEntry is the name of the zip entry being read, if any.
func (s *Stream) ArchiveEntry() string {
	if s.src == nil {
		return ""
	}
	return s.src.EntryName()
}

// HasMoreArchiveEntries reports whether the archive holds unread entries.
func (s *Stream) HasMoreArchiveEntries() bool {
	return s.src != nil && s.src.HasMoreEntries()
}

// BytesRead is the number of uncompressed bytes consumed.
func (s *Stream) BytesRead() int64 {
	if s.src == nil {
		return 0
	}
	return s.src.BytesRead()
}

// Domains returns the accumulated column domains keyed by column name.
func (s *Stream) Domains() map[string]*table.Domain {
	return s.domains.Domains()
}

// Degraded lists extension types that were read as string.
func (s *Stream) Degraded() []table.DataType {
	return s.coercer.DegradedTypes()
}

// Schema is the schema of the run.
func (s *Stream) Schema() table.Schema {
	return s.schema
}

// Name is the location or configured name of the run.
func (s *Stream) Name() string {
	return s.name
}
