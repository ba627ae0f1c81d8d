package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ajitpratap0/filereader/pkg/coerce"
	"github.com/ajitpratap0/filereader/pkg/config"
	"github.com/ajitpratap0/filereader/pkg/filereader"
	"github.com/ajitpratap0/filereader/pkg/logger"
	"github.com/ajitpratap0/filereader/pkg/materialize"
	"github.com/ajitpratap0/filereader/pkg/metrics"
	"github.com/ajitpratap0/filereader/pkg/observability"
	"github.com/ajitpratap0/filereader/pkg/performance"
)

func newReadCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "read LOCATION...",
		Short: "Read locations and write typed rows",
		Long: `Read one or more locations with the configured schema and write the rows
as JSON lines, CSV or an Arrow IPC file.

Example:
  filereader read -c orders.yaml --format arrow --output-dir out/ s3://bucket/orders.csv.gz`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runRead(cmd.Context(), cmd.OutOrStdout(), args)
		},
	}
	f := cmd.Flags()
	f.String("format", "json", "Output format (json, csv, arrow)")
	f.String("output-dir", "", "Write one file per location here instead of stdout")
	f.Int("parallel", 4, "Locations read concurrently when writing to --output-dir")
	f.Int64("max-rows", 0, "Stop after this many rows per location (0 = unbounded)")
	f.String("charset", "", "Override the configured charset")
	f.String("compression", "", "Override the configured compression")
	f.Bool("header", false, "The first row is a column header")
	return cmd
}

func (a *app) runRead(ctx context.Context, stdout io.Writer, locations []string) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	format, err := materialize.ParseFormat(a.v.GetString("format"))
	if err != nil {
		return err
	}
	outDir := a.v.GetString("output-dir")
	if outDir == "" && format == materialize.FormatArrow && len(locations) > 1 {
		return fmt.Errorf("arrow output of several locations needs --output-dir")
	}

	parallel := a.v.GetInt("parallel")
	if outDir == "" || parallel < 1 {
		parallel = 1
	}
	if outDir != "" {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return fmt.Errorf("failed to create output dir: %w", err)
		}
	}

	rm, err := performance.NewResourceMonitor()
	if err != nil {
		a.log.Debug("resource monitoring unavailable", zap.Error(err))
	} else {
		watchCtx, stopWatch := context.WithCancel(ctx)
		defer stopWatch()
		go rm.Watch(watchCtx, 10*time.Second, a.log)
	}

	start := time.Now()
	var (
		mu    sync.Mutex
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for _, loc := range locations {
		g.Go(func() error {
			out, closeOut, err := openOutput(stdout, outDir, loc, format)
			if err != nil {
				return err
			}
			stats, err := a.readOne(gctx, loc, cfg, format, out)
			if cerr := closeOut(); err == nil {
				err = cerr
			}
			mu.Lock()
			total += stats.Rows
			mu.Unlock()
			return err
		})
	}
	err = g.Wait()

	fields := []zap.Field{
		zap.Int("locations", len(locations)),
		zap.Int64("rows", total),
		zap.Duration("duration", time.Since(start)),
		zap.Float64("rows_per_second", performance.Throughput(total, time.Since(start))),
	}
	if rm != nil {
		fields = append(fields, zap.Uint64("peak_rss_bytes", rm.PeakRSS()))
	}
	a.log.Info("read finished", fields...)
	return err
}

func (a *app) readOne(ctx context.Context, location string, cfg *config.IngestionConfig, format materialize.Format, out io.Writer) (observability.RunStats, error) {
	runID := uuid.NewString()
	log := logger.WithContext(logger.WithRun(ctx, runID, location))

	return observability.TraceRun(ctx, location, func(ctx context.Context) (observability.RunStats, error) {
		stream, err := filereader.Open(ctx, location, cfg,
			filereader.WithLogger(log),
			filereader.WithRunID(runID),
			filereader.WithExtensions(coerce.DefaultRegistry()),
			filereader.WithRecorder(metrics.NewCollector(cfg.Name)))
		if err != nil {
			return observability.RunStats{Outcome: "open_failed"}, err
		}
		defer stream.Close()

		sink, err := materialize.NewSink(format, out, stream.Schema())
		if err != nil {
			return observability.RunStats{}, err
		}
		n, err := materialize.Drain(ctx, stream, sink)
		if cerr := sink.Close(); err == nil {
			err = cerr
		}

		stats := observability.RunStats{Rows: n, Bytes: stream.BytesRead(), Outcome: outcome(stream, err)}
		if stream.HasMoreArchiveEntries() {
			log.Warn("archive has more entries that were not read", zap.String("entry", stream.ArchiveEntry()))
		}
		if stream.RowCapReached() {
			log.Info("row limit reached", zap.Int64("max_rows", cfg.Rows.MaxRows))
		}
		return stats, err
	})
}

func outcome(s *filereader.Stream, err error) string {
	switch {
	case err != nil:
		return "failed"
	case s.Truncated():
		return "cancelled"
	case s.RowCapReached():
		return "capped"
	}
	return "complete"
}

var extensions = map[materialize.Format]string{
	materialize.FormatJSON:  ".jsonl",
	materialize.FormatCSV:   ".csv",
	materialize.FormatArrow: ".arrow",
}

// openOutput returns stdout, or a file named after the location in dir.
func openOutput(stdout io.Writer, dir, location string, format materialize.Format) (io.Writer, func() error, error) {
	if dir == "" {
		return stdout, func() error { return nil }, nil
	}
	name := location
	if i := strings.Index(name, "!/"); i >= 0 {
		name = name[i+2:]
	}
	base := filepath.Base(name)
	for ext := filepath.Ext(base); ext != ""; ext = filepath.Ext(base) {
		base = strings.TrimSuffix(base, ext)
	}
	f, err := os.Create(filepath.Join(dir, base+extensions[format]))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output: %w", err)
	}
	return f, f.Close, nil
}
