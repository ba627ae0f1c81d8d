package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ajitpratap0/filereader/pkg/config"
	"github.com/ajitpratap0/filereader/pkg/logger"
	"github.com/ajitpratap0/filereader/pkg/observability"
)

var version = "0.1.0"

// app carries the state shared by subcommands.
type app struct {
	v        *viper.Viper
	log      *zap.Logger
	shutdown []func(context.Context) error
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New(), log: zap.NewNop()}
	a.v.SetEnvPrefix("FILEREADER")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	root := &cobra.Command{
		Use:   "filereader",
		Short: "Read delimited text files into typed rows",
		Long: `filereader reads delimited text from local files, HTTP, S3 or GCS,
optionally compressed or inside a zip archive, and converts each line into a
typed row described by a YAML configuration.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.teardown()
		},
	}

	flags := root.PersistentFlags()
	flags.StringP("config", "c", "", "Path to the ingestion YAML configuration")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("log-encoding", "json", "Log encoding (json, console)")
	flags.Bool("tracing", false, "Export run spans to stderr")
	flags.String("metrics-addr", "", "Serve Prometheus metrics on this address while running")

	root.AddCommand(newReadCmd(a), newPreviewCmd(a), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "filereader v%s\n", version)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

func (a *app) setup(cmd *cobra.Command) error {
	if err := a.v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	logCfg := logger.DefaultConfig()
	logCfg.Level = a.v.GetString("log-level")
	logCfg.Encoding = a.v.GetString("log-encoding")
	if err := logger.Init(logCfg); err != nil {
		return err
	}
	a.log = logger.Get().With(zap.String("component", "filereader-cli"))

	if a.v.GetBool("tracing") {
		shutdown, err := observability.InitTracing(observability.DefaultTracingConfig())
		if err != nil {
			return err
		}
		a.shutdown = append(a.shutdown, shutdown)
	}

	if addr := a.v.GetString("metrics-addr"); addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.log.Warn("metrics server stopped", zap.Error(err))
			}
		}()
		a.shutdown = append(a.shutdown, srv.Shutdown)
		a.log.Info("serving metrics", zap.String("addr", addr))
	}
	return nil
}

func (a *app) teardown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var errs []error
	for i := len(a.shutdown) - 1; i >= 0; i-- {
		errs = append(errs, a.shutdown[i](ctx))
	}
	a.shutdown = nil
	_ = logger.Sync()
	return errors.Join(errs...)
}

// loadConfig reads --config and applies flag and FILEREADER_* overrides.
func (a *app) loadConfig() (*config.IngestionConfig, error) {
	path := a.v.GetString("config")
	if path == "" {
		return nil, fmt.Errorf("--config is required")
	}
	cfg, err := config.LoadIngestion(path)
	if err != nil {
		return nil, err
	}

	if a.v.IsSet("max-rows") {
		cfg.Rows.MaxRows = a.v.GetInt64("max-rows")
	}
	if a.v.IsSet("charset") {
		cfg.Source.Charset = a.v.GetString("charset")
	}
	if a.v.IsSet("compression") {
		cfg.Source.Compression = a.v.GetString("compression")
	}
	if a.v.IsSet("header") {
		cfg.Format.HasColumnHeader = a.v.GetBool("header")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
