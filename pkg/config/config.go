// Package config defines the ingestion configuration consumed by the reader.
// A configuration is created with defaults, optionally overlaid from a YAML
// file, and validated once before a run starts.
//
// The configuration is organized into sections:
//   - Source: charset, compression, buffers and remote credentials
//   - Format: delimiters, quoting, comments and number separators
//   - Rows: short-row policy, row identifiers and the row cap
//   - Schema: the row identifier flag and the column descriptors
//   - Observability: logging, metrics and tracing switches
//
// Example usage:
//
//	cfg := config.NewIngestionConfig("orders")
//	cfg.Format.ColumnDelimiters = []string{";"}
//	cfg.Format.DecimalSeparator = ","
//
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ajitpratap0/filereader/pkg/coerce"
	"github.com/ajitpratap0/filereader/pkg/compression"
	"github.com/ajitpratap0/filereader/pkg/source"
	"github.com/ajitpratap0/filereader/pkg/tokenizer"
)

// ShortRowPolicy decides what happens to rows with too few tokens.
type ShortRowPolicy string

const (
	// ShortRowsReject fails the row
	ShortRowsReject ShortRowPolicy = "reject"
	// ShortRowsPad fills the remaining cells with missing values
	ShortRowsPad ShortRowPolicy = "pad"
)

// IngestionConfig is the complete, immutable-per-run reader configuration.
type IngestionConfig struct {
	// Name identifies the run in logs and metrics
	Name string `yaml:"name" json:"name"`

	Source        SourceConfig        `yaml:"source" json:"source"`
	Format        FormatConfig        `yaml:"format" json:"format"`
	Rows          RowsConfig          `yaml:"rows" json:"rows"`
	Schema        SchemaConfig        `yaml:"schema" json:"schema"`
	Observability ObservabilityConfig `yaml:"observability" json:"observability"`
}

// SourceConfig controls how bytes are fetched and decoded.
type SourceConfig struct {
	// Charset is a WHATWG label; "default" means UTF-8
	Charset string `yaml:"charset" json:"charset"`
	// Compression is auto, none, gzip, zstd, lz4, snappy, s2, deflate or zip
	Compression string `yaml:"compression" json:"compression"`
	// BufferSize of the decoded reader
	BufferSize int `yaml:"buffer_size" json:"buffer_size"`
	// TempDir for spooled remote archives
	TempDir string `yaml:"temp_dir" json:"temp_dir"`
	// HTTPTimeout bounds remote fetches (0 = no limit)
	HTTPTimeout time.Duration `yaml:"http_timeout" json:"http_timeout"`
	// S3Region overrides the region from the AWS config chain
	S3Region string `yaml:"s3_region" json:"s3_region"`
	// GCSCredentialsFile points to a service account key
	GCSCredentialsFile string `yaml:"gcs_credentials_file" json:"gcs_credentials_file"`
}

// FormatConfig describes the delimited text layout.
type FormatConfig struct {
	ColumnDelimiters []string `yaml:"column_delimiters" json:"column_delimiters"`
	RowDelimiter     string   `yaml:"row_delimiter" json:"row_delimiter"`
	Quote            string   `yaml:"quote" json:"quote"`
	// Escape inside quotes; equal to Quote for doubled-quote escaping
	Escape  string `yaml:"escape" json:"escape"`
	Comment string `yaml:"comment" json:"comment"`
	// Whitespace trimmed around unquoted tokens; nil keeps " \t"
	Whitespace         *string `yaml:"whitespace" json:"whitespace"`
	DecimalSeparator   string  `yaml:"decimal_separator" json:"decimal_separator"`
	ThousandsSeparator string  `yaml:"thousands_separator" json:"thousands_separator"`
	// MissingPattern is the global missing value pattern
	MissingPattern string `yaml:"missing_pattern" json:"missing_pattern"`
	// HasColumnHeader skips the first row
	HasColumnHeader       bool `yaml:"has_column_header" json:"has_column_header"`
	RejectNewlineInQuotes bool `yaml:"reject_newline_in_quotes" json:"reject_newline_in_quotes"`
}

// RowsConfig holds row-level policies.
type RowsConfig struct {
	ShortRows                ShortRowPolicy `yaml:"short_rows" json:"short_rows"`
	IgnoreTrailingDelimiters bool           `yaml:"ignore_trailing_delimiters" json:"ignore_trailing_delimiters"`
	IgnoreEmptyLines         bool           `yaml:"ignore_empty_lines" json:"ignore_empty_lines"`
	UniquifyRowIDs           bool           `yaml:"uniquify_row_ids" json:"uniquify_row_ids"`
	// RowIDPrefix is used for synthesized identifiers
	RowIDPrefix string `yaml:"row_id_prefix" json:"row_id_prefix"`
	// MaxRows caps the number of rows read (0 = unbounded)
	MaxRows int64 `yaml:"max_rows" json:"max_rows"`
}

// ObservabilityConfig contains logging, metrics and tracing settings.
type ObservabilityConfig struct {
	LogLevel      string `yaml:"log_level" json:"log_level"`
	LogEncoding   string `yaml:"log_encoding" json:"log_encoding"`
	EnableMetrics bool   `yaml:"enable_metrics" json:"enable_metrics"`
	EnableTracing bool   `yaml:"enable_tracing" json:"enable_tracing"`
}

// NewIngestionConfig returns a comma separated, double quoted configuration.
func NewIngestionConfig(name string) *IngestionConfig {
	return &IngestionConfig{
		Name: name,
		Source: SourceConfig{
			Charset:     source.DefaultCharset,
			Compression: string(compression.Auto),
			BufferSize:  64 * 1024,
		},
		Format: FormatConfig{
			ColumnDelimiters: []string{","},
			RowDelimiter:     "\n",
			Quote:            `"`,
			Escape:           `\`,
			DecimalSeparator: ".",
		},
		Rows: RowsConfig{
			ShortRows:        ShortRowsReject,
			IgnoreEmptyLines: true,
			UniquifyRowIDs:   false,
			RowIDPrefix:      "Row",
		},
		Observability: ObservabilityConfig{
			LogLevel:      "info",
			LogEncoding:   "json",
			EnableMetrics: true,
		},
	}
}

// Validate checks the structural consistency of the configuration and its
// schema. It is called by the reader before a run starts.
func (c *IngestionConfig) Validate() error {
	f := c.Format
	for i, d := range f.ColumnDelimiters {
		if d == "" {
			return fmt.Errorf("column_delimiters[%d] is empty", i)
		}
		if d == f.Quote {
			return fmt.Errorf("column delimiter %q equals the quote character", d)
		}
	}
	if f.RowDelimiter == "" {
		return fmt.Errorf("row_delimiter is required")
	}
	if utf8.RuneCountInString(f.Quote) > 1 {
		return fmt.Errorf("quote must be a single character, got %q", f.Quote)
	}
	if utf8.RuneCountInString(f.Escape) > 1 {
		return fmt.Errorf("escape must be a single character, got %q", f.Escape)
	}
	if f.Comment != "" && (f.Comment == f.Quote || strings.HasPrefix(f.Comment, f.RowDelimiter)) {
		return fmt.Errorf("comment marker %q collides with quote or row delimiter", f.Comment)
	}
	if utf8.RuneCountInString(f.DecimalSeparator) != 1 {
		return fmt.Errorf("decimal_separator must be a single character, got %q", f.DecimalSeparator)
	}
	if utf8.RuneCountInString(f.ThousandsSeparator) > 1 {
		return fmt.Errorf("thousands_separator must be at most one character, got %q", f.ThousandsSeparator)
	}
	if f.DecimalSeparator == f.ThousandsSeparator {
		return fmt.Errorf("decimal and thousands separator are both %q", f.DecimalSeparator)
	}

	switch c.Rows.ShortRows {
	case ShortRowsReject, ShortRowsPad:
	default:
		return fmt.Errorf("short_rows must be %q or %q, got %q", ShortRowsReject, ShortRowsPad, c.Rows.ShortRows)
	}
	if c.Rows.MaxRows < 0 {
		return fmt.Errorf("max_rows cannot be negative")
	}

	if _, err := compression.ParseAlgorithm(c.Source.Compression); err != nil {
		return err
	}
	if _, err := source.LookupCharset(c.Source.Charset); err != nil {
		return err
	}
	if c.Source.BufferSize < 0 {
		return fmt.Errorf("buffer_size cannot be negative")
	}

	schema, err := c.Schema.Build()
	if err != nil {
		return err
	}
	return schema.Validate()
}

// TokenizerConfig derives the tokenizer settings.
func (c *IngestionConfig) TokenizerConfig() tokenizer.Config {
	return tokenizer.Config{
		ColumnDelimiters:         c.Format.ColumnDelimiters,
		RowDelimiter:             c.Format.RowDelimiter,
		Quote:                    c.Format.Quote,
		Escape:                   c.Format.Escape,
		Comment:                  c.Format.Comment,
		Whitespace:               c.Format.Whitespace,
		IgnoreTrailingDelimiters: c.Rows.IgnoreTrailingDelimiters,
		RejectNewlineInQuotes:    c.Format.RejectNewlineInQuotes,
	}
}

// CoerceOptions derives the type coercion settings.
func (c *IngestionConfig) CoerceOptions() coerce.Options {
	opts := coerce.Options{MissingPattern: c.Format.MissingPattern}
	if r, _ := utf8.DecodeRuneInString(c.Format.DecimalSeparator); r != utf8.RuneError {
		opts.DecimalSeparator = r
	}
	if r, _ := utf8.DecodeRuneInString(c.Format.ThousandsSeparator); r != utf8.RuneError {
		opts.ThousandsSeparator = r
	}
	return opts
}

// SourceOptions derives the source settings. Clients are left for the caller.
func (c *IngestionConfig) SourceOptions() source.Options {
	alg, _ := compression.ParseAlgorithm(c.Source.Compression)
	opts := source.DefaultOptions()
	opts.Charset = c.Source.Charset
	opts.Compression = alg
	if c.Source.BufferSize > 0 {
		opts.BufferSize = c.Source.BufferSize
	}
	opts.TempDir = c.Source.TempDir
	opts.S3Region = c.Source.S3Region
	opts.GCSCredentialsFile = c.Source.GCSCredentialsFile
	if c.Source.HTTPTimeout > 0 {
		opts.HTTPClient = source.NewHTTPClient(c.Source.HTTPTimeout)
	}
	return opts
}
