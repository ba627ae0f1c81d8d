// Package filereader reads delimited text files into typed rows.
//
// A run is described by an ingestion configuration: where the bytes come
// from, how they are laid out and what each column means. The reader turns
// every line into a row with an identifier and one typed cell per column.
//
// # Architecture
//
// Reading is a pipeline of small packages:
//
//   - source: resolves local paths, HTTP, S3 and GCS locations, strips gzip,
//     zstd, lz4, snappy or s2 compression, opens zip entries and decodes the
//     charset.
//   - tokenizer: splits the character stream into tokens and rows, honoring
//     quotes, escapes, comments and whitespace rules.
//   - coerce: converts tokens into int, double, string or extension typed
//     cells, mapping missing value patterns.
//   - filereader: validates row shape, resolves row identifiers, feeds column
//     domains and exposes the HasNext/Next stream with its cancellation rules.
//   - materialize: drains a stream into Arrow, JSON lines or CSV.
//
// # Quick Start
//
//	cfg, err := config.LoadIngestion("orders.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	stream, err := filereader.Open(ctx, "s3://exports/orders.csv.gz", cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer stream.Close()
//
//	for stream.HasNext() {
//	    row, err := stream.Next()
//	    if err != nil {
//	        log.Fatal(err) // *filereader.RowReadError carries the partial row
//	    }
//	    fmt.Println(row)
//	}
//
// # Command Line
//
//	filereader read -c orders.yaml --format arrow --output-dir out/ orders.csv
//	filereader preview -c orders.yaml --limit 10 exports.zip!/orders.csv
package filereader
