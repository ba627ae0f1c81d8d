// Package compression detects and unwraps compressed input streams.
//
// Supported algorithms are gzip, zstd, lz4 frames, snappy/s2 framed streams
// and raw deflate. Detection looks at the leading magic bytes; deflate has no
// magic and is only used when requested explicitly or by file extension.
// Writers exist for the same algorithms so fixtures and exports can be
// produced in any of the formats the reader accepts.
package compression

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Algorithm represents a compression algorithm.
type Algorithm string

const (
	// Auto detects the algorithm from the stream header
	Auto Algorithm = "auto"
	// None represents no compression
	None Algorithm = "none"
	// Gzip represents gzip compression
	Gzip Algorithm = "gzip"
	// Snappy represents framed snappy compression
	Snappy Algorithm = "snappy"
	// LZ4 represents lz4 frame compression
	LZ4 Algorithm = "lz4"
	// Zstd represents zstandard compression
	Zstd Algorithm = "zstd"
	// S2 represents framed s2 compression
	S2 Algorithm = "s2"
	// Deflate represents raw deflate compression
	Deflate Algorithm = "deflate"
	// Zip marks a zip archive. It is detected here but opened by the source
	// layer, which needs random access.
	Zip Algorithm = "zip"
)

// Level represents compression level for writers.
type Level int

const (
	Fastest Level = 1
	Default Level = 5
	Better  Level = 7
	Best    Level = 9
)

// HeaderSize is the number of bytes Detect needs to recognise every format.
const HeaderSize = 10

var magics = []struct {
	alg   Algorithm
	magic []byte
}{
	{Gzip, []byte{0x1f, 0x8b}},
	{Zstd, []byte{0x28, 0xb5, 0x2f, 0xfd}},
	{LZ4, []byte{0x04, 0x22, 0x4d, 0x18}},
	{Snappy, []byte{0xff, 0x06, 0x00, 0x00, 's', 'N', 'a', 'P', 'p', 'Y'}},
	{S2, []byte{0xff, 0x06, 0x00, 0x00, 'S', '2', 's', 'T', 'w', 'O'}},
	{Zip, []byte{'P', 'K', 0x03, 0x04}},
	{Zip, []byte{'P', 'K', 0x05, 0x06}},
}

// Detect returns the algorithm whose magic bytes start header, or None.
func Detect(header []byte) Algorithm {
	for _, m := range magics {
		if bytes.HasPrefix(header, m.magic) {
			return m.alg
		}
	}
	return None
}

// FromExtension guesses the algorithm from a file name suffix.
func FromExtension(name string) Algorithm {
	switch strings.ToLower(path.Ext(name)) {
	case ".gz", ".gzip":
		return Gzip
	case ".zst", ".zstd":
		return Zstd
	case ".lz4":
		return LZ4
	case ".sz", ".snappy":
		return Snappy
	case ".s2":
		return S2
	case ".deflate":
		return Deflate
	case ".zip":
		return Zip
	}
	return None
}

// ParseAlgorithm validates a configured algorithm name. The empty string
// means Auto.
func ParseAlgorithm(s string) (Algorithm, error) {
	alg := Algorithm(strings.ToLower(strings.TrimSpace(s)))
	switch alg {
	case "":
		return Auto, nil
	case Auto, None, Gzip, Snappy, LZ4, Zstd, S2, Deflate, Zip:
		return alg, nil
	}
	return "", fmt.Errorf("unsupported compression algorithm: %s", s)
}

// Sniff peeks at br and resolves Auto into a concrete algorithm. For
// streams without magic bytes the name hint decides between Deflate and None.
func Sniff(br *bufio.Reader, alg Algorithm, name string) Algorithm {
	if alg != Auto && alg != "" {
		return alg
	}
	header, _ := br.Peek(HeaderSize)
	if detected := Detect(header); detected != None {
		return detected
	}
	if FromExtension(name) == Deflate {
		return Deflate
	}
	return None
}

// NewReader wraps r with a decompressor for alg. Closing the result releases
// decoder resources only; r stays open.
func NewReader(alg Algorithm, r io.Reader) (io.ReadCloser, error) {
	switch alg {
	case None, "":
		return io.NopCloser(r), nil
	case Gzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("gzip header: %w", err)
		}
		return zr, nil
	case Zstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("zstd header: %w", err)
		}
		return dec.IOReadCloser(), nil
	case LZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	case Snappy, S2:
		return io.NopCloser(s2.NewReader(r)), nil
	case Deflate:
		return flate.NewReader(r), nil
	case Zip:
		return nil, fmt.Errorf("zip archives need random access")
	}
	return nil, fmt.Errorf("unsupported compression algorithm: %s", alg)
}

// NewWriter wraps w with a compressor for alg. Close flushes the compressed
// stream but leaves w open.
func NewWriter(alg Algorithm, w io.Writer, level Level) (io.WriteCloser, error) {
	switch alg {
	case None, "":
		return nopWriteCloser{w}, nil
	case Gzip:
		return gzip.NewWriterLevel(w, mapGzipLevel(level))
	case Zstd:
		return zstd.NewWriter(w, zstd.WithEncoderLevel(mapZstdLevel(level)))
	case LZ4:
		zw := lz4.NewWriter(w)
		if err := zw.Apply(lz4.CompressionLevelOption(mapLZ4Level(level))); err != nil {
			return nil, err
		}
		return zw, nil
	case Snappy:
		return s2.NewWriter(w, s2.WriterSnappyCompat()), nil
	case S2:
		return s2.NewWriter(w), nil
	case Deflate:
		return flate.NewWriter(w, mapGzipLevel(level))
	}
	return nil, fmt.Errorf("unsupported compression algorithm: %s", alg)
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

func mapGzipLevel(level Level) int {
	switch level {
	case Fastest:
		return gzip.BestSpeed
	case Best:
		return gzip.BestCompression
	default:
		return gzip.DefaultCompression
	}
}

func mapLZ4Level(level Level) lz4.CompressionLevel {
	switch level {
	case Fastest:
		return lz4.Fast
	case Best:
		return lz4.Level9
	default:
		return lz4.Level5
	}
}

func mapZstdLevel(level Level) zstd.EncoderLevel {
	switch level {
	case Fastest:
		return zstd.SpeedFastest
	case Better:
		return zstd.SpeedBetterCompression
	case Best:
		return zstd.SpeedBestCompression
	default:
		return zstd.SpeedDefault
	}
}
