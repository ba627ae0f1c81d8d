// Package source resolves a location into a decoded character stream.
//
// A source owns every handle it opens: the raw file or remote body, an
// optional spooled copy of a remote zip archive, the decompressor and the
// archive entry. Close releases all of them and may be called repeatedly.
package source

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"os"
	"sync"
	"sync/atomic"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/ajitpratap0/filereader/pkg/compression"
	"github.com/ajitpratap0/filereader/pkg/errors"
)

// Options configures how a location is opened.
type Options struct {
	// Charset is a WHATWG label or DefaultCharset.
	Charset string
	// Compression forces an algorithm; empty or Auto sniffs the header.
	Compression compression.Algorithm
	// BufferSize of the reader handed to the tokenizer.
	BufferSize int
	// TempDir receives spooled copies of remote zip archives.
	TempDir string

	HTTPClient *http.Client
	S3Client   S3API
	S3Region   string
	GCSClient  *storage.Client
	// GCSCredentialsFile is used when GCSClient is nil.
	GCSCredentialsFile string

	Logger *zap.Logger
}

// DefaultOptions reads UTF-8 and sniffs compression.
func DefaultOptions() Options {
	return Options{
		Charset:     DefaultCharset,
		Compression: compression.Auto,
		BufferSize:  64 * 1024,
	}
}

// Source is an open, decoded input stream.
type Source struct {
	loc         Location
	reader      *bufio.Reader
	algorithm   compression.Algorithm
	entryName   string
	moreEntries bool
	size        int64
	counter     *countingReader

	closers   []io.Closer
	closeOnce sync.Once
	closeErr  error
	logger    *zap.Logger
}

// Open resolves loc and prepares the decoded stream.
func Open(ctx context.Context, loc Location, opts Options) (*Source, error) {
	if opts.BufferSize <= 0 {
		opts.BufferSize = 64 * 1024
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	enc, err := LookupCharset(opts.Charset)
	if err != nil {
		return nil, err
	}

	s := &Source{loc: loc, size: -1, logger: logger}
	ok := false
	defer func() {
		if !ok {
			_ = s.Close()
		}
	}()

	raw, size, err := s.openRaw(ctx, loc, opts)
	if err != nil {
		return nil, err
	}
	s.size = size
	s.closers = append(s.closers, raw)

	br := bufio.NewReaderSize(raw, opts.BufferSize)
	alg := compression.Sniff(br, opts.Compression, loc.Name())
	if loc.Entry != "" && alg != compression.Zip {
		return nil, errors.New(errors.ErrorTypeData, "archive entry requested but location is not a zip archive").
			WithDetail("location", loc.Raw)
	}

	var payload io.Reader
	if alg == compression.Zip {
		entry, err := s.openZipEntry(raw, br, opts)
		if err != nil {
			return nil, err
		}
		payload = entry
	} else {
		dec, err := compression.NewReader(alg, br)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "open compressed stream").
				WithDetail("location", loc.Raw).
				WithDetail("compression", string(alg))
		}
		s.closers = append(s.closers, dec)
		payload = dec
	}
	s.algorithm = alg

	s.counter = &countingReader{r: payload}
	s.reader = bufio.NewReaderSize(decodeReader(s.counter, enc), opts.BufferSize)

	logger.Debug("source opened",
		zap.String("location", loc.Raw),
		zap.String("compression", string(alg)),
		zap.String("entry", s.entryName),
		zap.Int64("size", s.size))
	ok = true
	return s, nil
}

// OpenString parses raw and opens it.
func OpenString(ctx context.Context, raw string, opts Options) (*Source, error) {
	loc, err := ParseLocation(raw)
	if err != nil {
		return nil, err
	}
	return Open(ctx, loc, opts)
}

func (s *Source) openRaw(ctx context.Context, loc Location, opts Options) (io.ReadCloser, int64, error) {
	switch loc.Scheme {
	case SchemeFile:
		f, err := os.Open(loc.Path)
		if err != nil {
			errType := errors.ErrorTypeFile
			if os.IsNotExist(err) {
				errType = errors.ErrorTypeNotFound
			}
			return nil, -1, errors.Wrap(err, errType, "open file").WithDetail("path", loc.Path)
		}
		size := int64(-1)
		if info, err := f.Stat(); err == nil {
			size = info.Size()
		}
		return f, size, nil
	case SchemeHTTP, SchemeHTTPS:
		return openHTTP(ctx, opts.HTTPClient, loc)
	case SchemeS3:
		client := opts.S3Client
		if client == nil {
			c, err := NewS3Client(ctx, opts.S3Region)
			if err != nil {
				return nil, -1, err
			}
			client = c
		}
		return openS3(ctx, client, loc)
	case SchemeGCS:
		client := opts.GCSClient
		if client == nil {
			c, err := NewGCSClient(ctx, opts.GCSCredentialsFile)
			if err != nil {
				return nil, -1, err
			}
			s.closers = append(s.closers, c)
			client = c
		}
		return openGCS(ctx, client, loc)
	}
	return nil, -1, errors.Newf(errors.ErrorTypeCapability, "unsupported scheme %q", loc.Scheme)
}

// Read reads decoded UTF-8 text.
func (s *Source) Read(p []byte) (int, error) {
	return s.reader.Read(p)
}

// Reader exposes the buffered decoded stream.
func (s *Source) Reader() *bufio.Reader {
	return s.reader
}

// Location is the address the source was opened from.
func (s *Source) Location() Location {
	return s.loc
}

// Compression is the algorithm the stream was unwrapped with.
func (s *Source) Compression() compression.Algorithm {
	return s.algorithm
}

// Size is the raw size in bytes, or -1 when unknown.
func (s *Source) Size() int64 {
	return s.size
}

// BytesRead counts uncompressed bytes handed to the charset decoder.
func (s *Source) BytesRead() int64 {
	if s.counter == nil {
		return 0
	}
	return s.counter.n.Load()
}

// EntryName is the archive entry being read, empty outside archives.
func (s *Source) EntryName() string {
	return s.entryName
}

// HasMoreEntries reports whether the archive holds further file entries
// that were not read.
func (s *Source) HasMoreEntries() bool {
	return s.moreEntries
}

// Close releases every handle in reverse opening order.
func (s *Source) Close() error {
	s.closeOnce.Do(func() {
		for i := len(s.closers) - 1; i >= 0; i-- {
			if err := s.closers[i].Close(); err != nil && s.closeErr == nil {
				s.closeErr = err
			}
		}
		s.closers = nil
	})
	return s.closeErr
}

type countingReader struct {
	r io.Reader
	n atomic.Int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n.Add(int64(n))
	return n, err
}
