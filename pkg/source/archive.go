package source

import (
	"bufio"
	"io"
	"os"

	"github.com/klauspost/compress/zip"
	"go.uber.org/zap"

	"github.com/ajitpratap0/filereader/pkg/errors"
)

// openZipEntry selects the requested entry, or the first file entry, of a
// zip archive. Local files are read in place; anything else is spooled to a
// temporary file first because the central directory sits at the end.
func (s *Source) openZipEntry(raw io.ReadCloser, br *bufio.Reader, opts Options) (io.Reader, error) {
	var (
		ra   io.ReaderAt
		size int64
	)
	if f, ok := raw.(*os.File); ok && s.size >= 0 {
		ra, size = f, s.size
	} else {
		tmp, n, err := spool(br, opts.TempDir)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, tmp)
		ra, size = tmp, n
		s.logger.Debug("spooled remote archive", zap.String("location", s.loc.Raw), zap.Int64("bytes", n))
	}

	zr, err := zip.NewReader(ra, size)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "read zip archive").WithDetail("location", s.loc.Raw)
	}

	chosen := -1
	for i, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if s.loc.Entry == "" || f.Name == s.loc.Entry {
			chosen = i
			break
		}
	}
	if chosen < 0 {
		e := errors.New(errors.ErrorTypeNotFound, "no matching entry in zip archive").WithDetail("location", s.loc.Raw)
		if s.loc.Entry != "" {
			e = e.WithDetail("entry", s.loc.Entry)
		}
		return nil, e
	}
	for _, f := range zr.File[chosen+1:] {
		if !f.FileInfo().IsDir() {
			s.moreEntries = true
			break
		}
	}

	entry := zr.File[chosen]
	rc, err := entry.Open()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "open zip entry").WithDetail("entry", entry.Name)
	}
	s.closers = append(s.closers, rc)
	s.entryName = entry.Name
	return rc, nil
}

type tempFile struct {
	*os.File
}

func (t tempFile) Close() error {
	err := t.File.Close()
	if rmErr := os.Remove(t.Name()); rmErr != nil && err == nil {
		err = rmErr
	}
	return err
}

func spool(r io.Reader, dir string) (tempFile, int64, error) {
	f, err := os.CreateTemp(dir, "filereader-*.zip")
	if err != nil {
		return tempFile{}, 0, errors.Wrap(err, errors.ErrorTypeFile, "create spool file")
	}
	tmp := tempFile{f}
	n, err := io.Copy(f, r)
	if err != nil {
		_ = tmp.Close()
		return tempFile{}, 0, errors.Wrap(err, errors.ErrorTypeConnection, "spool archive")
	}
	return tmp, n, nil
}
