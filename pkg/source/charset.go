package source

import (
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/ajitpratap0/filereader/pkg/errors"
)

// DefaultCharset selects the platform default, which is UTF-8.
const DefaultCharset = "default"

// LookupCharset resolves a WHATWG encoding label such as "utf-8",
// "windows-1252" or "iso-8859-1".
func LookupCharset(name string) (encoding.Encoding, error) {
	label := strings.ToLower(strings.TrimSpace(name))
	if label == "" || label == DefaultCharset {
		return unicode.UTF8, nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrorTypeConfig, "unknown charset %q", name)
	}
	return enc, nil
}

// decodeReader converts r to UTF-8. A leading byte order mark selects the
// matching Unicode decoding and is dropped; invalid sequences become U+FFFD.
func decodeReader(r io.Reader, enc encoding.Encoding) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(enc.NewDecoder()))
}
