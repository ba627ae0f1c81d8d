package source

import (
	"net/url"
	"path/filepath"
	"strings"

	"github.com/ajitpratap0/filereader/pkg/errors"
)

// Scheme identifies where a location's bytes come from.
type Scheme string

const (
	SchemeFile  Scheme = "file"
	SchemeHTTP  Scheme = "http"
	SchemeHTTPS Scheme = "https"
	SchemeS3    Scheme = "s3"
	SchemeGCS   Scheme = "gs"
)

// EntrySeparator splits an archive location from the entry inside it, as in
// "exports.zip!/2024/rows.csv".
const EntrySeparator = "!/"

// Location is a parsed input address.
type Location struct {
	Raw    string
	Scheme Scheme
	// Path is the local path for file locations, the object key for s3 and
	// gs, and the full URL for http(s).
	Path string
	// Bucket is set for s3 and gs locations.
	Bucket string
	// Entry names a member of an archive; empty means the first file entry.
	Entry string
}

// Name is the last path element, used for extension based guesses.
func (l Location) Name() string {
	if l.Scheme == SchemeHTTP || l.Scheme == SchemeHTTPS {
		if u, err := url.Parse(l.Path); err == nil {
			return filepath.Base(u.Path)
		}
	}
	return filepath.Base(l.Path)
}

func (l Location) String() string {
	return l.Raw
}

// ParseLocation understands plain paths, file://, http(s)://, s3:// and
// gs:// addresses, each optionally followed by an archive entry suffix.
func ParseLocation(raw string) (Location, error) {
	loc := Location{Raw: raw}
	s := strings.TrimSpace(raw)
	if s == "" {
		return loc, errors.New(errors.ErrorTypeValidation, "empty location")
	}

	if i := strings.Index(s, EntrySeparator); i >= 0 {
		loc.Entry = s[i+len(EntrySeparator):]
		s = s[:i]
		if loc.Entry == "" {
			return loc, errors.New(errors.ErrorTypeValidation, "empty archive entry").WithDetail("location", raw)
		}
	}

	if !strings.Contains(s, "://") {
		loc.Scheme = SchemeFile
		loc.Path = filepath.Clean(s)
		return loc, nil
	}

	u, err := url.Parse(s)
	if err != nil {
		return loc, errors.Wrap(err, errors.ErrorTypeValidation, "invalid location").WithDetail("location", raw)
	}

	switch Scheme(strings.ToLower(u.Scheme)) {
	case SchemeFile:
		loc.Scheme = SchemeFile
		loc.Path = filepath.FromSlash(u.Path)
	case SchemeHTTP, SchemeHTTPS:
		loc.Scheme = Scheme(strings.ToLower(u.Scheme))
		loc.Path = s
	case SchemeS3, SchemeGCS:
		loc.Scheme = Scheme(strings.ToLower(u.Scheme))
		loc.Bucket = u.Host
		loc.Path = strings.TrimPrefix(u.Path, "/")
		if loc.Bucket == "" || loc.Path == "" {
			return loc, errors.Newf(errors.ErrorTypeValidation, "%s location needs bucket and object", u.Scheme).
				WithDetail("location", raw)
		}
	default:
		return loc, errors.Newf(errors.ErrorTypeCapability, "unsupported scheme %q", u.Scheme).
			WithDetail("location", raw)
	}
	return loc, nil
}
