package archiver

import (
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/pgzip"
)

func init() {
	RegisterFormat(Gz{})
}

// Gz facilitates gzip compression.
type Gz struct {
	// Gzip compression level. See https://pkg.go.dev/compress/flate#pkg-constants
	// for some predefined constants. If 0, DefaultCompression is assumed rather
	// than no compression.
	CompressionLevel int

	// DisableMultistream controls whether the reader supports multistream files.
	// See https://pkg.go.dev/compress/gzip#example-Reader.Multistream
	DisableMultistream bool

	// Use a fast parallel Gzip implementation. This is only
	// effective for large streams (about 1 MB or greater).
	Multithreaded bool
}

func (Gz) Name() string { return ".gz" }

func (gz Gz) Match(filename string) (MatchResult, error) {
	var mr MatchResult
	mr.ByName = strings.HasSuffix(strings.ToLower(filename), gz.Name())
	return mr, nil
}

func (gz Gz) OpenWriter(w io.Writer) (io.WriteCloser, error) {
	level := gz.CompressionLevel
	if level == 0 {
		level = gzip.DefaultCompression
	}
	if gz.Multithreaded {
		return pgzip.NewWriterLevel(w, level)
	}
	return gzip.NewWriterLevel(w, level)
}

func (gz Gz) OpenReader(r io.Reader) (io.ReadCloser, error) {
	if gz.Multithreaded {
		gzR, err := pgzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		if gz.DisableMultistream {
			gzR.Multistream(false)
		}
		return gzR, nil
	}

	gzR, err := gzip.NewReader(r)
	if err != nil {
		return nil, err
	}
	if gz.DisableMultistream {
		gzR.Multistream(false)
	}
	return gzR, nil
}
