package archiver

import (
	"io"
	"strings"

	"github.com/dsnet/compress/bzip2"
)

func init() {
	RegisterFormat(Bz2{})
}

// Bz2 facilitates bzip2 compression.
type Bz2 struct {
	// CompressionLevel is 1 through 9; 0 uses the library default.
	CompressionLevel int
}

func (Bz2) Name() string { return ".bz2" }

func (bz Bz2) Match(filename string) (MatchResult, error) {
	var mr MatchResult
	mr.ByName = strings.HasSuffix(strings.ToLower(filename), bz.Name())
	return mr, nil
}

func (bz Bz2) OpenWriter(w io.Writer) (io.WriteCloser, error) {
	return bzip2.NewWriter(w, &bzip2.WriterConfig{
		Level: bz.CompressionLevel,
	})
}

func (Bz2) OpenReader(r io.Reader) (io.ReadCloser, error) {
	return bzip2.NewReader(r, nil)
}
