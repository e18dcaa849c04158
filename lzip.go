package archiver

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/sorairolake/lzip-go"
)

func init() {
	RegisterFormat(Lzip{})
}

// Lzip facilitates lzip compression.
type Lzip struct{}

func (Lzip) Name() string { return ".lz" }

func (lz Lzip) Match(filename string) (MatchResult, error) {
	var mr MatchResult
	mr.ByName = filepath.Ext(strings.ToLower(filename)) == lz.Name()
	return mr, nil
}

func (Lzip) OpenWriter(w io.Writer) (io.WriteCloser, error) {
	return lzip.NewWriter(w), nil
}

func (Lzip) OpenReader(r io.Reader) (io.ReadCloser, error) {
	lzr, err := lzip.NewReader(r)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(lzr), nil
}
