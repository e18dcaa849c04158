package archiver

import (
	"io"
	"strings"

	"github.com/klauspost/compress/s2"
)

func init() {
	RegisterFormat(Sz{})
}

// Sz facilitates Snappy compression. It uses S2 for
// reading and writing, and writes Snappy-compatible
// streams unless SnappyIncompatible is set.
type Sz struct {
	// Write S2 streams that Snappy readers cannot decode,
	// in exchange for better compression.
	SnappyIncompatible bool
}

func (Sz) Name() string { return ".sz" }

func (sz Sz) Match(filename string) (MatchResult, error) {
	var mr MatchResult
	lower := strings.ToLower(filename)
	mr.ByName = strings.HasSuffix(lower, sz.Name()) || strings.HasSuffix(lower, ".s2")
	return mr, nil
}

func (sz Sz) OpenWriter(w io.Writer) (io.WriteCloser, error) {
	var opts []s2.WriterOption
	if !sz.SnappyIncompatible {
		// this option is inverted because by default we should
		// probably write Snappy-compatible streams
		opts = append(opts, s2.WriterSnappyCompat())
	}
	return s2.NewWriter(w, opts...), nil
}

func (Sz) OpenReader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(s2.NewReader(r)), nil
}
