package archiver

import (
	"context"
	"io"
)

// Format represents either an archive or compression format.
type Format interface {
	// Name returns the name of the format, which is also
	// its canonical file extension (e.g. ".zip").
	Name() string

	// Match returns true if the given file name looks like
	// it belongs to this format. The name should consist only
	// of the base name, not a path component. Matching is done
	// by extension because the archives built by this package
	// do not exist yet at the time a format is chosen.
	Match(filename string) (MatchResult, error)
}

// Compression is a compression format with both compress and decompress methods.
type Compression interface {
	Format
	Compressor
	Decompressor
}

// Compressor can compress data by wrapping a writer.
type Compressor interface {
	// OpenWriter wraps w with a new writer that compresses what is written.
	// The writer must be closed when writing is finished.
	OpenWriter(w io.Writer) (io.WriteCloser, error)
}

// Decompressor can decompress data by wrapping a reader.
type Decompressor interface {
	// OpenReader wraps r with a new reader that decompresses what is read.
	// The reader must be closed when reading is finished.
	OpenReader(r io.Reader) (io.ReadCloser, error)
}

// ArchiveFormat is a container format that a Builder can assemble.
// Formats differ only in the entries they always carry and in how
// an entry is mapped onto the container; ordering, deduplication
// and validation are shared by every format.
type ArchiveFormat interface {
	Format

	// FixedEntries returns the directories and files the format
	// requires in every archive. They are merged into the
	// registered content as a union: a fixed entry never
	// replaces or conflicts with one supplied by a file set.
	FixedEntries() ([]Directory, []File)

	// OpenEntryWriter begins a new archive that is written to w.
	// The returned writer must be closed to complete the archive.
	OpenEntryWriter(w io.Writer) (EntryWriter, error)
}

// EntryWriter writes one archive entry at a time. An entry is
// fully written before the next one begins; EntryWriters are
// not safe for concurrent use.
type EntryWriter interface {
	// WriteDirectory adds a directory entry.
	WriteDirectory(ctx context.Context, dir Directory) error

	// WriteFile adds a file entry whose body is read from r.
	WriteFile(ctx context.Context, info FileInfo, r io.Reader) error

	// Close finishes the archive. It does not close the
	// underlying writer.
	Close() error
}

// Lister can read back the entry headers of an archive,
// in the order they are stored.
type Lister interface {
	List(ctx context.Context, archive io.ReaderAt, size int64) ([]Entry, error)
}
