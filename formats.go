package archiver

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// RegisterFormat registers a format. It should be called during init.
// Duplicate formats by name are not allowed and will panic.
func RegisterFormat(format Format) {
	name := strings.Trim(strings.ToLower(format.Name()), ".")
	if _, ok := formats[name]; ok {
		panic("format " + name + " is already registered")
	}
	formats[name] = format
}

// Identify returns the archive format to write for the given output
// file name. It recognizes plain archive extensions (.zip, .jar,
// .tar), compressed tarballs (.tar.gz, .tar.zst, ...) and their
// short forms (.tgz, .txz, ...).
//
// If no matching formats were found, special error ErrNoMatch is returned.
func Identify(filename string) (ArchiveFormat, error) {
	base := strings.ToLower(filepath.Base(filename))
	for short, long := range shortExtensions {
		if strings.HasSuffix(base, short) {
			base = strings.TrimSuffix(base, short) + long
			break
		}
	}

	// the compression is the outer "layer", so try it first
	var compression Compression
	for _, format := range formats {
		cf, ok := format.(Compression)
		if !ok {
			continue
		}
		if strings.HasSuffix(base, cf.Name()) {
			compression = cf
			base = strings.TrimSuffix(base, cf.Name())
			break
		}
	}

	for name, format := range formats {
		af, ok := format.(ArchiveFormat)
		if !ok {
			continue
		}
		matchResult, err := af.Match(base)
		if err != nil {
			return nil, fmt.Errorf("matching %s: %w", name, err)
		}
		if !matchResult.Matched() {
			continue
		}
		if compression == nil {
			return af, nil
		}
		if _, ok := af.(streamLister); !ok {
			return nil, fmt.Errorf("%s: %s archives cannot be wrapped in %s compression", filename, af.Name(), compression.Name())
		}
		return CompressedArchive{Compression: compression, Archival: af}, nil
	}

	return nil, fmt.Errorf("%s: %w", filename, ErrNoMatch)
}

// shortExtensions maps abbreviated tarball extensions
// to their long form.
var shortExtensions = map[string]string{
	".tgz":  ".tar.gz",
	".tbz2": ".tar.bz2",
	".txz":  ".tar.xz",
	".tzst": ".tar.zst",
	".tlz4": ".tar.lz4",
	".tsz":  ".tar.sz",
	".tlz":  ".tar.lz",
}

// CompressedArchive combines a compression format on top of an archive
// format (e.g. "tar.gz") and provides both functionalities in a single
// type. The whole entry stream of the archive is compressed, so only
// stream-oriented archive formats such as Tar make sense here.
//
// As this type is intended to compose compression and archive formats,
// both must be specified in order for this value to be valid.
type CompressedArchive struct {
	Compression
	Archival ArchiveFormat
}

// Name returns a concatenation of the archive format name
// and the compression format name.
func (caf CompressedArchive) Name() string {
	if caf.Compression == nil && caf.Archival == nil {
		panic("missing both compression and archive formats")
	}
	var name string
	if caf.Archival != nil {
		name += caf.Archival.Name()
	}
	if caf.Compression != nil {
		name += caf.Compression.Name()
	}
	return name
}

// Match matches if the name ends with the archive's extension
// followed by the compression's.
func (caf CompressedArchive) Match(filename string) (MatchResult, error) {
	var mr MatchResult
	mr.ByName = strings.HasSuffix(strings.ToLower(filename), caf.Name())
	return mr, nil
}

// FixedEntries returns the fixed entries of the archive format.
func (caf CompressedArchive) FixedEntries() ([]Directory, []File) {
	return caf.Archival.FixedEntries()
}

// OpenEntryWriter begins an archive whose entire stream is compressed.
func (caf CompressedArchive) OpenEntryWriter(w io.Writer) (EntryWriter, error) {
	if caf.Compression == nil || caf.Archival == nil {
		return nil, fmt.Errorf("compressed archive needs both a compression and an archive format")
	}
	wc, err := caf.Compression.OpenWriter(w)
	if err != nil {
		return nil, err
	}
	ew, err := caf.Archival.OpenEntryWriter(wc)
	if err != nil {
		wc.Close()
		return nil, err
	}
	return compressedEntryWriter{EntryWriter: ew, compressor: wc}, nil
}

// List decompresses the archive and reads back its entries.
func (caf CompressedArchive) List(ctx context.Context, archive io.ReaderAt, size int64) ([]Entry, error) {
	sl, ok := caf.Archival.(streamLister)
	if !ok {
		return nil, fmt.Errorf("%s: cannot list a compressed stream", caf.Archival.Name())
	}
	rc, err := caf.Compression.OpenReader(io.NewSectionReader(archive, 0, size))
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return sl.listStream(ctx, rc)
}

// compressedEntryWriter finishes the archive before flushing
// the compressor wrapped around it.
type compressedEntryWriter struct {
	EntryWriter
	compressor io.WriteCloser
}

func (w compressedEntryWriter) Close() error {
	err := w.EntryWriter.Close()
	if err2 := w.compressor.Close(); err2 != nil && err == nil {
		err = err2
	}
	return err
}

// streamLister is an archive format that can list
// entries from a plain, sequential stream.
type streamLister interface {
	listStream(ctx context.Context, r io.Reader) ([]Entry, error)
}

// MatchResult returns true if the format was matched either
// by name, stream, or both. Name usually refers to matching
// by file extension, and stream usually refers to reading
// the first few bytes of the stream (its header).
type MatchResult struct {
	ByName, ByStream bool
}

// Matched returns true if a match was made by either name or stream.
func (mr MatchResult) Matched() bool { return mr.ByName || mr.ByStream }

// ErrNoMatch is returned if there are no matching formats.
var ErrNoMatch = fmt.Errorf("no formats matched")

// Registered formats.
var formats = make(map[string]Format)

// Interface guards
var (
	_ ArchiveFormat = (*CompressedArchive)(nil)
	_ Lister        = (*CompressedArchive)(nil)
)

// Interface guards for compression formats
var (
	_ Compression = (*Gz)(nil)
	_ Compression = (*Bz2)(nil)
	_ Compression = (*Xz)(nil)
	_ Compression = (*Zstd)(nil)
	_ Compression = (*Lz4)(nil)
	_ Compression = (*Sz)(nil)
	_ Compression = (*Brotli)(nil)
	_ Compression = (*Lzip)(nil)
	_ Compression = (*Zlib)(nil)
)
