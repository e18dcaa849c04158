package archiver

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"time"
)

func init() {
	RegisterFormat(Tar{})
}

// Tar writes tarballs using the PAX format, which preserves
// access times and long names.
type Tar struct {
	// If true, preserve only numeric user and group id
	NumericUIDGID bool
}

func (Tar) Name() string { return ".tar" }

func (t Tar) Match(filename string) (MatchResult, error) {
	var mr MatchResult
	mr.ByName = strings.HasSuffix(strings.ToLower(filename), t.Name())
	return mr, nil
}

// FixedEntries returns nothing; a tarball is exactly the
// union of its registered content.
func (Tar) FixedEntries() ([]Directory, []File) { return nil, nil }

func (t Tar) OpenEntryWriter(w io.Writer) (EntryWriter, error) {
	return tarEntryWriter{tw: tar.NewWriter(w), format: t}, nil
}

func (t Tar) List(ctx context.Context, archive io.ReaderAt, size int64) ([]Entry, error) {
	return t.listStream(ctx, io.NewSectionReader(archive, 0, size))
}

func (Tar) listStream(ctx context.Context, r io.Reader) ([]Entry, error) {
	tr := tar.NewReader(r)
	var entries []Entry
	for {
		if err := ctx.Err(); err != nil {
			return nil, err // honor context cancellation
		}
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading tar: %w", err)
		}
		entries = append(entries, Entry{
			Name:       hdr.Name,
			IsDir:      hdr.Typeflag == tar.TypeDir,
			Size:       hdr.Size,
			Mode:       fs.FileMode(hdr.Mode).Perm(),
			ModTime:    hdr.ModTime,
			AccessTime: hdr.AccessTime,
			Owner:      hdr.Uname,
			Group:      hdr.Gname,
		})
	}
	return entries, nil
}

type tarEntryWriter struct {
	tw     *tar.Writer
	format Tar
}

func (w tarEntryWriter) WriteDirectory(_ context.Context, dir Directory) error {
	mode := dir.Mode.Perm()
	if mode == 0 {
		mode = defaultDirMode
	}
	modTime := dir.ModTime
	if modTime.IsZero() {
		modTime = time.Unix(0, 0)
	}
	hdr := &tar.Header{
		Typeflag: tar.TypeDir,
		Name:     dir.Name,
		Mode:     int64(mode),
		Uname:    dir.Owner,
		Gname:    dir.Group,
		ModTime:  modTime,
		Format:   tar.FormatPAX,
	}
	if w.format.NumericUIDGID {
		hdr.Uname = ""
		hdr.Gname = ""
	}
	if err := w.tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	return nil
}

func (w tarEntryWriter) WriteFile(_ context.Context, info FileInfo, r io.Reader) error {
	hdr, err := w.fileHeader(info, r)
	if err != nil {
		return err
	}
	if err := w.tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	n, err := io.CopyN(w.tw, r, info.Size)
	if err != nil {
		return fmt.Errorf("writing data (%d of %d bytes): %w", n, info.Size, err)
	}
	return nil
}

// fileHeader builds the header for a file entry. Ownership is
// taken from the source file when its stat is available.
func (w tarEntryWriter) fileHeader(info FileInfo, r io.Reader) (*tar.Header, error) {
	hdr := new(tar.Header)
	if st, ok := r.(interface{ Stat() (fs.FileInfo, error) }); ok {
		fi, err := st.Stat()
		if err != nil {
			return nil, fmt.Errorf("stat: %w", err)
		}
		hdr, err = tar.FileInfoHeader(fi, "")
		if err != nil {
			return nil, fmt.Errorf("creating header: %w", err)
		}
	}

	mode := info.Mode.Perm()
	if mode == 0 {
		mode = defaultFileMode
	}
	hdr.Typeflag = tar.TypeReg
	hdr.Name = info.RelativePath
	hdr.Mode = int64(mode)
	hdr.Size = info.Size
	hdr.ModTime = info.ModTime
	hdr.AccessTime = info.AccessTime
	hdr.ChangeTime = time.Time{}
	hdr.Format = tar.FormatPAX
	if w.format.NumericUIDGID {
		hdr.Uname = ""
		hdr.Gname = ""
	}
	return hdr, nil
}

func (w tarEntryWriter) Close() error { return w.tw.Close() }

// Interface guards
var (
	_ ArchiveFormat = (*Tar)(nil)
	_ Lister        = (*Tar)(nil)
)
