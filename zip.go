package archiver

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

func init() {
	RegisterFormat(Zip{})

	zip.RegisterCompressor(ZipMethodBzip2, func(out io.Writer) (io.WriteCloser, error) {
		return bzip2.NewWriter(out, nil)
	})
	zip.RegisterCompressor(ZipMethodZstd, zstd.ZipCompressor())
	zip.RegisterCompressor(ZipMethodXz, func(out io.Writer) (io.WriteCloser, error) {
		return xz.NewWriter(out)
	})

	zip.RegisterDecompressor(ZipMethodBzip2, func(r io.Reader) io.ReadCloser {
		bz2r, err := bzip2.NewReader(r, nil)
		if err != nil {
			return io.NopCloser(errReader{err})
		}
		return bz2r
	})
	zip.RegisterDecompressor(ZipMethodZstd, zstd.ZipDecompressor())
	zip.RegisterDecompressor(ZipMethodXz, func(r io.Reader) io.ReadCloser {
		xr, err := xz.NewReader(r)
		if err != nil {
			return io.NopCloser(errReader{err})
		}
		return io.NopCloser(xr)
	})
}

// Additional compression methods not offered by archive/zip.
// See https://pkware.cachefly.net/webdocs/casestudies/APPNOTE.TXT section 4.4.5.
const (
	ZipMethodBzip2 = 12
	ZipMethodZstd  = zstd.ZipMethodWinZip // 93
	ZipMethodXz    = 95
)

// Default permissions for entries that do not carry their own.
const (
	defaultFileMode fs.FileMode = 0644
	defaultDirMode  fs.FileMode = 0755
)

// Zip writes .zip archives.
type Zip struct {
	// The compression method for file entries. The zero value
	// is zip.Store; use zip.Deflate or one of the ZipMethod
	// constants to compress.
	Compression uint16

	// If true, files whose extension indicates they are
	// already compressed are stored rather than compressed
	// again.
	SelectiveCompression bool
}

func (Zip) Name() string { return ".zip" }

func (z Zip) Match(filename string) (MatchResult, error) {
	var mr MatchResult
	mr.ByName = strings.HasSuffix(strings.ToLower(filename), z.Name())
	return mr, nil
}

// FixedEntries returns nothing; a zip file is exactly the
// union of its registered content.
func (Zip) FixedEntries() ([]Directory, []File) { return nil, nil }

func (z Zip) OpenEntryWriter(w io.Writer) (EntryWriter, error) {
	return zipEntryWriter{zw: zip.NewWriter(w), format: z}, nil
}

func (z Zip) List(ctx context.Context, archive io.ReaderAt, size int64) ([]Entry, error) {
	zr, err := zip.NewReader(archive, size)
	if err != nil {
		return nil, fmt.Errorf("reading zip: %w", err)
	}
	entries := make([]Entry, 0, len(zr.File))
	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entries = append(entries, Entry{
			Name:    f.Name,
			IsDir:   strings.HasSuffix(f.Name, "/"),
			Size:    int64(f.UncompressedSize64),
			Mode:    f.Mode(),
			ModTime: f.Modified,
		})
	}
	return entries, nil
}

// method returns the compression method to use for the named file.
func (z Zip) method(name string) uint16 {
	if z.SelectiveCompression && compressedFormats[strings.ToLower(path.Ext(name))] {
		return zip.Store
	}
	return z.Compression
}

type zipEntryWriter struct {
	zw     *zip.Writer
	format Zip
}

func (w zipEntryWriter) WriteDirectory(_ context.Context, dir Directory) error {
	mode := dir.Mode.Perm()
	if mode == 0 {
		mode = defaultDirMode
	}
	hdr := &zip.FileHeader{
		Name:   dir.Name,
		Method: zip.Store,
	}
	hdr.SetMode(fs.ModeDir | mode)
	if !dir.ModTime.IsZero() {
		setZipTimes(hdr, dir.ModTime, dir.ModTime)
	}
	if _, err := w.zw.CreateHeader(hdr); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	return nil
}

func (w zipEntryWriter) WriteFile(_ context.Context, info FileInfo, r io.Reader) error {
	mode := info.Mode.Perm()
	if mode == 0 {
		mode = defaultFileMode
	}
	hdr := &zip.FileHeader{
		Name:               info.RelativePath,
		Method:             w.format.method(info.RelativePath),
		UncompressedSize64: uint64(info.Size),
	}
	hdr.SetMode(mode)
	setZipTimes(hdr, info.ModTime, info.AccessTime)

	fw, err := w.zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	n, err := io.Copy(fw, r)
	if err != nil {
		return fmt.Errorf("writing data: %w", err)
	}
	if n != info.Size {
		return fmt.Errorf("wrote %d bytes but expected %d; file changed during build", n, info.Size)
	}
	return nil
}

func (w zipEntryWriter) Close() error { return w.zw.Close() }

// setZipTimes records the modification time in the MS-DOS header
// fields and in an extended timestamp extra field, and both times
// in an Info-ZIP Unix extra field. The writer puts the same extra
// data in the local and central headers, and the central form of
// the extended timestamp may only carry the mtime. The header's
// Modified field is left unset; the writer would otherwise append
// a second extended timestamp.
//
//nolint:staticcheck // the MS-DOS fields are the only way to control the extra field
func setZipTimes(hdr *zip.FileHeader, modTime, accessTime time.Time) {
	if modTime.IsZero() {
		return
	}
	if accessTime.IsZero() {
		accessTime = modTime
	}
	hdr.ModifiedDate, hdr.ModifiedTime = msDosTime(modTime)

	const (
		extTimeExtraID  = 0x5455
		unixOldExtraID  = 0x5855
		extTimeHasMtime = 1 << 0
	)
	buf := make([]byte, 9+12)
	binary.LittleEndian.PutUint16(buf[0:], extTimeExtraID)
	binary.LittleEndian.PutUint16(buf[2:], 5) // flags + mtime
	buf[4] = extTimeHasMtime
	binary.LittleEndian.PutUint32(buf[5:], unixTime32(modTime))

	binary.LittleEndian.PutUint16(buf[9:], unixOldExtraID)
	binary.LittleEndian.PutUint16(buf[11:], 8) // atime + mtime, no uid/gid
	binary.LittleEndian.PutUint32(buf[13:], unixTime32(accessTime))
	binary.LittleEndian.PutUint32(buf[17:], unixTime32(modTime))
	hdr.Extra = append(hdr.Extra, buf...)
}

// msDosTime converts t to the MS-DOS date and time format, which
// has two second resolution and cannot represent years before 1980.
func msDosTime(t time.Time) (date, clock uint16) {
	t = t.UTC()
	if t.Year() < 1980 {
		t = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	date = uint16(t.Day() + int(t.Month())<<5 + (t.Year()-1980)<<9)
	clock = uint16(t.Second()/2 + t.Minute()<<5 + t.Hour()<<11)
	return date, clock
}

// unixTime32 clamps t into the unsigned 32-bit range used by the
// extended timestamp field.
func unixTime32(t time.Time) uint32 {
	sec := t.Unix()
	switch {
	case sec < 0:
		return 0
	case sec > 1<<32-1:
		return 1<<32 - 1
	}
	return uint32(sec)
}

// errReader is an io.Reader that always fails with err.
type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }

// compressedFormats is a set of lowercased file extensions
// for file formats that are typically already compressed.
// Compressing files that are already compressed is inefficient,
// so use this set of extensions to avoid that.
var compressedFormats = map[string]bool{
	".7z":   true,
	".avi":  true,
	".br":   true,
	".bz2":  true,
	".cab":  true,
	".docx": true,
	".gif":  true,
	".gz":   true,
	".jar":  true,
	".jpeg": true,
	".jpg":  true,
	".lz":   true,
	".lz4":  true,
	".lzma": true,
	".m4v":  true,
	".mov":  true,
	".mp3":  true,
	".mp4":  true,
	".mpeg": true,
	".mpg":  true,
	".png":  true,
	".pptx": true,
	".rar":  true,
	".sz":   true,
	".tbz2": true,
	".tgz":  true,
	".tsz":  true,
	".txz":  true,
	".war":  true,
	".xlsx": true,
	".xz":   true,
	".zip":  true,
	".zipx": true,
	".zst":  true,
}

// Interface guards
var (
	_ ArchiveFormat = (*Zip)(nil)
	_ Lister        = (*Zip)(nil)
)
