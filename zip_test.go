package archiver

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	kzip "github.com/klauspost/compress/zip"
)

func TestZipEntryMetadata(t *testing.T) {
	root := makeTree(t, t.TempDir(), map[string]string{
		"bin/run.sh": "#!/bin/sh\n",
		"notes.txt":  "notes",
	})
	now := time.Now().Truncate(time.Second)
	mtime, atime := now.Add(-2*time.Hour), now.Add(-time.Hour)
	if err := os.Chtimes(filepath.Join(root, "notes.txt"), atime, mtime); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(t.TempDir(), "out.zip")

	_, err := NewZipBuilder(out).
		AddFileSet(FileSet{Root: root, Includes: []string{"bin/*"}, Mode: 0755}).
		AddFileSet(FileSet{Root: root, Includes: []string{"*.txt"}}).
		Directory(Directory{Name: "bin", Mode: 0700}).
		Build(context.Background())
	if err != nil {
		t.Fatalf("building: %v", err)
	}

	r, err := zip.OpenReader(out)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	byName := make(map[string]*zip.File)
	for _, f := range r.File {
		byName[f.Name] = f
	}

	if bin := byName["bin/"]; bin == nil || bin.Mode() != fs.ModeDir|0700 {
		t.Errorf("expected bin/ to be a directory with mode 0700, got %v", bin)
	}
	if run := byName["bin/run.sh"]; run == nil || run.Mode() != 0755 {
		t.Errorf("expected bin/run.sh with mode 0755, got %v", run)
	}

	notes := byName["notes.txt"]
	if notes == nil {
		t.Fatal("missing notes.txt")
	}
	if !notes.Modified.Equal(mtime) {
		t.Errorf("expected modification time %v but got %v", mtime, notes.Modified)
	}
	fields := extraFields(notes.Extra)
	if ts := fields[0x5455]; len(ts) != 5 || ts[0] != 1 {
		t.Errorf("expected an extended timestamp holding only the mtime but got %x", ts)
	}
	unix := fields[0x5855]
	if len(unix) != 8 {
		t.Fatalf("expected an 8 byte Unix extra field but got %x", unix)
	}
	if got := time.Unix(int64(binary.LittleEndian.Uint32(unix)), 0); !got.Equal(atime) {
		t.Errorf("expected access time %v but got %v", atime, got)
	}
	if got := time.Unix(int64(binary.LittleEndian.Uint32(unix[4:])), 0); !got.Equal(mtime) {
		t.Errorf("expected modification time %v in the Unix field but got %v", mtime, got)
	}
}

// extraFields splits a zip extra field into its records by ID.
func extraFields(extra []byte) map[uint16][]byte {
	fields := make(map[uint16][]byte)
	for len(extra) >= 4 {
		id := binary.LittleEndian.Uint16(extra[0:])
		size := int(binary.LittleEndian.Uint16(extra[2:]))
		if len(extra) < 4+size {
			break
		}
		fields[id] = extra[4 : 4+size]
		extra = extra[4+size:]
	}
	return fields
}

func TestZipCompressionMethods(t *testing.T) {
	root := makeTree(t, t.TempDir(), map[string]string{
		"a/data.txt": string(bytes.Repeat([]byte("compressible "), 100)),
		"a/pic.png":  "not really a png",
	})
	dir := t.TempDir()

	for i, tc := range []struct {
		format    Zip
		expectTxt uint16
		expectPng uint16
	}{
		{format: Zip{}, expectTxt: zip.Store, expectPng: zip.Store},
		{format: Zip{Compression: zip.Deflate}, expectTxt: zip.Deflate, expectPng: zip.Deflate},
		{format: Zip{Compression: zip.Deflate, SelectiveCompression: true}, expectTxt: zip.Deflate, expectPng: zip.Store},
		{format: Zip{Compression: ZipMethodBzip2}, expectTxt: ZipMethodBzip2, expectPng: ZipMethodBzip2},
		{format: Zip{Compression: ZipMethodZstd}, expectTxt: ZipMethodZstd, expectPng: ZipMethodZstd},
		{format: Zip{Compression: ZipMethodXz, SelectiveCompression: true}, expectTxt: ZipMethodXz, expectPng: zip.Store},
	} {
		out := filepath.Join(dir, "out.zip")
		if _, err := NewBuilder(out, tc.format).FileSet(root).Build(context.Background()); err != nil {
			t.Fatalf("Test %d: building: %v", i, err)
		}

		f, err := os.Open(out)
		if err != nil {
			t.Fatal(err)
		}
		info, err := f.Stat()
		if err != nil {
			t.Fatal(err)
		}
		// read back with the same library so the extra methods are known
		zr, err := zipReader(f, info.Size())
		if err != nil {
			t.Fatalf("Test %d: reading: %v", i, err)
		}
		for _, zf := range zr {
			var expect uint16
			switch zf.name {
			case "a/data.txt":
				expect = tc.expectTxt
			case "a/pic.png":
				expect = tc.expectPng
			default:
				continue
			}
			if zf.method != expect {
				t.Errorf("Test %d: %s: expected method %d but got %d", i, zf.name, expect, zf.method)
			}
			if !bytes.Equal(zf.data, mustRead(t, filepath.Join(root, filepath.FromSlash(zf.name)))) {
				t.Errorf("Test %d: %s: contents differ", i, zf.name)
			}
		}
		f.Close()
	}
}

func mustRead(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(name)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

type zipContent struct {
	name   string
	method uint16
	data   []byte
}

func zipReader(r io.ReaderAt, size int64) ([]zipContent, error) {
	zr, err := kzip.NewReader(r, size)
	if err != nil {
		return nil, err
	}
	var contents []zipContent
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, err
		}
		contents = append(contents, zipContent{name: f.Name, method: f.Method, data: data})
	}
	return contents, nil
}

func TestZipList(t *testing.T) {
	root := makeTree(t, t.TempDir(), map[string]string{"x/y.txt": "hello"})
	out := filepath.Join(t.TempDir(), "out.zip")
	if _, err := NewZipBuilder(out).FileSet(root).Build(context.Background()); err != nil {
		t.Fatal(err)
	}
	entries, err := Entries(context.Background(), out)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries but got %+v", entries)
	}
	if !entries[0].IsDir || entries[0].Name != "x/" {
		t.Errorf("expected directory x/ first but got %+v", entries[0])
	}
	if entries[1].IsDir || entries[1].Name != "x/y.txt" || entries[1].Size != 5 {
		t.Errorf("unexpected file entry %+v", entries[1])
	}
}

func TestMsDosTimeClampsEarlyDates(t *testing.T) {
	date, clock := msDosTime(time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC))
	if date != 1<<5|1 || clock != 0 {
		t.Errorf("expected 1980-01-01 00:00:00 but got date %#x time %#x", date, clock)
	}
}
