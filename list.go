package archiver

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"time"
)

// Entry is the header of one entry read back from an archive.
type Entry struct {
	Name       string
	IsDir      bool
	Size       int64
	Mode       fs.FileMode
	ModTime    time.Time
	AccessTime time.Time // zero if the format does not record it
	Owner      string    // empty if the format does not record it
	Group      string
}

// Entries reads back the entries of the archive file at path, in the
// order they are stored. The format is chosen from the file name.
func Entries(ctx context.Context, path string) ([]Entry, error) {
	format, err := Identify(path)
	if err != nil {
		return nil, err
	}
	lister, ok := format.(Lister)
	if !ok {
		return nil, fmt.Errorf("%s: format %s cannot be listed", path, format.Name())
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%s: stat: %w", path, err)
	}

	entries, err := lister.List(ctx, f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}
