package archiver

import (
	"io"
	"io/fs"
	"os"
	"path"
	"strings"
	"time"
)

// FileInfo describes one file as it will appear in an archive.
// Its identity is RelativePath; two values with the same
// RelativePath refer to the same archive entry.
type FileInfo struct {
	// Slash-separated path of the entry inside the archive.
	// It never begins with "/" or "./".
	RelativePath string

	// Path of the file on disk the entry is copied from.
	// Empty for entries that are generated in memory.
	Origin string

	Size       int64
	ModTime    time.Time
	AccessTime time.Time

	// Permission bits for the entry. If zero, the
	// format's default file mode is used.
	Mode fs.FileMode
}

// Compare orders files by relative path using a
// plain byte comparison, independent of locale.
func Compare(a, b FileInfo) int {
	return strings.Compare(a.RelativePath, b.RelativePath)
}

// File is a FileInfo along with a way to read its contents.
type File struct {
	FileInfo

	// Open opens the file's contents for reading. It is
	// called at most once per build, right before the
	// entry is written, and the result is closed as soon
	// as the copy is done.
	Open func() (io.ReadCloser, error)
}

// diskFile returns a File that reads its body from info.Origin.
func diskFile(info FileInfo) File {
	return File{
		FileInfo: info,
		Open:     func() (io.ReadCloser, error) { return os.Open(info.Origin) },
	}
}

// Directory describes a directory entry in an archive.
type Directory struct {
	// Name is the archive-internal path of the directory.
	// It always ends with "/".
	Name string

	// Optional metadata; formats that have no notion of
	// ownership ignore Owner and Group. A zero Mode or
	// ModTime means the format default.
	Mode    fs.FileMode
	Owner   string
	Group   string
	ModTime time.Time

	// implicit is true for directories derived from the
	// path of a file rather than registered by a caller.
	implicit bool
}

// NewDirectory returns an explicit directory entry for name,
// which may be given with or without a trailing slash.
func NewDirectory(name string) Directory {
	return Directory{Name: DirectoryName(name)}
}

// Implicit reports whether d was derived from a file path or
// injected by a format, rather than registered by a caller.
func (d Directory) Implicit() bool { return d.implicit }

// CompareDirectories orders directories by name using a
// plain byte comparison, independent of locale.
func CompareDirectories(a, b Directory) int {
	return strings.Compare(a.Name, b.Name)
}

// DirectoryName cleans name into the canonical form of a
// directory entry name: slash-separated, relative, and
// terminated by exactly one "/". It returns "" for the root.
func DirectoryName(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	name = strings.TrimPrefix(path.Clean("/"+name), "/")
	if name == "" {
		return ""
	}
	return name + "/"
}

// Ancestors returns the directory entries implied by a
// relative file path, outermost first. For "a/b/c.txt"
// that is "a/" and "a/b/".
func Ancestors(relativePath string) []Directory {
	var dirs []Directory
	for i, c := range relativePath {
		if c == '/' && i > 0 {
			dirs = append(dirs, Directory{Name: relativePath[:i+1], implicit: true})
		}
	}
	return dirs
}
