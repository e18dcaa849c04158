package archiver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/zip"
)

// Builder assembles an archive file from file sets and explicit
// directory entries. Register content with the chaining methods,
// then call Build once.
//
// Registration methods validate their input right away. The first
// failure is remembered, makes every later registration a no-op,
// and is returned by Err and by Build.
//
// A Builder is not safe for concurrent use. To build several
// archives in parallel, use one Builder per output path.
type Builder struct {
	// Path is the archive file to create. Missing parent
	// directories are created, and an existing file at Path
	// is removed before anything else happens.
	Path string

	// Format is the container format to write.
	Format ArchiveFormat

	// Logger receives progress messages. Optional.
	Logger *log.Logger

	sets        []registration
	directories []Directory
	err         error
}

type registration struct {
	set      FileSet
	optional bool
}

// NewBuilder returns a Builder writing format to the file at path.
func NewBuilder(path string, format ArchiveFormat) *Builder {
	return &Builder{Path: path, Format: format}
}

// NewJarBuilder returns a Builder for a deflated JAR file at path.
func NewJarBuilder(path string) *Builder {
	return NewBuilder(path, Jar{Zip: Zip{Compression: zip.Deflate}})
}

// NewZipBuilder returns a Builder for a deflated ZIP file at path.
func NewZipBuilder(path string) *Builder {
	return NewBuilder(path, Zip{Compression: zip.Deflate})
}

// NewTarBuilder returns a Builder for an uncompressed tarball at path.
func NewTarBuilder(path string) *Builder { return NewBuilder(path, Tar{}) }

// FileSet registers every file under the directory root. The root
// must exist and be a directory.
func (b *Builder) FileSet(root string) *Builder {
	return b.AddFileSet(FileSet{Root: root})
}

// AddFileSet registers set. Its root must exist and be a directory.
func (b *Builder) AddFileSet(set FileSet) *Builder {
	if b.err != nil {
		return b
	}
	if err := set.Check(); err != nil {
		b.err = err
		return b
	}
	b.sets = append(b.sets, registration{set: set})
	return b
}

// OptionalFileSet registers every file under the directory root if
// root exists when the archive is built. It is still an error for
// root to exist as anything other than a directory.
func (b *Builder) OptionalFileSet(root string) *Builder {
	return b.AddOptionalFileSet(FileSet{Root: root})
}

// AddOptionalFileSet registers set, tolerating a missing root.
func (b *Builder) AddOptionalFileSet(set FileSet) *Builder {
	if b.err != nil {
		return b
	}
	if err := set.Check(); err != nil && !isMissingRoot(err) {
		b.err = err
		return b
	}
	b.sets = append(b.sets, registration{set: set, optional: true})
	return b
}

// Directory registers an explicit directory entry. Its metadata
// takes precedence over the bare entry implied by the files
// beneath it.
func (b *Builder) Directory(dir Directory) *Builder {
	if b.err != nil {
		return b
	}
	dir.Name = DirectoryName(dir.Name)
	if dir.Name == "" {
		b.err = fmt.Errorf("directory entry: empty name")
		return b
	}
	dir.implicit = false
	b.directories = append(b.directories, dir)
	return b
}

// Err returns the first registration error, if any.
func (b *Builder) Err() error { return b.err }

// Build writes the archive and returns the number of entries
// written, directories and files combined.
//
// Any file already at b.Path is removed first, even if the build
// then fails. If writing fails part way, the incomplete archive is
// removed as well; should that removal fail, whatever is left at
// b.Path must not be treated as a complete archive.
func (b *Builder) Build(ctx context.Context) (int, error) {
	if b.Format == nil {
		return 0, fmt.Errorf("%s: no archive format", b.Path)
	}
	logger := b.logger()

	if err := os.Remove(b.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return 0, fmt.Errorf("%s: removing existing file: %w", b.Path, err)
	}
	if err := os.MkdirAll(filepath.Dir(b.Path), 0755); err != nil {
		return 0, fmt.Errorf("%s: making parent directory: %w", b.Path, err)
	}
	if b.err != nil {
		return 0, b.err
	}

	dirs, files, err := b.resolve(ctx, logger)
	if err != nil {
		return 0, err
	}

	out, err := os.Create(b.Path)
	if err != nil {
		return 0, fmt.Errorf("%s: creating archive: %w", b.Path, err)
	}
	count, err := b.write(ctx, out, dirs, files)
	if cerr := out.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("%s: closing archive: %w", b.Path, cerr)
	}
	if err != nil {
		// a partially written archive can look complete to readers
		os.Remove(b.Path)
		return 0, err
	}

	logger.Info("archive written", "path", b.Path, "format", b.Format.Name(), "entries", count)
	return count, nil
}

// resolve expands every registered file set and merges the results
// with the explicit and fixed entries into the final, sorted lists.
func (b *Builder) resolve(ctx context.Context, logger *log.Logger) ([]Directory, []File, error) {
	dirIndex := make(map[string]Directory)
	fileIndex := make(map[string]File)

	for _, dir := range b.directories {
		mergeDirectory(dirIndex, dir)
	}

	for _, reg := range b.sets {
		files, dirs, err := reg.set.Expand(ctx)
		if reg.optional && isMissingRoot(err) {
			logger.Debug("skipping missing optional file set", "root", reg.set.Root)
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		logger.Debug("expanded file set", "root", reg.set.Root, "files", len(files), "directories", len(dirs))

		for _, dir := range dirs {
			mergeDirectory(dirIndex, dir)
		}
		// later registrations replace earlier files at the same path
		for _, file := range files {
			fileIndex[file.RelativePath] = file
		}
	}

	// fixed entries are a union with the registered content; they
	// never fail on, nor replace, what a file set already supplies
	fixedDirs, fixedFiles := b.Format.FixedEntries()
	fixedTime := newestModTime(fileIndex)
	for _, dir := range fixedDirs {
		dir.Name = DirectoryName(dir.Name)
		dir.implicit = true
		mergeDirectory(dirIndex, dir)
	}
	for _, file := range fixedFiles {
		if _, ok := fileIndex[file.RelativePath]; ok {
			continue
		}
		if file.ModTime.IsZero() {
			file.ModTime = fixedTime
		}
		if file.AccessTime.IsZero() {
			file.AccessTime = file.ModTime
		}
		fileIndex[file.RelativePath] = file
		for _, dir := range Ancestors(file.RelativePath) {
			mergeDirectory(dirIndex, dir)
		}
	}

	dirs := slices.SortedFunc(maps.Values(dirIndex), CompareDirectories)
	files := slices.SortedFunc(maps.Values(fileIndex), func(x, y File) int {
		return Compare(x.FileInfo, y.FileInfo)
	})
	return dirs, files, nil
}

// newestModTime returns the latest modification time among files,
// or the Unix epoch if there are none.
func newestModTime(files map[string]File) time.Time {
	newest := time.Unix(0, 0)
	for _, file := range files {
		if file.ModTime.After(newest) {
			newest = file.ModTime
		}
	}
	return newest
}

// mergeDirectory adds dir to index unless an entry with the same
// name is already there. An explicit entry replaces an implicit one.
func mergeDirectory(index map[string]Directory, dir Directory) {
	existing, ok := index[dir.Name]
	if !ok || (existing.implicit && !dir.implicit) {
		index[dir.Name] = dir
	}
}

// write streams the resolved entries into out, directories first.
func (b *Builder) write(ctx context.Context, out io.Writer, dirs []Directory, files []File) (int, error) {
	ew, err := b.Format.OpenEntryWriter(out)
	if err != nil {
		return 0, fmt.Errorf("%s: opening %s writer: %w", b.Path, b.Format.Name(), err)
	}

	var count int
	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			ew.Close()
			return 0, err
		}
		if err := ew.WriteDirectory(ctx, dir); err != nil {
			ew.Close()
			return 0, fmt.Errorf("directory %s: %w", dir.Name, err)
		}
		count++
	}

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			ew.Close()
			return 0, err
		}
		if err := writeFile(ctx, ew, file); err != nil {
			ew.Close()
			return 0, fmt.Errorf("file %s: %w", file.RelativePath, err)
		}
		count++
	}

	if err := ew.Close(); err != nil {
		return 0, fmt.Errorf("%s: finishing archive: %w", b.Path, err)
	}
	return count, nil
}

// writeFile copies one file into the archive, holding its source
// open only for the duration of the copy.
func writeFile(ctx context.Context, ew EntryWriter, file File) error {
	if file.Open == nil {
		return fmt.Errorf("no contents")
	}
	rc, err := file.Open()
	if err != nil {
		return fmt.Errorf("opening: %w", err)
	}
	defer rc.Close()
	return ew.WriteFile(ctx, file.FileInfo, rc)
}

func (b *Builder) logger() *log.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return log.New(io.Discard)
}

// isMissingRoot reports whether err means a file set root does not exist.
func isMissingRoot(err error) bool {
	var fsErr *FileSetError
	return errors.As(err, &fsErr) && errors.Is(fsErr.Err, fs.ErrNotExist)
}
