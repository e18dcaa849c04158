package archiver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/text/unicode/norm"
)

// ErrNotDirectory is returned when the root of a file set
// exists but is not a directory.
var ErrNotDirectory = fmt.Errorf("is a file and must be a directory")

// FileSetError reports a file set whose root cannot be used.
// Use errors.Is with fs.ErrNotExist or ErrNotDirectory to
// tell the cases apart.
type FileSetError struct {
	Root string
	Err  error
}

func (e *FileSetError) Error() string {
	return fmt.Sprintf("file set %s: %v", e.Root, e.Err)
}

func (e *FileSetError) Unwrap() error { return e.Err }

// FileSet selects files beneath a root directory.
//
// The zero values of everything but Root select every regular
// file under Root, placed at the top of the archive with the
// permissions they have on disk.
type FileSet struct {
	// Root is the directory on disk the set is rooted at.
	Root string

	// Prefix optionally places the selected files under a
	// directory inside the archive, e.g. "lib/".
	Prefix string

	// Includes and Excludes are doublestar patterns matched
	// against the slash-separated path relative to Root. If
	// Includes is empty, every file is included. Excludes
	// take precedence over Includes.
	Includes []string
	Excludes []string

	// Mode, if set, replaces the permission bits of every
	// selected file.
	Mode fs.FileMode
}

// Check verifies that the root of the set exists and is a
// directory, and that its patterns are well formed.
func (set FileSet) Check() error {
	info, err := os.Stat(set.Root)
	if errors.Is(err, fs.ErrNotExist) {
		return &FileSetError{Root: set.Root, Err: fs.ErrNotExist}
	}
	if err != nil {
		return &FileSetError{Root: set.Root, Err: err}
	}
	if !info.IsDir() {
		return &FileSetError{Root: set.Root, Err: ErrNotDirectory}
	}
	for _, pattern := range slices.Concat(set.Includes, set.Excludes) {
		if !doublestar.ValidatePattern(pattern) {
			return &FileSetError{Root: set.Root, Err: fmt.Errorf("pattern %q: %w", pattern, doublestar.ErrBadPattern)}
		}
	}
	return nil
}

// Expand walks the set and returns the selected files along with
// every directory that is an ancestor of one of them within the
// archive. Both slices are sorted, so the result does not depend
// on the order in which the file system lists directories.
//
// A root that is a symbolic link is resolved first. Links beneath
// the root are followed for files only, and links whose target
// does not exist are skipped.
func (set FileSet) Expand(ctx context.Context) ([]File, []Directory, error) {
	if err := set.Check(); err != nil {
		return nil, nil, err
	}
	prefix := DirectoryName(set.Prefix)

	// WalkDir does not descend into a root that is a symbolic link
	root, err := filepath.EvalSymlinks(set.Root)
	if err != nil {
		return nil, nil, &FileSetError{Root: set.Root, Err: err}
	}

	var files []File
	err = filepath.WalkDir(root, func(fpath string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walking to %s: %w", fpath, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		// symbolic links are followed for files; links to
		// directories are not descended into
		info, err := os.Stat(fpath)
		if d.Type()&fs.ModeSymlink != 0 && errors.Is(err, fs.ErrNotExist) {
			// dangling link
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s: stat: %w", fpath, err)
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, fpath)
		if err != nil {
			return fmt.Errorf("%s: making relative path: %w", fpath, err)
		}
		name := norm.NFC.String(filepath.ToSlash(rel))
		if !set.selects(name) {
			return nil
		}

		mode := set.Mode.Perm()
		if mode == 0 {
			mode = info.Mode().Perm()
		}
		files = append(files, diskFile(FileInfo{
			RelativePath: prefix + name,
			Origin:       fpath,
			Size:         info.Size(),
			ModTime:      info.ModTime(),
			AccessTime:   accessTime(info),
			Mode:         mode,
		}))
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	slices.SortFunc(files, func(a, b File) int { return Compare(a.FileInfo, b.FileInfo) })

	seen := make(map[string]struct{})
	var dirs []Directory
	for _, file := range files {
		for _, dir := range Ancestors(file.RelativePath) {
			if _, ok := seen[dir.Name]; ok {
				continue
			}
			seen[dir.Name] = struct{}{}
			dirs = append(dirs, dir)
		}
	}
	slices.SortFunc(dirs, CompareDirectories)

	return files, dirs, nil
}

// selects reports whether the relative path name is chosen
// by the set's include and exclude patterns.
func (set FileSet) selects(name string) bool {
	if len(set.Includes) > 0 && !matchAny(set.Includes, name) {
		return false
	}
	return !matchAny(set.Excludes, name)
}

func matchAny(patterns []string, name string) bool {
	for _, pattern := range patterns {
		// patterns were validated by Check
		if ok, _ := doublestar.Match(pattern, name); ok {
			return true
		}
	}
	return false
}
