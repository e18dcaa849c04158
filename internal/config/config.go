// Package config reads archive build descriptions from TOML files.
//
// A description names the output archive and the content that goes
// into it:
//
//	output = "build/jars/app.jar"
//
//	[[fileset]]
//	root = "build/classes/main"
//
//	[[fileset]]
//	root = "src/main/resources"
//	optional = true
//	excludes = ["**/*.orig"]
//
//	[[directory]]
//	name = "META-INF/services"
//	mode = 0o755
//
//	[manifest]
//	Main-Class = "org.example.Main"
//
// Relative paths are resolved against the directory holding the file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/zip"
	"github.com/pelletier/go-toml/v2"

	"github.com/savantbuild/archiver"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config describes one archive build.
type Config struct {
	// Output is the archive file to create.
	Output string `toml:"output"`

	// Format overrides the format implied by the extension of
	// Output, e.g. "jar" or "tar.gz".
	Format string `toml:"format"`

	// Compression is the method for zip and jar file entries:
	// "store", "deflate", "bzip2", "zstd" or "xz". Defaults to
	// "deflate".
	Compression string `toml:"compression"`

	// SelectiveCompression stores already compressed files as-is
	// in zip and jar archives.
	SelectiveCompression bool `toml:"selective_compression"`

	// NumericOwner drops user and group names from tar entries.
	NumericOwner bool `toml:"numeric_owner"`

	FileSets    []FileSet         `toml:"fileset"`
	Directories []Directory       `toml:"directory"`
	Manifest    map[string]string `toml:"manifest"`
}

// FileSet is the description of an archiver.FileSet.
type FileSet struct {
	Root     string   `toml:"root"`
	Prefix   string   `toml:"prefix"`
	Includes []string `toml:"includes"`
	Excludes []string `toml:"excludes"`
	Optional bool     `toml:"optional"`
	Mode     uint32   `toml:"mode"`
}

// Directory is the description of an explicit directory entry.
type Directory struct {
	Name  string `toml:"name"`
	Mode  uint32 `toml:"mode"`
	Owner string `toml:"owner"`
	Group string `toml:"group"`
}

// Load reads and validates the description at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.resolve(filepath.Dir(path))
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a description without validating it. Unknown keys
// are rejected.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("parsing config TOML: %s", strict.String())
		}
		return nil, fmt.Errorf("parsing config TOML: %w", err)
	}
	return &cfg, nil
}

// resolve makes relative paths relative to dir.
func (c *Config) resolve(dir string) {
	if c.Output != "" && !filepath.IsAbs(c.Output) {
		c.Output = filepath.Join(dir, c.Output)
	}
	for i := range c.FileSets {
		if root := c.FileSets[i].Root; root != "" && !filepath.IsAbs(root) {
			c.FileSets[i].Root = filepath.Join(dir, root)
		}
	}
}

// Validate checks the description for mistakes that can be found
// without touching the file system.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Output) == "" {
		return fmt.Errorf("%w: output is required", ErrInvalidConfig)
	}
	if len(c.FileSets) == 0 && len(c.Directories) == 0 {
		return fmt.Errorf("%w: no file sets or directories", ErrInvalidConfig)
	}
	for i, set := range c.FileSets {
		if strings.TrimSpace(set.Root) == "" {
			return fmt.Errorf("%w: fileset %d: root is required", ErrInvalidConfig, i)
		}
		if fs.FileMode(set.Mode)&^fs.ModePerm != 0 {
			return fmt.Errorf("%w: fileset %s: mode %o is not a permission mode", ErrInvalidConfig, set.Root, set.Mode)
		}
	}
	for i, dir := range c.Directories {
		if archiver.DirectoryName(dir.Name) == "" {
			return fmt.Errorf("%w: directory %d: name is required", ErrInvalidConfig, i)
		}
		if fs.FileMode(dir.Mode)&^fs.ModePerm != 0 {
			return fmt.Errorf("%w: directory %s: mode %o is not a permission mode", ErrInvalidConfig, dir.Name, dir.Mode)
		}
	}
	if _, err := c.ArchiveFormat(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// compressionMethods maps the compression names accepted in a
// description to zip methods.
var compressionMethods = map[string]uint16{
	"store":   zip.Store,
	"deflate": zip.Deflate,
	"bzip2":   archiver.ZipMethodBzip2,
	"zstd":    archiver.ZipMethodZstd,
	"xz":      archiver.ZipMethodXz,
}

// ArchiveFormat returns the configured archive format.
func (c *Config) ArchiveFormat() (archiver.ArchiveFormat, error) {
	name := c.Output
	if c.Format != "" {
		name = "archive." + strings.TrimPrefix(c.Format, ".")
	}
	format, err := archiver.Identify(name)
	if err != nil {
		return nil, err
	}

	method := zip.Deflate
	if c.Compression != "" {
		m, ok := compressionMethods[strings.ToLower(c.Compression)]
		if !ok {
			return nil, fmt.Errorf("unknown compression %q", c.Compression)
		}
		method = m
	}

	switch f := format.(type) {
	case archiver.Zip:
		f.Compression = method
		f.SelectiveCompression = c.SelectiveCompression
		return f, nil
	case archiver.Jar:
		f.Compression = method
		f.SelectiveCompression = c.SelectiveCompression
		if c.Manifest != nil {
			f.Manifest = &archiver.Manifest{Attributes: c.Manifest}
		}
		return f, nil
	case archiver.Tar:
		f.NumericUIDGID = c.NumericOwner
		return f, nil
	case archiver.CompressedArchive:
		if tar, ok := f.Archival.(archiver.Tar); ok {
			tar.NumericUIDGID = c.NumericOwner
			f.Archival = tar
		}
		return f, nil
	}
	return format, nil
}

// Apply registers the described content with b, in the order it
// appears in the description.
func (c *Config) Apply(b *archiver.Builder) *archiver.Builder {
	for _, set := range c.FileSets {
		fileSet := archiver.FileSet{
			Root:     set.Root,
			Prefix:   set.Prefix,
			Includes: set.Includes,
			Excludes: set.Excludes,
			Mode:     fs.FileMode(set.Mode),
		}
		if set.Optional {
			b.AddOptionalFileSet(fileSet)
		} else {
			b.AddFileSet(fileSet)
		}
	}
	for _, dir := range c.Directories {
		b.Directory(archiver.Directory{
			Name:  dir.Name,
			Mode:  fs.FileMode(dir.Mode),
			Owner: dir.Owner,
			Group: dir.Group,
		})
	}
	return b
}

// NewBuilder returns a Builder for the described archive with all
// of its content registered.
func (c *Config) NewBuilder(logger *log.Logger) (*archiver.Builder, error) {
	format, err := c.ArchiveFormat()
	if err != nil {
		return nil, err
	}
	b := archiver.NewBuilder(c.Output, format)
	b.Logger = logger
	return c.Apply(b), nil
}
