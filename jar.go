package archiver

import (
	"bytes"
	"io"
	"slices"
	"strings"
)

func init() {
	RegisterFormat(Jar{})
}

// MetaInfDirectory is the metadata directory every JAR file carries.
const MetaInfDirectory = "META-INF/"

// ManifestPath is the location of the manifest within a JAR file.
const ManifestPath = MetaInfDirectory + "MANIFEST.MF"

// Jar writes Java archives. A JAR is a zip file that always
// contains a META-INF/ directory entry, whether or not any
// registered file lives under it.
type Jar struct {
	Zip

	// Manifest, if set, is written to META-INF/MANIFEST.MF
	// unless a file set already supplies that file.
	Manifest *Manifest
}

func (Jar) Name() string { return ".jar" }

func (j Jar) Match(filename string) (MatchResult, error) {
	var mr MatchResult
	mr.ByName = strings.HasSuffix(strings.ToLower(filename), j.Name())
	return mr, nil
}

func (j Jar) FixedEntries() ([]Directory, []File) {
	dirs := []Directory{{Name: MetaInfDirectory}}
	if j.Manifest == nil {
		return dirs, nil
	}
	body := j.Manifest.Bytes()
	// the builder dates the manifest like the newest registered file
	return dirs, []File{{
		FileInfo: FileInfo{
			RelativePath: ManifestPath,
			Size:         int64(len(body)),
		},
		Open: func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(body)), nil },
	}}
}

// Manifest holds the main section of a JAR manifest.
type Manifest struct {
	// Attributes of the main section, by name. Manifest-Version
	// defaults to "1.0" if absent.
	Attributes map[string]string
}

// Bytes encodes the manifest. Manifest-Version comes first and
// the remaining attributes follow sorted by name, so the output
// is the same for equal manifests. Lines are wrapped at 72 bytes
// with continuation lines starting with a space.
func (m Manifest) Bytes() []byte {
	version := m.Attributes["Manifest-Version"]
	if version == "" {
		version = "1.0"
	}

	var buf bytes.Buffer
	writeManifestLine(&buf, "Manifest-Version: "+version)
	names := make([]string, 0, len(m.Attributes))
	for name := range m.Attributes {
		if name != "Manifest-Version" {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	for _, name := range names {
		writeManifestLine(&buf, name+": "+m.Attributes[name])
	}
	buf.WriteString("\r\n")
	return buf.Bytes()
}

func writeManifestLine(buf *bytes.Buffer, line string) {
	const maxLine = 72
	width := maxLine
	for len(line) > width {
		cut := width
		// do not split a multi-byte character
		for cut > 0 && !utf8Start(line[cut]) {
			cut--
		}
		if cut == 0 {
			// not UTF-8; split on the byte limit
			cut = width
		}
		buf.WriteString(line[:cut])
		buf.WriteString("\r\n ")
		line = line[cut:]
		width = maxLine - 1
	}
	buf.WriteString(line)
	buf.WriteString("\r\n")
}

// utf8Start reports whether b can begin a UTF-8 encoded character.
func utf8Start(b byte) bool { return b&0xC0 != 0x80 }

// Interface guards
var (
	_ ArchiveFormat = (*Jar)(nil)
	_ Lister        = (*Jar)(nil)
)
