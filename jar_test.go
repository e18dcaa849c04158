package archiver

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestManifestBytes(t *testing.T) {
	long := "org.savantbuild.io.jar.SomeVeryLongMainClassNameThatDoesNotFitOnOneManifestLine"
	m := Manifest{Attributes: map[string]string{
		"Main-Class": long,
		"Created-By": "savant",
	}}
	got := string(m.Bytes())

	lines := strings.Split(got, "\r\n")
	if lines[0] != "Manifest-Version: 1.0" {
		t.Errorf("expected the version first but got %q", lines[0])
	}
	if lines[1] != "Created-By: savant" {
		t.Errorf("expected attributes sorted by name but got %q", lines[1])
	}
	for i, line := range lines {
		if len(line) > 72 {
			t.Errorf("line %d is %d bytes long", i, len(line))
		}
	}
	if !strings.HasSuffix(got, "\r\n\r\n") {
		t.Errorf("expected the main section to end with a blank line: %q", got)
	}

	// unwrapping continuation lines restores the attribute
	unwrapped := strings.ReplaceAll(got, "\r\n ", "")
	if !strings.Contains(unwrapped, "Main-Class: "+long+"\r\n") {
		t.Errorf("wrapped attribute does not unwrap to the original: %q", got)
	}
}

func TestManifestDoesNotSplitCharacters(t *testing.T) {
	value := strings.Repeat("é", 60)
	got := string(Manifest{Attributes: map[string]string{"Implementation-Title": value}}.Bytes())
	for _, line := range strings.Split(got, "\r\n") {
		if !validUTF8(line) {
			t.Errorf("line is not valid UTF-8: %q", line)
		}
	}
	if !strings.Contains(strings.ReplaceAll(got, "\r\n ", ""), value) {
		t.Errorf("value was not preserved: %q", got)
	}
}

func TestManifestInvalidUTF8(t *testing.T) {
	value := strings.Repeat("\x80", 80)
	got := string(Manifest{Attributes: map[string]string{"X": value}}.Bytes())
	for i, line := range strings.Split(got, "\r\n") {
		if len(line) > 72 {
			t.Errorf("line %d is %d bytes long", i, len(line))
		}
	}
	if !strings.Contains(strings.ReplaceAll(got, "\r\n ", ""), "X: "+value+"\r\n") {
		t.Errorf("value was not preserved: %q", got)
	}
}

func validUTF8(s string) bool { return strings.ToValidUTF8(s, "�") == s }

func TestJarManifest(t *testing.T) {
	root := makeTree(t, t.TempDir(), map[string]string{"com/example/Main.class": "cafebabe"})
	out := filepath.Join(t.TempDir(), "app.jar")

	jar := Jar{Manifest: &Manifest{Attributes: map[string]string{"Main-Class": "com.example.Main"}}}
	count, err := NewBuilder(out, jar).FileSet(root).Build(context.Background())
	if err != nil {
		t.Fatalf("building: %v", err)
	}
	expect := []string{"META-INF/", "com/", "com/example/", "META-INF/MANIFEST.MF", "com/example/Main.class"}
	names := zipNames(t, out)
	if count != len(expect) || len(names) != len(expect) {
		t.Fatalf("expected entries %v but got %v (count %d)", expect, names, count)
	}
	for i := range expect {
		if names[i] != expect[i] {
			t.Errorf("entry %d: expected %s but got %s", i, expect[i], names[i])
		}
	}
	_, data := readZipEntry(t, out, ManifestPath)
	if !strings.Contains(string(data), "Main-Class: com.example.Main\r\n") {
		t.Errorf("unexpected manifest %q", data)
	}
}

func TestJarManifestIsReproducible(t *testing.T) {
	root := makeTree(t, t.TempDir(), map[string]string{"com/example/Main.class": "cafebabe"})
	mtime := time.Date(2020, 5, 17, 10, 30, 0, 0, time.UTC)
	jar := Jar{Manifest: &Manifest{Attributes: map[string]string{"Main-Class": "com.example.Main"}}}

	var outputs [][]byte
	for i := 0; i < 2; i++ {
		// reading the class file may move its access time
		if err := os.Chtimes(filepath.Join(root, "com", "example", "Main.class"), mtime, mtime); err != nil {
			t.Fatal(err)
		}
		out := filepath.Join(t.TempDir(), "app.jar")
		if _, err := NewBuilder(out, jar).FileSet(root).Build(context.Background()); err != nil {
			t.Fatalf("build %d: %v", i, err)
		}
		data, err := os.ReadFile(out)
		if err != nil {
			t.Fatal(err)
		}
		outputs = append(outputs, data)

		manifest, _ := readZipEntry(t, out, ManifestPath)
		if !manifest.Modified.Equal(mtime) {
			t.Errorf("build %d: expected the manifest dated %v but got %v", i, mtime, manifest.Modified)
		}
	}
	if !bytes.Equal(outputs[0], outputs[1]) {
		t.Error("expected identical archives from identical inputs")
	}
}

func TestJarKeepsSuppliedManifest(t *testing.T) {
	root := makeTree(t, t.TempDir(), map[string]string{
		"META-INF/MANIFEST.MF": "Manifest-Version: 1.0\r\nCustom: yes\r\n\r\n",
	})
	out := filepath.Join(t.TempDir(), "app.jar")

	jar := Jar{Manifest: &Manifest{}}
	count, err := NewBuilder(out, jar).FileSet(root).Build(context.Background())
	if err != nil {
		t.Fatalf("building: %v", err)
	}
	if count != 2 {
		t.Errorf("expected META-INF/ and one manifest but got %d entries", count)
	}
	_, data := readZipEntry(t, out, ManifestPath)
	if !strings.Contains(string(data), "Custom: yes") {
		t.Errorf("expected the supplied manifest to be kept but got %q", data)
	}
}
