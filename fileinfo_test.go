package archiver

import (
	"reflect"
	"testing"
)

func TestDirectoryName(t *testing.T) {
	for i, tc := range []struct {
		input  string
		expect string
	}{
		{input: "", expect: ""},
		{input: "/", expect: ""},
		{input: ".", expect: ""},
		{input: "./", expect: ""},
		{input: "a", expect: "a/"},
		{input: "a/", expect: "a/"},
		{input: "/a/b", expect: "a/b/"},
		{input: "./a/b/", expect: "a/b/"},
		{input: "a//b///", expect: "a/b/"},
		{input: `a\b`, expect: "a/b/"},
		{input: "a/../b", expect: "b/"},
		{input: "../a", expect: "a/"},
		{input: "test/directory", expect: "test/directory/"},
	} {
		actual := DirectoryName(tc.input)
		if actual != tc.expect {
			t.Errorf("Test %d: %q: expected %q but got %q", i, tc.input, tc.expect, actual)
		}
	}
}

func TestAncestors(t *testing.T) {
	for i, tc := range []struct {
		path   string
		expect []string
	}{
		{path: "c.txt", expect: nil},
		{path: "a/c.txt", expect: []string{"a/"}},
		{path: "a/b/c.txt", expect: []string{"a/", "a/b/"}},
		{path: "org/savantbuild/io/Copier.java", expect: []string{"org/", "org/savantbuild/", "org/savantbuild/io/"}},
	} {
		var actual []string
		for _, dir := range Ancestors(tc.path) {
			if !dir.Implicit() {
				t.Errorf("Test %d: ancestor %s should be implicit", i, dir.Name)
			}
			actual = append(actual, dir.Name)
		}
		if !reflect.DeepEqual(actual, tc.expect) {
			t.Errorf("Test %d: %s: expected %v but got %v", i, tc.path, tc.expect, actual)
		}
	}
}

func TestCompareIsOrdinal(t *testing.T) {
	// upper case sorts before lower case in byte order
	for i, tc := range []struct {
		a, b   string
		expect int
	}{
		{a: "META-INF/", b: "com/", expect: -1},
		{a: "a/", b: "a/b/", expect: -1},
		{a: "a-b/", b: "a/", expect: -1},
		{a: "b/", b: "a/", expect: 1},
		{a: "x/", b: "x/", expect: 0},
	} {
		if actual := CompareDirectories(NewDirectory(tc.a), NewDirectory(tc.b)); actual != tc.expect {
			t.Errorf("Test %d: directories %s, %s: expected %d but got %d", i, tc.a, tc.b, tc.expect, actual)
		}
		if actual := Compare(FileInfo{RelativePath: tc.a}, FileInfo{RelativePath: tc.b}); actual != tc.expect {
			t.Errorf("Test %d: files %s, %s: expected %d but got %d", i, tc.a, tc.b, tc.expect, actual)
		}
	}
}

func TestNewDirectoryIsExplicit(t *testing.T) {
	dir := NewDirectory("test/directory")
	if dir.Name != "test/directory/" {
		t.Errorf("expected name test/directory/ but got %s", dir.Name)
	}
	if dir.Implicit() {
		t.Errorf("expected an explicit directory")
	}
}
