package archiver

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"testing"
)

func TestFileSetErrorString(t *testing.T) {
	tests := []struct {
		instance *FileSetError
		expected string
	}{
		{instance: &FileSetError{Root: "build/classes", Err: fs.ErrNotExist}, expected: "file set build/classes: file does not exist"},
		{instance: &FileSetError{Root: "a.txt", Err: ErrNotDirectory}, expected: "file set a.txt: is a file and must be a directory"},
	}

	for i, test := range tests {
		t.Run(fmt.Sprintf("Case %d", i), func(t *testing.T) {
			if test.expected != test.instance.Error() {
				t.Fatalf("Expected '%s', but got '%s'", test.expected, test.instance.Error())
			}
			if !errors.Is(test.instance, test.instance.Err) {
				t.Fatalf("Expected the error to unwrap to %v", test.instance.Err)
			}
		})
	}
}

func TestIsMissingRoot(t *testing.T) {
	tests := []struct {
		instance error
		expected bool
	}{
		{instance: nil, expected: false},
		{instance: os.ErrNotExist, expected: false},
		{instance: errors.New("another error"), expected: false},
		{instance: &FileSetError{Root: "x", Err: ErrNotDirectory}, expected: false},
		{instance: &FileSetError{Root: "x", Err: fs.ErrNotExist}, expected: true},
		{instance: fmt.Errorf("wrapped: %w", &FileSetError{Root: "x", Err: &fs.PathError{Op: "stat", Path: "x", Err: fs.ErrNotExist}}), expected: true},
	}

	for i, test := range tests {
		t.Run(fmt.Sprintf("Case %d", i), func(t *testing.T) {
			actual := isMissingRoot(test.instance)
			if actual != test.expected {
				t.Fatalf("Expected '%v', but got '%v'", test.expected, actual)
			}
		})
	}
}
