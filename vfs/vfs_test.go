package vfs

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func testDir(t *testing.T) *DirectoryDriver {
	t.Helper()
	dir := t.TempDir()
	for name, data := range map[string]string{
		"w02.hsf":     "second",
		"w01.hsf":     "first",
		"readme.txt":  "text",
		"w03.hsf.lz4": "packed",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(data), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0755); err != nil {
		t.Fatal(err)
	}
	return NewDirectoryDriver(dir)
}

func TestListFiltered(t *testing.T) {
	d := testDir(t)
	names, err := ListFiltered(d, func(name string) bool { return strings.HasPrefix(name, "w0") })
	if err != nil {
		t.Fatal(err)
	}
	expect := []string{"w01.hsf", "w02.hsf", "w03.hsf.lz4"}
	if !reflect.DeepEqual(names, expect) {
		t.Errorf("ListFiltered=%v; expected %v", names, expect)
	}
}

func TestReadAll(t *testing.T) {
	d := testDir(t)
	f, err := DirectoryGetFile(d, "w01.hsf")
	if err != nil {
		t.Fatal(err)
	}
	data, err := ReadAll(f)
	if err != nil || string(data) != "first" {
		t.Errorf("ReadAll=%q,%v; expected first", data, err)
	}
	if f.Size() != 5 {
		t.Errorf("Size()=%d; expected 5", f.Size())
	}
	// file is closed after ReadAll and can be opened again
	if _, err := ReadAll(f); err != nil {
		t.Errorf("second ReadAll: %v", err)
	}
}

func TestDirectoryGetFileErrors(t *testing.T) {
	d := testDir(t)
	for _, name := range []string{"sub", "missing.hsf", "../w01.hsf", "..", ""} {
		if _, err := DirectoryGetFile(d, name); err == nil {
			t.Errorf("DirectoryGetFile(%q) expected error", name)
		}
	}
}
