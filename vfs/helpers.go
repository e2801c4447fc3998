package vfs

import (
	"io"
	"sort"

	"github.com/pkg/errors"
)

func OpenFileAndGetReader(f File) (*io.SectionReader, error) {
	if err := f.Open(); err != nil {
		return nil, errors.Wrapf(err, "cannot open file %q", f.Name())
	}
	r, err := f.Reader()
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "cannot get file %q reader", f.Name())
	}
	return r, nil
}

// ReadAll reads whole file and closes it
func ReadAll(f File) ([]byte, error) {
	r, err := OpenFileAndGetReader(f)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %q", f.Name())
	}
	return data, nil
}

func DirectoryGetFile(d Directory, name string) (File, error) {
	e, err := d.GetElement(name)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open file %q", name)
	}
	if e.IsDirectory() {
		return nil, errors.Errorf("file %q is directory, not a file", name)
	}
	return e.(File), nil
}

// ListFiltered returns sorted names of d accepted by filter
func ListFiltered(d Directory, filter func(name string) bool) ([]string, error) {
	names, err := d.List()
	if err != nil {
		return nil, err
	}
	result := names[:0]
	for _, name := range names {
		if filter(name) {
			result = append(result, name)
		}
	}
	sort.Strings(result)
	return result, nil
}
