package hsf

import (
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"
)

var lz4FrameMagic = []byte{0x04, 0x22, 0x4d, 0x18}

// IsSceneFile tells if file name looks like hsf container
func IsSceneFile(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".hsf") || strings.HasSuffix(lower, ".hsf.lz4")
}

// Unpack returns raw file bytes, unwrapping lz4 frame when present
func Unpack(data []byte) ([]byte, error) {
	if !bytes.HasPrefix(data, lz4FrameMagic) {
		return data, nil
	}
	raw, err := io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
	if err != nil {
		return nil, errors.Wrapf(err, "lz4 frame")
	}
	return raw, nil
}

func ReadFrom(r io.Reader, opts *Options) (*Scene, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(err, "reading")
	}
	if data, err = Unpack(data); err != nil {
		return nil, err
	}
	return Decode(data, opts)
}

// ReadFile decodes file from disk. File is closed before return.
func ReadFile(path string, opts *Options) (*Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %q", path)
	}
	defer f.Close()

	scene, err := ReadFrom(f, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %q", path)
	}
	return scene, nil
}
