package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/mogaika/hsf_browser/hsf"
	"github.com/mogaika/hsf_browser/imgexport"
)

const DefaultSettingsFile = "hsf_browser.yaml"

// Settings is content of yaml settings file. Flags override it.
type Settings struct {
	Addr         string   `yaml:"addr"`
	Dir          string   `yaml:"dir"`
	Encoding     string   `yaml:"encoding"`
	Normals      string   `yaml:"normals"`
	Workers      int      `yaml:"workers"`
	Output       string   `yaml:"output"`
	ImageFormats []string `yaml:"image_formats"`
	GLTF         bool     `yaml:"gltf"`
	Catalog      string   `yaml:"catalog"`
	Verbose      bool     `yaml:"verbose"`
}

// Flags holds command line values, zero value means not set
type Flags struct {
	Addr         string
	Dir          string
	Encoding     string
	Normals      string
	Workers      int
	Output       string
	ImageFormats []string
	GLTF         bool
	Catalog      string
	Verbose      bool
}

// Load reads settings file. Missing file is not an error when it is
// default one, empty settings are returned then.
func Load(path string) (Settings, error) {
	var s Settings
	if path == "" {
		path = DefaultSettingsFile
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && path == DefaultSettingsFile {
			return s, nil
		}
		return s, errors.Wrapf(err, "reading settings %q", path)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, errors.Wrapf(err, "parsing settings %q", path)
	}
	return s, nil
}

// Resolve applies flags over settings and fills defaults
func (s *Settings) Resolve(flags Flags) error {
	if flags.Addr != "" {
		s.Addr = flags.Addr
	}
	if flags.Dir != "" {
		s.Dir = flags.Dir
	}
	if flags.Encoding != "" {
		s.Encoding = flags.Encoding
	}
	if flags.Normals != "" {
		s.Normals = flags.Normals
	}
	if flags.Workers > 0 {
		s.Workers = flags.Workers
	}
	if flags.Output != "" {
		s.Output = flags.Output
	}
	if len(flags.ImageFormats) != 0 {
		s.ImageFormats = flags.ImageFormats
	}
	if flags.Catalog != "" {
		s.Catalog = flags.Catalog
	}
	s.GLTF = s.GLTF || flags.GLTF
	s.Verbose = s.Verbose || flags.Verbose

	if s.Addr == "" {
		s.Addr = ":8000"
	}
	if s.Dir == "" {
		s.Dir = "."
	}
	if s.Encoding == "" {
		s.Encoding = DefaultEncoding
	}
	if s.Workers <= 0 {
		s.Workers = runtime.NumCPU()
	}
	if s.Output == "" {
		s.Output = filepath.Join(s.Dir, "export")
	}
	if len(s.ImageFormats) == 0 {
		s.ImageFormats = []string{"png"}
	}

	if _, err := s.NormalMode(); err != nil {
		return err
	}
	if _, err := s.Formats(); err != nil {
		return err
	}
	return SetEncoding(s.Encoding)
}

func (s *Settings) NormalMode() (hsf.NormalMode, error) {
	mode, ok := hsf.ParseNormalMode(s.Normals)
	if !ok {
		return mode, errors.Errorf("unknown normals mode %q, expected auto, byte or float", s.Normals)
	}
	return mode, nil
}

func (s *Settings) Formats() ([]imgexport.Format, error) {
	return imgexport.ParseFormats(s.ImageFormats)
}

// DecodeOptions builds options of hsf decoder, log is used only when verbose
func (s *Settings) DecodeOptions() *hsf.Options {
	mode, _ := s.NormalMode()
	opts := &hsf.Options{
		Decoder: GetDecoder(),
		Normals: mode,
	}
	if s.Verbose {
		opts.Log = os.Stderr
	}
	return opts
}
