package config

import (
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
)

const DefaultEncoding = "utf-8"

var currentEncodingName = DefaultEncoding

// currentEncoding nil means strict utf-8
var currentEncoding encoding.Encoding

func findEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(name) {
	case "", "utf-8", "utf8":
		return nil, nil
	case "shift-jis", "shift_jis", "sjis":
		return japanese.ShiftJIS, nil
	case "euc-jp":
		return japanese.EUCJP, nil
	case "utf-16be":
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), nil
	}
	for _, enc := range charmap.All {
		if cm, ok := enc.(*charmap.Charmap); ok {
			if strings.EqualFold(cm.String(), name) {
				return cm, nil
			}
		}
	}
	return nil, errors.Errorf("Failed to find encoding %q", name)
}

func SetEncoding(name string) error {
	enc, err := findEncoding(name)
	if err != nil {
		return err
	}
	if name == "" {
		name = DefaultEncoding
	}
	currentEncodingName = name
	currentEncoding = enc
	return nil
}

func ListEncodings() []string {
	list := []string{DefaultEncoding, "shift-jis", "euc-jp", "utf-16be"}
	for _, enc := range charmap.All {
		if cm, ok := enc.(*charmap.Charmap); ok {
			list = append(list, cm.String())
		}
	}
	return list
}

func GetEncodingName() string {
	return currentEncodingName
}

// GetDecoder returns decoder of selected string encoding, nil for utf-8
func GetDecoder() *encoding.Decoder {
	if currentEncoding == nil {
		return nil
	}
	return currentEncoding.NewDecoder()
}
