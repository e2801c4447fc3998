package gx

import (
	"fmt"
)

// Texture formats as numbered by GX hardware (GX_TF_*)
type Format int

const (
	FORMAT_I4     Format = 0x0
	FORMAT_I8     Format = 0x1
	FORMAT_IA4    Format = 0x2
	FORMAT_IA8    Format = 0x3
	FORMAT_RGB565 Format = 0x4
	FORMAT_RGB5A3 Format = 0x5
	FORMAT_RGBA32 Format = 0x6
	FORMAT_C4     Format = 0x8
	FORMAT_C8     Format = 0x9
	FORMAT_C14X2  Format = 0xA
	FORMAT_CMPR   Format = 0xE
)

// Palette (TLUT) formats as numbered by GX hardware (GX_TL_*)
type PaletteFormat int

const (
	PALETTE_IA8    PaletteFormat = 0
	PALETTE_RGB565 PaletteFormat = 1
	PALETTE_RGB5A3 PaletteFormat = 2
)

type UnsupportedFormatError struct {
	What  string
	Value int
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported %s 0x%x", e.What, e.Value)
}

var formatNames = map[Format]string{
	FORMAT_I4:     "I4",
	FORMAT_I8:     "I8",
	FORMAT_IA4:    "IA4",
	FORMAT_IA8:    "IA8",
	FORMAT_RGB565: "RGB565",
	FORMAT_RGB5A3: "RGB5A3",
	FORMAT_RGBA32: "RGBA32",
	FORMAT_C4:     "C4",
	FORMAT_C8:     "C8",
	FORMAT_C14X2:  "C14X2",
	FORMAT_CMPR:   "CMPR",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Format(0x%x)", int(f))
}

func (f Format) Valid() bool {
	_, ok := formatNames[f]
	return ok
}

func (f Format) Paletted() bool {
	return f == FORMAT_C4 || f == FORMAT_C8 || f == FORMAT_C14X2
}

// BlockSize returns tile footprint in pixels
func (f Format) BlockSize() (w, h int, err error) {
	switch f {
	case FORMAT_I4, FORMAT_C4, FORMAT_CMPR:
		return 8, 8, nil
	case FORMAT_I8, FORMAT_IA4, FORMAT_C8:
		return 8, 4, nil
	case FORMAT_IA8, FORMAT_RGB565, FORMAT_RGB5A3, FORMAT_RGBA32, FORMAT_C14X2:
		return 4, 4, nil
	}
	return 0, 0, &UnsupportedFormatError{What: "texture format", Value: int(f)}
}

func (pf PaletteFormat) String() string {
	switch pf {
	case PALETTE_IA8:
		return "IA8"
	case PALETTE_RGB565:
		return "RGB565"
	case PALETTE_RGB5A3:
		return "RGB5A3"
	}
	return fmt.Sprintf("PaletteFormat(0x%x)", int(pf))
}

func addPadding(v, align int) int {
	if rem := v % align; rem != 0 {
		return v + align - rem
	}
	return v
}

// ByteSize returns encoded size of texture, dimensions rounded up to block footprint
func ByteSize(f Format, width, height int) (int, error) {
	switch f {
	case FORMAT_I4, FORMAT_C4, FORMAT_CMPR:
		return addPadding(width, 8) * addPadding(height, 8) / 2, nil
	case FORMAT_I8, FORMAT_IA4, FORMAT_C8:
		return addPadding(width, 8) * addPadding(height, 4), nil
	case FORMAT_IA8, FORMAT_RGB565, FORMAT_RGB5A3, FORMAT_C14X2:
		return addPadding(width, 4) * addPadding(height, 4) * 2, nil
	case FORMAT_RGBA32:
		return addPadding(width, 4) * addPadding(height, 4) * 4, nil
	}
	return 0, &UnsupportedFormatError{What: "texture format", Value: int(f)}
}
