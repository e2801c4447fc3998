package gx

import (
	"image/color"
	"testing"
)

var byteSizeTests = []struct {
	format Format
	w, h   int
	out    int
}{
	{FORMAT_I4, 10, 10, 16 * 16 / 2},
	{FORMAT_RGB5A3, 5, 5, 8 * 8 * 2},
	{FORMAT_I4, 8, 8, 32},
	{FORMAT_I8, 8, 4, 32},
	{FORMAT_I8, 9, 5, 16 * 8},
	{FORMAT_IA4, 1, 1, 32},
	{FORMAT_IA8, 4, 4, 32},
	{FORMAT_RGB565, 4, 4, 32},
	{FORMAT_RGBA32, 4, 4, 64},
	{FORMAT_C4, 8, 8, 32},
	{FORMAT_C8, 8, 4, 32},
	{FORMAT_C14X2, 4, 4, 32},
	{FORMAT_CMPR, 8, 8, 32},
	{FORMAT_CMPR, 12, 4, 64},
}

func TestByteSize(t *testing.T) {
	for _, test := range byteSizeTests {
		result, err := ByteSize(test.format, test.w, test.h)
		if err != nil {
			t.Errorf("ByteSize(%v,%d,%d) error: %v", test.format, test.w, test.h, err)
		} else if result != test.out {
			t.Errorf("ByteSize(%v,%d,%d)=%d; expected %d", test.format, test.w, test.h, result, test.out)
		}
	}

	if _, err := ByteSize(Format(0x7), 8, 8); err == nil {
		t.Errorf("ByteSize(0x7) expected error")
	} else if _, ok := err.(*UnsupportedFormatError); !ok {
		t.Errorf("ByteSize(0x7) error %T; expected *UnsupportedFormatError", err)
	}
}

func fill(n int, b byte) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = b
	}
	return data
}

func TestDecodeI8(t *testing.T) {
	img, err := Decode(FORMAT_I8, fill(32, 0x80), 8, 4, nil)
	if err != nil {
		t.Fatal(err)
	}
	expected := color.NRGBA{128, 128, 128, 255}
	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			if c := img.NRGBAAt(x, y); c != expected {
				t.Errorf("pixel(%d,%d)=%v; expected %v", x, y, c, expected)
			}
		}
	}
}

func TestDecodeI8Tiling(t *testing.T) {
	// two 8x4 tiles side by side, texel value is its wire index
	data := make([]byte, 64)
	for i := range data {
		data[i] = byte(i)
	}
	img, err := Decode(FORMAT_I8, data, 16, 4, nil)
	if err != nil {
		t.Fatal(err)
	}
	var tests = []struct {
		x, y int
		out  uint8
	}{
		{0, 0, 0},
		{7, 0, 7},
		{0, 1, 8},
		{8, 0, 32},
		{15, 3, 63},
	}
	for _, test := range tests {
		if c := img.NRGBAAt(test.x, test.y); c.R != test.out {
			t.Errorf("pixel(%d,%d)=%d; expected %d", test.x, test.y, c.R, test.out)
		}
	}
}

func TestDecodeI4PartialTile(t *testing.T) {
	// 2x2 image is stored as one full 8x8 tile
	data := make([]byte, 32)
	data[0] = 0xf0
	data[4] = 0x0f
	img, err := Decode(FORMAT_I4, data, 2, 2, nil)
	if err != nil {
		t.Fatal(err)
	}
	if c := img.NRGBAAt(0, 0); c.R != 255 {
		t.Errorf("pixel(0,0)=%v; expected 255", c.R)
	}
	if c := img.NRGBAAt(1, 0); c.R != 0 {
		t.Errorf("pixel(1,0)=%v; expected 0", c.R)
	}
	if c := img.NRGBAAt(1, 1); c.R != 255 {
		t.Errorf("pixel(1,1)=%v; expected 255", c.R)
	}
}

var colorTests = []struct {
	name string
	conv func(uint16) color.NRGBA
	in   uint16
	out  color.NRGBA
}{
	{"rgb565", colorFromRGB565, 0xffff, color.NRGBA{248, 252, 248, 255}},
	{"rgb565", colorFromRGB565, 0xf800, color.NRGBA{248, 0, 0, 255}},
	{"rgb5a3", colorFromRGB5A3, 0xffff, color.NRGBA{255, 255, 255, 255}},
	{"rgb5a3", colorFromRGB5A3, 0x8000 | 0x1f, color.NRGBA{0, 0, 255, 255}},
	{"rgb5a3", colorFromRGB5A3, 0x7f00, color.NRGBA{255, 0, 0, 255}},
	{"rgb5a3", colorFromRGB5A3, 0x0fff, color.NRGBA{255, 255, 255, 0}},
	{"rgb5a3", colorFromRGB5A3, 0x3000, color.NRGBA{0, 0, 0, 109}},
	{"ia8", colorFromIA8, 0x80ff, color.NRGBA{255, 255, 255, 128}},
}

func TestColorConversion(t *testing.T) {
	for _, test := range colorTests {
		if result := test.conv(test.in); result != test.out {
			t.Errorf("%s(0x%.4x)=%v; expected %v", test.name, test.in, result, test.out)
		}
	}
}

func TestCMPRPaletteOpaque(t *testing.T) {
	p := CMPRPalette(0xffff, 0x0000)

	for i := range p {
		if p[i].A != 255 {
			t.Errorf("entry %d alpha=%d; expected opaque", i, p[i].A)
		}
		for j := i + 1; j < len(p); j++ {
			if p[i] == p[j] {
				t.Errorf("entries %d and %d are equal: %v", i, j, p[i])
			}
		}
	}
	if p[0] != (color.NRGBA{248, 252, 248, 255}) {
		t.Errorf("c0=%v", p[0])
	}
	if p[1] != (color.NRGBA{0, 0, 0, 255}) {
		t.Errorf("c1=%v; expected opaque black", p[1])
	}
	if p[2] != (color.NRGBA{160, 168, 160, 255}) {
		t.Errorf("c2=%v", p[2])
	}
	if p[3] != (color.NRGBA{80, 84, 80, 255}) {
		t.Errorf("c3=%v", p[3])
	}
}

// white to black sub-block: fourth entry is interpolated grey, black is c1
func TestCMPRPaletteFourthEntryInterpolated(t *testing.T) {
	p := CMPRPalette(0xffff, 0x0000)
	black := color.NRGBA{0, 0, 0, 255}
	if p[3] == black {
		t.Errorf("CMPRPalette(0xffff,0)[3]=%v; expected 1:2 interpolant", p[3])
	}
	blacks := 0
	for _, c := range p {
		if c == black {
			blacks++
		}
	}
	if blacks != 1 || p[1] != black {
		t.Errorf("CMPRPalette(0xffff,0)=%v; expected single opaque black at index 1", p)
	}
}

func TestCMPRPaletteTransparent(t *testing.T) {
	for _, c := range [][2]uint16{{0x0000, 0xffff}, {0x1234, 0x1234}} {
		p := CMPRPalette(c[0], c[1])
		if p[3] != (color.NRGBA{}) {
			t.Errorf("CMPRPalette(0x%x,0x%x)[3]=%v; expected transparent", c[0], c[1], p[3])
		}
		if p[2].A != 255 {
			t.Errorf("CMPRPalette(0x%x,0x%x)[2] not opaque", c[0], c[1])
		}
	}
}

func TestDecodeCMPR(t *testing.T) {
	// 8x8 tile: four sub-blocks, top-left uses index pattern 0,1,2,3 on first row
	data := make([]byte, 32)
	for sb := 0; sb < 4; sb++ {
		data[sb*8+0] = 0xff
		data[sb*8+1] = 0xff
	}
	data[4] = 0x1b // 00 01 10 11
	data[8+4] = 0x40
	data[24+7] = 0x03

	img, err := Decode(FORMAT_CMPR, data, 8, 8, nil)
	if err != nil {
		t.Fatal(err)
	}
	p := CMPRPalette(0xffff, 0)
	var tests = []struct {
		x, y int
		out  color.NRGBA
	}{
		{0, 0, p[0]},
		{1, 0, p[1]},
		{2, 0, p[2]},
		{3, 0, p[3]},
		{0, 1, p[0]},
		{4, 0, p[1]},
		{7, 7, p[3]},
		{6, 7, p[0]},
	}
	for _, test := range tests {
		if c := img.NRGBAAt(test.x, test.y); c != test.out {
			t.Errorf("pixel(%d,%d)=%v; expected %v", test.x, test.y, c, test.out)
		}
	}
}

func TestDecodePaletted(t *testing.T) {
	palette, err := DecodePalette(PALETTE_RGB5A3, []byte{0xff, 0xff, 0x80, 0x00})
	if err != nil {
		t.Fatal(err)
	}
	if len(palette) != 2 {
		t.Fatalf("palette size %d; expected 2", len(palette))
	}

	data := make([]byte, 32)
	data[0] = 0x01
	img, err := Decode(FORMAT_C4, data, 8, 8, palette)
	if err != nil {
		t.Fatal(err)
	}
	if c := img.NRGBAAt(0, 0); c != palette[0] {
		t.Errorf("pixel(0,0)=%v; expected %v", c, palette[0])
	}
	if c := img.NRGBAAt(1, 0); c != palette[1] {
		t.Errorf("pixel(1,0)=%v; expected %v", c, palette[1])
	}

	data8 := make([]byte, 32)
	data8[3] = 2
	if _, err := Decode(FORMAT_C8, data8, 8, 4, palette); err == nil {
		t.Errorf("expected error on palette index out of range")
	}
	if _, err := Decode(FORMAT_C8, data8, 8, 4, nil); err == nil {
		t.Errorf("expected error on missing palette")
	}
}

func TestDecodeRGBA32(t *testing.T) {
	data := make([]byte, 64)
	data[0], data[1] = 0x11, 0x22   // A R of texel 0
	data[32], data[33] = 0x33, 0x44 // G B of texel 0
	img, err := Decode(FORMAT_RGBA32, data, 4, 4, nil)
	if err != nil {
		t.Fatal(err)
	}
	if c := img.NRGBAAt(0, 0); c != (color.NRGBA{0x22, 0x33, 0x44, 0x11}) {
		t.Errorf("pixel(0,0)=%v", c)
	}
}

func TestDecodeShortData(t *testing.T) {
	if _, err := Decode(FORMAT_RGB565, make([]byte, 31), 4, 4, nil); err == nil {
		t.Errorf("expected error on short data")
	}
}
