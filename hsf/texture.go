package hsf

import (
	"fmt"
	"image"
	"image/color"

	"github.com/mogaika/hsf_browser/gcn/gx"
)

const TEXTURE_INFO_SIZE = 32
const PALETTE_INFO_SIZE = 16

type TextureInfo struct {
	NameOffset     int
	MaxLOD         uint32
	RawFormat      uint8
	BPP            uint8
	Width          uint16
	Height         uint16
	PaletteEntries uint16
	Tint           uint32
	PaletteIndex   int
	Pad            uint32
	DataOffset     uint32
}

type PaletteInfo struct {
	NameOffset int
	Format     int32
	Count      int32
	DataOffset uint32
}

type Texture struct {
	Index         int
	Name          string
	Width         int
	Height        int
	Format        gx.Format
	PaletteFormat gx.PaletteFormat
	Info          TextureInfo

	// nil when texture failed to decode, Error tells why
	Image *image.NRGBA `json:"-"`
	Error string       `json:",omitempty"`
}

// TextureFormat maps format byte of texture table to GX format.
// Raw 9, 0xA and 0xB are 8 bit indexed with different palette formats,
// indexed textures with 4 bits per pixel are C4.
func TextureFormat(raw uint8, bpp uint8) (f gx.Format, pf gx.PaletteFormat, err error) {
	switch {
	case raw <= 6:
		f = gx.Format(raw)
	case raw == 7:
		f = gx.FORMAT_CMPR
	case raw == 9:
		f, pf = gx.FORMAT_C8, gx.PALETTE_RGB565
	case raw == 0xa:
		f, pf = gx.FORMAT_C8, gx.PALETTE_RGB5A3
	case raw == 0xb:
		f, pf = gx.FORMAT_C8, gx.PALETTE_IA8
	default:
		return 0, 0, &gx.UnsupportedFormatError{What: "texture format", Value: int(raw)}
	}
	if f == gx.FORMAT_C8 && bpp == 4 {
		f = gx.FORMAT_C4
	}
	return f, pf, nil
}

func readTextureInfo(ctx *ParseContext) (ti TextureInfo, err error) {
	c := ctx.c
	if ti.NameOffset, err = c.ReadIndex(4); err != nil {
		return
	}
	if ti.MaxLOD, err = c.ReadU32(); err != nil {
		return
	}
	if ti.RawFormat, err = c.ReadU8(); err != nil {
		return
	}
	if ti.BPP, err = c.ReadU8(); err != nil {
		return
	}
	for _, field := range []*uint16{&ti.Width, &ti.Height, &ti.PaletteEntries} {
		if *field, err = c.ReadU16(); err != nil {
			return
		}
	}
	if ti.Tint, err = c.ReadU32(); err != nil {
		return
	}
	if ti.PaletteIndex, err = c.ReadIndex(4); err != nil {
		return
	}
	if ti.Pad, err = c.ReadU32(); err != nil {
		return
	}
	ti.DataOffset, err = c.ReadU32()
	return
}

func readPaletteInfo(ctx *ParseContext) (pi PaletteInfo, err error) {
	c := ctx.c
	if pi.NameOffset, err = c.ReadIndex(4); err != nil {
		return
	}
	if pi.Format, err = c.ReadI32(); err != nil {
		return
	}
	if pi.Count, err = c.ReadI32(); err != nil {
		return
	}
	pi.DataOffset, err = c.ReadU32()
	return
}

func readPaletteInfos(ctx *ParseContext) ([]PaletteInfo, error) {
	return readRecords(ctx, SECTION_PALETTES, PALETTE_INFO_SIZE, readPaletteInfo)
}

func readTextureInfos(ctx *ParseContext) ([]TextureInfo, error) {
	return readRecords(ctx, SECTION_TEXTURES, TEXTURE_INFO_SIZE, readTextureInfo)
}

type textureTables struct {
	textures    []TextureInfo
	textureData int
	palettes    []PaletteInfo
	paletteData int
}

func (tt *textureTables) palette(ctx *ParseContext, index int, pf gx.PaletteFormat) ([]color.NRGBA, error) {
	if index < 0 || index >= len(tt.palettes) {
		return nil, newError(KindOutOfBounds, SECTION_PALETTES, index, -1, "palette %d of %d", index, len(tt.palettes))
	}
	pi := tt.palettes[index]
	if pi.Count < 0 {
		return nil, newError(KindOutOfBounds, SECTION_PALETTES, index, -1, "negative palette size %d", pi.Count)
	}
	start := tt.paletteData + int(pi.DataOffset)
	var raw []byte
	err := ctx.c.At(start, func() (err error) {
		raw, err = ctx.c.ReadBytes(2 * int(pi.Count))
		return err
	})
	if err != nil {
		return nil, wrapError(err, SECTION_PALETTES, index, start)
	}
	return gx.DecodePalette(pf, raw)
}

// decode builds texture entry. Failed texture keeps its place with nil Image.
func (tt *textureTables) decode(ctx *ParseContext, index int) *Texture {
	ti := tt.textures[index]
	t := &Texture{
		Index:  index,
		Width:  int(ti.Width),
		Height: int(ti.Height),
		Info:   ti,
	}

	name, err := ctx.strings.Lookup(ti.NameOffset)
	if err != nil {
		ctx.report.warn(wrapError(err, SECTION_TEXTURES, index, -1))
		name = fmt.Sprintf("texture_%d", index)
	}
	t.Name = name

	fail := func(err error) *Texture {
		de := wrapError(err, SECTION_TEXTURES, index, -1)
		if de.Item < 0 {
			de.Item = index
		}
		t.Error = de.Error()
		ctx.report.warn(de)
		return t
	}

	if t.Format, t.PaletteFormat, err = TextureFormat(ti.RawFormat, ti.BPP); err != nil {
		return fail(err)
	}

	var palette []color.NRGBA
	if t.Format.Paletted() {
		if palette, err = tt.palette(ctx, ti.PaletteIndex, t.PaletteFormat); err != nil {
			return fail(err)
		}
	}

	size, err := gx.ByteSize(t.Format, t.Width, t.Height)
	if err != nil {
		return fail(err)
	}
	start := tt.textureData + int(ti.DataOffset)
	var data []byte
	err = ctx.c.At(start, func() (err error) {
		data, err = ctx.c.ReadBytes(size)
		return err
	})
	if err != nil {
		return fail(err)
	}

	if t.Image, err = gx.Decode(t.Format, data, t.Width, t.Height, palette); err != nil {
		return fail(err)
	}
	ctx.log.Section(SECTION_TEXTURES.String()).Printf("%d %q %v %dx%d at 0x%x", index, t.Name, t.Format, t.Width, t.Height, start)
	return t
}

func readTextures(ctx *ParseContext) ([]*Texture, error) {
	infos, err := readTextureInfos(ctx)
	if err != nil {
		return nil, err
	}
	texSection := ctx.Directory.Section(SECTION_TEXTURES)
	tt := &textureTables{
		textures:    infos,
		textureData: int(texSection.Offset) + len(infos)*TEXTURE_INFO_SIZE,
	}

	if palSection := ctx.Directory.Section(SECTION_PALETTES); palSection.Present() {
		if tt.palettes, err = readPaletteInfos(ctx); err != nil {
			// paletted textures fail one by one
			ctx.report.setSection(SECTION_PALETTES, SECTION_FAILED, 0, err)
			tt.palettes = nil
		} else {
			ctx.report.setSection(SECTION_PALETTES, SECTION_PARSED, len(tt.palettes), nil)
		}
		tt.paletteData = int(palSection.Offset) + len(tt.palettes)*PALETTE_INFO_SIZE
	} else {
		ctx.report.setSection(SECTION_PALETTES, SECTION_ABSENT, 0, nil)
	}

	textures := make([]*Texture, len(infos))
	for i := range textures {
		textures[i] = tt.decode(ctx, i)
	}
	return textures, nil
}
