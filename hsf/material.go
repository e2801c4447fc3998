package hsf

import (
	"fmt"

	"github.com/mogaika/hsf_browser/readat"
)

const MATERIAL_SIZE = 0x3C
const ATTRIBUTE_SIZE = 0x84

type Material struct {
	Name                 string
	Unk0                 uint32
	AltFlags             uint16
	VertexMode           uint8
	AmbientColor         [3]uint8
	MaterialColor        [3]uint8
	ShadowColor          [3]uint8
	HiliteScale          float32
	Unk1                 float32
	TransparencyInverted float32
	Unk2                 [2]float32
	ReflectionIntensity  float32
	Unk3                 float32
	Flags                uint32
	TextureCount         uint32
	AttributeIndex       int
}

// Transparency is 0 for opaque material
func (m *Material) Transparency() float32 {
	return m.TransparencyInverted
}

type BlendMode int8

const (
	BLEND_MIX      BlendMode = 0
	BLEND_ADDITIVE BlendMode = 2
)

func (b BlendMode) String() string {
	switch b {
	case BLEND_MIX:
		return "mix"
	case BLEND_ADDITIVE:
		return "additive"
	}
	return fmt.Sprintf("BlendMode(%d)", int8(b))
}

func (b BlendMode) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

type WrapMode int32

const (
	WRAP_CLAMP WrapMode = iota
	WRAP_REPEAT
	WRAP_MIRROR
)

func (w WrapMode) String() string {
	switch w {
	case WRAP_CLAMP:
		return "clamp"
	case WRAP_REPEAT:
		return "repeat"
	case WRAP_MIRROR:
		return "mirror"
	}
	return fmt.Sprintf("WrapMode(%d)", int32(w))
}

func (w WrapMode) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}

// TexAnimTransform is uv scale and offset of texture animation keyframe
type TexAnimTransform struct {
	Scale    [2]float32
	Position [2]float32
}

// Attribute is texture stage of material: which texture, how it wraps and blends
type Attribute struct {
	Name              string
	TexAnimOffset     int
	Unk0              uint16
	Blend             BlendMode
	AlphaFlag         bool
	BlendTextureAlpha float32
	Unk1              uint32
	NBTEnable         float32
	Unk2              [2]float32
	TextureEnable     float32
	Unk3              float32
	TexAnimStart      TexAnimTransform
	TexAnimEnd        TexAnimTransform
	Unk4              float32
	Rotation          [3]float32
	Unk5              [3]float32
	WrapS             WrapMode
	WrapT             WrapMode
	Unk6              [3]uint32
	MipmapMaxLOD      int32
	TextureFlags      uint32
	TextureIndex      int
}

func readName(ctx *ParseContext) (string, error) {
	offset, err := ctx.c.ReadIndex(4)
	if err != nil {
		return "", err
	}
	return ctx.strings.Lookup(offset)
}

func readRGB(c *readat.Cursor) (rgb [3]uint8, err error) {
	raw, err := c.ReadBytes(3)
	if err == nil {
		copy(rgb[:], raw)
	}
	return
}

func readFloats(c *readat.Cursor, dst ...*float32) (err error) {
	for _, f := range dst {
		if *f, err = c.ReadF32(); err != nil {
			return
		}
	}
	return
}

func readMaterial(ctx *ParseContext) (m *Material, err error) {
	c := ctx.c
	m = &Material{}
	if m.Name, err = readName(ctx); err != nil {
		return
	}
	if m.Unk0, err = c.ReadU32(); err != nil {
		return
	}
	if m.AltFlags, err = c.ReadU16(); err != nil {
		return
	}
	if m.VertexMode, err = c.ReadU8(); err != nil {
		return
	}
	for _, rgb := range []*[3]uint8{&m.AmbientColor, &m.MaterialColor, &m.ShadowColor} {
		if *rgb, err = readRGB(c); err != nil {
			return
		}
	}
	if err = readFloats(c, &m.HiliteScale, &m.Unk1, &m.TransparencyInverted,
		&m.Unk2[0], &m.Unk2[1], &m.ReflectionIntensity, &m.Unk3); err != nil {
		return
	}
	if m.Flags, err = c.ReadU32(); err != nil {
		return
	}
	if m.TextureCount, err = c.ReadU32(); err != nil {
		return
	}
	m.AttributeIndex, err = c.ReadIndex(4)
	return
}

func readAttribute(ctx *ParseContext) (a *Attribute, err error) {
	c := ctx.c
	a = &Attribute{}
	if a.Name, err = readName(ctx); err != nil {
		return
	}
	if a.TexAnimOffset, err = c.ReadIndex(4); err != nil {
		return
	}
	if a.Unk0, err = c.ReadU16(); err != nil {
		return
	}
	var blend int8
	if blend, err = c.ReadI8(); err != nil {
		return
	}
	a.Blend = BlendMode(blend)
	var alpha uint8
	if alpha, err = c.ReadU8(); err != nil {
		return
	}
	a.AlphaFlag = alpha != 0
	if a.BlendTextureAlpha, err = c.ReadF32(); err != nil {
		return
	}
	if a.Unk1, err = c.ReadU32(); err != nil {
		return
	}
	if err = readFloats(c, &a.NBTEnable, &a.Unk2[0], &a.Unk2[1], &a.TextureEnable, &a.Unk3,
		&a.TexAnimStart.Scale[0], &a.TexAnimStart.Scale[1], &a.TexAnimStart.Position[0], &a.TexAnimStart.Position[1],
		&a.TexAnimEnd.Scale[0], &a.TexAnimEnd.Scale[1], &a.TexAnimEnd.Position[0], &a.TexAnimEnd.Position[1],
		&a.Unk4, &a.Rotation[0], &a.Rotation[1], &a.Rotation[2], &a.Unk5[0], &a.Unk5[1], &a.Unk5[2]); err != nil {
		return
	}
	var wrap int32
	if wrap, err = c.ReadI32(); err != nil {
		return
	}
	a.WrapS = WrapMode(wrap)
	if wrap, err = c.ReadI32(); err != nil {
		return
	}
	a.WrapT = WrapMode(wrap)
	for i := range a.Unk6 {
		if a.Unk6[i], err = c.ReadU32(); err != nil {
			return
		}
	}
	if a.MipmapMaxLOD, err = c.ReadI32(); err != nil {
		return
	}
	if a.TextureFlags, err = c.ReadU32(); err != nil {
		return
	}
	a.TextureIndex, err = c.ReadIndex(4)
	return
}

// readRecords reads fixed stride array of section
func readRecords[T any](ctx *ParseContext, id SectionId, size int, read func(ctx *ParseContext) (T, error)) ([]T, error) {
	section := ctx.Directory.Section(id)
	log := ctx.log.Section(id.String())
	if err := ctx.c.Fits(int(section.Offset), int64(section.Count), size); err != nil {
		return nil, wrapError(err, id, -1, int(section.Offset))
	}
	result := make([]T, section.Count)
	for i := range result {
		start := int(section.Offset) + i*size
		if err := ctx.c.Seek(start); err != nil {
			return nil, wrapError(err, id, i, start)
		}
		item, err := read(ctx)
		if err != nil {
			return nil, wrapError(err, id, i, start)
		}
		log.Printf("%d at 0x%x: %+v", i, start, item)
		result[i] = item
	}
	return result, nil
}

func readMaterials(ctx *ParseContext) ([]*Material, error) {
	return readRecords(ctx, SECTION_MATERIALS, MATERIAL_SIZE, readMaterial)
}

func readAttributes(ctx *ParseContext) ([]*Attribute, error) {
	return readRecords(ctx, SECTION_ATTRIBUTES, ATTRIBUTE_SIZE, readAttribute)
}
