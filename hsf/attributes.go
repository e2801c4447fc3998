package hsf

import (
	"github.com/mogaika/hsf_browser/readat"
)

const GROUP_HEADER_SIZE = 12

// Group is named array of vertex attributes (positions, uvs...).
// Mesh nodes refer groups by index.
type Group[T any] struct {
	Name  string
	Items []T
}

type groupHeader struct {
	NameOffset int
	Count      int
	DataOffset int
}

// readGroupHeaders reads header array of attribute section.
// Returned base is position right after headers, data offsets are relative to it.
func readGroupHeaders(ctx *ParseContext, id SectionId) ([]groupHeader, int, error) {
	section := ctx.Directory.Section(id)
	c := ctx.c
	if err := c.Seek(int(section.Offset)); err != nil {
		return nil, 0, wrapError(err, id, -1, int(section.Offset))
	}

	if err := c.Fits(int(section.Offset), int64(section.Count), GROUP_HEADER_SIZE); err != nil {
		return nil, 0, wrapError(err, id, -1, int(section.Offset))
	}
	headers := make([]groupHeader, section.Count)
	for i := range headers {
		offset := c.Tell()
		var err error
		var v [3]int32
		for j := range v {
			if v[j], err = c.ReadI32(); err != nil {
				return nil, 0, wrapError(err, id, i, offset)
			}
		}
		headers[i] = groupHeader{NameOffset: int(v[0]), Count: int(v[1]), DataOffset: int(v[2])}
		if headers[i].Count < 0 {
			return nil, 0, newError(KindOutOfBounds, id, i, offset, "negative item count %d", headers[i].Count)
		}
	}
	return headers, c.Tell(), nil
}

// readGroups reads every group of section with fixed size items
func readGroups[T any](ctx *ParseContext, id SectionId, itemSize int, readItem func(c *readat.Cursor) (T, error)) ([]*Group[T], error) {
	headers, base, err := readGroupHeaders(ctx, id)
	if err != nil {
		return nil, err
	}
	log := ctx.log.Section(id.String())

	groups := make([]*Group[T], len(headers))
	for i, h := range headers {
		g, err := readGroup(ctx, id, i, h, base, itemSize, readItem)
		if err != nil {
			return nil, err
		}
		log.Printf("group %d %q: %d items at 0x%x", i, g.Name, len(g.Items), base+h.DataOffset)
		groups[i] = g
	}
	return groups, nil
}

func readGroup[T any](ctx *ParseContext, id SectionId, index int, h groupHeader, base int, itemSize int, readItem func(c *readat.Cursor) (T, error)) (*Group[T], error) {
	name, err := ctx.strings.Lookup(h.NameOffset)
	if err != nil {
		return nil, err
	}
	c := ctx.c
	start := base + h.DataOffset
	if err := c.Fits(start, int64(h.Count), itemSize); err != nil {
		return nil, wrapError(err, id, index, start)
	}
	if err := c.Seek(start); err != nil {
		return nil, wrapError(err, id, index, start)
	}

	g := &Group[T]{Name: name, Items: make([]T, h.Count)}
	for i := range g.Items {
		if g.Items[i], err = readItem(c); err != nil {
			return nil, wrapError(err, id, index, c.Tell())
		}
	}
	return g, nil
}

func readPosition(c *readat.Cursor) ([3]float32, error) {
	return c.ReadVec3()
}

func readUV(c *readat.Cursor) ([2]float32, error) {
	return c.ReadVec2()
}

func readColor(c *readat.Cursor) (color [4]float32, err error) {
	raw, err := c.ReadBytes(4)
	if err != nil {
		return color, err
	}
	for i, b := range raw {
		color[i] = float32(b) / 255
	}
	return color, nil
}

func readNormalFloat(c *readat.Cursor) ([3]float32, error) {
	return c.ReadVec3()
}

func readNormalByte(c *readat.Cursor) (n [3]float32, err error) {
	for i := range n {
		var v int8
		if v, err = c.ReadI8(); err != nil {
			return
		}
		n[i] = float32(v) / 127
	}
	return
}

type NormalMode int

const (
	// float for skinned meshes, signed bytes for static
	NORMALS_AUTO NormalMode = iota
	NORMALS_BYTE
	NORMALS_FLOAT
)

func ParseNormalMode(s string) (NormalMode, bool) {
	switch s {
	case "", "auto":
		return NORMALS_AUTO, true
	case "byte":
		return NORMALS_BYTE, true
	case "float":
		return NORMALS_FLOAT, true
	}
	return NORMALS_AUTO, false
}

type normalKey struct {
	index   int
	isFloat bool
}

// normalTable defers decoding of normal groups until node tells how to read them
type normalTable struct {
	headers []groupHeader
	base    int
	cache   map[normalKey]*Group[[3]float32]
}

func readNormalTable(ctx *ParseContext) (*normalTable, error) {
	headers, base, err := readGroupHeaders(ctx, SECTION_NORMALS)
	if err != nil {
		return nil, err
	}
	return &normalTable{
		headers: headers,
		base:    base,
		cache:   make(map[normalKey]*Group[[3]float32]),
	}, nil
}

func (nt *normalTable) group(ctx *ParseContext, index int, isFloat bool) (*Group[[3]float32], error) {
	key := normalKey{index: index, isFloat: isFloat}
	if g, ok := nt.cache[key]; ok {
		return g, nil
	}
	reader, size := readNormalByte, 3
	if isFloat {
		reader, size = readNormalFloat, 12
	}
	g, err := readGroup(ctx, SECTION_NORMALS, index, nt.headers[index], nt.base, size, reader)
	if err != nil {
		return nil, err
	}
	ctx.log.Section(SECTION_NORMALS.String()).Printf("group %d %q: %d items (float=%v)", index, g.Name, len(g.Items), isFloat)
	nt.cache[key] = g
	return g, nil
}
