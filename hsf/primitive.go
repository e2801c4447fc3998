package hsf

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/mogaika/hsf_browser/readat"
)

const PRIMITIVE_SIZE = 48
const VERTEX_SIZE = 8

type PrimitiveType uint16

const (
	PRIMITIVE_TRIANGLE       PrimitiveType = 2
	PRIMITIVE_QUAD           PrimitiveType = 3
	PRIMITIVE_TRIANGLE_STRIP PrimitiveType = 4
)

func (t PrimitiveType) String() string {
	switch t {
	case PRIMITIVE_TRIANGLE:
		return "triangle"
	case PRIMITIVE_QUAD:
		return "quad"
	case PRIMITIVE_TRIANGLE_STRIP:
		return "strip"
	}
	return fmt.Sprintf("PrimitiveType(%d)", uint16(t))
}

// Vertex holds indexes into position, normal, color and uv groups of mesh. -1 is unused.
type Vertex struct {
	Position int
	Normal   int
	Color    int
	UV       int
}

const (
	VERTEX_POSITION = iota
	VERTEX_NORMAL
	VERTEX_COLOR
	VERTEX_UV
)

var vertexKindNames = [4]string{"position", "normal", "color", "uv"}

func (v *Vertex) index(kind int) *int {
	switch kind {
	case VERTEX_POSITION:
		return &v.Position
	case VERTEX_NORMAL:
		return &v.Normal
	case VERTEX_COLOR:
		return &v.Color
	}
	return &v.UV
}

type Primitive struct {
	Type      PrimitiveType
	Flags     uint16
	Material  int
	FlagValue int
	// triangle: 3 vertices, quad: 4 vertices in file order (0 1 3 2 around),
	// strip: v0 v1 v2 v1 followed by extra vertices
	Vertices []Vertex
	NBT      [3]uint32
}

// StripTriangles expands strip of n vertices into n-2 triangles.
// Every odd triangle has first two vertices swapped to keep winding.
func StripTriangles(n int) [][3]int {
	if n < 3 {
		return nil
	}
	triangles := make([][3]int, 0, n-2)
	for i := 0; i < n-2; i++ {
		if i%2 == 0 {
			triangles = append(triangles, [3]int{i, i + 1, i + 2})
		} else {
			triangles = append(triangles, [3]int{i + 1, i, i + 2})
		}
	}
	return triangles
}

// Triangles returns triangles as indexes into p.Vertices
func (p *Primitive) Triangles() [][3]int {
	switch p.Type {
	case PRIMITIVE_TRIANGLE:
		return [][3]int{{0, 1, 2}}
	case PRIMITIVE_QUAD:
		return [][3]int{{0, 1, 3}, {0, 3, 2}}
	case PRIMITIVE_TRIANGLE_STRIP:
		all := StripTriangles(len(p.Vertices))
		result := all[:0]
		for _, tri := range all {
			// bridging vertex v1 repeated at position 3 produces zero area triangles
			a, b, c := p.Vertices[tri[0]], p.Vertices[tri[1]], p.Vertices[tri[2]]
			if a == b || b == c || a == c {
				continue
			}
			result = append(result, tri)
		}
		return result
	}
	return nil
}

func readVertex(c *readat.Cursor) (v Vertex, err error) {
	for kind := 0; kind < 4; kind++ {
		if *v.index(kind), err = c.ReadIndex(2); err != nil {
			return
		}
	}
	return
}

func readVertices(c *readat.Cursor, count int) ([]Vertex, error) {
	vertices := make([]Vertex, count)
	for i := range vertices {
		var err error
		if vertices[i], err = readVertex(c); err != nil {
			return nil, err
		}
	}
	return vertices, nil
}

// readPrimitive reads one 48 byte record. extraBase is start of strip vertices area.
func readPrimitive(c *readat.Cursor, extraBase int) (p Primitive, err error) {
	var t uint16
	if t, err = c.ReadU16(); err != nil {
		return
	}
	p.Type = PrimitiveType(t)
	if p.Flags, err = c.ReadU16(); err != nil {
		return
	}
	p.Material = int(p.Flags & 0xfff)
	p.FlagValue = int(p.Flags >> 12)

	switch p.Type {
	case PRIMITIVE_TRIANGLE:
		if p.Vertices, err = readVertices(c, 4); err != nil {
			return
		}
		// fourth vertex is dummy
		p.Vertices = p.Vertices[:3]
	case PRIMITIVE_QUAD:
		if p.Vertices, err = readVertices(c, 4); err != nil {
			return
		}
	case PRIMITIVE_TRIANGLE_STRIP:
		var head []Vertex
		if head, err = readVertices(c, 3); err != nil {
			return
		}
		var count, offset uint32
		if count, err = c.ReadU32(); err != nil {
			return
		}
		if offset, err = c.ReadU32(); err != nil {
			return
		}
		if int64(count)*VERTEX_SIZE > int64(c.Len()) {
			err = newError(KindOutOfBounds, SECTION_PRIMITIVES, -1, c.Tell()-8, "strip of %d vertices does not fit file", count)
			return
		}

		p.Vertices = make([]Vertex, 4, 4+int(count))
		p.Vertices[0], p.Vertices[1], p.Vertices[2], p.Vertices[3] = head[0], head[1], head[2], head[1]
		err = c.At(extraBase+int(offset)*VERTEX_SIZE, func() error {
			extra, err := readVertices(c, int(count))
			p.Vertices = append(p.Vertices, extra...)
			return err
		})
		if err != nil {
			return
		}
	default:
		err = newError(KindUnsupportedFormat, SECTION_PRIMITIVES, -1, c.Tell()-4, "unknown primitive type %d", t)
		return
	}

	for i := range p.NBT {
		if p.NBT[i], err = c.ReadU32(); err != nil {
			return
		}
	}
	return
}

func readPrimitiveGroups(ctx *ParseContext) ([]*Group[Primitive], error) {
	headers, base, err := readGroupHeaders(ctx, SECTION_PRIMITIVES)
	if err != nil {
		return nil, err
	}
	total := 0
	for _, h := range headers {
		total += h.Count
	}
	extraBase := base + PRIMITIVE_SIZE*total

	groups := make([]*Group[Primitive], len(headers))
	for i, h := range headers {
		g, err := readGroup(ctx, SECTION_PRIMITIVES, i, h, base, PRIMITIVE_SIZE, func(c *readat.Cursor) (Primitive, error) {
			start := c.Tell()
			p, err := readPrimitive(c, extraBase)
			if err != nil {
				var de *DecodeError
				if !errors.As(err, &de) || de.Kind != KindUnsupportedFormat {
					return p, err
				}
				de.Item = i
				ctx.report.warn(de)
				p = Primitive{Type: p.Type, Flags: p.Flags}
			}
			// strip records keep fixed stride even though vertices are elsewhere
			return p, c.Seek(start + PRIMITIVE_SIZE)
		})
		if err != nil {
			return nil, err
		}
		normalizeIndexPresence(ctx, i, g)
		ctx.log.Section(SECTION_PRIMITIVES.String()).Printf("group %d %q: %d primitives", i, g.Name, len(g.Items))
		groups[i] = g
	}
	return groups, nil
}

// normalizeIndexPresence defaults missing indexes to 0 when some vertices
// of primitive define index kind and others do not
func normalizeIndexPresence(ctx *ParseContext, groupIndex int, g *Group[Primitive]) {
	var fixed [4]int
	for iPrim := range g.Items {
		p := &g.Items[iPrim]
		for kind := 0; kind < 4; kind++ {
			defined := 0
			for iVertex := range p.Vertices {
				if *p.Vertices[iVertex].index(kind) != -1 {
					defined++
				}
			}
			if defined == 0 || defined == len(p.Vertices) {
				continue
			}
			for iVertex := range p.Vertices {
				if idx := p.Vertices[iVertex].index(kind); *idx == -1 {
					*idx = 0
					fixed[kind]++
				}
			}
		}
	}
	for kind, count := range fixed {
		if count != 0 {
			ctx.report.warn(newError(KindConsistency, SECTION_PRIMITIVES, groupIndex, -1,
				"group %q: %d missing %s indexes defaulted to 0", g.Name, count, vertexKindNames[kind]))
		}
	}
}
