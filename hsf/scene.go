package hsf

import (
	"io"

	"golang.org/x/text/encoding"

	"github.com/mogaika/hsf_browser/readat"
)

type Options struct {
	// decoder of string table, nil means strict utf-8
	Decoder *encoding.Decoder
	Normals NormalMode
	// verbose trace of parser, nil disables it
	Log io.Writer
}

// ParseContext is shared state of one decode. Section readers take
// what they need from it and return their results.
type ParseContext struct {
	c         *readat.Cursor
	Directory *Directory
	strings   *StringTable
	log       *Logger
	report    *Report
	opts      Options
	normals   *normalTable
}

// Scene is decoded file. Nodes reference each other by index in Nodes.
type Scene struct {
	Directory *Directory

	Nodes     []*Node
	RootIndex int
	Symbols   []int

	Materials  []*Material
	Attributes []*Attribute
	Textures   []*Texture

	Positions  []*Group[[3]float32]
	UVs        []*Group[[2]float32]
	Colors     []*Group[[4]float32]
	Primitives []*Group[Primitive]
	Envelopes  []*Envelope

	Fogs      []Fog
	Skeletons []Skeleton
	Motions   []*Motion

	Report *Report
}

var skippedSections = []SectionId{
	SECTION_PARTS, SECTION_CLUSTERS, SECTION_SHAPES, SECTION_MAP_ATTRIBUTES, SECTION_MATRICES,
}

// section runs reader of one section. Failure is recorded and decode goes on.
func (ctx *ParseContext) section(id SectionId, read func() (int, error)) bool {
	if !ctx.Directory.Section(id).Present() {
		ctx.report.setSection(id, SECTION_ABSENT, 0, nil)
		return false
	}
	count, err := read()
	if err != nil {
		de := wrapError(err, id, -1, -1)
		ctx.report.setSection(id, SECTION_FAILED, count, de)
		ctx.log.Printf("section %v failed: %v", id, de)
		return false
	}
	ctx.report.setSection(id, SECTION_PARSED, count, nil)
	return true
}

// Decode parses whole file. Only invalid header is returned as error,
// problems of sections are collected in Scene.Report.
func Decode(data []byte, opts *Options) (*Scene, error) {
	ctx := &ParseContext{
		c:      readat.NewCursor(data),
		report: &Report{},
	}
	if opts != nil {
		ctx.opts = *opts
	}
	ctx.c.SetDecoder(ctx.opts.Decoder)
	ctx.log = NewLogger(ctx.opts.Log)

	dir, err := ParseDirectory(ctx.c)
	if err != nil {
		return nil, err
	}
	ctx.Directory = dir
	ctx.strings = NewStringTable(ctx.c, dir.Section(SECTION_STRINGTABLE))

	s := &Scene{Directory: dir, RootIndex: -1, Report: ctx.report}

	ctx.section(SECTION_STRINGTABLE, func() (int, error) {
		return int(dir.Section(SECTION_STRINGTABLE).Count), nil
	})
	ctx.section(SECTION_SYMBOLS, func() (n int, err error) {
		s.Symbols, err = readSymbols(ctx)
		return len(s.Symbols), err
	})
	ctx.section(SECTION_FOGS, func() (n int, err error) {
		s.Fogs, err = readFogs(ctx)
		return len(s.Fogs), err
	})
	ctx.section(SECTION_COLORS, func() (n int, err error) {
		s.Colors, err = readGroups(ctx, SECTION_COLORS, 4, readColor)
		return len(s.Colors), err
	})
	ctx.section(SECTION_MATERIALS, func() (n int, err error) {
		s.Materials, err = readMaterials(ctx)
		return len(s.Materials), err
	})
	ctx.section(SECTION_ATTRIBUTES, func() (n int, err error) {
		s.Attributes, err = readAttributes(ctx)
		return len(s.Attributes), err
	})
	ctx.section(SECTION_POSITIONS, func() (n int, err error) {
		s.Positions, err = readGroups(ctx, SECTION_POSITIONS, 12, readPosition)
		return len(s.Positions), err
	})
	ctx.section(SECTION_NORMALS, func() (n int, err error) {
		if ctx.normals, err = readNormalTable(ctx); err != nil {
			return 0, err
		}
		return len(ctx.normals.headers), nil
	})
	ctx.section(SECTION_UVS, func() (n int, err error) {
		s.UVs, err = readGroups(ctx, SECTION_UVS, 8, readUV)
		return len(s.UVs), err
	})
	ctx.section(SECTION_PRIMITIVES, func() (n int, err error) {
		s.Primitives, err = readPrimitiveGroups(ctx)
		return len(s.Primitives), err
	})
	ctx.section(SECTION_RIGS, func() (n int, err error) {
		s.Envelopes, err = readEnvelopes(ctx)
		return len(s.Envelopes), err
	})
	texturesParsed := ctx.section(SECTION_TEXTURES, func() (n int, err error) {
		s.Textures, err = readTextures(ctx)
		return len(s.Textures), err
	})
	if !texturesParsed {
		// palettes are read along with textures, report them anyway
		ctx.section(SECTION_PALETTES, func() (int, error) {
			palettes, err := readPaletteInfos(ctx)
			return len(palettes), err
		})
	}
	ctx.section(SECTION_SKELETONS, func() (n int, err error) {
		s.Skeletons, err = readSkeletons(ctx)
		return len(s.Skeletons), err
	})
	ctx.section(SECTION_MOTIONS, func() (n int, err error) {
		s.Motions, err = readMotions(ctx)
		return len(s.Motions), err
	})
	ctx.section(SECTION_NODES, func() (int, error) {
		return decodeNodes(ctx, s)
	})

	for _, id := range skippedSections {
		if dir.Section(id).Present() {
			ctx.report.setSection(id, SECTION_SKIPPED, int(dir.Section(id).Count), nil)
		} else {
			ctx.report.setSection(id, SECTION_ABSENT, 0, nil)
		}
	}

	ctx.log.Printf("%s", ctx.report.Summary())
	return s, nil
}

// decodeNodes runs three node passes. Nodes are kept when root is
// ambiguous or graph has cycle, but RootIndex stays -1.
func decodeNodes(ctx *ParseContext, s *Scene) (int, error) {
	nodes, err := readNodes(ctx)
	if err != nil {
		return 0, err
	}
	s.Nodes = nodes

	rootErr := resolveNodes(ctx, s)
	verifyNodes(ctx, s)

	for _, n := range s.Nodes {
		if m := n.Mesh(); m != nil && len(m.Envelopes) != 0 {
			validateWeights(ctx, n, s.VertexWeights(n.Index))
		}
	}

	if rootErr != nil {
		return len(nodes), rootErr
	}
	if err := s.WalkRoot(nil); err != nil {
		s.RootIndex = -1
		return len(nodes), err
	}
	return len(nodes), nil
}

// Node returns node by index or nil
func (s *Scene) Node(index int) *Node {
	if index < 0 || index >= len(s.Nodes) {
		return nil
	}
	return s.Nodes[index]
}

// Material resolves first hop of primitive -> material -> attribute -> texture chain
func (s *Scene) Material(p *Primitive) *Material {
	if p == nil || p.Material < 0 || p.Material >= len(s.Materials) {
		return nil
	}
	return s.Materials[p.Material]
}

func (s *Scene) AttributeFor(m *Material) *Attribute {
	if m == nil || m.AttributeIndex < 0 || m.AttributeIndex >= len(s.Attributes) {
		return nil
	}
	return s.Attributes[m.AttributeIndex]
}

// TextureFor returns decoded texture of material, nil when any link is broken
func (s *Scene) TextureFor(m *Material) *Texture {
	a := s.AttributeFor(m)
	if a == nil || a.TextureIndex < 0 || a.TextureIndex >= len(s.Textures) {
		return nil
	}
	t := s.Textures[a.TextureIndex]
	if t.Image == nil {
		return nil
	}
	return t
}

// MeshNodes returns indexes of mesh nodes with resolved geometry
func (s *Scene) MeshNodes() []int {
	result := make([]int, 0)
	for _, n := range s.Nodes {
		if m := n.Mesh(); m != nil && m.Primitives != nil && m.Positions != nil {
			result = append(result, n.Index)
		}
	}
	return result
}
