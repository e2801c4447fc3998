package hsf

import (
	"fmt"

	"github.com/mogaika/hsf_browser/readat"
	"github.com/mogaika/hsf_browser/utils"
)

const HSF_MAGIC = "HSFV037\x00"

type SectionId int

const (
	SECTION_FOGS SectionId = iota
	SECTION_COLORS
	SECTION_MATERIALS
	SECTION_ATTRIBUTES
	SECTION_POSITIONS
	SECTION_NORMALS
	SECTION_UVS
	SECTION_PRIMITIVES
	SECTION_NODES
	SECTION_TEXTURES
	SECTION_PALETTES
	SECTION_MOTIONS
	SECTION_RIGS
	SECTION_SKELETONS
	SECTION_PARTS
	SECTION_CLUSTERS
	SECTION_SHAPES
	SECTION_MAP_ATTRIBUTES
	SECTION_MATRICES
	SECTION_SYMBOLS
	SECTION_STRINGTABLE

	SECTIONS_COUNT
)

const HEADER_SIZE = len(HSF_MAGIC) + int(SECTIONS_COUNT)*8

// SECTION_NONE marks errors not bound to a section
const SECTION_NONE SectionId = -1

var sectionNames = [SECTIONS_COUNT]string{
	"fogs",
	"colors",
	"materials",
	"attributes",
	"positions",
	"normals",
	"uvs",
	"primitives",
	"nodes",
	"textures",
	"palettes",
	"motions",
	"rigs",
	"skeletons",
	"parts",
	"clusters",
	"shapes",
	"map_attributes",
	"matrices",
	"symbols",
	"stringtable",
}

func (id SectionId) String() string {
	if id >= 0 && id < SECTIONS_COUNT {
		return sectionNames[id]
	}
	if id == SECTION_NONE {
		return ""
	}
	return fmt.Sprintf("SectionId(%d)", int(id))
}

type Section struct {
	Offset uint32
	Count  uint32
}

func (s Section) Present() bool {
	return s.Offset != 0 && s.Offset != 0xffffffff && s.Count != 0
}

// Directory is table of sections from file header
type Directory struct {
	Sections [SECTIONS_COUNT]Section
}

func (d *Directory) Section(id SectionId) Section {
	return d.Sections[id]
}

func (d *Directory) SectionByName(name string) (Section, bool) {
	for id, sectionName := range sectionNames {
		if sectionName == name {
			return d.Sections[id], true
		}
	}
	return Section{}, false
}

func ParseDirectory(c *readat.Cursor) (*Directory, error) {
	if err := c.Seek(0); err != nil {
		return nil, wrapError(err, SECTION_NONE, -1, 0)
	}
	magic, err := c.ReadBytes(len(HSF_MAGIC))
	if err != nil {
		return nil, &DecodeError{Kind: KindInvalidMagic, Item: -1, Offset: 0, Err: err}
	}
	if string(magic) != HSF_MAGIC {
		return nil, newError(KindInvalidMagic, SECTION_NONE, -1, 0, "magic \"%s\", expected %q", utils.DumpToOneLineString(magic), HSF_MAGIC)
	}

	d := &Directory{}
	for id := range d.Sections {
		offset := c.Tell()
		if d.Sections[id].Offset, err = c.ReadU32(); err == nil {
			d.Sections[id].Count, err = c.ReadU32()
		}
		if err != nil {
			return nil, wrapError(err, SectionId(id), -1, offset)
		}
	}
	return d, nil
}
