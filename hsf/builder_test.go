package hsf

import (
	"encoding/binary"
	"math"
	"testing"
)

// bw is big-endian writer for synthetic test files
type bw struct {
	buf []byte
}

func (w *bw) u8(v ...uint8) *bw {
	w.buf = append(w.buf, v...)
	return w
}

func (w *bw) u16(v ...uint16) *bw {
	for _, x := range v {
		w.buf = binary.BigEndian.AppendUint16(w.buf, x)
	}
	return w
}

func (w *bw) u32(v ...uint32) *bw {
	for _, x := range v {
		w.buf = binary.BigEndian.AppendUint32(w.buf, x)
	}
	return w
}

// idx writes 4 byte reference, -1 becomes 0xffffffff
func (w *bw) idx(v ...int) *bw {
	for _, x := range v {
		w.u32(uint32(int32(x)))
	}
	return w
}

func (w *bw) i16(v ...int) *bw {
	for _, x := range v {
		w.u16(uint16(int16(x)))
	}
	return w
}

func (w *bw) f32(v ...float32) *bw {
	for _, x := range v {
		w.u32(math.Float32bits(x))
	}
	return w
}

func (w *bw) zero(n int) *bw {
	w.buf = append(w.buf, make([]byte, n)...)
	return w
}

func (w *bw) len() int { return len(w.buf) }

// testFile lays sections one after another behind header,
// string table goes last
type testFile struct {
	body    []byte
	dir     Directory
	strings []byte
	names   map[string]int
}

func newTestFile() *testFile {
	return &testFile{names: make(map[string]int)}
}

func (f *testFile) name(s string) int {
	if offset, ok := f.names[s]; ok {
		return offset
	}
	offset := len(f.strings)
	f.strings = append(append(f.strings, s...), 0)
	f.names[s] = offset
	return offset
}

func (f *testFile) offset() int {
	return HEADER_SIZE + len(f.body)
}

// add places section data and returns its absolute offset
func (f *testFile) add(id SectionId, count int, data *bw) int {
	offset := f.offset()
	f.dir.Sections[id] = Section{Offset: uint32(offset), Count: uint32(count)}
	f.body = append(f.body, data.buf...)
	for len(f.body)%4 != 0 {
		f.body = append(f.body, 0)
	}
	return offset
}

func (f *testFile) bytes() []byte {
	if len(f.strings) != 0 {
		f.add(SECTION_STRINGTABLE, len(f.strings), &bw{buf: f.strings})
	}
	w := &bw{}
	w.u8([]byte(HSF_MAGIC)...)
	for _, s := range f.dir.Sections {
		w.u32(s.Offset, s.Count)
	}
	return append(w.buf, f.body...)
}

func (f *testFile) decode(t *testing.T) *Scene {
	t.Helper()
	s, err := Decode(f.bytes(), nil)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return s
}

// group writes attribute section of one or more named groups
type testGroup struct {
	name  string
	count int
	items func(w *bw)
}

func (f *testFile) addGroups(id SectionId, groups ...testGroup) int {
	headers := &bw{}
	data := &bw{}
	for _, g := range groups {
		headers.idx(f.name(g.name), g.count, data.len())
		g.items(data)
	}
	headers.buf = append(headers.buf, data.buf...)
	return f.add(id, len(groups), headers)
}

type testMesh struct {
	primitives, positions, normals, colors, uvs int
	attribute                                   int
	envelopeIndex, envelopeCount                int
}

type testNode struct {
	name     string
	typ      NodeType
	parent   int
	children []int
	position [3]float32
	rotation [3]float32
	mesh     *testMesh
	replica  int
}

func writeTransform(w *bw, pos, rot [3]float32) {
	w.f32(pos[:]...).f32(rot[:]...).f32(1, 1, 1)
}

// addNodes writes node and symbol sections
func (f *testFile) addNodes(nodes ...testNode) {
	w := &bw{}
	symbols := &bw{}
	symbolCount := 0
	for _, n := range nodes {
		start := w.len()
		w.idx(f.name(n.name), int(n.typ)).u32(0, 0)
		symbolIndex := -1
		if len(n.children) != 0 {
			symbolIndex = symbolCount
			symbols.idx(n.children...)
			symbolCount += len(n.children)
		}
		w.idx(n.parent, len(n.children), symbolIndex)
		writeTransform(w, n.position, n.rotation)
		writeTransform(w, n.position, n.rotation)

		switch {
		case n.mesh != nil:
			m := n.mesh
			w.f32(-1, -1, -1, 1, 1, 1, 0).zero(MORPH_WEIGHTS_COUNT * 4)
			w.idx(m.primitives, m.positions, m.normals, m.colors, m.uvs).u32(0).idx(m.attribute)
			w.u8(0, 0, 0, 0)
			w.idx(0, -1, 0, -1, m.envelopeCount, m.envelopeIndex).u32(0, 0)
		case n.typ == NODE_REPLICA:
			w.idx(n.replica)
		}
		w.zero(NODE_SIZE - (w.len() - start))
	}
	f.add(SECTION_NODES, len(nodes), w)
	if symbolCount != 0 {
		f.add(SECTION_SYMBOLS, symbolCount, symbols)
	}
}

// quad writes primitive with vertices in wire order
func quad(w *bw, material int, vertices ...[4]int) {
	w.u16(uint16(PRIMITIVE_QUAD), uint16(material))
	for _, v := range vertices {
		w.i16(v[:]...)
	}
	w.u32(0, 0, 0)
}

func triangle(w *bw, material int, vertices ...[4]int) {
	w.u16(uint16(PRIMITIVE_TRIANGLE), uint16(material))
	for _, v := range vertices {
		w.i16(v[:]...)
	}
	w.i16(-1, -1, -1, -1)
	w.u32(0, 0, 0)
}

func strip(w *bw, material int, count int, offset int, vertices ...[4]int) {
	w.u16(uint16(PRIMITIVE_TRIANGLE_STRIP), uint16(material))
	for _, v := range vertices {
		w.i16(v[:]...)
	}
	w.u32(uint32(count), uint32(offset))
	w.u32(0, 0, 0)
}

func writeMaterial(f *testFile, w *bw, name string, color [3]uint8, transparency float32, attribute int) {
	w.idx(f.name(name)).u32(0).u16(0).u8(0)
	w.u8(0x40, 0x40, 0x40).u8(color[:]...).u8(0, 0, 0)
	w.f32(1, 0, transparency, 0, 0, 0, 0)
	w.u32(0, 1).idx(attribute)
}

func writeAttribute(f *testFile, w *bw, name string, blend BlendMode, alpha bool, wrapS, wrapT WrapMode, texture int) {
	w.idx(f.name(name), -1).u16(0).u8(uint8(blend))
	if alpha {
		w.u8(1)
	} else {
		w.u8(0)
	}
	w.f32(1).u32(0)
	w.f32(0, 0, 0, 1, 0)
	w.f32(1, 1, 0, 0, 1, 1, 0, 0)
	w.f32(0, 0, 0, 0, 0, 0, 0)
	w.idx(int(wrapS), int(wrapT)).u32(0, 0, 0)
	w.u32(0, 0).idx(texture)
}

// sampleScene is
//
//	0 root (Root)
//	├── 1 group (Null)
//	│   └── 3 joint (Joint)
//	├── 2 mesh (Mesh), skinned to joint and root
//	└── 4 copy (Replica of group)
func sampleScene() *testFile {
	f := newTestFile()

	f.add(SECTION_FOGS, 1, (&bw{}).u32(1).f32(10, 100).u8(0x10, 0x20, 0x30, 0xff))

	mats := &bw{}
	writeMaterial(f, mats, "mat", [3]uint8{255, 128, 0}, 0, 0)
	writeMaterial(f, mats, "glass", [3]uint8{255, 255, 255}, 0.5, -1)
	f.add(SECTION_MATERIALS, 2, mats)

	attrs := &bw{}
	writeAttribute(f, attrs, "attr", BLEND_MIX, false, WRAP_REPEAT, WRAP_CLAMP, 0)
	f.add(SECTION_ATTRIBUTES, 1, attrs)

	f.addGroups(SECTION_POSITIONS, testGroup{"mesh", 4, func(w *bw) {
		w.f32(0, 0, 0, 1, 0, 0, 0, 1, 0, 1, 1, 0)
	}})
	f.addGroups(SECTION_NORMALS, testGroup{"mesh", 4, func(w *bw) {
		for i := 0; i < 4; i++ {
			w.f32(0, 0, 1)
		}
	}})
	f.addGroups(SECTION_UVS, testGroup{"mesh", 4, func(w *bw) {
		w.f32(0, 0, 1, 0, 0, 1, 1, 1)
	}})
	f.addGroups(SECTION_PRIMITIVES, testGroup{"mesh", 2, func(w *bw) {
		quad(w, 0, [4]int{0, 0, -1, 0}, [4]int{1, 1, -1, 1}, [4]int{2, 2, -1, 2}, [4]int{3, 3, -1, 3})
		triangle(w, 1, [4]int{0, 0, -1, 0}, [4]int{1, 1, -1, 1}, [4]int{3, 3, -1, 3})
	}})

	// vertices 0,1 follow joint, 2,3 are split between joint and root
	rig := &bw{}
	rig.u32(0xcccccccc).idx(0, SINGLE_BIND_SIZE, SINGLE_BIND_SIZE+DUAL_BIND_SIZE, 1, 1, 0, 4, 0)
	rig.idx(3).u16(0, 2, 0, 2)
	rig.idx(3, 0, 1, 0)
	rig.f32(0.25).u16(2, 2, 2, 2)
	f.add(SECTION_RIGS, 1, rig)

	texInfo := &bw{}
	texInfo.idx(f.name("tex")).u32(0).u8(1, 8).u16(8, 4, 0).u32(0).idx(-1).u32(0, 0)
	for i := 0; i < 32; i++ {
		texInfo.u8(0x80)
	}
	f.add(SECTION_TEXTURES, 1, texInfo)

	motion := &bw{}
	motion.idx(f.name("idle"), 2, 0).f32(30)
	motion.u8(1, 0).u16(0, 0, 0, uint16(CURVE_LINEAR), 2).u32(0)
	motion.u8(1, 0).u16(0, 1, 0, uint16(CURVE_CONSTANT), 0).f32(0.5)
	motion.f32(0, 1, 30, 2)
	f.add(SECTION_MOTIONS, 1, motion)

	f.addNodes(
		testNode{name: "root", typ: NODE_ROOT, parent: -1, children: []int{1, 2, 4}},
		testNode{name: "group", typ: NODE_NULL, parent: 0, children: []int{3}},
		testNode{name: "mesh", typ: NODE_MESH, parent: 0, position: [3]float32{0, 2, 0},
			mesh: &testMesh{primitives: 0, positions: 0, normals: 0, colors: -1, uvs: 0,
				attribute: -1, envelopeIndex: 0, envelopeCount: 1}},
		testNode{name: "joint", typ: NODE_JOINT, parent: 1, position: [3]float32{1, 0, 0}},
		testNode{name: "copy", typ: NODE_REPLICA, parent: 0, replica: 1, position: [3]float32{0, 0, 5}},
	)
	return f
}
