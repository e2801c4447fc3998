package hsf

import (
	"fmt"

	"github.com/mogaika/hsf_browser/readat"
)

// every node record has same size whatever payload it carries
const NODE_SIZE = 0x144

const MORPH_WEIGHTS_COUNT = 33

type NodeType int32

const (
	NODE_NULL NodeType = iota
	NODE_REPLICA
	NODE_MESH
	NODE_ROOT
	NODE_JOINT
	NODE_EFFECT
	NODE_NONE
	NODE_CAMERA
	NODE_LIGHT
	NODE_MAP
)

var nodeTypeNames = map[NodeType]string{
	NODE_NULL:    "Null",
	NODE_REPLICA: "Replica",
	NODE_MESH:    "Mesh",
	NODE_ROOT:    "Root",
	NODE_JOINT:   "Joint",
	NODE_EFFECT:  "Effect",
	NODE_NONE:    "None",
	NODE_CAMERA:  "Camera",
	NODE_LIGHT:   "Light",
	NODE_MAP:     "Map",
}

func (t NodeType) String() string {
	if name, ok := nodeTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("NodeType(%d)", int32(t))
}

func (t NodeType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t NodeType) Known() bool {
	_, ok := nodeTypeNames[t]
	return ok
}

// Hierarchical nodes can have parent and children. Cameras and lights can not.
func (t NodeType) Hierarchical() bool {
	return t != NODE_CAMERA && t != NODE_LIGHT
}

// IsNull reports types that only group children. None behaves as Null.
func (t NodeType) IsNull() bool {
	return t == NODE_NULL || t == NODE_NONE
}

// Transform angles are in degrees
type Transform struct {
	Position [3]float32
	Rotation [3]float32
	Scale    [3]float32
}

func readTransform(c *readat.Cursor) (t Transform, err error) {
	if t.Position, err = c.ReadVec3(); err != nil {
		return
	}
	if t.Rotation, err = c.ReadVec3(); err != nil {
		return
	}
	t.Scale, err = c.ReadVec3()
	return
}

type HierarchyData struct {
	Parent        int
	ChildrenCount int
	SymbolIndex   int
	Base          Transform
	Current       Transform
}

// NodePayload is one of *MeshData, *ReplicaData, *CameraData, *LightData
type NodePayload interface {
	payloadType() NodeType
}

type MeshData struct {
	CullMin      [3]float32
	CullMax      [3]float32
	BaseMorph    float32
	MorphWeights [MORPH_WEIGHTS_COUNT]float32

	PrimitivesIndex int
	PositionsIndex  int
	NormalsIndex    int
	ColorsIndex     int
	UVsIndex        int
	MaterialOffset  uint32
	AttributeIndex  int

	ShapeType             uint8
	ShapeCount            int
	ShapeSymbol           int
	ClusterCount          int
	ClusterSymbol         int
	EnvelopeCount         int
	EnvelopeIndex         int
	ClusterPositionOffset uint32
	ClusterNormalOffset   uint32

	// filled by resolver, nil when absent
	Primitives *Group[Primitive]   `json:"-"`
	Positions  *Group[[3]float32] `json:"-"`
	Normals    *Group[[3]float32] `json:"-"`
	Colors     *Group[[4]float32] `json:"-"`
	UVs        *Group[[2]float32] `json:"-"`
	Envelopes  []*Envelope        `json:"-"`
}

func (*MeshData) payloadType() NodeType { return NODE_MESH }

// Skinned meshes carry envelopes and store normals as floats
func (m *MeshData) Skinned() bool {
	return m.EnvelopeCount > 0
}

type ReplicaData struct {
	// node whose subtree is instanced, resolver checks it is Null
	ReplicaIndex int
}

func (*ReplicaData) payloadType() NodeType { return NODE_REPLICA }

type CameraData struct {
	Target   [3]float32
	Position [3]float32
	Aspect   float32
	FOV      float32
	Near     float32
	Far      float32
}

func (*CameraData) payloadType() NodeType { return NODE_CAMERA }

type LightData struct {
	Position      [3]float32
	Target        [3]float32
	LightType     uint8
	Color         [3]uint8
	Unk           float32
	RefDistance   float32
	RefBrightness float32
	Cutoff        float32
}

func (*LightData) payloadType() NodeType { return NODE_LIGHT }

// Node is referenced everywhere by Index in Scene.Nodes
type Node struct {
	Index           int
	Name            string
	Type            NodeType
	ConstDataOffset uint32
	RenderFlags     uint32

	// nil for cameras and lights
	Hierarchy *HierarchyData `json:",omitempty"`
	Payload   NodePayload    `json:",omitempty"`

	// resolved links, -1 when not set
	Parent   int
	Children []int
}

func (n *Node) Mesh() *MeshData {
	m, _ := n.Payload.(*MeshData)
	return m
}

func (n *Node) Replica() *ReplicaData {
	r, _ := n.Payload.(*ReplicaData)
	return r
}

func (n *Node) Camera() *CameraData {
	cam, _ := n.Payload.(*CameraData)
	return cam
}

func (n *Node) Light() *LightData {
	l, _ := n.Payload.(*LightData)
	return l
}

// LocalTransform returns base transform, identity for nodes without hierarchy
func (n *Node) LocalTransform() Transform {
	if n.Hierarchy == nil {
		return Transform{Scale: [3]float32{1, 1, 1}}
	}
	return n.Hierarchy.Base
}

func (n *Node) String() string {
	return fmt.Sprintf("node %d %q (%v)", n.Index, n.Name, n.Type)
}

func readHierarchy(c *readat.Cursor) (h *HierarchyData, err error) {
	h = &HierarchyData{}
	if h.Parent, err = c.ReadIndex(4); err != nil {
		return
	}
	var count int32
	if count, err = c.ReadI32(); err != nil {
		return
	}
	h.ChildrenCount = int(count)
	if h.SymbolIndex, err = c.ReadIndex(4); err != nil {
		return
	}
	if h.Base, err = readTransform(c); err != nil {
		return
	}
	h.Current, err = readTransform(c)
	return
}

func readMeshData(c *readat.Cursor) (m *MeshData, err error) {
	m = &MeshData{}
	if m.CullMin, err = c.ReadVec3(); err != nil {
		return
	}
	if m.CullMax, err = c.ReadVec3(); err != nil {
		return
	}
	if m.BaseMorph, err = c.ReadF32(); err != nil {
		return
	}
	for i := range m.MorphWeights {
		if m.MorphWeights[i], err = c.ReadF32(); err != nil {
			return
		}
	}
	for _, field := range []*int{&m.PrimitivesIndex, &m.PositionsIndex, &m.NormalsIndex, &m.ColorsIndex, &m.UVsIndex} {
		if *field, err = c.ReadIndex(4); err != nil {
			return
		}
	}
	if m.MaterialOffset, err = c.ReadU32(); err != nil {
		return
	}
	if m.AttributeIndex, err = c.ReadIndex(4); err != nil {
		return
	}

	var flags []byte
	if flags, err = c.ReadBytes(4); err != nil {
		return
	}
	m.ShapeType = flags[2]

	for _, field := range []*int{
		&m.ShapeCount, &m.ShapeSymbol, &m.ClusterCount, &m.ClusterSymbol, &m.EnvelopeCount, &m.EnvelopeIndex,
	} {
		if *field, err = c.ReadIndex(4); err != nil {
			return
		}
	}
	if m.ClusterPositionOffset, err = c.ReadU32(); err != nil {
		return
	}
	m.ClusterNormalOffset, err = c.ReadU32()
	return
}

func readCameraData(c *readat.Cursor) (cam *CameraData, err error) {
	cam = &CameraData{}
	if cam.Target, err = c.ReadVec3(); err != nil {
		return
	}
	if cam.Position, err = c.ReadVec3(); err != nil {
		return
	}
	for _, field := range []*float32{&cam.Aspect, &cam.FOV, &cam.Near, &cam.Far} {
		if *field, err = c.ReadF32(); err != nil {
			return
		}
	}
	return
}

func readLightData(c *readat.Cursor) (l *LightData, err error) {
	l = &LightData{}
	if l.Position, err = c.ReadVec3(); err != nil {
		return
	}
	if l.Target, err = c.ReadVec3(); err != nil {
		return
	}
	var raw []byte
	if raw, err = c.ReadBytes(4); err != nil {
		return
	}
	l.LightType = raw[0]
	copy(l.Color[:], raw[1:])
	for _, field := range []*float32{&l.Unk, &l.RefDistance, &l.RefBrightness, &l.Cutoff} {
		if *field, err = c.ReadF32(); err != nil {
			return
		}
	}
	return
}

func readNode(ctx *ParseContext, index int, start int) (*Node, error) {
	c := ctx.c
	if err := c.Seek(start); err != nil {
		return nil, err
	}

	nameOffset, err := c.ReadIndex(4)
	if err != nil {
		return nil, err
	}
	n := &Node{Index: index, Parent: -1}
	if n.Name, err = ctx.strings.Lookup(nameOffset); err != nil {
		return nil, err
	}
	var t int32
	if t, err = c.ReadI32(); err != nil {
		return nil, err
	}
	n.Type = NodeType(t)
	if !n.Type.Known() {
		return nil, newError(KindConsistency, SECTION_NODES, index, start+4, "unknown node type %d", t)
	}
	if n.ConstDataOffset, err = c.ReadU32(); err != nil {
		return nil, err
	}
	if n.RenderFlags, err = c.ReadU32(); err != nil {
		return nil, err
	}

	switch n.Type {
	case NODE_CAMERA:
		n.Payload, err = readCameraData(c)
	case NODE_LIGHT:
		n.Payload, err = readLightData(c)
	default:
		if n.Hierarchy, err = readHierarchy(c); err != nil {
			return nil, err
		}
		switch n.Type {
		case NODE_MESH:
			n.Payload, err = readMeshData(c)
		case NODE_REPLICA:
			var replica int
			if replica, err = c.ReadIndex(4); err == nil {
				n.Payload = &ReplicaData{ReplicaIndex: replica}
			}
		}
	}
	if err != nil {
		return nil, err
	}
	return n, nil
}

// readNodes is first pass: flat decode of node array, no references resolved
func readNodes(ctx *ParseContext) ([]*Node, error) {
	section := ctx.Directory.Section(SECTION_NODES)
	log := ctx.log.Section(SECTION_NODES.String())

	if err := ctx.c.Fits(int(section.Offset), int64(section.Count), NODE_SIZE); err != nil {
		return nil, wrapError(err, SECTION_NODES, -1, int(section.Offset))
	}
	nodes := make([]*Node, section.Count)
	for i := range nodes {
		start := int(section.Offset) + i*NODE_SIZE
		n, err := readNode(ctx, i, start)
		if err != nil {
			return nil, wrapError(err, SECTION_NODES, i, start)
		}
		log.Printf("%d %q %v at 0x%x", i, n.Name, n.Type, start)
		nodes[i] = n
	}
	return nodes, nil
}

func readSymbols(ctx *ParseContext) ([]int, error) {
	section := ctx.Directory.Section(SECTION_SYMBOLS)
	c := ctx.c
	if err := c.Seek(int(section.Offset)); err != nil {
		return nil, wrapError(err, SECTION_SYMBOLS, -1, int(section.Offset))
	}
	if err := c.Fits(int(section.Offset), int64(section.Count), 4); err != nil {
		return nil, wrapError(err, SECTION_SYMBOLS, -1, int(section.Offset))
	}
	symbols := make([]int, section.Count)
	for i := range symbols {
		var err error
		if symbols[i], err = c.ReadIndex(4); err != nil {
			return nil, wrapError(err, SECTION_SYMBOLS, i, c.Tell())
		}
	}
	return symbols, nil
}
