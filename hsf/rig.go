package hsf

import (
	"math"
	"sort"

	"github.com/mogaika/hsf_browser/readat"
)

const (
	ENVELOPE_SIZE     = 0x24
	SINGLE_BIND_SIZE  = 12
	DUAL_BIND_SIZE    = 16
	MULTI_BIND_SIZE   = 16
	DUAL_WEIGHT_SIZE  = 12
	MULTI_WEIGHT_SIZE = 8
)

// weights of one vertex may differ from 1.0 by this much
const WEIGHT_TOLERANCE = 1e-4

// VertexRange selects contiguous positions and normals of mesh
type VertexRange struct {
	Position      int
	PositionCount int
	Normal        int
	NormalCount   int
}

func readVertexRange(c *readat.Cursor) (r VertexRange, err error) {
	for _, field := range []*int{&r.Position, &r.PositionCount, &r.Normal, &r.NormalCount} {
		var v uint16
		if v, err = c.ReadU16(); err != nil {
			return
		}
		*field = int(v)
	}
	return
}

type BoneWeight struct {
	Bone   int
	Weight float32
}

type SingleBind struct {
	Bone int
	VertexRange
}

type DualWeight struct {
	Weight float32
	VertexRange
}

// DualBind splits every vertex of its weights between two bones as (w, 1-w)
type DualBind struct {
	Bone1   int
	Bone2   int
	Weights []DualWeight

	weightCount  int
	weightOffset int
}

type MultiBind struct {
	VertexRange
	Weights []BoneWeight

	weightCount  int
	weightOffset int
}

// Envelope is skinning data of one mesh
type Envelope struct {
	Index       int
	SingleBinds []SingleBind
	DualBinds   []DualBind
	MultiBinds  []MultiBind
	VertexCount int
	// first CopyCount vertices are bound to mesh parent
	CopyCount int

	singleOffset int
	dualOffset   int
	multiOffset  int
}

func readEnvelopeHeader(c *readat.Cursor, index int) (e *Envelope, err error) {
	e = &Envelope{Index: index}
	// name field is filled with 0xcccccccc
	if err = c.Skip(4); err != nil {
		return
	}
	var v [8]int32
	for i := range v {
		if v[i], err = c.ReadI32(); err != nil {
			return
		}
	}
	e.singleOffset, e.dualOffset, e.multiOffset = int(v[0]), int(v[1]), int(v[2])
	for i := 3; i < 6; i++ {
		if v[i] < 0 {
			return nil, newError(KindOutOfBounds, SECTION_RIGS, index, c.Tell(), "negative bind count %d", v[i])
		}
	}
	for i, size := range []int{SINGLE_BIND_SIZE, DUAL_BIND_SIZE, MULTI_BIND_SIZE} {
		if err = c.Fits(0, int64(v[3+i]), size); err != nil {
			return nil, err
		}
	}
	e.SingleBinds = make([]SingleBind, v[3])
	e.DualBinds = make([]DualBind, v[4])
	e.MultiBinds = make([]MultiBind, v[5])
	e.VertexCount = int(v[6])
	e.CopyCount = int(v[7])
	return
}

func (e *Envelope) readDescriptors(c *readat.Cursor, base int) error {
	if err := c.Seek(base + e.singleOffset); err != nil {
		return err
	}
	for i := range e.SingleBinds {
		b := &e.SingleBinds[i]
		var err error
		if b.Bone, err = c.ReadIndex(4); err != nil {
			return err
		}
		if b.VertexRange, err = readVertexRange(c); err != nil {
			return err
		}
	}

	if err := c.Seek(base + e.dualOffset); err != nil {
		return err
	}
	for i := range e.DualBinds {
		b := &e.DualBinds[i]
		var v [4]int32
		for j := range v {
			var err error
			if v[j], err = c.ReadI32(); err != nil {
				return err
			}
		}
		b.Bone1, b.Bone2, b.weightCount, b.weightOffset = int(v[0]), int(v[1]), int(v[2]), int(v[3])
	}

	if err := c.Seek(base + e.multiOffset); err != nil {
		return err
	}
	for i := range e.MultiBinds {
		b := &e.MultiBinds[i]
		count, err := c.ReadI32()
		if err != nil {
			return err
		}
		b.weightCount = int(count)
		if b.VertexRange, err = readVertexRange(c); err != nil {
			return err
		}
		offset, err := c.ReadI32()
		if err != nil {
			return err
		}
		b.weightOffset = int(offset)
	}
	return nil
}

func checkCount(count int, size int, c *readat.Cursor) error {
	if err := c.Fits(0, int64(count), size); err != nil {
		return newError(KindOutOfBounds, SECTION_RIGS, -1, c.Tell(), "weight count %d", count)
	}
	return nil
}

func (e *Envelope) readDualWeights(c *readat.Cursor, base int) error {
	for i := range e.DualBinds {
		b := &e.DualBinds[i]
		if err := checkCount(b.weightCount, DUAL_WEIGHT_SIZE, c); err != nil {
			return err
		}
		if err := c.Seek(base + b.weightOffset); err != nil {
			return err
		}
		b.Weights = make([]DualWeight, b.weightCount)
		for j := range b.Weights {
			var err error
			if b.Weights[j].Weight, err = c.ReadF32(); err != nil {
				return err
			}
			if b.Weights[j].VertexRange, err = readVertexRange(c); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Envelope) readMultiWeights(c *readat.Cursor, base int) error {
	for i := range e.MultiBinds {
		b := &e.MultiBinds[i]
		if err := checkCount(b.weightCount, MULTI_WEIGHT_SIZE, c); err != nil {
			return err
		}
		if err := c.Seek(base + b.weightOffset); err != nil {
			return err
		}
		b.Weights = make([]BoneWeight, b.weightCount)
		for j := range b.Weights {
			var err error
			if b.Weights[j].Bone, err = c.ReadIndex(4); err != nil {
				return err
			}
			if b.Weights[j].Weight, err = c.ReadF32(); err != nil {
				return err
			}
		}
	}
	return nil
}

// readEnvelopes reads every rig in two stages: all descriptors first,
// because weight tables are placed after descriptors of all rigs.
// Dual weights follow descriptors, multi weights follow dual weights.
func readEnvelopes(ctx *ParseContext) ([]*Envelope, error) {
	section := ctx.Directory.Section(SECTION_RIGS)
	c := ctx.c
	log := ctx.log.Section(SECTION_RIGS.String())

	if err := c.Fits(int(section.Offset), int64(section.Count), ENVELOPE_SIZE); err != nil {
		return nil, wrapError(err, SECTION_RIGS, -1, int(section.Offset))
	}
	envelopes := make([]*Envelope, section.Count)
	for i := range envelopes {
		start := int(section.Offset) + i*ENVELOPE_SIZE
		if err := c.Seek(start); err != nil {
			return nil, wrapError(err, SECTION_RIGS, i, start)
		}
		e, err := readEnvelopeHeader(c, i)
		if err != nil {
			return nil, wrapError(err, SECTION_RIGS, i, start)
		}
		envelopes[i] = e
	}

	descriptorBase := int(section.Offset) + int(section.Count)*ENVELOPE_SIZE
	dualBase := descriptorBase
	dualWeights := 0
	for i, e := range envelopes {
		if err := e.readDescriptors(c, descriptorBase); err != nil {
			return nil, wrapError(err, SECTION_RIGS, i, c.Tell())
		}
		dualBase += SINGLE_BIND_SIZE*len(e.SingleBinds) + DUAL_BIND_SIZE*len(e.DualBinds) + MULTI_BIND_SIZE*len(e.MultiBinds)
		for _, b := range e.DualBinds {
			dualWeights += b.weightCount
		}
	}
	multiBase := dualBase + DUAL_WEIGHT_SIZE*dualWeights

	for i, e := range envelopes {
		if err := e.readDualWeights(c, dualBase); err != nil {
			return nil, wrapError(err, SECTION_RIGS, i, c.Tell())
		}
		if err := e.readMultiWeights(c, multiBase); err != nil {
			return nil, wrapError(err, SECTION_RIGS, i, c.Tell())
		}
		log.Printf("%d: %d single %d dual %d multi binds, %d vertices, copy %d",
			i, len(e.SingleBinds), len(e.DualBinds), len(e.MultiBinds), e.VertexCount, e.CopyCount)
	}
	return envelopes, nil
}

// VertexWeights maps position index to bones influencing it.
// copyBone receives first CopyCount vertices with weight 1.
func (e *Envelope) VertexWeights(copyBone int, into map[int][]BoneWeight) map[int][]BoneWeight {
	if into == nil {
		into = make(map[int][]BoneWeight)
	}
	add := func(r VertexRange, weights ...BoneWeight) {
		for v := r.Position; v < r.Position+r.PositionCount; v++ {
			into[v] = append(into[v], weights...)
		}
	}
	for _, b := range e.SingleBinds {
		add(b.VertexRange, BoneWeight{Bone: b.Bone, Weight: 1})
	}
	for _, b := range e.DualBinds {
		for _, w := range b.Weights {
			add(w.VertexRange, BoneWeight{Bone: b.Bone1, Weight: w.Weight}, BoneWeight{Bone: b.Bone2, Weight: 1 - w.Weight})
		}
	}
	for _, b := range e.MultiBinds {
		add(b.VertexRange, b.Weights...)
	}
	if copyBone >= 0 {
		add(VertexRange{Position: 0, PositionCount: e.CopyCount}, BoneWeight{Bone: copyBone, Weight: 1})
	}
	return into
}

// VertexWeights combines envelopes of mesh node. Nil for unskinned mesh.
func (s *Scene) VertexWeights(node int) map[int][]BoneWeight {
	n := s.Nodes[node]
	m := n.Mesh()
	if m == nil || len(m.Envelopes) == 0 {
		return nil
	}
	copyBone := n.Parent
	if copyBone == -1 {
		copyBone = n.Index
	}
	weights := make(map[int][]BoneWeight)
	for _, e := range m.Envelopes {
		e.VertexWeights(copyBone, weights)
	}
	return weights
}

// validateWeights reports every vertex whose weights do not sum to 1
func validateWeights(ctx *ParseContext, node *Node, weights map[int][]BoneWeight) int {
	vertices := make([]int, 0, len(weights))
	for v := range weights {
		vertices = append(vertices, v)
	}
	sort.Ints(vertices)

	bad := 0
	for _, v := range vertices {
		var sum float64
		for _, w := range weights[v] {
			sum += float64(w.Weight)
		}
		if math.Abs(sum-1) > WEIGHT_TOLERANCE {
			ctx.report.warn(newError(KindConsistency, SECTION_RIGS, node.Index, -1,
				"%v: vertex %d weights sum to %f", node, v, sum))
			bad++
		}
	}
	return bad
}
