package hsf

import (
	"reflect"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

func linkedScene(parents []int, children [][]int) *Scene {
	s := &Scene{RootIndex: 0}
	for i, parent := range parents {
		s.Nodes = append(s.Nodes, &Node{
			Index:     i,
			Type:      NODE_NULL,
			Parent:    parent,
			Children:  children[i],
			Hierarchy: &HierarchyData{Parent: parent, Base: Transform{Scale: [3]float32{1, 1, 1}}},
		})
	}
	return s
}

func isKind(err error, kind ErrorKind) bool {
	var de *DecodeError
	return errors.As(err, &de) && de.Kind == kind
}

func TestWalkOrder(t *testing.T) {
	s := sampleScene().decode(t)
	var order, depths []int
	err := s.WalkRoot(func(n *Node, depth int) error {
		order = append(order, n.Index)
		depths = append(depths, depth)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(order, []int{0, 1, 3, 2, 4}) {
		t.Errorf("walk order %v; expected [0 1 3 2 4]", order)
	}
	if !reflect.DeepEqual(depths, []int{0, 1, 2, 1, 1}) {
		t.Errorf("walk depths %v; expected [0 1 2 1 1]", depths)
	}
}

func TestWalkStops(t *testing.T) {
	s := sampleScene().decode(t)
	stop := errors.New("stop")
	visited := 0
	err := s.WalkRoot(func(n *Node, depth int) error {
		visited++
		if n.Index == 1 {
			return stop
		}
		return nil
	})
	if err != stop || visited != 2 {
		t.Errorf("walk returned %v after %d nodes; expected stop after 2", err, visited)
	}
}

func TestWalkCycle(t *testing.T) {
	s := linkedScene([]int{-1, 0, 1}, [][]int{{1}, {2}, {0}})
	err := s.Walk(0, nil)
	if !isKind(err, KindCyclicGraph) {
		t.Errorf("Walk(cycle)=%v; expected CyclicGraph", err)
	}
	if err := s.Walk(7, nil); !isKind(err, KindOutOfBounds) {
		t.Errorf("Walk(7)=%v; expected OutOfBounds", err)
	}
}

func TestWalkSharedChild(t *testing.T) {
	// diamond is not a tree either
	s := linkedScene([]int{-1, 0, 0, 1}, [][]int{{1, 2}, {3}, {3}, nil})
	if err := s.Walk(0, nil); !isKind(err, KindCyclicGraph) {
		t.Errorf("Walk(diamond)=%v; expected CyclicGraph", err)
	}
}

func TestAncestorsCycle(t *testing.T) {
	s := linkedScene([]int{2, 0, 1}, [][]int{nil, nil, nil})
	if _, err := s.Ancestors(0); !isKind(err, KindCyclicGraph) {
		t.Errorf("Ancestors(loop)=%v; expected CyclicGraph", err)
	}
	if _, err := s.WorldTransform(1); !isKind(err, KindCyclicGraph) {
		t.Errorf("WorldTransform(loop)=%v; expected CyclicGraph", err)
	}
}

func TestWorldTransform(t *testing.T) {
	s := sampleScene().decode(t)
	world, err := s.WorldTransform(3)
	if err != nil {
		t.Fatal(err)
	}
	if pos := world.Col(3); !pos.ApproxEqual(mgl32.Vec4{1, 0, 0, 1}) {
		t.Errorf("joint world position %v; expected [1 0 0 1]", pos)
	}
	chain, err := s.Ancestors(3)
	if err != nil || !reflect.DeepEqual(chain, []int{1, 0}) {
		t.Errorf("Ancestors(3)=%v,%v; expected [1 0]", chain, err)
	}
}

func TestNodeCycleFailsSection(t *testing.T) {
	f := newTestFile()
	f.addNodes(
		testNode{name: "root", typ: NODE_ROOT, parent: -1, children: []int{1}},
		testNode{name: "loop", typ: NODE_NULL, parent: 0, children: []int{0}},
	)
	s := f.decode(t)
	if st, _ := s.Report.Section("nodes"); st.State != SECTION_FAILED || st.Count != 2 {
		t.Errorf("nodes %+v; expected failed with 2 nodes", st)
	}
	if len(s.Nodes) != 2 || s.RootIndex != -1 {
		t.Errorf("%d nodes root %d; expected 2 nodes without root", len(s.Nodes), s.RootIndex)
	}
}

func TestAmbiguousRoot(t *testing.T) {
	f := newTestFile()
	f.addNodes(
		testNode{name: "a", typ: NODE_ROOT, parent: -1},
		testNode{name: "b", typ: NODE_NULL, parent: -1},
		testNode{name: "cam", typ: NODE_CAMERA},
	)
	s := f.decode(t)
	if st, _ := s.Report.Section("nodes"); st.State != SECTION_FAILED {
		t.Errorf("nodes %v; expected failed", st.State)
	}
	if s.RootIndex != -1 {
		t.Errorf("root %d; expected -1", s.RootIndex)
	}
	// camera carries no hierarchy and is never a root candidate
	if s.Nodes[2].Hierarchy != nil || s.Nodes[2].Camera() == nil {
		t.Errorf("camera node %+v", s.Nodes[2])
	}
}

func TestUnknownNodeType(t *testing.T) {
	f := newTestFile()
	f.addNodes(testNode{name: "x", typ: NodeType(42), parent: -1})
	s := f.decode(t)
	st, _ := s.Report.Section("nodes")
	if st.State != SECTION_FAILED || s.Nodes != nil {
		t.Errorf("nodes %+v with %d nodes; expected failed section", st, len(s.Nodes))
	}
}

func TestReplicaOfNonNull(t *testing.T) {
	f := newTestFile()
	f.addNodes(
		testNode{name: "root", typ: NODE_ROOT, parent: -1, children: []int{1, 2}},
		testNode{name: "joint", typ: NODE_JOINT, parent: 0},
		testNode{name: "copy", typ: NODE_REPLICA, parent: 0, replica: 1},
	)
	s := f.decode(t)
	if s.RootIndex != 0 {
		t.Fatalf("root %d; expected 0", s.RootIndex)
	}
	if w := s.Report.WarningsOf(KindConsistency); len(w) != 1 || w[0].Item != 2 {
		t.Errorf("warnings %v; expected one about node 2", w)
	}
}

func TestParentChildMismatchReported(t *testing.T) {
	f := newTestFile()
	f.addNodes(
		testNode{name: "root", typ: NODE_ROOT, parent: -1, children: []int{1}},
		testNode{name: "a", typ: NODE_NULL, parent: 0},
		testNode{name: "b", typ: NODE_NULL, parent: 0},
	)
	s := f.decode(t)
	if st, _ := s.Report.Section("nodes"); st.State != SECTION_PARSED {
		t.Fatalf("nodes %v; expected parsed", st.State)
	}
	if w := s.Report.WarningsOf(KindConsistency); len(w) != 1 || w[0].Item != 2 {
		t.Errorf("warnings %v; expected one about node 2", w)
	}
}

func TestMeshWithoutGeometry(t *testing.T) {
	f := newTestFile()
	f.addNodes(
		testNode{name: "root", typ: NODE_ROOT, parent: -1, children: []int{1}},
		testNode{name: "empty", typ: NODE_MESH, parent: 0, mesh: &testMesh{
			primitives: 0, positions: 0, normals: -1, colors: -1, uvs: -1, attribute: -1, envelopeIndex: -1,
		}},
	)
	s := f.decode(t)
	if m := s.Nodes[1].Mesh(); m == nil || m.Primitives != nil {
		t.Errorf("mesh %+v; expected unresolved", m)
	}
	if len(s.MeshNodes()) != 0 {
		t.Errorf("MeshNodes()=%v; expected none", s.MeshNodes())
	}
	if len(s.Report.WarningsOf(KindConsistency)) == 0 {
		t.Errorf("missing geometry not reported")
	}
}

func TestNodeTypeNames(t *testing.T) {
	for _, c := range []struct {
		t            NodeType
		name         string
		hierarchical bool
		null         bool
	}{
		{NODE_NULL, "Null", true, true},
		{NODE_NONE, "None", true, true},
		{NODE_MESH, "Mesh", true, false},
		{NODE_CAMERA, "Camera", false, false},
		{NODE_LIGHT, "Light", false, false},
		{NodeType(12), "NodeType(12)", true, false},
	} {
		if c.t.String() != c.name || c.t.Hierarchical() != c.hierarchical || c.t.IsNull() != c.null {
			t.Errorf("%d: %q hierarchical=%v null=%v; expected %q %v %v",
				int(c.t), c.t.String(), c.t.Hierarchical(), c.t.IsNull(), c.name, c.hierarchical, c.null)
		}
	}
}
