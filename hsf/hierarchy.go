package hsf

// resolveMesh links mesh node indexes to decoded groups.
// Mesh without primitives or positions is reported and left unresolved.
func resolveMesh(ctx *ParseContext, s *Scene, n *Node) {
	m := n.Mesh()
	warn := func(format string, a ...interface{}) {
		ctx.report.warn(newError(KindConsistency, SECTION_NODES, n.Index, -1, "%v: "+format, append([]interface{}{n}, a...)...))
	}

	if m.PrimitivesIndex < 0 || m.PrimitivesIndex >= len(s.Primitives) {
		warn("primitives group %d is not available", m.PrimitivesIndex)
		return
	}
	if m.PositionsIndex < 0 || m.PositionsIndex >= len(s.Positions) {
		warn("positions group %d is not available", m.PositionsIndex)
		return
	}
	m.Primitives = s.Primitives[m.PrimitivesIndex]
	m.Positions = s.Positions[m.PositionsIndex]
	if m.Primitives.Name != m.Positions.Name {
		warn("primitives %q and positions %q names differ", m.Primitives.Name, m.Positions.Name)
	}

	if m.UVsIndex >= 0 {
		if m.UVsIndex < len(s.UVs) {
			m.UVs = s.UVs[m.UVsIndex]
		} else {
			warn("uv group %d out of range", m.UVsIndex)
		}
	}
	if m.ColorsIndex >= 0 {
		if m.ColorsIndex < len(s.Colors) {
			m.Colors = s.Colors[m.ColorsIndex]
		} else {
			warn("color group %d out of range", m.ColorsIndex)
		}
	}

	if m.EnvelopeCount > 0 {
		if m.EnvelopeIndex < 0 || m.EnvelopeIndex+m.EnvelopeCount > len(s.Envelopes) {
			warn("envelopes [%d:+%d] out of range (%d rigs)", m.EnvelopeIndex, m.EnvelopeCount, len(s.Envelopes))
		} else {
			m.Envelopes = s.Envelopes[m.EnvelopeIndex : m.EnvelopeIndex+m.EnvelopeCount]
		}
	}

	if m.AttributeIndex >= len(s.Attributes) {
		warn("attribute %d out of range", m.AttributeIndex)
	}

	if m.NormalsIndex >= 0 && ctx.normals != nil {
		if m.NormalsIndex >= len(ctx.normals.headers) {
			warn("normal group %d out of range", m.NormalsIndex)
			return
		}
		isFloat := m.Skinned()
		switch ctx.opts.Normals {
		case NORMALS_BYTE:
			isFloat = false
		case NORMALS_FLOAT:
			isFloat = true
		}
		g, err := ctx.normals.group(ctx, m.NormalsIndex, isFloat)
		if err != nil {
			ctx.report.warn(wrapError(err, SECTION_NORMALS, m.NormalsIndex, -1))
			return
		}
		m.Normals = g
	}
}

// resolveNodes is second pass: links meshes, replicas, parents and children.
// Error is returned only for missing or ambiguous root.
func resolveNodes(ctx *ParseContext, s *Scene) error {
	nodes := s.Nodes
	roots := make([]int, 0, 1)

	for _, n := range nodes {
		switch p := n.Payload.(type) {
		case *MeshData:
			resolveMesh(ctx, s, n)
		case *ReplicaData:
			if p.ReplicaIndex < 0 || p.ReplicaIndex >= len(nodes) {
				ctx.report.warn(newError(KindConsistency, SECTION_NODES, n.Index, -1,
					"%v: replica index %d out of range", n, p.ReplicaIndex))
			} else if target := nodes[p.ReplicaIndex]; !target.Type.IsNull() {
				ctx.report.warn(newError(KindConsistency, SECTION_NODES, n.Index, -1,
					"%v: replicates %v, expected Null node", n, target))
			}
		}

		h := n.Hierarchy
		if h == nil {
			continue
		}
		if h.Parent == -1 {
			roots = append(roots, n.Index)
		} else if h.Parent < 0 || h.Parent >= len(nodes) {
			ctx.report.warn(newError(KindConsistency, SECTION_NODES, n.Index, -1,
				"%v: parent %d out of range", n, h.Parent))
		} else {
			n.Parent = h.Parent
		}

		if h.ChildrenCount <= 0 {
			continue
		}
		if h.SymbolIndex < 0 || h.SymbolIndex+h.ChildrenCount > len(s.Symbols) {
			ctx.report.warn(newError(KindConsistency, SECTION_NODES, n.Index, -1,
				"%v: children symbols [%d:+%d] out of range", n, h.SymbolIndex, h.ChildrenCount))
			continue
		}
		n.Children = make([]int, 0, h.ChildrenCount)
		for _, child := range s.Symbols[h.SymbolIndex : h.SymbolIndex+h.ChildrenCount] {
			if child < 0 || child >= len(nodes) {
				ctx.report.warn(newError(KindConsistency, SECTION_NODES, n.Index, -1,
					"%v: child %d out of range", n, child))
				continue
			}
			n.Children = append(n.Children, child)
		}
	}

	s.RootIndex = -1
	switch len(roots) {
	case 0:
		return newError(KindConsistency, SECTION_NODES, -1, -1, "no root node")
	case 1:
		s.RootIndex = roots[0]
		return nil
	default:
		return newError(KindConsistency, SECTION_NODES, -1, -1, "%d root candidates %v", len(roots), roots)
	}
}

func containsIndex(list []int, v int) bool {
	for _, i := range list {
		if i == v {
			return true
		}
	}
	return false
}

// verifyNodes is third pass, every violation is reported and nothing is patched
func verifyNodes(ctx *ParseContext, s *Scene) {
	for _, n := range s.Nodes {
		fail := func(format string, a ...interface{}) {
			ctx.report.warn(newError(KindConsistency, SECTION_NODES, n.Index, -1, "%v: "+format, append([]interface{}{n}, a...)...))
		}
		if n.Hierarchy == nil {
			if n.Parent != -1 || len(n.Children) != 0 {
				fail("node without hierarchy has links")
			}
			continue
		}
		if n.Parent != -1 {
			if !containsIndex(s.Nodes[n.Parent].Children, n.Index) {
				fail("not listed in children of parent %v", s.Nodes[n.Parent])
			}
		} else if n.Hierarchy.Parent == -1 && s.RootIndex != -1 && n.Index != s.RootIndex {
			fail("has no parent but root is node %d", s.RootIndex)
		}
		for _, child := range n.Children {
			if s.Nodes[child].Parent != n.Index {
				fail("child %v has parent %d", s.Nodes[child], s.Nodes[child].Parent)
			}
		}
	}
}

// WalkFunc is called for every reached node with depth from start
type WalkFunc func(n *Node, depth int) error

// Walk visits nodes depth first from start in symbol order.
// Replica nodes are visited but replicated subtree is not entered.
// Visiting same node twice fails with KindCyclicGraph.
func (s *Scene) Walk(start int, fn WalkFunc) error {
	if start < 0 || start >= len(s.Nodes) {
		return newError(KindOutOfBounds, SECTION_NODES, start, -1, "walk start %d of %d nodes", start, len(s.Nodes))
	}
	visited := make([]bool, len(s.Nodes))
	var walk func(index int, depth int) error
	walk = func(index int, depth int) error {
		if visited[index] {
			return newError(KindCyclicGraph, SECTION_NODES, index, -1, "%v reached twice", s.Nodes[index])
		}
		visited[index] = true
		if fn != nil {
			if err := fn(s.Nodes[index], depth); err != nil {
				return err
			}
		}
		for _, child := range s.Nodes[index].Children {
			if err := walk(child, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(start, 0)
}

// WalkRoot walks from the root node
func (s *Scene) WalkRoot(fn WalkFunc) error {
	if s.RootIndex < 0 {
		return newError(KindConsistency, SECTION_NODES, -1, -1, "scene has no root")
	}
	return s.Walk(s.RootIndex, fn)
}

// Ancestors returns parent chain of node starting from its parent
func (s *Scene) Ancestors(index int) ([]int, error) {
	chain := make([]int, 0)
	seen := map[int]bool{index: true}
	for p := s.Nodes[index].Parent; p != -1; p = s.Nodes[p].Parent {
		if seen[p] {
			return nil, newError(KindCyclicGraph, SECTION_NODES, index, -1, "parent chain of %v loops at node %d", s.Nodes[index], p)
		}
		seen[p] = true
		chain = append(chain, p)
	}
	return chain, nil
}
