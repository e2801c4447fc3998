package hsf

// Corner is vertex of expanded triangle with attribute values looked up
type Corner struct {
	Vertex
	Position [3]float32
	Normal   [3]float32
	Color    [4]float32
	UV       [2]float32
}

type Triangle struct {
	Material  int
	FlagValue int
	Corners   [3]Corner
}

func lookup[T any](g *Group[T], index int, node *Node, kind string) (T, bool, error) {
	var zero T
	if g == nil || index < 0 {
		return zero, false, nil
	}
	if index >= len(g.Items) {
		return zero, false, newError(KindOutOfBounds, SECTION_NODES, node.Index, -1,
			"%v: %s index %d out of group %q of %d", node, kind, index, g.Name, len(g.Items))
	}
	return g.Items[index], true, nil
}

// MeshTriangles expands primitives of mesh node into triangles
func (s *Scene) MeshTriangles(index int) ([]Triangle, error) {
	n := s.Node(index)
	if n == nil {
		return nil, newError(KindOutOfBounds, SECTION_NODES, index, -1, "node %d of %d", index, len(s.Nodes))
	}
	m := n.Mesh()
	if m == nil || m.Primitives == nil || m.Positions == nil {
		return nil, newError(KindConsistency, SECTION_NODES, index, -1, "%v has no resolved geometry", n)
	}

	corner := func(v Vertex) (c Corner, err error) {
		c.Vertex = v
		var ok bool
		if c.Position, ok, err = lookup(m.Positions, v.Position, n, "position"); err != nil {
			return
		} else if !ok {
			err = newError(KindConsistency, SECTION_NODES, index, -1, "%v: vertex without position", n)
			return
		}
		if c.Normal, _, err = lookup(m.Normals, v.Normal, n, "normal"); err != nil {
			return
		}
		if c.Color, ok, err = lookup(m.Colors, v.Color, n, "color"); err != nil {
			return
		} else if !ok {
			c.Color = [4]float32{1, 1, 1, 1}
		}
		c.UV, _, err = lookup(m.UVs, v.UV, n, "uv")
		return
	}

	triangles := make([]Triangle, 0, len(m.Primitives.Items))
	for iPrim := range m.Primitives.Items {
		p := &m.Primitives.Items[iPrim]
		for _, tri := range p.Triangles() {
			t := Triangle{Material: p.Material, FlagValue: p.FlagValue}
			for i, vi := range tri {
				var err error
				if t.Corners[i], err = corner(p.Vertices[vi]); err != nil {
					return nil, err
				}
			}
			triangles = append(triangles, t)
		}
	}
	return triangles, nil
}
