package hsf

type TextureSummary struct {
	Index         int
	Name          string
	Width         int
	Height        int
	Format        string
	PaletteFormat string `json:",omitempty"`
	Error         string `json:",omitempty"`
}

type MeshSummary struct {
	Primitives string
	Positions  string
	Normals    string `json:",omitempty"`
	Colors     string `json:",omitempty"`
	UVs        string `json:",omitempty"`
	Triangles  int
	Envelopes  int
}

type NodeSummary struct {
	Index    int
	Name     string
	Type     NodeType
	Parent   int
	Children []int
	Replica  *int         `json:",omitempty"`
	Mesh     *MeshSummary `json:",omitempty"`
	Payload  NodePayload  `json:",omitempty"`
}

type SceneSummary struct {
	Root       int
	Nodes      []NodeSummary
	Materials  []*Material
	Attributes []*Attribute
	Textures   []TextureSummary
	Fogs       []Fog
	Skeletons  []Skeleton
	Motions    []*Motion
	Report     *Report
	Summary    string
}

func groupName[T any](g *Group[T]) string {
	if g == nil {
		return ""
	}
	return g.Name
}

// Marshal builds json friendly view of scene for browser
func (s *Scene) Marshal() *SceneSummary {
	summary := &SceneSummary{
		Root:       s.RootIndex,
		Nodes:      make([]NodeSummary, len(s.Nodes)),
		Materials:  s.Materials,
		Attributes: s.Attributes,
		Textures:   make([]TextureSummary, len(s.Textures)),
		Fogs:       s.Fogs,
		Skeletons:  s.Skeletons,
		Motions:    s.Motions,
		Report:     s.Report,
		Summary:    s.Report.Summary(),
	}

	for i, n := range s.Nodes {
		ns := NodeSummary{
			Index:    n.Index,
			Name:     n.Name,
			Type:     n.Type,
			Parent:   n.Parent,
			Children: n.Children,
		}
		switch p := n.Payload.(type) {
		case *MeshData:
			ms := &MeshSummary{
				Primitives: groupName(p.Primitives),
				Positions:  groupName(p.Positions),
				Normals:    groupName(p.Normals),
				Colors:     groupName(p.Colors),
				UVs:        groupName(p.UVs),
				Envelopes:  len(p.Envelopes),
			}
			if triangles, err := s.MeshTriangles(i); err == nil {
				ms.Triangles = len(triangles)
			}
			ns.Mesh = ms
		case *ReplicaData:
			replica := p.ReplicaIndex
			ns.Replica = &replica
		case *CameraData, *LightData:
			ns.Payload = p
		}
		summary.Nodes[i] = ns
	}

	for i, t := range s.Textures {
		ts := TextureSummary{
			Index:  t.Index,
			Name:   t.Name,
			Width:  t.Width,
			Height: t.Height,
			Format: t.Format.String(),
			Error:  t.Error,
		}
		if t.Format.Paletted() {
			ts.PaletteFormat = t.PaletteFormat.String()
		}
		summary.Textures[i] = ts
	}
	return summary
}

// WithoutPixels returns shallow copy of scene with texture images
// dropped, so dumps stay readable
func (s *Scene) WithoutPixels() *Scene {
	c := *s
	c.Textures = make([]*Texture, len(s.Textures))
	for i, t := range s.Textures {
		tc := *t
		tc.Image = nil
		c.Textures[i] = &tc
	}
	return &c
}
