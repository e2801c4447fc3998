package hsf

import (
	"bytes"
	"fmt"
	"log"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/mogaika/hsf_browser/imgexport"
	"github.com/mogaika/hsf_browser/utils"
	"github.com/mogaika/hsf_browser/utils/gltfutils"
)

type gltfCacheKind int

const (
	gltfCacheMesh gltfCacheKind = iota
	gltfCacheMaterial
	gltfCacheImage
	gltfCacheTexture
)

type gltfCacheKey struct {
	Kind  gltfCacheKind
	Index int
	Extra int
}

type GLTFMeshExported struct {
	MeshIndex uint32
	// hsf node indexes of JOINTS_0 slots, nil for static mesh
	Joints []int
}

type gltfExporter struct {
	scene  *Scene
	cacher *gltfutils.GLTFCacher
	doc    *gltf.Document
	names  utils.UniqueNames

	// first gltf node created for hsf node, replicas create more
	nodes map[int]uint32
	// replicated nodes currently being expanded
	active map[int]bool
	skins  []pendingSkin
}

type pendingSkin struct {
	gltfNode uint32
	mesh     *GLTFMeshExported
}

func blendToAlphaMode(a *Attribute) gltf.AlphaMode {
	if a == nil {
		return gltf.AlphaOpaque
	}
	if a.Blend == BLEND_ADDITIVE || (a.Blend == BLEND_MIX && a.AlphaFlag) {
		return gltf.AlphaBlend
	}
	return gltf.AlphaOpaque
}

func wrapToGLTF(w WrapMode) gltf.WrappingMode {
	switch w {
	case WRAP_CLAMP:
		return gltf.WrapClampToEdge
	case WRAP_MIRROR:
		return gltf.WrapMirroredRepeat
	}
	return gltf.WrapRepeat
}

func (ge *gltfExporter) exportImage(t *Texture) (uint32, error) {
	key := gltfCacheKey{Kind: gltfCacheImage, Index: t.Index}
	if cached, ok := ge.cacher.GetCached(key); ok {
		return cached.(uint32), nil
	}
	var buf bytes.Buffer
	if err := imgexport.Encode(&buf, t.Image, imgexport.PNG); err != nil {
		return 0, errors.Wrapf(err, "encoding texture %q", t.Name)
	}
	imageIndex, err := modeler.WriteImage(ge.doc, ge.names.Get(t.Name+"_image"), "image/png", &buf)
	if err != nil {
		return 0, errors.Wrapf(err, "Failed to write gltf image")
	}
	ge.cacher.AddCache(key, imageIndex)
	return imageIndex, nil
}

// exportTexture writes texture with sampler of attribute wrap modes
func (ge *gltfExporter) exportTexture(t *Texture, a *Attribute) (uint32, error) {
	key := gltfCacheKey{Kind: gltfCacheTexture, Index: t.Index, Extra: int(a.WrapS)<<8 | int(a.WrapT)}
	if cached, ok := ge.cacher.GetCached(key); ok {
		return cached.(uint32), nil
	}

	imageIndex, err := ge.exportImage(t)
	if err != nil {
		return 0, err
	}

	sampler := &gltf.Sampler{
		Name:      t.Name + "_sampler",
		MagFilter: gltf.MagLinear,
		MinFilter: gltf.MinLinear,
		WrapS:     wrapToGLTF(a.WrapS),
		WrapT:     wrapToGLTF(a.WrapT),
	}
	samplerIndex := uint32(len(ge.doc.Samplers))
	ge.doc.Samplers = append(ge.doc.Samplers, sampler)

	textureIndex := uint32(len(ge.doc.Textures))
	ge.doc.Textures = append(ge.doc.Textures, &gltf.Texture{
		Name:    t.Name,
		Sampler: gltf.Index(samplerIndex),
		Source:  gltf.Index(imageIndex),
	})
	ge.cacher.AddCache(key, textureIndex)
	return textureIndex, nil
}

func (ge *gltfExporter) exportMaterial(index int) (uint32, error) {
	key := gltfCacheKey{Kind: gltfCacheMaterial, Index: index}
	if cached, ok := ge.cacher.GetCached(key); ok {
		return cached.(uint32), nil
	}

	s := ge.scene
	gltfMaterial := &gltf.Material{
		Name:        fmt.Sprintf("material_%d", index),
		DoubleSided: true,
	}
	var m *Material
	if index >= 0 && index < len(s.Materials) {
		m = s.Materials[index]
	}
	color := new([4]float32)
	*color = [4]float32{1, 1, 1, 1}
	if m != nil {
		if m.Name != "" {
			gltfMaterial.Name = m.Name
		}
		*color = [4]float32(utils.NewColorFloatRGB(m.MaterialColor))
		color[3] = 1 - m.Transparency()
	}
	gltfMaterial.PBRMetallicRoughness = &gltf.PBRMetallicRoughness{
		BaseColorFactor: color,
	}

	a := s.AttributeFor(m)
	gltfMaterial.AlphaMode = blendToAlphaMode(a)
	if color[3] < 1 {
		gltfMaterial.AlphaMode = gltf.AlphaBlend
	}
	if t := s.TextureFor(m); t != nil {
		textureIndex, err := ge.exportTexture(t, a)
		if err != nil {
			return 0, err
		}
		gltfMaterial.PBRMetallicRoughness.BaseColorTexture = &gltf.TextureInfo{
			Index: textureIndex,
		}
	}

	materialIndex := uint32(len(ge.doc.Materials))
	ge.doc.Materials = append(ge.doc.Materials, gltfMaterial)
	ge.cacher.AddCache(key, materialIndex)
	return materialIndex, nil
}

// jointSlots picks up to four strongest bones of vertex and scales their
// weights back to sum of 1. Vertex without weights follows owner joint.
func jointSlots(weights []BoneWeight, slot map[int]int, owner int) (joints [4]uint16, w [4]float32) {
	sorted := append([]BoneWeight(nil), weights...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Weight > sorted[j].Weight })
	var total float32
	for i := 0; i < len(sorted) && i < 4; i++ {
		joints[i] = uint16(slot[sorted[i].Bone])
		w[i] = sorted[i].Weight
		total += w[i]
	}
	if total <= 0 {
		return [4]uint16{uint16(slot[owner])}, [4]float32{1}
	}
	for i := range w {
		w[i] /= total
	}
	return
}

// exportMesh writes mesh of node once, replicas reuse it
func (ge *gltfExporter) exportMesh(index int) (*GLTFMeshExported, error) {
	key := gltfCacheKey{Kind: gltfCacheMesh, Index: index}
	if cached, ok := ge.cacher.GetCached(key); ok {
		return cached.(*GLTFMeshExported), nil
	}

	s := ge.scene
	n := s.Nodes[index]
	m := n.Mesh()
	triangles, err := s.MeshTriangles(index)
	if err != nil {
		return nil, err
	}

	exported := &GLTFMeshExported{}
	weights := s.VertexWeights(index)
	var slot map[int]int
	if weights != nil {
		slot = make(map[int]int)
		addJoint := func(bone int) {
			if _, ok := slot[bone]; !ok {
				slot[bone] = 0
				exported.Joints = append(exported.Joints, bone)
			}
		}
		for _, vertexWeights := range weights {
			for _, w := range vertexWeights {
				addJoint(w.Bone)
			}
		}
		for _, t := range triangles {
			for _, c := range t.Corners {
				if len(weights[c.Vertex.Position]) == 0 {
					addJoint(index)
				}
			}
		}
		sort.Ints(exported.Joints)
		for i, bone := range exported.Joints {
			slot[bone] = i
		}
	}

	byMaterial := make(map[int][]Triangle)
	materials := make([]int, 0)
	for _, t := range triangles {
		if _, ok := byMaterial[t.Material]; !ok {
			materials = append(materials, t.Material)
		}
		byMaterial[t.Material] = append(byMaterial[t.Material], t)
	}
	sort.Ints(materials)

	if len(materials) == 0 {
		ge.cacher.AddCache(key, (*GLTFMeshExported)(nil))
		return nil, nil
	}

	gltfMesh := &gltf.Mesh{Name: ge.names.Get(m.Primitives.Name)}
	for _, material := range materials {
		tris := byMaterial[material]
		count := len(tris) * 3
		positions := make([][3]float32, 0, count)
		normals := make([][3]float32, 0, count)
		uvs := make([][2]float32, 0, count)
		colors := make([][4]uint8, 0, count)
		joints := make([][4]uint16, 0, count)
		jointWeights := make([][4]float32, 0, count)

		for _, t := range tris {
			for _, c := range t.Corners {
				positions = append(positions, c.Position)
				normals = append(normals, c.Normal)
				uvs = append(uvs, c.UV)
				colors = append(colors, utils.ColorFloat(c.Color).Bytes())
				if weights != nil {
					j, w := jointSlots(weights[c.Vertex.Position], slot, index)
					joints = append(joints, j)
					jointWeights = append(jointWeights, w)
				}
			}
		}

		attributes := map[string]uint32{
			"POSITION": modeler.WritePosition(ge.doc, positions),
		}
		if m.Normals != nil {
			attributes["NORMAL"] = modeler.WriteNormal(ge.doc, normals)
		}
		if m.UVs != nil {
			attributes["TEXCOORD_0"] = modeler.WriteTextureCoord(ge.doc, uvs)
		}
		if m.Colors != nil {
			attributes["COLOR_0"] = modeler.WriteColor(ge.doc, colors)
		}
		if weights != nil {
			attributes["JOINTS_0"] = modeler.WriteJoints(ge.doc, joints)
			attributes["WEIGHTS_0"] = modeler.WriteWeights(ge.doc, jointWeights)
		}

		materialIndex, err := ge.exportMaterial(material)
		if err != nil {
			return nil, err
		}
		gltfMesh.Primitives = append(gltfMesh.Primitives, &gltf.Primitive{
			Attributes: attributes,
			Material:   gltf.Index(materialIndex),
		})
	}

	exported.MeshIndex = uint32(len(ge.doc.Meshes))
	ge.doc.Meshes = append(ge.doc.Meshes, gltfMesh)
	ge.cacher.AddCache(key, exported)
	return exported, nil
}

func (ge *gltfExporter) exportNode(index int) (uint32, error) {
	s := ge.scene
	n := s.Nodes[index]
	t := n.LocalTransform()
	rotation := t.Quat()

	gltfNode := &gltf.Node{
		Name:        n.Name,
		Translation: t.Position,
		Rotation:    rotation.V.Vec4(rotation.W),
		Scale:       t.Scale,
	}
	nodeIndex := uint32(len(ge.doc.Nodes))
	ge.doc.Nodes = append(ge.doc.Nodes, gltfNode)
	_, instanced := ge.nodes[index]
	if !instanced {
		ge.nodes[index] = nodeIndex
	}

	if m := n.Mesh(); m != nil && m.Primitives != nil && m.Positions != nil {
		exported, err := ge.exportMesh(index)
		if err != nil {
			return 0, err
		}
		if exported != nil {
			gltfNode.Mesh = gltf.Index(exported.MeshIndex)
			if exported.Joints != nil && !instanced {
				ge.skins = append(ge.skins, pendingSkin{gltfNode: nodeIndex, mesh: exported})
			}
		}
	}

	if r := n.Replica(); r != nil && r.ReplicaIndex >= 0 && r.ReplicaIndex < len(s.Nodes) && s.Nodes[r.ReplicaIndex].Type.IsNull() {
		if ge.active[r.ReplicaIndex] {
			return 0, newError(KindCyclicGraph, SECTION_NODES, index, -1, "%v replicates its own ancestor %d", n, r.ReplicaIndex)
		}
		ge.active[r.ReplicaIndex] = true
		child, err := ge.exportNode(r.ReplicaIndex)
		delete(ge.active, r.ReplicaIndex)
		if err != nil {
			return 0, err
		}
		gltfNode.Children = append(gltfNode.Children, child)
	}

	for _, childIndex := range n.Children {
		child, err := ge.exportNode(childIndex)
		if err != nil {
			return 0, err
		}
		gltfNode.Children = append(gltfNode.Children, child)
	}
	return nodeIndex, nil
}

func mat4ToGLTF(m mgl32.Mat4) (out [4][4]float32) {
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			out[col][row] = m[col*4+row]
		}
	}
	return
}

// exportSkins runs after node tree is written, joints must be exported nodes
func (ge *gltfExporter) exportSkins() error {
	s := ge.scene
	for _, pending := range ge.skins {
		skin := &gltf.Skin{
			Joints: make([]uint32, 0, len(pending.mesh.Joints)),
		}
		inverseBinds := make([][4][4]float32, 0, len(pending.mesh.Joints))
		complete := true
		for _, bone := range pending.mesh.Joints {
			joint, ok := ge.nodes[bone]
			if !ok {
				complete = false
				break
			}
			world, err := s.WorldTransform(bone)
			if err != nil {
				return err
			}
			skin.Joints = append(skin.Joints, joint)
			inverseBinds = append(inverseBinds, mat4ToGLTF(world.Inv()))
		}
		if !complete {
			log.Printf("[gltf] skin of node %q references bones outside of scene tree, skipped", ge.doc.Nodes[pending.gltfNode].Name)
			continue
		}
		skin.Name = ge.doc.Nodes[pending.gltfNode].Name + "_skin"
		skin.InverseBindMatrices = gltf.Index(modeler.WriteAccessor(ge.doc, gltf.TargetNone, inverseBinds))
		ge.doc.Nodes[pending.gltfNode].Skin = gltf.Index(uint32(len(ge.doc.Skins)))
		ge.doc.Skins = append(ge.doc.Skins, skin)
	}
	return nil
}

// ExportGLTF converts scene tree starting at root into glTF document
func ExportGLTF(s *Scene) (*gltf.Document, error) {
	if s.RootIndex < 0 {
		return nil, newError(KindConsistency, SECTION_NODES, -1, -1, "scene has no root node")
	}
	cacher := gltfutils.NewCacher()
	ge := &gltfExporter{
		scene:  s,
		cacher: cacher,
		doc:    cacher.Doc,
		nodes:  make(map[int]uint32),
		active: make(map[int]bool),
	}

	root, err := ge.exportNode(s.RootIndex)
	if err != nil {
		return nil, err
	}
	if err := ge.exportSkins(); err != nil {
		return nil, err
	}
	ge.doc.Scenes[0].Nodes = append(ge.doc.Scenes[0].Nodes, root)
	return ge.doc, nil
}
