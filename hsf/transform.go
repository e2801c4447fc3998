package hsf

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/hsf_browser/utils"
)

// Matrix returns T * Rz * Ry * Rx * S
func (t Transform) Matrix() mgl32.Mat4 {
	return utils.TRSMatrix(t.Position, t.Rotation, t.Scale)
}

func (t Transform) Quat() mgl32.Quat {
	return utils.EulerToQuat(t.Rotation)
}

// WorldTransform is product of local transforms from root down to node
func (s *Scene) WorldTransform(index int) (mgl32.Mat4, error) {
	if index < 0 || index >= len(s.Nodes) {
		return mgl32.Ident4(), newError(KindOutOfBounds, SECTION_NODES, index, -1, "node %d of %d", index, len(s.Nodes))
	}
	chain, err := s.Ancestors(index)
	if err != nil {
		return mgl32.Ident4(), err
	}
	world := mgl32.Ident4()
	for i := len(chain) - 1; i >= 0; i-- {
		world = world.Mul4(s.Nodes[chain[i]].LocalTransform().Matrix())
	}
	return world.Mul4(s.Nodes[index].LocalTransform().Matrix()), nil
}
