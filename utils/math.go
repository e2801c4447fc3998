package utils

import (
	"github.com/go-gl/mathgl/mgl32"
)

func DegreesToRadiansV3(v mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{mgl32.DegToRad(v[0]), mgl32.DegToRad(v[1]), mgl32.DegToRad(v[2])}
}

// EulerToQuat converts XYZ euler angles in degrees, rotation applied x first then y then z
func EulerToQuat(degrees mgl32.Vec3) mgl32.Quat {
	r := DegreesToRadiansV3(degrees)
	qx := mgl32.QuatRotate(r[0], mgl32.Vec3{1, 0, 0})
	qy := mgl32.QuatRotate(r[1], mgl32.Vec3{0, 1, 0})
	qz := mgl32.QuatRotate(r[2], mgl32.Vec3{0, 0, 1})
	return qz.Mul(qy).Mul(qx).Normalize()
}

// EulerToMat4 is Rz * Ry * Rx of angles in degrees
func EulerToMat4(degrees mgl32.Vec3) mgl32.Mat4 {
	r := DegreesToRadiansV3(degrees)
	return mgl32.HomogRotate3DZ(r[2]).Mul4(mgl32.HomogRotate3DY(r[1])).Mul4(mgl32.HomogRotate3DX(r[0]))
}

// TRSMatrix composes translation * rotation * scale
func TRSMatrix(translation, rotationDegrees, scale mgl32.Vec3) mgl32.Mat4 {
	return mgl32.Translate3D(translation[0], translation[1], translation[2]).
		Mul4(EulerToMat4(rotationDegrees)).
		Mul4(mgl32.Scale3D(scale[0], scale[1], scale[2]))
}
