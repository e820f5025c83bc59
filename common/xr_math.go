package common

import "math"

// ProjectionFromFov creates a projection matrix from a per-eye asymmetric
// field of view, as reported by a head-mounted display runtime. The four
// angles are signed half-angles in radians from the view axis; left and down
// are typically negative. Output follows WebGPU clip space conventions
// (positive Y up, depth in [0, 1]).
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - angleLeft, angleRight, angleUp, angleDown: signed half-angles in radians
//   - near: near clipping plane distance (must be > 0)
//   - far: far clipping plane distance; pass 0 (or any value <= near) to place
//     the far plane at infinity
func ProjectionFromFov(out []float32, angleLeft, angleRight, angleUp, angleDown, near, far float32) {
	ProjectionFromTan(out,
		float32(math.Tan(float64(angleLeft))),
		float32(math.Tan(float64(angleRight))),
		float32(math.Tan(float64(angleUp))),
		float32(math.Tan(float64(angleDown))),
		near, far,
	)
}

// ProjectionFromTan creates an off-center projection matrix from the tangents
// of the four frustum half-angles. All matrices are column-major.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - tanLeft, tanRight, tanUp, tanDown: signed tangents of the half-angles
//   - near: near clipping plane distance (must be > 0)
//   - far: far clipping plane distance; values <= near select an infinite far
//     plane
func ProjectionFromTan(out []float32, tanLeft, tanRight, tanUp, tanDown, near, far float32) {
	tanWidth := tanRight - tanLeft
	// Positive Y up in clip space (WebGPU / Metal / D3D convention).
	tanHeight := tanUp - tanDown

	Identity(out)
	out[0] = 2.0 / tanWidth
	out[5] = 2.0 / tanHeight
	out[8] = (tanRight + tanLeft) / tanWidth
	out[9] = (tanUp + tanDown) / tanHeight
	out[11] = -1.0
	out[15] = 0.0

	if far <= near {
		// Far plane at infinity, depth in [0, 1].
		out[10] = -1.0
		out[14] = -near
	} else {
		out[10] = -far / (far - near)
		out[14] = -(far * near) / (far - near)
	}
}

// PoseToMatrix constructs a rigid transform matrix from a position and a unit
// quaternion rotation. The result maps pose-local coordinates into the space
// the pose is expressed in. Column-major.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - posX, posY, posZ: translation
//   - quatX, quatY, quatZ, quatW: unit quaternion rotation
func PoseToMatrix(out []float32, posX, posY, posZ, quatX, quatY, quatZ, quatW float32) {
	x2 := quatX + quatX
	y2 := quatY + quatY
	z2 := quatZ + quatZ

	xx2 := x2 * quatX
	xy2 := x2 * quatY
	xz2 := x2 * quatZ

	yy2 := y2 * quatY
	yz2 := y2 * quatZ
	zz2 := z2 * quatZ

	sx2 := x2 * quatW
	sy2 := y2 * quatW
	sz2 := z2 * quatW

	out[0] = 1.0 - yy2 - zz2
	out[1] = xy2 + sz2
	out[2] = xz2 - sy2
	out[3] = 0

	out[4] = xy2 - sz2
	out[5] = 1.0 - xx2 - zz2
	out[6] = yz2 + sx2
	out[7] = 0

	out[8] = xz2 + sy2
	out[9] = yz2 - sx2
	out[10] = 1.0 - xx2 - yy2
	out[11] = 0

	out[12] = posX
	out[13] = posY
	out[14] = posZ
	out[15] = 1
}

// RigidInverse inverts a rigid transform (rotation + translation, no scale)
// by transposing the rotation block and counter-rotating the translation.
// Much cheaper than a general 4x4 inverse and exact for pose matrices.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements, distinct from m)
//   - m: source rigid transform (16 elements, column-major)
func RigidInverse(out, m []float32) {
	out[0], out[4], out[8] = m[0], m[1], m[2]
	out[1], out[5], out[9] = m[4], m[5], m[6]
	out[2], out[6], out[10] = m[8], m[9], m[10]
	out[3], out[7], out[11] = 0, 0, 0

	out[12] = -(m[0]*m[12] + m[1]*m[13] + m[2]*m[14])
	out[13] = -(m[4]*m[12] + m[5]*m[13] + m[6]*m[14])
	out[14] = -(m[8]*m[12] + m[9]*m[13] + m[10]*m[14])
	out[15] = 1
}
