package common

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const matrixEpsilon = 1e-5

func assertMatrixEqual(t *testing.T, expected, actual []float32) {
	t.Helper()
	require.Len(t, actual, 16)
	for i := range expected {
		assert.InDelta(t, expected[i], actual[i], matrixEpsilon, "element %d", i)
	}
}

func TestProjectionFromTan_SymmetricFrustum(t *testing.T) {
	out := make([]float32, 16)
	ProjectionFromTan(out, -1, 1, 1, -1, 0.1, 100)

	// A symmetric 90-degree frustum has no off-center terms.
	assert.InDelta(t, 1.0, out[0], matrixEpsilon)
	assert.InDelta(t, 1.0, out[5], matrixEpsilon)
	assert.Zero(t, out[8])
	assert.Zero(t, out[9])
	assert.InDelta(t, -1.0, out[11], matrixEpsilon)
	assert.Zero(t, out[15])
}

func TestProjectionFromTan_DepthRange(t *testing.T) {
	out := make([]float32, 16)
	ProjectionFromTan(out, -1, 1, 1, -1, 0.1, 100)

	// Near maps to depth 0, far to depth 1 after perspective divide.
	nearZ := (out[10]*-0.1 + out[14]) / 0.1
	farZ := (out[10]*-100 + out[14]) / 100
	assert.InDelta(t, 0.0, nearZ, matrixEpsilon)
	assert.InDelta(t, 1.0, farZ, matrixEpsilon)
}

func TestProjectionFromTan_InfiniteFar(t *testing.T) {
	out := make([]float32, 16)
	ProjectionFromTan(out, -1, 1, 1, -1, 0.1, 0)

	assert.InDelta(t, -1.0, out[10], matrixEpsilon)
	assert.InDelta(t, -0.1, out[14], matrixEpsilon)

	// Near still maps to 0; depth approaches 1 with distance.
	nearZ := (out[10]*-0.1 + out[14]) / 0.1
	deepZ := (out[10]*-1e6 + out[14]) / 1e6
	assert.InDelta(t, 0.0, nearZ, matrixEpsilon)
	assert.InDelta(t, 1.0, deepZ, 1e-3)
}

func TestProjectionFromTan_OffCenterAsymmetry(t *testing.T) {
	out := make([]float32, 16)
	// A frustum skewed to the right and up.
	ProjectionFromTan(out, -0.5, 1.5, 1.2, -0.4, 0.1, 100)

	assert.InDelta(t, 0.5, out[8], matrixEpsilon)
	assert.InDelta(t, 0.5, out[9], matrixEpsilon)
}

func TestProjectionFromFov_MatchesTangents(t *testing.T) {
	fromFov := make([]float32, 16)
	fromTan := make([]float32, 16)

	left, right, up, down := float32(-0.7), float32(0.8), float32(0.6), float32(-0.9)
	ProjectionFromFov(fromFov, left, right, up, down, 0.01, 50)
	ProjectionFromTan(fromTan,
		float32(math.Tan(float64(left))),
		float32(math.Tan(float64(right))),
		float32(math.Tan(float64(up))),
		float32(math.Tan(float64(down))),
		0.01, 50,
	)

	assertMatrixEqual(t, fromTan, fromFov)
}

func TestPoseToMatrix_IdentityRotation(t *testing.T) {
	out := make([]float32, 16)
	PoseToMatrix(out, 1, 2, 3, 0, 0, 0, 1)

	expected := make([]float32, 16)
	Identity(expected)
	expected[12], expected[13], expected[14] = 1, 2, 3
	assertMatrixEqual(t, expected, out)
}

func TestPoseToMatrix_QuarterTurnAboutY(t *testing.T) {
	out := make([]float32, 16)
	halfAngle := math.Pi / 4
	PoseToMatrix(out, 0, 0, 0, 0, float32(math.Sin(halfAngle)), 0, float32(math.Cos(halfAngle)))

	// +X rotates to -Z under a 90-degree yaw.
	x := transformPoint(out, 1, 0, 0)
	assert.InDelta(t, 0.0, x[0], matrixEpsilon)
	assert.InDelta(t, 0.0, x[1], matrixEpsilon)
	assert.InDelta(t, -1.0, x[2], matrixEpsilon)
}

func TestRigidInverse_UndoesPose(t *testing.T) {
	pose := make([]float32, 16)
	inverse := make([]float32, 16)
	product := make([]float32, 16)

	halfAngle := 0.3
	PoseToMatrix(pose, 0.5, -1.25, 2.0,
		float32(math.Sin(halfAngle)), 0, 0, float32(math.Cos(halfAngle)))
	RigidInverse(inverse, pose)
	Mul4(product, inverse, pose)

	expected := make([]float32, 16)
	Identity(expected)
	assertMatrixEqual(t, expected, product)
}

func transformPoint(m []float32, x, y, z float32) [3]float32 {
	return [3]float32{
		m[0]*x + m[4]*y + m[8]*z + m[12],
		m[1]*x + m[5]*y + m[9]*z + m[13],
		m[2]*x + m[6]*y + m[10]*z + m[14],
	}
}
