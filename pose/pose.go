// Package pose implements the SE(2) and SE(3) rigid-transform algebra the
// rest of this module builds on: keyframe-to-keyframe relative poses,
// landmark coordinates, and the spanning-tree composition all flow through
// the same Compose/Inverse pair defined here.
//
// The split between a 2D angle-only rotation (SE2) and a quaternion
// rotation (SE3) mirrors go.viam.com/rdk/spatialmath's split between
// Orientation implementations; SE3 reuses gonum's quat.Number the same way
// spatialmath does for its angular-velocity and axis-angle helpers.
package pose

import (
	"math"

	"github.com/golang/geo/r3"
)

// Pose is a rigid transform in either SE(2) or SE(3). It is the pose of
// "this frame" expressed in the frame it was composed against; see Compose.
type Pose interface {
	// Translation returns the translation component of the pose.
	Translation() r3.Vector
	// Compose returns A+B, i.e. this pose followed by other.
	Compose(other Pose) Pose
	// Inverse returns -P.
	Inverse() Pose
	// Transform maps a point given in this pose's own frame into the
	// frame this pose is relative to.
	Transform(pt r3.Vector) r3.Vector
	// Params returns the minimal tangent-space parameterization used by
	// the optimizer: [x,y,yaw] for SE2, [x,y,z,rx,ry,rz] for SE3.
	Params() []float64
	// Dims returns len(Params()).
	Dims() int
	// Clone returns a deep (value) copy.
	Clone() Pose
}

// AlmostEqual reports whether a and b are within tol in every tangent
// parameter, after composing a with -b (so rotation wraparound near 0 is
// handled the same way as elsewhere in this package: via Compose/Inverse,
// never via naive angle subtraction).
func AlmostEqual(a, b Pose, tol float64) bool {
	diff := Compose(a, Inverse(b))
	for _, v := range diff.Params() {
		if math.Abs(v) > tol {
			return false
		}
	}
	return true
}

// Compose returns A+B.
func Compose(a, b Pose) Pose { return a.Compose(b) }

// Inverse returns -P.
func Inverse(p Pose) Pose { return p.Inverse() }

// Between returns (-A)+B, the pose of B expressed in A's frame.
func Between(a, b Pose) Pose { return Compose(Inverse(a), b) }

// IdentityLike returns the identity pose of the same kind (SE2/SE3) as p.
func IdentityLike(p Pose) Pose {
	switch p.(type) {
	case SE2:
		return IdentitySE2()
	case SE3:
		return IdentitySE3()
	default:
		panic("pose: unknown Pose implementation")
	}
}
