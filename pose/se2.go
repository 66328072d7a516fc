package pose

import (
	"math"

	"github.com/golang/geo/r3"
)

// SE2 is a 2D rigid transform: a translation (X,Y) and a rotation Yaw, in
// radians, about +Z.
type SE2 struct {
	X, Y, Yaw float64
}

// IdentitySE2 returns the SE2 identity pose.
func IdentitySE2() SE2 { return SE2{} }

// NewSE2 builds an SE2 pose from its components.
func NewSE2(x, y, yaw float64) SE2 { return SE2{X: x, Y: y, Yaw: normalizeAngle(yaw)} }

// SE2FromParams reconstructs an SE2 pose from its tangent parameterization.
func SE2FromParams(p []float64) SE2 {
	if len(p) != 3 {
		panic("pose: SE2FromParams requires 3 parameters")
	}
	return NewSE2(p[0], p[1], p[2])
}

// Translation implements Pose.
func (p SE2) Translation() r3.Vector { return r3.Vector{X: p.X, Y: p.Y} }

// Dims implements Pose.
func (p SE2) Dims() int { return 3 }

// Params implements Pose.
func (p SE2) Params() []float64 { return []float64{p.X, p.Y, p.Yaw} }

// Clone implements Pose.
func (p SE2) Clone() Pose { return p }

// Transform implements Pose: rotates then translates pt by p.
func (p SE2) Transform(pt r3.Vector) r3.Vector {
	c, s := math.Cos(p.Yaw), math.Sin(p.Yaw)
	return r3.Vector{
		X: p.X + c*pt.X - s*pt.Y,
		Y: p.Y + s*pt.X + c*pt.Y,
		Z: pt.Z,
	}
}

// Compose implements Pose: returns p+other, i.e. "other" expressed in the
// frame that p is itself relative to.
func (p SE2) Compose(other Pose) Pose {
	o, ok := other.(SE2)
	if !ok {
		panic("pose: cannot compose SE2 with non-SE2 pose")
	}
	c, s := math.Cos(p.Yaw), math.Sin(p.Yaw)
	return SE2{
		X:   p.X + c*o.X - s*o.Y,
		Y:   p.Y + s*o.X + c*o.Y,
		Yaw: normalizeAngle(p.Yaw + o.Yaw),
	}
}

// Inverse implements Pose.
func (p SE2) Inverse() Pose {
	c, s := math.Cos(p.Yaw), math.Sin(p.Yaw)
	return SE2{
		X:   -c*p.X - s*p.Y,
		Y:   s*p.X - c*p.Y,
		Yaw: normalizeAngle(-p.Yaw),
	}
}

func normalizeAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}
