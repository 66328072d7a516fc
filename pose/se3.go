package pose

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// SE3 is a 3D rigid transform: a translation and a unit-quaternion rotation.
// Rotation is kept as quat.Number the same way spatialmath keeps Orientation
// backed by gonum's quat package.
type SE3 struct {
	T r3.Vector
	R quat.Number // must stay unit-norm
}

// IdentitySE3 returns the SE3 identity pose.
func IdentitySE3() SE3 { return SE3{R: quat.Number{Real: 1}} }

// NewSE3 builds an SE3 pose from a translation and a (not necessarily
// normalized) quaternion, normalizing the rotation.
func NewSE3(t r3.Vector, r quat.Number) SE3 {
	return SE3{T: t, R: normalizeQuat(r)}
}

// SE3FromParams reconstructs an SE3 pose from its 6-vector tangent
// parameterization: translation followed by a rotation vector (axis*angle).
func SE3FromParams(p []float64) SE3 {
	if len(p) != 6 {
		panic("pose: SE3FromParams requires 6 parameters")
	}
	t := r3.Vector{X: p[0], Y: p[1], Z: p[2]}
	rv := r3.Vector{X: p[3], Y: p[4], Z: p[5]}
	return NewSE3(t, rotationVectorToQuat(rv))
}

// Translation implements Pose.
func (p SE3) Translation() r3.Vector { return p.T }

// Dims implements Pose.
func (p SE3) Dims() int { return 6 }

// Params implements Pose.
func (p SE3) Params() []float64 {
	rv := quatToRotationVector(p.R)
	return []float64{p.T.X, p.T.Y, p.T.Z, rv.X, rv.Y, rv.Z}
}

// Clone implements Pose.
func (p SE3) Clone() Pose { return p }

// Transform implements Pose.
func (p SE3) Transform(pt r3.Vector) r3.Vector {
	return p.T.Add(rotateVector(p.R, pt))
}

// Compose implements Pose: (R1,t1)+(R2,t2) = (R1*R2, t1+R1*t2).
func (p SE3) Compose(other Pose) Pose {
	o, ok := other.(SE3)
	if !ok {
		panic("pose: cannot compose SE3 with non-SE3 pose")
	}
	return SE3{
		T: p.T.Add(rotateVector(p.R, o.T)),
		R: normalizeQuat(quat.Mul(p.R, o.R)),
	}
}

// Inverse implements Pose.
func (p SE3) Inverse() Pose {
	rInv := quat.Conj(p.R) // unit quaternion: conjugate == inverse
	return SE3{
		T: rotateVector(rInv, p.T).Mul(-1),
		R: rInv,
	}
}

func normalizeQuat(q quat.Number) quat.Number {
	n := math.Sqrt(q.Real*q.Real + q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag)
	if n == 0 {
		return quat.Number{Real: 1}
	}
	return quat.Number{Real: q.Real / n, Imag: q.Imag / n, Jmag: q.Jmag / n, Kmag: q.Kmag / n}
}

func rotateVector(q quat.Number, v r3.Vector) r3.Vector {
	vq := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	rq := quat.Mul(quat.Mul(q, vq), quat.Conj(q))
	return r3.Vector{X: rq.Imag, Y: rq.Jmag, Z: rq.Kmag}
}

// rotationVectorToQuat converts an axis*angle rotation vector (so3 tangent)
// into its unit quaternion, via the standard exponential map.
func rotationVectorToQuat(rv r3.Vector) quat.Number {
	angle := rv.Norm()
	if angle < 1e-12 {
		return quat.Number{Real: 1}
	}
	axis := rv.Mul(1 / angle)
	half := angle / 2
	s := math.Sin(half)
	return quat.Number{Real: math.Cos(half), Imag: axis.X * s, Jmag: axis.Y * s, Kmag: axis.Z * s}
}

// quatToRotationVector is the inverse (log) map.
func quatToRotationVector(q quat.Number) r3.Vector {
	q = normalizeQuat(q)
	if q.Real < 0 {
		// keep the shortest rotation vector (angle in [0,pi])
		q = quat.Number{Real: -q.Real, Imag: -q.Imag, Jmag: -q.Jmag, Kmag: -q.Kmag}
	}
	sinHalf := math.Sqrt(q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag)
	if sinHalf < 1e-12 {
		return r3.Vector{}
	}
	angle := 2 * math.Atan2(sinHalf, q.Real)
	scale := angle / sinHalf
	return r3.Vector{X: q.Imag * scale, Y: q.Jmag * scale, Z: q.Kmag * scale}
}
