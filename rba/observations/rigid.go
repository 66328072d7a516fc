package observations

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"

	"github.com/MRPT/srba/pose"
)

// rigidRegistration2D solves the classic orthogonal Procrustes problem for
// planar point pairs: find the SE(2) pose p such that p.Transform(from[i])
// best approximates to[i] in the least-squares sense. Grounded on MRPT's
// tfest::se2_l2 closed-form solution (referenced from
// _examples/original_source/include/srba/models/observations_StereoCamera.h),
// reimplemented directly rather than ported line-by-line.
func rigidRegistration2D(from, to [][2]float64) (pose.Pose, bool) {
	n := len(from)
	if n < 2 || len(to) != n {
		return nil, false
	}
	var cFrom, cTo [2]float64
	for i := 0; i < n; i++ {
		cFrom[0] += from[i][0]
		cFrom[1] += from[i][1]
		cTo[0] += to[i][0]
		cTo[1] += to[i][1]
	}
	cFrom[0] /= float64(n)
	cFrom[1] /= float64(n)
	cTo[0] /= float64(n)
	cTo[1] /= float64(n)

	var sxx, sxy, syx, syy float64
	for i := 0; i < n; i++ {
		fx, fy := from[i][0]-cFrom[0], from[i][1]-cFrom[1]
		tx, ty := to[i][0]-cTo[0], to[i][1]-cTo[1]
		sxx += fx * tx
		sxy += fx * ty
		syx += fy * tx
		syy += fy * ty
	}
	// The best-fit rotation angle for 2D Procrustes is atan2 of the
	// antisymmetric part over the symmetric trace of the cross-covariance.
	yaw := math.Atan2(sxy-syx, sxx+syy)
	c, s := math.Cos(yaw), math.Sin(yaw)
	// t = centroidTo - R * centroidFrom
	tx := cTo[0] - (c*cFrom[0] - s*cFrom[1])
	ty := cTo[1] - (s*cFrom[0] + c*cFrom[1])
	return pose.NewSE2(tx, ty, yaw), true
}

// rigidRegistration3D solves the Kabsch problem for 3D point pairs via SVD,
// the standard closed-form rigid registration used by the stereo and
// Cartesian/range-bearing landmark matchers.
func rigidRegistration3D(from, to []r3.Vector) (pose.Pose, bool) {
	n := len(from)
	if n < 3 || len(to) != n {
		return nil, false
	}
	var cFrom, cTo r3.Vector
	for i := 0; i < n; i++ {
		cFrom = cFrom.Add(from[i])
		cTo = cTo.Add(to[i])
	}
	cFrom = cFrom.Mul(1 / float64(n))
	cTo = cTo.Mul(1 / float64(n))

	h := mat.NewDense(3, 3, nil)
	for i := 0; i < n; i++ {
		fc := from[i].Sub(cFrom)
		tc := to[i].Sub(cTo)
		for r := 0; r < 3; r++ {
			for c := 0; c < 3; c++ {
				fv := vecComponent(fc, r)
				tv := vecComponent(tc, c)
				h.Set(r, c, h.At(r, c)+fv*tv)
			}
		}
	}

	var svd mat.SVD
	if !svd.Factorize(h, mat.SVDFull) {
		return nil, false
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	var rMat mat.Dense
	rMat.Mul(&v, u.T())
	if mat.Det(&rMat) < 0 {
		for r := 0; r < 3; r++ {
			v.Set(r, 2, -v.At(r, 2))
		}
		rMat.Mul(&v, u.T())
	}

	rot := matToQuat(&rMat)
	rotatedCentroid := rotateByMat(&rMat, cFrom)
	t := cTo.Sub(rotatedCentroid)
	return pose.NewSE3(t, rot), true
}

func vecComponent(v r3.Vector, i int) float64 {
	switch i {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

func rotateByMat(r *mat.Dense, v r3.Vector) r3.Vector {
	return r3.Vector{
		X: r.At(0, 0)*v.X + r.At(0, 1)*v.Y + r.At(0, 2)*v.Z,
		Y: r.At(1, 0)*v.X + r.At(1, 1)*v.Y + r.At(1, 2)*v.Z,
		Z: r.At(2, 0)*v.X + r.At(2, 1)*v.Y + r.At(2, 2)*v.Z,
	}
}

// matToQuat converts a (proper, orthonormal) 3x3 rotation matrix to a unit
// quaternion via Shepperd's method.
func matToQuat(r *mat.Dense) quat.Number {
	m00, m01, m02 := r.At(0, 0), r.At(0, 1), r.At(0, 2)
	m10, m11, m12 := r.At(1, 0), r.At(1, 1), r.At(1, 2)
	m20, m21, m22 := r.At(2, 0), r.At(2, 1), r.At(2, 2)
	trace := m00 + m11 + m22

	var w, x, y, z float64
	switch {
	case trace > 0:
		s := 0.5 / math.Sqrt(trace+1)
		w = 0.25 / s
		x = (m21 - m12) * s
		y = (m02 - m20) * s
		z = (m10 - m01) * s
	case m00 > m11 && m00 > m22:
		s := 2 * math.Sqrt(1+m00-m11-m22)
		w = (m21 - m12) / s
		x = 0.25 * s
		y = (m01 + m10) / s
		z = (m02 + m20) / s
	case m11 > m22:
		s := 2 * math.Sqrt(1+m11-m00-m22)
		w = (m02 - m20) / s
		x = (m01 + m10) / s
		y = 0.25 * s
		z = (m12 + m21) / s
	default:
		s := 2 * math.Sqrt(1+m22-m00-m11)
		w = (m10 - m01) / s
		x = (m02 + m20) / s
		y = (m12 + m21) / s
		z = 0.25 * s
	}
	q := quat.Number{Real: w, Imag: x, Jmag: y, Kmag: z}
	n := math.Sqrt(q.Real*q.Real + q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag)
	if n == 0 {
		return quat.Number{Real: 1}
	}
	return quat.Scale(1/n, q)
}
