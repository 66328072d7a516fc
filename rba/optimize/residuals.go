package optimize

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/MRPT/srba/pose"
	"github.com/MRPT/srba/rba"
)

// observationResidual computes the difference between a predicted and an
// observed measurement for one observation, given the current estimate of
// the relative pose between its landmark's base keyframe and its observing
// keyframe (poseBaseWrtKF) and the landmark's position in the base
// keyframe's frame. The returned slice has the observation kind's
// dimensionality.
//
// Monocular residuals (bearing-only pixel reprojection) are computed here
// even though the monocular landmark matcher in rba/observations always
// declines to bootstrap an edge: the matcher and the optimizer's residual
// are separate collaborators per spec.md §4.7/§4.8, and a monocular
// observation still constrains the optimizer once the landmark has some
// estimate from another observation.
func observationResidual(kind rba.ObservationKind, poseBaseWrtKF pose.Pose, landmarkPos []float64, sensor rba.SensorParameters, obsArray []float64) []float64 {
	switch kind {
	case rba.Cartesian2D:
		predicted := transform2D(poseBaseWrtKF, landmarkPos)
		return diff(predicted, obsArray, 2)
	case rba.Cartesian3D:
		predicted := transform3D(poseBaseWrtKF, landmarkPos)
		return diff(predicted, obsArray, 3)
	case rba.RangeBearing2D:
		p := transform2D(poseBaseWrtKF, landmarkPos)
		predicted := []float64{math.Hypot(p[0], p[1]), math.Atan2(p[1], p[0])}
		r := diff(predicted, obsArray, 2)
		r[1] = wrapAngle(r[1])
		return r
	case rba.RangeBearing3D:
		p := transform3D(poseBaseWrtKF, landmarkPos)
		rng := math.Sqrt(p[0]*p[0] + p[1]*p[1] + p[2]*p[2])
		yaw := math.Atan2(p[1], p[0])
		pitch := math.Asin(clamp(p[2]/math.Max(rng, 1e-12), -1, 1))
		predicted := []float64{rng, yaw, pitch}
		r := diff(predicted, obsArray, 3)
		r[1] = wrapAngle(r[1])
		r[2] = wrapAngle(r[2])
		return r
	case rba.StereoPixel:
		p := transform3D(poseBaseWrtKF, landmarkPos)
		if p[2] <= 1e-6 {
			return []float64{0, 0, 0}
		}
		u := sensor.CameraFx*p[0]/p[2] + sensor.CameraCx
		v := sensor.CameraFy*p[1]/p[2] + sensor.CameraCy
		d := sensor.CameraFx * sensor.StereoBaseline / p[2]
		return diff([]float64{u, v, d}, obsArray, 3)
	case rba.MonocularPixel:
		p := transform3D(poseBaseWrtKF, landmarkPos)
		if p[2] <= 1e-6 {
			return []float64{0, 0}
		}
		u := sensor.CameraFx*p[0]/p[2] + sensor.CameraCx
		v := sensor.CameraFy*p[1]/p[2] + sensor.CameraCy
		return diff([]float64{u, v}, obsArray, 2)
	case rba.RelativePose2D:
		actual := pose.SE2FromParams(obsArray[:3])
		delta := pose.Compose(pose.Inverse(actual), poseBaseWrtKF)
		return delta.Params()
	case rba.RelativePose3D:
		actual := pose.SE3FromParams(obsArray[:6])
		delta := pose.Compose(pose.Inverse(actual), poseBaseWrtKF)
		return delta.Params()
	default:
		return nil
	}
}

func landmarkVec(landmark []float64) r3.Vector {
	v := r3.Vector{}
	if len(landmark) > 0 {
		v.X = landmark[0]
	}
	if len(landmark) > 1 {
		v.Y = landmark[1]
	}
	if len(landmark) > 2 {
		v.Z = landmark[2]
	}
	return v
}

func transform2D(p pose.Pose, landmark []float64) []float64 {
	v := p.Transform(landmarkVec(landmark))
	return []float64{v.X, v.Y}
}

func transform3D(p pose.Pose, landmark []float64) []float64 {
	v := p.Transform(landmarkVec(landmark))
	return []float64{v.X, v.Y, v.Z}
}

func diff(predicted, actual []float64, n int) []float64 {
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		var a float64
		if i < len(actual) {
			a = actual[i]
		}
		out[i] = predicted[i] - a
	}
	return out
}

func wrapAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
