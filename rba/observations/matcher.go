package observations

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/MRPT/srba/pose"
)

// Kind tags the sensor/observation type a Matcher handles. It mirrors
// rba.ObservationKind's eight variants but is declared independently so
// this package never has to import package rba (which in turn needs to
// import this package from bootstrap.go — see rba/policy.go for the same
// cycle-avoidance reasoning applied to Edge Creation Policies).
type Kind int

// The eight sensor kinds, matching spec.md §4.8 / rba.ObservationKind.
const (
	MonocularPixel Kind = iota
	StereoPixel
	Cartesian2D
	Cartesian3D
	RangeBearing2D
	RangeBearing3D
	RelativePose2D
	RelativePose3D
)

// Params holds the calibration a Matcher needs to interpret raw payloads:
// pinhole intrinsics for the stereo matcher, nothing for the others.
type Params struct {
	CameraFx, CameraFy, CameraCx, CameraCy float64
	StereoBaseline                         float64
}

// Pair is one shared landmark's raw observation payloads, as recorded at
// each of the two keyframes being matched.
type Pair struct {
	From []float64
	To   []float64
}

// Matcher is the landmark-matcher collaborator of spec.md §4.8: given
// several keyframes' shared observations of the same landmarks, attempt to
// compute the relative pose between the two observing keyframes directly
// from geometry, without going through the optimizer. Match returns
// pose_From_wrt_To (the pose that, applied to a point expressed in the
// "From" observer's local frame, yields that point in the "To" observer's
// frame) and ok=false when the sensor type can't support matching or there
// isn't enough data.
type Matcher interface {
	Match(params Params, pairs []Pair, is3D bool) (pose.Pose, bool)
}

// ForKind returns the Matcher registered for a sensor kind.
func ForKind(k Kind) Matcher {
	switch k {
	case MonocularPixel:
		return monocularMatcher{}
	case StereoPixel:
		return stereoMatcher{}
	case Cartesian2D, Cartesian3D:
		return cartesianMatcher{}
	case RangeBearing2D, RangeBearing3D:
		return rangeBearingMatcher{}
	case RelativePose2D, RelativePose3D:
		return relativePoseMatcher{}
	default:
		return monocularMatcher{}
	}
}

// monocularMatcher always fails: a single pixel observation has no depth,
// so geometric matching cannot recover a relative pose from monocular
// pairs alone (spec.md §4.8 names this as the one sensor kind the
// matcher interface exists but cannot serve).
type monocularMatcher struct{}

func (monocularMatcher) Match(Params, []Pair, bool) (pose.Pose, bool) { return nil, false }

// stereoMatcher triangulates each shared landmark's 3D position in both
// observing keyframes' camera frames from its pixel+disparity payload
// [u, v, disparity], then rigidly registers the two point sets. Grounded on
// _examples/original_source/include/srba/models/observations_StereoCamera.h,
// which performs the same triangulate-then-register dispatch (there via
// MRPT's tfest utilities; here via rigid.go's closed-form solvers).
type stereoMatcher struct{}

func (stereoMatcher) Match(p Params, pairs []Pair, _ bool) (pose.Pose, bool) {
	var from, to []r3.Vector
	for _, pair := range pairs {
		pf, ok := triangulateStereo(p, pair.From)
		if !ok {
			continue
		}
		pt, ok := triangulateStereo(p, pair.To)
		if !ok {
			continue
		}
		from = append(from, pf)
		to = append(to, pt)
	}
	return rigidRegistration3D(from, to)
}

func triangulateStereo(p Params, payload []float64) (r3.Vector, bool) {
	if len(payload) < 3 {
		return r3.Vector{}, false
	}
	u, v, disparity := payload[0], payload[1], payload[2]
	if disparity <= 0 || p.CameraFx == 0 {
		return r3.Vector{}, false
	}
	depth := p.CameraFx * p.StereoBaseline / disparity
	return r3.Vector{
		X: (u - p.CameraCx) * depth / p.CameraFx,
		Y: (v - p.CameraCy) * depth / p.CameraFy,
		Z: depth,
	}, true
}

// cartesianMatcher handles sensors that report a landmark's Cartesian
// position directly (2D: [x,y]; 3D: [x,y,z]); matching reduces to rigid
// registration of the raw payloads.
type cartesianMatcher struct{}

func (cartesianMatcher) Match(_ Params, pairs []Pair, is3D bool) (pose.Pose, bool) {
	if is3D {
		from, to := toVectors3D(pairs)
		return rigidRegistration3D(from, to)
	}
	from, to := toVectors2D(pairs)
	return rigidRegistration2D(from, to)
}

// rangeBearingMatcher converts range+bearing(+elevation) payloads to
// Cartesian coordinates, then reuses the same rigid registration.
type rangeBearingMatcher struct{}

func (rangeBearingMatcher) Match(_ Params, pairs []Pair, is3D bool) (pose.Pose, bool) {
	if is3D {
		var from, to []r3.Vector
		for _, pair := range pairs {
			pf, ok1 := rangeBearingToCartesian3D(pair.From)
			pt, ok2 := rangeBearingToCartesian3D(pair.To)
			if ok1 && ok2 {
				from = append(from, pf)
				to = append(to, pt)
			}
		}
		return rigidRegistration3D(from, to)
	}
	var from, to [][2]float64
	for _, pair := range pairs {
		pf, ok1 := rangeBearingToCartesian2D(pair.From)
		pt, ok2 := rangeBearingToCartesian2D(pair.To)
		if ok1 && ok2 {
			from = append(from, pf)
			to = append(to, pt)
		}
	}
	return rigidRegistration2D(from, to)
}

func rangeBearingToCartesian2D(payload []float64) ([2]float64, bool) {
	if len(payload) < 2 {
		return [2]float64{}, false
	}
	r, bearing := payload[0], payload[1]
	return [2]float64{r * math.Cos(bearing), r * math.Sin(bearing)}, true
}

func rangeBearingToCartesian3D(payload []float64) (r3.Vector, bool) {
	if len(payload) < 3 {
		return r3.Vector{}, false
	}
	r, yaw, pitch := payload[0], payload[1], payload[2]
	cp := math.Cos(pitch)
	return r3.Vector{
		X: r * cp * math.Cos(yaw),
		Y: r * cp * math.Sin(yaw),
		Z: r * math.Sin(pitch),
	}, true
}

// relativePoseMatcher handles the graph-SLAM emulation case: the
// observation payload already IS the measured relative pose between the
// observer and the (fixed, ignored) self-landmark, so matching is just
// decoding the "To" payload with no registration step. Grounded on the
// MRPT_TODO-stub landmark matchers in
// _examples/original_source/include/srba/models/observations_RelativePoses_2D.h,
// which this engine implements for real rather than leaving unimplemented.
type relativePoseMatcher struct{}

func (relativePoseMatcher) Match(_ Params, pairs []Pair, is3D bool) (pose.Pose, bool) {
	if len(pairs) == 0 {
		return nil, false
	}
	payload := pairs[0].To
	if is3D {
		if len(payload) < 6 {
			return nil, false
		}
		return pose.SE3FromParams(payload[:6]), true
	}
	if len(payload) < 3 {
		return nil, false
	}
	return pose.SE2FromParams(payload[:3]), true
}

func toVectors2D(pairs []Pair) (from, to [][2]float64) {
	for _, pair := range pairs {
		if len(pair.From) < 2 || len(pair.To) < 2 {
			continue
		}
		from = append(from, [2]float64{pair.From[0], pair.From[1]})
		to = append(to, [2]float64{pair.To[0], pair.To[1]})
	}
	return from, to
}

func toVectors3D(pairs []Pair) (from, to []r3.Vector) {
	for _, pair := range pairs {
		if len(pair.From) < 3 || len(pair.To) < 3 {
			continue
		}
		from = append(from, r3.Vector{X: pair.From[0], Y: pair.From[1], Z: pair.From[2]})
		to = append(to, r3.Vector{X: pair.To[0], Y: pair.To[1], Z: pair.To[2]})
	}
	return from, to
}
