package rba

// The concrete ObsData payloads below are the eight sensor-specific
// observation types of spec.md §4.8. They live in package rba (rather
// than rba/observations, which holds the landmark matchers) because
// package rba needs to construct and inspect them directly, and
// rba/observations must not import rba (see policy.go's note on avoiding
// an import cycle between the engine and its collaborator packages).

// MonocularPixelObs is a single camera's pixel observation [u, v].
type MonocularPixelObs struct{ U, V float64 }

func (o MonocularPixelObs) Kind() ObservationKind { return MonocularPixel }
func (o MonocularPixelObs) AsArray() []float64    { return []float64{o.U, o.V} }

// StereoPixelObs is a stereo pair's pixel+disparity observation [u, v, d].
type StereoPixelObs struct{ U, V, Disparity float64 }

func (o StereoPixelObs) Kind() ObservationKind { return StereoPixel }
func (o StereoPixelObs) AsArray() []float64    { return []float64{o.U, o.V, o.Disparity} }

// Cartesian2DObs is a direct planar position measurement [x, y].
type Cartesian2DObs struct{ X, Y float64 }

func (o Cartesian2DObs) Kind() ObservationKind { return Cartesian2D }
func (o Cartesian2DObs) AsArray() []float64    { return []float64{o.X, o.Y} }

// Cartesian3DObs is a direct spatial position measurement [x, y, z].
type Cartesian3DObs struct{ X, Y, Z float64 }

func (o Cartesian3DObs) Kind() ObservationKind { return Cartesian3D }
func (o Cartesian3DObs) AsArray() []float64    { return []float64{o.X, o.Y, o.Z} }

// RangeBearing2DObs is a planar range-bearing measurement [range, bearing].
type RangeBearing2DObs struct{ Range, Bearing float64 }

func (o RangeBearing2DObs) Kind() ObservationKind { return RangeBearing2D }
func (o RangeBearing2DObs) AsArray() []float64    { return []float64{o.Range, o.Bearing} }

// RangeBearing3DObs is a spatial range-bearing-elevation measurement
// [range, yaw, pitch].
type RangeBearing3DObs struct{ Range, Yaw, Pitch float64 }

func (o RangeBearing3DObs) Kind() ObservationKind { return RangeBearing3D }
func (o RangeBearing3DObs) AsArray() []float64    { return []float64{o.Range, o.Yaw, o.Pitch} }

// RelativePose2DObs directly carries a measured planar relative pose
// [x, y, yaw], for the graph-SLAM emulation mode (spec.md §4.12-equivalent
// dataset replay) where the "landmark" is really another keyframe.
type RelativePose2DObs struct{ X, Y, Yaw float64 }

func (o RelativePose2DObs) Kind() ObservationKind { return RelativePose2D }
func (o RelativePose2DObs) AsArray() []float64    { return []float64{o.X, o.Y, o.Yaw} }

// RelativePose3DObs directly carries a measured spatial relative pose
// [x, y, z, rx, ry, rz] (translation plus a rotation vector).
type RelativePose3DObs struct{ X, Y, Z, Rx, Ry, Rz float64 }

func (o RelativePose3DObs) Kind() ObservationKind { return RelativePose3D }
func (o RelativePose3DObs) AsArray() []float64 {
	return []float64{o.X, o.Y, o.Z, o.Rx, o.Ry, o.Rz}
}
