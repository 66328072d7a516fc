// Package rba implements the Sparser Relative Bundle Adjustment engine: an
// incremental SLAM back-end that keeps a map as a graph of keyframes linked
// by relative-pose edges, plus landmarks expressed relative to a base
// keyframe, and re-optimizes only a bounded local neighborhood on every new
// keyframe.
package rba

import "github.com/MRPT/srba/pose"

// KeyframeID identifies a keyframe. IDs are dense, non-negative, and
// assigned starting at 0 in insertion order.
type KeyframeID uint32

// InvalidKeyframeID marks "no keyframe", e.g. an unset loop-closure field.
const InvalidKeyframeID = KeyframeID(^uint32(0))

// LandmarkID identifies a landmark (a map feature), unique across the map.
type LandmarkID uint64

// EdgeID identifies a kf2kf edge. IDs are dense and assigned in creation
// order, which is also the tie-break order used by the spanning tree.
type EdgeID uint32

// Keyframe is a discrete robot pose at which observations were recorded.
// Adjacency lists hold weak references (edge IDs), never ownership.
type Keyframe struct {
	ID                KeyframeID
	AdjacentK2KEdges  []EdgeID
	AdjacentK2FEdges  []EdgeID
}

// K2KEdge is a directed edge carrying the relative pose between two
// keyframes. InvPose is "the pose of From in the frame of To" (spec
// terminology); walking the edge from From to To composes InvPose as is,
// and walking it from To to From composes its inverse (see spanningtree.go).
type K2KEdge struct {
	ID      EdgeID
	From    KeyframeID
	To      KeyframeID
	InvPose pose.Pose
}

// K2FEdge is an observation: a sensor measurement of a landmark from a
// keyframe. Observations are append-only; they are never mutated or
// destroyed once created.
type K2FEdge struct {
	ID          EdgeID
	KF          KeyframeID
	FeatID      LandmarkID
	ObsData     ObsData
	IsFixed     bool
}

// ObsData is the sensor-specific payload of an observation. Concrete
// implementations live in obsdata.go in this package; the engine only needs
// Kind() to dispatch into the matcher/residual tables.
type ObsData interface {
	Kind() ObservationKind
	AsArray() []float64
}

// ObservationKind tags the sensor/observation type of a K2FEdge, used as
// the key into the landmark-matcher and residual dispatch tables (a narrow
// vtable rather than virtual inheritance, per the engine's design notes).
type ObservationKind int

// The sensor kinds in spec.md §4.8.
const (
	MonocularPixel ObservationKind = iota
	StereoPixel
	Cartesian2D
	Cartesian3D
	RangeBearing2D
	RangeBearing3D
	RelativePose2D
	RelativePose3D
)

func (k ObservationKind) String() string {
	switch k {
	case MonocularPixel:
		return "MonocularPixel"
	case StereoPixel:
		return "StereoPixel"
	case Cartesian2D:
		return "Cartesian2D"
	case Cartesian3D:
		return "Cartesian3D"
	case RangeBearing2D:
		return "RangeBearing2D"
	case RangeBearing3D:
		return "RangeBearing3D"
	case RelativePose2D:
		return "RelativePose2D"
	case RelativePose3D:
		return "RelativePose3D"
	default:
		return "Unknown"
	}
}

// Is3D reports whether this observation kind belongs to an SE(3) problem.
func (k ObservationKind) Is3D() bool {
	switch k {
	case Cartesian3D, RangeBearing3D, RelativePose3D, StereoPixel:
		return true
	default:
		return false
	}
}

// RelativeLandmarkPos is a landmark's position, expressed in the frame of
// its base keyframe (the keyframe that first observed it).
type RelativeLandmarkPos struct {
	ID       LandmarkID
	BaseKF   KeyframeID
	Position []float64 // 2 or 3 components, matching the observation kind's dimensionality
}

// NewKFObservation is one entry of the ordered observation batch a caller
// hands to DefineNewKeyframe.
type NewKFObservation struct {
	FeatID                LandmarkID
	ObsData               ObsData
	IsFixed               bool
	IsUnknownWithInitVal  bool
	InitVal               []float64 // consulted when IsFixed or IsUnknownWithInitVal
}

// NewEdgeInfo describes one edge created by an Edge Creation Policy run.
type NewEdgeInfo struct {
	ID                   EdgeID
	HasApproxInitVal     bool
	LoopClosureObserverKF KeyframeID // InvalidKeyframeID if not a loop closure
	LoopClosureBaseKF     KeyframeID // InvalidKeyframeID if not a loop closure
}

// IsLoopClosure reports whether this edge was tagged by the ECP as a loop
// closure (both loop-closure fields set).
func (n NewEdgeInfo) IsLoopClosure() bool {
	return n.LoopClosureObserverKF != InvalidKeyframeID && n.LoopClosureBaseKF != InvalidKeyframeID
}

// OptimizeResults summarizes one local-area optimization pass.
type OptimizeResults struct {
	NumObservations     int
	TotalSqrErrorInit   float64
	TotalSqrErrorFinal  float64
	ObsRMSE             float64
	Iterations          int
	Converged           bool
}

// DefineKeyframeResult is the return value of DefineNewKeyframe.
type DefineKeyframeResult struct {
	KFID            KeyframeID
	CreatedEdgeIDs  []EdgeID
	OptimizeResults OptimizeResults
}
