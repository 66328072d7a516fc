package rba

import (
	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"github.com/MRPT/srba/pose"
	"github.com/MRPT/srba/rba/observations"
)

// State is the RBA engine's graph: keyframes, kf2kf edges, observations, and
// landmarks, stored in dense append-only arenas keyed by ID. Nothing here
// owns a pointer to anything else; cross-references are always IDs resolved
// through the arena, so the whole graph stays flat and cheap to snapshot.
//
// State is not safe for concurrent use; callers serialize access (the
// engine is driven by one goroutine per map, matching spec.md's
// synchronous-pipeline design).
type State struct {
	Params Parameters
	logger golog.Logger

	keyframes []Keyframe
	k2kEdges  []K2KEdge
	k2fEdges  []K2FEdge

	knownLMs   map[LandmarkID]RelativeLandmarkPos
	unknownLMs map[LandmarkID]RelativeLandmarkPos

	// lastTimestepTouchedKFs holds the endpoints of every kf2kf edge created
	// by the most recent DefineNewKeyframe call. The bootstrap's Method 1
	// consults this set (see bootstrap.go).
	lastTimestepTouchedKFs map[KeyframeID]struct{}

	tree *spanningTree

	ecp       ECPPolicy
	optimizer Optimizer
}

// SetECPPolicy installs the Edge Creation Policy DefineNewKeyframe uses.
// Must be called before the first DefineNewKeyframe call; see
// cmd/srba-replay/main.go for how the engine is normally wired up.
func (s *State) SetECPPolicy(p ECPPolicy) { s.ecp = p }

// SetOptimizer installs the optimizer DefineNewKeyframe uses.
func (s *State) SetOptimizer(o Optimizer) { s.optimizer = o }

// NewState creates an empty engine state for the given parameters.
func NewState(params Parameters, logger golog.Logger) *State {
	if logger == nil {
		logger = golog.Global()
	}
	return &State{
		Params:                 params,
		logger:                 logger,
		knownLMs:               make(map[LandmarkID]RelativeLandmarkPos),
		unknownLMs:             make(map[LandmarkID]RelativeLandmarkPos),
		lastTimestepTouchedKFs: make(map[KeyframeID]struct{}),
		tree:                   newSpanningTree(),
	}
}

func (s *State) identityPose() pose.Pose {
	if s.Params.Is3D {
		return pose.IdentitySE3()
	}
	return pose.IdentitySE2()
}

// Logger returns the engine's logger, for use by the ECP/bootstrap/optimizer
// collaborators that are handed a *State rather than constructed with their
// own logger.
func (s *State) Logger() golog.Logger { return s.logger }

// NumKeyframes returns the number of keyframes inserted so far.
func (s *State) NumKeyframes() int { return len(s.keyframes) }

// Keyframe returns the keyframe record for id. Panics on an out-of-range id;
// callers are expected to validate IDs against NumKeyframes first, as the
// rest of the engine does.
func (s *State) Keyframe(id KeyframeID) Keyframe { return s.keyframes[id] }

// K2KEdge returns the kf2kf edge record for id.
func (s *State) K2KEdge(id EdgeID) K2KEdge { return s.k2kEdges[id] }

// K2FEdge returns the observation record for id.
func (s *State) K2FEdge(id EdgeID) K2FEdge { return s.k2fEdges[id] }

// NumK2KEdges returns the number of kf2kf edges created so far.
func (s *State) NumK2KEdges() int { return len(s.k2kEdges) }

// InsertKeyframe appends a new, initially edge-less keyframe and returns its
// ID. The caller (DefineNewKeyframe) is responsible for attaching it via
// CreateKF2KFEdge before the pipeline returns.
func (s *State) InsertKeyframe() KeyframeID {
	id := KeyframeID(len(s.keyframes))
	s.keyframes = append(s.keyframes, Keyframe{ID: id})
	return id
}

// CreateKF2KFEdge appends a new directed kf2kf edge from -> to with the
// given initial guess for InvPose (pose of from in to's frame), and wires it
// into both endpoints' adjacency lists. initInvPose may be nil, in which
// case the edge starts at identity and is expected to be refined later by
// the bootstrap step.
func (s *State) CreateKF2KFEdge(from, to KeyframeID, initInvPose pose.Pose) (EdgeID, error) {
	if int(from) >= len(s.keyframes) {
		return 0, errUnknownKeyframe(from)
	}
	if int(to) >= len(s.keyframes) {
		return 0, errUnknownKeyframe(to)
	}
	for _, eid := range s.keyframes[from].AdjacentK2KEdges {
		e := s.k2kEdges[eid]
		if (e.From == from && e.To == to) || (e.From == to && e.To == from) {
			return 0, errDuplicateEdge(from, to)
		}
	}
	if initInvPose == nil {
		initInvPose = s.identityPose()
	}
	id := EdgeID(len(s.k2kEdges))
	s.k2kEdges = append(s.k2kEdges, K2KEdge{ID: id, From: from, To: to, InvPose: initInvPose})
	s.keyframes[from].AdjacentK2KEdges = append(s.keyframes[from].AdjacentK2KEdges, id)
	s.keyframes[to].AdjacentK2KEdges = append(s.keyframes[to].AdjacentK2KEdges, id)
	return id, nil
}

// SetEdgeInvPose overwrites an existing edge's InvPose, used by the
// bootstrap step to refine an edge created with a nil/identity initial
// guess, and by the optimizer to write back a refined estimate.
func (s *State) SetEdgeInvPose(id EdgeID, p pose.Pose) {
	s.k2kEdges[id].InvPose = p
}

// InsertObservation registers obs.FeatID as known/unknown (on first sight)
// and appends the k2f edge recording that kf observed it. isFixed marks the
// landmark's position as given rather than to be optimized.
func (s *State) InsertObservation(kf KeyframeID, baseKF KeyframeID, obs NewKFObservation) (EdgeID, error) {
	if int(kf) >= len(s.keyframes) {
		return 0, errUnknownKeyframe(kf)
	}
	if _, known := s.knownLMs[obs.FeatID]; !known {
		if _, unknown := s.unknownLMs[obs.FeatID]; !unknown {
			lm := RelativeLandmarkPos{ID: obs.FeatID, BaseKF: baseKF}
			switch {
			case obs.IsFixed:
				lm.Position = append([]float64(nil), obs.InitVal...)
				s.knownLMs[obs.FeatID] = lm
			case obs.IsUnknownWithInitVal:
				lm.Position = append([]float64(nil), obs.InitVal...)
				s.unknownLMs[obs.FeatID] = lm
			default:
				lm.Position = make([]float64, obs.ObsData.Kind().dims())
				s.unknownLMs[obs.FeatID] = lm
			}
		}
	}
	id := EdgeID(len(s.k2fEdges))
	s.k2fEdges = append(s.k2fEdges, K2FEdge{
		ID:      id,
		KF:      kf,
		FeatID:  obs.FeatID,
		ObsData: obs.ObsData,
		IsFixed: obs.IsFixed,
	})
	s.keyframes[kf].AdjacentK2FEdges = append(s.keyframes[kf].AdjacentK2FEdges, id)
	return id, nil
}

// dims reports the landmark dimensionality implied by an observation kind.
func (k ObservationKind) dims() int {
	if k.Is3D() {
		return 3
	}
	return 2
}

// IsKnownLandmark reports whether id is registered as known (fixed, given)
// rather than unknown (free, to be optimized). Returns false for an id that
// isn't registered at all.
func (s *State) IsKnownLandmark(id LandmarkID) bool {
	_, ok := s.knownLMs[id]
	return ok
}

// LandmarkPosition returns the current estimate of a landmark's position,
// expressed in its base keyframe's frame, and whether it is known at all.
func (s *State) LandmarkPosition(id LandmarkID) (RelativeLandmarkPos, bool) {
	if lm, ok := s.knownLMs[id]; ok {
		return lm, true
	}
	lm, ok := s.unknownLMs[id]
	return lm, ok
}

// SetLandmarkPosition overwrites an unknown landmark's current estimate;
// used by the optimizer to write back refined positions. Fixed (known)
// landmarks are left untouched; callers are not expected to ask for it.
func (s *State) SetLandmarkPosition(id LandmarkID, pos []float64) {
	if lm, ok := s.unknownLMs[id]; ok {
		lm.Position = pos
		s.unknownLMs[id] = lm
	}
}

// LandmarkBaseKF returns the base keyframe of a known or unknown landmark.
func (s *State) LandmarkBaseKF(id LandmarkID) (KeyframeID, bool) {
	if lm, ok := s.knownLMs[id]; ok {
		return lm.BaseKF, true
	}
	if lm, ok := s.unknownLMs[id]; ok {
		return lm.BaseKF, true
	}
	return InvalidKeyframeID, false
}

// ObservedBaseKFVotes tallies, across every landmark kf currently observes,
// how many observations trace back to each base keyframe. Edge Creation
// Policies use this to find which other keyframes kf shares enough map
// structure with to be worth linking (spec.md §4.3's "voting by base-KF"
// step, both for the linear and fixed-size-submap policies).
func (s *State) ObservedBaseKFVotes(kf KeyframeID) map[KeyframeID]int {
	votes := make(map[KeyframeID]int)
	for _, eid := range s.keyframes[kf].AdjacentK2FEdges {
		obs := s.k2fEdges[eid]
		if base, ok := s.LandmarkBaseKF(obs.FeatID); ok {
			votes[base]++
		}
	}
	return votes
}

// toObsPkgKind maps the engine's sensor-kind tag to the independent tag
// package rba/observations uses for matcher dispatch (see rba/policy.go and
// rba/observations/matcher.go for why the two enums are kept separate
// rather than sharing a type).
func toObsPkgKind(k ObservationKind) observations.Kind {
	switch k {
	case MonocularPixel:
		return observations.MonocularPixel
	case StereoPixel:
		return observations.StereoPixel
	case Cartesian2D:
		return observations.Cartesian2D
	case Cartesian3D:
		return observations.Cartesian3D
	case RangeBearing2D:
		return observations.RangeBearing2D
	case RangeBearing3D:
		return observations.RangeBearing3D
	case RelativePose2D:
		return observations.RelativePose2D
	default:
		return observations.RelativePose3D
	}
}

// MatcherParams builds the calibration block the landmark matchers need
// from the engine's sensor parameters.
func (s *State) MatcherParams() observations.Params {
	return observations.Params{
		CameraFx:       s.Params.Sensor.CameraFx,
		CameraFy:       s.Params.Sensor.CameraFy,
		CameraCx:       s.Params.Sensor.CameraCx,
		CameraCy:       s.Params.Sensor.CameraCy,
		StereoBaseline: s.Params.Sensor.StereoBaseline,
	}
}

// SharedLandmarkPairs collects, for every landmark both a and b observed,
// the paired raw observation payloads. The returned kind is the sensor kind
// of the first of b's observations that matches a landmark of a; later
// matches whose kind differs from it are dropped (datasets use one sensor
// kind throughout, so in practice none are). Used by the edge-initial-guess bootstrap
// (bootstrap.go) to hand matching material to a rba/observations.Matcher.
func (s *State) SharedLandmarkPairs(a, b KeyframeID) (ObservationKind, []observations.Pair, bool) {
	byLandmark := make(map[LandmarkID][]float64)
	for _, eid := range s.keyframes[a].AdjacentK2FEdges {
		obs := s.k2fEdges[eid]
		byLandmark[obs.FeatID] = obs.ObsData.AsArray()
	}
	var pairs []observations.Pair
	var kind ObservationKind
	kindSet := false
	for _, eid := range s.keyframes[b].AdjacentK2FEdges {
		obs := s.k2fEdges[eid]
		fromArr, ok := byLandmark[obs.FeatID]
		if !ok {
			continue
		}
		if !kindSet {
			kind = obs.ObsData.Kind()
			kindSet = true
		} else if obs.ObsData.Kind() != kind {
			continue
		}
		pairs = append(pairs, observations.Pair{From: fromArr, To: obs.ObsData.AsArray()})
	}
	return kind, pairs, len(pairs) > 0
}

// AdjacentKF2KEdges returns the kf2kf edge IDs touching kf.
func (s *State) AdjacentKF2KEdges(kf KeyframeID) []EdgeID {
	return s.keyframes[kf].AdjacentK2KEdges
}

// AdjacentKF2FEdges returns the observation IDs recorded at kf.
func (s *State) AdjacentKF2FEdges(kf KeyframeID) []EdgeID {
	return s.keyframes[kf].AdjacentK2FEdges
}

// GetKFRelativePose returns the pose of a expressed in b's frame
// (pose_a_wrt_b), composed along the cached shortest path between them, and
// whether that path exists within max_tree_depth. The result is nil when
// not found.
func (s *State) GetKFRelativePose(a, b KeyframeID) (pose.Pose, bool) {
	if a == b {
		return s.identityPose(), true
	}
	if p := s.tree.relativePose(a, b); p != nil {
		return p, true
	}
	if p := s.tree.relativePose(b, a); p != nil {
		return pose.Inverse(p), true
	}
	return nil, false
}

// DirectEdgePose returns pose_a_wrt_b using a literal kf2kf edge between a
// and b, without consulting the spanning-tree cache. Method 1/Method 2
// bootstrap can rely on GetKFRelativePose because they run before the
// current batch's new edges are in the tree; Method 3's own-submap hop
// needs the sibling mandatory edge that Step B of the same
// DefineNewKeyframe call just created, which RebuildAllSpanningTrees has
// not yet folded in (it runs once, after every new edge has been
// bootstrapped), so it is read directly off the keyframes' adjacency lists
// instead.
func (s *State) DirectEdgePose(a, b KeyframeID) (pose.Pose, bool) {
	if a == b {
		return s.identityPose(), true
	}
	for _, eid := range s.keyframes[a].AdjacentK2KEdges {
		e := s.k2kEdges[eid]
		switch {
		case e.From == a && e.To == b:
			return e.InvPose, true
		case e.From == b && e.To == a:
			return pose.Inverse(e.InvPose), true
		}
	}
	return nil, false
}

// AreKeyframesConnected reports whether a and b are connected by some chain
// of kf2kf edges, regardless of max_tree_depth (a full graph traversal, not
// a spanning-tree cache lookup — see spanningtree.go for the bounded
// caches used by the hot path).
func (s *State) AreKeyframesConnected(a, b KeyframeID) bool {
	if a == b {
		return true
	}
	if int(a) >= len(s.keyframes) || int(b) >= len(s.keyframes) {
		return false
	}
	visited := map[KeyframeID]struct{}{a: {}}
	queue := []KeyframeID{a}
	for len(queue) > 0 {
		x := queue[0]
		queue = queue[1:]
		for _, eid := range s.keyframes[x].AdjacentK2KEdges {
			e := s.k2kEdges[eid]
			var y KeyframeID
			if e.From == x {
				y = e.To
			} else {
				y = e.From
			}
			if y == b {
				return true
			}
			if _, seen := visited[y]; !seen {
				visited[y] = struct{}{}
				queue = append(queue, y)
			}
		}
	}
	return false
}

// MarkTouched records kf as touched by the current batch of edge creations,
// replacing the previous batch's set. DefineNewKeyframe calls this once per
// pipeline run with every endpoint of every edge it created.
func (s *State) MarkTouched(kfs []KeyframeID) {
	s.lastTimestepTouchedKFs = make(map[KeyframeID]struct{}, len(kfs))
	for _, kf := range kfs {
		s.lastTimestepTouchedKFs[kf] = struct{}{}
	}
}

// WasLastTimestepTouched reports whether kf was an endpoint of an edge
// created by the previous DefineNewKeyframe call.
func (s *State) WasLastTimestepTouched(kf KeyframeID) bool {
	_, ok := s.lastTimestepTouchedKFs[kf]
	return ok
}

// Stats summarizes the current graph size, per spec.md's introspection
// surface (rba/export.Stats builds on this).
type Stats struct {
	NumKeyframes  int
	NumK2KEdges   int
	NumObservations int
	NumKnownLandmarks   int
	NumUnknownLandmarks int
}

// Stats computes a snapshot of the current graph's size.
func (s *State) Stats() Stats {
	return Stats{
		NumKeyframes:        len(s.keyframes),
		NumK2KEdges:          len(s.k2kEdges),
		NumObservations:      len(s.k2fEdges),
		NumKnownLandmarks:    len(s.knownLMs),
		NumUnknownLandmarks:  len(s.unknownLMs),
	}
}

// validateKeyframe wraps errUnknownKeyframe for internal call sites that
// need the errors.Wrap context of a calling operation's name.
func validateKeyframe(s *State, kf KeyframeID, op string) error {
	if int(kf) >= len(s.keyframes) {
		return errors.Wrap(errUnknownKeyframe(kf), op)
	}
	return nil
}
