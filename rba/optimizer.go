package rba

// Optimizer is the Levenberg-Marquardt collaborator of spec.md §4.7: given
// a local area (a bounded neighborhood of keyframes, their kf2kf edges, and
// their observations), refine the free edges' poses and unknown landmark
// positions to minimize total observation residual, and report how it
// went. Declared here, implemented in package rba/optimize, for the same
// import-cycle reason as ECPPolicy (see policy.go).
type Optimizer interface {
	Optimize(state *State, area LocalArea, params OptimizerParameters) (OptimizeResults, error)
}

// BuildAreaFromEdges assembles a LocalArea covering exactly the given
// edges' endpoints, for the pipeline's optional per-edge pre-optimization
// pass (spec.md §4.6 step 6), which runs before the full local-area pass
// and is scoped to only the edges the current Edge Creation Policy just
// created.
func (s *State) BuildAreaFromEdges(edges []EdgeID) LocalArea {
	seenKF := map[KeyframeID]struct{}{}
	var kfs []KeyframeID
	for _, eid := range edges {
		e := s.k2kEdges[eid]
		for _, kf := range [2]KeyframeID{e.From, e.To} {
			if _, ok := seenKF[kf]; !ok {
				seenKF[kf] = struct{}{}
				kfs = append(kfs, kf)
			}
		}
	}
	var k2f []EdgeID
	seenLM := map[LandmarkID]struct{}{}
	var lms []LandmarkID
	for _, kf := range kfs {
		k2f = append(k2f, s.keyframes[kf].AdjacentK2FEdges...)
		for _, eid := range s.keyframes[kf].AdjacentK2FEdges {
			featID := s.k2fEdges[eid].FeatID
			if _, dup := seenLM[featID]; dup {
				continue
			}
			base, ok := s.LandmarkBaseKF(featID)
			if !ok || s.IsKnownLandmark(featID) {
				continue
			}
			if _, baseIn := seenKF[base]; !baseIn {
				continue
			}
			seenLM[featID] = struct{}{}
			lms = append(lms, featID)
		}
	}
	root := InvalidKeyframeID
	if len(kfs) > 0 {
		root = kfs[0]
	}
	return LocalArea{Root: root, Keyframes: kfs, K2KEdges: append([]EdgeID(nil), edges...), K2FEdges: k2f, Landmarks: lms}
}
