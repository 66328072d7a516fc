package rba

// LocalArea is the bounded neighborhood a local optimization pass runs
// over: the keyframes within max_optimize_depth hops of a root, the kf2kf
// edges strictly inside that neighborhood (both endpoints included), the
// observations recorded at those keyframes, and the subset of referenced
// landmarks that are actually free to optimize (unknown, with a base
// keyframe inside the window).
type LocalArea struct {
	Root      KeyframeID
	Keyframes []KeyframeID
	K2KEdges  []EdgeID
	K2FEdges  []EdgeID
	Landmarks []LandmarkID
}

// landmarkObservers indexes every landmark to the keyframes that observe
// it, so SelectLocalArea's BFS can hop keyframe-to-keyframe through a
// shared landmark even before a kf2kf edge links them.
func (s *State) landmarkObservers() map[LandmarkID][]KeyframeID {
	out := make(map[LandmarkID][]KeyframeID)
	for i := range s.keyframes {
		kf := KeyframeID(i)
		for _, eid := range s.keyframes[kf].AdjacentK2FEdges {
			featID := s.k2fEdges[eid].FeatID
			out[featID] = append(out[featID], kf)
		}
	}
	return out
}

// SelectLocalArea runs a bounded breadth-first search from root out to
// max_optimize_depth hops, per spec.md §4.5, expanding through both kf2kf
// edges and kf2feature edges: two keyframes that only share a landmark
// observation, with no direct kf2kf edge between them yet, are still one
// hop apart. It then collects every kf2kf edge with both endpoints among the
// discovered keyframes, every observation recorded at them, and every free
// landmark based at one of them.
func (s *State) SelectLocalArea(root KeyframeID) LocalArea {
	maxDepth := s.Params.Tree.MaxOptimizeDepth
	observers := s.landmarkObservers()
	visited := map[KeyframeID]struct{}{root: {}}
	order := []KeyframeID{root}
	frontier := []KeyframeID{root}

	neighborsOf := func(x KeyframeID) []KeyframeID {
		var ys []KeyframeID
		for _, eid := range s.keyframes[x].AdjacentK2KEdges {
			e := s.k2kEdges[eid]
			switch {
			case e.From == x:
				ys = append(ys, e.To)
			case e.To == x:
				ys = append(ys, e.From)
			}
		}
		for _, eid := range s.keyframes[x].AdjacentK2FEdges {
			featID := s.k2fEdges[eid].FeatID
			for _, y := range observers[featID] {
				if y != x {
					ys = append(ys, y)
				}
			}
		}
		return ys
	}

	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		var next []KeyframeID
		for _, x := range frontier {
			for _, y := range neighborsOf(x) {
				if _, seen := visited[y]; seen {
					continue
				}
				visited[y] = struct{}{}
				order = append(order, y)
				next = append(next, y)
			}
		}
		frontier = next
	}

	var k2k []EdgeID
	seenEdge := map[EdgeID]struct{}{}
	var k2f []EdgeID
	seenLM := map[LandmarkID]struct{}{}
	var lms []LandmarkID
	for _, kf := range order {
		for _, eid := range s.keyframes[kf].AdjacentK2KEdges {
			e := s.k2kEdges[eid]
			_, fromIn := visited[e.From]
			_, toIn := visited[e.To]
			if fromIn && toIn {
				if _, dup := seenEdge[eid]; !dup {
					seenEdge[eid] = struct{}{}
					k2k = append(k2k, eid)
				}
			}
		}
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
			if _, baseIn := visited[base]; !baseIn {
				continue
			}
			seenLM[featID] = struct{}{}
			lms = append(lms, featID)
		}
	}

	return LocalArea{Root: root, Keyframes: order, K2KEdges: k2k, K2FEdges: k2f, Landmarks: lms}
}
