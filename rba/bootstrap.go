package rba

import (
	"github.com/MRPT/srba/pose"
	"github.com/MRPT/srba/rba/observations"
)

// bootstrapEdge fills in a plausible initial guess for a newly created
// edge's InvPose, trying each of the three methods of spec.md §4.4 in turn
// and stopping at the first that succeeds. An edge left at the identity
// (no method succeeded) is still usable — local optimization will refine
// it — but is flagged HasApproxInitVal=false on return, same as the ECP
// left it, and a warning is logged for it.
func (s *State) bootstrapEdge(kf KeyframeID, info NewEdgeInfo) NewEdgeInfo {
	edge := s.k2kEdges[info.ID]

	if p, ok := s.bootstrapMethod1(kf, edge); ok {
		s.SetEdgeInvPose(edge.ID, p)
		info.HasApproxInitVal = true
		return info
	}
	if p, ok := s.bootstrapMethod2(edge); ok {
		s.SetEdgeInvPose(edge.ID, p)
		info.HasApproxInitVal = true
		return info
	}
	if info.IsLoopClosure() {
		if p, ok := s.bootstrapMethod3(info); ok {
			s.SetEdgeInvPose(edge.ID, p)
			info.HasApproxInitVal = true
			return info
		}
	}
	if !info.HasApproxInitVal {
		s.logger.Warnw("no initial guess found for new kf2kf edge; it starts at identity", "edge", info.ID, "keyframe", kf)
	}
	return info
}

// bootstrapMethod1 reuses the relative pose of the just-previous keyframe,
// looked up in the numeric spanning tree, as a stand-in for the brand-new
// keyframe's own (not yet known) pose. Only applicable once at least one
// keyframe preceded kf, and only when the edge's From endpoint was touched
// by the previous DefineNewKeyframe call (spec.md §4.4 Method 1).
func (s *State) bootstrapMethod1(kf KeyframeID, edge K2KEdge) (pose.Pose, bool) {
	if kf == 0 {
		return nil, false
	}
	if !s.WasLastTimestepTouched(edge.From) {
		return nil, false
	}
	rel, ok := s.GetKFRelativePose(kf-1, edge.From)
	if !ok {
		return nil, false
	}
	if edge.To == kf {
		return pose.Inverse(rel), true
	}
	return rel, true
}

// bootstrapMethod2 asks the sensor-appropriate landmark matcher to compute
// the edge's relative pose directly from the landmarks both endpoints
// observe in common (spec.md §4.4 Method 2).
func (s *State) bootstrapMethod2(edge K2KEdge) (pose.Pose, bool) {
	kind, pairs, ok := s.SharedLandmarkPairs(edge.From, edge.To)
	if !ok {
		return nil, false
	}
	matcher := observations.ForKind(toObsPkgKind(kind))
	return matcher.Match(s.MatcherParams(), pairs, s.Params.Is3D)
}

// bootstrapMethod3 handles loop closures that Methods 1 and 2 couldn't
// bootstrap directly. The ECP names the pair that actually justified the
// edge in info.LoopClosureObserverKF/LoopClosureBaseKF — the new keyframe
// that re-observed some landmarks, and whichever base keyframe most of
// those landmarks are anchored to — which is not in general either
// endpoint of the edge itself (a Submap loop closure links two submap
// *centers*; the observer and base it was voted on can each be any member
// of their respective submap). spec.md §4.4 Method 3 runs Method 2 between
// that pair and then bridges the result out to the edge's own endpoints
// with up to two further hops:
//
//	pose_local_wrt_remote = pose_base_wrt_remote + pose_observer_wrt_base + (-pose_observer_wrt_local)
//
// where remote is the edge's From endpoint, local is its To endpoint,
// pose_base_wrt_remote is a spanning-tree hop inside the remote submap (or
// an identity when base already is remote), and pose_observer_wrt_local is
// read directly off the edge graph (not the spanning tree) since it is
// typically the sibling mandatory edge Step B of this same CreateEdges
// batch just created, which RebuildAllSpanningTrees has not folded in yet.
func (s *State) bootstrapMethod3(info NewEdgeInfo) (pose.Pose, bool) {
	observer := info.LoopClosureObserverKF
	base := info.LoopClosureBaseKF
	if observer == InvalidKeyframeID || base == InvalidKeyframeID {
		return nil, false
	}

	edge := s.k2kEdges[info.ID]
	remote, local := edge.From, edge.To

	poseBaseWrtRemote, ok := s.GetKFRelativePose(base, remote)
	if !ok {
		return nil, false
	}

	// SharedLandmarkPairs(base, observer) keeps base in the "From" role and
	// observer in the "To" role, matching bootstrapMethod2's own call
	// convention for a mandatory edge's (From=earlier, To=later-observer)
	// pair: the landmark-matcher interface's single caller relies on From
	// being whichever keyframe first registered (and thus, for a fixed
	// self-landmark, trivially observes) the shared landmark, and To being
	// whichever keyframe re-observed it with the real measurement.
	kind, pairs, ok := s.SharedLandmarkPairs(base, observer)
	if !ok {
		return nil, false
	}
	matcher := observations.ForKind(toObsPkgKind(kind))
	poseBaseWrtObserver, ok := matcher.Match(s.MatcherParams(), pairs, s.Params.Is3D)
	if !ok {
		return nil, false
	}
	poseObserverWrtBase := pose.Inverse(poseBaseWrtObserver)

	poseObserverWrtLocal, ok := s.DirectEdgePose(observer, local)
	if !ok {
		return nil, false
	}

	poseObserverWrtRemote := pose.Compose(poseBaseWrtRemote, poseObserverWrtBase)
	localWrtRemote := pose.Compose(poseObserverWrtRemote, pose.Inverse(poseObserverWrtLocal))
	// edge.InvPose is documented as pose_From_wrt_To, i.e. pose_remote_wrt_local.
	return pose.Inverse(localWrtRemote), true
}
