// Package ecp provides the two Edge Creation Policies from spec.md §4.3:
// Linear (a sequential chain, plus occasional long-range shortcuts) and
// Fixed-Size Submap (a two-level skeleton of submap centers, plus
// vote-driven loop closures). Both satisfy rba.ECPPolicy.
package ecp

import (
	"github.com/MRPT/srba/rba"
)

// Linear is the classic sequential Edge Creation Policy: every new keyframe
// links to its immediate predecessor, and additionally to any keyframe that
// is the base of several landmarks it re-observes but has fallen outside
// the bounded spanning-tree cache — a long-range shortcut that keeps
// get_kf_relative_pose cheap for keyframes that revisit old ground.
// Grounded on _examples/original_source/include/srba/ecps/classic_linear_rba.h.
type Linear struct {
	// MinObsToLoopClosure is the minimum number of landmark re-observations
	// from a given base keyframe before a shortcut edge to it is created.
	MinObsToLoopClosure int
}

// NewLinear builds a Linear policy from the engine's ECP parameters.
func NewLinear(params rba.ECPParameters) *Linear {
	return &Linear{MinObsToLoopClosure: params.MinObsToLoopClosure}
}

// CreateEdges implements rba.ECPPolicy.
func (p *Linear) CreateEdges(state *rba.State, kf rba.KeyframeID) ([]rba.NewEdgeInfo, error) {
	var created []rba.NewEdgeInfo

	if kf > 0 {
		prev := kf - 1
		id, err := state.CreateKF2KFEdge(prev, kf, nil)
		if err != nil {
			return nil, err
		}
		created = append(created, rba.NewEdgeInfo{
			ID:                    id,
			HasApproxInitVal:      false,
			LoopClosureObserverKF: rba.InvalidKeyframeID,
			LoopClosureBaseKF:     rba.InvalidKeyframeID,
		})
	}

	votes := state.ObservedBaseKFVotes(kf)
	for _, base := range sortedByVoteDesc(votes) {
		count := votes[base]
		if base == kf {
			continue
		}
		if kf > 0 && base == kf-1 {
			continue // already linked above
		}
		if count < p.MinObsToLoopClosure {
			continue
		}
		if _, withinTree := state.TopologicalDistance(kf, base); withinTree {
			continue // already cheaply reachable, no shortcut needed
		}
		id, err := state.CreateKF2KFEdge(base, kf, nil)
		if err != nil {
			continue // already linked by a previous iteration or a duplicate vote target
		}
		created = append(created, rba.NewEdgeInfo{
			ID:                    id,
			HasApproxInitVal:      false,
			LoopClosureObserverKF: kf,
			LoopClosureBaseKF:     base,
		})
	}

	if kf > 0 && len(created) == 0 {
		return nil, rba.ErrIsolatedKeyframe(kf, p.MinObsToLoopClosure)
	}
	return created, nil
}
