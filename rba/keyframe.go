package rba

import (
	"context"

	"github.com/pkg/errors"
)

// DefineNewKeyframe runs the nine-step pipeline of spec.md §4.6: it
// inserts a new keyframe, registers its observations, asks the configured
// Edge Creation Policy to link it into the graph, bootstraps an initial
// guess for every edge the policy created, rebuilds the spanning trees,
// optionally pre-optimizes just the new edges, optionally runs a bounded
// local optimization, and records which keyframes this call touched.
//
// observations must be given in a stable order; a landmark seen for the
// first time is registered with the new keyframe as its base, as known
// (fixed) when IsFixed is set and as unknown otherwise. runLocalOptimization
// gates step 7 (the full local-area optimization pass); callers that want
// to batch several keyframes before paying for optimization can pass false
// and run it themselves later. ctx carries no cancellation point inside the
// call (the engine is synchronous per spec.md §5) but is checked once up
// front and threaded through for logging, matching the teacher's habit of
// accepting a context.Context even on CPU-bound calls.
func (s *State) DefineNewKeyframe(ctx context.Context, obs []NewKFObservation, runLocalOptimization bool) (DefineKeyframeResult, error) {
	if err := ctx.Err(); err != nil {
		return DefineKeyframeResult{}, err
	}
	if s.ecp == nil {
		return DefineKeyframeResult{}, errors.New("rba: no ECPPolicy installed (call State.SetECPPolicy first)")
	}
	if s.optimizer == nil {
		return DefineKeyframeResult{}, errors.New("rba: no Optimizer installed (call State.SetOptimizer first)")
	}

	// Step 1: insert the new, still edge-less keyframe.
	kf := s.InsertKeyframe()

	// Step 2: register its observations (and, on first sight, their
	// landmarks, based at this keyframe).
	for _, o := range obs {
		if _, err := s.InsertObservation(kf, kf, o); err != nil {
			return DefineKeyframeResult{}, err
		}
	}

	// Step 3: the Edge Creation Policy links the new keyframe into the graph.
	edgeInfos, err := s.ecp.CreateEdges(s, kf)
	if err != nil {
		return DefineKeyframeResult{}, err
	}
	if kf > 0 && len(edgeInfos) == 0 {
		return DefineKeyframeResult{}, errIsolatedKeyframe(kf, s.Params.ECP.MinObsToLoopClosure)
	}

	// Step 4: bootstrap an initial guess for every edge the policy created.
	edgeIDs := make([]EdgeID, len(edgeInfos))
	for i, info := range edgeInfos {
		edgeInfos[i] = s.bootstrapEdge(kf, info)
		edgeIDs[i] = info.ID
	}

	// Step 5: rebuild the bounded spanning trees. The conservative policy
	// (rebuild every keyframe, not just this batch's endpoints) is
	// documented in DESIGN.md.
	s.RebuildAllSpanningTrees()

	var optResult OptimizeResults

	// Step 6: optional per-edge pre-optimization, scoped to just the new
	// edges, before the full local-area pass folds them in together with
	// whatever else the local area contains.
	if s.Params.Optimizer.OptimizeNewEdgesAlone && len(edgeIDs) > 0 {
		preArea := s.BuildAreaFromEdges(edgeIDs)
		if _, err := s.optimizer.Optimize(s, preArea, s.Params.Optimizer); err != nil {
			return DefineKeyframeResult{}, err
		}
		s.RebuildAllSpanningTrees()
	}

	// Step 7: if requested, local optimization over the bounded neighborhood
	// around the new keyframe.
	if runLocalOptimization {
		area := s.SelectLocalArea(kf)
		optResult, err = s.optimizer.Optimize(s, area, s.Params.Optimizer)
		if err != nil {
			return DefineKeyframeResult{}, err
		}
		s.RebuildAllSpanningTrees()
	}

	// Step 8: record the endpoints of the edges this call created, for the
	// next call's Method 1 bootstrap.
	touched := map[KeyframeID]struct{}{}
	for _, info := range edgeInfos {
		e := s.k2kEdges[info.ID]
		touched[e.From] = struct{}{}
		touched[e.To] = struct{}{}
	}
	touchedList := make([]KeyframeID, 0, len(touched))
	for k := range touched {
		touchedList = append(touchedList, k)
	}
	s.MarkTouched(touchedList)

	// Step 9: return the result.
	return DefineKeyframeResult{
		KFID:            kf,
		CreatedEdgeIDs:  edgeIDs,
		OptimizeResults: optResult,
	}, nil
}
