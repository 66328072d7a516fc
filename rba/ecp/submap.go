package ecp

import "github.com/MRPT/srba/rba"

// Submap is the Fixed-Size Submap Edge Creation Policy: keyframes are
// grouped into consecutive submaps of SubmapSize keyframes, each submap
// named by its lowest-numbered keyframe (its "center"). Every non-center
// keyframe links to its submap's center; a keyframe that re-observes
// enough landmarks from another submap's area gets a direct loop-closure
// edge from that remote area's center to its own submap's center.
// Grounded on _examples/original_source/include/srba/ecps/local_areas_fixed_size.h.
type Submap struct {
	SubmapSize          int
	MinObsToLoopClosure int
}

// NewSubmap builds a Submap policy from the engine's ECP parameters.
func NewSubmap(params rba.ECPParameters) *Submap {
	size := params.SubmapSize
	if size <= 0 {
		size = 1
	}
	return &Submap{SubmapSize: size, MinObsToLoopClosure: params.MinObsToLoopClosure}
}

// center returns the submap center (lowest KF ID) of the submap kf belongs to.
func (p *Submap) center(kf rba.KeyframeID) rba.KeyframeID {
	return rba.KeyframeID((int(kf) / p.SubmapSize) * p.SubmapSize)
}

// CreateEdges implements rba.ECPPolicy, per spec.md §4.3.2.
func (p *Submap) CreateEdges(state *rba.State, kf rba.KeyframeID) ([]rba.NewEdgeInfo, error) {
	var created []rba.NewEdgeInfo

	c := p.center(kf)

	// Step B — mandatory edge. A KF that opens a fresh submap (c == kf) gets
	// no mandatory edge here; it links to the most-connected remote area in
	// Step C instead.
	if c != kf {
		id, err := state.CreateKF2KFEdge(c, kf, nil)
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

	// Step A — voting. Tally observations by base KF, group by area
	// (center(base_kf)), and track whether every voting base KF in an area
	// equals that area's center, for Step C's extra-hop correction below.
	baseVotes := state.ObservedBaseKFVotes(kf)
	areaVotes := make(map[rba.KeyframeID]int)
	areaAllCenters := make(map[rba.KeyframeID]bool)
	areaBestBase := make(map[rba.KeyframeID]rba.KeyframeID)
	areaBestBaseVotes := make(map[rba.KeyframeID]int)
	for _, base := range sortedByVoteDesc(baseVotes) {
		count := baseVotes[base]
		area := p.center(base)
		if _, seen := areaAllCenters[area]; !seen {
			areaAllCenters[area] = true
		}
		if base != area {
			areaAllCenters[area] = false
		}
		areaVotes[area] += count
		if count > areaBestBaseVotes[area] {
			areaBestBaseVotes[area] = count
			areaBestBase[area] = base
		}
	}

	// Step C — loop-closure edges, for each remote area sorted by
	// descending vote, with remote center Cr != C.
	for _, area := range sortedByVoteDesc(areaVotes) {
		if area == c {
			continue
		}
		votes := areaVotes[area]
		if votes < p.MinObsToLoopClosure {
			continue
		}

		// extra counts hops that would have been implicit: one if the new
		// KF itself is its submap's center, one if every voting base in the
		// remote area is literally that area's center.
		extra := 2
		if c == kf {
			extra--
		}
		if areaAllCenters[area] {
			extra--
		}

		dist, withinTree := state.TopologicalDistance(c, area)
		if withinTree && dist+extra <= state.Params.Tree.MaxTreeDepth {
			continue // already cheaply reachable, no shortcut needed
		}

		id, err := state.CreateKF2KFEdge(area, c, nil)
		if err != nil {
			continue // already linked by a previous iteration or a duplicate vote target
		}
		created = append(created, rba.NewEdgeInfo{
			ID:                    id,
			HasApproxInitVal:      false,
			LoopClosureObserverKF: kf,
			LoopClosureBaseKF:     areaBestBase[area],
		})
	}

	if kf > 0 && len(created) == 0 {
		return nil, rba.ErrIsolatedKeyframe(kf, p.MinObsToLoopClosure)
	}
	return created, nil
}
