package rba

import "github.com/MRPT/srba/pose"

// spanTreeEntry is one symbolic spanning-tree entry: the hop count from the
// tree's source keyframe to a destination, and the edge used to reach that
// destination on the shortest path (the BFS parent edge). Ties between
// equal-length paths are broken by preferring the lowest edge ID, per
// spec.md §4.2/§9, which makes rebuilds deterministic.
type spanTreeEntry struct {
	Distance int
	NextEdge EdgeID
}

// spanningTree holds, for every keyframe seen as a BFS source, the bounded
// symbolic and numeric caches described in spec.md §4.2. Both caches are
// rebuilt together; the numeric one mirrors the symbolic one by composing
// poses along the same parent-edge pointers.
type spanningTree struct {
	symbolic map[KeyframeID]map[KeyframeID]spanTreeEntry
	numeric  map[KeyframeID]map[KeyframeID]pose.Pose
}

func newSpanningTree() *spanningTree {
	return &spanningTree{
		symbolic: make(map[KeyframeID]map[KeyframeID]spanTreeEntry),
		numeric:  make(map[KeyframeID]map[KeyframeID]pose.Pose),
	}
}

// distance returns the cached hop count from src to dst, and whether an
// entry exists at all (entries only exist up to max_tree_depth).
func (t *spanningTree) distance(src, dst KeyframeID) (int, bool) {
	m, ok := t.symbolic[src]
	if !ok {
		return 0, false
	}
	e, ok := m[dst]
	return e.Distance, ok
}

// relativePose returns the cached composed pose of src expressed in dst's
// frame (pose_src_wrt_dst), i.e. the value get_kf_relative_pose(src, dst)
// returns per spec.md §4.1, or nil if not cached.
func (t *spanningTree) relativePose(src, dst KeyframeID) pose.Pose {
	m, ok := t.numeric[src]
	if !ok {
		return nil
	}
	p, ok := m[dst]
	if !ok {
		return nil
	}
	return p
}

// rebuildFrom recomputes the bounded symbolic+numeric caches rooted at src,
// via a breadth-first search over the current kf2kf edge set capped at
// maxDepth hops. The hop pose between two adjacent keyframes x (closer to
// src) and y is the edge's InvPose taken directly when walking the edge
// forward (x == edge.From) and inverted when walking it backward
// (x == edge.To); this is the convention under which get_kf_relative_pose
// composes correctly with the bootstrap formulas of spec.md §4.4 (see
// DESIGN.md for the derivation — spec.md §4.2's prose states the opposite
// traversal-direction rule, which is the point resolved there).
func (s *State) rebuildFrom(src KeyframeID, maxDepth int, identity pose.Pose) (map[KeyframeID]spanTreeEntry, map[KeyframeID]pose.Pose) {
	sym := map[KeyframeID]spanTreeEntry{src: {Distance: 0, NextEdge: InvalidEdgeID}}
	num := map[KeyframeID]pose.Pose{src: identity}

	frontier := []KeyframeID{src}
	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		type candidate struct {
			edge EdgeID
			from KeyframeID
			to   KeyframeID
		}
		candidates := make(map[KeyframeID]candidate)
		for _, x := range frontier {
			for _, eid := range s.keyframes[x].AdjacentK2KEdges {
				e := s.k2kEdges[eid]
				var y KeyframeID
				switch {
				case e.From == x:
					y = e.To
				case e.To == x:
					y = e.From
				default:
					continue
				}
				if _, seen := sym[y]; seen {
					continue
				}
				if cur, ok := candidates[y]; !ok || eid < cur.edge {
					candidates[y] = candidate{edge: eid, from: x, to: y}
				}
			}
		}
		if len(candidates) == 0 {
			break
		}
		var next []KeyframeID
		for y, c := range candidates {
			e := s.k2kEdges[c.edge]
			var hop pose.Pose
			if e.From == c.from {
				hop = e.InvPose
			} else {
				hop = pose.Inverse(e.InvPose)
			}
			num[y] = pose.Compose(hop, num[c.from])
			sym[y] = spanTreeEntry{Distance: depth + 1, NextEdge: c.edge}
			next = append(next, y)
		}
		frontier = next
	}
	return sym, num
}

// InvalidEdgeID marks "no edge", e.g. the BFS-root entry of a spanning tree.
const InvalidEdgeID = EdgeID(^uint32(0))

// RebuildSpanningTrees rebuilds the bounded symbolic+numeric caches for the
// given source keyframes. The new-keyframe pipeline (keyframe.go) always
// passes every current keyframe ID, trading the narrower "only the batch's
// affected endpoints" scope spec.md §4.2 describes for the simpler
// guarantee that every cached entry is always fully current (see
// DESIGN.md).
func (s *State) RebuildSpanningTrees(srcs []KeyframeID) {
	identity := s.identityPose()
	for _, src := range srcs {
		sym, num := s.rebuildFrom(src, s.Params.Tree.MaxTreeDepth, identity)
		s.tree.symbolic[src] = sym
		s.tree.numeric[src] = num
	}
}

// RebuildAllSpanningTrees rebuilds every currently-known keyframe's cache.
func (s *State) RebuildAllSpanningTrees() {
	srcs := make([]KeyframeID, len(s.keyframes))
	for i := range s.keyframes {
		srcs[i] = KeyframeID(i)
	}
	s.RebuildSpanningTrees(srcs)
}

// TopologicalDistance returns the cached hop count between a and b (in
// either direction's cache; the graph is undirected for routing purposes)
// and whether it is known within max_tree_depth.
func (s *State) TopologicalDistance(a, b KeyframeID) (int, bool) {
	if a == b {
		return 0, true
	}
	if d, ok := s.tree.distance(a, b); ok {
		return d, true
	}
	return s.tree.distance(b, a)
}
