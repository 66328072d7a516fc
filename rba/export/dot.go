// Package export renders an rba.State's graph for inspection: a Graphviz
// DOT description (spec.md §4.10), optionally rasterized via
// github.com/goccy/go-graphviz, plus the graph-size counters (Stats).
// Grounded on _examples/original_source/include/srba/impl/export_dot.h,
// which offers the same two variants (kf2kf-only, and kf2kf+landmarks).
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/MRPT/srba/rba"
)

// Options controls which parts of the graph DOT/Render include.
type Options struct {
	// IncludeLandmarks adds a node per landmark and its k2f edges; without
	// it, only keyframes and kf2kf edges are drawn.
	IncludeLandmarks bool
}

// DOT renders state as a Graphviz DOT source string: keyframes as boxes,
// kf2kf edges as bold directed arrows, and, with IncludeLandmarks, landmarks
// as triangles (gray if their position is known, white if not) linked to
// their base keyframe by a solid arrow and to every observing keyframe by a
// dotted one.
func DOT(state *rba.State, opts Options) string {
	var b strings.Builder
	b.WriteString("digraph srba {\n")
	b.WriteString("  rankdir=LR;\n")

	for i := 0; i < state.NumKeyframes(); i++ {
		kf := rba.KeyframeID(i)
		b.WriteString(fmt.Sprintf("  kf%d [shape=box,label=\"KF%d\"];\n", kf, kf))
	}
	for i := 0; i < state.NumK2KEdges(); i++ {
		e := state.K2KEdge(rba.EdgeID(i))
		b.WriteString(fmt.Sprintf("  kf%d -> kf%d [style=bold,label=\"e%d\"];\n", e.From, e.To, e.ID))
	}

	if opts.IncludeLandmarks {
		seen := map[rba.LandmarkID]struct{}{}
		for i := 0; i < state.NumKeyframes(); i++ {
			kf := rba.KeyframeID(i)
			for _, eid := range state.AdjacentKF2FEdges(kf) {
				obs := state.K2FEdge(eid)
				if _, ok := seen[obs.FeatID]; !ok {
					seen[obs.FeatID] = struct{}{}
					fill := "white"
					if state.IsKnownLandmark(obs.FeatID) {
						fill = "gray"
					}
					b.WriteString(fmt.Sprintf("  lm%d [shape=triangle,style=filled,fillcolor=%s,label=\"LM%d\"];\n", obs.FeatID, fill, obs.FeatID))
					if base, ok := state.LandmarkBaseKF(obs.FeatID); ok {
						b.WriteString(fmt.Sprintf("  kf%d -> lm%d;\n", base, obs.FeatID))
					}
				}
				b.WriteString(fmt.Sprintf("  kf%d -> lm%d [style=dotted,label=\"%s\"];\n", kf, obs.FeatID, obs.ObsData.Kind()))
			}
		}
	}

	b.WriteString("}\n")
	return b.String()
}

// Render draws the DOT graph to w in the given Graphviz output format
// (e.g. "png", "svg"), via github.com/goccy/go-graphviz.
func Render(state *rba.State, opts Options, format string, w io.Writer) error {
	g := graphviz.New()
	graph, err := graphviz.ParseBytes([]byte(DOT(state, opts)))
	if err != nil {
		return err
	}
	defer graph.Close()
	defer g.Close()
	return g.Render(graph, graphviz.Format(format), w)
}

// Stats returns the current graph-size snapshot (spec.md's introspection
// surface), a thin wrapper over rba.State.Stats for callers that only
// import rba/export.
func Stats(state *rba.State) rba.Stats { return state.Stats() }
