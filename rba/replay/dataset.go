// Package replay drives an rba.State from a graph-SLAM text dataset: each
// line names a measured relative pose between two keyframes, and nodes are
// replayed into DefineNewKeyframe calls in increasing ID order. Grounded on
// _examples/original_source/apps/rel-graph-slam/rel-graph-slam-se2.cpp's
// "online SLAM: we cannot add an edge to a FUTURE node" convention: a
// dataset edge is only usable once its lower-numbered endpoint has already
// been replayed, and each edge is emulated as an observation of a
// self-landmark whose ID equals the other endpoint's keyframe ID.
package replay

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/MRPT/srba/rba"
)

// DatasetEdge is one measured relative pose between two keyframes, as found
// in a dataset line "EDGE <from> <to> <x> <y> <yaw>".
type DatasetEdge struct {
	From, To rba.KeyframeID
	X, Y, Yaw float64
}

// ParseDataset reads dataset lines from r. Blank lines and lines starting
// with '#' are ignored.
func ParseDataset(r io.Reader) ([]DatasetEdge, error) {
	var edges []DatasetEdge
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 6 || fields[0] != "EDGE" {
			return nil, errors.Errorf("replay: line %d: expected \"EDGE from to x y yaw\", got %q", lineNum, line)
		}
		from, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			return nil, errors.Wrapf(err, "replay: line %d: from", lineNum)
		}
		to, err := strconv.ParseUint(fields[2], 10, 32)
		if err != nil {
			return nil, errors.Wrapf(err, "replay: line %d: to", lineNum)
		}
		x, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			return nil, errors.Wrapf(err, "replay: line %d: x", lineNum)
		}
		y, err := strconv.ParseFloat(fields[4], 64)
		if err != nil {
			return nil, errors.Wrapf(err, "replay: line %d: y", lineNum)
		}
		yaw, err := strconv.ParseFloat(fields[5], 64)
		if err != nil {
			return nil, errors.Wrapf(err, "replay: line %d: yaw", lineNum)
		}
		edges = append(edges, DatasetEdge{From: rba.KeyframeID(from), To: rba.KeyframeID(to), X: x, Y: y, Yaw: yaw})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return edges, nil
}

// Result summarizes one replayed dataset.
type Result struct {
	KeyframesCreated int
	EdgesCreated     int
	Results          []rba.DefineKeyframeResult
}

// Replay drives state through the dataset edges, one DefineNewKeyframe call
// per distinct "to" keyframe ID, in increasing order, skipping edges whose
// "from" endpoint has not been replayed yet (a forward reference the
// online SLAM convention forbids). Every call runs the full local-area
// optimization (runLocalOptimization=true): a batch replay has no reason
// to defer it.
func Replay(ctx context.Context, state *rba.State, edges []DatasetEdge) (Result, error) {
	byTo := make(map[rba.KeyframeID][]DatasetEdge)
	maxKF := rba.KeyframeID(0)
	for _, e := range edges {
		byTo[e.To] = append(byTo[e.To], e)
		if e.To > maxKF {
			maxKF = e.To
		}
		if e.From > maxKF {
			maxKF = e.From
		}
	}

	var result Result
	for kf := rba.KeyframeID(0); kf <= maxKF; kf++ {
		// Every replayed keyframe first registers a fixed self-landmark at
		// its own origin (feat_id == kf_id, zero payload): later keyframes
		// reference it by ID to emulate a direct relative-pose measurement
		// to this keyframe, per the graph-SLAM emulation convention this
		// package is grounded on.
		obs := []rba.NewKFObservation{{
			FeatID:  rba.LandmarkID(kf),
			ObsData: rba.RelativePose2DObs{X: 0, Y: 0, Yaw: 0},
			IsFixed: true,
			InitVal: []float64{0, 0, 0},
		}}
		edgesForKF := byTo[kf]
		sort.Slice(edgesForKF, func(i, j int) bool { return edgesForKF[i].From < edgesForKF[j].From })
		for _, e := range edgesForKF {
			if e.From >= kf {
				continue // forward reference; the online-SLAM convention disallows it
			}
			obs = append(obs, rba.NewKFObservation{
				FeatID:  rba.LandmarkID(e.From),
				ObsData: rba.RelativePose2DObs{X: e.X, Y: e.Y, Yaw: e.Yaw},
			})
		}
		res, err := state.DefineNewKeyframe(ctx, obs, true)
		if err != nil {
			return result, errors.Wrapf(err, "replay: keyframe %d", kf)
		}
		result.KeyframesCreated++
		result.EdgesCreated += len(res.CreatedEdgeIDs)
		result.Results = append(result.Results, res)
	}
	return result, nil
}

// Summary renders a one-line-per-keyframe human-readable report.
func Summary(result Result) string {
	var b strings.Builder
	for _, r := range result.Results {
		fmt.Fprintf(&b, "kf %d: %d edges created, %d observations in local area, rmse=%.6g, converged=%v\n",
			r.KFID, len(r.CreatedEdgeIDs), r.OptimizeResults.NumObservations, r.OptimizeResults.ObsRMSE, r.OptimizeResults.Converged)
	}
	return b.String()
}
