// Package optimize implements the Levenberg-Marquardt local optimizer of
// spec.md §4.7. It treats every kf2kf edge pose and unknown landmark
// position inside a local area as a free parameter, and minimizes the
// total squared observation residual over them, using numerical
// (finite-difference) Jacobians rather than sensor-specific analytic ones —
// spec.md treats the optimizer as an external, swappable collaborator, and
// a generic numerical-Jacobian solver keeps this implementation decoupled
// from any particular sensor's derivative bookkeeping (see DESIGN.md).
package optimize

import (
	"math"
	"sort"

	"github.com/edaniels/golog"
	"gonum.org/v1/gonum/mat"

	"github.com/MRPT/srba/pose"
	"github.com/MRPT/srba/rba"
)

// Engine is the Levenberg-Marquardt rba.Optimizer implementation.
type Engine struct {
	Logger golog.Logger
}

// New builds an optimize.Engine. A nil logger falls back to golog.Global().
func New(logger golog.Logger) *Engine {
	if logger == nil {
		logger = golog.Global()
	}
	return &Engine{Logger: logger}
}

// paramBlock is one contiguous slice of the flattened parameter vector:
// either a kf2kf edge's pose or a landmark's position.
type paramBlock struct {
	edge     rba.EdgeID
	landmark rba.LandmarkID
	isEdge   bool
	offset   int
	dims     int
}

// Optimize implements rba.Optimizer.
func (e *Engine) Optimize(state *rba.State, area rba.LocalArea, params rba.OptimizerParameters) (rba.OptimizeResults, error) {
	blocks, x0 := buildParamVector(state, area)
	if len(x0) == 0 || len(area.K2FEdges) == 0 {
		return rba.OptimizeResults{NumObservations: len(area.K2FEdges), Converged: true}, nil
	}

	eval := func(x []float64) []float64 {
		return residualVector(state, area, blocks, x)
	}

	r0 := eval(x0)
	cost0 := sumSquares(r0)

	x := append([]float64(nil), x0...)
	lambda := 1e-3
	iters := 0
	converged := false

	for iters = 0; iters < params.MaxIters; iters++ {
		r := eval(x)
		cost := sumSquares(r)
		if len(r) > 0 && cost/float64(len(r)) < params.MaxErrorPerObsToStop {
			converged = true
			break
		}

		j := numericalJacobian(eval, x, r)
		n := len(x)
		jt := &mat.Dense{}
		jt.CloneFrom(j.T())

		a := mat.NewDense(n, n, nil)
		a.Mul(jt, j)
		for i := 0; i < n; i++ {
			a.Set(i, i, a.At(i, i)+lambda)
		}

		rCol := mat.NewDense(len(r), 1, r)
		b := mat.NewDense(n, 1, nil)
		b.Mul(jt, rCol)
		for i := 0; i < n; i++ {
			b.Set(i, 0, -b.At(i, 0))
		}

		var delta mat.Dense
		if err := delta.Solve(a, b); err != nil {
			lambda *= 2
			if lambda > params.MaxLambda {
				break
			}
			continue
		}

		xNew := make([]float64, n)
		for i := 0; i < n; i++ {
			xNew[i] = x[i] + delta.At(i, 0)
		}
		rNew := eval(xNew)
		costNew := sumSquares(rNew)

		if costNew < cost {
			improvement := 1.0
			if cost > 0 {
				improvement = (cost - costNew) / cost
			}
			x = xNew
			lambda = math.Max(lambda/params.MaxRho, 1e-12)
			if improvement < params.MinErrorReductionRatioToRelinearize {
				converged = true
				iters++
				break
			}
		} else {
			lambda *= params.MaxRho
			if lambda > params.MaxLambda {
				break
			}
		}
	}

	rFinal := eval(x)
	costFinal := sumSquares(rFinal)
	writeBackParamVector(state, blocks, x)

	rmse := 0.0
	if len(rFinal) > 0 {
		rmse = math.Sqrt(costFinal / float64(len(rFinal)))
	}
	if !converged {
		e.Logger.Warnw("local optimization did not converge", "iterations", iters, "obs_rmse", rmse)
	}
	return rba.OptimizeResults{
		NumObservations:    len(area.K2FEdges),
		TotalSqrErrorInit:  cost0,
		TotalSqrErrorFinal: costFinal,
		ObsRMSE:            rmse,
		Iterations:         iters,
		Converged:          converged,
	}, nil
}

func sumSquares(v []float64) float64 {
	s := 0.0
	for _, x := range v {
		s += x * x
	}
	return s
}

// buildParamVector flattens every area edge's pose and every free landmark
// in area.Landmarks (spec.md §4.5: unknown, and based within the window)
// into one parameter vector, in deterministic (sorted-ID) order.
func buildParamVector(state *rba.State, area rba.LocalArea) ([]paramBlock, []float64) {
	var blocks []paramBlock
	var x []float64

	edges := append([]rba.EdgeID(nil), area.K2KEdges...)
	sort.Slice(edges, func(i, j int) bool { return edges[i] < edges[j] })
	for _, eid := range edges {
		p := state.K2KEdge(eid).InvPose.Params()
		blocks = append(blocks, paramBlock{edge: eid, isEdge: true, offset: len(x), dims: len(p)})
		x = append(x, p...)
	}

	lms := append([]rba.LandmarkID(nil), area.Landmarks...)
	sort.Slice(lms, func(i, j int) bool { return lms[i] < lms[j] })
	for _, id := range lms {
		lm, ok := state.LandmarkPosition(id)
		if !ok {
			continue
		}
		blocks = append(blocks, paramBlock{landmark: id, isEdge: false, offset: len(x), dims: len(lm.Position)})
		x = append(x, lm.Position...)
	}

	return blocks, x
}

func decodeBlock(blocks []paramBlock, x []float64) (map[rba.EdgeID]pose.Pose, map[rba.LandmarkID][]float64) {
	edgePoses := make(map[rba.EdgeID]pose.Pose)
	landmarks := make(map[rba.LandmarkID][]float64)
	for _, b := range blocks {
		vals := x[b.offset : b.offset+b.dims]
		if b.isEdge {
			if b.dims == 3 {
				edgePoses[b.edge] = pose.SE2FromParams(vals)
			} else {
				edgePoses[b.edge] = pose.SE3FromParams(vals)
			}
		} else {
			landmarks[b.landmark] = append([]float64(nil), vals...)
		}
	}
	return edgePoses, landmarks
}

func writeBackParamVector(state *rba.State, blocks []paramBlock, x []float64) {
	edgePoses, landmarks := decodeBlock(blocks, x)
	for eid, p := range edgePoses {
		state.SetEdgeInvPose(eid, p)
	}
	for id, pos := range landmarks {
		state.SetLandmarkPosition(id, pos)
	}
}

// residualVector decodes x, composes a global pose per keyframe in the
// area (rooted at area.Root), and evaluates every observation's residual
// against it.
func residualVector(state *rba.State, area rba.LocalArea, blocks []paramBlock, x []float64) []float64 {
	edgePoses, landmarks := decodeBlock(blocks, x)
	global := computeGlobalPoses(state, area, edgePoses)

	var out []float64
	for _, eid := range area.K2FEdges {
		obs := state.K2FEdge(eid)
		base, ok := state.LandmarkBaseKF(obs.FeatID)
		if !ok {
			continue
		}
		gKF, ok1 := global[obs.KF]
		gBase, ok2 := global[base]
		if !ok1 || !ok2 {
			continue
		}
		poseBaseWrtKF := pose.Compose(pose.Inverse(gKF), gBase)

		var landmarkPos []float64
		if p, ok := landmarks[obs.FeatID]; ok {
			landmarkPos = p
		} else if lm, ok := state.LandmarkPosition(obs.FeatID); ok {
			landmarkPos = lm.Position
		} else {
			continue
		}
		r := observationResidual(obs.ObsData.Kind(), poseBaseWrtKF, landmarkPos, state.Params.Sensor, obs.ObsData.AsArray())
		out = append(out, r...)
	}
	return out
}

// computeGlobalPoses runs one BFS from area.Root over area.K2KEdges, using
// the (possibly just-perturbed) working edge poses, and returns
// pose_x_wrt_root for every reachable keyframe x.
func computeGlobalPoses(state *rba.State, area rba.LocalArea, working map[rba.EdgeID]pose.Pose) map[rba.KeyframeID]pose.Pose {
	var identity pose.Pose = pose.IdentitySE2()
	if state.Params.Is3D {
		identity = pose.IdentitySE3()
	}
	global := map[rba.KeyframeID]pose.Pose{area.Root: identity}
	adjacency := make(map[rba.KeyframeID][]rba.EdgeID)
	for _, eid := range area.K2KEdges {
		e := state.K2KEdge(eid)
		adjacency[e.From] = append(adjacency[e.From], eid)
		adjacency[e.To] = append(adjacency[e.To], eid)
	}

	frontier := []rba.KeyframeID{area.Root}
	for len(frontier) > 0 {
		var next []rba.KeyframeID
		for _, x := range frontier {
			for _, eid := range adjacency[x] {
				e := state.K2KEdge(eid)
				var y rba.KeyframeID
				switch {
				case e.From == x:
					y = e.To
				case e.To == x:
					y = e.From
				default:
					continue
				}
				if _, seen := global[y]; seen {
					continue
				}
				invPose, ok := working[eid]
				if !ok {
					invPose = e.InvPose
				}
				var hop pose.Pose
				if e.From == x {
					hop = pose.Inverse(invPose)
				} else {
					hop = invPose
				}
				global[y] = pose.Compose(global[x], hop)
				next = append(next, y)
			}
		}
		frontier = next
	}
	return global
}

// numericalJacobian computes the forward-difference Jacobian of eval at x,
// given the residual already evaluated there (r0), one column at a time.
func numericalJacobian(eval func([]float64) []float64, x, r0 []float64) *mat.Dense {
	n := len(x)
	m := len(r0)
	j := mat.NewDense(m, n, nil)
	const h = 1e-6
	for col := 0; col < n; col++ {
		xp := append([]float64(nil), x...)
		xp[col] += h
		rp := eval(xp)
		for row := 0; row < m && row < len(rp); row++ {
			j.Set(row, col, (rp[row]-r0[row])/h)
		}
	}
	return j
}
