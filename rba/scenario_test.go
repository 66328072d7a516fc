package rba_test

import (
	"context"
	"strings"
	"testing"

	"go.viam.com/test"

	"github.com/MRPT/srba/rba"
	"github.com/MRPT/srba/rba/ecp"
	"github.com/MRPT/srba/rba/optimize"
	"github.com/MRPT/srba/rba/replay"
)

// selfLandmarkObs builds the fixed self-landmark observation every keyframe
// in these chain scenarios registers on arrival, per the graph-SLAM
// emulation convention rba/replay is grounded on: a zero-payload, fixed
// landmark whose ID equals the keyframe's own ID, so a later keyframe can
// reference it to emulate a direct relative-pose measurement.
func selfLandmarkObs(kf rba.KeyframeID) rba.NewKFObservation {
	return rba.NewKFObservation{
		FeatID:  rba.LandmarkID(kf),
		ObsData: rba.RelativePose2DObs{X: 0, Y: 0, Yaw: 0},
		IsFixed: true,
		InitVal: []float64{0, 0, 0},
	}
}

// TestLinearChainOfTenKeyframesCreatesNineEdges exercises a straight ten
// keyframe chain end to end: each keyframe measures its immediate
// predecessor, so the Linear policy should mandatorily link every one of
// them and nothing else, and the noise-free data should leave the final
// local optimization pass with essentially zero residual.
func TestLinearChainOfTenKeyframesCreatesNineEdges(t *testing.T) {
	params := rba.DefaultParameters()
	s := rba.NewState(params, nil)
	s.SetECPPolicy(ecp.NewLinear(params.ECP))
	s.SetOptimizer(optimize.New(nil))

	var last rba.DefineKeyframeResult
	totalEdges := 0
	for i := 0; i < 10; i++ {
		obs := []rba.NewKFObservation{selfLandmarkObs(rba.KeyframeID(i))}
		if i > 0 {
			obs = append(obs, rba.NewKFObservation{
				FeatID:  rba.LandmarkID(i - 1),
				ObsData: rba.RelativePose2DObs{X: -1, Y: 0, Yaw: 0},
			})
		}
		res, err := s.DefineNewKeyframe(context.Background(), obs, true)
		test.That(t, err, test.ShouldBeNil)
		totalEdges += len(res.CreatedEdgeIDs)
		last = res
	}

	test.That(t, totalEdges, test.ShouldEqual, 9)
	test.That(t, s.Stats().NumKeyframes, test.ShouldEqual, 10)
	test.That(t, last.OptimizeResults.ObsRMSE, test.ShouldBeLessThan, 1e-6)
}

// TestSubmapLoopClosureBootstrapsAcrossSubmapCenters builds a seventeen
// keyframe chain under the Submap policy (submap_size=5, max_tree_depth=3,
// min_obs_to_loop_closure=1) where keyframe 11 additionally re-observes
// keyframe 1's landmark. Keyframe 11 is not its submap's center (10 is),
// so the loop-closure edge Step C creates links submap centers 0 and 10 —
// neither of which is keyframe 11 itself — which is the case
// bootstrapMethod3 resolves via its observer/base composition: it matches
// kf11 against base kf1, reaches remote center 0 through the spanning tree,
// and reaches local center 10 through the mandatory edge (10,11) created in
// the same call.
func TestSubmapLoopClosureBootstrapsAcrossSubmapCenters(t *testing.T) {
	params := rba.DefaultParameters()
	params.ECP = rba.ECPParameters{Kind: rba.ECPSubmap, SubmapSize: 5, MinObsToLoopClosure: 1}
	params.Tree.MaxTreeDepth = 3
	s := rba.NewState(params, nil)
	s.SetECPPolicy(ecp.NewSubmap(params.ECP))
	s.SetOptimizer(optimize.New(nil))

	var loopClosureResult rba.DefineKeyframeResult
	for i := 0; i < 17; i++ {
		kf := rba.KeyframeID(i)
		obs := []rba.NewKFObservation{selfLandmarkObs(kf)}
		if i > 0 {
			obs = append(obs, rba.NewKFObservation{
				FeatID:  rba.LandmarkID(i - 1),
				ObsData: rba.RelativePose2DObs{X: -1, Y: 0, Yaw: 0},
			})
		}
		if i == 11 {
			// Consistent with the chain (kf1 is 10 steps behind kf11), so
			// the local optimization pass has nothing real to correct and
			// obs_rmse stays at noise-free precision.
			obs = append(obs, rba.NewKFObservation{
				FeatID:  rba.LandmarkID(1),
				ObsData: rba.RelativePose2DObs{X: -10, Y: 0, Yaw: 0},
			})
		}
		res, err := s.DefineNewKeyframe(context.Background(), obs, true)
		test.That(t, err, test.ShouldBeNil)
		if i == 11 {
			loopClosureResult = res
		}
	}

	test.That(t, len(loopClosureResult.CreatedEdgeIDs), test.ShouldEqual, 2)

	var sawMandatory, sawLoopClosure bool
	for _, eid := range loopClosureResult.CreatedEdgeIDs {
		e := s.K2KEdge(eid)
		switch {
		case e.From == rba.KeyframeID(10) && e.To == rba.KeyframeID(11):
			sawMandatory = true
		case e.From == rba.KeyframeID(0) && e.To == rba.KeyframeID(10):
			sawLoopClosure = true
		}
	}
	test.That(t, sawMandatory, test.ShouldBeTrue)
	test.That(t, sawLoopClosure, test.ShouldBeTrue)
	test.That(t, loopClosureResult.OptimizeResults.ObsRMSE, test.ShouldBeLessThan, 1e-6)
}

// TestDatasetReplayMatchesHandComputedGroundTruth replays a small,
// rotation-free 2D pose-graph dataset (so the composed poses reduce to
// plain vector addition) that includes one redundant long-range edge
// consistent with the rest of the chain, and checks the final spanning
// tree reconstructs the hand-computed ground-truth relative pose between
// the first and last keyframes.
func TestDatasetReplayMatchesHandComputedGroundTruth(t *testing.T) {
	const data = `EDGE 0 1 -1 0 0
EDGE 1 2 -1 0 0
EDGE 2 3 -1 0 0
EDGE 3 4 -1 0 0
EDGE 2 4 -2 0 0
`
	edges, err := replay.ParseDataset(strings.NewReader(data))
	test.That(t, err, test.ShouldBeNil)

	params := rba.DefaultParameters()
	s := rba.NewState(params, nil)
	s.SetECPPolicy(ecp.NewLinear(params.ECP))
	s.SetOptimizer(optimize.New(nil))

	result, err := replay.Replay(context.Background(), s, edges)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, result.KeyframesCreated, test.ShouldEqual, 5)

	rel, ok := s.GetKFRelativePose(rba.KeyframeID(0), rba.KeyframeID(4))
	test.That(t, ok, test.ShouldBeTrue)
	p := rel.Params()
	test.That(t, p[0], test.ShouldAlmostEqual, -4.0, 1e-6)
	test.That(t, p[1], test.ShouldAlmostEqual, 0.0, 1e-6)
	test.That(t, p[2], test.ShouldAlmostEqual, 0.0, 1e-6)

	last := result.Results[len(result.Results)-1]
	test.That(t, last.OptimizeResults.ObsRMSE, test.ShouldBeLessThan, 1e-6)
}

// TestLoopClosureEdgeInitialGuessMatchesTrueRelativePoseBeforeOptimization
// checks that a shortcut edge bootstrapped by Method 2 (the landmark
// matcher, spec.md §4.4) is flagged HasApproxInitVal and already carries
// the true relative pose before any optimization runs. max_tree_depth=1
// forces keyframe 3's re-observation of keyframe 0's landmark to become a
// real shortcut edge (0,3) rather than being folded into the already
// within-tree mandatory chain, and disabling both optimization passes
// lets the test see bootstrap's raw output.
func TestLoopClosureEdgeInitialGuessMatchesTrueRelativePoseBeforeOptimization(t *testing.T) {
	params := rba.DefaultParameters()
	params.Tree.MaxTreeDepth = 1
	params.ECP.MinObsToLoopClosure = 1
	params.Optimizer.OptimizeNewEdgesAlone = false
	s := rba.NewState(params, nil)
	s.SetECPPolicy(ecp.NewLinear(params.ECP))
	s.SetOptimizer(optimize.New(nil))

	for i := 0; i < 3; i++ {
		res, err := s.DefineNewKeyframe(context.Background(), []rba.NewKFObservation{selfLandmarkObs(rba.KeyframeID(i))}, false)
		test.That(t, err, test.ShouldBeNil)
		_ = res
	}

	res, err := s.DefineNewKeyframe(context.Background(), []rba.NewKFObservation{
		selfLandmarkObs(rba.KeyframeID(3)),
		{FeatID: 0, ObsData: rba.RelativePose2DObs{X: -3, Y: 0, Yaw: 0}},
	}, false)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(res.CreatedEdgeIDs), test.ShouldEqual, 2)

	var shortcut *rba.K2KEdge
	for _, eid := range res.CreatedEdgeIDs {
		e := s.K2KEdge(eid)
		if e.From == rba.KeyframeID(0) && e.To == rba.KeyframeID(3) {
			shortcut = &e
		}
	}
	test.That(t, shortcut, test.ShouldNotBeNil)

	p := shortcut.InvPose.Params()
	test.That(t, p[0], test.ShouldAlmostEqual, -3.0, 1e-9)
	test.That(t, p[1], test.ShouldAlmostEqual, 0.0, 1e-9)
	test.That(t, p[2], test.ShouldAlmostEqual, 0.0, 1e-9)
}

// TestStereoLandmarksConvergeWithinBoundedIterations defines two keyframes
// observing five stereo landmarks each with positive disparity, with the
// landmarks' positions starting from an unknown (zero) initial estimate,
// and checks the local optimizer converges to a low residual within the
// configured iteration budget.
func TestStereoLandmarksConvergeWithinBoundedIterations(t *testing.T) {
	params := rba.DefaultParameters()
	params.Is3D = true
	params.Sensor = rba.SensorParameters{
		CameraFx: 100, CameraFy: 100, CameraCx: 50, CameraCy: 50,
		StereoBaseline: 0.1,
	}
	s := rba.NewState(params, nil)
	s.SetECPPolicy(ecp.NewLinear(params.ECP))
	s.SetOptimizer(optimize.New(nil))

	// Five points one meter in front of keyframe 0's camera, spread across
	// the image; keyframe 1's camera is translated by (0.2, 0.1, 0)
	// relative to keyframe 0 with no rotation or depth change, so disparity
	// (tied to depth alone) stays constant and positive at both keyframes.
	kf0Points := [][3]float64{
		{0, 0, 1}, {0.1, 0, 1}, {-0.1, 0, 1}, {0, 0.1, 1}, {0, -0.1, 1},
	}
	translation := [2]float64{0.2, 0.1}

	toStereo := func(p [3]float64) rba.StereoPixelObs {
		d := params.Sensor.CameraFx * params.Sensor.StereoBaseline / p[2]
		u := p[0]*params.Sensor.CameraFx/p[2] + params.Sensor.CameraCx
		v := p[1]*params.Sensor.CameraFy/p[2] + params.Sensor.CameraCy
		return rba.StereoPixelObs{U: u, V: v, Disparity: d}
	}

	var obs0, obs1 []rba.NewKFObservation
	for i, p := range kf0Points {
		obs0 = append(obs0, rba.NewKFObservation{FeatID: rba.LandmarkID(i), ObsData: toStereo(p)})
		p1 := [3]float64{p[0] - translation[0], p[1] - translation[1], p[2]}
		obs1 = append(obs1, rba.NewKFObservation{FeatID: rba.LandmarkID(i), ObsData: toStereo(p1)})
	}

	_, err := s.DefineNewKeyframe(context.Background(), obs0, false)
	test.That(t, err, test.ShouldBeNil)
	res, err := s.DefineNewKeyframe(context.Background(), obs1, true)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, res.OptimizeResults.Converged, test.ShouldBeTrue)
	test.That(t, res.OptimizeResults.Iterations <= params.Optimizer.MaxIters, test.ShouldBeTrue)
	test.That(t, res.OptimizeResults.ObsRMSE, test.ShouldBeLessThan, 1e-2)
}
