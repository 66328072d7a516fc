package ecp_test

import (
	"testing"

	"go.viam.com/test"

	"github.com/MRPT/srba/rba"
	"github.com/MRPT/srba/rba/ecp"
)

func TestLinearCreatesMandatoryChainEdge(t *testing.T) {
	s := rba.NewState(rba.DefaultParameters(), nil)
	p := ecp.NewLinear(rba.ECPParameters{MinObsToLoopClosure: 4})

	a := s.InsertKeyframe()
	edgesA, err := p.CreateEdges(s, a)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(edgesA), test.ShouldEqual, 0) // first keyframe has no predecessor

	b := s.InsertKeyframe()
	edgesB, err := p.CreateEdges(s, b)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(edgesB), test.ShouldEqual, 1)
	test.That(t, edgesB[0].IsLoopClosure(), test.ShouldBeFalse)
}

func TestLinearPropagatesMandatoryEdgeCreationError(t *testing.T) {
	s := rba.NewState(rba.DefaultParameters(), nil)
	p := ecp.NewLinear(rba.ECPParameters{MinObsToLoopClosure: 4})

	a := s.InsertKeyframe()
	b := s.InsertKeyframe()
	_, err := s.CreateKF2KFEdge(a, b, nil) // pre-create the mandatory edge so the policy can't
	test.That(t, err, test.ShouldBeNil)

	_, err = p.CreateEdges(s, b)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestSubmapCenterWithNoVotesIsIsolated(t *testing.T) {
	s := rba.NewState(rba.DefaultParameters(), nil)
	p := ecp.NewSubmap(rba.ECPParameters{SubmapSize: 3, MinObsToLoopClosure: 4})

	for i := 0; i < 4; i++ {
		s.InsertKeyframe()
	}
	// kf 0, 1, 2 belong to submap centered at 0; kf 3 starts a new submap
	// centered at 3. Step B gives it no mandatory edge (it is its own
	// center), and with no observations there are no votes for Step C to
	// act on either, so it is correctly isolated.
	_, err := p.CreateEdges(s, rba.KeyframeID(3))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "keyframe 3 has no suitable linking keyframe")
	test.That(t, err.Error(), test.ShouldContainSubstring, "at least 4 shared observations")
}

func TestSubmapCenterLoopClosesToRemoteAreaCenter(t *testing.T) {
	s := rba.NewState(rba.DefaultParameters(), nil)
	p := ecp.NewSubmap(rba.ECPParameters{SubmapSize: 3, MinObsToLoopClosure: 1})

	for i := 0; i < 4; i++ {
		s.InsertKeyframe()
	}
	_, err := s.InsertObservation(rba.KeyframeID(0), rba.KeyframeID(0), rba.NewKFObservation{
		FeatID: 1, ObsData: rba.Cartesian2DObs{X: 0, Y: 0},
	})
	test.That(t, err, test.ShouldBeNil)
	// kf 3 re-observes a landmark based at kf 0 (area 0), its submap's
	// remote neighbor. Step C must wire the edge as (Cr, C) = (0, 3), the
	// two submap centers, not (0, 3)-as-(base, new_kf) directly.
	_, err = s.InsertObservation(rba.KeyframeID(3), rba.KeyframeID(3), rba.NewKFObservation{
		FeatID: 1, ObsData: rba.Cartesian2DObs{X: 5, Y: 5},
	})
	test.That(t, err, test.ShouldBeNil)

	edges, err := p.CreateEdges(s, rba.KeyframeID(3))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(edges), test.ShouldEqual, 1)
	test.That(t, edges[0].IsLoopClosure(), test.ShouldBeTrue)
	test.That(t, edges[0].LoopClosureObserverKF, test.ShouldEqual, rba.KeyframeID(3))
	test.That(t, edges[0].LoopClosureBaseKF, test.ShouldEqual, rba.KeyframeID(0))

	edge := s.K2KEdge(edges[0].ID)
	test.That(t, edge.From, test.ShouldEqual, rba.KeyframeID(0))
	test.That(t, edge.To, test.ShouldEqual, rba.KeyframeID(3))
}

func TestSubmapNonCenterLinksToCenter(t *testing.T) {
	s := rba.NewState(rba.DefaultParameters(), nil)
	p := ecp.NewSubmap(rba.ECPParameters{SubmapSize: 3, MinObsToLoopClosure: 4})

	s.InsertKeyframe()
	s.InsertKeyframe()
	edges, err := p.CreateEdges(s, rba.KeyframeID(1))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(edges), test.ShouldEqual, 1)

	edge := s.K2KEdge(edges[0].ID)
	test.That(t, edge.From, test.ShouldEqual, rba.KeyframeID(0))
	test.That(t, edge.To, test.ShouldEqual, rba.KeyframeID(1))
}
