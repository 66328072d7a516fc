package rba

import (
	"testing"

	"go.viam.com/test"

	"github.com/MRPT/srba/pose"
)

func TestInsertKeyframeAssignsDenseIDs(t *testing.T) {
	s := NewState(DefaultParameters(), nil)
	a := s.InsertKeyframe()
	b := s.InsertKeyframe()
	test.That(t, a, test.ShouldEqual, KeyframeID(0))
	test.That(t, b, test.ShouldEqual, KeyframeID(1))
	test.That(t, s.NumKeyframes(), test.ShouldEqual, 2)
}

func TestCreateKF2KFEdgeRejectsUnknownKeyframe(t *testing.T) {
	s := NewState(DefaultParameters(), nil)
	a := s.InsertKeyframe()
	_, err := s.CreateKF2KFEdge(a, KeyframeID(99), nil)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestCreateKF2KFEdgeRejectsDuplicate(t *testing.T) {
	s := NewState(DefaultParameters(), nil)
	a := s.InsertKeyframe()
	b := s.InsertKeyframe()
	_, err := s.CreateKF2KFEdge(a, b, nil)
	test.That(t, err, test.ShouldBeNil)
	_, err = s.CreateKF2KFEdge(b, a, nil)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestSpanningTreeComposesAlongChain(t *testing.T) {
	s := NewState(DefaultParameters(), nil)
	a := s.InsertKeyframe()
	b := s.InsertKeyframe()
	c := s.InsertKeyframe()

	_, err := s.CreateKF2KFEdge(a, b, pose.NewSE2(1, 0, 0))
	test.That(t, err, test.ShouldBeNil)
	_, err = s.CreateKF2KFEdge(b, c, pose.NewSE2(0, 1, 0))
	test.That(t, err, test.ShouldBeNil)

	s.RebuildAllSpanningTrees()

	rel, ok := s.GetKFRelativePose(a, c)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, pose.AlmostEqual(rel, pose.NewSE2(1, 1, 0), 1e-9), test.ShouldBeTrue)

	dist, ok := s.TopologicalDistance(a, c)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, dist, test.ShouldEqual, 2)
}

func TestAreKeyframesConnectedIgnoresTreeDepthCap(t *testing.T) {
	params := DefaultParameters()
	params.Tree.MaxTreeDepth = 1
	s := NewState(params, nil)
	a := s.InsertKeyframe()
	b := s.InsertKeyframe()
	c := s.InsertKeyframe()
	_, err := s.CreateKF2KFEdge(a, b, nil)
	test.That(t, err, test.ShouldBeNil)
	_, err = s.CreateKF2KFEdge(b, c, nil)
	test.That(t, err, test.ShouldBeNil)
	s.RebuildAllSpanningTrees()

	_, ok := s.GetKFRelativePose(a, c)
	test.That(t, ok, test.ShouldBeFalse) // beyond the bounded cache

	test.That(t, s.AreKeyframesConnected(a, c), test.ShouldBeTrue) // but truly connected
}

func TestInsertObservationRegistersLandmarkOnce(t *testing.T) {
	s := NewState(DefaultParameters(), nil)
	kf := s.InsertKeyframe()
	_, err := s.InsertObservation(kf, kf, NewKFObservation{
		FeatID:  1,
		ObsData: Cartesian2DObs{X: 1, Y: 2},
	})
	test.That(t, err, test.ShouldBeNil)
	_, err = s.InsertObservation(kf, kf, NewKFObservation{
		FeatID:  1,
		ObsData: Cartesian2DObs{X: 1, Y: 2},
	})
	test.That(t, err, test.ShouldBeNil)

	test.That(t, s.Stats().NumUnknownLandmarks, test.ShouldEqual, 1)
	test.That(t, s.Stats().NumObservations, test.ShouldEqual, 2)
}
