package rba_test

import (
	"context"
	"testing"

	"go.viam.com/test"

	"github.com/MRPT/srba/rba"
	"github.com/MRPT/srba/rba/ecp"
	"github.com/MRPT/srba/rba/optimize"
)

func newLinearEngine(t *testing.T) *rba.State {
	params := rba.DefaultParameters()
	params.ECP.Kind = rba.ECPLinear
	s := rba.NewState(params, nil)
	s.SetECPPolicy(ecp.NewLinear(params.ECP))
	s.SetOptimizer(optimize.New(nil))
	return s
}

func TestDefineNewKeyframeChainsLinearly(t *testing.T) {
	s := newLinearEngine(t)

	res0, err := s.DefineNewKeyframe(context.Background(), nil, true)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res0.KFID, test.ShouldEqual, rba.KeyframeID(0))
	test.That(t, len(res0.CreatedEdgeIDs), test.ShouldEqual, 0)

	res1, err := s.DefineNewKeyframe(context.Background(), []rba.NewKFObservation{
		{FeatID: 100, ObsData: rba.Cartesian2DObs{X: 1, Y: 0}},
	}, true)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res1.KFID, test.ShouldEqual, rba.KeyframeID(1))
	test.That(t, len(res1.CreatedEdgeIDs), test.ShouldEqual, 1)

	res2, err := s.DefineNewKeyframe(context.Background(), []rba.NewKFObservation{
		{FeatID: 100, ObsData: rba.Cartesian2DObs{X: 0, Y: 1}},
	}, true)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res2.KFID, test.ShouldEqual, rba.KeyframeID(2))
	test.That(t, len(res2.CreatedEdgeIDs) >= 1, test.ShouldBeTrue)

	test.That(t, s.AreKeyframesConnected(rba.KeyframeID(0), rba.KeyframeID(2)), test.ShouldBeTrue)
	test.That(t, s.Stats().NumKeyframes, test.ShouldEqual, 3)
}

func TestDefineNewKeyframeRejectsUnwiredEngine(t *testing.T) {
	s := rba.NewState(rba.DefaultParameters(), nil)
	_, err := s.DefineNewKeyframe(context.Background(), nil, true)
	test.That(t, err, test.ShouldNotBeNil)
}
