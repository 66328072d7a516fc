package optimize_test

import (
	"testing"

	"go.viam.com/test"

	"github.com/MRPT/srba/pose"
	"github.com/MRPT/srba/rba"
	"github.com/MRPT/srba/rba/optimize"
)

func TestOptimizeReducesResidualOnMismatchedEdge(t *testing.T) {
	params := rba.DefaultParameters()
	s := rba.NewState(params, nil)

	a := s.InsertKeyframe()
	b := s.InsertKeyframe()
	// Deliberately start from a bad initial guess (identity) for an edge that
	// should really be translated by roughly (1, 0).
	_, err := s.CreateKF2KFEdge(a, b, pose.IdentitySE2())
	test.That(t, err, test.ShouldBeNil)

	_, err = s.InsertObservation(a, a, rba.NewKFObservation{FeatID: 1, ObsData: rba.Cartesian2DObs{X: 1, Y: 0}})
	test.That(t, err, test.ShouldBeNil)
	_, err = s.InsertObservation(b, a, rba.NewKFObservation{FeatID: 1, ObsData: rba.Cartesian2DObs{X: 0, Y: 0}})
	test.That(t, err, test.ShouldBeNil)

	area := s.SelectLocalArea(a)
	engine := optimize.New(nil)
	res, err := engine.Optimize(s, area, params.Optimizer)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.TotalSqrErrorFinal <= res.TotalSqrErrorInit, test.ShouldBeTrue)
}

func TestOptimizeNoObservationsConvergesImmediately(t *testing.T) {
	params := rba.DefaultParameters()
	s := rba.NewState(params, nil)
	a := s.InsertKeyframe()

	area := s.SelectLocalArea(a)
	engine := optimize.New(nil)
	res, err := engine.Optimize(s, area, params.Optimizer)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Converged, test.ShouldBeTrue)
}
