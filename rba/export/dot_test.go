package export_test

import (
	"strings"
	"testing"

	"go.viam.com/test"

	"github.com/MRPT/srba/rba"
	"github.com/MRPT/srba/rba/export"
)

func TestDOTRendersKeyframesAndEdges(t *testing.T) {
	s := rba.NewState(rba.DefaultParameters(), nil)
	a := s.InsertKeyframe()
	b := s.InsertKeyframe()
	_, err := s.CreateKF2KFEdge(a, b, nil)
	test.That(t, err, test.ShouldBeNil)

	dot := export.DOT(s, export.Options{})
	test.That(t, strings.Contains(dot, "kf0"), test.ShouldBeTrue)
	test.That(t, strings.Contains(dot, "kf0 -> kf1"), test.ShouldBeTrue)
	test.That(t, strings.Contains(dot, "lm"), test.ShouldBeFalse)
}

func TestDOTIncludesLandmarksWhenRequested(t *testing.T) {
	s := rba.NewState(rba.DefaultParameters(), nil)
	kf := s.InsertKeyframe()
	_, err := s.InsertObservation(kf, kf, rba.NewKFObservation{
		FeatID:  7,
		ObsData: rba.Cartesian2DObs{X: 1, Y: 2},
	})
	test.That(t, err, test.ShouldBeNil)

	dot := export.DOT(s, export.Options{IncludeLandmarks: true})
	test.That(t, strings.Contains(dot, "lm7"), test.ShouldBeTrue)
}

func TestStatsMatchesStateStats(t *testing.T) {
	s := rba.NewState(rba.DefaultParameters(), nil)
	s.InsertKeyframe()
	test.That(t, export.Stats(s).NumKeyframes, test.ShouldEqual, s.Stats().NumKeyframes)
}
