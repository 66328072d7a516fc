package replay_test

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

func TestParseDatasetSkipsBlankAndCommentLines(t *testing.T) {
	const data = `# a trivial chain
EDGE 0 1 1.0 0.0 0.0

EDGE 1 2 0.0 1.0 0.0
`
	edges, err := replay.ParseDataset(strings.NewReader(data))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(edges), test.ShouldEqual, 2)
	test.That(t, edges[0].From, test.ShouldEqual, rba.KeyframeID(0))
	test.That(t, edges[1].To, test.ShouldEqual, rba.KeyframeID(2))
}

func TestParseDatasetRejectsMalformedLine(t *testing.T) {
	_, err := replay.ParseDataset(strings.NewReader("EDGE 0 1 oops"))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestReplayChainsThroughAllKeyframes(t *testing.T) {
	const data = `EDGE 0 1 1.0 0.0 0.0
EDGE 1 2 1.0 0.0 0.0
`
	edges, err := replay.ParseDataset(strings.NewReader(data))
	test.That(t, err, test.ShouldBeNil)

	params := rba.DefaultParameters()
	s := rba.NewState(params, nil)
	s.SetECPPolicy(ecp.NewLinear(params.ECP))
	s.SetOptimizer(optimize.New(nil))

	result, err := replay.Replay(context.Background(), s, edges)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, result.KeyframesCreated, test.ShouldEqual, 3)
	test.That(t, s.AreKeyframesConnected(rba.KeyframeID(0), rba.KeyframeID(2)), test.ShouldBeTrue)

	summary := replay.Summary(result)
	test.That(t, strings.Contains(summary, "kf 2:"), test.ShouldBeTrue)
}
