package pose

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"
)

func TestSE2ComposeInverseRoundTrip(t *testing.T) {
	a := NewSE2(1, 2, 0.3)
	b := NewSE2(-0.5, 4, 1.1)

	sum := Compose(a, b)
	back := Compose(sum, Inverse(b))
	test.That(t, AlmostEqual(back, a, 1e-9), test.ShouldBeTrue)
}

func TestSE2Identity(t *testing.T) {
	id := IdentitySE2()
	p := NewSE2(1, -2, 0.7)
	test.That(t, AlmostEqual(Compose(id, p), p, 1e-12), test.ShouldBeTrue)
	test.That(t, AlmostEqual(Compose(p, id), p, 1e-12), test.ShouldBeTrue)
}

func TestSE2Between(t *testing.T) {
	a := NewSE2(1, 0, 0)
	b := NewSE2(1, 1, math.Pi/2)
	rel := Between(a, b)
	test.That(t, AlmostEqual(Compose(a, rel), b, 1e-9), test.ShouldBeTrue)
}

func TestSE3ComposeInverseRoundTrip(t *testing.T) {
	a := NewSE3(r3.Vector{X: 1, Y: 2, Z: 3}, rotationVectorToQuat(r3.Vector{X: 0.1, Y: 0.2, Z: -0.3}))
	b := NewSE3(r3.Vector{X: -1, Y: 0.5, Z: 2}, rotationVectorToQuat(r3.Vector{X: 0, Y: 0, Z: math.Pi / 4}))

	sum := Compose(a, b)
	back := Compose(sum, Inverse(b))
	test.That(t, AlmostEqual(back, a, 1e-9), test.ShouldBeTrue)
}

func TestSE3ParamsRoundTrip(t *testing.T) {
	p := NewSE3(r3.Vector{X: 1, Y: -2, Z: 0.5}, rotationVectorToQuat(r3.Vector{X: 0.2, Y: -0.1, Z: 0.4}))
	back := SE3FromParams(p.Params())
	test.That(t, AlmostEqual(back, p, 1e-9), test.ShouldBeTrue)
}

func TestRotateVectorIdentity(t *testing.T) {
	v := r3.Vector{X: 1, Y: 2, Z: 3}
	out := rotateVector(quat.Number{Real: 1}, v)
	test.That(t, out, test.ShouldResemble, v)
}

func TestSE3TransformMatchesComposeOfPoint(t *testing.T) {
	p := NewSE3(r3.Vector{X: 1, Y: 0, Z: 0}, rotationVectorToQuat(r3.Vector{X: 0, Y: 0, Z: math.Pi / 2}))
	out := p.Transform(r3.Vector{X: 1, Y: 0, Z: 0})
	test.That(t, math.Abs(out.X-1) < 1e-9, test.ShouldBeTrue)
	test.That(t, math.Abs(out.Y-1) < 1e-9, test.ShouldBeTrue)
}
