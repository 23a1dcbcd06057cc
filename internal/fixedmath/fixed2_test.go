package fixedmath

import "testing"

func TestVec2NormalizeZero(t *testing.T) {
	if got := ZeroVec2.Normalize(); got != ZeroVec2 {
		t.Fatalf("normalize(zero) = %v, want zero", got)
	}
}

func TestVec2NormalizeUnit(t *testing.T) {
	v := Fixed2{X: FromInt(3), Y: FromInt(4)}
	n := v.Normalize()
	length := n.Length()
	diff := length.Sub(One).Abs()
	if diff > FromFloat64(0.01) {
		t.Fatalf("normalized length = %v, want ~1.0", length)
	}
}

func TestVec2DotCross(t *testing.T) {
	a := Fixed2{X: FromInt(1), Y: FromInt(0)}
	b := Fixed2{X: FromInt(0), Y: FromInt(1)}
	if got := a.Dot(b); got != 0 {
		t.Fatalf("dot of perpendicular unit vectors = %v, want 0", got)
	}
	if got := a.Cross(b); got != One {
		t.Fatalf("cross(x,y) = %v, want 1", got)
	}
}

func TestVec2ClampMagnitude(t *testing.T) {
	v := Fixed2{X: FromInt(3), Y: FromInt(4)}
	clamped := v.ClampMagnitude(FromInt(2))
	length := clamped.Length()
	diff := length.Sub(FromInt(2)).Abs()
	if diff > FromFloat64(0.01) {
		t.Fatalf("clamped length = %v, want ~2.0", length)
	}
}

func TestVec2DistanceSquared(t *testing.T) {
	a := Fixed2{X: FromInt(0), Y: FromInt(0)}
	b := Fixed2{X: FromInt(3), Y: FromInt(4)}
	if got := a.DistanceSquared(b); got != FromInt(25) {
		t.Fatalf("distance squared = %v, want 25", got)
	}
}
