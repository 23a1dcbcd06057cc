package fixedmath

import "fmt"

// Fixed2 is a 2D vector of Fixed components, used for every position,
// velocity, and acceleration the simulation tracks.
type Fixed2 struct {
	X, Y Fixed
}

// ZeroVec2 is the additive identity.
var ZeroVec2 = Fixed2{}

// Vec2FromFloat64 converts a pair of float64 coordinates, e.g. from JSON
// configuration, into a Fixed2.
func Vec2FromFloat64(x, y float64) Fixed2 {
	return Fixed2{X: FromFloat64(x), Y: FromFloat64(y)}
}

// ToFloat64 returns the vector as a pair of float64s for rendering.
func (v Fixed2) ToFloat64() (float64, float64) {
	return v.X.ToFloat64(), v.Y.ToFloat64()
}

func (v Fixed2) String() string {
	return fmt.Sprintf("(%s, %s)", v.X, v.Y)
}

// Add returns v + other.
func (v Fixed2) Add(other Fixed2) Fixed2 {
	return Fixed2{X: v.X + other.X, Y: v.Y + other.Y}
}

// Sub returns v - other.
func (v Fixed2) Sub(other Fixed2) Fixed2 {
	return Fixed2{X: v.X - other.X, Y: v.Y - other.Y}
}

// Neg returns -v.
func (v Fixed2) Neg() Fixed2 {
	return Fixed2{X: -v.X, Y: -v.Y}
}

// Scale returns v scaled by a Fixed scalar.
func (v Fixed2) Scale(s Fixed) Fixed2 {
	return Fixed2{X: v.X.Mul(s), Y: v.Y.Mul(s)}
}

// Dot returns the dot product of v and other.
func (v Fixed2) Dot(other Fixed2) Fixed {
	return v.X.Mul(other.X) + v.Y.Mul(other.Y)
}

// Cross returns the 2D cross product (the z component of the 3D cross
// product of the two vectors extended with z=0).
func (v Fixed2) Cross(other Fixed2) Fixed {
	return v.X.Mul(other.Y) - v.Y.Mul(other.X)
}

// LengthSquared returns |v|^2, cheaper than Length when only comparisons are
// needed.
func (v Fixed2) LengthSquared() Fixed {
	return v.X.Mul(v.X) + v.Y.Mul(v.Y)
}

// Length returns |v|.
func (v Fixed2) Length() Fixed {
	return v.LengthSquared().Sqrt()
}

// IsZero reports whether v is exactly the zero vector.
func (v Fixed2) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

// Normalize returns v scaled to unit length, or the zero vector if v is
// zero — never a NaN-like state, since Fixed has none to produce.
func (v Fixed2) Normalize() Fixed2 {
	lenSq := v.LengthSquared()
	if lenSq == 0 {
		return ZeroVec2
	}
	length := lenSq.Sqrt()
	return Fixed2{X: v.X.Div(length), Y: v.Y.Div(length)}
}

// DistanceSquared returns the squared distance between v and other.
func (v Fixed2) DistanceSquared(other Fixed2) Fixed {
	return v.Sub(other).LengthSquared()
}

// Distance returns the distance between v and other.
func (v Fixed2) Distance(other Fixed2) Fixed {
	return v.Sub(other).Length()
}

// ClampMagnitude returns v unchanged if |v| <= max, otherwise v scaled down
// to exactly length max. Used to cap steering forces and separation
// strength so fixed-point arithmetic never overflows.
func (v Fixed2) ClampMagnitude(max Fixed) Fixed2 {
	lenSq := v.LengthSquared()
	maxSq := max.Mul(max)
	if lenSq <= maxSq || lenSq == 0 {
		return v
	}
	length := lenSq.Sqrt()
	return v.Scale(max).Scale(One.Div(length))
}
