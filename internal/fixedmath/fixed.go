// Package fixedmath implements the deterministic scalar and vector types the
// simulation uses for all state that must reproduce bit-for-bit across
// platforms: positions, velocities, accelerations, and every tunable distance
// or speed derived from them. Floating point only appears at the boundary
// where state crosses into the renderer or into JSON configuration.
package fixedmath

import (
	"fmt"
	"math"
)

// FractionalBits is the number of bits below the binary point.
const FractionalBits = 16

// One is the fixed-point representation of 1.0.
const One Fixed = 1 << FractionalBits

// Zero is the additive identity.
const Zero Fixed = 0

// Fixed is a signed 48.16 fixed-point number stored in an int64. Sixteen
// fractional bits give a resolution of 1/65536 world units, comfortably
// finer than anything the simulation measures (unit radii, tick deltas).
type Fixed int64

// FromInt converts a whole number to Fixed.
func FromInt(v int) Fixed {
	return Fixed(v) << FractionalBits
}

// FromFloat64 converts a float64 into Fixed. This is one of the two places
// floating point is allowed to cross into simulation state — the other is
// ToFloat64 below — and both are confined to config loading and the
// snapshot/render boundary.
func FromFloat64(v float64) Fixed {
	return Fixed(math.Round(v * float64(One)))
}

// ToFloat64 converts a Fixed back to float64 for rendering or logging.
func (f Fixed) ToFloat64() float64 {
	return float64(f) / float64(One)
}

// String renders the value in decimal, to four fractional digits, so log
// lines stay readable without exposing the raw fixed-point bit pattern.
func (f Fixed) String() string {
	return fmt.Sprintf("%.4f", f.ToFloat64())
}

// Add returns f + other.
func (f Fixed) Add(other Fixed) Fixed {
	return f + other
}

// Sub returns f - other.
func (f Fixed) Sub(other Fixed) Fixed {
	return f - other
}

// Neg returns -f.
func (f Fixed) Neg() Fixed {
	return -f
}

// Mul returns f * other, carrying the multiplication in int64 and shifting
// back down by the fractional width.
func (f Fixed) Mul(other Fixed) Fixed {
	return Fixed((int64(f) * int64(other)) >> FractionalBits)
}

// Div returns f / other. It panics on a zero divisor: callers are expected to
// check the divisor themselves (see §4.1 of the design notes on division
// guards); the type itself traps rather than silently returning garbage.
func (f Fixed) Div(other Fixed) Fixed {
	if other == 0 {
		panic("fixedmath: division by zero")
	}
	return Fixed((int64(f) << FractionalBits) / int64(other))
}

// MulInt scales f by a plain integer without the extra shift a Fixed*Fixed
// multiply needs.
func (f Fixed) MulInt(n int) Fixed {
	return f * Fixed(n)
}

// DivInt divides f by a plain integer.
func (f Fixed) DivInt(n int) Fixed {
	if n == 0 {
		panic("fixedmath: division by zero")
	}
	return f / Fixed(n)
}

// Abs returns the absolute value of f.
func (f Fixed) Abs() Fixed {
	if f < 0 {
		return -f
	}
	return f
}

// Min returns the smaller of f and other.
func (f Fixed) Min(other Fixed) Fixed {
	if f < other {
		return f
	}
	return other
}

// Max returns the larger of f and other.
func (f Fixed) Max(other Fixed) Fixed {
	if f > other {
		return f
	}
	return other
}

// Clamp restricts f to [lo, hi].
func (f Fixed) Clamp(lo, hi Fixed) Fixed {
	if f < lo {
		return lo
	}
	if f > hi {
		return hi
	}
	return f
}

// Sqrt returns the integer square root of f, computed digit-by-digit on the
// raw fixed-point bits so no floating-point intermediary is involved.
// Negative inputs (which should never occur for lengths) return zero.
func (f Fixed) Sqrt() Fixed {
	if f <= 0 {
		return 0
	}
	// f is stored as f_raw = f * One. The fixed-point result we want is
	// result_raw = One * sqrt(f) = isqrt(One * f_raw), so the integer
	// square root below runs on the value shifted up by one more
	// FractionalBits rather than on f directly.
	return Fixed(isqrt(uint64(f) << FractionalBits))
}

// isqrt computes the integer square root of x using the classic
// digit-by-digit binary algorithm: no floating-point intermediary, no
// division, just shifts and compares.
func isqrt(x uint64) uint64 {
	var result uint64
	bit := uint64(1) << 62
	for bit > x {
		bit >>= 2
	}
	for bit != 0 {
		if x >= result+bit {
			x -= result + bit
			result = (result >> 1) + bit
		} else {
			result >>= 1
		}
		bit >>= 2
	}
	return result
}
