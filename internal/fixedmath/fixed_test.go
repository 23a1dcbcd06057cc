package fixedmath

import "testing"

func TestFixedArithmetic(t *testing.T) {
	cases := []struct {
		name string
		a, b Fixed
		want Fixed
		op   func(a, b Fixed) Fixed
	}{
		{"add", FromInt(2), FromInt(3), FromInt(5), Fixed.Add},
		{"sub", FromInt(5), FromInt(3), FromInt(2), Fixed.Sub},
		{"mul", FromInt(4), FromInt(3), FromInt(12), Fixed.Mul},
		{"div", FromInt(12), FromInt(4), FromInt(3), Fixed.Div},
		{"half_mul", FromFloat64(0.5), FromFloat64(0.5), FromFloat64(0.25), Fixed.Mul},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.op(tc.a, tc.b); got != tc.want {
				t.Fatalf("got %v want %v", got, tc.want)
			}
		})
	}
}

func TestFixedDivByZeroPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on division by zero")
		}
	}()
	_ = FromInt(1).Div(0)
}

func TestFixedSqrt(t *testing.T) {
	cases := []struct {
		in   Fixed
		want Fixed
	}{
		{FromInt(0), FromInt(0)},
		{FromInt(1), FromInt(1)},
		{FromInt(4), FromInt(2)},
		{FromInt(9), FromInt(3)},
		{FromInt(16), FromInt(4)},
	}
	for _, tc := range cases {
		if got := tc.in.Sqrt(); got != tc.want {
			t.Fatalf("Sqrt(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestFixedClamp(t *testing.T) {
	if got := FromInt(10).Clamp(FromInt(0), FromInt(5)); got != FromInt(5) {
		t.Fatalf("clamp high: got %v", got)
	}
	if got := FromInt(-10).Clamp(FromInt(0), FromInt(5)); got != FromInt(0) {
		t.Fatalf("clamp low: got %v", got)
	}
}

func TestFixedRoundTrip(t *testing.T) {
	f := FromFloat64(3.5)
	if got := f.ToFloat64(); got != 3.5 {
		t.Fatalf("round trip: got %v want 3.5", got)
	}
}
