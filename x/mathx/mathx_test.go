package mathx

import "testing"

func TestClamp(t *testing.T) {
	if got := Clamp(5, 0, 10); got != 5 {
		t.Fatalf("in range = %d", got)
	}
	if got := Clamp(-1, 0, 10); got != 0 {
		t.Fatalf("below = %d", got)
	}
	if got := Clamp(11, 0, 10); got != 10 {
		t.Fatalf("above = %d", got)
	}
	if got := Clamp(5, 10, 0); got != 5 {
		t.Fatalf("swapped bounds = %d", got)
	}
}

func TestMapU16(t *testing.T) {
	cases := []struct {
		x, inMin, inMax, outMin, outMax, want uint16
	}{
		{0, 0, 100, 0, 1000, 0},
		{50, 0, 100, 0, 1000, 500},
		{100, 0, 100, 0, 1000, 1000},
		{200, 0, 100, 0, 1000, 1000}, // clamps above
		{5, 10, 100, 0, 1000, 0},     // clamps below
		{7, 7, 7, 42, 99, 42},        // degenerate input range
	}
	for _, c := range cases {
		if got := MapU16(c.x, c.inMin, c.inMax, c.outMin, c.outMax); got != c.want {
			t.Errorf("MapU16(%d, %d..%d -> %d..%d) = %d, want %d",
				c.x, c.inMin, c.inMax, c.outMin, c.outMax, got, c.want)
		}
	}
}
