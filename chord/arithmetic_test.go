package chord

import "testing"

func TestBetween(t *testing.T) {
	cases := []struct {
		name           string
		low, id, high  uint64
		want           bool
	}{
		{"simple middle", 10, 15, 20, true},
		{"simple outside", 10, 25, 20, false},
		{"equal to low excluded", 10, 10, 20, false},
		{"equal to high excluded", 10, 20, 20, false},
		{"wraps around zero, inside", 250, 5, 10, true},
		{"wraps around zero, outside", 250, 100, 10, false},
		{"low equals high, id differs", 5, 9, 5, true},
		{"low equals high, id same", 5, 5, 5, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Between(c.low, c.id, c.high); got != c.want {
				t.Errorf("Between(%d,%d,%d) = %v, want %v", c.low, c.id, c.high, got, c.want)
			}
		})
	}
}

func TestBetweenEIncludesHigh(t *testing.T) {
	if !BetweenE(10, 20, 20) {
		t.Error("BetweenE should include the high bound")
	}
	if BetweenE(10, 10, 20) {
		t.Error("BetweenE should exclude the low bound")
	}
	if !BetweenE(10, 15, 20) {
		t.Error("BetweenE should include interior points")
	}
}

func TestEbetweenIncludesLow(t *testing.T) {
	if !Ebetween(10, 10, 20) {
		t.Error("Ebetween should include the low bound")
	}
	if Ebetween(10, 20, 20) {
		t.Error("Ebetween should exclude the high bound")
	}
	if !Ebetween(10, 15, 20) {
		t.Error("Ebetween should include interior points")
	}
}

func TestModuloSumWraps(t *testing.T) {
	// 8-bit ring: 250 + 10 should wrap past 256.
	got := ModuloSum(250, 10, 8)
	want := uint64((250 + 10) % 256)
	if got != want {
		t.Errorf("ModuloSum(250,10,8) = %d, want %d", got, want)
	}
}

func TestFingerStart(t *testing.T) {
	// self=0, k=0 -> 1; k=3 -> 8, on an 8-bit ring.
	if got := FingerStart(0, 0, 8); got != 1 {
		t.Errorf("FingerStart(0,0,8) = %d, want 1", got)
	}
	if got := FingerStart(0, 3, 8); got != 8 {
		t.Errorf("FingerStart(0,3,8) = %d, want 8", got)
	}
	// self=250, k=3 -> (250+8) mod 256 = 2
	if got := FingerStart(250, 3, 8); got != 2 {
		t.Errorf("FingerStart(250,3,8) = %d, want 2", got)
	}
}
