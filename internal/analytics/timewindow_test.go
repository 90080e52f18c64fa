package analytics

import "testing"

func TestDeltaPercent(t *testing.T) {
	cases := []struct {
		name       string
		prev, curr int
		want       float64
	}{
		{"both zero", 0, 0, 0},
		{"from zero with signal", 0, 5, 100},
		{"flat", 10, 10, 0},
		{"doubled", 10, 20, 100},
		{"halved", 10, 5, -50},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := DeltaPercent(c.prev, c.curr)
			if got != c.want {
				t.Fatalf("DeltaPercent(%d, %d) = %v, want %v", c.prev, c.curr, got, c.want)
			}
		})
	}
}

func TestParseWindowRejectsOutOfSet(t *testing.T) {
	if _, err := ParseWindow("90d"); err == nil {
		t.Fatal("expected 90d to be rejected by the closed 4-window set")
	}
	if _, err := ParseWindow("24h"); err != nil {
		t.Fatalf("expected 24h to be accepted: %v", err)
	}
}

func TestParseExtendedWindowAcceptsWiderSet(t *testing.T) {
	if _, err := ParseExtendedWindow("1y"); err != nil {
		t.Fatalf("expected 1y to be accepted by the extended set: %v", err)
	}
	if _, err := ParseExtendedWindow("bogus"); err == nil {
		t.Fatal("expected an unrecognized window to be rejected")
	}
}
