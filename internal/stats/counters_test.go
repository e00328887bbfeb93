package stats

import "testing"

func TestPercentInt(t *testing.T) {
	testCases := []struct {
		n, d     int64
		expected int64
	}{
		{0, 0, 0},
		{5, 0, 0},
		{1, 3, 33},
		{2, 3, 67},
		{1, 2, 50},
		{10, 10, 100},
	}
	for _, tc := range testCases {
		if got := percentInt(tc.n, tc.d); got != tc.expected {
			t.Errorf("percentInt(%d, %d) = %d, expected %d", tc.n, tc.d, got, tc.expected)
		}
	}
}

func TestPercent1(t *testing.T) {
	testCases := []struct {
		n, d     int64
		expected float64
	}{
		{0, 0, 0},
		{1, 3, 33.3},
		{2, 3, 66.7},
		{1, 1, 100},
		{7, 9, 77.8},
	}
	for _, tc := range testCases {
		if got := percent1(tc.n, tc.d); got != tc.expected {
			t.Errorf("percent1(%d, %d) = %v, expected %v", tc.n, tc.d, got, tc.expected)
		}
	}
}

func TestClampLog_Decrement(t *testing.T) {
	var l clampLog
	if got := l.decrement("a", 3); got != 2 {
		t.Errorf("decrement(3) = %d, expected 2", got)
	}
	if len(l) != 0 {
		t.Errorf("clamps = %v, expected none", l)
	}
	if got := l.decrement("b", 0); got != 0 {
		t.Errorf("decrement(0) = %d, expected 0", got)
	}
	if got := l.decrement("c", -4); got != 0 {
		t.Errorf("decrement(-4) = %d, expected 0", got)
	}
	if len(l) != 2 || l[0] != "b" || l[1] != "c" {
		t.Errorf("clamps = %v, expected [b c]", l)
	}
}

func TestBump_ClonesInput(t *testing.T) {
	orig := bump(emptyDistribution(), "5")
	next := bump(orig, "5")

	if orig.Data()["5"] != 1 {
		t.Errorf("original bucket = %d, expected 1", orig.Data()["5"])
	}
	if next.Data()["5"] != 2 {
		t.Errorf("bumped bucket = %d, expected 2", next.Data()["5"])
	}
	if blank := bump(next, "  "); len(blank.Data()) != 1 {
		t.Errorf("blank key should be ignored, got %v", blank.Data())
	}
}
