package tokens

import (
	"strings"
	"testing"
)

func TestEstimate(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"single char", "a", 2},
		{"long word", "abcdefghijkl", 3},
		{"short words", "a b c", 4},
		{"multibyte", "日本語の記事です", 2},
		{"invalid utf8", "\xff\xfe", 2},
		{"whitespace only", "   ", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Estimate(tt.text); got != tt.want {
				t.Errorf("Estimate(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestEstimate_Deterministic(t *testing.T) {
	text := "Acme Corp — Revenue up 12% on strong demand\n\nAcme CEO steps down — "
	first := Estimate(text)
	for i := 0; i < 10; i++ {
		if got := Estimate(text); got != first {
			t.Fatalf("Estimate() = %d on run %d, want %d", got, i, first)
		}
	}
}

func TestEstimate_MonotonicUnderRepetition(t *testing.T) {
	units := []string{"x", "hello world ", "Acme — B\n\n", "日本語"}
	for _, unit := range units {
		prev := 0
		for n := 1; n <= 200; n++ {
			got := Estimate(strings.Repeat(unit, n))
			if got < prev {
				t.Fatalf("Estimate(%q x %d) = %d, decreased from %d", unit, n, got, prev)
			}
			prev = got
		}
	}
}

func TestExceedsThreshold(t *testing.T) {
	tests := []struct {
		estimate, threshold int
		want                bool
	}{
		{8000, 8000, false},
		{8001, 8000, true},
		{8001, 0, true},
		{100, 50, true},
		{10, -1, false},
	}
	for _, tt := range tests {
		if got := ExceedsThreshold(tt.estimate, tt.threshold); got != tt.want {
			t.Errorf("ExceedsThreshold(%d, %d) = %v, want %v", tt.estimate, tt.threshold, got, tt.want)
		}
	}
}
