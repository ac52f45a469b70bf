package orchestrator

import "testing"

func TestSyntheticScorer_Range(t *testing.T) {
	t.Parallel()

	s := SyntheticScorer{}
	for i := 0; i < 1000; i++ {
		got := s.Score(0)
		if got < 85 || got > 99 {
			t.Fatalf("Score = %d, want within [85, 99]", got)
		}
	}
}

func TestEngineScorer(t *testing.T) {
	t.Parallel()

	s := EngineScorer{}
	tests := []struct {
		in   float64
		want int
	}{
		{0.92, 92},
		{0.005, 1},
		{1.0, 100},
		{2.5, 100},
	}
	for _, tt := range tests {
		if got := s.Score(tt.in); got != tt.want {
			t.Errorf("Score(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestEngineScorer_ZeroFallsBackToSynthetic(t *testing.T) {
	t.Parallel()

	s := EngineScorer{}
	for i := 0; i < 100; i++ {
		got := s.Score(0)
		if got < 85 || got > 99 {
			t.Fatalf("Score(0) = %d, want synthetic range [85, 99]", got)
		}
	}
}
