package allocation

import "strconv"

// ScoreKind tells a backend score apart from a display placeholder.
type ScoreKind int

const (
	// ScoreReal comes from the backend suggestion list.
	ScoreReal ScoreKind = iota
	// ScoreEstimated is a cosmetic placeholder and must not be used for ranking.
	ScoreEstimated
)

const (
	estimateFloor = 60
	estimateSpan  = 40
)

// Score is a match score tagged with its origin.
type Score struct {
	Kind  ScoreKind
	Value int
}

// Real wraps a backend score.
func Real(value int) Score {
	return Score{Kind: ScoreReal, Value: value}
}

// Estimated wraps a placeholder score.
func Estimated(value int) Score {
	return Score{Kind: ScoreEstimated, Value: value}
}

// IsEstimated reports whether the score is a placeholder.
func (s Score) IsEstimated() bool {
	return s.Kind == ScoreEstimated
}

// String renders the score as a percentage; placeholders get a leading "~".
func (s Score) String() string {
	if s.IsEstimated() {
		return "~" + strconv.Itoa(s.Value) + "%"
	}
	return strconv.Itoa(s.Value) + "%"
}
