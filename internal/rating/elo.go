// Package rating implements the Elo update used after a settled match. It is
// pure math with no persistence; the service layer decides when a match is
// decisive and what to write back.
package rating

import (
	"errors"
	"math"
)

const (
	// DefaultK is the volatility of a single update.
	DefaultK = 32
	// InitialRating is assigned on first participation in a sport.
	InitialRating = 1000
	// InitialSigma is stored but unused by the Elo formula. Kept so a future
	// Glicko-style system can pick it up without a migration.
	InitialSigma = 30
)

var ErrInvalidInput = errors.New("invalid rating input")

type Outcome int

const (
	OutcomeAWins Outcome = iota
	OutcomeDraw
	OutcomeBWins
)

// OutcomeFromScores derives the ternary outcome from raw scores. Equal scores
// are a draw. Negative scores, or both scores zero, are a caller error rather
// than a draw.
func OutcomeFromScores(scoreA, scoreB int) (Outcome, error) {
	if scoreA < 0 || scoreB < 0 {
		return 0, ErrInvalidInput
	}
	if scoreA == 0 && scoreB == 0 {
		return 0, ErrInvalidInput
	}

	switch {
	case scoreA > scoreB:
		return OutcomeAWins, nil
	case scoreA < scoreB:
		return OutcomeBWins, nil
	default:
		return OutcomeDraw, nil
	}
}

// ExpectedScore returns the probability of A beating B under the logistic
// Elo model.
func ExpectedScore(ratingA, ratingB float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, (ratingB-ratingA)/400.0))
}

// ComputeUpdate returns the post-match ratings for both sides. Each side is
// adjusted with its own expected score, so deltas are not forced to sum to
// zero; that is the standard Elo formulation. Rounding is math.Round
// (half away from zero).
func ComputeUpdate(ratingA, ratingB float64, outcome Outcome, k float64) (int, int, error) {
	if !isFinite(ratingA) || !isFinite(ratingB) {
		return 0, 0, ErrInvalidInput
	}
	if k <= 0 || !isFinite(k) {
		return 0, 0, ErrInvalidInput
	}

	var actualA float64
	switch outcome {
	case OutcomeAWins:
		actualA = 1.0
	case OutcomeDraw:
		actualA = 0.5
	case OutcomeBWins:
		actualA = 0.0
	default:
		return 0, 0, ErrInvalidInput
	}

	expectedA := ExpectedScore(ratingA, ratingB)
	expectedB := 1.0 - expectedA
	actualB := 1.0 - actualA

	newA := int(math.Round(ratingA + k*(actualA-expectedA)))
	newB := int(math.Round(ratingB + k*(actualB-expectedB)))

	return newA, newB, nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
