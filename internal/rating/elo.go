// Package rating implements the FIDE Elo rules used to score games and
// events: expected score, rating change and tournament performance.
package rating

import "math"

// MaxRatingDifference is the 400-point rule: a larger gap counts as 400.
const MaxRatingDifference = 400

// DefaultKFactor is used when no development coefficient is configured.
const DefaultKFactor = 20

// ExpectedScore returns the expected score of subject against opponent.
func ExpectedScore(subject, opponent int) float64 {
	diff := opponent - subject
	if diff > MaxRatingDifference {
		diff = MaxRatingDifference
	} else if diff < -MaxRatingDifference {
		diff = -MaxRatingDifference
	}
	return 1 / (1 + math.Pow(10, float64(diff)/400))
}

// RatingDelta is the rating change for one game with the given actual score
// (0, 0.5 or 1).
func RatingDelta(subject, opponent int, actual, k float64) float64 {
	return k * (actual - ExpectedScore(subject, opponent))
}

// FIDEKFactor returns the standard development coefficient: 40 for players
// with fewer than 30 rated games or under 18 and below 2300, 10 once a
// player has reached 2400, 20 otherwise.
func FIDEKFactor(rating, ratedGames, age int) float64 {
	switch {
	case ratedGames < 30:
		return 40
	case age > 0 && age < 18 && rating < 2300:
		return 40
	case rating >= 2400:
		return 10
	default:
		return 20
	}
}
