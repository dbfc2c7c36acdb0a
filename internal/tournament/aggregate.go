// Package tournament folds per-game outcome records into an event summary.
package tournament

import (
	"math"
	"strconv"
	"strings"

	"github.com/park285/chess-vault/internal/chess"
	"github.com/park285/chess-vault/internal/rating"
)

// Record is one game as seen by the aggregator. Tournament is the raw
// reference stored with the game, e.g. "Spring Open" or "[[Spring Open]]".
type Record struct {
	Tournament     string
	Result         string
	Color          chess.Color
	OpponentRating int
}

// Summary is computed fresh on every call to Aggregate.
type Summary struct {
	Tournament        string
	StartRating       int
	Score             float64
	Games             int
	OpponentRatings   []int
	PerformanceRating int
	Delta             float64
	EndRating         int
}

// Matches reports whether ref identifies tournament id. Any reference that
// contains the id matches, which covers wiki-link forms like
// "[[Events/Spring Open|Open]]".
func Matches(ref, id string) bool {
	if id == "" {
		return false
	}
	return ref == "[["+id+"]]" || strings.Contains(ref, id)
}

// Aggregate sums score and rating change over the records that belong to
// id. Games against unrated opponents count toward the score but not the
// performance or the delta.
func Aggregate(id string, startRating int, records []Record, k float64) Summary {
	s := Summary{Tournament: id, StartRating: startRating, EndRating: startRating}
	for _, r := range records {
		if !Matches(r.Tournament, id) {
			continue
		}
		actual := rating.ParseDeclaredResult(r.Result, r.Color)
		s.Score += actual
		s.Games++
		if r.OpponentRating > 0 {
			s.OpponentRatings = append(s.OpponentRatings, r.OpponentRating)
			s.Delta += rating.RatingDelta(startRating, r.OpponentRating, actual, k)
		}
	}
	if s.Games == 0 {
		return s
	}
	s.PerformanceRating = rating.PerformanceRating(s.OpponentRatings, s.Score)
	s.EndRating = int(math.Round(float64(startRating) + s.Delta))
	return s
}

func (s Summary) Empty() bool { return s.Games == 0 }

// ScoreString renders "1.5/3".
func (s Summary) ScoreString() string {
	return strconv.FormatFloat(s.Score, 'f', -1, 64) + "/" + strconv.Itoa(s.Games)
}

// RatingChange is Delta rounded to two decimals.
func (s Summary) RatingChange() float64 {
	return math.Round(s.Delta*100) / 100
}
