package tournament

import (
	"math"
	"reflect"
	"testing"

	"github.com/park285/chess-vault/internal/chess"
	"github.com/park285/chess-vault/internal/rating"
)

func springOpen() []Record {
	return []Record{
		{Tournament: "[[Spring Open]]", Result: "1-0", Color: chess.White, OpponentRating: 1800},
		{Tournament: "Spring Open", Result: "1/2-1/2", Color: chess.Black, OpponentRating: 1900},
		{Tournament: "[[Events/Spring Open|Open]]", Result: "1-0", Color: chess.Black, OpponentRating: 2000},
		{Tournament: "[[Club Championship]]", Result: "1-0", Color: chess.White, OpponentRating: 1500},
	}
}

func TestAggregateScenario(t *testing.T) {
	s := Aggregate("Spring Open", 1850, springOpen(), 20)

	if s.Games != 3 || s.Score != 1.5 || s.ScoreString() != "1.5/3" {
		t.Fatalf("unexpected totals %+v", s)
	}
	if !reflect.DeepEqual(s.OpponentRatings, []int{1800, 1900, 2000}) {
		t.Fatalf("opponent ratings = %v", s.OpponentRatings)
	}
	if s.PerformanceRating != 1900 {
		t.Fatalf("performance = %d", s.PerformanceRating)
	}

	wantDelta := rating.RatingDelta(1850, 1800, 1, 20) +
		rating.RatingDelta(1850, 1900, 0.5, 20) +
		rating.RatingDelta(1850, 2000, 0, 20)
	if math.Abs(s.Delta-wantDelta) > 1e-9 {
		t.Fatalf("delta = %v, want %v", s.Delta, wantDelta)
	}
	if want := 1850 + int(wantDelta+0.5); s.EndRating != want {
		t.Fatalf("end rating = %d, want %d", s.EndRating, want)
	}
	if s.Empty() {
		t.Fatal("summary should not be empty")
	}
}

func TestAggregateIsIdempotent(t *testing.T) {
	records := springOpen()
	first := Aggregate("Spring Open", 1850, records, 20)
	second := Aggregate("Spring Open", 1850, records, 20)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated aggregation differs:\n%+v\n%+v", first, second)
	}
	if !reflect.DeepEqual(records, springOpen()) {
		t.Fatal("aggregation modified its input")
	}
}

func TestAggregateNoMatches(t *testing.T) {
	s := Aggregate("Winter Cup", 1700, springOpen(), 20)
	if !s.Empty() || s.Score != 0 || s.PerformanceRating != 0 {
		t.Fatalf("expected an empty summary, got %+v", s)
	}
	if s.EndRating != 1700 || s.ScoreString() != "0/0" {
		t.Fatalf("empty summary end=%d score=%q", s.EndRating, s.ScoreString())
	}
	if !Aggregate("Spring Open", 1700, nil, 20).Empty() {
		t.Fatal("nil records should aggregate to an empty summary")
	}
}

func TestUnratedOpponentsOnlyCountTowardScore(t *testing.T) {
	records := []Record{
		{Tournament: "Rapid", Result: "1-0", Color: chess.White, OpponentRating: 0},
		{Tournament: "Rapid", Result: "0-1", Color: chess.White, OpponentRating: 1600},
		{Tournament: "Rapid", Result: "*", Color: chess.Black, OpponentRating: 1600},
	}
	s := Aggregate("Rapid", 1600, records, 20)
	if s.Games != 3 || s.Score != 1 {
		t.Fatalf("games=%d score=%v", s.Games, s.Score)
	}
	if !reflect.DeepEqual(s.OpponentRatings, []int{1600, 1600}) {
		t.Fatalf("opponent ratings = %v", s.OpponentRatings)
	}
	if math.Abs(s.Delta+20) > 1e-9 || s.RatingChange() != -20 || s.EndRating != 1580 {
		t.Fatalf("delta=%v change=%v end=%d", s.Delta, s.RatingChange(), s.EndRating)
	}
	// 1 point over two rated games -> p = 0.5
	if s.PerformanceRating != 1600 {
		t.Fatalf("performance = %d", s.PerformanceRating)
	}
}

func TestMatches(t *testing.T) {
	cases := []struct {
		ref, id string
		want    bool
	}{
		{"Spring Open", "Spring Open", true},
		{"[[Spring Open]]", "Spring Open", true},
		{"[[Tournaments/Spring Open]]", "Spring Open", true},
		{"Autumn Open", "Spring Open", false},
		{"Spring Open", "", false},
	}
	for _, tc := range cases {
		if got := Matches(tc.ref, tc.id); got != tc.want {
			t.Fatalf("Matches(%q, %q) = %v", tc.ref, tc.id, got)
		}
	}
}

func TestRatingChangeRounding(t *testing.T) {
	if got := (Summary{Delta: 3.4567}).RatingChange(); got != 3.46 {
		t.Fatalf("RatingChange(3.4567) = %v", got)
	}
	if got := (Summary{Delta: -1.2345}).RatingChange(); got != -1.23 {
		t.Fatalf("RatingChange(-1.2345) = %v", got)
	}
}
