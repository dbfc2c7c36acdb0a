package rating

import (
	"math"
	"testing"

	"github.com/park285/chess-vault/internal/chess"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestExpectedScoreSymmetry(t *testing.T) {
	pairs := [][2]int{{1500, 1500}, {1850, 1800}, {2100, 1600}, {1000, 3000}, {2750, 2200}, {0, 400}}
	for _, p := range pairs {
		sum := ExpectedScore(p[0], p[1]) + ExpectedScore(p[1], p[0])
		if !near(sum, 1) {
			t.Fatalf("pair %v: expected scores sum to %v", p, sum)
		}
	}
	if got := ExpectedScore(1700, 1700); got != 0.5 {
		t.Fatalf("equal ratings: %v", got)
	}
}

func TestExpectedScoreClamp(t *testing.T) {
	if ExpectedScore(1000, 1400) != ExpectedScore(1000, 3000) {
		t.Fatal("underdog expectation not clamped at 400 points")
	}
	if ExpectedScore(3000, 2600) != ExpectedScore(3000, 1000) {
		t.Fatal("favourite expectation not clamped at 400 points")
	}
	if got, want := ExpectedScore(1000, 3000), 1/(1+math.Pow(10, 1)); !near(got, want) {
		t.Fatalf("clamped expectation = %v, want %v", got, want)
	}
	if ExpectedScore(1000, 1399) >= ExpectedScore(1000, 1300) {
		t.Fatal("expectation should fall as the opponent gets stronger")
	}
}

func TestRatingDelta(t *testing.T) {
	cases := []struct {
		actual, want float64
	}{
		{1, 10},
		{0, -10},
		{0.5, 0},
	}
	for _, tc := range cases {
		if got := RatingDelta(1800, 1800, tc.actual, 20); !near(got, tc.want) {
			t.Fatalf("RatingDelta(score %v) = %v, want %v", tc.actual, got, tc.want)
		}
	}

	win := RatingDelta(1600, 2000, 1, 20)
	if want := 20 * (1 - 1/(1+math.Pow(10, 1))); !near(win, want) {
		t.Fatalf("upset win = %v, want %v", win, want)
	}
	if win <= RatingDelta(2000, 1600, 1, 20) {
		t.Fatal("an upset should gain more than an expected win")
	}
}

func TestPerformanceRating(t *testing.T) {
	cases := []struct {
		name      string
		opponents []int
		score     float64
		want      int
	}{
		{"perfect", []int{2000, 2000, 2000}, 3, 2800},
		{"zero", []int{2000, 2000, 2000}, 0, 1200},
		{"no opponents", nil, 2, 0},
		{"empty", []int{}, 0, 0},
		{"half", []int{1800, 1900, 2000}, 1.5, 1900},
		{"three quarters", []int{1500, 1500, 1500, 1500}, 3, 1693},
		// 1/3 rounds to 0.33 -> -dp(0.67) = -125
		{"one third", []int{2000, 2000, 2000}, 1, 1875},
	}
	for _, tc := range cases {
		if got := PerformanceRating(tc.opponents, tc.score); got != tc.want {
			t.Fatalf("%s: PerformanceRating = %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestDifferentialTable(t *testing.T) {
	if len(dpTable) != 51 {
		t.Fatalf("dp table has %d rows", len(dpTable))
	}
	for i := 1; i < len(dpTable); i++ {
		if dpTable[i] <= dpTable[i-1] {
			t.Fatalf("table must increase at %d", i)
		}
	}
	for h := 1; h < 100; h++ {
		p := float64(h) / 100
		if Differential(1-p) != -Differential(p) {
			t.Fatalf("p=%v: dp(1-p)=%d, dp(p)=%d", p, Differential(1-p), Differential(p))
		}
	}
	for p, want := range map[float64]int{1: 800, 0: -800, 0.5: 0, 0.99: 677, 0.10: -366} {
		if got := Differential(p); got != want {
			t.Fatalf("Differential(%v) = %d, want %d", p, got, want)
		}
	}
}

func TestParseDeclaredResult(t *testing.T) {
	cases := []struct {
		token string
		color chess.Color
		want  float64
	}{
		{"1-0", chess.White, 1},
		{"1-0", chess.Black, 0},
		{"0-1", chess.Black, 1},
		{"0-1", chess.White, 0},
		{"1/2-1/2", chess.White, 0.5},
		{"1/2-1/2", chess.Black, 0.5},
		{"*", chess.White, 0},
		{"", chess.Black, 0},
		{"2-0", chess.White, 0},
	}
	for _, tc := range cases {
		if got := ParseDeclaredResult(tc.token, tc.color); got != tc.want {
			t.Fatalf("%q as %s = %v, want %v", tc.token, tc.color, got, tc.want)
		}
	}
}

func TestResultOutcome(t *testing.T) {
	outcomes := []struct {
		token string
		color chess.Color
		want  Outcome
	}{
		{"1-0", chess.White, Win},
		{"1-0", chess.Black, Loss},
		{" 1/2-1/2 ", chess.Black, Draw},
		{"*", chess.White, Unknown},
	}
	for _, tc := range outcomes {
		if got := ParseResult(tc.token).Outcome(tc.color); got != tc.want {
			t.Fatalf("%q as %s = %v, want %v", tc.token, tc.color, got, tc.want)
		}
	}
	if s := ResultUnknown.Outcome(chess.Black).String(); s != "Unknown" {
		t.Fatalf("unknown outcome = %q", s)
	}
	if s := ParseResult("garbage").String(); s != "*" {
		t.Fatalf("garbage result = %q", s)
	}
	if s := ResultBlackWins.String(); s != "0-1" {
		t.Fatalf("black wins = %q", s)
	}
}

func TestFIDEKFactor(t *testing.T) {
	cases := []struct {
		rating, games, age int
		want               float64
	}{
		{1500, 10, 30, 40},
		{2100, 100, 15, 40},
		{2100, 100, 30, 20},
		{2350, 100, 0, 20},
		{2450, 100, 40, 10},
	}
	for _, tc := range cases {
		if got := FIDEKFactor(tc.rating, tc.games, tc.age); got != tc.want {
			t.Fatalf("FIDEKFactor(%d, %d, %d) = %v, want %v", tc.rating, tc.games, tc.age, got, tc.want)
		}
	}
}
