package domain

import (
	"fmt"
	"regexp"
	"time"
)

type TournamentStatus string

const (
	TournamentPending   TournamentStatus = "pending"
	TournamentActive    TournamentStatus = "active"
	TournamentCompleted TournamentStatus = "completed"
)

type Tournament struct {
	Name               string
	Status             TournamentStatus
	DateStart          string
	Location           string
	TimeControl        string
	TimeControlDetails string
	TotalRounds        int
	Link               string
	StartRating        int
	EndRating          int
	PerformanceRating  int
	Score              string
	RatingChange       float64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// GameRecord is one logged game. Tournament holds the reference as written
// in the note ("[[Spring Open]]").
type GameRecord struct {
	ID             string
	Tournament     string
	Round          int
	Result         string
	MyColor        string
	MyResult       string
	Opponent       string
	OpponentRating int
	OpponentFIDEID string
	Date           string
	Opening        string
	ECO            string
	LedgerID       string
	PGN            string
	CreatedAt      time.Time
}

type Player struct {
	FIDEID          string
	Name            string
	Federation      string
	Title           string
	ClassicalRating int
	RapidRating     int
	BlitzRating     int
}

var unsafeNoteChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

// SafeName replaces every character outside [a-zA-Z0-9] with an underscore,
// the form used in note file names.
func SafeName(s string) string {
	return unsafeNoteChars.ReplaceAllString(s, "_")
}

// NoteName is the game's note file stem ("2024-03-09-Round-2-Carlsen__Magnus").
// It doubles as the uniqueness key of a logged game.
func (g *GameRecord) NoteName() string {
	return fmt.Sprintf("%s-Round-%d-%s", g.Date, g.Round, SafeName(g.Opponent))
}

// TournamentLink renders the wiki-link form stored in game notes.
func TournamentLink(name string) string {
	return "[[" + name + "]]"
}
