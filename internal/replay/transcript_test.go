package replay

import (
	"errors"
	"reflect"
	"testing"

	"github.com/park285/chess-vault/internal/chess"
)

const sampleGame = `[Event "Club \"Spring\" Open"]
[Site "Seoul"]
[Date "2024.03.09"]
[Round "3"]
[White "Kim, A"]
[Black "Lee, B"]
[Result "1/2-1/2"]
% engine-generated line, ignored

1. e4 {best by test} c5 2. Nf3 (2. c3 d5 (2... Nf6) 3. exd5) d6 $1 3.d4 cxd4
4. Nxd4 ; the open Sicilian
Nf6 5. Nc3 a6!? 1/2-1/2
`

func TestParseTranscript(t *testing.T) {
	tr, err := ParseTranscript(sampleGame)
	if err != nil {
		t.Fatalf("ParseTranscript: %v", err)
	}
	want := []string{"e4", "c5", "Nf3", "d6", "d4", "cxd4", "Nxd4", "Nf6", "Nc3", "a6!?"}
	if !reflect.DeepEqual(tr.Moves, want) {
		t.Fatalf("moves = %v\nwant    %v", tr.Moves, want)
	}
	if tr.Result != "1/2-1/2" {
		t.Fatalf("result = %q", tr.Result)
	}
	if tr.Tag("Event") != `Club "Spring" Open` {
		t.Fatalf("escaped tag = %q", tr.Tag("Event"))
	}
	if len(tr.TagOrder) != 7 || tr.TagOrder[0] != "Event" || tr.TagOrder[6] != "Result" {
		t.Fatalf("tag order = %v", tr.TagOrder)
	}
	l, err := NewBuilder().BuildTranscript(tr)
	if err != nil {
		t.Fatalf("BuildTranscript: %v", err)
	}
	if l.Entries[9].Move.SAN != "a6" {
		t.Fatalf("last move SAN = %q", l.Entries[9].Move.SAN)
	}
}

func TestParseTranscriptWithoutTags(t *testing.T) {
	tr, err := ParseTranscript("1.e4 e5 2.Nf3 Nc6 3...a6")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(tr.Moves, []string{"e4", "e5", "Nf3", "Nc6", "a6"}) || tr.Result != "" {
		t.Fatalf("moves=%v result=%q", tr.Moves, tr.Result)
	}
	if p, err := tr.StartPosition(); err != nil || p != chess.StartingPosition() {
		t.Fatalf("start position should be the standard one: %v", err)
	}
}

func TestParseTranscriptErrors(t *testing.T) {
	cases := map[string]string{
		"unterminated comment": "1. e4 {never closed",
		"unbalanced paren":     "1. e4 e5 )",
		"open variation":       "1. e4 (1. d4 d5",
		"unquoted tag":         "[Event Spring]\n1. e4",
		"unterminated tag":     "[Event \"Spring\n1. e4",
		"move after result":    "1. e4 e5 1-0 Nf3",
	}
	for name, text := range cases {
		_, err := ParseTranscript(text)
		var fe *chess.FormatError
		if !errors.As(err, &fe) {
			t.Fatalf("%s: expected *chess.FormatError, got %v", name, err)
		}
	}
}

func TestBuildTranscriptBadFEN(t *testing.T) {
	tr, err := ParseTranscript("[FEN \"not a fen\"]\n1. e4")
	if err != nil {
		t.Fatal(err)
	}
	_, err = NewBuilder().BuildTranscript(tr)
	var fe *chess.FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *chess.FormatError, got %v", err)
	}
}
