package opening

import (
	"strings"
	"testing"

	"github.com/park285/chess-vault/internal/chess"
)

func TestClassifyKnownOpening(t *testing.T) {
	label, err := Classify(chess.StartingPosition(), []string{"e4", "e5", "Nf3", "Nc6", "Bb5"})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if !strings.HasPrefix(label.Code, "C") || label.Title == "" {
		t.Fatalf("unexpected label %+v", label)
	}
}

func TestClassifyQueenPawn(t *testing.T) {
	label, err := Classify(chess.StartingPosition(), []string{"d4", "d5", "c4"})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if !strings.HasPrefix(label.Code, "D") {
		t.Fatalf("expected a D code, got %+v", label)
	}
}

func TestClassifySkipsCustomRootAndEmptyGames(t *testing.T) {
	if label, err := Classify(chess.StartingPosition(), nil); err != nil || !label.Empty() {
		t.Fatalf("empty game: %+v %v", label, err)
	}
	root, err := chess.ParseFEN("4k3/8/8/8/8/8/4P3/4K3 w - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	if label, err := Classify(root, []string{"e4"}); err != nil || !label.Empty() {
		t.Fatalf("custom root: %+v %v", label, err)
	}
}

func TestClassifyRejectsUnplayableMove(t *testing.T) {
	if _, err := Classify(chess.StartingPosition(), []string{"e4", "e4"}); err == nil {
		t.Fatal("expected error for unplayable move")
	}
}
