package replay

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/park285/chess-vault/internal/chess"
	"github.com/park285/chess-vault/pkg/studydto"
)

// Study converts the ledger to the chess-study storage document. The Event
// tag becomes the header title.
func (l *Ledger) Study() studydto.Study {
	s := studydto.Study{
		Version: studydto.StudyVersion,
		Moves:   make([]studydto.StudyMove, len(l.Entries)),
		RootFEN: l.RootFEN(),
	}
	if ev, ok := l.Tags["Event"]; ok && ev != "" {
		s.Header.Title = &ev
	}
	for i, e := range l.Entries {
		s.Moves[i] = studyMove(e)
	}
	return s
}

func studyMove(e Entry) studydto.StudyMove {
	m := e.Move
	sm := studydto.StudyMove{
		Color:    m.Color.Letter(),
		Piece:    pieceLetter(m.Piece),
		From:     m.From.String(),
		To:       m.To.String(),
		SAN:      m.SAN,
		Flags:    m.FlagLetters(),
		LAN:      m.LAN(),
		Before:   e.Before.FEN(),
		After:    e.After.FEN(),
		Captured: pieceLetter(m.Captured),
		Promote:  pieceLetter(m.Promotion),
		MoveID:   e.ID,
		Variants: make([][]studydto.StudyMove, 0, len(e.Annotations.Variants)),
		Shapes:   make([]studydto.Shape, 0, len(e.Annotations.Shapes)),
	}
	for _, v := range e.Annotations.Variants {
		line := make([]studydto.StudyMove, len(v))
		for i, ve := range v {
			line[i] = studyMove(ve)
		}
		sm.Variants = append(sm.Variants, line)
	}
	for _, sh := range e.Annotations.Shapes {
		sm.Shapes = append(sm.Shapes, studydto.Shape{Orig: sh.Orig, Dest: sh.Dest, Brush: sh.Brush})
	}
	if c := e.Annotations.Comment; c != "" {
		sm.Comment = &c
	}
	return sm
}

func pieceLetter(t chess.PieceType) string {
	if t == chess.Pawn {
		return "p"
	}
	return strings.ToLower(t.Letter())
}

// FromStudy rebuilds a ledger from a stored study by replaying its SAN
// moves from the root position. Stored move ids and annotations are kept;
// a stored position that disagrees with the replay is a format error.
func FromStudy(id string, s studydto.Study) (*Ledger, error) {
	root := chess.StartingPosition()
	if s.RootFEN != "" {
		var err error
		if root, err = chess.ParseFEN(s.RootFEN); err != nil {
			return nil, err
		}
	}
	l, err := replayStored(root, s.Moves)
	if err != nil {
		return nil, err
	}
	l.ID = id
	if s.Header.Title != nil {
		l.Tags = map[string]string{"Event": *s.Header.Title}
	}
	return l, nil
}

func replayStored(root chess.Position, moves []studydto.StudyMove) (*Ledger, error) {
	tokens := make([]string, len(moves))
	for i, m := range moves {
		tokens[i] = m.SAN
	}
	// the first generated id is the ledger's own
	n := -1
	b := NewBuilder(WithIDGenerator(func() string {
		defer func() { n++ }()
		if n >= 0 && moves[n].MoveID != "" {
			return moves[n].MoveID
		}
		return uuid.NewString()
	}))
	l, err := b.Build(root, tokens)
	if err != nil {
		return nil, err
	}
	for i, m := range moves {
		e := &l.Entries[i]
		if m.After != "" && m.After != e.After.FEN() {
			return nil, &chess.FormatError{Input: m.SAN, Reason: fmt.Sprintf("stored position after move %d does not match replay", i+1)}
		}
		if e.Annotations, err = annotationsFrom(e.Before, m); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// annotationsFrom restores comment, shapes and variations. A variation
// replaces the move it hangs on, so it is replayed from that move's
// starting position.
func annotationsFrom(before chess.Position, m studydto.StudyMove) (Annotations, error) {
	var a Annotations
	if m.Comment != nil {
		a.Comment = *m.Comment
	}
	for _, sh := range m.Shapes {
		a.Shapes = append(a.Shapes, Shape{Orig: sh.Orig, Dest: sh.Dest, Brush: sh.Brush})
	}
	for _, v := range m.Variants {
		vl, err := replayStored(before, v)
		if err != nil {
			return a, fmt.Errorf("variation of %s: %w", m.SAN, err)
		}
		a.Variants = append(a.Variants, vl.Entries)
	}
	return a, nil
}
