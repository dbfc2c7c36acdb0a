package replay

import (
	"github.com/google/uuid"

	"github.com/park285/chess-vault/internal/chess"
)

type Option func(*Builder)

// WithIDGenerator replaces the uuid-based identifier source.
func WithIDGenerator(gen func() string) Option {
	return func(b *Builder) {
		if gen != nil {
			b.newID = gen
		}
	}
}

// Builder applies move tokens one by one and records each result.
type Builder struct {
	newID func() string
}

func NewBuilder(opts ...Option) *Builder {
	b := &Builder{newID: uuid.NewString}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build replays tokens from start. On failure it returns a nil ledger and an
// *Error naming the offending index and token.
func (b *Builder) Build(start chess.Position, tokens []string) (*Ledger, error) {
	l := &Ledger{
		ID:      b.newID(),
		Root:    start,
		Entries: make([]Entry, 0, len(tokens)),
	}
	// move ids must be unique within the ledger and differ from its own id
	seen := map[string]struct{}{l.ID: {}}
	pos := start
	for i, tok := range tokens {
		next, mv, err := pos.Apply(tok)
		if err != nil {
			return nil, &Error{Index: i, Token: tok, Err: err, Partial: l}
		}
		id := b.newID()
		if _, dup := seen[id]; dup {
			return nil, &Error{Index: i, Token: tok, Err: ErrDuplicateMoveID, Partial: l}
		}
		seen[id] = struct{}{}
		l.Entries = append(l.Entries, Entry{
			Seq:    i + 1,
			ID:     id,
			Move:   mv,
			Before: pos,
			After:  next,
		})
		pos = next
	}
	return l, nil
}

// BuildTranscript replays a parsed transcript, starting from its FEN tag
// when present. Tags are copied onto the ledger.
func (b *Builder) BuildTranscript(t *Transcript) (*Ledger, error) {
	start, err := t.StartPosition()
	if err != nil {
		return nil, err
	}
	l, err := b.Build(start, t.Moves)
	if err != nil {
		if re, ok := err.(*Error); ok && re.Partial != nil {
			re.Partial.Tags = t.cloneTags()
		}
		return nil, err
	}
	l.Tags = t.cloneTags()
	return l, nil
}
