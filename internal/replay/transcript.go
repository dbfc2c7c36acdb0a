package replay

import (
	"strings"
	"unicode"

	"github.com/park285/chess-vault/internal/chess"
)

// Transcript is a single game in tag-pair + movetext form.
type Transcript struct {
	Tags     map[string]string
	TagOrder []string
	Moves    []string
	// Result is the terminating token ("1-0", "0-1", "1/2-1/2", "*") or
	// empty when the movetext had none.
	Result string
}

// Tag returns the value of tag name or "".
func (t *Transcript) Tag(name string) string {
	return t.Tags[name]
}

// StartPosition is the FEN tag position when one is present, the standard
// initial position otherwise.
func (t *Transcript) StartPosition() (chess.Position, error) {
	if fen := strings.TrimSpace(t.Tags["FEN"]); fen != "" {
		return chess.ParseFEN(fen)
	}
	return chess.StartingPosition(), nil
}

func (t *Transcript) cloneTags() map[string]string {
	if len(t.Tags) == 0 {
		return nil
	}
	out := make(map[string]string, len(t.Tags))
	for k, v := range t.Tags {
		out[k] = v
	}
	return out
}

var resultTokens = map[string]struct{}{"1-0": {}, "0-1": {}, "1/2-1/2": {}, "*": {}}

// ParseTranscript reads tag pairs and the main line of movetext. Comments,
// NAGs, move numbers and variations are skipped. Malformed input yields a
// *chess.FormatError.
func ParseTranscript(text string) (*Transcript, error) {
	t := &Transcript{Tags: map[string]string{}}
	src := []rune(text)
	depth := 0
	lineStart := true

	for i := 0; i < len(src); {
		r := src[i]
		switch {
		case r == '\n':
			lineStart = true
			i++
			continue
		case unicode.IsSpace(r):
			i++
			continue
		case r == '%' && lineStart:
			for i < len(src) && src[i] != '\n' {
				i++
			}
			continue
		}
		lineStart = false

		switch r {
		case '[':
			if depth > 0 {
				return nil, &chess.FormatError{Reason: "tag pair inside variation"}
			}
			key, value, next, err := parseTag(src, i)
			if err != nil {
				return nil, err
			}
			if _, dup := t.Tags[key]; !dup {
				t.TagOrder = append(t.TagOrder, key)
			}
			t.Tags[key] = value
			i = next
		case '{':
			end := indexRune(src, i+1, '}')
			if end < 0 {
				return nil, &chess.FormatError{Reason: "unterminated comment"}
			}
			i = end + 1
		case ';':
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case '(':
			depth++
			i++
		case ')':
			if depth == 0 {
				return nil, &chess.FormatError{Reason: "unbalanced ')'"}
			}
			depth--
			i++
		default:
			start := i
			for i < len(src) && !unicode.IsSpace(src[i]) && !strings.ContainsRune("{}();[", src[i]) {
				i++
			}
			if depth > 0 {
				continue
			}
			if err := t.addToken(string(src[start:i])); err != nil {
				return nil, err
			}
		}
	}
	if depth != 0 {
		return nil, &chess.FormatError{Reason: "unterminated variation"}
	}
	return t, nil
}

func (t *Transcript) addToken(tok string) error {
	if strings.HasPrefix(tok, "$") || tok == "e.p." {
		return nil
	}
	tok = stripMoveNumber(tok)
	if strings.Trim(tok, "!?") == "" {
		return nil
	}
	if _, ok := resultTokens[tok]; ok {
		t.Result = tok
		return nil
	}
	if t.Result != "" {
		return &chess.FormatError{Input: tok, Reason: "move after game result"}
	}
	t.Moves = append(t.Moves, tok)
	return nil
}

// stripMoveNumber removes a leading "12." or "12..." from tok.
func stripMoveNumber(tok string) string {
	i := 0
	for i < len(tok) && tok[i] >= '0' && tok[i] <= '9' {
		i++
	}
	if i == 0 || i == len(tok) || tok[i] != '.' {
		return tok
	}
	return strings.TrimLeft(tok[i:], ".")
}

func parseTag(src []rune, i int) (key, value string, next int, err error) {
	i++ // '['
	for i < len(src) && unicode.IsSpace(src[i]) {
		i++
	}
	start := i
	for i < len(src) && (unicode.IsLetter(src[i]) || unicode.IsDigit(src[i]) || src[i] == '_') {
		i++
	}
	key = string(src[start:i])
	if key == "" {
		return "", "", 0, &chess.FormatError{Reason: "tag pair without name"}
	}
	for i < len(src) && unicode.IsSpace(src[i]) {
		i++
	}
	if i >= len(src) || src[i] != '"' {
		return "", "", 0, &chess.FormatError{Input: key, Reason: "tag value must be quoted"}
	}
	i++
	var b strings.Builder
	for ; ; i++ {
		if i >= len(src) || src[i] == '\n' {
			return "", "", 0, &chess.FormatError{Input: key, Reason: "unterminated tag value"}
		}
		if src[i] == '\\' && i+1 < len(src) && (src[i+1] == '"' || src[i+1] == '\\') {
			i++
			b.WriteRune(src[i])
			continue
		}
		if src[i] == '"' {
			break
		}
		b.WriteRune(src[i])
	}
	i++
	for i < len(src) && unicode.IsSpace(src[i]) && src[i] != '\n' {
		i++
	}
	if i >= len(src) || src[i] != ']' {
		return "", "", 0, &chess.FormatError{Input: key, Reason: "tag pair missing ']'"}
	}
	return key, b.String(), i + 1, nil
}

func indexRune(src []rune, from int, r rune) int {
	for i := from; i < len(src); i++ {
		if src[i] == r {
			return i
		}
	}
	return -1
}
