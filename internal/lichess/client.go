// Package lichess downloads finished games from lichess.org as PGN.
package lichess

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"

	"github.com/park285/chess-vault/internal/webapi"
)

const DefaultBaseURL = "https://lichess.org"

var (
	ErrGameNotFound = errors.New("lichess game not found")
	ErrBadGameURL   = errors.New("not a lichess game url")
)

var gameURL = regexp.MustCompile(`lichess\.org/([a-zA-Z0-9]{8,12})`)

// ExtractGameID pulls the eight-character game id out of a game URL. Twelve
// character ids (player-specific links) are cut to the game part.
func ExtractGameID(rawURL string) (string, bool) {
	m := gameURL.FindStringSubmatch(rawURL)
	if m == nil {
		return "", false
	}
	return m[1][:8], true
}

var exportQuery = url.Values{
	"moves":          {"true"},
	"pgnInJson":      {"false"},
	"tags":           {"true"},
	"clocks":         {"false"},
	"evals":          {"false"},
	"accuracy":       {"false"},
	"opening":        {"true"},
	"division":       {"false"},
	"literate":       {"false"},
	"withBookmarked": {"false"},
}

type Client struct {
	api *webapi.Client
}

func NewClient(api *webapi.Client) *Client {
	return &Client{api: api}
}

// GamePGN exports one game with tags and opening, without clocks or evals.
func (c *Client) GamePGN(ctx context.Context, gameID string) (string, error) {
	if gameID == "" {
		return "", fmt.Errorf("%w: empty id", ErrGameNotFound)
	}
	body, err := c.api.GetText(ctx, "/game/export/"+url.PathEscape(gameID), exportQuery, "application/x-chess-pgn")
	if err != nil {
		if webapi.IsNotFound(err) {
			return "", fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
		}
		return "", fmt.Errorf("export lichess game %s: %w", gameID, err)
	}
	return string(body), nil
}

// FetchPGN exports the game a lichess URL points at.
func (c *Client) FetchPGN(ctx context.Context, gameURL string) (string, error) {
	id, ok := ExtractGameID(gameURL)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrBadGameURL, gameURL)
	}
	return c.GamePGN(ctx, id)
}
