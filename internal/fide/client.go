// Package fide looks up FIDE player profiles through the public
// fide-api.vercel.app mirror.
package fide

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/park285/chess-vault/internal/domain"
	"github.com/park285/chess-vault/internal/webapi"
)

const DefaultBaseURL = "https://fide-api.vercel.app"

var (
	ErrEmptyID        = errors.New("fide id is empty")
	ErrPlayerNotFound = errors.New("fide player not found")
)

type Client struct {
	api *webapi.Client
}

func NewClient(api *webapi.Client) *Client {
	return &Client{api: api}
}

// rating accepts a JSON number, a numeric string, or null/"Not rated".
type rating int

func (r *rating) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*r = 0
		return nil
	}
	s := strings.Trim(string(b), `"`)
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		*r = 0
		return nil
	}
	*r = rating(n)
	return nil
}

type playerInfo struct {
	Name            string `json:"name"`
	Federation      string `json:"federation"`
	Title           string `json:"fide_title"`
	ClassicalRating rating `json:"classical_rating"`
	RapidRating     rating `json:"rapid_rating"`
	BlitzRating     rating `json:"blitz_rating"`
}

// Player fetches the profile for fideID.
func (c *Client) Player(ctx context.Context, fideID string) (*domain.Player, error) {
	id := strings.TrimSpace(fideID)
	if id == "" {
		return nil, ErrEmptyID
	}
	var info playerInfo
	if err := c.api.GetJSON(ctx, "/player_info/", url.Values{"fide_id": {id}}, &info); err != nil {
		if webapi.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrPlayerNotFound, id)
		}
		return nil, fmt.Errorf("fetch fide player %s: %w", id, err)
	}
	name := strings.TrimSpace(info.Name)
	if name == "" {
		name = "Unknown"
	}
	return &domain.Player{
		FIDEID:          id,
		Name:            name,
		Federation:      strings.TrimSpace(info.Federation),
		Title:           strings.TrimSpace(info.Title),
		ClassicalRating: int(info.ClassicalRating),
		RapidRating:     int(info.RapidRating),
		BlitzRating:     int(info.BlitzRating),
	}, nil
}

// Raw returns the untouched JSON document for fideID, indented for dumping.
func (c *Client) Raw(ctx context.Context, fideID string) ([]byte, error) {
	id := strings.TrimSpace(fideID)
	if id == "" {
		return nil, ErrEmptyID
	}
	var doc map[string]any
	if err := c.api.GetJSON(ctx, "/player_info/", url.Values{"fide_id": {id}}, &doc); err != nil {
		if webapi.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrPlayerNotFound, id)
		}
		return nil, fmt.Errorf("fetch fide player %s: %w", id, err)
	}
	return json.MarshalIndent(doc, "", "  ")
}
