package fide

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"

	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"github.com/park285/chess-vault/internal/webapi"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	go func() {
		_ = fasthttp.Serve(ln, func(ctx *fasthttp.RequestCtx) {
			switch string(ctx.QueryArgs().Peek("fide_id")) {
			case "1503014":
				ctx.SetBodyString(`{"name":"Carlsen, Magnus","federation":"Norway","fide_title":"GM","classical_rating":2837,"rapid_rating":"2823","blitz_rating":null}`)
			case "777":
				ctx.SetBodyString(`{"classical_rating":"Not rated"}`)
			default:
				ctx.SetStatusCode(fasthttp.StatusNotFound)
			}
		})
	}()
	t.Cleanup(func() { _ = ln.Close() })
	api := webapi.NewClient("http://fide.test", webapi.WithRetry(1), webapi.WithDial(func(string) (net.Conn, error) {
		return ln.Dial()
	}))
	return NewClient(api)
}

func TestPlayer(t *testing.T) {
	c := newTestClient(t)
	p, err := c.Player(context.Background(), " 1503014 ")
	if err != nil {
		t.Fatalf("Player: %v", err)
	}
	if p.FIDEID != "1503014" || p.Name != "Carlsen, Magnus" || p.Title != "GM" {
		t.Fatalf("unexpected player %+v", p)
	}
	if p.ClassicalRating != 2837 || p.RapidRating != 2823 || p.BlitzRating != 0 {
		t.Fatalf("unexpected ratings %+v", p)
	}
}

func TestPlayerWithoutNameOrRating(t *testing.T) {
	c := newTestClient(t)
	p, err := c.Player(context.Background(), "777")
	if err != nil {
		t.Fatalf("Player: %v", err)
	}
	if p.Name != "Unknown" || p.ClassicalRating != 0 {
		t.Fatalf("unexpected player %+v", p)
	}
}

func TestPlayerErrors(t *testing.T) {
	c := newTestClient(t)
	if _, err := c.Player(context.Background(), ""); !errors.Is(err, ErrEmptyID) {
		t.Fatalf("empty id: %v", err)
	}
	if _, err := c.Player(context.Background(), "42"); !errors.Is(err, ErrPlayerNotFound) {
		t.Fatalf("unknown id: %v", err)
	}
}

func TestRaw(t *testing.T) {
	c := newTestClient(t)
	raw, err := c.Raw(context.Background(), "1503014")
	if err != nil {
		t.Fatalf("Raw: %v", err)
	}
	if !strings.Contains(string(raw), `"fide_title": "GM"`) {
		t.Fatalf("raw document missing title:\n%s", raw)
	}
}
