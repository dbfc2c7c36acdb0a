package vault_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/park285/chess-vault/internal/chess"
	"github.com/park285/chess-vault/internal/diagram"
	"github.com/park285/chess-vault/internal/domain"
	"github.com/park285/chess-vault/internal/metrics"
	"github.com/park285/chess-vault/internal/rating"
	"github.com/park285/chess-vault/internal/replay"
	"github.com/park285/chess-vault/internal/service/vault"
	"github.com/park285/chess-vault/internal/store/memory"
)

type fakePlayers map[string]domain.Player

func (f fakePlayers) Player(_ context.Context, id string) (*domain.Player, error) {
	p, ok := f[id]
	if !ok {
		return nil, fmt.Errorf("player %s not found", id)
	}
	return &p, nil
}

type fakeSource map[string]string

func (f fakeSource) FetchPGN(_ context.Context, url string) (string, error) {
	pgn, ok := f[url]
	if !ok {
		return "", errors.New("no such game")
	}
	return pgn, nil
}

var fixedNow = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func newService(t *testing.T, opts ...vault.Option) (*vault.Service, *memory.Store, *metrics.Metrics) {
	t.Helper()
	store := memory.New()
	m := metrics.New(prometheus.NewRegistry())
	players := fakePlayers{
		"1000": {FIDEID: "1000", Name: "Owner, Vault", ClassicalRating: 1850},
		"100":  {FIDEID: "100", Name: "Alpha, Ann", ClassicalRating: 1800},
		"200":  {FIDEID: "200", Name: "Beta, Bo", ClassicalRating: 1900},
		"300":  {FIDEID: "300", Name: "Gamma, Gil", ClassicalRating: 2000},
	}
	opts = append([]vault.Option{vault.WithPlayerLookup(players), vault.WithMetrics(m)}, opts...)
	svc, err := vault.NewService(store, store, diagram.NewRenderer(), vault.Config{
		KFactor:         20,
		FIDEID:          "1000",
		LichessUsername: "VaultOwner",
		Now:             func() time.Time { return fixedNow },
	}, nil, opts...)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, store, m
}

const (
	scholarsMate = "[Event \"Spring Open\"]\n[Date \"2024.03.09\"]\n[Result \"1-0\"]\n\n1. e4 e5 2. Qh5 Nc6 3. Bc4 Nf6 4. Qxf7# 1-0\n"
	quietDraw    = "1. d4 d5 2. c4 e6 3. Nc3 Nf6 1/2-1/2"
	blackLoses   = "[Result \"1-0\"]\n1. e4 c5 2. Nf3 d6 3. d4 cxd4 1-0"
)

func TestTournamentLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, store, m := newService(t)

	tour, err := svc.CreateTournament(ctx, vault.TournamentInput{Name: "Spring Open", TotalRounds: 3, DateStart: "2024-03-09"})
	if err != nil {
		t.Fatalf("CreateTournament: %v", err)
	}
	if tour.StartRating != 1850 || tour.Status != domain.TournamentPending || tour.Score != "0/0" {
		t.Fatalf("unexpected tournament %+v", tour)
	}
	if _, err := svc.CreateTournament(ctx, vault.TournamentInput{Name: "Spring Open"}); !errors.Is(err, vault.ErrTournamentExists) {
		t.Fatalf("expected ErrTournamentExists, got %v", err)
	}
	if _, err := svc.StartTournament(ctx, "Spring Open"); err != nil {
		t.Fatalf("StartTournament: %v", err)
	}
	if _, err := svc.StartTournament(ctx, "Spring Open"); !errors.Is(err, vault.ErrTournamentStatus) {
		t.Fatalf("second start: expected ErrTournamentStatus, got %v", err)
	}

	games := []vault.GameInput{
		{Tournament: "Spring Open", Round: 1, Color: chess.White, OpponentFIDEID: "100", PGN: scholarsMate},
		{Tournament: "Spring Open", Round: 2, Color: chess.Black, OpponentFIDEID: "200", PGN: quietDraw},
		{Tournament: "Spring Open", Round: 3, Color: chess.Black, OpponentFIDEID: "300", PGN: blackLoses},
	}
	for _, g := range games {
		if _, err := svc.LogGame(ctx, g); err != nil {
			t.Fatalf("LogGame round %d: %v", g.Round, err)
		}
	}

	summary, err := svc.EndTournament(ctx, "Spring Open")
	if err != nil {
		t.Fatalf("EndTournament: %v", err)
	}
	if summary.Games != 3 || summary.ScoreString() != "1.5/3" || summary.PerformanceRating != 1900 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	wantDelta := rating.RatingDelta(1850, 1800, 1, 20) +
		rating.RatingDelta(1850, 1900, 0.5, 20) +
		rating.RatingDelta(1850, 2000, 0, 20)
	if d := summary.Delta - wantDelta; d > 1e-9 || d < -1e-9 {
		t.Fatalf("delta = %v, want %v", summary.Delta, wantDelta)
	}

	stored, err := store.GetTournament(ctx, "Spring Open")
	if err != nil || stored == nil {
		t.Fatalf("GetTournament: %v", err)
	}
	if stored.Status != domain.TournamentCompleted || stored.Score != "1.5/3" ||
		stored.PerformanceRating != 1900 || stored.EndRating != summary.EndRating ||
		stored.RatingChange != summary.RatingChange() {
		t.Fatalf("tournament not updated: %+v", stored)
	}

	if _, err := svc.EndTournament(ctx, "Spring Open"); !errors.Is(err, vault.ErrTournamentStatus) {
		t.Fatalf("second end: expected ErrTournamentStatus, got %v", err)
	}
	if _, err := svc.LogGame(ctx, vault.GameInput{Tournament: "Spring Open", Round: 4, PGN: quietDraw}); !errors.Is(err, vault.ErrTournamentStatus) {
		t.Fatalf("log into completed: expected ErrTournamentStatus, got %v", err)
	}
	if v := testutil.ToFloat64(m.Aggregations.WithLabelValues("completed")); v != 1 {
		t.Fatalf("completed aggregations = %v", v)
	}
}

func TestLogGameRecord(t *testing.T) {
	ctx := context.Background()
	svc, _, m := newService(t)

	logged, err := svc.LogGame(ctx, vault.GameInput{Tournament: "Spring Open", Round: 1, Color: chess.White, OpponentFIDEID: "100", PGN: scholarsMate})
	if err != nil {
		t.Fatalf("LogGame: %v", err)
	}
	rec := logged.Record
	if rec.Tournament != "[[Spring Open]]" || rec.Result != "1-0" || rec.MyColor != "White" || rec.MyResult != "Win" {
		t.Fatalf("unexpected record %+v", rec)
	}
	if rec.Opponent != "Alpha, Ann" || rec.OpponentRating != 1800 || rec.OpponentFIDEID != "100" {
		t.Fatalf("unexpected opponent %+v", rec)
	}
	if rec.Date != "2024-03-09" {
		t.Fatalf("date = %q", rec.Date)
	}
	if rec.ECO == "" {
		t.Fatal("expected an ECO code from the opening book")
	}
	if rec.NoteName() != "2024-03-09-Round-1-Alpha__Ann" {
		t.Fatalf("note name = %q", rec.NoteName())
	}
	if logged.Ledger.Len() != 7 || rec.LedgerID != logged.Ledger.ID {
		t.Fatalf("unexpected ledger %d %q", logged.Ledger.Len(), rec.LedgerID)
	}
	if logged.Ledger.Final().Status() != chess.StatusCheckmate {
		t.Fatal("final position should be mate")
	}

	if _, err := svc.LogGame(ctx, vault.GameInput{Tournament: "Spring Open", Round: 1, Color: chess.White, OpponentFIDEID: "100", PGN: scholarsMate}); !errors.Is(err, vault.ErrDuplicateGame) {
		t.Fatalf("expected ErrDuplicateGame, got %v", err)
	}
	if v := testutil.ToFloat64(m.GamesLogged.WithLabelValues("Win")); v != 1 {
		t.Fatalf("games logged = %v", v)
	}
}

func TestLogGameDuplicateDiscardsLedger(t *testing.T) {
	ctx := context.Background()
	n := 0
	ids := replay.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("game-%d", n)
	})
	svc, store, _ := newService(t, vault.WithBuilder(replay.NewBuilder(ids)))
	in := vault.GameInput{Tournament: "Spring Open", Round: 1, Color: chess.White, OpponentFIDEID: "100", PGN: scholarsMate}

	first, err := svc.LogGame(ctx, in)
	if err != nil {
		t.Fatalf("LogGame: %v", err)
	}
	if _, err := svc.LogGame(ctx, in); !errors.Is(err, vault.ErrDuplicateGame) {
		t.Fatalf("expected ErrDuplicateGame, got %v", err)
	}

	second := fmt.Sprintf("game-%d", first.Ledger.Len()+2)
	if study, err := store.LoadLedger(ctx, second); err != nil || study != nil {
		t.Fatalf("ledger %s of the rejected game is still stored (err=%v)", second, err)
	}
	if study, err := store.LoadLedger(ctx, first.Ledger.ID); err != nil || study == nil {
		t.Fatalf("ledger of the logged game is gone (err=%v)", err)
	}
	games, err := store.ListGames(ctx)
	if err != nil || len(games) != 1 {
		t.Fatalf("games = %d, err=%v", len(games), err)
	}
}

func TestLogGameDefaults(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)

	logged, err := svc.LogGame(ctx, vault.GameInput{Tournament: "Club", Round: 2, Color: chess.Black, OpponentFIDEID: "999", PGN: "[Date \"2024.??.??\"]\n1. e4 e5 *"})
	if err != nil {
		t.Fatalf("LogGame: %v", err)
	}
	rec := logged.Record
	if rec.Opponent != "Unknown Opponent" || rec.OpponentRating != 0 {
		t.Fatalf("failed lookup should leave opponent unknown: %+v", rec)
	}
	if rec.Date != "2026-10-15" || rec.Result != "*" || rec.MyResult != "Unknown" {
		t.Fatalf("unexpected defaults %+v", rec)
	}
}

func TestLogGameOpponentFromTags(t *testing.T) {
	svc, _, _ := newService(t)
	pgn := "[White \"Me\"]\n[Black \"Rival, Rita\"]\n[BlackElo \"1750\"]\n[Result \"0-1\"]\n1. f3 e5 2. g4 Qh4# 0-1"

	logged, err := svc.LogGame(context.Background(), vault.GameInput{Tournament: "Club", Round: 1, Color: chess.White, PGN: pgn})
	if err != nil {
		t.Fatalf("LogGame: %v", err)
	}
	if logged.Record.Opponent != "Rival, Rita" || logged.Record.OpponentRating != 1750 || logged.Record.MyResult != "Loss" {
		t.Fatalf("unexpected record %+v", logged.Record)
	}
}

func TestLogGameRejectsIllegalTranscript(t *testing.T) {
	svc, store, m := newService(t)

	_, err := svc.LogGame(context.Background(), vault.GameInput{Tournament: "Club", Round: 1, PGN: "1. e4 e5 2. Ke3 Nc6"})
	if !errors.Is(err, vault.ErrInvalidTranscript) {
		t.Fatalf("expected ErrInvalidTranscript, got %v", err)
	}
	var re *replay.Error
	if !errors.As(err, &re) || re.Index != 2 || re.Token != "Ke3" {
		t.Fatalf("expected replay error at index 2, got %v", err)
	}
	var ill *chess.IllegalMoveError
	if !errors.As(err, &ill) {
		t.Fatalf("expected IllegalMoveError in chain, got %v", err)
	}
	games, _ := store.ListGames(context.Background())
	if len(games) != 0 {
		t.Fatalf("nothing should be stored, got %d games", len(games))
	}
	if v := testutil.ToFloat64(m.ReplayFailures.WithLabelValues("illegal")); v != 1 {
		t.Fatalf("illegal replay failures = %v", v)
	}

	_, err = svc.LogGame(context.Background(), vault.GameInput{Tournament: "Club", Round: 1, PGN: "[Event \"x\"\n1. e4"})
	if !errors.Is(err, vault.ErrInvalidTranscript) {
		t.Fatalf("malformed tag: expected ErrInvalidTranscript, got %v", err)
	}
}

func TestLogGameValidatesInput(t *testing.T) {
	svc, _, _ := newService(t)
	cases := []vault.GameInput{
		{Round: 1, PGN: quietDraw},
		{Tournament: "Club", Round: -1, PGN: quietDraw},
		{Tournament: "Club", OpponentFIDEID: "abc", PGN: quietDraw},
		{Tournament: "Club"},
	}
	for i, in := range cases {
		if _, err := svc.LogGame(context.Background(), in); !errors.Is(err, vault.ErrInvalidInput) {
			t.Fatalf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}
}

func TestEndTournamentWithoutGames(t *testing.T) {
	ctx := context.Background()
	svc, store, m := newService(t)
	start := 1600
	if _, err := svc.CreateTournament(ctx, vault.TournamentInput{Name: "Winter Cup", StartRating: &start}); err != nil {
		t.Fatalf("CreateTournament: %v", err)
	}

	summary, err := svc.EndTournament(ctx, "Winter Cup")
	if err != nil {
		t.Fatalf("EndTournament: %v", err)
	}
	if !summary.Empty() || summary.EndRating != 1600 {
		t.Fatalf("expected empty summary, got %+v", summary)
	}
	stored, _ := store.GetTournament(ctx, "Winter Cup")
	if stored.Status != domain.TournamentPending || stored.Score != "0/0" {
		t.Fatalf("tournament should be untouched: %+v", stored)
	}
	if v := testutil.ToFloat64(m.Aggregations.WithLabelValues("empty")); v != 1 {
		t.Fatalf("empty aggregations = %v", v)
	}
	if _, err := svc.EndTournament(ctx, "Nope"); !errors.Is(err, vault.ErrTournamentNotFound) {
		t.Fatalf("expected ErrTournamentNotFound, got %v", err)
	}
}

func TestCreateTournamentValidation(t *testing.T) {
	svc, _, _ := newService(t)
	bad := []vault.TournamentInput{
		{Name: "  "},
		{Name: "a/b"},
		{Name: "Open", DateStart: "09.03.2024"},
		{Name: "Open", Link: "not a url"},
		{Name: "Open", TotalRounds: -2},
	}
	for i, in := range bad {
		if _, err := svc.CreateTournament(context.Background(), in); !errors.Is(err, vault.ErrInvalidInput) {
			t.Fatalf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}
}

func TestImportOnline(t *testing.T) {
	pgn := "[Event \"Rated blitz game\"]\n[Site \"https://lichess.org/8vgicenB\"]\n[Date \"2025.01.02\"]\n" +
		"[White \"vaultowner\"]\n[Black \"rival\"]\n[Result \"0-1\"]\n[WhiteElo \"2050\"]\n[BlackElo \"2100\"]\n" +
		"[ECO \"C50\"]\n[Opening \"Italian Game\"]\n\n1. e4 e5 2. Nf3 Nc6 3. Bc4 Bc5 0-1\n"
	svc, _, _ := newService(t, vault.WithGameSource(fakeSource{"https://lichess.org/8vgicenB": pgn}))

	logged, err := svc.ImportOnline(context.Background(), vault.OnlineGameInput{URL: "https://lichess.org/8vgicenB", Tournament: "Online", Round: 1})
	if err != nil {
		t.Fatalf("ImportOnline: %v", err)
	}
	rec := logged.Record
	if rec.MyColor != "White" || rec.MyResult != "Loss" || rec.Opponent != "rival" || rec.OpponentRating != 2100 {
		t.Fatalf("unexpected record %+v", rec)
	}
	if rec.ECO != "C50" || rec.Opening != "Italian Game" || rec.Date != "2025-01-02" {
		t.Fatalf("tags not carried: %+v", rec)
	}

	if _, err := svc.ImportOnline(context.Background(), vault.OnlineGameInput{URL: "https://lichess.org/zzzzzzzz", Tournament: "Online"}); err == nil {
		t.Fatal("expected fetch error")
	}
}

func TestDiagram(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)
	logged, err := svc.LogGame(ctx, vault.GameInput{Tournament: "Club", Round: 1, Color: chess.White, PGN: scholarsMate})
	if err != nil {
		t.Fatalf("LogGame: %v", err)
	}

	for _, ply := range []int{0, 7} {
		data, err := svc.Diagram(ctx, logged.Ledger.ID, vault.DiagramOptions{Ply: ply, Flip: ply == 7})
		if err != nil {
			t.Fatalf("Diagram ply %d: %v", ply, err)
		}
		if _, err := png.Decode(bytes.NewReader(data)); err != nil {
			t.Fatalf("ply %d: not a png: %v", ply, err)
		}
	}
	if _, err := svc.Diagram(ctx, logged.Ledger.ID, vault.DiagramOptions{Ply: 8}); !errors.Is(err, vault.ErrPlyOutOfRange) {
		t.Fatalf("expected ErrPlyOutOfRange, got %v", err)
	}
	if _, err := svc.Diagram(ctx, "missing", vault.DiagramOptions{}); !errors.Is(err, vault.ErrLedgerNotFound) {
		t.Fatalf("expected ErrLedgerNotFound, got %v", err)
	}

	l, err := svc.Ledger(ctx, logged.Ledger.ID)
	if err != nil {
		t.Fatalf("Ledger: %v", err)
	}
	if got := strings.Join(l.SAN(), " "); got != "e4 e5 Qh5 Nc6 Bc4 Nf6 Qxf7#" {
		t.Fatalf("reloaded ledger SAN = %q", got)
	}
	if l.Final() != logged.Ledger.Final() {
		t.Fatal("reloaded ledger ends in a different position")
	}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	store := memory.New()
	if _, err := vault.NewService(nil, store, diagram.NewRenderer(), vault.Config{}, nil); err == nil {
		t.Fatal("expected error without repository")
	}
	if _, err := vault.NewService(store, nil, diagram.NewRenderer(), vault.Config{}, nil); err == nil {
		t.Fatal("expected error without ledger store")
	}
	if _, err := vault.NewService(store, store, nil, vault.Config{}, nil); err == nil {
		t.Fatal("expected error without renderer")
	}
}
