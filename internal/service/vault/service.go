// Package vault is the application layer of the chess vault: it logs games
// into tournaments, replays their transcripts and closes tournaments with a
// rating summary.
package vault

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/park285/chess-vault/internal/chess"
	"github.com/park285/chess-vault/internal/diagram"
	"github.com/park285/chess-vault/internal/domain"
	"github.com/park285/chess-vault/internal/metrics"
	"github.com/park285/chess-vault/internal/opening"
	"github.com/park285/chess-vault/internal/rating"
	"github.com/park285/chess-vault/internal/replay"
	"github.com/park285/chess-vault/internal/tournament"
)

const unknownOpponent = "Unknown Opponent"

type Config struct {
	KFactor float64
	// FIDEID is the vault owner's id; it seeds tournament start ratings.
	FIDEID          string
	LichessUsername string
	Now             func() time.Time
}

type Service struct {
	repo     Repository
	ledgers  LedgerStore
	players  PlayerLookup
	online   GameSource
	renderer DiagramRenderer
	builder  *replay.Builder
	metrics  *metrics.Metrics
	validate *validator.Validate
	cfg      Config
	logger   *zap.Logger
}

type Option func(*Service)

// WithPlayerLookup enables FIDE lookups; without it opponents stay unknown
// and start ratings default to 0.
func WithPlayerLookup(p PlayerLookup) Option {
	return func(s *Service) { s.players = p }
}

func WithGameSource(src GameSource) Option {
	return func(s *Service) { s.online = src }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithBuilder(b *replay.Builder) Option {
	return func(s *Service) {
		if b != nil {
			s.builder = b
		}
	}
}

func NewService(repo Repository, ledgers LedgerStore, renderer DiagramRenderer, cfg Config, logger *zap.Logger, opts ...Option) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("vault repository is required")
	}
	if ledgers == nil {
		return nil, fmt.Errorf("ledger store is required")
	}
	if renderer == nil {
		return nil, fmt.Errorf("diagram renderer is required")
	}
	if cfg.KFactor <= 0 {
		cfg.KFactor = rating.DefaultKFactor
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		repo:     repo,
		ledgers:  ledgers,
		renderer: renderer,
		builder:  replay.NewBuilder(),
		validate: validator.New(),
		cfg:      cfg,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

type TournamentInput struct {
	Name               string `validate:"required,excludesall=/[]#^"`
	DateStart          string `validate:"omitempty,datetime=2006-01-02"`
	Location           string
	TimeControl        string
	TimeControlDetails string
	TotalRounds        int    `validate:"gte=0"`
	Link               string `validate:"omitempty,url"`
	// StartRating overrides the FIDE lookup when set.
	StartRating *int `validate:"omitempty,gte=0"`
}

func (s *Service) CreateTournament(ctx context.Context, in TournamentInput) (*domain.Tournament, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	existing, err := s.repo.GetTournament(ctx, in.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrTournamentExists, in.Name)
	}

	start := 0
	if in.StartRating != nil {
		start = *in.StartRating
	} else if p := s.lookupPlayer(ctx, s.cfg.FIDEID); p != nil {
		start = p.ClassicalRating
	}

	now := s.cfg.Now()
	t := &domain.Tournament{
		Name:               in.Name,
		Status:             domain.TournamentPending,
		DateStart:          in.DateStart,
		Location:           in.Location,
		TimeControl:        in.TimeControl,
		TimeControlDetails: in.TimeControlDetails,
		TotalRounds:        in.TotalRounds,
		Link:               in.Link,
		StartRating:        start,
		EndRating:          start,
		Score:              "0/0",
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.repo.CreateTournament(ctx, t); err != nil {
		return nil, err
	}
	s.logger.Info("tournament created",
		zap.String("tournament", t.Name),
		zap.Int("start_rating", start),
	)
	return t, nil
}

// StartTournament moves a pending tournament to active.
func (s *Service) StartTournament(ctx context.Context, name string) (*domain.Tournament, error) {
	t, err := s.tournament(ctx, name)
	if err != nil {
		return nil, err
	}
	if t.Status != domain.TournamentPending {
		return nil, fmt.Errorf("%w: %s is %s", ErrTournamentStatus, t.Name, t.Status)
	}
	t.Status = domain.TournamentActive
	t.UpdatedAt = s.cfg.Now()
	if err := s.repo.UpdateTournament(ctx, t); err != nil {
		return nil, err
	}
	s.logger.Info("tournament started", zap.String("tournament", t.Name))
	return t, nil
}

func (s *Service) Tournaments(ctx context.Context) ([]*domain.Tournament, error) {
	return s.repo.ListTournaments(ctx)
}

func (s *Service) tournament(ctx context.Context, name string) (*domain.Tournament, error) {
	name = strings.TrimSpace(name)
	t, err := s.repo.GetTournament(ctx, name)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("%w: %s", ErrTournamentNotFound, name)
	}
	return t, nil
}

type GameInput struct {
	Tournament     string `validate:"required"`
	Round          int    `validate:"gte=0"`
	Color          chess.Color
	OpponentFIDEID string `validate:"omitempty,numeric"`
	PGN            string `validate:"required"`
}

type LoggedGame struct {
	Record *domain.GameRecord
	Ledger *replay.Ledger
}

// LogGame replays the transcript, stores its ledger and records the game.
// A transcript that fails to replay is rejected with ErrInvalidTranscript
// wrapping the *replay.Error that names the offending move.
func (s *Service) LogGame(ctx context.Context, in GameInput) (*LoggedGame, error) {
	in.Tournament = strings.TrimSpace(in.Tournament)
	in.OpponentFIDEID = strings.TrimSpace(in.OpponentFIDEID)
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	t, err := s.repo.GetTournament(ctx, in.Tournament)
	if err != nil {
		return nil, err
	}
	switch {
	case t == nil:
		s.logger.Warn("game logged for unknown tournament", zap.String("tournament", in.Tournament))
	case t.Status == domain.TournamentCompleted:
		return nil, fmt.Errorf("%w: %s is completed", ErrTournamentStatus, t.Name)
	}

	tr, ledger, err := s.replayTranscript(in.PGN)
	if err != nil {
		return nil, err
	}

	result := firstNonEmpty(tr.Tag("Result"), tr.Result, "*")
	opponent, opponentRating := s.opponent(ctx, in, tr)
	rec := &domain.GameRecord{
		ID:             ledger.ID,
		Tournament:     domain.TournamentLink(in.Tournament),
		Round:          in.Round,
		Result:         result,
		MyColor:        in.Color.String(),
		MyResult:       rating.ParseResult(result).Outcome(in.Color).String(),
		Opponent:       opponent,
		OpponentRating: opponentRating,
		OpponentFIDEID: in.OpponentFIDEID,
		Date:           normalizeDate(tr.Tag("Date"), s.cfg.Now()),
		Opening:        tr.Tag("Opening"),
		ECO:            tr.Tag("ECO"),
		LedgerID:       ledger.ID,
		PGN:            in.PGN,
		CreatedAt:      s.cfg.Now(),
	}
	if rec.ECO == "" {
		label, err := opening.Classify(ledger.Root, ledger.SAN())
		if err != nil {
			s.logger.Debug("opening classification failed", zap.Error(err))
		} else if !label.Empty() {
			rec.ECO = label.Code
			if rec.Opening == "" {
				rec.Opening = label.Title
			}
		}
	}

	if err := s.ledgers.SaveLedger(ctx, ledger.ID, ledger.Study()); err != nil {
		return nil, fmt.Errorf("save ledger %s: %w", ledger.ID, err)
	}
	if err := s.repo.InsertGame(ctx, rec); err != nil {
		// the ledger is only reachable through its record
		if derr := s.ledgers.DeleteLedger(ctx, ledger.ID); derr != nil {
			s.logger.Warn("orphaned ledger left behind",
				zap.String("ledger_id", ledger.ID), zap.Error(derr))
		}
		return nil, err
	}

	s.metrics.GameLogged(rec.MyResult)
	s.logger.Info("game logged",
		zap.String("tournament", in.Tournament),
		zap.Int("round", rec.Round),
		zap.String("result", rec.Result),
		zap.String("my_result", rec.MyResult),
		zap.String("opponent", rec.Opponent),
		zap.Int("plies", ledger.Len()),
		zap.String("ledger_id", ledger.ID),
	)
	return &LoggedGame{Record: rec, Ledger: ledger}, nil
}

type OnlineGameInput struct {
	URL        string `validate:"required"`
	Tournament string `validate:"required"`
	Round      int    `validate:"gte=0"`
}

// ImportOnline fetches a game by URL and logs it. The vault owner's color is
// taken from the White/Black tag that names the configured Lichess account.
func (s *Service) ImportOnline(ctx context.Context, in OnlineGameInput) (*LoggedGame, error) {
	if s.online == nil {
		return nil, fmt.Errorf("online game source not configured")
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	pgn, err := s.online.FetchPGN(ctx, in.URL)
	if err != nil {
		return nil, err
	}
	tr, err := replay.ParseTranscript(pgn)
	if err != nil {
		s.metrics.ReplayFailed("format")
		return nil, fmt.Errorf("%w: %w", ErrInvalidTranscript, err)
	}
	color, ok := colorOf(tr, s.cfg.LichessUsername)
	if !ok {
		return nil, fmt.Errorf("%w: %q played neither side of %s", ErrInvalidInput, s.cfg.LichessUsername, in.URL)
	}
	return s.LogGame(ctx, GameInput{
		Tournament: in.Tournament,
		Round:      in.Round,
		Color:      color,
		PGN:        pgn,
	})
}

func colorOf(tr *replay.Transcript, username string) (chess.Color, bool) {
	username = strings.TrimSpace(username)
	if username == "" {
		return chess.White, false
	}
	switch {
	case strings.EqualFold(tr.Tag("White"), username):
		return chess.White, true
	case strings.EqualFold(tr.Tag("Black"), username):
		return chess.Black, true
	default:
		return chess.White, false
	}
}

func (s *Service) replayTranscript(pgn string) (*replay.Transcript, *replay.Ledger, error) {
	tr, err := replay.ParseTranscript(pgn)
	if err != nil {
		s.metrics.ReplayFailed("format")
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidTranscript, err)
	}
	ledger, err := s.builder.BuildTranscript(tr)
	if err != nil {
		kind := "format"
		var re *replay.Error
		if errors.As(err, &re) {
			kind = re.Kind()
			s.logger.Warn("transcript replay failed",
				zap.Int("index", re.Index),
				zap.String("token", re.Token),
				zap.String("kind", kind),
			)
		}
		s.metrics.ReplayFailed(kind)
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidTranscript, err)
	}
	s.metrics.Replayed(ledger.Len())
	return tr, ledger, nil
}

// opponent resolves the opponent by FIDE id, falling back to the name and
// Elo tags of the side the owner did not play.
func (s *Service) opponent(ctx context.Context, in GameInput, tr *replay.Transcript) (string, int) {
	if in.OpponentFIDEID != "" {
		if p := s.lookupPlayer(ctx, in.OpponentFIDEID); p != nil {
			return p.Name, p.ClassicalRating
		}
		return unknownOpponent, 0
	}
	nameTag, eloTag := "Black", "BlackElo"
	if in.Color == chess.Black {
		nameTag, eloTag = "White", "WhiteElo"
	}
	name := strings.TrimSpace(tr.Tag(nameTag))
	if name == "" || name == "?" {
		return unknownOpponent, 0
	}
	elo, _ := strconv.Atoi(strings.TrimSpace(tr.Tag(eloTag)))
	if elo < 0 {
		elo = 0
	}
	return name, elo
}

func (s *Service) lookupPlayer(ctx context.Context, fideID string) *domain.Player {
	if s.players == nil || strings.TrimSpace(fideID) == "" {
		return nil
	}
	p, err := s.players.Player(ctx, fideID)
	if err != nil {
		s.metrics.PlayerLookup("error")
		s.logger.Warn("fide lookup failed", zap.String("fide_id", fideID), zap.Error(err))
		return nil
	}
	s.metrics.PlayerLookup("ok")
	return p
}

// EndTournament aggregates every stored game of the tournament. With no
// games it returns the empty summary and leaves the tournament untouched.
func (s *Service) EndTournament(ctx context.Context, name string) (*tournament.Summary, error) {
	t, err := s.tournament(ctx, name)
	if err != nil {
		return nil, err
	}
	if t.Status == domain.TournamentCompleted {
		return nil, fmt.Errorf("%w: %s is already completed", ErrTournamentStatus, t.Name)
	}
	games, err := s.repo.ListGames(ctx)
	if err != nil {
		return nil, err
	}
	summary := tournament.Aggregate(t.Name, t.StartRating, outcomeRecords(games), s.cfg.KFactor)
	s.metrics.Aggregated(summary.Empty(), summary.RatingChange())
	if summary.Empty() {
		s.logger.Info("no games found for tournament", zap.String("tournament", t.Name))
		return &summary, nil
	}

	t.Status = domain.TournamentCompleted
	t.EndRating = summary.EndRating
	t.PerformanceRating = summary.PerformanceRating
	t.Score = summary.ScoreString()
	t.RatingChange = summary.RatingChange()
	t.UpdatedAt = s.cfg.Now()
	if err := s.repo.UpdateTournament(ctx, t); err != nil {
		return nil, err
	}
	s.logger.Info("tournament completed",
		zap.String("tournament", t.Name),
		zap.String("score", t.Score),
		zap.Float64("rating_change", t.RatingChange),
		zap.Int("performance_rating", t.PerformanceRating),
		zap.Int("end_rating", t.EndRating),
	)
	return &summary, nil
}

// outcomeRecords adapts stored games for the aggregator. A game whose color
// cannot be read scores as an unknown result.
func outcomeRecords(games []*domain.GameRecord) []tournament.Record {
	out := make([]tournament.Record, 0, len(games))
	for _, g := range games {
		if g == nil {
			continue
		}
		rec := tournament.Record{
			Tournament:     g.Tournament,
			Result:         g.Result,
			OpponentRating: g.OpponentRating,
		}
		color, err := chess.ParseColor(g.MyColor)
		if err != nil {
			rec.Result = "*"
		}
		rec.Color = color
		out = append(out, rec)
	}
	return out
}

// Ledger loads a stored game and replays it.
func (s *Service) Ledger(ctx context.Context, id string) (*replay.Ledger, error) {
	study, err := s.ledgers.LoadLedger(ctx, id)
	if err != nil {
		return nil, err
	}
	if study == nil {
		return nil, fmt.Errorf("%w: %s", ErrLedgerNotFound, id)
	}
	l, err := replay.FromStudy(id, *study)
	if err != nil {
		return nil, fmt.Errorf("rebuild ledger %s: %w", id, err)
	}
	return l, nil
}

type DiagramOptions struct {
	Ply  int
	Flip bool
}

// Diagram renders the position after opts.Ply moves of a stored game, with
// the move that produced it highlighted and its study shapes drawn.
func (s *Service) Diagram(ctx context.Context, ledgerID string, opts DiagramOptions) ([]byte, error) {
	l, err := s.Ledger(ctx, ledgerID)
	if err != nil {
		return nil, err
	}
	pos, ok := l.PositionAt(opts.Ply)
	if !ok {
		return nil, fmt.Errorf("%w: %d of %d", ErrPlyOutOfRange, opts.Ply, l.Len())
	}
	dopts := diagram.Options{Flip: opts.Flip, Title: "Start"}
	if opts.Ply > 0 {
		e := l.Entries[opts.Ply-1]
		dopts.Highlight = &diagram.Highlight{From: e.Move.From, To: e.Move.To}
		dopts.Title = moveLabel(e)
		for _, sh := range e.Annotations.Shapes {
			orig, err1 := chess.ParseSquare(sh.Orig)
			dest, err2 := chess.ParseSquare(sh.Dest)
			if err1 != nil || err2 != nil {
				continue
			}
			dopts.Shapes = append(dopts.Shapes, diagram.Shape{Orig: orig, Dest: dest, Brush: sh.Brush})
		}
	}
	return s.renderer.RenderPNG(ctx, pos, dopts)
}

// RenderPosition draws an arbitrary position.
func (s *Service) RenderPosition(ctx context.Context, pos chess.Position, flip bool) ([]byte, error) {
	return s.renderer.RenderPNG(ctx, pos, diagram.Options{Flip: flip})
}

func moveLabel(e replay.Entry) string {
	n := strconv.Itoa(e.Before.FullMoveNumber())
	if e.Move.Color == chess.White {
		return n + ". " + e.Move.SAN
	}
	return n + "... " + e.Move.SAN
}

// normalizeDate turns a PGN date ("2024.03.09") into "2024-03-09". Missing,
// partial ("2024.??.??") or short dates fall back to today.
func normalizeDate(tag string, now time.Time) string {
	tag = strings.TrimSpace(tag)
	if tag == "" || strings.Contains(tag, "?") || len(tag) < 10 {
		return now.Format("2006-01-02")
	}
	return strings.ReplaceAll(tag, ".", "-")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
