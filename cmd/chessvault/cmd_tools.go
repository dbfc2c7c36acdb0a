package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/park285/chess-vault/internal/chess"
	"github.com/park285/chess-vault/internal/rating"
	"github.com/park285/chess-vault/internal/replay"
	"github.com/park285/chess-vault/internal/service/vault"
)

func newReplayCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "replay [pgn-file]",
		Short: "Validate a game and print every position it passes through",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			text, err := a.readInput(path)
			if err != nil {
				return err
			}
			tr, err := replay.ParseTranscript(text)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			l, err := replay.NewBuilder().BuildTranscript(tr)
			if err != nil {
				var rerr *replay.Error
				if asJSON && errors.As(err, &rerr) {
					_ = enc.Encode(rerr.Report())
				}
				return err
			}
			if asJSON {
				return enc.Encode(l.Study())
			}
			fmt.Fprintf(out, "start  %s\n", l.RootFEN())
			for _, e := range l.Entries {
				fmt.Fprintf(out, "%-12s %s\n", moveNumber(e)+e.Move.SAN, e.After.FEN())
			}
			fmt.Fprintln(out, l.Movetext(tr.Result))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the chess-study document instead")
	return cmd
}

func moveNumber(e replay.Entry) string {
	n := strconv.Itoa(e.Before.FullMoveNumber())
	if e.Move.Color == chess.White {
		return n + ". "
	}
	return n + "... "
}

func newRatingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rating",
		Short: "Elo calculations",
	}

	var (
		opponents string
		score     float64
	)
	perf := &cobra.Command{
		Use:   "perf",
		Short: "Performance rating from opponent ratings and total score",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ratings, err := parseRatings(opponents)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), rating.PerformanceRating(ratings, score))
			return nil
		},
	}
	perf.Flags().StringVar(&opponents, "opponents", "", "comma separated opponent ratings")
	perf.Flags().Float64Var(&score, "score", 0, "total score")

	var (
		own, opp int
		result   string
		k        float64
	)
	delta := &cobra.Command{
		Use:   "delta",
		Short: "Rating change for one game",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			actual, err := parseScore(result)
			if err != nil {
				return err
			}
			d := rating.RatingDelta(own, opp, actual, k)
			fmt.Fprintf(cmd.OutOrStdout(), "expected %.3f, change %+.2f\n", rating.ExpectedScore(own, opp), d)
			return nil
		},
	}
	delta.Flags().IntVar(&own, "rating", 0, "your rating")
	delta.Flags().IntVar(&opp, "opponent", 0, "opponent rating")
	delta.Flags().StringVar(&result, "result", "1", "your score: 1, 0.5 or 0")
	delta.Flags().Float64Var(&k, "k", rating.DefaultKFactor, "development coefficient")

	cmd.AddCommand(perf, delta)
	return cmd
}

// parseScore accepts a single-game score. Any other number would skew the
// rating change without a visible error.
func parseScore(s string) (float64, error) {
	switch strings.TrimSpace(s) {
	case "1", "1.0":
		return 1, nil
	case "0.5", ".5", "1/2", "½":
		return 0.5, nil
	case "0", "0.0":
		return 0, nil
	default:
		return 0, fmt.Errorf("result must be 1, 0.5 or 0, got %q", s)
	}
}

func parseRatings(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("bad rating %q: %w", part, err)
		}
		out = append(out, n)
	}
	return out, nil
}

func newFIDECmd(a *app) *cobra.Command {
	var dump bool
	cmd := &cobra.Command{
		Use:   "fide [id]",
		Short: "Look up a FIDE profile (default: your own)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := a.dependencies()
			if err != nil {
				return err
			}
			id := a.cfg.FIDEID
			if len(args) == 1 {
				id = args[0]
			}
			out := cmd.OutOrStdout()
			if dump {
				raw, err := deps.FIDE.Raw(cmd.Context(), id)
				if err != nil {
					return err
				}
				if deps.Notes == nil {
					_, err = out.Write(append(raw, '\n'))
					return err
				}
				path, err := deps.Notes.WriteRaw("FIDE_Data_"+id+".md", raw)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Created %s\n", path)
				return nil
			}
			p, err := deps.FIDE.Player(cmd.Context(), id)
			if err != nil {
				return err
			}
			name := p.Name
			if p.Title != "" {
				name = p.Title + " " + name
			}
			fmt.Fprintf(out, "%s (%s) %s\n  classical %d, rapid %d, blitz %d\n",
				name, p.FIDEID, p.Federation, p.ClassicalRating, p.RapidRating, p.BlitzRating)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dump, "dump", false, "save the raw profile as FIDE_Data_<id>.md in the vault")
	return cmd
}

func newDiagramCmd(a *app) *cobra.Command {
	var (
		opts   vault.DiagramOptions
		fen    string
		output string
	)
	cmd := &cobra.Command{
		Use:   "diagram [study-id]",
		Short: "Render a stored game position, or a FEN, as PNG",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (fen == "") == (len(args) == 0) {
				return fmt.Errorf("give either a study id or --fen")
			}
			svc, err := a.service()
			if err != nil {
				return err
			}
			var png []byte
			if fen != "" {
				pos, perr := chess.ParseFEN(fen)
				if perr != nil {
					return perr
				}
				png, err = svc.RenderPosition(cmd.Context(), pos, opts.Flip)
			} else {
				png, err = svc.Diagram(cmd.Context(), args[0], opts)
			}
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(png)
				return err
			}
			if err := os.WriteFile(output, png, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%d bytes)\n", output, len(png))
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVar(&opts.Ply, "ply", 0, "number of moves played, 0 for the start position")
	f.BoolVar(&opts.Flip, "flip", false, "draw from Black's side")
	f.StringVar(&fen, "fen", "", "render this position instead of a stored game")
	f.StringVarP(&output, "output", "o", "board.png", "output file, - for stdout")
	return cmd
}
