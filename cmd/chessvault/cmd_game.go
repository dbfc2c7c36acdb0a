package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/park285/chess-vault/internal/chess"
	"github.com/park285/chess-vault/internal/service/vault"
)

func newGameCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "game",
		Short: "Log tournament games",
	}
	cmd.AddCommand(newGameLogCmd(a), newGameImportCmd(a))
	return cmd
}

func newGameLogCmd(a *app) *cobra.Command {
	var (
		in       vault.GameInput
		color    string
		pgnInput string
	)
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Replay a PGN and record it as a tournament game",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := chess.ParseColor(color)
			if err != nil {
				return err
			}
			in.Color = c
			if in.PGN, err = a.readInput(pgnInput); err != nil {
				return err
			}
			svc, err := a.service()
			if err != nil {
				return err
			}
			logged, err := svc.LogGame(cmd.Context(), in)
			if err != nil {
				return err
			}
			printLogged(cmd, logged)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&in.Tournament, "tournament", "t", "", "tournament name")
	f.IntVarP(&in.Round, "round", "r", 1, "round number")
	f.StringVarP(&color, "color", "c", "white", "the color you played")
	f.StringVar(&in.OpponentFIDEID, "opponent-fide", "", "opponent FIDE id")
	f.StringVarP(&pgnInput, "pgn", "p", "-", "PGN file, - for stdin")
	_ = cmd.MarkFlagRequired("tournament")
	return cmd
}

func newGameImportCmd(a *app) *cobra.Command {
	var in vault.OnlineGameInput
	cmd := &cobra.Command{
		Use:   "import <lichess-url>",
		Short: "Download a Lichess game and record it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.URL = args[0]
			svc, err := a.service()
			if err != nil {
				return err
			}
			logged, err := svc.ImportOnline(cmd.Context(), in)
			if err != nil {
				return err
			}
			printLogged(cmd, logged)
			return nil
		},
	}
	cmd.Flags().StringVarP(&in.Tournament, "tournament", "t", "", "tournament name")
	cmd.Flags().IntVarP(&in.Round, "round", "r", 1, "round number")
	_ = cmd.MarkFlagRequired("tournament")
	return cmd
}

func printLogged(cmd *cobra.Command, g *vault.LoggedGame) {
	r := g.Record
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Logged %s\n", r.NoteName())
	fmt.Fprintf(out, "  %s vs %s (%d): %s %s\n", r.MyColor, r.Opponent, r.OpponentRating, r.Result, r.MyResult)
	if r.ECO != "" || r.Opening != "" {
		fmt.Fprintf(out, "  opening: %s %s\n", r.ECO, r.Opening)
	}
	fmt.Fprintf(out, "  plies: %d, study: %s\n", g.Ledger.Len(), r.LedgerID)
}
