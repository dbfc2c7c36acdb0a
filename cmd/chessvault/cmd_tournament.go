package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/park285/chess-vault/internal/service/vault"
)

func newTournamentCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tournament",
		Aliases: []string{"t"},
		Short:   "Create tournaments and move them through pending, active and completed",
	}
	cmd.AddCommand(
		newTournamentCreateCmd(a),
		newTournamentTransitionCmd(a, "start"),
		newTournamentTransitionCmd(a, "end"),
		newTournamentListCmd(a),
	)
	return cmd
}

func newTournamentCreateCmd(a *app) *cobra.Command {
	var (
		in          vault.TournamentInput
		startRating int
	)
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a pending tournament note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Name = args[0]
			if cmd.Flags().Changed("start-rating") {
				in.StartRating = &startRating
			}
			svc, err := a.service()
			if err != nil {
				return err
			}
			t, err := svc.CreateTournament(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %q (%s), start rating %d\n", t.Name, t.Status, t.StartRating)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.DateStart, "date", "", "first day, YYYY-MM-DD")
	f.StringVar(&in.Location, "location", "", "venue")
	f.StringVar(&in.TimeControl, "time-control", "", "Classical, Rapid or Blitz")
	f.StringVar(&in.TimeControlDetails, "details", "", "time control details, e.g. 90+30")
	f.IntVar(&in.TotalRounds, "rounds", 0, "number of rounds")
	f.StringVar(&in.Link, "link", "", "tournament page URL")
	f.IntVar(&startRating, "start-rating", 0, "rating before the event (default: FIDE lookup)")
	return cmd
}

func newTournamentTransitionCmd(a *app, verb string) *cobra.Command {
	short := "Mark a pending tournament active"
	if verb == "end" {
		short = "Score a tournament from its games and mark it completed"
	}
	return &cobra.Command{
		Use:   verb + " <name>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if verb == "start" {
				t, err := svc.StartTournament(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Started %q\n", t.Name)
				return nil
			}
			sum, err := svc.EndTournament(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if sum.Empty() {
				fmt.Fprintf(out, "No games found for %q\n", args[0])
				return nil
			}
			fmt.Fprintf(out, "Ended %q: score %s, performance %d, rating %d -> %d (%+.2f)\n",
				args[0], sum.ScoreString(), sum.PerformanceRating, sum.StartRating, sum.EndRating, sum.RatingChange())
			return nil
		},
	}
}

func newTournamentListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tournaments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			items, err := svc.Tournaments(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSTATUS\tSTART\tSCORE\tRATING")
			for _, t := range items {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d -> %d\n", t.Name, t.Status, t.DateStart, t.Score, t.StartRating, t.EndRating)
			}
			return w.Flush()
		},
	}
}
