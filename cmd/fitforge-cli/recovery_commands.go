package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/claude/fitforge/internal/exercise"
	"github.com/claude/fitforge/internal/forecast"
	"github.com/claude/fitforge/internal/muscle"
	"github.com/claude/fitforge/internal/training"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show current fatigue of every muscle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			states, err := ctx.client().MuscleStates(cmd.Context(), 0)
			if err != nil {
				return err
			}
			if ctx.jsonOut {
				return writeJSON(cmd, states)
			}
			rows := make([][]string, 0, len(states))
			for _, m := range muscle.All() {
				st := states[m]
				rows = append(rows, []string{m.String(), pct(st.CurrentFatigue), num(st.VolumeToday), when(st.LastTrained), when(st.FullyRecoveredAt)})
			}
			printTable(cmd, []string{"Muscle", "Fatigue", "Volume today", "Last trained", "Recovered"}, rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft, alignLeft})
			return nil
		},
	}
}

func newTimelineCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "timeline",
		Short: "Show projected recovery over the next three days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			timeline, err := ctx.client().Timeline(cmd.Context(), 0)
			if err != nil {
				return err
			}
			if ctx.jsonOut {
				return writeJSON(cmd, timeline)
			}
			rows := make([][]string, 0, len(timeline))
			for _, p := range timeline {
				rows = append(rows, []string{p.Muscle.String(), pct(p.CurrentFatigue), pct(p.Projections.H24), pct(p.Projections.H48), pct(p.Projections.H72), when(p.FullyRecoveredAt)})
			}
			printTable(cmd, []string{"Muscle", "Now", "24h", "48h", "72h", "Recovered"}, rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft})
			return nil
		},
	}
}

func newRecommendCommand(ctx *commandContext) *cobra.Command {
	var equipment, exclude []string
	var anyEquipment bool
	var limit int

	cmd := &cobra.Command{
		Use:   "recommend <muscle>",
		Short: "Rank exercises for a target muscle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := muscle.Parse(args[0])
			if err != nil {
				return err
			}
			req := training.RecommendRequest{Target: target, IgnoreEquipment: anyEquipment}
			for _, name := range equipment {
				eq, err := exercise.ParseEquipment(name)
				if err != nil {
					return err
				}
				req.Equipment = append(req.Equipment, eq)
			}
			for _, name := range exclude {
				id, err := resolveExercise(name)
				if err != nil {
					return err
				}
				req.Exclude = append(req.Exclude, id)
			}

			res, err := ctx.client().Recommend(cmd.Context(), 0, req)
			if err != nil {
				return err
			}
			if ctx.jsonOut {
				return writeJSON(cmd, res)
			}

			var rows [][]string
			for i, r := range res.Safe {
				if limit > 0 && i >= limit {
					break
				}
				rows = append(rows, []string{fmt.Sprint(i + 1), r.Exercise.Name, fmt.Sprintf("%.2f", r.Score), "yes", joinOrDash(r.Notes)})
			}
			for _, r := range res.Unsafe {
				rows = append(rows, []string{"-", r.Exercise.Name, fmt.Sprintf("%.2f", r.Score), "no", joinOrDash(r.Warnings)})
			}
			printTable(cmd, []string{"#", "Exercise", "Score", "Safe", "Notes"}, rows,
				[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignLeft})
			fmt.Fprintf(cmd.OutOrStdout(), "%d exercises filtered out by target or equipment\n", res.TotalFiltered)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&equipment, "equipment", nil, "Available equipment (defaults to the server profile)")
	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "Exercises to leave out")
	cmd.Flags().BoolVar(&anyEquipment, "any-equipment", false, "Ignore equipment availability")
	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum safe results to show (0 for all)")
	return cmd
}

func newForecastCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "forecast <exercise:SETSxREPS[@WEIGHT]>...",
		Short: "Project the fatigue of a planned workout without saving it",
		Example: "  fitforge-cli forecast goblet-squat:3x10@20 \"push up:3x12\"",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			planned := make([]forecast.PlannedExercise, 0, len(args))
			for _, arg := range args {
				pl, err := parsePlanLine(arg)
				if err != nil {
					return err
				}
				pe := forecast.PlannedExercise{ExerciseID: pl.ExerciseID}
				for i := 0; i < pl.Sets; i++ {
					pe.Sets = append(pe.Sets, forecast.PlannedSet{Reps: pl.Reps, Weight: pl.Weight})
				}
				planned = append(planned, pe)
			}

			res, err := ctx.client().Forecast(cmd.Context(), 0, planned)
			if err != nil {
				return err
			}
			if ctx.jsonOut {
				return writeJSON(cmd, res)
			}

			var rows [][]string
			for _, m := range muscle.All() {
				if res.Added[m] == 0 {
					continue
				}
				rows = append(rows, []string{m.String(), pct(res.Forecast[m] - res.Added[m]), "+" + pct(res.Added[m]), pct(res.Forecast[m])})
			}
			printTable(cmd, []string{"Muscle", "Now", "Added", "Projected"}, rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight})
			out := cmd.OutOrStdout()
			for _, w := range res.Warnings {
				fmt.Fprintln(out, "warning:", w)
			}
			for _, b := range res.Bottlenecks {
				fmt.Fprintln(out, "bottleneck:", b.Message)
			}
			if len(res.Unavailable) > 0 {
				names := make([]string, len(res.Unavailable))
				for i, m := range res.Unavailable {
					names[i] = m.String()
				}
				fmt.Fprintln(out, "no usable baseline:", strings.Join(names, ", "))
			}
			return nil
		},
	}
}
