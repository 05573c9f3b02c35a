package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/claude/fitforge/internal/exercise"
	"github.com/claude/fitforge/internal/models"
	"github.com/claude/fitforge/internal/muscle"
	"github.com/claude/fitforge/internal/training"
)

func newLogCommand(ctx *commandContext) *cobra.Command {
	var category, variation, date string
	var duration time.Duration

	cmd := &cobra.Command{
		Use:     "log <exercise:SETSxREPS[@WEIGHT][!]>...",
		Short:   "Log a completed workout",
		Example: "  fitforge-cli log --category Legs goblet-squat:3x10@20! \"plank:2x1\"",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := training.CompleteRequest{Category: category, Variation: variation, DurationSec: int(duration.Seconds())}
			if date != "" {
				t, err := time.Parse(time.RFC3339, date)
				if err != nil {
					return fmt.Errorf("invalid --date: %w", err)
				}
				req.Date = t
			}
			for _, arg := range args {
				pl, err := parsePlanLine(arg)
				if err != nil {
					return err
				}
				for i := 0; i < pl.Sets; i++ {
					req.Sets = append(req.Sets, models.WorkoutSet{
						ExerciseID: pl.ExerciseID,
						Reps:       pl.Reps,
						Weight:     pl.Weight,
						ToFailure:  pl.ToFailure && i == pl.Sets-1,
					})
				}
			}

			done, err := ctx.client().Complete(cmd.Context(), 0, req)
			if err != nil {
				return err
			}
			if ctx.jsonOut {
				return writeJSON(cmd, done)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Logged workout %s: %d sets, %d reps, %s volume\n",
				done.WorkoutID, done.Summary.TotalSets, done.Summary.TotalReps, num(done.Summary.TotalVolume))
			var rows [][]string
			for _, m := range done.Summary.MusclesWorked {
				rows = append(rows, []string{m.String(), pct(done.Fatigue[m])})
			}
			printTable(cmd, []string{"Muscle", "Fatigue"}, rows, []columnAlignment{alignLeft, alignRight})
			for _, s := range done.BaselineSuggestions {
				fmt.Fprintf(out, "suggestion: raise %s baseline %s -> %s (accept with: fitforge-cli baselines accept %s %s)\n",
					s.Muscle, num(s.CurrentBaseline), num(s.SuggestedBaseline), s.Muscle, num(s.SuggestedBaseline))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "Workout category (e.g. Push, Legs)")
	cmd.Flags().StringVar(&variation, "variation", "", "Workout variation (e.g. A, B)")
	cmd.Flags().StringVar(&date, "date", "", "Workout time (RFC 3339); defaults to now")
	cmd.Flags().DurationVar(&duration, "duration", 0, "Workout duration (e.g. 45m)")
	return cmd
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent workouts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			end := time.Now()
			workouts, err := ctx.client().Workouts(cmd.Context(), 0, end.AddDate(0, 0, -days), end)
			if err != nil {
				return err
			}
			if ctx.jsonOut {
				return writeJSON(cmd, workouts)
			}
			rows := make([][]string, 0, len(workouts))
			for _, w := range workouts {
				var volume float64
				for _, s := range w.Sets {
					volume += float64(s.Reps) * s.Weight
				}
				rows = append(rows, []string{when(&w.Date), orDash(w.Category), strings.Join(w.ExerciseIDs(), ", "), fmt.Sprint(len(w.Sets)), num(volume)})
			}
			printTable(cmd, []string{"Date", "Category", "Exercises", "Sets", "Volume"}, rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight})
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 30, "How many days back to list")
	return cmd
}

func newSummaryCommand(ctx *commandContext) *cobra.Command {
	var bucket string
	var periods int

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show weekly or monthly training volume",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			end := time.Now()
			start := end.AddDate(0, 0, -7*periods)
			if bucket == "month" {
				start = end.AddDate(0, -periods, 0)
			}
			summary, err := ctx.client().TrainingSummary(cmd.Context(), 0, start, end, bucket)
			if err != nil {
				return err
			}
			if ctx.jsonOut {
				return writeJSON(cmd, summary)
			}
			rows := make([][]string, 0, len(summary))
			for _, p := range summary {
				cats := make([]string, len(p.Workouts))
				for i, c := range p.Workouts {
					cats[i] = fmt.Sprintf("%s x%d", orDash(c.Category), c.Count)
				}
				rows = append(rows, []string{p.Period, fmt.Sprint(p.Sessions), strings.Join(cats, ", "),
					fmt.Sprint(p.WorkingSets), fmt.Sprint(p.SetsToFailure), fmt.Sprint(p.TotalReps), num(p.Tonnage)})
			}
			printTable(cmd, []string{"Period", "Sessions", "Categories", "Sets", "To failure", "Reps", "Tonnage"}, rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft, alignRight, alignRight, alignRight, alignRight})
			return nil
		},
	}
	cmd.Flags().StringVar(&bucket, "bucket", "week", "week or month")
	cmd.Flags().IntVar(&periods, "periods", 12, "How many buckets back to cover")
	return cmd
}

func newBaselinesCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "baselines",
		Short: "Show or adjust per-muscle baseline capacity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			baselines, err := ctx.client().Baselines(cmd.Context(), 0)
			if err != nil {
				return err
			}
			if ctx.jsonOut {
				return writeJSON(cmd, baselines)
			}
			rows := make([][]string, 0, len(baselines))
			for _, b := range baselines {
				override := "-"
				if b.UserOverride != nil {
					override = num(*b.UserOverride)
				}
				effective := "unusable"
				if v, ok := b.Effective(); ok {
					effective = num(v)
				}
				rows = append(rows, []string{b.Muscle.String(), num(b.SystemLearnedMax), override, effective})
			}
			printTable(cmd, []string{"Muscle", "Learned", "Override", "Effective"}, rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight})
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "accept <muscle> <value>",
		Short: "Accept a baseline suggestion",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := muscle.Parse(args[0])
			if err != nil {
				return err
			}
			v, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid value %q", args[1])
			}
			b, err := ctx.client().AcceptSuggestion(cmd.Context(), 0, m, v)
			if err != nil {
				return err
			}
			return printBaseline(cmd, ctx, b)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "override <muscle> <value|clear>",
		Short: "Set or clear a manual baseline override",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := muscle.Parse(args[0])
			if err != nil {
				return err
			}
			var value *float64
			if args[1] != "clear" {
				v, err := strconv.ParseFloat(args[1], 64)
				if err != nil {
					return fmt.Errorf("invalid value %q", args[1])
				}
				value = &v
			}
			b, err := ctx.client().SetBaselineOverride(cmd.Context(), 0, m, value)
			if err != nil {
				return err
			}
			return printBaseline(cmd, ctx, b)
		},
	})
	return cmd
}

func printBaseline(cmd *cobra.Command, ctx *commandContext, b *models.MuscleBaseline) error {
	if ctx.jsonOut {
		return writeJSON(cmd, b)
	}
	v, ok := b.Effective()
	if !ok {
		fmt.Fprintf(cmd.OutOrStdout(), "%s baseline is unusable\n", b.Muscle)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s baseline is now %s\n", b.Muscle, num(v))
	return nil
}

func newExercisesCommand(ctx *commandContext) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "exercises",
		Short: "List the exercise library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			exercises, err := ctx.client().Exercises(cmd.Context(), 0, exercise.Category(category))
			if err != nil {
				return err
			}
			if ctx.jsonOut {
				return writeJSON(cmd, exercises)
			}
			rows := make([][]string, 0, len(exercises))
			for _, ex := range exercises {
				rows = append(rows, []string{ex.ID, ex.Name, string(ex.Category), equipmentList(ex.Equipment), engagementList(ex.Engagements)})
			}
			printTable(cmd, []string{"ID", "Name", "Category", "Equipment", "Engagement"}, rows, nil)
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "Push, Pull, Legs or Core")
	return cmd
}

func newCalibrateCommand(ctx *commandContext) *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:     "calibrate <exercise> [Muscle=PERCENT]...",
		Short:   "Override how much an exercise engages each muscle",
		Example: "  fitforge-cli calibrate push-up Pectoralis=80 Triceps=40\n  fitforge-cli calibrate push-up --reset",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveExercise(args[0])
			if err != nil {
				return err
			}
			var view *training.ExerciseView
			if reset {
				view, err = ctx.client().ResetCalibration(cmd.Context(), 0, id)
			} else {
				pcts, perr := parseEngagements(args[1:])
				if perr != nil {
					return perr
				}
				view, err = ctx.client().SetCalibration(cmd.Context(), 0, id, pcts)
			}
			if err != nil {
				return err
			}
			if ctx.jsonOut {
				return writeJSON(cmd, view)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", view.Name, engagementList(view.Engagements))
			return nil
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "Drop all overrides for the exercise")
	return cmd
}

func parseEngagements(args []string) (map[muscle.Muscle]float64, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("give at least one Muscle=PERCENT or --reset")
	}
	out := make(map[muscle.Muscle]float64, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("%q: want Muscle=PERCENT", arg)
		}
		m, err := muscle.Parse(name)
		if err != nil {
			return nil, err
		}
		v, err := strconv.ParseFloat(strings.TrimSuffix(value, "%"), 64)
		if err != nil {
			return nil, fmt.Errorf("%q: invalid percentage", arg)
		}
		out[m] = v
	}
	return out, nil
}

func equipmentList(eq []exercise.Equipment) string {
	names := make([]string, len(eq))
	for i, e := range eq {
		names[i] = string(e)
	}
	return strings.Join(names, ", ")
}

func engagementList(engs []training.EngagementView) string {
	parts := make([]string, len(engs))
	for i, e := range engs {
		mark := ""
		if e.IsCalibrated {
			mark = "*"
		}
		parts[i] = fmt.Sprintf("%s %s%s", e.Muscle, num(e.Percentage), mark)
	}
	return strings.Join(parts, ", ")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
