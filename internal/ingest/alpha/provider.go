// Package alpha imports Alpha Progression CSV exports as FitForge workouts.
package alpha

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/claude/fitforge/internal/exercise"
	"github.com/claude/fitforge/internal/ingest"
	"github.com/claude/fitforge/internal/models"
	"github.com/claude/fitforge/internal/training"
)

// WorkoutLogger is the part of training.Service the importer needs.
type WorkoutLogger interface {
	Complete(ctx context.Context, userID int, req training.CompleteRequest) (*training.Completion, error)
	Workouts(ctx context.Context, userID int, start, end time.Time) ([]models.Workout, error)
}

var _ WorkoutLogger = (*training.Service)(nil)

// Provider turns export sessions into completed workouts.
type Provider struct {
	svc WorkoutLogger
	lib *exercise.Library
	log *slog.Logger
}

// NewProvider creates a new Alpha Progression import provider.
func NewProvider(svc WorkoutLogger, lib *exercise.Library, log *slog.Logger) *Provider {
	return &Provider{svc: svc, lib: lib, log: log}
}

// Ingest parses an export and completes one workout per session, oldest
// first. Sessions already logged at the same minute are skipped, so
// re-importing the same export is a no-op.
func (p *Provider) Ingest(ctx context.Context, r io.Reader, userID int) (*ingest.Result, error) {
	sessions, err := Parse(r)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(sessions, func(i, j int) bool { return sessions[i].Date.Before(sessions[j].Date) })

	result := &ingest.Result{SessionsReceived: len(sessions)}
	resolved := map[string]string{}
	unmatched := map[string]bool{}

	for _, s := range sessions {
		existing, err := p.svc.Workouts(ctx, userID, s.Date, s.Date.Add(time.Minute))
		if err != nil {
			return nil, fmt.Errorf("checking session %s: %w", s.Date.Format(time.DateTime), err)
		}
		if len(existing) > 0 {
			result.WorkoutsSkipped++
			continue
		}

		req := training.CompleteRequest{Date: s.Date, DurationSec: int(s.Duration.Seconds())}
		req.Category, req.Variation, _ = strings.Cut(s.Name, " · ")
		for _, ex := range s.Exercises {
			id, ok := resolved[ex.Name]
			if !ok {
				id = p.resolve(ex)
				resolved[ex.Name] = id
			}
			for _, set := range ex.Sets {
				if set.Warmup {
					result.WarmupsSkipped++
					continue
				}
				if id == "" {
					continue
				}
				req.Sets = append(req.Sets, models.WorkoutSet{
					ExerciseID: id,
					SetNumber:  set.Number,
					Reps:       set.Reps,
					Weight:     set.Weight,
					ToFailure:  set.ToFailure(),
				})
			}
			if id == "" {
				unmatched[ex.Name] = true
			}
		}
		if len(req.Sets) == 0 {
			result.WorkoutsSkipped++
			continue
		}

		if _, err := p.svc.Complete(ctx, userID, req); err != nil {
			return nil, fmt.Errorf("importing session %s: %w", s.Date.Format(time.DateTime), err)
		}
		result.WorkoutsImported++
		result.SetsImported += len(req.Sets)
	}

	for name := range unmatched {
		result.Unmatched = append(result.Unmatched, name)
	}
	sort.Strings(result.Unmatched)

	p.log.Info("alpha import finished",
		"user_id", userID,
		"sessions", result.SessionsReceived,
		"imported", result.WorkoutsImported,
		"skipped", result.WorkoutsSkipped,
		"unmatched", len(result.Unmatched),
	)
	return result, nil
}

// resolve maps an export exercise to a library id, trying the
// equipment-qualified name first ("Bench Press" + "Barbell").
func (p *Provider) resolve(ex Exercise) string {
	if ex.Equipment != "" {
		if m, ok := p.lib.Match(ex.Equipment + " " + ex.Name); ok {
			return m.Exercise.ID
		}
	}
	if m, ok := p.lib.Match(ex.Name); ok {
		return m.Exercise.ID
	}
	return ""
}
