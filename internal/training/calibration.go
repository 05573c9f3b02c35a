package training

import (
	"context"
	"fmt"

	"github.com/claude/fitforge/internal/exercise"
	"github.com/claude/fitforge/internal/fatigue"
	"github.com/claude/fitforge/internal/models"
	"github.com/claude/fitforge/internal/muscle"
)

// EngagementView is one muscle engagement with the user's calibration applied.
type EngagementView struct {
	Muscle       muscle.Muscle `json:"muscle"`
	Percentage   float64       `json:"percentage"`
	Default      float64       `json:"default"`
	IsCalibrated bool          `json:"isCalibrated"`
}

// ExerciseView is an exercise as one user sees it.
type ExerciseView struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Category    exercise.Category    `json:"category"`
	Equipment   []exercise.Equipment `json:"equipment"`
	Difficulty  exercise.Difficulty  `json:"difficulty"`
	Engagements []EngagementView     `json:"muscle_engagements"`
}

func view(ex *exercise.Exercise, cal fatigue.Calibrations) ExerciseView {
	v := ExerciseView{
		ID:         ex.ID,
		Name:       ex.Name,
		Category:   ex.Category,
		Equipment:  ex.Equipment,
		Difficulty: ex.Difficulty,
	}
	overrides := cal[ex.ID]
	for _, eng := range ex.Engagements {
		ev := EngagementView{Muscle: eng.Muscle, Percentage: eng.Percentage, Default: eng.Percentage}
		if pct, ok := overrides[eng.Muscle]; ok {
			ev.Percentage = pct
			ev.IsCalibrated = true
		}
		v.Engagements = append(v.Engagements, ev)
	}
	return v
}

// Exercises lists the library with the user's calibrations applied,
// optionally filtered by category.
func (s *Service) Exercises(ctx context.Context, userID int, category exercise.Category) ([]ExerciseView, error) {
	if category != "" && !category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, category)
	}
	rows, err := s.store.ListCalibrations(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading calibrations: %w", err)
	}
	cal := fatigue.CalibrationsFrom(rows)

	out := make([]ExerciseView, 0, s.lib.Len())
	for _, ex := range s.lib.All() {
		if category != "" && ex.Category != category {
			continue
		}
		out = append(out, view(ex, cal))
	}
	return out, nil
}

// Exercise returns one exercise with the user's calibrations applied.
func (s *Service) Exercise(ctx context.Context, userID int, id string) (*ExerciseView, error) {
	ex, err := s.lib.Get(id)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.ListCalibrations(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading calibrations: %w", err)
	}
	v := view(ex, fatigue.CalibrationsFrom(rows))
	return &v, nil
}

// SetCalibration replaces the user's engagement overrides for one exercise.
// Only muscles the exercise engages can be calibrated.
func (s *Service) SetCalibration(ctx context.Context, userID int, exerciseID string, pcts map[muscle.Muscle]float64) (*ExerciseView, error) {
	ex, err := s.lib.Get(exerciseID)
	if err != nil {
		return nil, err
	}
	if len(pcts) == 0 {
		return nil, fmt.Errorf("%w: no engagements given", ErrInvalidInput)
	}

	now := s.now()
	rows := make([]models.Calibration, 0, len(pcts))
	for _, m := range muscle.All() {
		pct, ok := pcts[m]
		if !ok {
			continue
		}
		if ex.Engagement(m) == 0 {
			return nil, fmt.Errorf("%w: %s does not engage %s", ErrInvalidInput, ex.ID, m)
		}
		if pct < 0 || pct > 100 {
			return nil, fmt.Errorf("%w: %s percentage %.1f out of range 0..100", ErrInvalidInput, m, pct)
		}
		rows = append(rows, models.Calibration{UserID: userID, ExerciseID: ex.ID, Muscle: m, Percentage: pct, UpdatedAt: now})
	}
	if len(rows) != len(pcts) {
		return nil, muscle.ErrUnknownMuscle
	}
	if err := s.store.ReplaceCalibrations(ctx, userID, ex.ID, rows); err != nil {
		return nil, fmt.Errorf("saving calibration: %w", err)
	}
	s.log.Info("calibration saved", "user_id", userID, "exercise", ex.ID, "muscles", len(rows))
	return s.Exercise(ctx, userID, ex.ID)
}

// ResetCalibration drops every override for one exercise.
func (s *Service) ResetCalibration(ctx context.Context, userID int, exerciseID string) (*ExerciseView, error) {
	ex, err := s.lib.Get(exerciseID)
	if err != nil {
		return nil, err
	}
	n, err := s.store.DeleteCalibrations(ctx, userID, ex.ID)
	if err != nil {
		return nil, fmt.Errorf("resetting calibration: %w", err)
	}
	s.log.Info("calibration reset", "user_id", userID, "exercise", ex.ID, "rows", n)
	return s.Exercise(ctx, userID, ex.ID)
}
