package training

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/claude/fitforge/internal/baseline"
	"github.com/claude/fitforge/internal/fatigue"
	"github.com/claude/fitforge/internal/models"
	"github.com/claude/fitforge/internal/muscle"
	"github.com/claude/fitforge/internal/recovery"
	"github.com/google/uuid"
)

// CompleteRequest is a finished workout as logged by the user.
type CompleteRequest struct {
	Date        time.Time
	Category    string
	Variation   string
	DurationSec int
	Sets        []models.WorkoutSet
}

// Summary describes a completed workout.
type Summary struct {
	TotalSets     int             `json:"totalSets"`
	TotalReps     int             `json:"totalReps"`
	TotalVolume   float64         `json:"totalVolume"`
	Exercises     int             `json:"exercises"`
	MusclesWorked []muscle.Muscle `json:"musclesWorked"`
	// Unavailable lists worked muscles whose fatigue could not be computed
	// because their baseline is unusable.
	Unavailable []muscle.Muscle `json:"unavailable,omitempty"`
}

// Completion is the result of saving a workout.
type Completion struct {
	WorkoutID uuid.UUID `json:"workout_id"`
	// Fatigue is the current fatigue of every muscle right after the workout.
	Fatigue             map[muscle.Muscle]float64 `json:"fatigue"`
	BaselineSuggestions []baseline.Suggestion     `json:"baselineSuggestions"`
	Summary             Summary                   `json:"summary"`
}

// Complete saves a workout, folds its fatigue into the user's muscle states
// and proposes baseline increases. Suggestions are not applied.
func (s *Service) Complete(ctx context.Context, userID int, req CompleteRequest) (*Completion, error) {
	if len(req.Sets) == 0 {
		return nil, fmt.Errorf("%w: workout has no sets", ErrInvalidInput)
	}
	if req.DurationSec < 0 {
		return nil, fmt.Errorf("%w: duration must be >= 0", ErrInvalidInput)
	}
	date := req.Date.UTC()
	if req.Date.IsZero() {
		date = s.now()
	}

	cal, err := s.store.ListCalibrations(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading calibrations: %w", err)
	}

	sets := make([]fatigue.Set, len(req.Sets))
	summary := Summary{TotalSets: len(req.Sets), MusclesWorked: []muscle.Muscle{}}
	for i, ws := range req.Sets {
		sets[i] = fatigue.Set{ExerciseID: ws.ExerciseID, Reps: ws.Reps, Weight: ws.Weight}
		summary.TotalReps += ws.Reps
	}
	volumes, err := s.acc.Volumes(sets, fatigue.CalibrationsFrom(cal))
	if err != nil {
		return nil, err
	}

	w := &models.Workout{
		ID:          uuid.New(),
		UserID:      userID,
		Date:        date,
		Category:    req.Category,
		Variation:   req.Variation,
		DurationSec: req.DurationSec,
		Sets:        numberSets(req.Sets),
	}
	summary.Exercises = len(w.ExerciseIDs())
	for _, ws := range w.Sets {
		summary.TotalVolume += float64(ws.Reps) * ws.Weight
	}

	out := &Completion{WorkoutID: w.ID}
	err = s.store.CompleteWorkout(ctx, userID, w, func(states []models.MuscleState, rows []models.MuscleBaseline) ([]models.MuscleState, error) {
		baselines := fatigue.BaselinesFrom(rows)
		delta, nerr := fatigue.Normalize(volumes, baselines)
		summary.Unavailable = fatigue.InvalidMuscles(nerr)

		updated := s.fold(userID, states, volumes, delta, date)
		all := append(keepUntouched(states, updated), updated...)
		out.Fatigue = s.recovery.CurrentMap(recoveryStates(all), date)
		for _, m := range muscle.All() {
			if _, ok := out.Fatigue[m]; !ok {
				out.Fatigue[m] = 0
			}
		}
		out.BaselineSuggestions = s.suggester.Suggest(volumes, baselines)
		return updated, nil
	})
	if err != nil {
		return nil, fmt.Errorf("completing workout: %w", err)
	}

	for _, m := range muscle.All() {
		if volumes[m] > 0 {
			summary.MusclesWorked = append(summary.MusclesWorked, m)
		}
	}
	out.Summary = summary
	s.rec.WorkoutCompleted(len(w.Sets))
	s.log.Info("workout completed",
		"user_id", userID,
		"workout_id", w.ID,
		"sets", len(w.Sets),
		"suggestions", len(out.BaselineSuggestions),
		"unavailable", len(summary.Unavailable),
	)
	return out, nil
}

// fold adds the workout's fatigue to every muscle it worked. Fatigue is kept
// at a single anchor per muscle: a workout after the anchor decays the stored
// fatigue up to the workout, one before it has its own fatigue decayed up to
// the anchor instead.
func (s *Service) fold(userID int, states []models.MuscleState, volumes, delta map[muscle.Muscle]float64, date time.Time) []models.MuscleState {
	prev := make(map[muscle.Muscle]models.MuscleState, len(states))
	for _, st := range states {
		prev[st.Muscle] = st
	}

	var updated []models.MuscleState
	for _, m := range muscle.All() {
		vol := volumes[m]
		if vol <= 0 {
			continue
		}
		old := prev[m]

		trained := date
		var fatiguePct, today float64
		if old.LastTrained != nil && old.LastTrained.After(date) {
			// Backdated workout.
			trained = old.LastTrained.UTC()
			fatiguePct = old.FatiguePercent + s.recovery.Current(recovery.State{Muscle: m, FatiguePercent: delta[m], LastTrained: &date}, trained)
			today = old.VolumeToday
			if sameDay(trained, date) {
				today += vol
			}
		} else {
			fatiguePct = s.recovery.Current(recovery.State{Muscle: m, FatiguePercent: old.FatiguePercent, LastTrained: old.LastTrained}, date) + delta[m]
			today = vol
			if old.LastTrained != nil && sameDay(*old.LastTrained, date) {
				today += old.VolumeToday
			}
		}

		st := models.MuscleState{
			UserID:         userID,
			Muscle:         m,
			FatiguePercent: fatiguePct,
			VolumeToday:    today,
			LastTrained:    &trained,
		}
		st.RecoveredAt = s.recovery.ProjectOne(recovery.State{Muscle: m, FatiguePercent: st.FatiguePercent, LastTrained: &trained}, trained).FullyRecoveredAt
		updated = append(updated, st)
	}
	return updated
}

func keepUntouched(states, updated []models.MuscleState) []models.MuscleState {
	touched := make(map[muscle.Muscle]bool, len(updated))
	for _, st := range updated {
		touched[st.Muscle] = true
	}
	var out []models.MuscleState
	for _, st := range states {
		if !touched[st.Muscle] {
			out = append(out, st)
		}
	}
	return out
}

// numberSets fills missing set numbers per exercise, in logged order.
func numberSets(in []models.WorkoutSet) []models.WorkoutSet {
	out := make([]models.WorkoutSet, len(in))
	next := map[string]int{}
	for i, ws := range in {
		next[ws.ExerciseID]++
		if ws.SetNumber <= 0 {
			ws.SetNumber = next[ws.ExerciseID]
		}
		out[i] = ws
	}
	return out
}

// AcceptSuggestion confirms a baseline suggestion by raising the learned max.
func (s *Service) AcceptSuggestion(ctx context.Context, userID int, m muscle.Muscle, value float64) (*models.MuscleBaseline, error) {
	if !m.Valid() {
		return nil, muscle.ErrUnknownMuscle
	}
	if value <= 0 || math.IsInf(value, 0) || math.IsNaN(value) {
		return nil, fmt.Errorf("%w: baseline must be > 0", ErrInvalidInput)
	}
	if err := s.store.SetLearnedBaseline(ctx, userID, m, value); err != nil {
		return nil, fmt.Errorf("saving baseline: %w", err)
	}
	s.log.Info("baseline suggestion accepted", "user_id", userID, "muscle", m.String(), "value", value)
	return s.baselineOf(ctx, userID, m)
}

// SetBaselineOverride sets the user override, or clears it when value is nil.
func (s *Service) SetBaselineOverride(ctx context.Context, userID int, m muscle.Muscle, value *float64) (*models.MuscleBaseline, error) {
	if !m.Valid() {
		return nil, muscle.ErrUnknownMuscle
	}
	if value != nil && (*value <= 0 || math.IsInf(*value, 0) || math.IsNaN(*value)) {
		return nil, fmt.Errorf("%w: override must be > 0", ErrInvalidInput)
	}
	if err := s.store.SetBaselineOverride(ctx, userID, m, value); err != nil {
		return nil, fmt.Errorf("saving baseline override: %w", err)
	}
	return s.baselineOf(ctx, userID, m)
}

// Baselines returns the baseline rows of all 13 muscles in muscle order.
// Muscles with no row are returned with zero values.
func (s *Service) Baselines(ctx context.Context, userID int) ([]models.MuscleBaseline, error) {
	rows, err := s.store.ListBaselines(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading baselines: %w", err)
	}
	byMuscle := make(map[muscle.Muscle]models.MuscleBaseline, len(rows))
	for _, r := range rows {
		byMuscle[r.Muscle] = r
	}
	out := make([]models.MuscleBaseline, 0, muscle.Count)
	for _, m := range muscle.All() {
		b, ok := byMuscle[m]
		if !ok {
			b = models.MuscleBaseline{UserID: userID, Muscle: m}
		}
		out = append(out, b)
	}
	return out, nil
}

func (s *Service) baselineOf(ctx context.Context, userID int, m muscle.Muscle) (*models.MuscleBaseline, error) {
	all, err := s.Baselines(ctx, userID)
	if err != nil {
		return nil, err
	}
	b := all[m-1]
	return &b, nil
}
