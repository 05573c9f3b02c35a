// Package fatigue converts logged set volume into per-muscle fatigue.
//
// Fatigue for a muscle is the engagement-weighted volume of a workout
// expressed as a percentage of that muscle's baseline: 100% means the muscle
// has done as much work as its baseline says it safely can.
package fatigue

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/claude/fitforge/internal/exercise"
	"github.com/claude/fitforge/internal/models"
	"github.com/claude/fitforge/internal/muscle"
)

var (
	// ErrInvalidBaseline marks a muscle whose baseline is zero or missing.
	ErrInvalidBaseline = errors.New("invalid baseline")
	// ErrInvalidSet is returned for negative reps or weight.
	ErrInvalidSet = errors.New("invalid set")
)

// InvalidBaselineError lists every muscle that could not be normalized
// because its baseline was unusable.
type InvalidBaselineError struct {
	Muscles []muscle.Muscle
}

func (e *InvalidBaselineError) Error() string {
	names := make([]string, len(e.Muscles))
	for i, m := range e.Muscles {
		names[i] = m.String()
	}
	return fmt.Sprintf("%s for %s", ErrInvalidBaseline, strings.Join(names, ", "))
}

func (e *InvalidBaselineError) Unwrap() error { return ErrInvalidBaseline }

// Set is one working set of an exercise.
type Set struct {
	ExerciseID string  `json:"exerciseId"`
	Reps       int     `json:"reps"`
	Weight     float64 `json:"weight"`
}

// Baselines holds the effective baseline per muscle.
type Baselines map[muscle.Muscle]float64

// BaselinesFrom resolves userOverride ?? systemLearnedMax for each row.
// Rows with an unusable value are kept so callers can report them.
func BaselinesFrom(rows []models.MuscleBaseline) Baselines {
	out := make(Baselines, len(rows))
	for _, r := range rows {
		v, _ := r.Effective()
		out[r.Muscle] = v
	}
	return out
}

// Get returns the baseline for m and whether it can be divided by.
func (b Baselines) Get(m muscle.Muscle) (float64, bool) {
	v, ok := b[m]
	return v, ok && v > 0
}

// Calibrations maps exercise id to per-muscle engagement overrides.
type Calibrations map[string]map[muscle.Muscle]float64

// CalibrationsFrom groups calibration rows by exercise.
func CalibrationsFrom(rows []models.Calibration) Calibrations {
	out := make(Calibrations)
	for _, r := range rows {
		if out[r.ExerciseID] == nil {
			out[r.ExerciseID] = make(map[muscle.Muscle]float64)
		}
		out[r.ExerciseID][r.Muscle] = r.Percentage
	}
	return out
}

// Has reports whether the user has calibrated the exercise at all.
func (c Calibrations) Has(exerciseID string) bool {
	return len(c[exerciseID]) > 0
}

// Engagements returns the exercise's engagements with calibrated percentages
// substituted where the user has set them.
func (c Calibrations) Engagements(ex *exercise.Exercise) []muscle.Engagement {
	overrides := c[ex.ID]
	if len(overrides) == 0 {
		return ex.Engagements
	}
	out := make([]muscle.Engagement, len(ex.Engagements))
	for i, eng := range ex.Engagements {
		if pct, ok := overrides[eng.Muscle]; ok {
			eng.Percentage = pct
		}
		out[i] = eng
	}
	return out
}

// Accumulator turns sets into volume and fatigue. It is stateless apart from
// its read-only library and configuration, so one value can serve every request.
type Accumulator struct {
	lib *exercise.Library
	// BodyweightLoad is the load substituted for bodyweight sets logged with
	// weight 0.
	BodyweightLoad float64
}

// NewAccumulator returns an Accumulator over lib.
func NewAccumulator(lib *exercise.Library, bodyweightLoad float64) *Accumulator {
	return &Accumulator{lib: lib, BodyweightLoad: bodyweightLoad}
}

// Library returns the exercise library the accumulator resolves ids against.
func (a *Accumulator) Library() *exercise.Library {
	return a.lib
}

// Volumes returns engagement-weighted volume per muscle:
// reps * weight * percentage/100, summed over every set. Muscles untouched by
// any set are absent.
func (a *Accumulator) Volumes(sets []Set, cal Calibrations) (map[muscle.Muscle]float64, error) {
	out := make(map[muscle.Muscle]float64)
	for i, s := range sets {
		ex, err := a.lib.Get(s.ExerciseID)
		if err != nil {
			return nil, err
		}
		if s.Reps < 0 || s.Weight < 0 {
			return nil, fmt.Errorf("%w: set %d of %s has reps=%d weight=%.1f", ErrInvalidSet, i+1, s.ExerciseID, s.Reps, s.Weight)
		}

		load := s.Weight
		if load == 0 && ex.IsBodyweight() {
			load = a.BodyweightLoad
		}
		volume := float64(s.Reps) * load

		for _, eng := range cal.Engagements(ex) {
			if eng.Percentage <= 0 {
				continue
			}
			out[eng.Muscle] += volume * eng.Percentage / 100
		}
	}
	return out, nil
}

// Accumulate returns the fatigue-percent delta per muscle for the given sets:
// volume * (percentage/100) / baseline * 100.
//
// An unknown exercise or a negative set fails the whole call. Muscles whose
// baseline is zero or missing are left out of the map and reported together
// in an *InvalidBaselineError, which is returned alongside the partial result.
func (a *Accumulator) Accumulate(sets []Set, baselines Baselines, cal Calibrations) (map[muscle.Muscle]float64, error) {
	volumes, err := a.Volumes(sets, cal)
	if err != nil {
		return nil, err
	}
	return Normalize(volumes, baselines)
}

// Normalize converts per-muscle volume to fatigue percent against baselines.
func Normalize(volumes map[muscle.Muscle]float64, baselines Baselines) (map[muscle.Muscle]float64, error) {
	out := make(map[muscle.Muscle]float64, len(volumes))
	var invalid []muscle.Muscle
	for m, v := range volumes {
		base, ok := baselines.Get(m)
		if !ok {
			invalid = append(invalid, m)
			continue
		}
		out[m] = v / base * 100
	}
	if len(invalid) > 0 {
		sort.Slice(invalid, func(i, j int) bool { return invalid[i] < invalid[j] })
		return out, &InvalidBaselineError{Muscles: invalid}
	}
	return out, nil
}

// InvalidMuscles extracts the affected muscles from an error returned by
// Accumulate or Normalize. It returns nil for any other error.
func InvalidMuscles(err error) []muscle.Muscle {
	var ibe *InvalidBaselineError
	if errors.As(err, &ibe) {
		return ibe.Muscles
	}
	return nil
}
