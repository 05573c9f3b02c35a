// Package forecast projects the fatigue a planned workout would cause
// without touching any stored state.
package forecast

import (
	"errors"
	"fmt"
	"sort"

	"github.com/claude/fitforge/internal/fatigue"
	"github.com/claude/fitforge/internal/muscle"
)

// Default thresholds in fatigue percent.
const (
	DefaultCritical        = 100.0
	DefaultWarningFraction = 0.8
)

// Thresholds configures when a projected muscle is flagged.
type Thresholds struct {
	// Critical is the hard ceiling: projected fatigue at or above it is a
	// bottleneck.
	Critical float64
	// WarningFraction of Critical starts the softer warning band.
	WarningFraction float64
}

// Warning returns the absolute warning threshold.
func (t Thresholds) Warning() float64 {
	return t.Critical * t.WarningFraction
}

// PlannedSet is an estimated, not-yet-performed set.
type PlannedSet struct {
	Reps   int     `json:"reps"`
	Weight float64 `json:"weight"`
}

// PlannedExercise is one exercise in a planned workout.
type PlannedExercise struct {
	ExerciseID string       `json:"exerciseId"`
	Sets       []PlannedSet `json:"estimatedSets"`
}

// Bottleneck is a muscle the planned workout would push to or past the ceiling.
type Bottleneck struct {
	Muscle           muscle.Muscle `json:"muscle"`
	CurrentFatigue   float64       `json:"currentFatigue"`
	ProjectedFatigue float64       `json:"projectedFatigue"`
	Message          string        `json:"message"`
}

// Result is a forecast for every visualization muscle.
type Result struct {
	Forecast    map[muscle.Muscle]float64 `json:"forecast"`
	Added       map[muscle.Muscle]float64 `json:"added"`
	Warnings    []string                  `json:"warnings"`
	Bottlenecks []Bottleneck              `json:"bottlenecks"`
	// Unavailable lists muscles the plan touches whose baseline is unusable;
	// their forecast equals current fatigue.
	Unavailable []muscle.Muscle `json:"unavailable,omitempty"`
}

// Forecaster combines current fatigue with the fatigue a plan would add.
type Forecaster struct {
	acc        *fatigue.Accumulator
	thresholds Thresholds
}

// New returns a Forecaster. Zero threshold fields fall back to the defaults.
func New(acc *fatigue.Accumulator, th Thresholds) *Forecaster {
	if th.Critical <= 0 {
		th.Critical = DefaultCritical
	}
	if th.WarningFraction <= 0 || th.WarningFraction >= 1 {
		th.WarningFraction = DefaultWarningFraction
	}
	return &Forecaster{acc: acc, thresholds: th}
}

// Thresholds returns the effective thresholds.
func (f *Forecaster) Thresholds() Thresholds {
	return f.thresholds
}

// Forecast computes projected = current + added for every muscle. It performs
// no writes and reads nothing beyond its arguments, so it is safe to call on
// every edit of a plan.
//
// Unknown exercises and invalid sets are request errors. Invalid baselines
// only mark the affected muscles as unavailable.
func (f *Forecaster) Forecast(planned []PlannedExercise, current map[muscle.Muscle]float64, baselines fatigue.Baselines, cal fatigue.Calibrations) (*Result, error) {
	var sets []fatigue.Set
	for _, pe := range planned {
		for _, s := range pe.Sets {
			sets = append(sets, fatigue.Set{ExerciseID: pe.ExerciseID, Reps: s.Reps, Weight: s.Weight})
		}
		if len(pe.Sets) == 0 {
			// Validate the id even when no sets are planned yet.
			if _, err := f.acc.Library().Get(pe.ExerciseID); err != nil {
				return nil, err
			}
		}
	}

	added, err := f.acc.Accumulate(sets, baselines, cal)
	if err != nil && !errors.Is(err, fatigue.ErrInvalidBaseline) {
		return nil, err
	}

	res := &Result{
		Forecast:    make(map[muscle.Muscle]float64, muscle.Count),
		Added:       added,
		Warnings:    []string{},
		Bottlenecks: []Bottleneck{},
		Unavailable: fatigue.InvalidMuscles(err),
	}

	critical := f.thresholds.Critical
	warning := f.thresholds.Warning()
	for _, m := range muscle.All() {
		cur := current[m]
		projected := cur + added[m]
		res.Forecast[m] = projected

		switch {
		case projected >= critical:
			res.Bottlenecks = append(res.Bottlenecks, Bottleneck{
				Muscle:           m,
				CurrentFatigue:   cur,
				ProjectedFatigue: projected,
				Message: fmt.Sprintf("%s would reach %.1f%% fatigue (currently %.1f%%), at or above the %.0f%% ceiling",
					m, projected, cur, critical),
			})
		case projected >= warning:
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s approaching limit: %.1f%% projected (currently %.1f%%)", m, projected, cur))
		}
	}

	sort.SliceStable(res.Bottlenecks, func(i, j int) bool {
		return res.Bottlenecks[i].ProjectedFatigue > res.Bottlenecks[j].ProjectedFatigue
	})
	return res, nil
}
