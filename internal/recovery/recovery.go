// Package recovery projects how fatigue decays over time.
package recovery

import (
	"math"
	"time"

	"github.com/claude/fitforge/internal/muscle"
)

// DefaultRatePerDay is the linear recovery rate in fatigue percentage points
// per 24 hours.
const DefaultRatePerDay = 15.0

// State is the recovery input for one muscle: the fatigue recorded at
// LastTrained. A nil LastTrained means the muscle has never been worked.
type State struct {
	Muscle         muscle.Muscle
	FatiguePercent float64
	LastTrained    *time.Time
}

// Horizons holds projected fatigue 24, 48 and 72 hours after asOf.
type Horizons struct {
	H24 float64 `json:"24h"`
	H48 float64 `json:"48h"`
	H72 float64 `json:"72h"`
}

// Projection is the recovery outlook for one muscle.
type Projection struct {
	Muscle           muscle.Muscle `json:"name"`
	CurrentFatigue   float64       `json:"currentFatigue"`
	Projections      Horizons      `json:"projections"`
	FullyRecoveredAt *time.Time    `json:"fullyRecoveredAt"`
}

// Calculator applies linear decay. The zero value is not usable; use New.
type Calculator struct {
	RatePerDay float64
}

// New returns a Calculator with the given rate, falling back to
// DefaultRatePerDay for non-positive values.
func New(ratePerDay float64) *Calculator {
	if ratePerDay <= 0 {
		ratePerDay = DefaultRatePerDay
	}
	return &Calculator{RatePerDay: ratePerDay}
}

// Current returns fatigue remaining at asOf for a single state.
func (c *Calculator) Current(s State, asOf time.Time) float64 {
	if s.LastTrained == nil || s.FatiguePercent <= 0 {
		return 0
	}
	hours := asOf.Sub(*s.LastTrained).Hours()
	if hours < 0 {
		hours = 0
	}
	return c.decay(s.FatiguePercent, hours)
}

func (c *Calculator) decay(fatigue, hours float64) float64 {
	return math.Max(0, fatigue-c.RatePerDay*hours/24)
}

// ProjectOne computes the projection for one muscle. It reads no clock:
// identical inputs always produce identical output.
func (c *Calculator) ProjectOne(s State, asOf time.Time) Projection {
	p := Projection{Muscle: s.Muscle}
	current := c.Current(s, asOf)
	if current == 0 {
		return p
	}

	p.CurrentFatigue = current
	p.Projections = Horizons{
		H24: c.decay(current, 24),
		H48: c.decay(current, 48),
		H72: c.decay(current, 72),
	}
	days := s.FatiguePercent / c.RatePerDay
	at := s.LastTrained.Add(time.Duration(days * 24 * float64(time.Hour))).UTC()
	p.FullyRecoveredAt = &at
	return p
}

// Project computes projections for each state, preserving input order.
func (c *Calculator) Project(states []State, asOf time.Time) []Projection {
	out := make([]Projection, len(states))
	for i, s := range states {
		out[i] = c.ProjectOne(s, asOf)
	}
	return out
}

// Timeline returns exactly one projection per visualization muscle in
// canonical order. Muscles missing from states report zeros.
func (c *Calculator) Timeline(states []State, asOf time.Time) []Projection {
	byMuscle := make(map[muscle.Muscle]State, len(states))
	for _, s := range states {
		byMuscle[s.Muscle] = s
	}

	out := make([]Projection, 0, muscle.Count)
	for _, m := range muscle.All() {
		s, ok := byMuscle[m]
		if !ok {
			s = State{Muscle: m}
		}
		out = append(out, c.ProjectOne(s, asOf))
	}
	return out
}

// CurrentMap returns current fatigue for every muscle present in states.
func (c *Calculator) CurrentMap(states []State, asOf time.Time) map[muscle.Muscle]float64 {
	out := make(map[muscle.Muscle]float64, len(states))
	for _, s := range states {
		out[s.Muscle] = c.Current(s, asOf)
	}
	return out
}
