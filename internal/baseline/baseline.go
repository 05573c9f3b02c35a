// Package baseline proposes new muscle baselines after a completed workout.
package baseline

import (
	"math"

	"github.com/claude/fitforge/internal/fatigue"
	"github.com/claude/fitforge/internal/muscle"
)

// DefaultIncrement is the step suggested baselines are rounded up to.
const DefaultIncrement = 50.0

// Suggestion proposes raising a muscle's baseline to the volume it handled.
// It is only a proposal: applying it is a separate confirm step.
type Suggestion struct {
	Muscle            muscle.Muscle `json:"muscle"`
	CurrentBaseline   float64       `json:"currentBaseline"`
	VolumeAchieved    float64       `json:"volumeAchieved"`
	SuggestedBaseline float64       `json:"suggestedBaseline"`
	ExceedancePercent float64       `json:"exceedancePercent"`
}

// Suggester rounds suggestions to a fixed increment.
type Suggester struct {
	Increment float64
}

// NewSuggester returns a Suggester, using DefaultIncrement for
// non-positive increments.
func NewSuggester(increment float64) *Suggester {
	if increment <= 0 {
		increment = DefaultIncrement
	}
	return &Suggester{Increment: increment}
}

// Suggest returns one suggestion per muscle whose achieved volume exceeds its
// effective baseline, in muscle order. Muscles without a usable baseline are
// skipped.
func (s *Suggester) Suggest(volumes map[muscle.Muscle]float64, baselines fatigue.Baselines) []Suggestion {
	out := []Suggestion{}
	for _, m := range muscle.All() {
		achieved := volumes[m]
		base, ok := baselines.Get(m)
		if !ok || achieved <= base {
			continue
		}
		out = append(out, Suggestion{
			Muscle:            m,
			CurrentBaseline:   base,
			VolumeAchieved:    achieved,
			SuggestedBaseline: math.Ceil(achieved/s.Increment) * s.Increment,
			ExceedancePercent: math.Round((achieved-base)/base*1000) / 10,
		})
	}
	return out
}
