// Package exercise holds the static exercise library: categories, equipment
// and per-muscle engagement for every exercise the engine can score.
package exercise

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/claude/fitforge/internal/muscle"
)

// ErrUnknownExercise is returned when an id is not in the library.
var ErrUnknownExercise = errors.New("unknown exercise")

// Category is the training split an exercise belongs to.
type Category string

const (
	CategoryPush Category = "Push"
	CategoryPull Category = "Pull"
	CategoryLegs Category = "Legs"
	CategoryCore Category = "Core"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryPush, CategoryPull, CategoryLegs, CategoryCore:
		return true
	}
	return false
}

// Equipment is a piece of equipment an exercise requires.
type Equipment string

const (
	Bodyweight      Equipment = "Bodyweight"
	Barbell         Equipment = "Barbell"
	Dumbbells       Equipment = "Dumbbells"
	Kettlebell      Equipment = "Kettlebell"
	CableMachine    Equipment = "Cable Machine"
	PullUpBar       Equipment = "Pull-up Bar"
	Bench           Equipment = "Bench"
	ResistanceBands Equipment = "Resistance Bands"
	Machine         Equipment = "Machine"
	TRX             Equipment = "TRX"
)

var knownEquipment = []Equipment{
	Bodyweight, Barbell, Dumbbells, Kettlebell, CableMachine,
	PullUpBar, Bench, ResistanceBands, Machine, TRX,
}

// ParseEquipment resolves an equipment name case-insensitively.
func ParseEquipment(s string) (Equipment, error) {
	for _, e := range knownEquipment {
		if strings.EqualFold(string(e), strings.TrimSpace(s)) {
			return e, nil
		}
	}
	return "", fmt.Errorf("unknown equipment %q", s)
}

// Difficulty is a coarse skill rating.
type Difficulty string

const (
	Beginner     Difficulty = "Beginner"
	Intermediate Difficulty = "Intermediate"
	Advanced     Difficulty = "Advanced"
)

// Exercise is an immutable library entry.
type Exercise struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Category    Category            `json:"category"`
	Equipment   []Equipment         `json:"equipment"`
	Difficulty  Difficulty          `json:"difficulty"`
	Engagements []muscle.Engagement `json:"muscle_engagements"`
	Aliases     []string            `json:"aliases,omitempty"`
}

// Engagement returns the default engagement percentage for m, or 0.
func (e *Exercise) Engagement(m muscle.Muscle) float64 {
	for _, eng := range e.Engagements {
		if eng.Muscle == m {
			return eng.Percentage
		}
	}
	return 0
}

// IsBodyweight reports whether the exercise can be done with no equipment.
func (e *Exercise) IsBodyweight() bool {
	return slices.Contains(e.Equipment, Bodyweight)
}

// UsableWith reports whether any required equipment is available, or the
// exercise is bodyweight.
func (e *Exercise) UsableWith(available []Equipment) bool {
	if e.IsBodyweight() {
		return true
	}
	for _, req := range e.Equipment {
		if slices.Contains(available, req) {
			return true
		}
	}
	return false
}
