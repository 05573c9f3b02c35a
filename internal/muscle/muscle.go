// Package muscle defines the two-layer muscle taxonomy: 13 visualization
// muscles used for fatigue tracking and display, and 42 detailed anatomical
// muscles that roll up into them.
package muscle

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownMuscle is returned when a name does not match any muscle.
var ErrUnknownMuscle = errors.New("unknown muscle")

// Muscle is a visualization muscle group. The zero value is invalid.
type Muscle int

const (
	Pectoralis Muscle = iota + 1
	Triceps
	Deltoids
	Lats
	Biceps
	Rhomboids
	Trapezius
	Forearms
	Quadriceps
	Glutes
	Hamstrings
	Calves
	Core
)

// Count is the number of visualization muscles.
const Count = 13

var muscleNames = [Count + 1]string{
	"",
	"Pectoralis",
	"Triceps",
	"Deltoids",
	"Lats",
	"Biceps",
	"Rhomboids",
	"Trapezius",
	"Forearms",
	"Quadriceps",
	"Glutes",
	"Hamstrings",
	"Calves",
	"Core",
}

// All returns every visualization muscle in canonical order.
func All() []Muscle {
	out := make([]Muscle, 0, Count)
	for m := Pectoralis; m <= Core; m++ {
		out = append(out, m)
	}
	return out
}

// Valid reports whether m is one of the 13 visualization muscles.
func (m Muscle) Valid() bool {
	return m >= Pectoralis && m <= Core
}

func (m Muscle) String() string {
	if !m.Valid() {
		return fmt.Sprintf("Muscle(%d)", int(m))
	}
	return muscleNames[m]
}

// Parse resolves a muscle name, ignoring case and surrounding whitespace.
func Parse(name string) (Muscle, error) {
	n := strings.TrimSpace(name)
	for m := Pectoralis; m <= Core; m++ {
		if strings.EqualFold(muscleNames[m], n) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMuscle, name)
}

// MarshalText encodes the canonical name, which also makes Muscle usable as
// a JSON object key.
func (m Muscle) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMuscle, int(m))
	}
	return []byte(muscleNames[m]), nil
}

func (m *Muscle) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Engagement is the share of a working set's volume attributed to one muscle.
// Percentages are independent per muscle and need not sum to 100.
type Engagement struct {
	Muscle     Muscle  `json:"muscle" yaml:"muscle"`
	Percentage float64 `json:"percentage" yaml:"percentage"`
}
