package muscle

import (
	"fmt"
	"strings"
)

// IncompleteMappingError reports a taxonomy that is not total and onto.
// It is a startup configuration error.
type IncompleteMappingError struct {
	Orphaned []DetailedMuscle // detailed muscles without a valid group
	Empty    []Muscle         // visualization muscles with no detailed muscle
}

func (e *IncompleteMappingError) Error() string {
	var parts []string
	if len(e.Orphaned) > 0 {
		names := make([]string, len(e.Orphaned))
		for i, d := range e.Orphaned {
			names[i] = fmt.Sprintf("%d", int(d))
		}
		parts = append(parts, "orphaned detailed muscles: "+strings.Join(names, ", "))
	}
	if len(e.Empty) > 0 {
		names := make([]string, len(e.Empty))
		for i, m := range e.Empty {
			names[i] = m.String()
		}
		parts = append(parts, "muscles without detailed mapping: "+strings.Join(names, ", "))
	}
	return "incomplete muscle mapping: " + strings.Join(parts, "; ")
}

// Validate checks that every detailed muscle maps to exactly one valid
// visualization muscle and every visualization muscle is covered.
func Validate() error {
	return validateMapping(AllDetailed(), DetailedMuscle.Group)
}

func validateMapping(detailed []DetailedMuscle, group func(DetailedMuscle) Muscle) error {
	var covered [Count + 1]bool
	var orphaned []DetailedMuscle
	for _, d := range detailed {
		g := group(d)
		if !g.Valid() {
			orphaned = append(orphaned, d)
			continue
		}
		covered[g] = true
	}

	var empty []Muscle
	for m := Pectoralis; m <= Core; m++ {
		if !covered[m] {
			empty = append(empty, m)
		}
	}

	if len(orphaned) > 0 || len(empty) > 0 || len(detailed) != DetailedCount {
		return &IncompleteMappingError{Orphaned: orphaned, Empty: empty}
	}
	return nil
}
