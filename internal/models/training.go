package models

import (
	"time"

	"github.com/claude/fitforge/internal/muscle"
	"github.com/google/uuid"
)

// MuscleState is the persisted fatigue snapshot for one muscle. It changes
// only when a workout is saved or the user resets it.
type MuscleState struct {
	UserID         int           `json:"-"`
	Muscle         muscle.Muscle `json:"muscle"`
	FatiguePercent float64       `json:"fatigue_percent"`
	VolumeToday    float64       `json:"volume_today"`
	LastTrained    *time.Time    `json:"last_trained"`
	RecoveredAt    *time.Time    `json:"recovered_at"`
}

// MuscleBaseline is the volume that maps to 100% fatigue for one muscle.
type MuscleBaseline struct {
	UserID           int           `json:"-"`
	Muscle           muscle.Muscle `json:"muscle"`
	SystemLearnedMax float64       `json:"system_learned_max"`
	UserOverride     *float64      `json:"user_override"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// Effective returns userOverride when set, otherwise systemLearnedMax.
// ok is false when the effective value is not usable as a divisor.
func (b MuscleBaseline) Effective() (value float64, ok bool) {
	value = b.SystemLearnedMax
	if b.UserOverride != nil {
		value = *b.UserOverride
	}
	return value, value > 0
}

// Calibration is a user override of one exercise's engagement for one muscle.
type Calibration struct {
	UserID     int           `json:"-"`
	ExerciseID string        `json:"exercise_id"`
	Muscle     muscle.Muscle `json:"muscle"`
	Percentage float64       `json:"percentage"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// Workout is a completed training session.
type Workout struct {
	ID          uuid.UUID    `json:"id"`
	UserID      int          `json:"-"`
	Date        time.Time    `json:"date"`
	Category    string       `json:"category,omitempty"`
	Variation   string       `json:"variation,omitempty"`
	DurationSec int          `json:"duration_sec"`
	Sets        []WorkoutSet `json:"sets"`
}

// WorkoutSet is one logged working set.
type WorkoutSet struct {
	ExerciseID string  `json:"exercise_id"`
	SetNumber  int     `json:"set_number"`
	Reps       int     `json:"reps"`
	Weight     float64 `json:"weight"`
	ToFailure  bool    `json:"to_failure"`
}

// ExerciseIDs returns the distinct exercise ids in the workout, in first-seen order.
func (w *Workout) ExerciseIDs() []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range w.Sets {
		if !seen[s.ExerciseID] {
			seen[s.ExerciseID] = true
			out = append(out, s.ExerciseID)
		}
	}
	return out
}
