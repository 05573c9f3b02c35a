package training

import (
	"context"
	"time"

	"github.com/claude/fitforge/internal/models"
	"github.com/claude/fitforge/internal/muscle"
	"github.com/google/uuid"
)

// ApplyFunc receives the locked muscle states and baselines of one user and
// returns the states to write back.
type ApplyFunc func(states []models.MuscleState, baselines []models.MuscleBaseline) ([]models.MuscleState, error)

// Store is the persistence the service needs. Implementations scope every
// row by user id.
type Store interface {
	// GetOrCreateUser finds or creates a user by login and returns its id.
	GetOrCreateUser(ctx context.Context, login, displayName string) (int, error)

	ListMuscleStates(ctx context.Context, userID int) ([]models.MuscleState, error)
	UpsertMuscleStates(ctx context.Context, userID int, states []models.MuscleState) error

	ListBaselines(ctx context.Context, userID int) ([]models.MuscleBaseline, error)
	// InsertMissingBaselines creates a baseline row with the given learned
	// max for every muscle that has none. Existing rows are untouched.
	InsertMissingBaselines(ctx context.Context, userID int, muscles []muscle.Muscle, learnedMax float64) (int, error)
	SetLearnedBaseline(ctx context.Context, userID int, m muscle.Muscle, value float64) error
	// SetBaselineOverride sets or, for nil, clears the user override.
	SetBaselineOverride(ctx context.Context, userID int, m muscle.Muscle, value *float64) error

	ListCalibrations(ctx context.Context, userID int) ([]models.Calibration, error)
	// ReplaceCalibrations replaces every calibration of one exercise.
	ReplaceCalibrations(ctx context.Context, userID int, exerciseID string, rows []models.Calibration) error
	DeleteCalibrations(ctx context.Context, userID int, exerciseID string) (int64, error)

	// RecentExerciseIDs returns one id per logged exercise per workout since
	// the given time, newest first.
	RecentExerciseIDs(ctx context.Context, userID int, since time.Time) ([]string, error)

	ListWorkouts(ctx context.Context, userID int, start, end time.Time) ([]models.Workout, error)
	// GetWorkout returns ErrNotFound when no workout has the id.
	GetWorkout(ctx context.Context, userID int, id uuid.UUID) (*models.Workout, error)

	// CompleteWorkout stores w and applies fn to the user's muscle states in
	// one transaction. States and baselines are locked for the duration so
	// concurrent completions for the same user are serialized.
	CompleteWorkout(ctx context.Context, userID int, w *models.Workout, fn ApplyFunc) error
}
