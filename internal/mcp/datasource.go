package mcp

import (
	"context"
	"time"

	"github.com/claude/fitforge/internal/exercise"
	"github.com/claude/fitforge/internal/forecast"
	"github.com/claude/fitforge/internal/models"
	"github.com/claude/fitforge/internal/muscle"
	"github.com/claude/fitforge/internal/recommend"
	"github.com/claude/fitforge/internal/recovery"
	"github.com/claude/fitforge/internal/training"
)

// DataSource abstracts the engine for MCP tools. Both *training.Service
// (local) and *client.Client (remote via REST API) satisfy this interface.
type DataSource interface {
	MuscleStates(ctx context.Context, userID int) (map[muscle.Muscle]training.MuscleStatus, error)
	Timeline(ctx context.Context, userID int) ([]recovery.Projection, error)
	Recommend(ctx context.Context, userID int, req training.RecommendRequest) (*recommend.Result, error)
	Forecast(ctx context.Context, userID int, planned []forecast.PlannedExercise) (*forecast.Result, error)
	Exercises(ctx context.Context, userID int, category exercise.Category) ([]training.ExerciseView, error)
	Workouts(ctx context.Context, userID int, start, end time.Time) ([]models.Workout, error)
	TrainingSummary(ctx context.Context, userID int, start, end time.Time, bucket string) ([]training.SummaryPeriod, error)
	Baselines(ctx context.Context, userID int) ([]models.MuscleBaseline, error)
}

// Compile-time check: *training.Service satisfies DataSource.
var _ DataSource = (*training.Service)(nil)
