package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/claude/fitforge/internal/models"
	"github.com/claude/fitforge/internal/training"
)

// CompleteWorkout stores the workout and its sets and writes back the muscle
// states fn returns, all in one transaction. The user row is locked first so
// completions for the same user run one at a time even before any muscle
// state row exists.
func (db *DB) CompleteWorkout(ctx context.Context, userID int, w *models.Workout, fn training.ApplyFunc) error {
	return db.inTx(ctx, func(tx pgx.Tx) error {
		var locked int
		if err := tx.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&locked); err != nil {
			return fmt.Errorf("locking user %d: %w", userID, err)
		}

		states, err := listMuscleStates(ctx, tx, userID, true)
		if err != nil {
			return err
		}
		baselines, err := listBaselines(ctx, tx, userID)
		if err != nil {
			return err
		}
		updated, err := fn(states, baselines)
		if err != nil {
			return err
		}

		if err := insertWorkout(ctx, tx, userID, w); err != nil {
			return err
		}
		return upsertMuscleStates(ctx, tx, userID, updated)
	})
}

func insertWorkout(ctx context.Context, tx pgx.Tx, userID int, w *models.Workout) error {
	if _, err := tx.Exec(ctx,
		`INSERT INTO workouts (id, user_id, date, category, variation, duration_sec)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		w.ID, userID, w.Date, w.Category, w.Variation, w.DurationSec); err != nil {
		return fmt.Errorf("inserting workout: %w", err)
	}
	if len(w.Sets) == 0 {
		return nil
	}

	query := `INSERT INTO workout_sets (workout_id, position, exercise_id, set_number, reps, weight, to_failure) VALUES `
	args := make([]any, 0, len(w.Sets)*7)
	valueStrings := make([]string, 0, len(w.Sets))

	for i, s := range w.Sets {
		base := i * 7
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7,
		))
		args = append(args, w.ID, i, s.ExerciseID, s.SetNumber, s.Reps, s.Weight, s.ToFailure)
	}

	if _, err := tx.Exec(ctx, query+strings.Join(valueStrings, ","), args...); err != nil {
		return fmt.Errorf("inserting workout sets: %w", err)
	}
	return nil
}

// RecentExerciseIDs returns one id per exercise per workout since the given
// time, newest workout first.
func (db *DB) RecentExerciseIDs(ctx context.Context, userID int, since time.Time) ([]string, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT w.id, s.exercise_id, MIN(s.position) AS first_pos
		 FROM workouts w JOIN workout_sets s ON s.workout_id = w.id
		 WHERE w.user_id = $1 AND w.date >= $2
		 GROUP BY w.id, w.date, s.exercise_id
		 ORDER BY w.date DESC, w.id, first_pos`,
		userID, since)
	if err != nil {
		return nil, fmt.Errorf("querying recent exercises: %w", err)
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var id uuid.UUID
		var exerciseID string
		var first int
		if err := rows.Scan(&id, &exerciseID, &first); err != nil {
			return nil, fmt.Errorf("scanning recent exercise: %w", err)
		}
		result = append(result, exerciseID)
	}
	return result, rows.Err()
}

// ListWorkouts retrieves workouts with their sets in [start, end), newest first.
func (db *DB) ListWorkouts(ctx context.Context, userID int, start, end time.Time) ([]models.Workout, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, date, category, variation, duration_sec
		 FROM workouts
		 WHERE user_id = $1 AND date >= $2 AND date < $3
		 ORDER BY date DESC`,
		userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("querying workouts: %w", err)
	}
	defer rows.Close()

	var result []models.Workout
	index := map[uuid.UUID]int{}
	for rows.Next() {
		w := models.Workout{UserID: userID}
		if err := rows.Scan(&w.ID, &w.Date, &w.Category, &w.Variation, &w.DurationSec); err != nil {
			return nil, fmt.Errorf("scanning workout: %w", err)
		}
		index[w.ID] = len(result)
		result = append(result, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return result, nil
	}

	ids := make([]uuid.UUID, len(result))
	for i, w := range result {
		ids[i] = w.ID
	}
	setRows, err := db.Pool.Query(ctx,
		`SELECT workout_id, exercise_id, set_number, reps, weight, to_failure
		 FROM workout_sets WHERE workout_id = ANY($1)
		 ORDER BY workout_id, position`, ids)
	if err != nil {
		return nil, fmt.Errorf("querying workout sets: %w", err)
	}
	defer setRows.Close()

	for setRows.Next() {
		var id uuid.UUID
		var s models.WorkoutSet
		if err := setRows.Scan(&id, &s.ExerciseID, &s.SetNumber, &s.Reps, &s.Weight, &s.ToFailure); err != nil {
			return nil, fmt.Errorf("scanning workout set: %w", err)
		}
		i := index[id]
		result[i].Sets = append(result[i].Sets, s)
	}
	return result, setRows.Err()
}

// GetWorkout retrieves a single workout by ID with its sets.
func (db *DB) GetWorkout(ctx context.Context, userID int, id uuid.UUID) (*models.Workout, error) {
	w := &models.Workout{UserID: userID}
	err := db.Pool.QueryRow(ctx,
		`SELECT id, date, category, variation, duration_sec
		 FROM workouts WHERE id = $1 AND user_id = $2`,
		id, userID).Scan(&w.ID, &w.Date, &w.Category, &w.Variation, &w.DurationSec)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, training.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying workout: %w", err)
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT exercise_id, set_number, reps, weight, to_failure
		 FROM workout_sets WHERE workout_id = $1
		 ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("querying workout sets: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s models.WorkoutSet
		if err := rows.Scan(&s.ExerciseID, &s.SetNumber, &s.Reps, &s.Weight, &s.ToFailure); err != nil {
			return nil, fmt.Errorf("scanning workout set: %w", err)
		}
		w.Sets = append(w.Sets, s)
	}
	return w, rows.Err()
}
