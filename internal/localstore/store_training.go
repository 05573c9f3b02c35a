package localstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/claude/fitforge/internal/models"
	"github.com/claude/fitforge/internal/muscle"
	"github.com/claude/fitforge/internal/training"
)

func (s *Store) ListMuscleStates(ctx context.Context, userID int) ([]models.MuscleState, error) {
	return listMuscleStates(ctx, s.db, userID)
}

func listMuscleStates(ctx context.Context, q queryer, userID int) ([]models.MuscleState, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT muscle, fatigue_percent, volume_today, last_trained, recovered_at
		 FROM muscle_states WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("query muscle states: %w", err)
	}
	defer rows.Close()

	byMuscle := map[muscle.Muscle]models.MuscleState{}
	for rows.Next() {
		var name string
		var trained, recovered sql.NullString
		st := models.MuscleState{UserID: userID}
		if err := rows.Scan(&name, &st.FatiguePercent, &st.VolumeToday, &trained, &recovered); err != nil {
			return nil, fmt.Errorf("scan muscle state: %w", err)
		}
		if st.Muscle, err = muscle.Parse(name); err != nil {
			return nil, fmt.Errorf("scan muscle state: %w", err)
		}
		if st.LastTrained, err = parseNullableTime(trained); err != nil {
			return nil, err
		}
		if st.RecoveredAt, err = parseNullableTime(recovered); err != nil {
			return nil, err
		}
		byMuscle[st.Muscle] = st
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return inMuscleOrder(byMuscle), nil
}

func inMuscleOrder[T any](byMuscle map[muscle.Muscle]T) []T {
	out := make([]T, 0, len(byMuscle))
	for _, m := range muscle.All() {
		if v, ok := byMuscle[m]; ok {
			out = append(out, v)
		}
	}
	return out
}

func (s *Store) UpsertMuscleStates(ctx context.Context, userID int, states []models.MuscleState) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return upsertMuscleStates(ctx, tx, userID, states)
	})
}

func upsertMuscleStates(ctx context.Context, q queryer, userID int, states []models.MuscleState) error {
	for _, st := range states {
		if _, err := q.ExecContext(ctx, `
			INSERT INTO muscle_states (user_id, muscle, fatigue_percent, volume_today, last_trained, recovered_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (user_id, muscle) DO UPDATE SET
				fatigue_percent = excluded.fatigue_percent,
				volume_today = excluded.volume_today,
				last_trained = excluded.last_trained,
				recovered_at = excluded.recovered_at`,
			userID, st.Muscle.String(), st.FatiguePercent, st.VolumeToday,
			nullableTime(st.LastTrained), nullableTime(st.RecoveredAt),
		); err != nil {
			return fmt.Errorf("upsert muscle state %s: %w", st.Muscle, err)
		}
	}
	return nil
}

func (s *Store) ListBaselines(ctx context.Context, userID int) ([]models.MuscleBaseline, error) {
	return listBaselines(ctx, s.db, userID)
}

func listBaselines(ctx context.Context, q queryer, userID int) ([]models.MuscleBaseline, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT muscle, system_learned_max, user_override, updated_at
		 FROM muscle_baselines WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("query baselines: %w", err)
	}
	defer rows.Close()

	byMuscle := map[muscle.Muscle]models.MuscleBaseline{}
	for rows.Next() {
		var name, updated string
		var override sql.NullFloat64
		b := models.MuscleBaseline{UserID: userID}
		if err := rows.Scan(&name, &b.SystemLearnedMax, &override, &updated); err != nil {
			return nil, fmt.Errorf("scan baseline: %w", err)
		}
		if b.Muscle, err = muscle.Parse(name); err != nil {
			return nil, fmt.Errorf("scan baseline: %w", err)
		}
		if override.Valid {
			v := override.Float64
			b.UserOverride = &v
		}
		if b.UpdatedAt, err = parseTime(updated); err != nil {
			return nil, err
		}
		byMuscle[b.Muscle] = b
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return inMuscleOrder(byMuscle), nil
}

func (s *Store) InsertMissingBaselines(ctx context.Context, userID int, muscles []muscle.Muscle, learnedMax float64) (int, error) {
	inserted := 0
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		now := formatTime(nowUTC())
		for _, m := range muscles {
			res, err := tx.ExecContext(ctx,
				`INSERT INTO muscle_baselines (user_id, muscle, system_learned_max, updated_at)
				 VALUES (?, ?, ?, ?) ON CONFLICT DO NOTHING`,
				userID, m.String(), learnedMax, now)
			if err != nil {
				return fmt.Errorf("insert baseline %s: %w", m, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("rows affected: %w", err)
			}
			inserted += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

func (s *Store) SetLearnedBaseline(ctx context.Context, userID int, m muscle.Muscle, value float64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO muscle_baselines (user_id, muscle, system_learned_max, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, muscle) DO UPDATE
			SET system_learned_max = excluded.system_learned_max, updated_at = excluded.updated_at`,
		userID, m.String(), value, formatTime(nowUTC()))
	if err != nil {
		return fmt.Errorf("set learned baseline: %w", err)
	}
	return nil
}

func (s *Store) SetBaselineOverride(ctx context.Context, userID int, m muscle.Muscle, value *float64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE muscle_baselines SET user_override = ?, updated_at = ? WHERE user_id = ? AND muscle = ?`,
		nullableFloat(value), formatTime(nowUTC()), userID, m.String())
	if err != nil {
		return fmt.Errorf("set baseline override: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("set baseline override: no baseline for %s", m)
	}
	return nil
}

func (s *Store) ListCalibrations(ctx context.Context, userID int) ([]models.Calibration, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT exercise_id, muscle, percentage, updated_at
		 FROM calibrations WHERE user_id = ? ORDER BY exercise_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query calibrations: %w", err)
	}
	defer rows.Close()

	var result []models.Calibration
	for rows.Next() {
		var name, updated string
		c := models.Calibration{UserID: userID}
		if err := rows.Scan(&c.ExerciseID, &name, &c.Percentage, &updated); err != nil {
			return nil, fmt.Errorf("scan calibration: %w", err)
		}
		if c.Muscle, err = muscle.Parse(name); err != nil {
			return nil, fmt.Errorf("scan calibration: %w", err)
		}
		if c.UpdatedAt, err = parseTime(updated); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (s *Store) ReplaceCalibrations(ctx context.Context, userID int, exerciseID string, rows []models.Calibration) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM calibrations WHERE user_id = ? AND exercise_id = ?`, userID, exerciseID); err != nil {
			return fmt.Errorf("clear calibrations: %w", err)
		}
		for _, c := range rows {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO calibrations (user_id, exercise_id, muscle, percentage, updated_at) VALUES (?, ?, ?, ?, ?)`,
				userID, exerciseID, c.Muscle.String(), c.Percentage, formatTime(c.UpdatedAt)); err != nil {
				return fmt.Errorf("insert calibration: %w", err)
			}
		}
		return nil
	})
}

func (s *Store) DeleteCalibrations(ctx context.Context, userID int, exerciseID string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM calibrations WHERE user_id = ? AND exercise_id = ?`, userID, exerciseID)
	if err != nil {
		return 0, fmt.Errorf("delete calibrations: %w", err)
	}
	return res.RowsAffected()
}

// CompleteWorkout runs in one transaction. The pool holds a single
// connection, so concurrent completions queue behind each other.
func (s *Store) CompleteWorkout(ctx context.Context, userID int, w *models.Workout, fn training.ApplyFunc) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		states, err := listMuscleStates(ctx, tx, userID)
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

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO workouts (id, user_id, date, category, variation, duration_sec, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			w.ID.String(), userID, formatTime(w.Date), w.Category, w.Variation, w.DurationSec, formatTime(nowUTC())); err != nil {
			return fmt.Errorf("insert workout: %w", err)
		}
		for i, set := range w.Sets {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO workout_sets (workout_id, position, exercise_id, set_number, reps, weight, to_failure)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				w.ID.String(), i, set.ExerciseID, set.SetNumber, set.Reps, set.Weight, set.ToFailure); err != nil {
				return fmt.Errorf("insert workout set: %w", err)
			}
		}
		return upsertMuscleStates(ctx, tx, userID, updated)
	})
}

func (s *Store) RecentExerciseIDs(ctx context.Context, userID int, since time.Time) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT s.exercise_id, MIN(s.position) AS first_pos
		 FROM workouts w JOIN workout_sets s ON s.workout_id = w.id
		 WHERE w.user_id = ? AND w.date >= ?
		 GROUP BY w.id, w.date, s.exercise_id
		 ORDER BY w.date DESC, w.id, first_pos`,
		userID, formatTime(since))
	if err != nil {
		return nil, fmt.Errorf("query recent exercises: %w", err)
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var id string
		var first int
		if err := rows.Scan(&id, &first); err != nil {
			return nil, fmt.Errorf("scan recent exercise: %w", err)
		}
		result = append(result, id)
	}
	return result, rows.Err()
}

func (s *Store) ListWorkouts(ctx context.Context, userID int, start, end time.Time) ([]models.Workout, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, date, category, variation, duration_sec
		 FROM workouts WHERE user_id = ? AND date >= ? AND date < ?
		 ORDER BY date DESC`,
		userID, formatTime(start), formatTime(end))
	if err != nil {
		return nil, fmt.Errorf("query workouts: %w", err)
	}
	var result []models.Workout
	for rows.Next() {
		w, err := scanWorkout(rows.Scan, userID)
		if err != nil {
			rows.Close()
			return nil, err
		}
		result = append(result, *w)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range result {
		if result[i].Sets, err = s.workoutSets(ctx, result[i].ID); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (s *Store) GetWorkout(ctx context.Context, userID int, id uuid.UUID) (*models.Workout, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, date, category, variation, duration_sec
		 FROM workouts WHERE id = ? AND user_id = ?`, id.String(), userID)
	w, err := scanWorkout(row.Scan, userID)
	if isNoRows(err) {
		return nil, training.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if w.Sets, err = s.workoutSets(ctx, w.ID); err != nil {
		return nil, err
	}
	return w, nil
}

func scanWorkout(scan func(dest ...any) error, userID int) (*models.Workout, error) {
	var id, date string
	w := &models.Workout{UserID: userID}
	if err := scan(&id, &date, &w.Category, &w.Variation, &w.DurationSec); err != nil {
		if isNoRows(err) {
			return nil, err
		}
		return nil, fmt.Errorf("scan workout: %w", err)
	}
	var err error
	if w.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("scan workout id: %w", err)
	}
	if w.Date, err = parseTime(date); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *Store) workoutSets(ctx context.Context, id uuid.UUID) ([]models.WorkoutSet, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT exercise_id, set_number, reps, weight, to_failure
		 FROM workout_sets WHERE workout_id = ? ORDER BY position`, id.String())
	if err != nil {
		return nil, fmt.Errorf("query workout sets: %w", err)
	}
	defer rows.Close()

	var result []models.WorkoutSet
	for rows.Next() {
		var ws models.WorkoutSet
		if err := rows.Scan(&ws.ExerciseID, &ws.SetNumber, &ws.Reps, &ws.Weight, &ws.ToFailure); err != nil {
			return nil, fmt.Errorf("scan workout set: %w", err)
		}
		result = append(result, ws)
	}
	return result, rows.Err()
}
