package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/claude/fitforge/internal/models"
	"github.com/claude/fitforge/internal/muscle"
)

// ListBaselines returns the baselines of one user in muscle order.
func (db *DB) ListBaselines(ctx context.Context, userID int) ([]models.MuscleBaseline, error) {
	return listBaselines(ctx, db.Pool, userID)
}

func listBaselines(ctx context.Context, q querier, userID int) ([]models.MuscleBaseline, error) {
	rows, err := q.Query(ctx,
		`SELECT muscle, system_learned_max, user_override, updated_at
		 FROM muscle_baselines WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying baselines: %w", err)
	}
	defer rows.Close()

	byMuscle := map[muscle.Muscle]models.MuscleBaseline{}
	for rows.Next() {
		var name string
		b := models.MuscleBaseline{UserID: userID}
		if err := rows.Scan(&name, &b.SystemLearnedMax, &b.UserOverride, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning baseline: %w", err)
		}
		if b.Muscle, err = muscle.Parse(name); err != nil {
			return nil, fmt.Errorf("scanning baseline: %w", err)
		}
		byMuscle[b.Muscle] = b
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return inMuscleOrder(byMuscle), nil
}

// InsertMissingBaselines seeds learnedMax for muscles without a row.
// Returns the number of rows created.
func (db *DB) InsertMissingBaselines(ctx context.Context, userID int, muscles []muscle.Muscle, learnedMax float64) (int, error) {
	if len(muscles) == 0 {
		return 0, nil
	}

	query := `INSERT INTO muscle_baselines (user_id, muscle, system_learned_max) VALUES `
	args := make([]any, 0, len(muscles)*3)
	valueStrings := make([]string, 0, len(muscles))
	for i, m := range muscles {
		base := i * 3
		valueStrings = append(valueStrings, fmt.Sprintf("($%d,$%d,$%d)", base+1, base+2, base+3))
		args = append(args, userID, m.String(), learnedMax)
	}
	query += strings.Join(valueStrings, ",") + " ON CONFLICT DO NOTHING"

	tag, err := db.Pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("inserting baselines: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// SetLearnedBaseline stores a new system-learned max.
func (db *DB) SetLearnedBaseline(ctx context.Context, userID int, m muscle.Muscle, value float64) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO muscle_baselines (user_id, muscle, system_learned_max)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, muscle) DO UPDATE
			SET system_learned_max = EXCLUDED.system_learned_max, updated_at = NOW()
	`, userID, m.String(), value)
	if err != nil {
		return fmt.Errorf("setting learned baseline: %w", err)
	}
	return nil
}

// SetBaselineOverride sets or clears the user override of one muscle.
func (db *DB) SetBaselineOverride(ctx context.Context, userID int, m muscle.Muscle, value *float64) error {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE muscle_baselines SET user_override = $3, updated_at = NOW()
		WHERE user_id = $1 AND muscle = $2
	`, userID, m.String(), value)
	if err != nil {
		return fmt.Errorf("setting baseline override: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("setting baseline override: no baseline for %s", m)
	}
	return nil
}
