package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/claude/fitforge/internal/models"
	"github.com/claude/fitforge/internal/muscle"
)

// ListCalibrations returns every engagement override of one user.
func (db *DB) ListCalibrations(ctx context.Context, userID int) ([]models.Calibration, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT exercise_id, muscle, percentage, updated_at
		 FROM calibrations WHERE user_id = $1
		 ORDER BY exercise_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying calibrations: %w", err)
	}
	defer rows.Close()

	var result []models.Calibration
	for rows.Next() {
		var name string
		c := models.Calibration{UserID: userID}
		if err := rows.Scan(&c.ExerciseID, &name, &c.Percentage, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning calibration: %w", err)
		}
		if c.Muscle, err = muscle.Parse(name); err != nil {
			return nil, fmt.Errorf("scanning calibration: %w", err)
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// ReplaceCalibrations swaps the overrides of one exercise in a transaction.
func (db *DB) ReplaceCalibrations(ctx context.Context, userID int, exerciseID string, rows []models.Calibration) error {
	return db.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM calibrations WHERE user_id = $1 AND exercise_id = $2`,
			userID, exerciseID); err != nil {
			return fmt.Errorf("clearing calibrations: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}

		query := `INSERT INTO calibrations (user_id, exercise_id, muscle, percentage, updated_at) VALUES `
		args := make([]any, 0, len(rows)*5)
		valueStrings := make([]string, 0, len(rows))
		for i, c := range rows {
			base := i * 5
			valueStrings = append(valueStrings, fmt.Sprintf(
				"($%d,$%d,$%d,$%d,$%d)", base+1, base+2, base+3, base+4, base+5,
			))
			args = append(args, userID, exerciseID, c.Muscle.String(), c.Percentage, c.UpdatedAt)
		}
		if _, err := tx.Exec(ctx, query+strings.Join(valueStrings, ","), args...); err != nil {
			return fmt.Errorf("inserting calibrations: %w", err)
		}
		return nil
	})
}

// DeleteCalibrations removes every override of one exercise.
func (db *DB) DeleteCalibrations(ctx context.Context, userID int, exerciseID string) (int64, error) {
	tag, err := db.Pool.Exec(ctx,
		`DELETE FROM calibrations WHERE user_id = $1 AND exercise_id = $2`,
		userID, exerciseID)
	if err != nil {
		return 0, fmt.Errorf("deleting calibrations: %w", err)
	}
	return tag.RowsAffected(), nil
}
