package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/claude/fitforge/internal/models"
	"github.com/claude/fitforge/internal/muscle"
)

// ListMuscleStates returns the stored states of one user in muscle order.
func (db *DB) ListMuscleStates(ctx context.Context, userID int) ([]models.MuscleState, error) {
	return listMuscleStates(ctx, db.Pool, userID, false)
}

func listMuscleStates(ctx context.Context, q querier, userID int, lock bool) ([]models.MuscleState, error) {
	query := `SELECT muscle, fatigue_percent, volume_today, last_trained, recovered_at
		 FROM muscle_states WHERE user_id = $1`
	if lock {
		query += " FOR UPDATE"
	}
	rows, err := q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying muscle states: %w", err)
	}
	defer rows.Close()

	byMuscle := map[muscle.Muscle]models.MuscleState{}
	for rows.Next() {
		var name string
		st := models.MuscleState{UserID: userID}
		if err := rows.Scan(&name, &st.FatiguePercent, &st.VolumeToday, &st.LastTrained, &st.RecoveredAt); err != nil {
			return nil, fmt.Errorf("scanning muscle state: %w", err)
		}
		if st.Muscle, err = muscle.Parse(name); err != nil {
			return nil, fmt.Errorf("scanning muscle state: %w", err)
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

// UpsertMuscleStates inserts or overwrites the given states.
func (db *DB) UpsertMuscleStates(ctx context.Context, userID int, states []models.MuscleState) error {
	return upsertMuscleStates(ctx, db.Pool, userID, states)
}

func upsertMuscleStates(ctx context.Context, q querier, userID int, states []models.MuscleState) error {
	if len(states) == 0 {
		return nil
	}

	query := `INSERT INTO muscle_states (user_id, muscle, fatigue_percent, volume_today, last_trained, recovered_at) VALUES `
	args := make([]any, 0, len(states)*6)
	valueStrings := make([]string, 0, len(states))

	for i, st := range states {
		base := i * 6
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6,
		))
		args = append(args, userID, st.Muscle.String(), st.FatiguePercent, st.VolumeToday, st.LastTrained, st.RecoveredAt)
	}

	query += strings.Join(valueStrings, ",") + `
		ON CONFLICT (user_id, muscle) DO UPDATE SET
			fatigue_percent = EXCLUDED.fatigue_percent,
			volume_today = EXCLUDED.volume_today,
			last_trained = EXCLUDED.last_trained,
			recovered_at = EXCLUDED.recovered_at`

	if _, err := q.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upserting muscle states: %w", err)
	}
	return nil
}
