package training

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/claude/fitforge/internal/models"
	"github.com/claude/fitforge/internal/muscle"
	"github.com/google/uuid"
)

// MemStore is an in-memory Store. It backs the "memory" database driver
// and the package tests. A single mutex serializes every call.
type MemStore struct {
	mu        sync.Mutex
	users     map[string]int
	states    map[int]map[muscle.Muscle]models.MuscleState
	baselines map[int]map[muscle.Muscle]models.MuscleBaseline
	cal       map[int]map[string][]models.Calibration
	workouts  map[int][]models.Workout
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		users:     map[string]int{},
		states:    map[int]map[muscle.Muscle]models.MuscleState{},
		baselines: map[int]map[muscle.Muscle]models.MuscleBaseline{},
		cal:       map[int]map[string][]models.Calibration{},
		workouts:  map[int][]models.Workout{},
	}
}

var _ Store = (*MemStore)(nil)

func (m *MemStore) GetOrCreateUser(_ context.Context, login, _ string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.users[login]; ok {
		return id, nil
	}
	id := len(m.users) + 1
	m.users[login] = id
	return id, nil
}

func (m *MemStore) ListMuscleStates(_ context.Context, userID int) ([]models.MuscleState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listStates(userID), nil
}

func (m *MemStore) listStates(userID int) []models.MuscleState {
	var out []models.MuscleState
	for _, mu := range muscle.All() {
		if st, ok := m.states[userID][mu]; ok {
			out = append(out, st)
		}
	}
	return out
}

func (m *MemStore) UpsertMuscleStates(_ context.Context, userID int, states []models.MuscleState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putStates(userID, states)
	return nil
}

func (m *MemStore) putStates(userID int, states []models.MuscleState) {
	if m.states[userID] == nil {
		m.states[userID] = map[muscle.Muscle]models.MuscleState{}
	}
	for _, st := range states {
		st.UserID = userID
		m.states[userID][st.Muscle] = st
	}
}

func (m *MemStore) ListBaselines(_ context.Context, userID int) ([]models.MuscleBaseline, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listBaselines(userID), nil
}

func (m *MemStore) listBaselines(userID int) []models.MuscleBaseline {
	var out []models.MuscleBaseline
	for _, mu := range muscle.All() {
		if b, ok := m.baselines[userID][mu]; ok {
			out = append(out, b)
		}
	}
	return out
}

func (m *MemStore) InsertMissingBaselines(_ context.Context, userID int, muscles []muscle.Muscle, learnedMax float64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.baselines[userID] == nil {
		m.baselines[userID] = map[muscle.Muscle]models.MuscleBaseline{}
	}
	n := 0
	for _, mu := range muscles {
		if _, ok := m.baselines[userID][mu]; ok {
			continue
		}
		m.baselines[userID][mu] = models.MuscleBaseline{UserID: userID, Muscle: mu, SystemLearnedMax: learnedMax, UpdatedAt: time.Now().UTC()}
		n++
	}
	return n, nil
}

func (m *MemStore) SetLearnedBaseline(_ context.Context, userID int, mu muscle.Muscle, value float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.baseline(userID, mu)
	b.SystemLearnedMax = value
	b.UpdatedAt = time.Now().UTC()
	m.baselines[userID][mu] = b
	return nil
}

func (m *MemStore) SetBaselineOverride(_ context.Context, userID int, mu muscle.Muscle, value *float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.baseline(userID, mu)
	if value != nil {
		v := *value
		value = &v
	}
	b.UserOverride = value
	b.UpdatedAt = time.Now().UTC()
	m.baselines[userID][mu] = b
	return nil
}

func (m *MemStore) baseline(userID int, mu muscle.Muscle) models.MuscleBaseline {
	if m.baselines[userID] == nil {
		m.baselines[userID] = map[muscle.Muscle]models.MuscleBaseline{}
	}
	b, ok := m.baselines[userID][mu]
	if !ok {
		b = models.MuscleBaseline{UserID: userID, Muscle: mu}
	}
	return b
}

func (m *MemStore) ListCalibrations(_ context.Context, userID int) ([]models.Calibration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.cal[userID]))
	for id := range m.cal[userID] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var out []models.Calibration
	for _, id := range ids {
		out = append(out, m.cal[userID][id]...)
	}
	return out, nil
}

func (m *MemStore) ReplaceCalibrations(_ context.Context, userID int, exerciseID string, rows []models.Calibration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cal[userID] == nil {
		m.cal[userID] = map[string][]models.Calibration{}
	}
	m.cal[userID][exerciseID] = slices.Clone(rows)
	return nil
}

func (m *MemStore) DeleteCalibrations(_ context.Context, userID int, exerciseID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.cal[userID][exerciseID])
	delete(m.cal[userID], exerciseID)
	return int64(n), nil
}

func (m *MemStore) RecentExerciseIDs(_ context.Context, userID int, since time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ws := slices.Clone(m.workouts[userID])
	sort.SliceStable(ws, func(i, j int) bool { return ws[i].Date.After(ws[j].Date) })
	var out []string
	for _, w := range ws {
		if w.Date.Before(since) {
			continue
		}
		out = append(out, w.ExerciseIDs()...)
	}
	return out, nil
}

func (m *MemStore) ListWorkouts(_ context.Context, userID int, start, end time.Time) ([]models.Workout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Workout
	for _, w := range m.workouts[userID] {
		if w.Date.Before(start) || !w.Date.Before(end) {
			continue
		}
		w.Sets = slices.Clone(w.Sets)
		out = append(out, w)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (m *MemStore) GetWorkout(_ context.Context, userID int, id uuid.UUID) (*models.Workout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.workouts[userID] {
		if w.ID == id {
			w.Sets = slices.Clone(w.Sets)
			return &w, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemStore) CompleteWorkout(_ context.Context, userID int, w *models.Workout, fn ApplyFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	updated, err := fn(m.listStates(userID), m.listBaselines(userID))
	if err != nil {
		return err
	}
	m.putStates(userID, updated)
	cp := *w
	cp.Sets = slices.Clone(w.Sets)
	m.workouts[userID] = append(m.workouts[userID], cp)
	return nil
}

// Workouts returns the stored workouts of one user in insertion order.
func (m *MemStore) Workouts(userID int) []models.Workout {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.workouts[userID])
}
