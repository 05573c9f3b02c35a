package localstore

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/claude/fitforge/internal/exercise"
	"github.com/claude/fitforge/internal/models"
	"github.com/claude/fitforge/internal/muscle"
	"github.com/claude/fitforge/internal/training"
)

var t0 = time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fitforge.db")
	s, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func newService(t *testing.T, s *Store, baseline float64) *training.Service {
	t.Helper()
	lib, err := exercise.Default()
	if err != nil {
		t.Fatal(err)
	}
	svc := training.New(s, lib, training.Options{DefaultBaseline: baseline}, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.Now = func() time.Time { return t0 }
	if err := svc.EnsureDefaults(context.Background(), 1); err != nil {
		t.Fatal(err)
	}
	return svc
}

func goblet(n, reps int, weight float64) []models.WorkoutSet {
	sets := make([]models.WorkoutSet, n)
	for i := range sets {
		sets[i] = models.WorkoutSet{ExerciseID: "goblet-squat", Reps: reps, Weight: weight}
	}
	return sets
}

// TestLocalUserSeeded verifies a fresh database resolves "local" to user 1.
func TestLocalUserSeeded(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	id, err := s.GetOrCreateUser(ctx, "local", "")
	if err != nil {
		t.Fatal(err)
	}
	if id != 1 {
		t.Errorf("local user id = %d, want 1", id)
	}
	other, err := s.GetOrCreateUser(ctx, "alice@example.com", "Alice")
	if err != nil {
		t.Fatal(err)
	}
	if other == id {
		t.Errorf("second login reused id %d", id)
	}
}

// TestCompleteAndReopen verifies a completed workout survives reopening the file.
func TestCompleteAndReopen(t *testing.T) {
	s, path := openTestStore(t)
	svc := newService(t, s, 1400)
	ctx := context.Background()

	out, err := svc.Complete(ctx, 1, training.CompleteRequest{Date: t0, Category: "Legs", Sets: goblet(3, 10, 70)})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(out.Fatigue[muscle.Quadriceps]-97.5) > 1e-9 {
		t.Errorf("Quadriceps = %v, want 97.5", out.Fatigue[muscle.Quadriceps])
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	states, err := reopened.ListMuscleStates(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	var quads *models.MuscleState
	for i := range states {
		if states[i].Muscle == muscle.Quadriceps {
			quads = &states[i]
		}
	}
	if quads == nil || math.Abs(quads.FatiguePercent-97.5) > 1e-9 || quads.LastTrained == nil || !quads.LastTrained.Equal(t0) {
		t.Fatalf("Quadriceps state = %+v", quads)
	}
	if quads.VolumeToday != 1365 {
		t.Errorf("volume today = %v, want 1365", quads.VolumeToday)
	}

	w, err := reopened.GetWorkout(ctx, 1, out.WorkoutID)
	if err != nil {
		t.Fatal(err)
	}
	if w.Category != "Legs" || len(w.Sets) != 3 || w.Sets[1].SetNumber != 2 || !w.Date.Equal(t0) {
		t.Errorf("workout = %+v", w)
	}
	if _, err := reopened.GetWorkout(ctx, 1, uuid.New()); !errors.Is(err, training.ErrNotFound) {
		t.Errorf("missing workout error = %v, want ErrNotFound", err)
	}
}

// TestConcurrentCompletions verifies the single connection serializes
// completions so no fatigue update is lost.
func TestConcurrentCompletions(t *testing.T) {
	s, _ := openTestStore(t)
	svc := newService(t, s, 5000)
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Complete(ctx, 1, training.CompleteRequest{Date: t0, Sets: goblet(1, 10, 10)}); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	states, err := svc.MuscleStates(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got := states[muscle.Quadriceps].CurrentFatigue; math.Abs(got-n*1.3) > 1e-6 {
		t.Errorf("Quadriceps = %v, want %v", got, n*1.3)
	}
}

// TestHistoryQueries verifies range filtering and recent exercise ids.
func TestHistoryQueries(t *testing.T) {
	s, _ := openTestStore(t)
	svc := newService(t, s, 5000)
	ctx := context.Background()

	old := training.CompleteRequest{Date: t0.AddDate(0, 0, -10), Sets: []models.WorkoutSet{
		{ExerciseID: "push-up", Reps: 10},
	}}
	recent := training.CompleteRequest{Date: t0.Add(-time.Hour), Sets: []models.WorkoutSet{
		{ExerciseID: "goblet-squat", Reps: 10, Weight: 20},
		{ExerciseID: "push-up", Reps: 10},
		{ExerciseID: "goblet-squat", Reps: 8, Weight: 20},
	}}
	for _, req := range []training.CompleteRequest{old, recent} {
		if _, err := svc.Complete(ctx, 1, req); err != nil {
			t.Fatal(err)
		}
	}

	ids, err := s.RecentExerciseIDs(ctx, 1, t0.AddDate(0, 0, -7))
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || ids[0] != "goblet-squat" || ids[1] != "push-up" {
		t.Errorf("recent ids = %v, want [goblet-squat push-up]", ids)
	}

	ws, err := s.ListWorkouts(ctx, 1, t0.AddDate(0, 0, -30), t0)
	if err != nil {
		t.Fatal(err)
	}
	if len(ws) != 2 || len(ws[0].Sets) != 3 || len(ws[1].Sets) != 1 {
		t.Errorf("workouts = %+v", ws)
	}
}

// TestCalibrationsAndOverrides verifies replace, delete and override round trips.
func TestCalibrationsAndOverrides(t *testing.T) {
	s, _ := openTestStore(t)
	svc := newService(t, s, 5000)
	ctx := context.Background()

	if _, err := svc.SetCalibration(ctx, 1, "push-up", map[muscle.Muscle]float64{muscle.Pectoralis: 90}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.SetCalibration(ctx, 1, "push-up", map[muscle.Muscle]float64{muscle.Pectoralis: 80}); err != nil {
		t.Fatal(err)
	}
	rows, err := s.ListCalibrations(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].Percentage != 80 {
		t.Errorf("calibrations = %+v, want one row at 80", rows)
	}
	n, err := s.DeleteCalibrations(ctx, 1, "push-up")
	if err != nil || n != 1 {
		t.Errorf("delete = %d, %v", n, err)
	}

	v := 4200.0
	b, err := svc.SetBaselineOverride(ctx, 1, muscle.Core, &v)
	if err != nil {
		t.Fatal(err)
	}
	if b.UserOverride == nil || *b.UserOverride != 4200 {
		t.Errorf("override = %v, want 4200", b.UserOverride)
	}
	b, err = svc.SetBaselineOverride(ctx, 1, muscle.Core, nil)
	if err != nil {
		t.Fatal(err)
	}
	if b.UserOverride != nil {
		t.Errorf("override not cleared: %v", *b.UserOverride)
	}
}

// TestSchemaMismatch verifies a database from another schema version is refused.
func TestSchemaMismatch(t *testing.T) {
	s, path := openTestStore(t)
	if _, err := s.db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatal(err)
	}
	_ = s.Close()

	if _, err := Open(context.Background(), path); !errors.Is(err, ErrSchemaMismatch) {
		t.Errorf("err = %v, want ErrSchemaMismatch", err)
	}
}
