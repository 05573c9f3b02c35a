package training

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/claude/fitforge/internal/exercise"
	"github.com/claude/fitforge/internal/fatigue"
	"github.com/claude/fitforge/internal/forecast"
	"github.com/claude/fitforge/internal/models"
	"github.com/claude/fitforge/internal/muscle"
)

var t0 = time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)

type countingRecorder struct {
	mu          sync.Mutex
	served      int
	bottlenecks int
	workouts    int
}

func (c *countingRecorder) RecommendationsServed(safe, unsafe int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.served += safe + unsafe
}

func (c *countingRecorder) BottlenecksFlagged(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bottlenecks += n
}

func (c *countingRecorder) WorkoutCompleted(int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.workouts++
}

func newTestService(t *testing.T, opts Options) (*Service, *MemStore, *countingRecorder) {
	t.Helper()
	lib, err := exercise.Default()
	if err != nil {
		t.Fatal(err)
	}
	store := NewMemStore()
	rec := &countingRecorder{}
	svc := New(store, lib, opts, rec, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.Now = func() time.Time { return t0 }
	if err := svc.EnsureDefaults(context.Background(), 1); err != nil {
		t.Fatal(err)
	}
	return svc, store, rec
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func gobletSets(n, reps int, weight float64) []models.WorkoutSet {
	sets := make([]models.WorkoutSet, n)
	for i := range sets {
		sets[i] = models.WorkoutSet{ExerciseID: "goblet-squat", Reps: reps, Weight: weight}
	}
	return sets
}

// TestEnsureDefaultsIdempotent verifies default baselines are only seeded once.
func TestEnsureDefaultsIdempotent(t *testing.T) {
	svc, store, _ := newTestService(t, Options{DefaultBaseline: 1234})
	ctx := context.Background()

	if _, err := svc.SetBaselineOverride(ctx, 1, muscle.Core, ptrFloat(900)); err != nil {
		t.Fatal(err)
	}
	if err := svc.EnsureDefaults(ctx, 1); err != nil {
		t.Fatal(err)
	}
	rows, _ := store.ListBaselines(ctx, 1)
	if len(rows) != muscle.Count {
		t.Fatalf("baselines = %d, want %d", len(rows), muscle.Count)
	}
	for _, b := range rows {
		if b.SystemLearnedMax != 1234 {
			t.Errorf("%s learned = %v, want 1234", b.Muscle, b.SystemLearnedMax)
		}
	}
	if v, _ := rows[muscle.Core-1].Effective(); v != 900 {
		t.Errorf("Core effective = %v, want override 900", v)
	}
}

func ptrFloat(v float64) *float64 { return &v }

// TestCompleteFoldsFatigue verifies a completed workout updates muscle state
// and stores the workout.
func TestCompleteFoldsFatigue(t *testing.T) {
	svc, store, rec := newTestService(t, Options{DefaultBaseline: 1400})
	ctx := context.Background()

	out, err := svc.Complete(ctx, 1, CompleteRequest{Date: t0, Sets: gobletSets(3, 10, 70)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !near(out.Fatigue[muscle.Quadriceps], 97.5) {
		t.Errorf("Quadriceps = %v, want 97.5", out.Fatigue[muscle.Quadriceps])
	}
	if len(out.Fatigue) != muscle.Count {
		t.Errorf("fatigue map has %d muscles, want %d", len(out.Fatigue), muscle.Count)
	}
	if out.Summary.TotalSets != 3 || out.Summary.TotalReps != 30 || out.Summary.TotalVolume != 2100 || out.Summary.Exercises != 1 {
		t.Errorf("summary = %+v", out.Summary)
	}

	states, _ := store.ListMuscleStates(ctx, 1)
	var quads *models.MuscleState
	for i := range states {
		if states[i].Muscle == muscle.Quadriceps {
			quads = &states[i]
		}
	}
	if quads == nil || !near(quads.FatiguePercent, 97.5) || !quads.LastTrained.Equal(t0) || quads.VolumeToday != 1365 {
		t.Errorf("stored Quadriceps state = %+v", quads)
	}
	ws := store.Workouts(1)
	if len(ws) != 1 || ws[0].ID != out.WorkoutID || ws[0].Sets[2].SetNumber != 3 {
		t.Errorf("stored workouts = %+v", ws)
	}
	if rec.workouts != 1 {
		t.Errorf("recorded workouts = %d, want 1", rec.workouts)
	}
}

// TestCompleteDecaysPriorFatigue verifies existing fatigue is recovered up to
// the workout date before the new delta is added.
func TestCompleteDecaysPriorFatigue(t *testing.T) {
	svc, store, _ := newTestService(t, Options{DefaultBaseline: 5000})
	ctx := context.Background()
	earlier := t0.Add(-24 * time.Hour)
	if err := store.UpsertMuscleStates(ctx, 1, []models.MuscleState{
		{Muscle: muscle.Quadriceps, FatiguePercent: 31, VolumeToday: 999, LastTrained: &earlier},
	}); err != nil {
		t.Fatal(err)
	}

	// 10x100 at 65% against 5000 adds 13.
	out, err := svc.Complete(ctx, 1, CompleteRequest{Date: t0, Sets: gobletSets(1, 10, 100)})
	if err != nil {
		t.Fatal(err)
	}
	if !near(out.Fatigue[muscle.Quadriceps], 29) {
		t.Errorf("Quadriceps = %v, want 16 + 13", out.Fatigue[muscle.Quadriceps])
	}
	states, _ := svc.MuscleStates(ctx, 1)
	if states[muscle.Quadriceps].VolumeToday != 650 {
		t.Errorf("volume today = %v, want 650 (previous day not carried)", states[muscle.Quadriceps].VolumeToday)
	}
}

// TestCompleteBackdatedWorkout verifies a workout dated before the latest one
// only adds the fatigue left after decaying to the latest workout, and keeps
// today's volume.
func TestCompleteBackdatedWorkout(t *testing.T) {
	tests := []struct {
		name        string
		date        time.Time
		sets        []models.WorkoutSet
		wantFatigue float64
		wantToday   float64
	}{
		// 27.3 from the live session; the old one has fully recovered.
		{"sixty days back", t0.AddDate(0, 0, -60), gobletSets(3, 10, 70), 27.3, 1365},
		// 13 decays by 7.5 over 12h; same UTC day so volume adds up.
		{"same morning", t0.Add(-12 * time.Hour), gobletSets(1, 10, 100), 27.3 + 5.5, 1365 + 650},
		{"tiny set yesterday", t0.Add(-24 * time.Hour), gobletSets(1, 1, 10), 27.3, 1365},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestService(t, Options{DefaultBaseline: 5000})
			ctx := context.Background()

			if _, err := svc.Complete(ctx, 1, CompleteRequest{Date: t0, Sets: gobletSets(3, 10, 70)}); err != nil {
				t.Fatal(err)
			}
			if _, err := svc.Complete(ctx, 1, CompleteRequest{Date: tt.date, Sets: tt.sets}); err != nil {
				t.Fatal(err)
			}

			states, err := svc.MuscleStates(ctx, 1)
			if err != nil {
				t.Fatal(err)
			}
			q := states[muscle.Quadriceps]
			if math.Abs(q.CurrentFatigue-tt.wantFatigue) > 1e-6 {
				t.Errorf("current fatigue = %v, want %v", q.CurrentFatigue, tt.wantFatigue)
			}
			if math.Abs(q.VolumeToday-tt.wantToday) > 1e-6 {
				t.Errorf("volume today = %v, want %v", q.VolumeToday, tt.wantToday)
			}
			if q.LastTrained == nil || !q.LastTrained.Equal(t0) {
				t.Errorf("last trained = %v, want %v", q.LastTrained, t0)
			}
		})
	}
}

// TestCompleteBaselineSuggestion verifies exceeded baselines are proposed but
// not applied.
func TestCompleteBaselineSuggestion(t *testing.T) {
	svc, store, _ := newTestService(t, Options{DefaultBaseline: 1000})
	ctx := context.Background()

	out, err := svc.Complete(ctx, 1, CompleteRequest{Date: t0, Sets: gobletSets(3, 10, 70)})
	if err != nil {
		t.Fatal(err)
	}
	if len(out.BaselineSuggestions) != 1 {
		t.Fatalf("suggestions = %+v, want 1", out.BaselineSuggestions)
	}
	s := out.BaselineSuggestions[0]
	if s.Muscle != muscle.Quadriceps || s.SuggestedBaseline != 1400 || s.ExceedancePercent != 36.5 {
		t.Errorf("suggestion = %+v", s)
	}
	rows, _ := store.ListBaselines(ctx, 1)
	if rows[muscle.Quadriceps-1].SystemLearnedMax != 1000 {
		t.Error("suggestion applied without confirmation")
	}

	b, err := svc.AcceptSuggestion(ctx, 1, muscle.Quadriceps, s.SuggestedBaseline)
	if err != nil {
		t.Fatal(err)
	}
	if b.SystemLearnedMax != 1400 {
		t.Errorf("accepted baseline = %v, want 1400", b.SystemLearnedMax)
	}
}

// TestCompleteInvalidBaseline verifies a muscle without a baseline is flagged
// while the workout is still saved.
func TestCompleteInvalidBaseline(t *testing.T) {
	svc, store, _ := newTestService(t, Options{})
	ctx := context.Background()
	if err := store.SetLearnedBaseline(ctx, 1, muscle.Glutes, 0); err != nil {
		t.Fatal(err)
	}

	out, err := svc.Complete(ctx, 1, CompleteRequest{Date: t0, Sets: gobletSets(1, 10, 50)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Summary.Unavailable) != 1 || out.Summary.Unavailable[0] != muscle.Glutes {
		t.Errorf("unavailable = %v, want [Glutes]", out.Summary.Unavailable)
	}
	if out.Fatigue[muscle.Quadriceps] == 0 {
		t.Error("valid muscles should still accumulate fatigue")
	}
	if len(store.Workouts(1)) != 1 {
		t.Error("workout not stored")
	}
}

// TestCompleteRejectsBadRequests verifies request-level errors store nothing.
func TestCompleteRejectsBadRequests(t *testing.T) {
	svc, store, _ := newTestService(t, Options{})
	ctx := context.Background()

	tests := []struct {
		name string
		req  CompleteRequest
		want error
	}{
		{"no sets", CompleteRequest{}, ErrInvalidInput},
		{"unknown exercise", CompleteRequest{Sets: []models.WorkoutSet{{ExerciseID: "ghost", Reps: 5, Weight: 10}}}, exercise.ErrUnknownExercise},
		{"negative reps", CompleteRequest{Sets: []models.WorkoutSet{{ExerciseID: "push-up", Reps: -5}}}, fatigue.ErrInvalidSet},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Complete(ctx, 1, tt.req)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
	if n := len(store.Workouts(1)); n != 0 {
		t.Errorf("stored %d workouts, want 0", n)
	}
}

// TestConcurrentCompletionsKeepEveryUpdate verifies parallel completions for
// the same user do not lose fatigue.
func TestConcurrentCompletionsKeepEveryUpdate(t *testing.T) {
	svc, _, _ := newTestService(t, Options{DefaultBaseline: 5000})
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Complete(ctx, 1, CompleteRequest{Date: t0, Sets: gobletSets(1, 10, 10)}); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	states, err := svc.MuscleStates(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	// Each completion adds 100*0.65/5000*100 = 1.3.
	if got := states[muscle.Quadriceps].CurrentFatigue; math.Abs(got-n*1.3) > 1e-6 {
		t.Errorf("Quadriceps = %v, want %v", got, n*1.3)
	}
}

// TestForecastDoesNotWrite snapshots the store around repeated forecasts.
func TestForecastDoesNotWrite(t *testing.T) {
	svc, store, rec := newTestService(t, Options{})
	ctx := context.Background()
	if _, err := svc.Complete(ctx, 1, CompleteRequest{Date: t0.Add(-time.Hour), Sets: gobletSets(2, 10, 60)}); err != nil {
		t.Fatal(err)
	}

	snapshot := func() any {
		states, _ := store.ListMuscleStates(ctx, 1)
		baselines, _ := store.ListBaselines(ctx, 1)
		cal, _ := store.ListCalibrations(ctx, 1)
		return []any{states, baselines, cal, store.Workouts(1)}
	}
	before := snapshot()

	planned := []forecast.PlannedExercise{{
		ExerciseID: "romanian-deadlift",
		Sets:       []forecast.PlannedSet{{Reps: 10, Weight: 5000}},
	}}
	for i := 0; i < 10; i++ {
		res, err := svc.Forecast(ctx, 1, planned)
		if err != nil {
			t.Fatal(err)
		}
		if len(res.Forecast) != muscle.Count {
			t.Fatalf("forecast has %d muscles", len(res.Forecast))
		}
	}
	if after := snapshot(); !reflect.DeepEqual(before, after) {
		t.Error("forecast changed stored state")
	}
	if rec.bottlenecks == 0 {
		t.Error("expected bottlenecks to be recorded for a heavy plan")
	}
}

// TestSetMuscleStates verifies manual state entry and validation.
func TestSetMuscleStates(t *testing.T) {
	svc, _, _ := newTestService(t, Options{})
	ctx := context.Background()
	day := t0.Add(-24 * time.Hour)

	got, err := svc.SetMuscleStates(ctx, 1, map[muscle.Muscle]StateInput{
		muscle.Quadriceps: {InitialFatiguePercent: 31, LastTrained: &day},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != muscle.Count {
		t.Errorf("states = %d, want %d", len(got), muscle.Count)
	}
	if !near(got[muscle.Quadriceps].CurrentFatigue, 16) {
		t.Errorf("Quadriceps current = %v, want 16", got[muscle.Quadriceps].CurrentFatigue)
	}

	_, err = svc.SetMuscleStates(ctx, 1, map[muscle.Muscle]StateInput{muscle.Core: {InitialFatiguePercent: -1}})
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

// TestTimelineThirteen verifies the timeline covers every muscle.
func TestTimelineThirteen(t *testing.T) {
	svc, _, _ := newTestService(t, Options{})
	tl, err := svc.Timeline(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(tl) != muscle.Count {
		t.Errorf("timeline = %d entries, want %d", len(tl), muscle.Count)
	}
}

// TestRecommendUsesHistory verifies recent workouts lower variety and the
// profile equipment applies when the request names none.
func TestRecommendUsesHistory(t *testing.T) {
	svc, _, rec := newTestService(t, Options{Equipment: []exercise.Equipment{exercise.Barbell}})
	ctx := context.Background()
	if _, err := svc.Complete(ctx, 1, CompleteRequest{
		Date: t0.Add(-48 * time.Hour),
		Sets: []models.WorkoutSet{{ExerciseID: "barbell-back-squat", Reps: 5, Weight: 100}},
	}); err != nil {
		t.Fatal(err)
	}

	res, err := svc.Recommend(ctx, 1, RecommendRequest{Target: muscle.Quadriceps})
	if err != nil {
		t.Fatal(err)
	}
	var found bool
	for _, r := range append(res.Safe, res.Unsafe...) {
		if r.Exercise.ID == "goblet-squat" {
			t.Error("goblet-squat needs dumbbells or a kettlebell")
		}
		if r.Exercise.ID == "barbell-back-squat" {
			found = true
			if r.Factors.Variety != 50 {
				t.Errorf("variety = %v, want 50 after one recent session", r.Factors.Variety)
			}
		}
	}
	if !found {
		t.Error("barbell-back-squat missing")
	}
	if rec.served == 0 {
		t.Error("recommendations not recorded")
	}
}

// TestCalibrationLifecycle verifies set, view and reset of calibrations.
func TestCalibrationLifecycle(t *testing.T) {
	svc, _, _ := newTestService(t, Options{})
	ctx := context.Background()

	v, err := svc.SetCalibration(ctx, 1, "push-up", map[muscle.Muscle]float64{muscle.Pectoralis: 90})
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range v.Engagements {
		if e.Muscle == muscle.Pectoralis && (!e.IsCalibrated || e.Percentage != 90 || e.Default != 70) {
			t.Errorf("Pectoralis = %+v, want calibrated 90 over default 70", e)
		}
		if e.Muscle != muscle.Pectoralis && e.IsCalibrated {
			t.Errorf("%s unexpectedly calibrated", e.Muscle)
		}
	}

	if _, err := svc.SetCalibration(ctx, 1, "push-up", map[muscle.Muscle]float64{muscle.Calves: 10}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("calibrating a muscle the exercise does not engage: err = %v", err)
	}
	if _, err := svc.SetCalibration(ctx, 1, "push-up", map[muscle.Muscle]float64{muscle.Pectoralis: 120}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("out of range percentage: err = %v", err)
	}
	if _, err := svc.SetCalibration(ctx, 1, "ghost", map[muscle.Muscle]float64{muscle.Pectoralis: 50}); !errors.Is(err, exercise.ErrUnknownExercise) {
		t.Errorf("unknown exercise: err = %v", err)
	}

	v, err = svc.ResetCalibration(ctx, 1, "push-up")
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range v.Engagements {
		if e.IsCalibrated {
			t.Errorf("%s still calibrated after reset", e.Muscle)
		}
	}
}

// TestBaselineOverride verifies override validation and clearing.
func TestBaselineOverride(t *testing.T) {
	svc, _, _ := newTestService(t, Options{})
	ctx := context.Background()

	b, err := svc.SetBaselineOverride(ctx, 1, muscle.Hamstrings, ptrFloat(5200))
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := b.Effective(); v != 5200 {
		t.Errorf("effective = %v, want 5200", v)
	}
	if _, err := svc.SetBaselineOverride(ctx, 1, muscle.Hamstrings, ptrFloat(0)); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("zero override: err = %v", err)
	}
	b, err = svc.SetBaselineOverride(ctx, 1, muscle.Hamstrings, nil)
	if err != nil {
		t.Fatal(err)
	}
	if b.UserOverride != nil {
		t.Error("override not cleared")
	}
	if _, err := svc.AcceptSuggestion(ctx, 1, muscle.Muscle(0), 100); !errors.Is(err, muscle.ErrUnknownMuscle) {
		t.Errorf("unknown muscle: err = %v", err)
	}
}
