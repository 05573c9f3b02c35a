package recommend

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/claude/fitforge/internal/exercise"
	"github.com/claude/fitforge/internal/fatigue"
	"github.com/claude/fitforge/internal/models"
	"github.com/claude/fitforge/internal/muscle"
)

func testRecommender(t *testing.T) *Recommender {
	t.Helper()
	lib, err := exercise.New([]*exercise.Exercise{
		{
			ID: "squat", Name: "Squat", Category: exercise.CategoryLegs,
			Equipment: []exercise.Equipment{exercise.Barbell},
			Engagements: []muscle.Engagement{
				{Muscle: muscle.Quadriceps, Percentage: 70},
				{Muscle: muscle.Glutes, Percentage: 40},
			},
		},
		{
			ID: "lunge", Name: "Lunge", Category: exercise.CategoryLegs,
			Equipment: []exercise.Equipment{exercise.Bodyweight},
			Engagements: []muscle.Engagement{
				{Muscle: muscle.Quadriceps, Percentage: 40},
				{Muscle: muscle.Glutes, Percentage: 50},
			},
		},
		{
			ID: "leg-extension", Name: "Leg Extension", Category: exercise.CategoryLegs,
			Equipment:   []exercise.Equipment{exercise.Machine},
			Engagements: []muscle.Engagement{{Muscle: muscle.Quadriceps, Percentage: 90}},
		},
		{
			ID: "curl", Name: "Curl", Category: exercise.CategoryPull,
			Equipment:   []exercise.Equipment{exercise.Dumbbells},
			Engagements: []muscle.Engagement{{Muscle: muscle.Biceps, Percentage: 80}},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return New(fatigue.NewAccumulator(lib, 0), Options{})
}

func allBaselines(v float64) fatigue.Baselines {
	b := make(fatigue.Baselines, muscle.Count)
	for _, m := range muscle.All() {
		b[m] = v
	}
	return b
}

func find(recs []Recommendation, id string) *Recommendation {
	for i := range recs {
		if recs[i].Exercise.ID == id {
			return &recs[i]
		}
	}
	return nil
}

// TestRecommendQuadricepsScenario checks fresh legs and tired chest rank a
// strong quadriceps mover first in the default library.
func TestRecommendQuadricepsScenario(t *testing.T) {
	lib, err := exercise.Default()
	if err != nil {
		t.Fatal(err)
	}
	r := New(fatigue.NewAccumulator(lib, 0), Options{})

	res, err := r.Recommend(Request{
		Target: muscle.Quadriceps,
		CurrentFatigue: map[muscle.Muscle]float64{
			muscle.Pectoralis: 30,
			muscle.Deltoids:   30,
		},
		Baselines: allBaselines(5000),
		Equipment: []exercise.Equipment{exercise.Barbell, exercise.Dumbbells},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Safe) == 0 {
		t.Fatal("no safe recommendations")
	}
	top := res.Safe[0]
	if top.Factors.TargetMatch <= 50 {
		t.Errorf("top %s targetMatch = %v, want > 50", top.Exercise.ID, top.Factors.TargetMatch)
	}
	if top.Factors.Freshness <= 70 {
		t.Errorf("top %s freshness = %v, want > 70", top.Exercise.ID, top.Factors.Freshness)
	}
}

// TestRecommendFactorsAndScore verifies each factor and the weighted score.
func TestRecommendFactorsAndScore(t *testing.T) {
	r := testRecommender(t)
	res, err := r.Recommend(Request{
		Target:    muscle.Quadriceps,
		Baselines: allBaselines(5000),
		Equipment: []exercise.Equipment{exercise.Barbell},
	})
	if err != nil {
		t.Fatal(err)
	}

	squat := find(res.Safe, "squat")
	if squat == nil {
		t.Fatalf("squat missing from safe: %+v", res.Safe)
	}
	want := Factors{TargetMatch: 70, Freshness: 100, Variety: 100, Preference: 50, PrimarySecondary: 100}
	if squat.Factors != want {
		t.Errorf("squat factors = %+v, want %+v", squat.Factors, want)
	}
	if squat.Score != 83 {
		t.Errorf("squat score = %v, want 83", squat.Score)
	}

	lunge := find(res.Safe, "lunge")
	if lunge == nil {
		t.Fatal("bodyweight lunge should pass the equipment filter")
	}
	if lunge.Factors.PrimarySecondary != 50 || lunge.Score != 66 {
		t.Errorf("lunge = %+v, want primarySecondary 50 and score 66", lunge)
	}
	if res.Safe[0].Exercise.ID != "squat" {
		t.Errorf("top = %s, want squat", res.Safe[0].Exercise.ID)
	}
}

// TestRecommendTotalFiltered verifies target and equipment filtering is
// counted and skipped exercises are not scored.
func TestRecommendTotalFiltered(t *testing.T) {
	r := testRecommender(t)
	tests := []struct {
		name         string
		equipment    []exercise.Equipment
		ignore       bool
		wantFiltered int
		wantScored   int
	}{
		{"barbell only", []exercise.Equipment{exercise.Barbell}, false, 2, 2},
		{"no equipment", nil, false, 3, 1},
		{"ignore equipment", nil, true, 1, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := r.Recommend(Request{
				Target:          muscle.Quadriceps,
				Baselines:       allBaselines(5000),
				Equipment:       tt.equipment,
				IgnoreEquipment: tt.ignore,
			})
			if err != nil {
				t.Fatal(err)
			}
			if res.TotalFiltered != tt.wantFiltered {
				t.Errorf("TotalFiltered = %d, want %d", res.TotalFiltered, tt.wantFiltered)
			}
			if got := len(res.Safe) + len(res.Unsafe); got != tt.wantScored {
				t.Errorf("scored = %d, want %d", got, tt.wantScored)
			}
		})
	}
}

// TestRecommendUnsafe verifies a candidate that would push a synergist past
// the ceiling is moved to unsafe with one warning per violated muscle.
func TestRecommendUnsafe(t *testing.T) {
	r := testRecommender(t)
	res, err := r.Recommend(Request{
		Target:         muscle.Quadriceps,
		CurrentFatigue: map[muscle.Muscle]float64{muscle.Glutes: 95},
		Baselines:      allBaselines(1000),
		Equipment:      []exercise.Equipment{exercise.Barbell},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Safe) != 0 {
		t.Errorf("safe = %+v, want none", res.Safe)
	}
	squat := find(res.Unsafe, "squat")
	if squat == nil {
		t.Fatal("squat missing from unsafe")
	}
	if squat.IsSafe || len(squat.Warnings) != 1 {
		t.Fatalf("squat = %+v, want one warning", squat)
	}
	w := squat.Warnings[0]
	if !strings.Contains(w, "Glutes") || !strings.Contains(w, "135.0") || !strings.Contains(w, "95.0") {
		t.Errorf("warning %q should name Glutes with current and projected fatigue", w)
	}
}

// TestRecommendCurrentVolumeCountsAsFatigue verifies volume already done
// today lowers freshness even when recorded fatigue has decayed.
func TestRecommendCurrentVolumeCountsAsFatigue(t *testing.T) {
	r := testRecommender(t)
	res, err := r.Recommend(Request{
		Target:          muscle.Quadriceps,
		CurrentFatigue:  map[muscle.Muscle]float64{muscle.Quadriceps: 10},
		CurrentVolumes:  map[muscle.Muscle]float64{muscle.Quadriceps: 800},
		Baselines:       allBaselines(5000),
		IgnoreEquipment: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	squat := find(res.Safe, "squat")
	if squat == nil {
		t.Fatal("squat missing")
	}
	if math.Abs(squat.Factors.Freshness-84) > 1e-9 {
		t.Errorf("freshness = %v, want 84", squat.Factors.Freshness)
	}
}

// TestRecommendVarietyAndPreference verifies repeats lower variety and
// calibration raises preference.
func TestRecommendVarietyAndPreference(t *testing.T) {
	r := testRecommender(t)
	cal := fatigue.CalibrationsFrom([]models.Calibration{
		{ExerciseID: "lunge", Muscle: muscle.Glutes, Percentage: 55},
	})
	res, err := r.Recommend(Request{
		Target:       muscle.Quadriceps,
		Baselines:    allBaselines(5000),
		Equipment:    []exercise.Equipment{exercise.Barbell},
		Recent:       []string{"squat", "squat"},
		Calibrations: cal,
	})
	if err != nil {
		t.Fatal(err)
	}
	squat := find(res.Safe, "squat")
	lunge := find(res.Safe, "lunge")
	if squat == nil || lunge == nil {
		t.Fatal("missing candidates")
	}
	if math.Abs(squat.Factors.Variety-100.0/3) > 1e-9 {
		t.Errorf("squat variety = %v, want 33.3", squat.Factors.Variety)
	}
	if squat.Score != 73 {
		t.Errorf("squat score = %v, want 73", squat.Score)
	}
	if lunge.Factors.Preference != 100 || squat.Factors.Preference != 50 {
		t.Errorf("preference lunge=%v squat=%v, want 100 and 50", lunge.Factors.Preference, squat.Factors.Preference)
	}
}

// TestRecommendTiesBreakByID verifies equal scores are ordered by id.
func TestRecommendTiesBreakByID(t *testing.T) {
	twin := func(id string) *exercise.Exercise {
		return &exercise.Exercise{
			ID: id, Name: id, Category: exercise.CategoryCore,
			Equipment:   []exercise.Equipment{exercise.Bodyweight},
			Engagements: []muscle.Engagement{{Muscle: muscle.Core, Percentage: 60}},
		}
	}
	lib, err := exercise.New([]*exercise.Exercise{twin("zeta-hold"), twin("alpha-hold"), twin("mid-hold")})
	if err != nil {
		t.Fatal(err)
	}
	r := New(fatigue.NewAccumulator(lib, 0), Options{})
	res, err := r.Recommend(Request{Target: muscle.Core, Baselines: allBaselines(5000)})
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, rec := range res.Safe {
		got = append(got, rec.Exercise.ID)
	}
	if strings.Join(got, ",") != "alpha-hold,mid-hold,zeta-hold" {
		t.Errorf("order = %v", got)
	}
}

// TestRecommendInvalidBaselineNote verifies a missing baseline adds a note
// without marking the candidate unsafe.
func TestRecommendInvalidBaselineNote(t *testing.T) {
	r := testRecommender(t)
	res, err := r.Recommend(Request{
		Target:    muscle.Quadriceps,
		Baselines: fatigue.Baselines{muscle.Quadriceps: 5000},
		Equipment: []exercise.Equipment{exercise.Barbell},
	})
	if err != nil {
		t.Fatal(err)
	}
	squat := find(res.Safe, "squat")
	if squat == nil {
		t.Fatal("squat should stay safe")
	}
	if len(squat.Warnings) != 0 || len(squat.Notes) != 1 || !strings.Contains(squat.Notes[0], "Glutes") {
		t.Errorf("squat warnings=%v notes=%v", squat.Warnings, squat.Notes)
	}
}

// TestRecommendEmptyResult verifies zero candidates is not an error.
func TestRecommendEmptyResult(t *testing.T) {
	r := testRecommender(t)
	res, err := r.Recommend(Request{Target: muscle.Calves, Baselines: allBaselines(5000)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Safe == nil || res.Unsafe == nil || len(res.Safe)+len(res.Unsafe) != 0 {
		t.Errorf("result = %+v, want empty non-nil slices", res)
	}
	if res.TotalFiltered != 4 {
		t.Errorf("TotalFiltered = %d, want 4", res.TotalFiltered)
	}
}

// TestRecommendRequestErrors verifies unknown muscles and exercises fail.
func TestRecommendRequestErrors(t *testing.T) {
	r := testRecommender(t)
	if _, err := r.Recommend(Request{Target: muscle.Muscle(99)}); !errors.Is(err, muscle.ErrUnknownMuscle) {
		t.Errorf("err = %v, want ErrUnknownMuscle", err)
	}
	_, err := r.Recommend(Request{Target: muscle.Quadriceps, Exclude: []string{"ghost"}})
	if !errors.Is(err, exercise.ErrUnknownExercise) {
		t.Errorf("err = %v, want ErrUnknownExercise", err)
	}
}

// TestRecommendScoreBounds sweeps fatigue levels over the default library
// and checks score range and the safe/unsafe warning split.
func TestRecommendScoreBounds(t *testing.T) {
	lib, err := exercise.Default()
	if err != nil {
		t.Fatal(err)
	}
	r := New(fatigue.NewAccumulator(lib, 0), Options{})
	for _, target := range muscle.All() {
		for f := 0.0; f <= 150; f += 37.5 {
			current := make(map[muscle.Muscle]float64, muscle.Count)
			for _, m := range muscle.All() {
				current[m] = f
			}
			res, err := r.Recommend(Request{
				Target:          target,
				CurrentFatigue:  current,
				Baselines:       allBaselines(2000),
				IgnoreEquipment: true,
				Recent:          []string{"push-up", "deadlift"},
			})
			if err != nil {
				t.Fatal(err)
			}
			for _, rec := range res.Safe {
				if rec.Score < 0 || rec.Score > 100 || len(rec.Warnings) != 0 {
					t.Errorf("%s/%v safe %s: score=%v warnings=%v", target, f, rec.Exercise.ID, rec.Score, rec.Warnings)
				}
			}
			for _, rec := range res.Unsafe {
				if rec.Score < 0 || rec.Score > 100 || len(rec.Warnings) == 0 {
					t.Errorf("%s/%v unsafe %s: score=%v warnings=%v", target, f, rec.Exercise.ID, rec.Score, rec.Warnings)
				}
			}
		}
	}
}
