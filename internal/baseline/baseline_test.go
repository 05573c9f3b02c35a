package baseline

import (
	"testing"

	"github.com/claude/fitforge/internal/fatigue"
	"github.com/claude/fitforge/internal/muscle"
)

// TestSuggestHamstringsScenario checks 6075 achieved against 5200 proposes a
// rounded-up baseline with 16.8% exceedance.
func TestSuggestHamstringsScenario(t *testing.T) {
	s := NewSuggester(0)
	got := s.Suggest(
		map[muscle.Muscle]float64{muscle.Hamstrings: 6075},
		fatigue.Baselines{muscle.Hamstrings: 5200},
	)
	if len(got) != 1 {
		t.Fatalf("got %d suggestions, want 1", len(got))
	}
	want := Suggestion{
		Muscle:            muscle.Hamstrings,
		CurrentBaseline:   5200,
		VolumeAchieved:    6075,
		SuggestedBaseline: 6100,
		ExceedancePercent: 16.8,
	}
	if got[0] != want {
		t.Errorf("suggestion = %+v, want %+v", got[0], want)
	}
}

// TestSuggestOnlyExceeded verifies muscles at or below baseline, or without a
// usable baseline, produce nothing, and output follows muscle order.
func TestSuggestOnlyExceeded(t *testing.T) {
	s := NewSuggester(0)
	got := s.Suggest(
		map[muscle.Muscle]float64{
			muscle.Core:       900,
			muscle.Pectoralis: 3000,
			muscle.Biceps:     1000,
			muscle.Calves:     500,
			muscle.Lats:       100,
		},
		fatigue.Baselines{
			muscle.Core:       800,
			muscle.Pectoralis: 2500,
			muscle.Biceps:     1000,
			muscle.Calves:     0,
		},
	)
	if len(got) != 2 {
		t.Fatalf("suggestions = %+v, want 2", got)
	}
	if got[0].Muscle != muscle.Pectoralis || got[1].Muscle != muscle.Core {
		t.Errorf("order = %s, %s; want Pectoralis, Core", got[0].Muscle, got[1].Muscle)
	}
	if got[0].SuggestedBaseline != 3000 {
		t.Errorf("exact multiple rounded to %v, want 3000", got[0].SuggestedBaseline)
	}
}

// TestSuggestIncrement verifies a custom rounding step.
func TestSuggestIncrement(t *testing.T) {
	tests := []struct {
		increment float64
		achieved  float64
		want      float64
	}{
		{100, 6075, 6100},
		{250, 6075, 6250},
		{50, 5201, 5250},
		{25, 5210, 5225},
	}
	for _, tt := range tests {
		got := NewSuggester(tt.increment).Suggest(
			map[muscle.Muscle]float64{muscle.Glutes: tt.achieved},
			fatigue.Baselines{muscle.Glutes: 5200},
		)
		if len(got) != 1 || got[0].SuggestedBaseline != tt.want {
			t.Errorf("increment %v achieved %v: got %+v, want %v", tt.increment, tt.achieved, got, tt.want)
		}
	}
}

// TestSuggestEmpty verifies no volume yields an empty, non-nil slice.
func TestSuggestEmpty(t *testing.T) {
	got := NewSuggester(0).Suggest(nil, nil)
	if got == nil || len(got) != 0 {
		t.Errorf("got %v, want empty slice", got)
	}
}
