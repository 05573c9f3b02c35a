// Package recommend scores library exercises for a target muscle and splits
// them into safe and unsafe candidates.
package recommend

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/claude/fitforge/internal/exercise"
	"github.com/claude/fitforge/internal/fatigue"
	"github.com/claude/fitforge/internal/muscle"
)

// Weights of the five scoring factors. They sum to 1.
type Weights struct {
	TargetMatch      float64
	Freshness        float64
	Variety          float64
	Preference       float64
	PrimarySecondary float64
}

// DefaultWeights is the 40/25/15/10/10 split every score is computed with.
var DefaultWeights = Weights{
	TargetMatch:      0.40,
	Freshness:        0.25,
	Variety:          0.15,
	Preference:       0.10,
	PrimarySecondary: 0.10,
}

const (
	// DefaultSafetyCeiling is the fatigue percent no engaged muscle may
	// exceed after one reference set.
	DefaultSafetyCeiling = 100.0
	// DefaultReferenceVolume is the reps*weight of the assumed working set
	// used for the safety projection.
	DefaultReferenceVolume = 1000.0
)

// Factor values for the preference and primary/secondary factors.
const (
	preferenceCalibrated   = 100.0
	preferenceUncalibrated = 50.0

	primaryThreshold   = 50.0
	secondaryThreshold = 25.0
)

// Factors is the unweighted 0..100 breakdown behind a score.
type Factors struct {
	TargetMatch      float64 `json:"targetMatch"`
	Freshness        float64 `json:"freshness"`
	Variety          float64 `json:"variety"`
	Preference       float64 `json:"preference"`
	PrimarySecondary float64 `json:"primarySecondary"`
}

// Recommendation is one scored candidate. It is never persisted.
type Recommendation struct {
	Exercise *exercise.Exercise `json:"exercise"`
	Score    float64            `json:"score"`
	Factors  Factors            `json:"factors"`
	IsSafe   bool               `json:"isSafe"`
	// Warnings holds one entry per muscle the reference set would push past
	// the safety ceiling. Safe recommendations have none.
	Warnings []string `json:"warnings"`
	// Notes reports muscles whose safety could not be checked.
	Notes []string `json:"notes,omitempty"`
}

// Result partitions the scored candidates.
type Result struct {
	Safe   []Recommendation `json:"safe"`
	Unsafe []Recommendation `json:"unsafe"`
	// TotalFiltered counts library exercises dropped by the target and
	// equipment filters before scoring.
	TotalFiltered int `json:"totalFiltered"`
}

// Request carries everything a recommendation depends on. Nothing is read
// from anywhere else.
type Request struct {
	Target muscle.Muscle
	// CurrentFatigue is post-recovery fatigue per muscle; absent means 0.
	CurrentFatigue map[muscle.Muscle]float64
	// CurrentVolumes is volume already performed today per muscle.
	CurrentVolumes  map[muscle.Muscle]float64
	Baselines       fatigue.Baselines
	Equipment       []exercise.Equipment
	IgnoreEquipment bool
	Exclude         []string
	// Recent lists exercise ids from recent workouts, one entry per
	// appearance.
	Recent       []string
	Calibrations fatigue.Calibrations
}

// Options configures a Recommender. Zero fields take the defaults.
type Options struct {
	SafetyCeiling   float64
	ReferenceVolume float64
}

// Recommender scores exercises. It holds no mutable state.
type Recommender struct {
	acc             *fatigue.Accumulator
	weights         Weights
	safetyCeiling   float64
	referenceVolume float64
}

// New returns a Recommender over the accumulator's library.
func New(acc *fatigue.Accumulator, opts Options) *Recommender {
	if opts.SafetyCeiling <= 0 {
		opts.SafetyCeiling = DefaultSafetyCeiling
	}
	if opts.ReferenceVolume <= 0 {
		opts.ReferenceVolume = DefaultReferenceVolume
	}
	return &Recommender{
		acc:             acc,
		weights:         DefaultWeights,
		safetyCeiling:   opts.SafetyCeiling,
		referenceVolume: opts.ReferenceVolume,
	}
}

// Recommend scores every candidate for req.Target. An unknown target muscle
// or excluded exercise id is a request error; no candidates is an empty
// result.
func (r *Recommender) Recommend(req Request) (*Result, error) {
	if !req.Target.Valid() {
		return nil, fmt.Errorf("target %d: %w", req.Target, muscle.ErrUnknownMuscle)
	}
	lib := r.acc.Library()
	for _, id := range req.Exclude {
		if _, err := lib.Get(id); err != nil {
			return nil, err
		}
	}

	current := r.currentFatigue(req)
	recentCount := make(map[string]int, len(req.Recent))
	for _, id := range req.Recent {
		recentCount[id]++
	}

	res := &Result{Safe: []Recommendation{}, Unsafe: []Recommendation{}}
	for _, ex := range lib.All() {
		if slices.Contains(req.Exclude, ex.ID) {
			continue
		}
		engs := req.Calibrations.Engagements(ex)
		targetPct := engagementFor(engs, req.Target)
		if targetPct <= 0 || !(req.IgnoreEquipment || ex.UsableWith(req.Equipment)) {
			res.TotalFiltered++
			continue
		}

		rec := Recommendation{
			Exercise: ex,
			Factors: Factors{
				TargetMatch:      clamp(targetPct),
				Freshness:        clamp(100 - current[req.Target]),
				Variety:          100 / float64(1+recentCount[ex.ID]),
				Preference:       preferenceUncalibrated,
				PrimarySecondary: primarySecondary(targetPct),
			},
			Warnings: []string{},
		}
		if req.Calibrations.Has(ex.ID) {
			rec.Factors.Preference = preferenceCalibrated
		}
		rec.Score = r.score(rec.Factors)

		warnings, notes, err := r.safety(ex, engs, current, req)
		if err != nil {
			return nil, err
		}
		rec.Warnings = append(rec.Warnings, warnings...)
		rec.Notes = notes
		rec.IsSafe = len(warnings) == 0

		if rec.IsSafe {
			res.Safe = append(res.Safe, rec)
		} else {
			res.Unsafe = append(res.Unsafe, rec)
		}
	}

	sortByScore(res.Safe)
	sortByScore(res.Unsafe)
	return res, nil
}

// currentFatigue is the larger of decayed fatigue and today's volume against
// the baseline, per muscle.
func (r *Recommender) currentFatigue(req Request) map[muscle.Muscle]float64 {
	out := make(map[muscle.Muscle]float64, muscle.Count)
	for _, m := range muscle.All() {
		f := req.CurrentFatigue[m]
		if vol := req.CurrentVolumes[m]; vol > 0 {
			if base, ok := req.Baselines.Get(m); ok {
				f = math.Max(f, vol/base*100)
			}
		}
		out[m] = f
	}
	return out
}

// safety projects one reference set onto every engaged muscle.
func (r *Recommender) safety(ex *exercise.Exercise, engs []muscle.Engagement, current map[muscle.Muscle]float64, req Request) (warnings, notes []string, err error) {
	// A single set carrying the whole reference volume.
	ref := []fatigue.Set{{ExerciseID: ex.ID, Reps: 1, Weight: r.referenceVolume}}
	delta, err := r.acc.Accumulate(ref, req.Baselines, req.Calibrations)
	if err != nil && !errors.Is(err, fatigue.ErrInvalidBaseline) {
		return nil, nil, err
	}
	for _, m := range fatigue.InvalidMuscles(err) {
		notes = append(notes, fmt.Sprintf("%s has no usable baseline; safety not checked", m))
	}

	for _, m := range muscle.All() {
		if engagementFor(engs, m) <= 0 {
			continue
		}
		d, ok := delta[m]
		if !ok {
			continue
		}
		projected := current[m] + d
		if projected > r.safetyCeiling {
			warnings = append(warnings, fmt.Sprintf("%s would reach %.1f%% fatigue (currently %.1f%%), above the %.0f%% safety ceiling",
				m, projected, current[m], r.safetyCeiling))
		}
	}
	return warnings, notes, nil
}

func (r *Recommender) score(f Factors) float64 {
	w := r.weights
	s := f.TargetMatch*w.TargetMatch +
		f.Freshness*w.Freshness +
		f.Variety*w.Variety +
		f.Preference*w.Preference +
		f.PrimarySecondary*w.PrimarySecondary
	return math.Round(clamp(s)*10) / 10
}

func primarySecondary(pct float64) float64 {
	switch {
	case pct >= primaryThreshold:
		return 100
	case pct >= secondaryThreshold:
		return 50
	default:
		return 25
	}
}

func engagementFor(engs []muscle.Engagement, m muscle.Muscle) float64 {
	for _, e := range engs {
		if e.Muscle == m {
			return e.Percentage
		}
	}
	return 0
}

func clamp(v float64) float64 {
	return math.Min(100, math.Max(0, v))
}

func sortByScore(recs []Recommendation) {
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		return recs[i].Exercise.ID < recs[j].Exercise.ID
	})
}
