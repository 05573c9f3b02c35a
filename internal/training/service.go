// Package training wires the fatigue engine to persistence: it loads a
// user's snapshot from a Store, runs the engine and writes back only on
// workout completion and explicit edits.
package training

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/claude/fitforge/internal/baseline"
	"github.com/claude/fitforge/internal/exercise"
	"github.com/claude/fitforge/internal/fatigue"
	"github.com/claude/fitforge/internal/forecast"
	"github.com/claude/fitforge/internal/models"
	"github.com/claude/fitforge/internal/muscle"
	"github.com/claude/fitforge/internal/recommend"
	"github.com/claude/fitforge/internal/recovery"
)

var (
	// ErrInvalidInput is returned for requests that fail validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is returned by stores for missing rows.
	ErrNotFound = errors.New("not found")
)

const (
	// DefaultBaseline is the learned max given to muscles with no history.
	DefaultBaseline = 5000.0
	// DefaultRecentWindow is how far back exercise history counts for variety.
	DefaultRecentWindow = 7 * 24 * time.Hour
)

// Options tunes the engine. Zero values take the package defaults.
type Options struct {
	RecoveryRatePerDay float64
	Thresholds         forecast.Thresholds
	SafetyCeiling      float64
	ReferenceVolume    float64
	BodyweightLoad     float64
	DefaultBaseline    float64
	BaselineIncrement  float64
	// Equipment is used when a recommendation request names none.
	Equipment    []exercise.Equipment
	RecentWindow time.Duration
}

// Recorder receives domain events for metrics.
type Recorder interface {
	RecommendationsServed(safe, unsafe int)
	BottlenecksFlagged(n int)
	WorkoutCompleted(sets int)
}

type nopRecorder struct{}

func (nopRecorder) RecommendationsServed(int, int) {}
func (nopRecorder) BottlenecksFlagged(int)         {}
func (nopRecorder) WorkoutCompleted(int)           {}

// Service runs the engine against one Store.
type Service struct {
	store       Store
	lib         *exercise.Library
	acc         *fatigue.Accumulator
	recovery    *recovery.Calculator
	forecaster  *forecast.Forecaster
	recommender *recommend.Recommender
	suggester   *baseline.Suggester
	opts        Options
	rec         Recorder
	log         *slog.Logger

	// Now is the clock. Tests replace it.
	Now func() time.Time
}

// New creates a Service. rec may be nil.
func New(store Store, lib *exercise.Library, opts Options, rec Recorder, log *slog.Logger) *Service {
	if opts.DefaultBaseline <= 0 {
		opts.DefaultBaseline = DefaultBaseline
	}
	if opts.RecentWindow <= 0 {
		opts.RecentWindow = DefaultRecentWindow
	}
	if rec == nil {
		rec = nopRecorder{}
	}
	acc := fatigue.NewAccumulator(lib, opts.BodyweightLoad)
	return &Service{
		store:       store,
		lib:         lib,
		acc:         acc,
		recovery:    recovery.New(opts.RecoveryRatePerDay),
		forecaster:  forecast.New(acc, opts.Thresholds),
		recommender: recommend.New(acc, recommend.Options{SafetyCeiling: opts.SafetyCeiling, ReferenceVolume: opts.ReferenceVolume}),
		suggester:   baseline.NewSuggester(opts.BaselineIncrement),
		opts:        opts,
		rec:         rec,
		log:         log,
		Now:         time.Now,
	}
}

// Library returns the exercise library.
func (s *Service) Library() *exercise.Library {
	return s.lib
}

func (s *Service) now() time.Time {
	return s.Now().UTC()
}

// ResolveUser finds or creates the user and makes sure every muscle has a
// baseline.
func (s *Service) ResolveUser(ctx context.Context, login, displayName string) (int, error) {
	id, err := s.store.GetOrCreateUser(ctx, login, displayName)
	if err != nil {
		return 0, fmt.Errorf("resolving user %s: %w", login, err)
	}
	if err := s.EnsureDefaults(ctx, id); err != nil {
		return 0, err
	}
	return id, nil
}

// EnsureDefaults seeds the default baseline for muscles that have none.
func (s *Service) EnsureDefaults(ctx context.Context, userID int) error {
	n, err := s.store.InsertMissingBaselines(ctx, userID, muscle.All(), s.opts.DefaultBaseline)
	if err != nil {
		return fmt.Errorf("seeding baselines: %w", err)
	}
	if n > 0 {
		s.log.Info("seeded default baselines", "user_id", userID, "muscles", n, "value", s.opts.DefaultBaseline)
	}
	return nil
}

// snapshot is everything the engine reads for one user.
type snapshot struct {
	states    []models.MuscleState
	baselines fatigue.Baselines
	cal       fatigue.Calibrations
}

func (s *Service) load(ctx context.Context, userID int) (*snapshot, error) {
	states, err := s.store.ListMuscleStates(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading muscle states: %w", err)
	}
	rows, err := s.store.ListBaselines(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading baselines: %w", err)
	}
	cal, err := s.store.ListCalibrations(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading calibrations: %w", err)
	}
	return &snapshot{
		states:    states,
		baselines: fatigue.BaselinesFrom(rows),
		cal:       fatigue.CalibrationsFrom(cal),
	}, nil
}

func recoveryStates(states []models.MuscleState) []recovery.State {
	out := make([]recovery.State, len(states))
	for i, st := range states {
		out[i] = recovery.State{Muscle: st.Muscle, FatiguePercent: st.FatiguePercent, LastTrained: st.LastTrained}
	}
	return out
}

// MuscleStatus is the derived view of one muscle.
type MuscleStatus struct {
	CurrentFatigue float64 `json:"currentFatigue"`
	// FatiguePercent is the fatigue recorded at LastTrained.
	FatiguePercent   float64    `json:"fatiguePercent"`
	VolumeToday      float64    `json:"volumeToday"`
	LastTrained      *time.Time `json:"lastTrained"`
	FullyRecoveredAt *time.Time `json:"fullyRecoveredAt"`
}

// MuscleStates returns the current status of all 13 muscles.
func (s *Service) MuscleStates(ctx context.Context, userID int) (map[muscle.Muscle]MuscleStatus, error) {
	states, err := s.store.ListMuscleStates(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading muscle states: %w", err)
	}
	return s.statuses(states, s.now()), nil
}

func (s *Service) statuses(states []models.MuscleState, asOf time.Time) map[muscle.Muscle]MuscleStatus {
	byMuscle := make(map[muscle.Muscle]models.MuscleState, len(states))
	for _, st := range states {
		byMuscle[st.Muscle] = st
	}
	out := make(map[muscle.Muscle]MuscleStatus, muscle.Count)
	for _, m := range muscle.All() {
		st := byMuscle[m]
		p := s.recovery.ProjectOne(recovery.State{Muscle: m, FatiguePercent: st.FatiguePercent, LastTrained: st.LastTrained}, asOf)
		out[m] = MuscleStatus{
			CurrentFatigue:   p.CurrentFatigue,
			FatiguePercent:   st.FatiguePercent,
			VolumeToday:      volumeToday(st, asOf),
			LastTrained:      st.LastTrained,
			FullyRecoveredAt: p.FullyRecoveredAt,
		}
	}
	return out
}

// StateInput manually sets a muscle's fatigue as of LastTrained.
type StateInput struct {
	InitialFatiguePercent float64
	LastTrained           *time.Time
}

// SetMuscleStates overwrites the given muscles and returns the status of all
// 13. Muscles not named are left as they are. Volume today is reset.
func (s *Service) SetMuscleStates(ctx context.Context, userID int, in map[muscle.Muscle]StateInput) (map[muscle.Muscle]MuscleStatus, error) {
	asOf := s.now()
	rows := make([]models.MuscleState, 0, len(in))
	for _, m := range muscle.All() {
		v, ok := in[m]
		if !ok {
			continue
		}
		if v.InitialFatiguePercent < 0 {
			return nil, fmt.Errorf("%w: %s fatigue must be >= 0", ErrInvalidInput, m)
		}
		// Without a date the fatigue is taken as of now.
		trained := asOf
		if v.LastTrained != nil {
			trained = v.LastTrained.UTC()
		}
		st := models.MuscleState{UserID: userID, Muscle: m, FatiguePercent: v.InitialFatiguePercent, LastTrained: &trained}
		st.RecoveredAt = s.recovery.ProjectOne(recovery.State{Muscle: m, FatiguePercent: st.FatiguePercent, LastTrained: &trained}, trained).FullyRecoveredAt
		rows = append(rows, st)
	}
	if len(rows) != len(in) {
		return nil, muscle.ErrUnknownMuscle
	}
	if err := s.store.UpsertMuscleStates(ctx, userID, rows); err != nil {
		return nil, fmt.Errorf("saving muscle states: %w", err)
	}
	s.log.Info("muscle states set", "user_id", userID, "muscles", len(rows))
	return s.MuscleStates(ctx, userID)
}

// Timeline returns the recovery projection for all 13 muscles.
func (s *Service) Timeline(ctx context.Context, userID int) ([]recovery.Projection, error) {
	states, err := s.store.ListMuscleStates(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading muscle states: %w", err)
	}
	return s.recovery.Timeline(recoveryStates(states), s.now()), nil
}

// RecommendRequest is a recommendation query.
type RecommendRequest struct {
	Target          muscle.Muscle
	Equipment       []exercise.Equipment
	Exclude         []string
	IgnoreEquipment bool
}

// Recommend scores exercises for the target against the user's current state.
func (s *Service) Recommend(ctx context.Context, userID int, req RecommendRequest) (*recommend.Result, error) {
	snap, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	asOf := s.now()
	recent, err := s.store.RecentExerciseIDs(ctx, userID, asOf.Add(-s.opts.RecentWindow))
	if err != nil {
		return nil, fmt.Errorf("loading recent exercises: %w", err)
	}

	equipment := req.Equipment
	if len(equipment) == 0 {
		equipment = s.opts.Equipment
	}
	volumes := make(map[muscle.Muscle]float64)
	for _, st := range snap.states {
		if v := volumeToday(st, asOf); v > 0 {
			volumes[st.Muscle] = v
		}
	}

	res, err := s.recommender.Recommend(recommend.Request{
		Target:          req.Target,
		CurrentFatigue:  s.recovery.CurrentMap(recoveryStates(snap.states), asOf),
		CurrentVolumes:  volumes,
		Baselines:       snap.baselines,
		Equipment:       equipment,
		IgnoreEquipment: req.IgnoreEquipment,
		Exclude:         req.Exclude,
		Recent:          recent,
		Calibrations:    snap.cal,
	})
	if err != nil {
		return nil, err
	}
	s.rec.RecommendationsServed(len(res.Safe), len(res.Unsafe))
	return res, nil
}

// Forecast projects a planned workout on top of current fatigue. It never
// writes.
func (s *Service) Forecast(ctx context.Context, userID int, planned []forecast.PlannedExercise) (*forecast.Result, error) {
	snap, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	current := s.recovery.CurrentMap(recoveryStates(snap.states), s.now())
	res, err := s.forecaster.Forecast(planned, current, snap.baselines, snap.cal)
	if err != nil {
		return nil, err
	}
	s.rec.BottlenecksFlagged(len(res.Bottlenecks))
	return res, nil
}

// volumeToday is the state's volume if it was trained on asOf's UTC day.
func volumeToday(st models.MuscleState, asOf time.Time) float64 {
	if st.LastTrained == nil || !sameDay(*st.LastTrained, asOf) {
		return 0
	}
	return st.VolumeToday
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
