package training

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/claude/fitforge/internal/models"
	"github.com/google/uuid"
)

// Workouts returns the workouts in [start, end), newest first.
func (s *Service) Workouts(ctx context.Context, userID int, start, end time.Time) ([]models.Workout, error) {
	if !start.Before(end) {
		return nil, fmt.Errorf("%w: start must be before end", ErrInvalidInput)
	}
	ws, err := s.store.ListWorkouts(ctx, userID, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("listing workouts: %w", err)
	}
	if ws == nil {
		ws = []models.Workout{}
	}
	return ws, nil
}

// Workout returns one workout with its sets.
func (s *Service) Workout(ctx context.Context, userID int, id uuid.UUID) (*models.Workout, error) {
	w, err := s.store.GetWorkout(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("getting workout %s: %w", id, err)
	}
	return w, nil
}

// CategorySummary aggregates the workouts of one category in a period.
type CategorySummary struct {
	Category    string  `json:"category"`
	Count       int     `json:"count"`
	AvgDuration float64 `json:"avg_duration_sec"`
}

// SummaryPeriod holds the aggregated training of one period.
type SummaryPeriod struct {
	Period            string            `json:"period"`
	Workouts          []CategorySummary `json:"workouts"`
	Sessions          int               `json:"sessions"`
	WorkingSets       int               `json:"working_sets"`
	SetsToFailure     int               `json:"sets_to_failure"`
	TotalReps         int               `json:"total_reps"`
	Tonnage           float64           `json:"tonnage"`
	AvgSetsPerSession float64           `json:"avg_sets_per_session"`
}

// TrainingSummary aggregates workouts in [start, end) per week or month,
// newest period first. Weeks start on Monday.
func (s *Service) TrainingSummary(ctx context.Context, userID int, start, end time.Time, bucket string) ([]SummaryPeriod, error) {
	if bucket == "" {
		bucket = "week"
	}
	if bucket != "week" && bucket != "month" {
		return nil, fmt.Errorf("%w: bucket must be week or month", ErrInvalidInput)
	}
	ws, err := s.Workouts(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}

	periods := map[string]*SummaryPeriod{}
	type catAgg struct {
		count    int
		duration int
	}
	cats := map[string]map[string]*catAgg{}
	for _, w := range ws {
		key := truncate(w.Date, bucket).Format("2006-01-02")
		p, ok := periods[key]
		if !ok {
			p = &SummaryPeriod{Period: key}
			periods[key] = p
			cats[key] = map[string]*catAgg{}
		}
		p.Sessions++
		for _, set := range w.Sets {
			p.WorkingSets++
			p.TotalReps += set.Reps
			p.Tonnage += float64(set.Reps) * set.Weight
			if set.ToFailure {
				p.SetsToFailure++
			}
		}
		c, ok := cats[key][w.Category]
		if !ok {
			c = &catAgg{}
			cats[key][w.Category] = c
		}
		c.count++
		c.duration += w.DurationSec
	}

	out := make([]SummaryPeriod, 0, len(periods))
	for key, p := range periods {
		p.AvgSetsPerSession = float64(p.WorkingSets) / float64(p.Sessions)
		for name, c := range cats[key] {
			p.Workouts = append(p.Workouts, CategorySummary{
				Category:    name,
				Count:       c.count,
				AvgDuration: float64(c.duration) / float64(c.count),
			})
		}
		sort.Slice(p.Workouts, func(i, j int) bool {
			if p.Workouts[i].Count != p.Workouts[j].Count {
				return p.Workouts[i].Count > p.Workouts[j].Count
			}
			return p.Workouts[i].Category < p.Workouts[j].Category
		})
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period > out[j].Period })
	return out, nil
}

func truncate(t time.Time, bucket string) time.Time {
	y, m, d := t.UTC().Date()
	if bucket == "month" {
		return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	}
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}
