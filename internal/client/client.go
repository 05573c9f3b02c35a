// Package client calls the FitForge REST API. The stdio MCP server and the
// CLI use it to reach a remote instance, typically over Tailscale.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/claude/fitforge/internal/exercise"
	"github.com/claude/fitforge/internal/forecast"
	"github.com/claude/fitforge/internal/ingest"
	"github.com/claude/fitforge/internal/models"
	"github.com/claude/fitforge/internal/muscle"
	"github.com/claude/fitforge/internal/recommend"
	"github.com/claude/fitforge/internal/recovery"
	"github.com/claude/fitforge/internal/training"
)

// Client talks to one FitForge server. The user is whoever the server
// resolves the caller to, so the userID arguments below are ignored.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a Client targeting the given base URL. apiKey may be empty.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// StatusError is a non-2xx response.
type StatusError struct {
	Path    string
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("client: %s returned %d: %s", e.Path, e.Status, e.Message)
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, in, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	// A reader is sent as is; anything else is encoded as JSON.
	var body io.Reader
	contentType := "application/json"
	switch v := in.(type) {
	case nil:
	case io.Reader:
		body, contentType = v, "text/csv"
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("client: encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("client: create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("client: read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(data))
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return &StatusError{Path: path, Status: resp.StatusCode, Message: msg}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("client: decode %s: %w", path, err)
	}
	return nil
}

func timeParams(start, end time.Time) url.Values {
	v := url.Values{}
	v.Set("start", start.Format(time.RFC3339))
	v.Set("end", end.Format(time.RFC3339))
	return v
}

// Me returns the identity the server sees.
func (c *Client) Me(ctx context.Context) (login, displayName string, err error) {
	var info struct {
		Login       string `json:"login"`
		DisplayName string `json:"display_name"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/me", nil, nil, &info); err != nil {
		return "", "", err
	}
	return info.Login, info.DisplayName, nil
}

func (c *Client) MuscleStates(ctx context.Context, _ int) (map[muscle.Muscle]training.MuscleStatus, error) {
	var out map[muscle.Muscle]training.MuscleStatus
	if err := c.do(ctx, http.MethodGet, "/api/v1/muscle-states", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type stateBody struct {
	InitialFatiguePercent float64    `json:"initial_fatigue_percent"`
	LastTrained           *time.Time `json:"last_trained,omitempty"`
}

func (c *Client) SetMuscleStates(ctx context.Context, _ int, in map[muscle.Muscle]training.StateInput) (map[muscle.Muscle]training.MuscleStatus, error) {
	body := make(map[muscle.Muscle]stateBody, len(in))
	for m, v := range in {
		body[m] = stateBody{InitialFatiguePercent: v.InitialFatiguePercent, LastTrained: v.LastTrained}
	}
	var out map[muscle.Muscle]training.MuscleStatus
	if err := c.do(ctx, http.MethodPut, "/api/v1/muscle-states", nil, body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Timeline(ctx context.Context, _ int) ([]recovery.Projection, error) {
	var out struct {
		Muscles []recovery.Projection `json:"muscles"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/recovery/timeline", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Muscles, nil
}

type recommendFilters struct {
	Equipment        []exercise.Equipment `json:"equipment,omitempty"`
	ExcludeExercises []string             `json:"excludeExercises,omitempty"`
	IgnoreEquipment  bool                 `json:"ignoreEquipment,omitempty"`
}

func (c *Client) Recommend(ctx context.Context, _ int, req training.RecommendRequest) (*recommend.Result, error) {
	body := struct {
		TargetMuscle muscle.Muscle    `json:"targetMuscle"`
		Filters      recommendFilters `json:"filters"`
	}{
		TargetMuscle: req.Target,
		Filters: recommendFilters{
			Equipment:        req.Equipment,
			ExcludeExercises: req.Exclude,
			IgnoreEquipment:  req.IgnoreEquipment,
		},
	}
	var out recommend.Result
	if err := c.do(ctx, http.MethodPost, "/api/v1/recommendations/exercises", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Forecast(ctx context.Context, _ int, planned []forecast.PlannedExercise) (*forecast.Result, error) {
	body := map[string]any{"exercises": planned}
	var out forecast.Result
	if err := c.do(ctx, http.MethodPost, "/api/v1/forecast/workout", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type workoutBody struct {
	Date        *time.Time          `json:"date,omitempty"`
	Category    string              `json:"category,omitempty"`
	Variation   string              `json:"variation,omitempty"`
	DurationSec int                 `json:"duration_sec"`
	Sets        []models.WorkoutSet `json:"sets"`
}

func (c *Client) Complete(ctx context.Context, _ int, req training.CompleteRequest) (*training.Completion, error) {
	body := workoutBody{
		Category:    req.Category,
		Variation:   req.Variation,
		DurationSec: req.DurationSec,
		Sets:        req.Sets,
	}
	if !req.Date.IsZero() {
		body.Date = &req.Date
	}
	var out training.Completion
	if err := c.do(ctx, http.MethodPost, "/api/v1/workouts", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Workouts(ctx context.Context, _ int, start, end time.Time) ([]models.Workout, error) {
	var out []models.Workout
	if err := c.do(ctx, http.MethodGet, "/api/v1/workouts", timeParams(start, end), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Workout(ctx context.Context, _ int, id uuid.UUID) (*models.Workout, error) {
	var out models.Workout
	if err := c.do(ctx, http.MethodGet, "/api/v1/workouts/"+id.String(), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) TrainingSummary(ctx context.Context, _ int, start, end time.Time, bucket string) ([]training.SummaryPeriod, error) {
	params := timeParams(start, end)
	if bucket != "" {
		params.Set("bucket", bucket)
	}
	var out []training.SummaryPeriod
	if err := c.do(ctx, http.MethodGet, "/api/v1/training/summary", params, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Baselines(ctx context.Context, _ int) ([]models.MuscleBaseline, error) {
	var out []models.MuscleBaseline
	if err := c.do(ctx, http.MethodGet, "/api/v1/baselines", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AcceptSuggestion(ctx context.Context, _ int, m muscle.Muscle, value float64) (*models.MuscleBaseline, error) {
	var out models.MuscleBaseline
	path := "/api/v1/baselines/" + url.PathEscape(m.String()) + "/accept"
	if err := c.do(ctx, http.MethodPost, path, nil, map[string]float64{"value": value}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetBaselineOverride sets the override, or clears it when value is nil.
func (c *Client) SetBaselineOverride(ctx context.Context, _ int, m muscle.Muscle, value *float64) (*models.MuscleBaseline, error) {
	var out models.MuscleBaseline
	path := "/api/v1/baselines/" + url.PathEscape(m.String()) + "/override"
	if err := c.do(ctx, http.MethodPut, path, nil, map[string]*float64{"value": value}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Exercises(ctx context.Context, _ int, category exercise.Category) ([]training.ExerciseView, error) {
	var params url.Values
	if category != "" {
		params = url.Values{"category": {string(category)}}
	}
	var out []training.ExerciseView
	if err := c.do(ctx, http.MethodGet, "/api/v1/exercises", params, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SetCalibration(ctx context.Context, _ int, exerciseID string, pcts map[muscle.Muscle]float64) (*training.ExerciseView, error) {
	var out training.ExerciseView
	body := map[string]any{"engagements": pcts}
	if err := c.do(ctx, http.MethodPut, "/api/v1/calibrations/"+url.PathEscape(exerciseID), nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ResetCalibration(ctx context.Context, _ int, exerciseID string) (*training.ExerciseView, error) {
	var out training.ExerciseView
	if err := c.do(ctx, http.MethodDelete, "/api/v1/calibrations/"+url.PathEscape(exerciseID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ImportAlpha uploads an Alpha Progression CSV export.
func (c *Client) ImportAlpha(ctx context.Context, _ int, export io.Reader) (*ingest.Result, error) {
	var out ingest.Result
	if err := c.do(ctx, http.MethodPost, "/api/v1/import/alpha", nil, export, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
