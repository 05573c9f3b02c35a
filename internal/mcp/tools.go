package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/fitforge/internal/exercise"
	"github.com/claude/fitforge/internal/forecast"
	"github.com/claude/fitforge/internal/muscle"
	"github.com/claude/fitforge/internal/training"
)

// defaultTimeRange returns start/end defaulting to the last days days.
func defaultTimeRange(startStr, endStr string, days int) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if endStr != "" {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		end = time.Now()
	}

	if startStr != "" {
		start, err = parseFlexTime(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		start = end.AddDate(0, 0, -days)
	}

	return start, end, nil
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse("2006-01-02", s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, err
}

// splitList splits a comma separated argument, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func muscleNames() []string {
	all := muscle.All()
	names := make([]string, len(all))
	for i, m := range all {
		names[i] = m.String()
	}
	return names
}

// --- Tool definitions ---

var toolGetRecoveryTimeline = mcp.NewTool("get_recovery_timeline",
	mcp.WithDescription("Current fatigue of all 13 muscles with projected fatigue in 24, 48 and 72 hours and the time each muscle is fully recovered."),
)

var toolGetMuscleStates = mcp.NewTool("get_muscle_states",
	mcp.WithDescription("Current fatigue, volume performed today and last trained time for every muscle."),
)

var toolRecommendExercises = mcp.NewTool("recommend_exercises",
	mcp.WithDescription("Rank exercises for a target muscle. Each result has a score, its factors, and whether it is safe given current fatigue. Unsafe results explain which muscle would be overloaded."),
	mcp.WithString("target", mcp.Required(), mcp.Description("Target muscle"), mcp.Enum(muscleNames()...)),
	mcp.WithString("equipment", mcp.Description("Comma separated available equipment (e.g. 'Dumbbells, Bench'). Defaults to the configured gym.")),
	mcp.WithString("exclude", mcp.Description("Comma separated exercise ids to leave out")),
	mcp.WithBoolean("ignore_equipment", mcp.Description("Consider every exercise regardless of equipment")),
)

var toolForecastWorkout = mcp.NewTool("forecast_workout",
	mcp.WithDescription("Project the fatigue a planned workout would add on top of current fatigue, without saving anything. Flags muscles approaching or exceeding the limit."),
	mcp.WithArray("exercises", mcp.Required(),
		mcp.Description("Planned exercises, e.g. [{\"exerciseId\":\"goblet-squat\",\"estimatedSets\":[{\"reps\":10,\"weight\":20}]}]"),
		mcp.Items(map[string]any{
			"type": "object",
			"properties": map[string]any{
				"exerciseId": map[string]any{"type": "string"},
				"estimatedSets": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"reps":   map[string]any{"type": "integer"},
							"weight": map[string]any{"type": "number"},
						},
					},
				},
			},
			"required": []string{"exerciseId"},
		}),
	),
)

var toolListExercises = mcp.NewTool("list_exercises",
	mcp.WithDescription("List the exercise library with equipment and muscle engagement percentages, including the user's calibrations."),
	mcp.WithString("category", mcp.Description("Filter by category"), mcp.Enum("Push", "Pull", "Legs", "Core")),
)

var toolGetWorkouts = mcp.NewTool("get_workouts",
	mcp.WithDescription("Logged workouts with every set (exercise, reps, weight, to failure), newest first."),
	mcp.WithString("start", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Defaults to 30 days ago.")),
	mcp.WithString("end", mcp.Description("End date (ISO 8601 or YYYY-MM-DD). Defaults to now.")),
)

var toolGetTrainingSummary = mcp.NewTool("get_training_summary",
	mcp.WithDescription("Weekly or monthly training volume: sessions per category, working sets, sets to failure, reps and tonnage."),
	mcp.WithString("start", mcp.Description("Start date. Defaults to 12 weeks ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
	mcp.WithString("bucket", mcp.Description("Aggregation period. Defaults to 'week'."), mcp.Enum("week", "month")),
)

var toolGetBaselines = mcp.NewTool("get_baselines",
	mcp.WithDescription("Per-muscle baseline capacity: the system-learned maximum volume and any user override."),
)

// --- Tool handlers ---

func (h *handlers) getRecoveryTimeline(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	timeline, err := h.ds.Timeline(ctx, UserIDFromContext(ctx))
	if err != nil {
		h.log.Error("mcp get_recovery_timeline", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(timeline)
}

func (h *handlers) getMuscleStates(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	states, err := h.ds.MuscleStates(ctx, UserIDFromContext(ctx))
	if err != nil {
		h.log.Error("mcp get_muscle_states", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(states)
}

func (h *handlers) recommendExercises(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	targetStr, err := req.RequireString("target")
	if err != nil {
		return mcp.NewToolResultError("target parameter is required"), nil
	}
	target, err := muscle.Parse(targetStr)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	rr := training.RecommendRequest{
		Target:          target,
		Exclude:         splitList(req.GetString("exclude", "")),
		IgnoreEquipment: req.GetBool("ignore_equipment", false),
	}
	for _, name := range splitList(req.GetString("equipment", "")) {
		eq, err := exercise.ParseEquipment(name)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		rr.Equipment = append(rr.Equipment, eq)
	}

	res, err := h.ds.Recommend(ctx, UserIDFromContext(ctx), rr)
	if err != nil {
		h.log.Error("mcp recommend_exercises", "error", err)
		return mcp.NewToolResultError("recommendation failed: " + err.Error()), nil
	}
	return jsonResult(res)
}

func (h *handlers) forecastWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, ok := req.GetArguments()["exercises"]
	if !ok {
		return mcp.NewToolResultError("exercises parameter is required"), nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return mcp.NewToolResultError("invalid exercises: " + err.Error()), nil
	}
	var planned []forecast.PlannedExercise
	if err := json.Unmarshal(data, &planned); err != nil {
		return mcp.NewToolResultError("invalid exercises: " + err.Error()), nil
	}

	res, err := h.ds.Forecast(ctx, UserIDFromContext(ctx), planned)
	if err != nil {
		h.log.Error("mcp forecast_workout", "error", err)
		return mcp.NewToolResultError("forecast failed: " + err.Error()), nil
	}
	return jsonResult(res)
}

func (h *handlers) listExercises(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category := exercise.Category(req.GetString("category", ""))
	exercises, err := h.ds.Exercises(ctx, UserIDFromContext(ctx), category)
	if err != nil {
		h.log.Error("mcp list_exercises", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(exercises)
}

func (h *handlers) getWorkouts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""), 30)
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}
	workouts, err := h.ds.Workouts(ctx, UserIDFromContext(ctx), start, end)
	if err != nil {
		h.log.Error("mcp get_workouts", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(workouts)
}

func (h *handlers) getTrainingSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""), 84)
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}
	periods, err := h.ds.TrainingSummary(ctx, UserIDFromContext(ctx), start, end, req.GetString("bucket", "week"))
	if err != nil {
		h.log.Error("mcp get_training_summary", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(periods)
}

func (h *handlers) getBaselines(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	baselines, err := h.ds.Baselines(ctx, UserIDFromContext(ctx))
	if err != nil {
		h.log.Error("mcp get_baselines", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(baselines)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
