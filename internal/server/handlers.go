package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/claude/fitforge/internal/exercise"
	"github.com/claude/fitforge/internal/fatigue"
	"github.com/claude/fitforge/internal/forecast"
	"github.com/claude/fitforge/internal/muscle"
	"github.com/claude/fitforge/internal/training"
)

const maxBodyBytes = 1 << 20

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userInfoFromContext(r))
}

func (s *Server) handleGetMuscleStates(w http.ResponseWriter, r *http.Request) {
	states, err := s.svc.MuscleStates(r.Context(), userIDFromContext(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, states)
}

type muscleStateBody struct {
	InitialFatiguePercent *float64   `json:"initial_fatigue_percent"`
	LastTrained           *time.Time `json:"last_trained"`
}

func (s *Server) handleSetMuscleStates(w http.ResponseWriter, r *http.Request) {
	var body map[muscle.Muscle]muscleStateBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if len(body) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no muscles given"})
		return
	}
	in := make(map[muscle.Muscle]training.StateInput, len(body))
	for m, v := range body {
		if v.InitialFatiguePercent == nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("%s: initial_fatigue_percent is required", m)})
			return
		}
		in[m] = training.StateInput{InitialFatiguePercent: *v.InitialFatiguePercent, LastTrained: v.LastTrained}
	}
	states, err := s.svc.SetMuscleStates(r.Context(), userIDFromContext(r), in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, states)
}

func (s *Server) handleRecoveryTimeline(w http.ResponseWriter, r *http.Request) {
	timeline, err := s.svc.Timeline(r.Context(), userIDFromContext(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"muscles": timeline})
}

type recommendBody struct {
	TargetMuscle string `json:"targetMuscle"`
	Filters      struct {
		Equipment        []string `json:"equipment"`
		ExcludeExercises []string `json:"excludeExercises"`
		IgnoreEquipment  bool     `json:"ignoreEquipment"`
	} `json:"filters"`
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var body recommendBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	target, err := muscle.Parse(body.TargetMuscle)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	req := training.RecommendRequest{
		Target:          target,
		Exclude:         body.Filters.ExcludeExercises,
		IgnoreEquipment: body.Filters.IgnoreEquipment,
	}
	for _, name := range body.Filters.Equipment {
		eq, err := exercise.ParseEquipment(name)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		req.Equipment = append(req.Equipment, eq)
	}

	res, err := s.svc.Recommend(r.Context(), userIDFromContext(r), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type forecastBody struct {
	Exercises []forecast.PlannedExercise `json:"exercises"`
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	var body forecastBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	res, err := s.svc.Forecast(r.Context(), userIDFromContext(r), body.Exercises)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// writeError maps service errors to a status code. Unexpected errors are
// logged and hidden behind a generic message.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, training.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, training.ErrInvalidInput),
		errors.Is(err, muscle.ErrUnknownMuscle),
		errors.Is(err, exercise.ErrUnknownExercise),
		errors.Is(err, fatigue.ErrInvalidSet):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		s.log.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

// decodeJSON reads a single JSON value, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// parseTimeRange reads start and end query parameters as RFC 3339 or
// YYYY-MM-DD. A date-only end covers that whole day. Without start the
// range is the last defaultDays up to now.
func parseTimeRange(r *http.Request, now time.Time, defaultDays int) (start, end time.Time, err error) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	end = now
	if endStr != "" {
		end, err = time.Parse(time.RFC3339, endStr)
		if err != nil {
			end, err = time.Parse("2006-01-02", endStr)
			if err != nil {
				return time.Time{}, time.Time{}, fmt.Errorf("invalid end %q", endStr)
			}
			end = end.Add(24 * time.Hour)
		}
	}

	if startStr == "" {
		return end.AddDate(0, 0, -defaultDays), end, nil
	}
	start, err = time.Parse(time.RFC3339, startStr)
	if err != nil {
		start, err = time.Parse("2006-01-02", startStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start %q", startStr)
		}
	}
	return start, end, nil
}
