package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/claude/fitforge/internal/exercise"
	"github.com/claude/fitforge/internal/ingest/alpha"
	"github.com/claude/fitforge/internal/models"
	"github.com/claude/fitforge/internal/muscle"
	"github.com/claude/fitforge/internal/training"
)

type workoutSetBody struct {
	ExerciseID string  `json:"exercise_id"`
	SetNumber  int     `json:"set_number"`
	Reps       int     `json:"reps"`
	Weight     float64 `json:"weight"`
	ToFailure  *bool   `json:"to_failure"`
}

type workoutBody struct {
	Date        *time.Time       `json:"date"`
	Category    string           `json:"category"`
	Variation   string           `json:"variation"`
	DurationSec int              `json:"duration_sec"`
	Sets        []workoutSetBody `json:"sets"`
}

func (s *Server) handleCompleteWorkout(w http.ResponseWriter, r *http.Request) {
	var body workoutBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	req := training.CompleteRequest{
		Category:    body.Category,
		Variation:   body.Variation,
		DurationSec: body.DurationSec,
		Sets:        make([]models.WorkoutSet, 0, len(body.Sets)),
	}
	if body.Date != nil {
		req.Date = *body.Date
	}
	for i, set := range body.Sets {
		if set.ToFailure == nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("set %d: to_failure is required", i+1)})
			return
		}
		req.Sets = append(req.Sets, models.WorkoutSet{
			ExerciseID: set.ExerciseID,
			SetNumber:  set.SetNumber,
			Reps:       set.Reps,
			Weight:     set.Weight,
			ToFailure:  *set.ToFailure,
		})
	}

	out, err := s.svc.Complete(r.Context(), userIDFromContext(r), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleListWorkouts(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseTimeRange(r, s.svc.Now(), 30)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	workouts, err := s.svc.Workouts(r.Context(), userIDFromContext(r), start, end)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, workouts)
}

func (s *Server) handleGetWorkout(w http.ResponseWriter, r *http.Request) {
	workoutID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid workout ID"})
		return
	}
	workout, err := s.svc.Workout(r.Context(), userIDFromContext(r), workoutID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, workout)
}

func (s *Server) handleTrainingSummary(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseTimeRange(r, s.svc.Now(), 84)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	periods, err := s.svc.TrainingSummary(r.Context(), userIDFromContext(r), start, end, r.URL.Query().Get("bucket"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, periods)
}

func (s *Server) handleListBaselines(w http.ResponseWriter, r *http.Request) {
	baselines, err := s.svc.Baselines(r.Context(), userIDFromContext(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, baselines)
}

type baselineBody struct {
	Value *float64 `json:"value"`
}

func (s *Server) handleAcceptBaseline(w http.ResponseWriter, r *http.Request) {
	m, err := muscle.Parse(chi.URLParam(r, "muscle"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	var body baselineBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if body.Value == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "value is required"})
		return
	}
	b, err := s.svc.AcceptSuggestion(r.Context(), userIDFromContext(r), m, *body.Value)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// handleOverrideBaseline sets the override, or clears it for {"value": null}.
func (s *Server) handleOverrideBaseline(w http.ResponseWriter, r *http.Request) {
	m, err := muscle.Parse(chi.URLParam(r, "muscle"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	var body baselineBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	b, err := s.svc.SetBaselineOverride(r.Context(), userIDFromContext(r), m, body.Value)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleListExercises(w http.ResponseWriter, r *http.Request) {
	category := exercise.Category(r.URL.Query().Get("category"))
	exercises, err := s.svc.Exercises(r.Context(), userIDFromContext(r), category)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, exercises)
}

func (s *Server) handleGetExercise(w http.ResponseWriter, r *http.Request) {
	ex, err := s.svc.Exercise(r.Context(), userIDFromContext(r), chi.URLParam(r, "id"))
	if errors.Is(err, exercise.ErrUnknownExercise) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ex)
}

type calibrationBody struct {
	Engagements map[muscle.Muscle]float64 `json:"engagements"`
}

func (s *Server) handleSetCalibration(w http.ResponseWriter, r *http.Request) {
	var body calibrationBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	ex, err := s.svc.SetCalibration(r.Context(), userIDFromContext(r), chi.URLParam(r, "exerciseID"), body.Engagements)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ex)
}

func (s *Server) handleResetCalibration(w http.ResponseWriter, r *http.Request) {
	ex, err := s.svc.ResetCalibration(r.Context(), userIDFromContext(r), chi.URLParam(r, "exerciseID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ex)
}

const maxImportBytes = 10 << 20

// handleAlphaImport takes a raw Alpha Progression CSV export as the body.
func (s *Server) handleAlphaImport(w http.ResponseWriter, r *http.Request) {
	result, err := s.alpha.Ingest(r.Context(), http.MaxBytesReader(w, r.Body, maxImportBytes), userIDFromContext(r))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.Is(err, alpha.ErrMalformed) || errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
