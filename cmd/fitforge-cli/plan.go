package main

import (
	"fmt"
	"strconv"
	"strings"
)

// plannedLine is one "exercise:SETSxREPS@WEIGHT" argument. A trailing "!"
// marks the last set as taken to failure.
type plannedLine struct {
	ExerciseID string
	Sets       int
	Reps       int
	Weight     float64
	ToFailure  bool
}

func parsePlanLine(arg string) (plannedLine, error) {
	var pl plannedLine
	i := strings.LastIndex(arg, ":")
	if i <= 0 || i == len(arg)-1 {
		return pl, fmt.Errorf("%q: want exercise:SETSxREPS[@WEIGHT][!]", arg)
	}
	name, scheme := arg[:i], strings.ToLower(strings.TrimSpace(arg[i+1:]))

	if strings.HasSuffix(scheme, "!") {
		pl.ToFailure = true
		scheme = strings.TrimSuffix(scheme, "!")
	}
	if at := strings.Index(scheme, "@"); at >= 0 {
		w, err := strconv.ParseFloat(strings.TrimSuffix(scheme[at+1:], "kg"), 64)
		if err != nil || w < 0 {
			return pl, fmt.Errorf("%q: invalid weight", arg)
		}
		pl.Weight = w
		scheme = scheme[:at]
	}
	sets, reps, ok := strings.Cut(scheme, "x")
	if !ok {
		return pl, fmt.Errorf("%q: want SETSxREPS", arg)
	}
	var err error
	if pl.Sets, err = strconv.Atoi(sets); err != nil || pl.Sets < 1 {
		return pl, fmt.Errorf("%q: invalid set count", arg)
	}
	if pl.Reps, err = strconv.Atoi(reps); err != nil || pl.Reps < 0 {
		return pl, fmt.Errorf("%q: invalid reps", arg)
	}

	id, err := resolveExercise(name)
	if err != nil {
		return pl, err
	}
	pl.ExerciseID = id
	return pl, nil
}

// resolveExercise accepts an id, a name, an alias or a close misspelling.
func resolveExercise(name string) (string, error) {
	lib, err := loadLibrary()
	if err != nil {
		return "", err
	}
	if ex, err := lib.Get(strings.TrimSpace(name)); err == nil {
		return ex.ID, nil
	}
	m, ok := lib.Match(name)
	if !ok {
		return "", fmt.Errorf("no exercise matches %q", name)
	}
	return m.Exercise.ID, nil
}
