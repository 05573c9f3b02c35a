package alpha

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrMalformed is returned when the export cannot be read as Alpha
// Progression sessions.
var ErrMalformed = errors.New("malformed alpha progression export")

var (
	// sessionHeaderRe matches: "Session Name";"2026-02-19 4:54 h";"1:02 hr"
	sessionHeaderRe = regexp.MustCompile(`^"(.+)";"(\d{4}-\d{2}-\d{2}\s+\d+:\d+)\s+h";"(.+)"$`)

	// exerciseHeaderRe matches: "1. Exercise Name · Equipment · 8 reps[· modifiers]"[;"warmup info"]
	exerciseHeaderRe = regexp.MustCompile(`^"(\d+)\.\s+(.+?)(?:\s+·\s+(\S.*?))?\s+·\s+(\d+)\s+reps(.*?)"(?:;"(.+)")?$`)

	// setDataRe matches: 1;115;8;1
	setDataRe = regexp.MustCompile(`^(\d+);(.+);(\d+);(.+)$`)

	// warmupRe matches: WU1 · 37,5 kg · 9 reps
	warmupRe = regexp.MustCompile(`WU(\d+)\s+·\s+(.+?)\s+kg\s+·\s+(\d+)\s+reps`)

	columnHeaderRe = regexp.MustCompile(`^#;KG;REPS;RIR$`)
)

// Session is one workout of the export.
type Session struct {
	Name      string
	Date      time.Time
	Duration  time.Duration
	Exercises []Exercise
}

// Exercise is one exercise block of a session.
type Exercise struct {
	Name       string
	Equipment  string
	TargetReps int
	Sets       []Set
}

// Set is one logged set. Weight is the added load for bodyweight-plus sets.
type Set struct {
	Number         int
	Weight         float64
	BodyweightPlus bool
	Reps           int
	RIR            float64
	Warmup         bool
}

// ToFailure reports whether the set ended with no reps in reserve.
func (s Set) ToFailure() bool {
	return !s.Warmup && s.RIR <= 0
}

// parser accumulates sessions line by line. A blank line or a new session
// header closes the current session.
type parser struct {
	sessions []Session
	session  *Session
	exercise *Exercise
}

func (p *parser) closeExercise() {
	if p.exercise != nil {
		p.session.Exercises = append(p.session.Exercises, *p.exercise)
		p.exercise = nil
	}
}

func (p *parser) closeSession() {
	if p.session == nil {
		return
	}
	p.closeExercise()
	p.sessions = append(p.sessions, *p.session)
	p.session = nil
}

func (p *parser) line(line string) error {
	if line == "" {
		p.closeSession()
		return nil
	}
	if columnHeaderRe.MatchString(line) {
		return nil
	}

	if m := sessionHeaderRe.FindStringSubmatch(line); m != nil {
		p.closeSession()
		date, err := parseSessionDate(m[2])
		if err != nil {
			return err
		}
		p.session = &Session{Name: m[1], Date: date, Duration: parseDuration(m[3])}
		return nil
	}

	if m := exerciseHeaderRe.FindStringSubmatch(line); m != nil {
		if p.session == nil {
			return fmt.Errorf("%w: exercise without session: %q", ErrMalformed, line)
		}
		p.closeExercise()
		targetReps, _ := strconv.Atoi(m[4])
		p.exercise = &Exercise{
			Name:       strings.TrimSpace(m[2]),
			Equipment:  strings.TrimSpace(m[3]),
			TargetReps: targetReps,
		}
		if m[6] != "" {
			p.exercise.Sets = append(p.exercise.Sets, parseWarmups(m[6])...)
		}
		return nil
	}

	if m := setDataRe.FindStringSubmatch(line); m != nil {
		if p.exercise == nil {
			return fmt.Errorf("%w: set without exercise: %q", ErrMalformed, line)
		}
		number, _ := strconv.Atoi(m[1])
		weight, plus := parseWeight(m[2])
		reps, _ := strconv.Atoi(m[3])
		p.exercise.Sets = append(p.exercise.Sets, Set{
			Number:         number,
			Weight:         weight,
			BodyweightPlus: plus,
			Reps:           reps,
			RIR:            parseDecimal(m[4]),
		})
	}
	// Anything else is a note.
	return nil
}

// Parse reads an Alpha Progression CSV export.
func Parse(r io.Reader) ([]Session, error) {
	p := &parser{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if err := p.line(strings.TrimSpace(scanner.Text())); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading export: %w", err)
	}
	p.closeSession()
	return p.sessions, nil
}

// parseSessionDate accepts "2026-02-19 4:54" and "2026-02-19 16:54". The
// export carries no zone; times are taken as UTC.
func parseSessionDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02 3:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: cannot parse session date %q", ErrMalformed, s)
}

// parseDuration reads "1:02 hr" or "45 min". Unknown forms give zero.
func parseDuration(s string) time.Duration {
	s = strings.TrimSpace(s)
	if v, ok := strings.CutSuffix(s, " hr"); ok {
		h, m, found := strings.Cut(v, ":")
		hours, err1 := strconv.Atoi(h)
		mins := 0
		var err2 error
		if found {
			mins, err2 = strconv.Atoi(m)
		}
		if err1 != nil || err2 != nil {
			return 0
		}
		return time.Duration(hours)*time.Hour + time.Duration(mins)*time.Minute
	}
	if v, ok := strings.CutSuffix(s, " min"); ok {
		if mins, err := strconv.Atoi(v); err == nil {
			return time.Duration(mins) * time.Minute
		}
	}
	return 0
}

// parseWarmups reads "WU1 · 37,5 kg · 9 reps<br>WU2 · 72,5 kg · 7 reps".
func parseWarmups(s string) []Set {
	var sets []Set
	for _, part := range strings.Split(s, "<br>") {
		m := warmupRe.FindStringSubmatch(part)
		if m == nil {
			continue
		}
		number, _ := strconv.Atoi(m[1])
		weight, plus := parseWeight(m[2])
		reps, _ := strconv.Atoi(m[3])
		sets = append(sets, Set{Number: number, Weight: weight, BodyweightPlus: plus, Reps: reps, Warmup: true})
	}
	return sets
}

// parseWeight handles decimal commas and the "+35" bodyweight-plus form.
func parseWeight(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, "+"); ok {
		return parseDecimal(rest), true
	}
	return parseDecimal(s), false
}

func parseDecimal(s string) float64 {
	f, _ := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
	return f
}
