package exercise

import (
	_ "embed"
	"fmt"
	"sort"

	"github.com/claude/fitforge/internal/muscle"
	"gopkg.in/yaml.v3"
)

//go:embed library.yaml
var defaultLibrary []byte

// Library is a read-only, id-keyed exercise table.
type Library struct {
	byID    map[string]*Exercise
	byName  map[string]*Exercise
	ordered []*Exercise
}

type libraryFile struct {
	Exercises []libraryEntry `yaml:"exercises"`
}

type libraryEntry struct {
	ID          string                      `yaml:"id"`
	Name        string                      `yaml:"name"`
	Category    Category                    `yaml:"category"`
	Equipment   []Equipment                 `yaml:"equipment"`
	Difficulty  Difficulty                  `yaml:"difficulty"`
	Aliases     []string                    `yaml:"aliases"`
	Engagements []muscle.Engagement         `yaml:"engagements"`
	Detailed    []muscle.DetailedEngagement `yaml:"detailed"`
}

// Default parses the embedded library.
func Default() (*Library, error) {
	return Load(defaultLibrary)
}

// Load parses and validates a YAML exercise library.
func Load(data []byte) (*Library, error) {
	var f libraryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing exercise library: %w", err)
	}

	exercises := make([]*Exercise, 0, len(f.Exercises))
	for _, entry := range f.Exercises {
		exercises = append(exercises, entry.build())
	}
	return New(exercises)
}

func (e libraryEntry) build() *Exercise {
	engagements := e.Engagements
	if len(engagements) == 0 {
		engagements = muscle.Rollup(e.Detailed)
	}
	return &Exercise{
		ID:          e.ID,
		Name:        e.Name,
		Category:    e.Category,
		Equipment:   e.Equipment,
		Difficulty:  e.Difficulty,
		Engagements: engagements,
		Aliases:     e.Aliases,
	}
}

// New builds a library from already-constructed exercises after validating them.
func New(exercises []*Exercise) (*Library, error) {
	lib := &Library{byID: make(map[string]*Exercise, len(exercises))}
	for _, ex := range exercises {
		if err := validate(ex); err != nil {
			return nil, err
		}
		if _, dup := lib.byID[ex.ID]; dup {
			return nil, fmt.Errorf("exercise library: duplicate id %q", ex.ID)
		}
		lib.byID[ex.ID] = ex
		lib.ordered = append(lib.ordered, ex)
	}
	sort.Slice(lib.ordered, func(i, j int) bool { return lib.ordered[i].ID < lib.ordered[j].ID })
	lib.buildNameIndex()
	return lib, nil
}

func validate(ex *Exercise) error {
	if ex.ID == "" {
		return fmt.Errorf("exercise library: exercise %q has no id", ex.Name)
	}
	if !ex.Category.Valid() {
		return fmt.Errorf("exercise library: %s: invalid category %q", ex.ID, ex.Category)
	}
	if len(ex.Equipment) == 0 {
		return fmt.Errorf("exercise library: %s: no equipment", ex.ID)
	}
	for _, eq := range ex.Equipment {
		if _, err := ParseEquipment(string(eq)); err != nil {
			return fmt.Errorf("exercise library: %s: %w", ex.ID, err)
		}
	}
	if len(ex.Engagements) == 0 {
		return fmt.Errorf("exercise library: %s: no muscle engagements", ex.ID)
	}
	seen := map[muscle.Muscle]bool{}
	for _, eng := range ex.Engagements {
		if !eng.Muscle.Valid() {
			return fmt.Errorf("exercise library: %s: %w", ex.ID, muscle.ErrUnknownMuscle)
		}
		if eng.Percentage < 0 || eng.Percentage > 100 {
			return fmt.Errorf("exercise library: %s: %s engagement %.1f out of range", ex.ID, eng.Muscle, eng.Percentage)
		}
		if seen[eng.Muscle] {
			return fmt.Errorf("exercise library: %s: duplicate engagement for %s", ex.ID, eng.Muscle)
		}
		seen[eng.Muscle] = true
	}
	return nil
}

// Get returns the exercise with the given id.
func (l *Library) Get(id string) (*Exercise, error) {
	ex, ok := l.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownExercise, id)
	}
	return ex, nil
}

// All returns every exercise sorted by id. The slice must not be modified.
func (l *Library) All() []*Exercise {
	return l.ordered
}

// Len returns the number of exercises.
func (l *Library) Len() int {
	return len(l.ordered)
}
