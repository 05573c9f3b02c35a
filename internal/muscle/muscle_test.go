package muscle

import (
	"encoding/json"
	"errors"
	"testing"
)

// TestValidate verifies the shipped taxonomy is total and onto.
func TestValidate(t *testing.T) {
	if err := Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

// TestEveryDetailedMuscleHasOneGroup checks the 42 → 13 mapping directly.
func TestEveryDetailedMuscleHasOneGroup(t *testing.T) {
	all := AllDetailed()
	if len(all) != DetailedCount {
		t.Fatalf("len(AllDetailed()) = %d, want %d", len(all), DetailedCount)
	}
	counts := map[Muscle]int{}
	for _, d := range all {
		g := d.Group()
		if !g.Valid() {
			t.Errorf("%s maps to invalid group %d", d, g)
		}
		counts[g]++
	}
	for _, m := range All() {
		if counts[m] == 0 {
			t.Errorf("%s has no detailed muscles", m)
		}
		if got := len(Detailed(m)); got != counts[m] {
			t.Errorf("Detailed(%s) = %d muscles, want %d", m, got, counts[m])
		}
	}
}

// TestValidateMappingOrphan verifies that an orphaned detailed muscle and an
// uncovered group are both reported.
func TestValidateMappingOrphan(t *testing.T) {
	err := validateMapping(AllDetailed(), func(d DetailedMuscle) Muscle {
		if d.Group() == Calves {
			return 0
		}
		return d.Group()
	})

	var mapErr *IncompleteMappingError
	if !errors.As(err, &mapErr) {
		t.Fatalf("err = %v, want *IncompleteMappingError", err)
	}
	if len(mapErr.Orphaned) != 2 {
		t.Errorf("orphaned = %v, want 2 calf muscles", mapErr.Orphaned)
	}
	if len(mapErr.Empty) != 1 || mapErr.Empty[0] != Calves {
		t.Errorf("empty = %v, want [Calves]", mapErr.Empty)
	}
}

// TestValidateMappingMissingDetailed verifies that dropping detailed muscles
// is caught even when every group is still covered.
func TestValidateMappingMissingDetailed(t *testing.T) {
	all := AllDetailed()
	if err := validateMapping(all[:len(all)-1], DetailedMuscle.Group); err == nil {
		t.Fatal("expected error for 41 detailed muscles")
	}
}

// TestParse verifies case-insensitive parsing and the unknown-muscle error.
func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Muscle
		wantErr bool
	}{
		{"Pectoralis", Pectoralis, false},
		{"pectoralis", Pectoralis, false},
		{" HAMSTRINGS ", Hamstrings, false},
		{"Core", Core, false},
		{"Pecs", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrUnknownMuscle) {
				t.Errorf("Parse(%q) err = %v, want ErrUnknownMuscle", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("Parse(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
}

// TestJSONMapKeys verifies muscles encode as names when used as map keys.
func TestJSONMapKeys(t *testing.T) {
	in := map[Muscle]float64{Quadriceps: 67.5, Core: 10}
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	if want := `{"Core":10,"Quadriceps":67.5}`; string(b) != want {
		t.Errorf("json = %s, want %s", b, want)
	}

	var out map[Muscle]float64
	if err := json.Unmarshal([]byte(`{"quadriceps": 5}`), &out); err != nil {
		t.Fatal(err)
	}
	if out[Quadriceps] != 5 {
		t.Errorf("decoded = %v, want Quadriceps=5", out)
	}

	if err := json.Unmarshal([]byte(`{"Quads": 5}`), &out); err == nil {
		t.Error("expected error for unknown muscle key")
	}
}

// TestRollup verifies detailed engagements fold to the max per group.
func TestRollup(t *testing.T) {
	got := Rollup([]DetailedEngagement{
		{Muscle: VastusLateralis, Percentage: 45},
		{Muscle: RectusFemoris, Percentage: 35},
		{Muscle: GluteusMaximus, Percentage: 30},
		{Muscle: ErectorSpinae, Percentage: 10},
	})
	want := []Engagement{
		{Muscle: Quadriceps, Percentage: 45},
		{Muscle: Glutes, Percentage: 30},
		{Muscle: Core, Percentage: 10},
	}
	if len(got) != len(want) {
		t.Fatalf("Rollup = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Rollup[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

// TestDefaultRoles spot-checks the primary/stabilizer classification.
func TestDefaultRoles(t *testing.T) {
	if r := GluteusMaximus.DefaultRole(); r != RolePrimary {
		t.Errorf("GluteusMaximus role = %s, want primary", r)
	}
	if r := Supraspinatus.DefaultRole(); r != RoleStabilizer {
		t.Errorf("Supraspinatus role = %s, want stabilizer", r)
	}
}
