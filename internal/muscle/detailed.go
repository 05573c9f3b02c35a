package muscle

import (
	"fmt"
	"strings"
)

// DetailedMuscle is an anatomical muscle. Each one belongs to exactly one
// visualization Muscle.
type DetailedMuscle int

const (
	PectoralisClavicular DetailedMuscle = iota + 1
	PectoralisSternal
	TricepsLongHead
	TricepsLateralHead
	TricepsMedialHead
	AnteriorDeltoid
	MedialDeltoid
	PosteriorDeltoid
	Infraspinatus
	Supraspinatus
	TeresMinor
	Subscapularis
	LatissimusDorsi
	TeresMajor
	BicepsLongHead
	BicepsShortHead
	Brachialis
	RhomboidMajor
	RhomboidMinor
	UpperTrapezius
	MiddleTrapezius
	LowerTrapezius
	Brachioradialis
	WristFlexors
	WristExtensors
	RectusFemoris
	VastusLateralis
	VastusMedialis
	VastusIntermedius
	GluteusMaximus
	GluteusMedius
	GluteusMinimus
	BicepsFemoris
	Semitendinosus
	Semimembranosus
	Gastrocnemius
	Soleus
	RectusAbdominis
	ExternalObliques
	InternalObliques
	TransverseAbdominis
	ErectorSpinae
)

// DetailedCount is the number of detailed muscles.
const DetailedCount = 42

// Role is the default function a detailed muscle plays in compound movements.
type Role int

const (
	RolePrimary Role = iota + 1
	RoleStabilizer
)

func (r Role) String() string {
	switch r {
	case RolePrimary:
		return "primary"
	case RoleStabilizer:
		return "stabilizer"
	default:
		return "unknown"
	}
}

type detailedInfo struct {
	name  string
	group Muscle
	role  Role
}

// detailedTable is indexed by DetailedMuscle. Entry 0 is the invalid zero value.
var detailedTable = [DetailedCount + 1]detailedInfo{
	{},
	{"Pectoralis Major (Clavicular)", Pectoralis, RolePrimary},
	{"Pectoralis Major (Sternal)", Pectoralis, RolePrimary},
	{"Triceps (Long Head)", Triceps, RolePrimary},
	{"Triceps (Lateral Head)", Triceps, RolePrimary},
	{"Triceps (Medial Head)", Triceps, RolePrimary},
	{"Anterior Deltoid", Deltoids, RolePrimary},
	{"Medial Deltoid", Deltoids, RolePrimary},
	{"Posterior Deltoid", Deltoids, RolePrimary},
	{"Infraspinatus", Deltoids, RoleStabilizer},
	{"Supraspinatus", Deltoids, RoleStabilizer},
	{"Teres Minor", Deltoids, RoleStabilizer},
	{"Subscapularis", Deltoids, RoleStabilizer},
	{"Latissimus Dorsi", Lats, RolePrimary},
	{"Teres Major", Lats, RolePrimary},
	{"Biceps (Long Head)", Biceps, RolePrimary},
	{"Biceps (Short Head)", Biceps, RolePrimary},
	{"Brachialis", Biceps, RolePrimary},
	{"Rhomboid Major", Rhomboids, RolePrimary},
	{"Rhomboid Minor", Rhomboids, RoleStabilizer},
	{"Upper Trapezius", Trapezius, RolePrimary},
	{"Middle Trapezius", Trapezius, RolePrimary},
	{"Lower Trapezius", Trapezius, RoleStabilizer},
	{"Brachioradialis", Forearms, RolePrimary},
	{"Wrist Flexors", Forearms, RoleStabilizer},
	{"Wrist Extensors", Forearms, RoleStabilizer},
	{"Rectus Femoris", Quadriceps, RolePrimary},
	{"Vastus Lateralis", Quadriceps, RolePrimary},
	{"Vastus Medialis", Quadriceps, RolePrimary},
	{"Vastus Intermedius", Quadriceps, RolePrimary},
	{"Gluteus Maximus", Glutes, RolePrimary},
	{"Gluteus Medius", Glutes, RoleStabilizer},
	{"Gluteus Minimus", Glutes, RoleStabilizer},
	{"Biceps Femoris", Hamstrings, RolePrimary},
	{"Semitendinosus", Hamstrings, RolePrimary},
	{"Semimembranosus", Hamstrings, RolePrimary},
	{"Gastrocnemius", Calves, RolePrimary},
	{"Soleus", Calves, RolePrimary},
	{"Rectus Abdominis", Core, RolePrimary},
	{"External Obliques", Core, RolePrimary},
	{"Internal Obliques", Core, RoleStabilizer},
	{"Transverse Abdominis", Core, RoleStabilizer},
	{"Erector Spinae", Core, RoleStabilizer},
}

// AllDetailed returns every detailed muscle in canonical order.
func AllDetailed() []DetailedMuscle {
	out := make([]DetailedMuscle, 0, DetailedCount)
	for d := PectoralisClavicular; d <= ErectorSpinae; d++ {
		out = append(out, d)
	}
	return out
}

func (d DetailedMuscle) Valid() bool {
	return d >= PectoralisClavicular && d <= ErectorSpinae
}

func (d DetailedMuscle) String() string {
	if !d.Valid() {
		return fmt.Sprintf("DetailedMuscle(%d)", int(d))
	}
	return detailedTable[d].name
}

// Group returns the visualization muscle d rolls up into, or 0 for an
// invalid value.
func (d DetailedMuscle) Group() Muscle {
	if !d.Valid() {
		return 0
	}
	return detailedTable[d].group
}

// DefaultRole returns the default primary/stabilizer classification.
func (d DetailedMuscle) DefaultRole() Role {
	if !d.Valid() {
		return 0
	}
	return detailedTable[d].role
}

// ParseDetailed resolves a detailed muscle by its display name.
func ParseDetailed(name string) (DetailedMuscle, error) {
	n := strings.TrimSpace(name)
	for d := PectoralisClavicular; d <= ErectorSpinae; d++ {
		if strings.EqualFold(detailedTable[d].name, n) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMuscle, name)
}

func (d DetailedMuscle) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("%w: detailed %d", ErrUnknownMuscle, int(d))
	}
	return []byte(detailedTable[d].name), nil
}

func (d *DetailedMuscle) UnmarshalText(b []byte) error {
	parsed, err := ParseDetailed(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Detailed returns the detailed muscles that roll up into m.
func Detailed(m Muscle) []DetailedMuscle {
	var out []DetailedMuscle
	for d := PectoralisClavicular; d <= ErectorSpinae; d++ {
		if detailedTable[d].group == m {
			out = append(out, d)
		}
	}
	return out
}

// DetailedEngagement is an engagement expressed against an anatomical muscle.
type DetailedEngagement struct {
	Muscle     DetailedMuscle `json:"muscle" yaml:"muscle"`
	Percentage float64        `json:"percentage" yaml:"percentage"`
}

// Rollup folds detailed engagements into visualization engagements. Heads of
// the same group overlap, so a group takes the highest engagement among its
// members rather than the sum. Output follows canonical muscle order.
func Rollup(detailed []DetailedEngagement) []Engagement {
	var best [Count + 1]float64
	var seen [Count + 1]bool
	for _, de := range detailed {
		g := de.Muscle.Group()
		if !g.Valid() {
			continue
		}
		if !seen[g] || de.Percentage > best[g] {
			best[g] = de.Percentage
			seen[g] = true
		}
	}

	var out []Engagement
	for m := Pectoralis; m <= Core; m++ {
		if seen[m] {
			out = append(out, Engagement{Muscle: m, Percentage: best[m]})
		}
	}
	return out
}
