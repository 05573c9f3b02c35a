package exercise

import (
	"strings"
	"unicode"
)

// matchThreshold is the minimum similarity for a fuzzy name match.
const matchThreshold = 0.85

var abbreviations = map[string]string{
	"db":   "dumbbell",
	"bb":   "barbell",
	"kb":   "kettlebell",
	"ohp":  "overhead press",
	"rdl":  "romanian deadlift",
	"incl": "incline",
	"ext":  "extension",
	"bw":   "bodyweight",
}

// MatchResult describes how a free-text name resolved to a library entry.
type MatchResult struct {
	Exercise   *Exercise
	Confidence float64 // 0.0-1.0
}

func (l *Library) buildNameIndex() {
	l.byName = make(map[string]*Exercise, len(l.ordered)*3)
	for _, ex := range l.ordered {
		l.byName[normalize(ex.ID)] = ex
		l.byName[normalize(ex.Name)] = ex
		for _, alias := range ex.Aliases {
			key := normalize(alias)
			if _, taken := l.byName[key]; !taken {
				l.byName[key] = ex
			}
		}
	}
}

// Match resolves a user-typed exercise name (id, name, alias or close
// misspelling) to a library entry. ok is false when nothing is close enough.
func (l *Library) Match(name string) (MatchResult, bool) {
	normalized := normalize(name)
	if normalized == "" {
		return MatchResult{}, false
	}

	if ex, ok := l.byName[normalized]; ok {
		return MatchResult{Exercise: ex, Confidence: 1.0}, true
	}

	expanded := expandAbbreviations(normalized)
	if expanded != normalized {
		if ex, ok := l.byName[expanded]; ok {
			return MatchResult{Exercise: ex, Confidence: 0.95}, true
		}
	}

	var best *Exercise
	var bestScore float64
	for _, ex := range l.ordered {
		candidates := append([]string{ex.Name}, ex.Aliases...)
		for _, c := range candidates {
			if score := similarity(expanded, normalize(c)); score > bestScore {
				best, bestScore = ex, score
			}
		}
	}
	if best == nil || bestScore < matchThreshold {
		return MatchResult{}, false
	}
	return MatchResult{Exercise: best, Confidence: bestScore}, true
}

// normalize lowercases, turns hyphens into spaces, drops punctuation and
// collapses whitespace.
func normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ':
			b.WriteRune(r)
		case r == '-' || r == '_':
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func expandAbbreviations(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if full, ok := abbreviations[w]; ok {
			words[i] = full
		}
	}
	return strings.Join(words, " ")
}

func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	maxLen := max(len(a), len(b))
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(levenshtein(a, b))/float64(maxLen)
}

func levenshtein(a, b string) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
