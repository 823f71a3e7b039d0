// Package compatibility scores how alike two users' defect lists are.
//
// Calculate is the full pairwise lexical-overlap algorithm whose result is
// persisted on a match. Quick is the category-counting score used only to rank
// discovery candidates.
package compatibility

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/oggyb/imperfect/internal/db"
)

const (
	// minTokenRunes is the exclusive lower bound on the length of a title token
	// that counts as overlap.
	minTokenRunes = 3

	quickBase  = 50
	quickBonus = 10
	maxScore   = 100
)

// Trait is the part of a defect the scorers look at.
type Trait struct {
	Category string
	Title    string
}

// Result is the outcome of Calculate.
type Result struct {
	Score         int      `json:"score"`
	SharedDefects []string `json:"sharedDefects"`
}

// FromDefects projects stored defects onto traits, keeping order.
func FromDefects(defects []db.Defect) []Trait {
	traits := make([]Trait, 0, len(defects))
	for _, d := range defects {
		traits = append(traits, Trait{Category: d.Category, Title: d.Title})
	}
	return traits
}

// CategoryPlaceholder is the shared-defect line recorded when two defects share
// only a category.
func CategoryPlaceholder(category string) string {
	return fmt.Sprintf("Ambos tienen defectos de tipo: %s", category)
}

// Calculate compares every defect in a with every defect in b.
//
// For each same-category pair, d1's title is recorded once when the two titles
// share a token longer than three characters. Otherwise a single category
// placeholder is recorded, but only while that category has neither a title
// match nor a placeholder yet. Order follows a (outer) then b (inner).
//
// score = round(100 * len(shared) / max(len(a), len(b))), clamped to [0,100].
func Calculate(a, b []Trait) Result {
	if len(a) == 0 || len(b) == 0 {
		return Result{Score: 0, SharedDefects: []string{}}
	}

	shared := []string{}
	recordedTitles := map[string]bool{}
	covered := map[string]bool{} // categories with a title match or placeholder

	tokens := make([]map[string]bool, len(b))
	for j, d2 := range b {
		tokens[j] = titleTokens(d2.Title)
	}

	for _, d1 := range a {
		t1 := titleTokens(d1.Title)
		for j, d2 := range b {
			if d1.Category != d2.Category {
				continue
			}
			if overlaps(t1, tokens[j]) && !recordedTitles[d1.Title] {
				shared = append(shared, d1.Title)
				recordedTitles[d1.Title] = true
				covered[d1.Category] = true
				continue
			}
			if !covered[d1.Category] {
				shared = append(shared, CategoryPlaceholder(d1.Category))
				covered[d1.Category] = true
			}
		}
	}

	denom := max(len(a), len(b))
	score := int(math.Round(float64(maxScore) * float64(len(shared)) / float64(denom)))
	return Result{Score: clamp(score), SharedDefects: shared}
}

// Quick is the cheap ranking score: 50, plus 10 for every defect of current
// whose category the candidate also has, capped at 100. Without defects on
// either side the base score is returned unchanged.
func Quick(current, candidate []Trait) int {
	score := quickBase
	if len(current) == 0 || len(candidate) == 0 {
		return score
	}
	categories := make(map[string]struct{}, len(candidate))
	for _, d := range candidate {
		categories[d.Category] = struct{}{}
	}
	for _, d := range current {
		if _, ok := categories[d.Category]; ok {
			score += quickBonus
		}
	}
	return clamp(score)
}

// titleTokens lower-cases the title, splits on whitespace and keeps tokens
// longer than minTokenRunes.
func titleTokens(title string) map[string]bool {
	out := map[string]bool{}
	for _, w := range strings.Fields(strings.ToLower(title)) {
		if utf8.RuneCountInString(w) > minTokenRunes {
			out[w] = true
		}
	}
	return out
}

func overlaps(x, y map[string]bool) bool {
	for w := range x {
		if y[w] {
			return true
		}
	}
	return false
}

func clamp(score int) int {
	return min(max(score, 0), maxScore)
}
