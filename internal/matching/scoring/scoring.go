// Package scoring combines embedding similarity with a deterministic rule score into a
// 0..100 match score with human-readable reasons.
package scoring

import (
	"fmt"
	"math"
	"strings"

	"automatch-workers/internal/models"
)

const (
	SimilarityWeight = 0.6
	RuleWeight       = 0.4

	ruleBaseline = 50.0

	// Must-have coverage moves the rule score by up to ±mustHaveSwing.
	mustHaveSwing = 25.0

	// baseline + swing + bonus caps = 100, so the rule score never saturates.
	niceToHaveBonus = 5.0
	niceToHaveCap   = 10.0
	preferableBonus = 2.5
	preferableCap   = 5.0
	categoryBonus   = 10.0

	missingEducationFactor  = 0.85
	missingExperienceFactor = 0.85
)

// Result is a hybrid match score in [0, 100] with the rule and semantic parts behind it.
type Result struct {
	Score         float64  `json:"score"`
	Reasons       []string `json:"reasons"`
	RuleScore     float64  `json:"ruleScore"`
	SemanticScore float64  `json:"semanticScore"`
}

// Score rates candidate against job given a precomputed embedding similarity. It performs
// no I/O. Reasons are never empty.
func Score(candidate *models.CandidateProfile, job *models.JobPosting, similarity float64) Result {
	sim := clamp(similarity, 0, 1)
	if math.IsNaN(similarity) {
		sim = 0
	}

	rule, reasons := ruleScore(candidate, job)

	semantic := sim * 100
	reasons = append(reasons, fmt.Sprintf("Semantic match: %d%%", int(math.Round(semantic))))

	final := clamp(SimilarityWeight*semantic+RuleWeight*rule, 0, 100)

	return Result{
		Score:         round2(final),
		Reasons:       reasons,
		RuleScore:     round2(rule),
		SemanticScore: round2(semantic),
	}
}

func ruleScore(candidate *models.CandidateProfile, job *models.JobPosting) (float64, []string) {
	var reasons []string
	score := ruleBaseline

	have := skillSet(candidate.Skills)

	mustHave := job.SkillsOfType(models.RequirementMustHave)
	if len(mustHave) == 0 {
		reasons = append(reasons, "No required skills listed")
	} else {
		var missing []string
		for _, s := range mustHave {
			if !have[normalize(s)] {
				missing = append(missing, s)
			}
		}
		matched := len(mustHave) - len(missing)
		ratio := float64(matched) / float64(len(mustHave))
		score += mustHaveSwing * (2*ratio - 1)

		switch {
		case len(missing) == 0:
			reasons = append(reasons, fmt.Sprintf("All %d required skills matched", len(mustHave)))
		case matched > 0:
			reasons = append(reasons, fmt.Sprintf("Matched %d of %d required skills", matched, len(mustHave)))
		}
		if len(missing) > 0 {
			reasons = append(reasons, "Missing required skills: "+strings.Join(missing, ", "))
		}
	}

	bonus := 0.0
	for _, s := range job.SkillsOfType(models.RequirementNiceToHave) {
		if have[normalize(s)] {
			bonus += niceToHaveBonus
			reasons = append(reasons, "Has nice-to-have skill: "+s)
		}
	}
	score += math.Min(bonus, niceToHaveCap)

	bonus = 0
	for _, s := range job.SkillsOfType(models.RequirementPreferable) {
		if have[normalize(s)] {
			bonus += preferableBonus
			reasons = append(reasons, "Has preferable skill: "+s)
		}
	}
	score += math.Min(bonus, preferableCap)

	if cat, ok := overlappingCategory(candidate.PreferredCategories, job.Categories); ok {
		score += categoryBonus
		reasons = append(reasons, "Matches preferred category: "+cat)
	}

	score = clamp(score, 0, 100)

	if len(candidate.Education) == 0 {
		score *= missingEducationFactor
		reasons = append(reasons, "No education listed")
	}
	if len(candidate.WorkHistory) == 0 {
		score *= missingExperienceFactor
		reasons = append(reasons, "No work experience listed")
	}

	return score, reasons
}

func overlappingCategory(preferred, jobCategories []string) (string, bool) {
	want := skillSet(preferred)
	for _, c := range jobCategories {
		if want[normalize(c)] {
			return strings.TrimSpace(c), true
		}
	}
	return "", false
}

func skillSet(values []string) map[string]bool {
	out := make(map[string]bool, len(values))
	for _, v := range values {
		if n := normalize(v); n != "" {
			out[n] = true
		}
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
