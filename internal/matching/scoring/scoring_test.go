package scoring

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"automatch-workers/internal/models"
)

func intPtr(v int) *int { return &v }

func fullStackJob() *models.JobPosting {
	return &models.JobPosting{
		ID:    "job-1",
		Title: "Full-Stack Engineer",
		Requirements: []models.Requirement{
			{Skill: "TypeScript", Type: models.RequirementMustHave},
			{Skill: "React", Type: models.RequirementMustHave},
			{Skill: "Node.js", Type: models.RequirementMustHave},
		},
		Categories: []string{"Engineering"},
		Status:     models.JobStatusOpen,
	}
}

func experiencedCandidate() *models.CandidateProfile {
	return &models.CandidateProfile{
		ID:     "cand-1",
		Skills: []string{"TypeScript", "React", "Node.js", "PostgreSQL", "AWS"},
		WorkHistory: []models.WorkExperience{
			{Title: "Engineer", Company: "Acme", StartYear: 2018, EndYear: intPtr(2022)},
		},
		Education: []models.Education{{Institution: "TU Berlin", Degree: "BSc"}},
	}
}

func hasReasonPrefix(reasons []string, prefix string) bool {
	for _, r := range reasons {
		if strings.HasPrefix(r, prefix) {
			return true
		}
	}
	return false
}

func TestScore_QualifiedCandidate(t *testing.T) {
	res := Score(experiencedCandidate(), fullStackJob(), 0.9)

	assert.GreaterOrEqual(t, res.Score, 70.0)
	assert.InDelta(t, 84.0, res.Score, 0.001)
	assert.Contains(t, res.Reasons, "All 3 required skills matched")
	assert.Contains(t, res.Reasons, "Semantic match: 90%")
	assert.False(t, hasReasonPrefix(res.Reasons, "Missing"))
}

func TestScore_QualifiedCandidateWithoutHistory(t *testing.T) {
	c := experiencedCandidate()
	c.WorkHistory = nil
	c.Education = nil

	res := Score(c, fullStackJob(), 0.9)
	assert.GreaterOrEqual(t, res.Score, 70.0)
	assert.Contains(t, res.Reasons, "No education listed")
	assert.Contains(t, res.Reasons, "No work experience listed")
}

func TestScore_UnqualifiedCandidate(t *testing.T) {
	qualified := Score(experiencedCandidate(), fullStackJob(), 0.9)

	junior := &models.CandidateProfile{ID: "cand-2", Skills: []string{"HTML", "CSS"}}
	res := Score(junior, fullStackJob(), 0.3)

	assert.Less(t, res.Score, qualified.Score)
	assert.InDelta(t, 25.225, res.Score, 0.01)
	assert.Contains(t, res.Reasons, "Missing required skills: TypeScript, React, Node.js")
	assert.Contains(t, res.Reasons, "Semantic match: 30%")
}

func TestScore_MissingMustHaveIsStrictlyLower(t *testing.T) {
	job := fullStackJob()
	job.Requirements = append(job.Requirements,
		models.Requirement{Skill: "GraphQL", Type: models.RequirementNiceToHave},
		models.Requirement{Skill: "Docker", Type: models.RequirementNiceToHave},
		models.Requirement{Skill: "Kubernetes", Type: models.RequirementNiceToHave},
		models.Requirement{Skill: "Go", Type: models.RequirementPreferable},
	)

	base := experiencedCandidate()
	base.Skills = append(base.Skills, "GraphQL", "Docker", "Kubernetes", "Go")
	base.PreferredCategories = []string{"engineering"}

	for _, sim := range []float64{0, 0.25, 0.5, 0.9, 1} {
		full := Score(base, job, sim)

		for _, drop := range []string{"TypeScript", "React", "Node.js"} {
			partial := *base
			partial.Skills = nil
			for _, s := range base.Skills {
				if s != drop {
					partial.Skills = append(partial.Skills, s)
				}
			}

			res := Score(&partial, job, sim)
			assert.Less(t, res.Score, full.Score, "sim=%v drop=%s", sim, drop)
			assert.Contains(t, res.Reasons, "Missing required skills: "+drop)
			assert.Contains(t, res.Reasons, "Matched 2 of 3 required skills")
		}
	}
}

func TestScore_BoundsAndReasons(t *testing.T) {
	candidates := []*models.CandidateProfile{
		{},
		experiencedCandidate(),
		{Skills: []string{"typescript"}},
	}
	jobs := []*models.JobPosting{
		{},
		fullStackJob(),
	}
	sims := []float64{-1, 0, 0.42, 1, 3, math.NaN()}

	for _, c := range candidates {
		for _, j := range jobs {
			for _, sim := range sims {
				res := Score(c, j, sim)
				assert.GreaterOrEqual(t, res.Score, 0.0)
				assert.LessOrEqual(t, res.Score, 100.0)
				require.NotEmpty(t, res.Reasons)
				for _, r := range res.Reasons {
					assert.NotEmpty(t, strings.TrimSpace(r))
				}
			}
		}
	}
}

func TestScore_NoMustHavesIsNeutral(t *testing.T) {
	job := &models.JobPosting{Title: "Generalist"}
	res := Score(experiencedCandidate(), job, 0.5)

	assert.Contains(t, res.Reasons, "No required skills listed")
	assert.InDelta(t, 50.0, res.RuleScore, 0.001)
	assert.InDelta(t, 50.0, res.Score, 0.001)
}

func TestScore_BonusesAreCapped(t *testing.T) {
	job := &models.JobPosting{Requirements: []models.Requirement{
		{Skill: "A", Type: models.RequirementNiceToHave},
		{Skill: "B", Type: models.RequirementNiceToHave},
		{Skill: "C", Type: models.RequirementNiceToHave},
		{Skill: "D", Type: models.RequirementPreferable},
		{Skill: "E", Type: models.RequirementPreferable},
		{Skill: "F", Type: models.RequirementPreferable},
	}}
	c := experiencedCandidate()
	c.Skills = []string{"a", "b", "c", "d", "e", "f"}

	res := Score(c, job, 0)
	assert.InDelta(t, 65.0, res.RuleScore, 0.001)
	assert.Contains(t, res.Reasons, "Has nice-to-have skill: C")
	assert.Contains(t, res.Reasons, "Has preferable skill: F")
}

func TestScore_CategoryOverlap(t *testing.T) {
	c := experiencedCandidate()
	c.PreferredCategories = []string{" ENGINEERING "}

	with := Score(c, fullStackJob(), 0.5)
	without := Score(experiencedCandidate(), fullStackJob(), 0.5)

	assert.Contains(t, with.Reasons, "Matches preferred category: Engineering")
	assert.InDelta(t, 10.0, with.RuleScore-without.RuleScore, 0.001)
}

func TestScore_SkillMatchingIgnoresCaseAndSpace(t *testing.T) {
	c := experiencedCandidate()
	c.Skills = []string{" typescript", "REACT ", "node.js"}

	res := Score(c, fullStackJob(), 0.5)
	assert.Contains(t, res.Reasons, "All 3 required skills matched")
}

func TestScore_IncompleteProfileNeverBeatsComplete(t *testing.T) {
	complete := Score(experiencedCandidate(), fullStackJob(), 0.7)

	noEdu := experiencedCandidate()
	noEdu.Education = nil
	noWork := experiencedCandidate()
	noWork.WorkHistory = nil

	assert.Less(t, Score(noEdu, fullStackJob(), 0.7).Score, complete.Score)
	assert.Less(t, Score(noWork, fullStackJob(), 0.7).Score, complete.Score)
}
