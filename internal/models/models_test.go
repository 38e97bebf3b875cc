package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestExperienceYears(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	c := &CandidateProfile{
		WorkHistory: []WorkExperience{
			{Title: "Engineer", StartYear: 2015, EndYear: intPtr(2019)},
			{Title: "Lead", StartYear: 2020, IsCurrent: true},
			{Title: "Bad data", StartYear: 2022, EndYear: intPtr(2021)},
		},
	}
	assert.Equal(t, 9, c.ExperienceYears(now))
	assert.Equal(t, 0, (&CandidateProfile{}).ExperienceYears(now))
}

func TestCandidateContentHash(t *testing.T) {
	base := &CandidateProfile{
		ID:       "c1",
		FullName: "Ada",
		Skills:   []string{"Go", "PostgreSQL"},
		Location: "Berlin",
	}

	t.Run("skill order and case do not matter", func(t *testing.T) {
		other := *base
		other.Skills = []string{" postgresql", "GO"}
		assert.Equal(t, base.ContentHash(), other.ContentHash())
		assert.False(t, MaterialChange(base, &other))
	})

	t.Run("non-material fields do not matter", func(t *testing.T) {
		other := *base
		other.FullName = "Ada Lovelace"
		other.Summary = "new summary"
		assert.False(t, MaterialChange(base, &other))
	})

	t.Run("skills change is material", func(t *testing.T) {
		other := *base
		other.Skills = []string{"Go", "PostgreSQL", "Kafka"}
		assert.True(t, MaterialChange(base, &other))
	})

	t.Run("location change is material", func(t *testing.T) {
		other := *base
		other.Location = "Paris"
		assert.True(t, MaterialChange(base, &other))
	})

	t.Run("nil old profile", func(t *testing.T) {
		assert.True(t, MaterialChange(nil, base))
	})
}

func TestRequirementsChanged(t *testing.T) {
	old := &JobPosting{
		Title: "Backend",
		Requirements: []Requirement{
			{Skill: "Go", Type: RequirementMustHave},
			{Skill: "Redis", Type: RequirementNiceToHave},
		},
		Categories: []string{"Engineering"},
	}

	retitled := *old
	retitled.Title = "Senior Backend"
	retitled.Description = "changed"
	assert.False(t, RequirementsChanged(old, &retitled))
	assert.NotEqual(t, old.ContentHash(), retitled.ContentHash())

	retagged := *old
	retagged.Requirements = []Requirement{
		{Skill: "Go", Type: RequirementMustHave},
		{Skill: "Redis", Type: RequirementMustHave},
	}
	assert.True(t, RequirementsChanged(old, &retagged))

	recategorized := *old
	recategorized.Categories = []string{"Data"}
	assert.True(t, RequirementsChanged(old, &recategorized))
}

func TestSkillsOfType(t *testing.T) {
	j := &JobPosting{Requirements: []Requirement{
		{Skill: "TypeScript", Type: RequirementMustHave},
		{Skill: " ", Type: RequirementMustHave},
		{Skill: "GraphQL", Type: RequirementPreferable},
	}}
	assert.Equal(t, []string{"TypeScript"}, j.SkillsOfType(RequirementMustHave))
	assert.Equal(t, []string{"GraphQL"}, j.SkillsOfType(RequirementPreferable))
	assert.Empty(t, j.SkillsOfType(RequirementNiceToHave))
}

func TestPreferenceValidate(t *testing.T) {
	p := DefaultPreference("c1")
	require.NoError(t, p.Validate())
	assert.True(t, p.Enabled)
	assert.Equal(t, 70, p.MinScoreThreshold)
	assert.Equal(t, 5, p.MaxApplicationsPerDay)

	bad := p
	bad.MinScoreThreshold = 101
	assert.Error(t, bad.Validate())

	bad = p
	bad.MaxApplicationsPerDay = 0
	assert.Error(t, bad.Validate())

	bad = p
	bad.CandidateID = ""
	assert.Error(t, bad.Validate())
}

func TestRunSummaryNeverNilErrors(t *testing.T) {
	r := &RunRecord{MatchesFound: 2, ApplicationsSubmitted: 1, JobsProcessed: 3}
	s := r.Summary()
	assert.NotNil(t, s.Errors)
	assert.Equal(t, 2, s.MatchesFound)
	assert.Equal(t, 1, s.ApplicationsSubmitted)
	assert.Equal(t, 3, s.JobsProcessed)
}
