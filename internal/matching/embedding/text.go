package embedding

import (
	"fmt"
	"strings"

	"automatch-workers/internal/models"
)

// CandidateText renders the material profile fields as embedding input.
func CandidateText(c *models.CandidateProfile) string {
	var b strings.Builder
	if len(c.Skills) > 0 {
		fmt.Fprintf(&b, "Skills: %s.\n", strings.Join(c.Skills, ", "))
	}
	for _, w := range c.WorkHistory {
		end := "present"
		if !w.IsCurrent && w.EndYear != nil {
			end = fmt.Sprint(*w.EndYear)
		}
		fmt.Fprintf(&b, "Worked as %s at %s (%d-%s).\n", w.Title, w.Company, w.StartYear, end)
	}
	for _, e := range c.Education {
		fmt.Fprintf(&b, "Education: %s %s %s.\n", e.Degree, e.Field, e.Institution)
	}
	if len(c.Interests) > 0 {
		fmt.Fprintf(&b, "Interests: %s.\n", strings.Join(c.Interests, ", "))
	}
	if len(c.PreferredCategories) > 0 {
		fmt.Fprintf(&b, "Preferred categories: %s.\n", strings.Join(c.PreferredCategories, ", "))
	}
	if c.Location != "" {
		fmt.Fprintf(&b, "Location: %s.\n", c.Location)
	}
	if c.Summary != "" {
		b.WriteString(c.Summary)
	}
	return strings.TrimSpace(b.String())
}

// JobText renders the posting fields as embedding input.
func JobText(j *models.JobPosting) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s", j.Title)
	if j.Company != "" {
		fmt.Fprintf(&b, " at %s", j.Company)
	}
	b.WriteString(".\n")

	for _, t := range []models.RequirementType{models.RequirementMustHave, models.RequirementNiceToHave, models.RequirementPreferable} {
		if skills := j.SkillsOfType(t); len(skills) > 0 {
			fmt.Fprintf(&b, "%s: %s.\n", strings.ReplaceAll(string(t), "_", " "), strings.Join(skills, ", "))
		}
	}
	if len(j.Categories) > 0 {
		fmt.Fprintf(&b, "Categories: %s.\n", strings.Join(j.Categories, ", "))
	}
	if j.Location != "" {
		fmt.Fprintf(&b, "Location: %s.\n", j.Location)
	}
	if j.Description != "" {
		b.WriteString(j.Description)
	}
	return strings.TrimSpace(b.String())
}
