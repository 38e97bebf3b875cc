package models

import (
	"sort"
	"strings"
	"time"
)

type RequirementType string

const (
	RequirementMustHave   RequirementType = "must_have"
	RequirementNiceToHave RequirementType = "nice_to_have"
	RequirementPreferable RequirementType = "preferable"
)

// Valid reports whether t is one of the known requirement tags.
func (t RequirementType) Valid() bool {
	switch t {
	case RequirementMustHave, RequirementNiceToHave, RequirementPreferable:
		return true
	}
	return false
}

type Requirement struct {
	Skill string          `json:"skill"`
	Type  RequirementType `json:"type"`
}

type JobStatus string

const (
	JobStatusOpen   JobStatus = "open"
	JobStatusClosed JobStatus = "closed"
)

type JobPosting struct {
	ID           string        `json:"id"`
	RecruiterID  string        `json:"recruiterId"`
	Title        string        `json:"title"`
	Company      string        `json:"company,omitempty"`
	Location     string        `json:"location,omitempty"`
	JobType      string        `json:"jobType,omitempty"`
	Requirements []Requirement `json:"requirements"`
	Categories   []string      `json:"categories,omitempty"`
	Description  string        `json:"description,omitempty"`
	Status       JobStatus     `json:"status"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

func (j *JobPosting) IsOpen() bool {
	return j.Status == JobStatusOpen
}

// SkillsOfType returns the requirement skills carrying tag t, in posting order.
func (j *JobPosting) SkillsOfType(t RequirementType) []string {
	var out []string
	for _, r := range j.Requirements {
		if r.Type == t && strings.TrimSpace(r.Skill) != "" {
			out = append(out, strings.TrimSpace(r.Skill))
		}
	}
	return out
}

// ContentHash fingerprints title, requirements, categories and description.
func (j *JobPosting) ContentHash() string {
	material := struct {
		Title        string   `json:"t"`
		Requirements []string `json:"r"`
		Categories   []string `json:"c"`
		Description  string   `json:"d"`
	}{
		Title:        strings.TrimSpace(j.Title),
		Requirements: normalizedRequirements(j.Requirements),
		Categories:   NormalizeSet(j.Categories),
		Description:  strings.TrimSpace(j.Description),
	}
	return hashJSON(material)
}

// RequirementsChanged reports whether the requirement list or categories differ. Title
// and description edits alone keep the ledger valid.
func RequirementsChanged(old, updated *JobPosting) bool {
	if old == nil || updated == nil {
		return old != updated
	}
	if strings.Join(normalizedRequirements(old.Requirements), "|") != strings.Join(normalizedRequirements(updated.Requirements), "|") {
		return true
	}
	return strings.Join(NormalizeSet(old.Categories), "|") != strings.Join(NormalizeSet(updated.Categories), "|")
}

func normalizedRequirements(reqs []Requirement) []string {
	out := make([]string, 0, len(reqs))
	for _, r := range reqs {
		skill := strings.ToLower(strings.TrimSpace(r.Skill))
		if skill == "" {
			continue
		}
		out = append(out, string(r.Type)+":"+skill)
	}
	sort.Strings(out)
	return out
}
