package models

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
	"time"
)

type WorkExperience struct {
	Title     string `json:"title"`
	Company   string `json:"company"`
	StartYear int    `json:"startYear"`
	EndYear   *int   `json:"endYear,omitempty"`
	IsCurrent bool   `json:"isCurrent"`
}

type Education struct {
	Institution    string `json:"institution"`
	Degree         string `json:"degree,omitempty"`
	Field          string `json:"field,omitempty"`
	GraduationYear int    `json:"graduationYear,omitempty"`
}

type CandidateProfile struct {
	ID                  string           `json:"id"`
	FullName            string           `json:"fullName"`
	Email               string           `json:"email,omitempty"`
	Skills              []string         `json:"skills"`
	WorkHistory         []WorkExperience `json:"workHistory"`
	Education           []Education      `json:"education"`
	Interests           []string         `json:"interests,omitempty"`
	PreferredCategories []string         `json:"preferredCategories,omitempty"`
	PreferredJobTypes   []string         `json:"preferredJobTypes,omitempty"`
	Location            string           `json:"location,omitempty"`
	Summary             string           `json:"summary,omitempty"`
	UpdatedAt           time.Time        `json:"updatedAt"`
}

// ExperienceYears sums the span of every work-history entry. Current or open-ended
// entries run until now.
func (c *CandidateProfile) ExperienceYears(now time.Time) int {
	total := 0
	for _, w := range c.WorkHistory {
		end := now.Year()
		if !w.IsCurrent && w.EndYear != nil {
			end = *w.EndYear
		}
		if span := end - w.StartYear; span > 0 {
			total += span
		}
	}
	return total
}

// ContentHash fingerprints the fields that drive embeddings and evaluations: skills, work
// history, education, interests, preferred categories and location. Set-valued fields are
// normalized so reordering or re-casing them is not a change.
func (c *CandidateProfile) ContentHash() string {
	material := struct {
		Skills      []string         `json:"s"`
		WorkHistory []WorkExperience `json:"w"`
		Education   []Education      `json:"e"`
		Interests   []string         `json:"i"`
		Categories  []string         `json:"c"`
		Location    string           `json:"l"`
	}{
		Skills:      NormalizeSet(c.Skills),
		WorkHistory: c.WorkHistory,
		Education:   c.Education,
		Interests:   NormalizeSet(c.Interests),
		Categories:  NormalizeSet(c.PreferredCategories),
		Location:    strings.ToLower(strings.TrimSpace(c.Location)),
	}
	return hashJSON(material)
}

// MaterialChange reports whether updated differs from old in any field covered by
// ContentHash. A nil old profile is always a change.
func MaterialChange(old, updated *CandidateProfile) bool {
	if old == nil || updated == nil {
		return old != updated
	}
	return old.ContentHash() != updated.ContentHash()
}

// NormalizeSet lowercases, trims, drops empties and sorts a set of strings.
func NormalizeSet(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		n := strings.ToLower(strings.TrimSpace(v))
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func hashJSON(v interface{}) string {
	raw, _ := json.Marshal(v)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
