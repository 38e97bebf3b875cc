package models

import "time"

type EntityType string

const (
	EntityCandidate  EntityType = "candidate"
	EntityJobPosting EntityType = "job_posting"
)

func (t EntityType) Valid() bool {
	return t == EntityCandidate || t == EntityJobPosting
}

// EmbeddingMetadata is the denormalized snapshot used for post-filtering search results.
type EmbeddingMetadata struct {
	Skills          []string `json:"skills,omitempty"`
	Location        string   `json:"location,omitempty"`
	ExperienceYears int      `json:"experienceYears"`
}

type EmbeddingVector struct {
	EntityType  EntityType        `json:"entityType"`
	EntityID    string            `json:"entityId"`
	Vector      []float32         `json:"vector"`
	Metadata    EmbeddingMetadata `json:"metadata"`
	ContentHash string            `json:"contentHash"`
	Model       string            `json:"model"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// SearchFilters are metadata predicates applied after the vector query.
type SearchFilters struct {
	MinExperienceYears *int     `json:"minExperienceYears,omitempty"`
	MaxExperienceYears *int     `json:"maxExperienceYears,omitempty"`
	RequiredSkills     []string `json:"requiredSkills,omitempty"`
	Locations          []string `json:"locations,omitempty"`
}

// Empty reports whether no predicate is set.
func (f *SearchFilters) Empty() bool {
	return f == nil || (f.MinExperienceYears == nil && f.MaxExperienceYears == nil &&
		len(f.RequiredSkills) == 0 && len(f.Locations) == 0)
}

type SearchMatch struct {
	EntityID   string            `json:"entityId"`
	Similarity float64           `json:"similarity"`
	Metadata   EmbeddingMetadata `json:"metadata"`
}
