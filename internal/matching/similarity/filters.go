package similarity

import (
	"strings"

	"automatch-workers/internal/models"
)

// MatchesFilters applies the metadata predicates. Required skills must all be present;
// locations match if any one is a case-insensitive substring of the stored location.
func MatchesFilters(meta models.EmbeddingMetadata, f *models.SearchFilters) bool {
	if f.Empty() {
		return true
	}

	if f.MinExperienceYears != nil && meta.ExperienceYears < *f.MinExperienceYears {
		return false
	}
	if f.MaxExperienceYears != nil && meta.ExperienceYears > *f.MaxExperienceYears {
		return false
	}

	if len(f.RequiredSkills) > 0 {
		have := make(map[string]struct{}, len(meta.Skills))
		for _, s := range meta.Skills {
			have[strings.ToLower(strings.TrimSpace(s))] = struct{}{}
		}
		for _, req := range f.RequiredSkills {
			if _, ok := have[strings.ToLower(strings.TrimSpace(req))]; !ok {
				return false
			}
		}
	}

	if len(f.Locations) > 0 {
		loc := strings.ToLower(meta.Location)
		found := false
		for _, want := range f.Locations {
			w := strings.ToLower(strings.TrimSpace(want))
			if w != "" && strings.Contains(loc, w) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}
