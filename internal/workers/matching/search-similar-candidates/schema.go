package searchsimilarcandidates

import "automatch-workers/internal/common/validation"

// InputSchema is the JSON schema job variables are validated against.
const InputSchema = `{
  "type": "object",
  "required": ["jobPostingId"],
  "properties": {
    "jobPostingId": {"type": "string", "minLength": 1},
    "limit": {"type": "integer", "minimum": 1, "maximum": 200},
    "minSimilarity": {"type": "number", "minimum": 0, "maximum": 1},
    "filters": {
      "type": "object",
      "properties": {
        "minExperienceYears": {"type": "integer", "minimum": 0},
        "maxExperienceYears": {"type": "integer", "minimum": 0},
        "requiredSkills": {"type": "array", "items": {"type": "string"}},
        "locations": {"type": "array", "items": {"type": "string"}}
      },
      "additionalProperties": false
    }
  }
}`

var inputSchema = validation.MustCompile(InputSchema)
