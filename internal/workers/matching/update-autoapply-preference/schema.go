package updateautoapplypreference

import "automatch-workers/internal/common/validation"

// InputSchema is the JSON schema job variables are validated against.
const InputSchema = `{
  "type": "object",
  "required": ["candidateId"],
  "properties": {
    "candidateId": {"type": "string", "minLength": 1, "maxLength": 255},
    "autoApplyEnabled": {"type": "boolean"},
    "minScoreThreshold": {"type": "integer", "minimum": 0, "maximum": 100},
    "maxApplicationsPerDay": {"type": "integer", "minimum": 1, "maximum": 100}
  }
}`

var inputSchema = validation.MustCompile(InputSchema)
