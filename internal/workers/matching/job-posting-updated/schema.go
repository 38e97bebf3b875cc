package jobpostingupdated

import "automatch-workers/internal/common/validation"

// InputSchema is the JSON schema job variables are validated against.
const InputSchema = `{
  "type": "object",
  "properties": {
    "action": {"type": "string", "enum": ["upsert", "close"]},
    "jobPostingId": {"type": "string", "minLength": 1},
    "jobPosting": {
      "type": "object",
      "required": ["id", "title"],
      "properties": {
        "id": {"type": "string", "minLength": 1, "maxLength": 255},
        "recruiterId": {"type": "string"},
        "title": {"type": "string", "minLength": 1},
        "requirements": {
          "type": ["array", "null"],
          "items": {
            "type": "object",
            "required": ["skill", "type"],
            "properties": {
              "skill": {"type": "string", "minLength": 1},
              "type": {"type": "string", "enum": ["must_have", "nice_to_have", "preferable"]}
            }
          }
        },
        "categories": {"type": ["array", "null"], "items": {"type": "string"}},
        "status": {"type": "string", "enum": ["", "open", "closed"]}
      }
    }
  },
  "anyOf": [
    {"required": ["jobPosting"]},
    {"required": ["action", "jobPostingId"], "properties": {"action": {"const": "close"}}}
  ]
}`

var inputSchema = validation.MustCompile(InputSchema)
