package candidateprofileupdated

import "automatch-workers/internal/common/validation"

// InputSchema is the JSON schema job variables are validated against.
const InputSchema = `{
  "type": "object",
  "required": ["candidate"],
  "properties": {
    "candidate": {
      "type": "object",
      "required": ["id", "fullName"],
      "properties": {
        "id": {"type": "string", "minLength": 1, "maxLength": 255},
        "fullName": {"type": "string", "minLength": 1},
        "email": {"type": "string"},
        "skills": {"type": ["array", "null"], "items": {"type": "string"}},
        "workHistory": {
          "type": ["array", "null"],
          "items": {
            "type": "object",
            "required": ["startYear"],
            "properties": {
              "title": {"type": "string"},
              "company": {"type": "string"},
              "startYear": {"type": "integer", "minimum": 1900},
              "endYear": {"type": ["integer", "null"]},
              "isCurrent": {"type": "boolean"}
            }
          }
        },
        "education": {"type": ["array", "null"], "items": {"type": "object"}},
        "interests": {"type": ["array", "null"], "items": {"type": "string"}},
        "preferredCategories": {"type": ["array", "null"], "items": {"type": "string"}},
        "preferredJobTypes": {"type": ["array", "null"], "items": {"type": "string"}},
        "location": {"type": "string"},
        "summary": {"type": "string"}
      }
    }
  }
}`

var inputSchema = validation.MustCompile(InputSchema)
