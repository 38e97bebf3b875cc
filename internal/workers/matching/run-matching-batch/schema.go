package runmatchingbatch

import "automatch-workers/internal/common/validation"

// InputSchema is the JSON schema job variables are validated against.
const InputSchema = `{
  "type": "object",
  "properties": {
    "trigger": {"type": "string", "enum": ["manual", "scheduled", "workflow"]},
    "candidateBatchSize": {"type": "integer", "minimum": 1, "maximum": 1000},
    "jobBatchSize": {"type": "integer", "minimum": 1, "maximum": 1000},
    "candidatesPerJob": {"type": "integer", "minimum": 1, "maximum": 10000}
  }
}`

var inputSchema = validation.MustCompile(InputSchema)
