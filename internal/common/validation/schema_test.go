package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "automatch-workers/internal/common/errors"
)

const prefSchema = `{
  "type": "object",
  "required": ["candidateId"],
  "properties": {
    "candidateId": {"type": "string", "minLength": 1},
    "maxApplicationsPerDay": {"type": "integer", "minimum": 1, "maximum": 100}
  }
}`

type prefInput struct {
	CandidateID           string `json:"candidateId"`
	MaxApplicationsPerDay *int   `json:"maxApplicationsPerDay"`
}

func TestSchema_Validate(t *testing.T) {
	s := MustCompile(prefSchema)

	res := s.Validate(map[string]interface{}{"candidateId": "cand-1"})
	assert.True(t, res.Valid)
	assert.Empty(t, res.Error())

	res = s.Validate(`{"maxApplicationsPerDay": 500}`)
	require.False(t, res.Valid)
	assert.Len(t, res.Errors, 2)
	assert.True(t, res.HasErrors("maxApplicationsPerDay"))
	assert.Contains(t, res.Error(), "candidateId")

	res = s.Validate(`{not json`)
	require.False(t, res.Valid)
	assert.Equal(t, "MALFORMED_DOCUMENT", res.Errors[0].Code)
}

func TestSchema_Decode(t *testing.T) {
	s := MustCompile(prefSchema)

	var in prefInput
	require.NoError(t, s.Decode(`{"candidateId":"cand-1","maxApplicationsPerDay":7}`, &in))
	assert.Equal(t, "cand-1", in.CandidateID)
	require.NotNil(t, in.MaxApplicationsPerDay)
	assert.Equal(t, 7, *in.MaxApplicationsPerDay)

	err := s.Decode("", &in)
	require.Error(t, err)
	assert.True(t, apperrors.IsInputError(err))
}

func TestCompile_RejectsBrokenSchema(t *testing.T) {
	_, err := Compile(`{"type": 12}`)
	assert.Error(t, err)
	assert.Panics(t, func() { MustCompile(`{"type": 12}`) })
}
