package registry

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "automatch-workers/internal/common/errors"
)

func TestDefault_IsValid(t *testing.T) {
	reg := Default()
	require.Len(t, reg.Activities, 5)
	require.NoError(t, reg.Validate())

	for i := 1; i < len(reg.Activities); i++ {
		assert.Less(t, reg.Activities[i-1].TaskType, reg.Activities[i].TaskType)
	}

	run, ok := reg.Find("run-matching-batch")
	require.True(t, ok)
	assert.Contains(t, run.ErrorCodes, apperrors.ErrCodeProviderNotConfigured)
	assert.Contains(t, run.ErrorCodes, apperrors.ErrCodeInvalidInput)

	_, ok = reg.Find("validate-subscription")
	assert.False(t, ok)
}

func TestValidate_Rejects(t *testing.T) {
	dup := &ActivityRegistry{Activities: []Activity{
		{TaskType: "a", InputSchema: []byte(`{"type":"object"}`)},
		{TaskType: "a", InputSchema: []byte(`{"type":"object"}`)},
	}}
	assert.ErrorContains(t, dup.Validate(), "duplicate task type")

	bad := &ActivityRegistry{Activities: []Activity{{TaskType: "a", InputSchema: []byte(`{"type": 12}`)}}}
	assert.ErrorContains(t, bad.Validate(), "activity a")

	missing := &ActivityRegistry{Activities: []Activity{{DisplayName: "Nameless"}}}
	assert.ErrorContains(t, missing.Validate(), "no task type")
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity-registry.json")
	require.NoError(t, Default().Save(path))

	loaded, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Equal(t, Version, loaded.Version)
	require.NoError(t, loaded.Validate())
	assert.Len(t, loaded.Activities, 5)
}
