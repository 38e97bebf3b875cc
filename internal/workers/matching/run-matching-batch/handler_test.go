package runmatchingbatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"automatch-workers/internal/common/config"
	apperrors "automatch-workers/internal/common/errors"
	"automatch-workers/internal/common/logger"
	"automatch-workers/internal/matching/orchestrator"
	"automatch-workers/internal/models"
)

type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) RunWithRetry(ctx context.Context, opts orchestrator.Options) (*models.RunRecord, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RunRecord), args.Error(1)
}

func defaults() orchestrator.Options {
	return orchestrator.Options{CandidateBatchSize: 50, JobBatchSize: 20, CandidatesPerJob: 100, Workers: 2}
}

func intPtr(v int) *int { return &v }

func TestHandler_Execute_AppliesOverrides(t *testing.T) {
	runner := &MockRunner{}
	want := defaults()
	want.Trigger = models.TriggerScheduled
	want.JobBatchSize = 5
	want.CandidatesPerJob = 10

	runner.On("RunWithRetry", mock.Anything, want).Return(&models.RunRecord{
		ID:                    "run-1",
		Status:                models.RunCompleted,
		MatchesFound:          3,
		ApplicationsSubmitted: 2,
		JobsProcessed:         5,
		Errors:                []string{"similarity cand-9/job-2: Embedding not found"},
	}, nil)

	h := NewHandler(LoadConfig(config.WorkerConfig{}), runner, defaults(), logger.NewTestLogger(t))
	out, err := h.Execute(context.Background(), &Input{
		Trigger:          "scheduled",
		JobBatchSize:     intPtr(5),
		CandidatesPerJob: intPtr(10),
	})

	require.NoError(t, err)
	assert.Equal(t, "run-1", out.RunID)
	assert.Equal(t, "completed", out.Status)
	assert.Equal(t, 3, out.MatchesFound)
	assert.Equal(t, 2, out.ApplicationsSubmitted)
	assert.Equal(t, 5, out.JobsProcessed)
	assert.Len(t, out.Errors, 1)
	runner.AssertExpectations(t)
}

func TestHandler_Execute_DefaultsToWorkflowTrigger(t *testing.T) {
	runner := &MockRunner{}
	want := defaults()
	want.Trigger = models.TriggerWorkflow
	runner.On("RunWithRetry", mock.Anything, want).Return(&models.RunRecord{ID: "run-2", Status: models.RunCompleted}, nil)

	h := NewHandler(LoadConfig(config.WorkerConfig{}), runner, defaults(), logger.NewNoOpLogger())
	out, err := h.Execute(context.Background(), &Input{})

	require.NoError(t, err)
	assert.Equal(t, []string{}, out.Errors)
	runner.AssertExpectations(t)
}

func TestHandler_Execute_FailedRunIsReturned(t *testing.T) {
	runner := &MockRunner{}
	fatal := apperrors.NewRunFailedError("run-3", apperrors.NewDatabaseConnectionFailedError(errors.New("refused")))
	runner.On("RunWithRetry", mock.Anything, mock.Anything).Return(&models.RunRecord{ID: "run-3", Status: models.RunFailed}, fatal)

	h := NewHandler(LoadConfig(config.WorkerConfig{}), runner, defaults(), logger.NewNoOpLogger())
	out, err := h.Execute(context.Background(), &Input{})

	assert.Nil(t, out)
	require.Error(t, err)
	assert.True(t, apperrors.IsFatal(err))
}

func TestHandler_Execute_FailedRunCarriesSummary(t *testing.T) {
	runner := &MockRunner{}
	fatal := apperrors.NewRunFailedError("run-4", apperrors.NewDatabaseConnectionFailedError(errors.New("dial tcp 10.0.0.5:5432: refused")))
	last := &models.RunRecord{
		ID:                    "run-4",
		Status:                models.RunFailed,
		MatchesFound:          3,
		ApplicationsSubmitted: 1,
		JobsProcessed:         2,
		Errors:                []string{"run: Database connection error"},
	}
	runner.On("RunWithRetry", mock.Anything, mock.Anything).Return(last, fatal)

	h := NewHandler(LoadConfig(config.WorkerConfig{}), runner, defaults(), logger.NewNoOpLogger())
	_, err := h.Execute(context.Background(), &Input{})
	require.Error(t, err)

	stdErr, ok := apperrors.AsStandardError(err)
	require.True(t, ok)
	vars := apperrors.ConvertToBPMNError(stdErr).ToErrorVariables()

	assert.Equal(t, "MATCHING_RUN_FAILED", vars["errorCode"])
	assert.Equal(t, "run-4", vars["runId"])
	assert.Equal(t, "failed", vars["status"])
	assert.Equal(t, 3, vars["matchesFound"])
	assert.Equal(t, 1, vars["applicationsSubmitted"])
	assert.Equal(t, 2, vars["jobsProcessed"])
	assert.Equal(t, []string{"run: Database connection error"}, vars["errors"])
	assert.NotContains(t, vars["errorDetails"], "10.0.0.5")
}

func TestHandler_Execute_UncodedFailureIsWrapped(t *testing.T) {
	runner := &MockRunner{}
	runner.On("RunWithRetry", mock.Anything, mock.Anything).
		Return(&models.RunRecord{ID: "run-5", Status: models.RunFailed}, context.DeadlineExceeded)

	h := NewHandler(LoadConfig(config.WorkerConfig{}), runner, defaults(), logger.NewNoOpLogger())
	_, err := h.Execute(context.Background(), &Input{})

	require.ErrorIs(t, err, context.DeadlineExceeded)
	stdErr, ok := apperrors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeRunFailed, stdErr.Code)
	assert.Equal(t, "run-5", stdErr.Metadata["runId"])
}

func TestInputSchema(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		valid bool
	}{
		{"empty", `{}`, true},
		{"overrides", `{"candidateBatchSize": 10, "jobBatchSize": 2, "candidatesPerJob": 30}`, true},
		{"unknown trigger", `{"trigger": "cron"}`, false},
		{"zero batch", `{"jobBatchSize": 0}`, false},
		{"string batch", `{"jobBatchSize": "5"}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var in Input
			err := inputSchema.Decode(tt.raw, &in)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.True(t, apperrors.IsInputError(err))
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	c := LoadConfig(config.WorkerConfig{})
	assert.Equal(t, 1, c.MaxJobsActive)
	assert.Equal(t, 15*time.Minute, c.Timeout)

	c = LoadConfig(config.WorkerConfig{MaxJobsActive: 2, Timeout: 60000})
	assert.Equal(t, 2, c.MaxJobsActive)
	assert.Equal(t, time.Minute, c.Timeout)
}
