// Package registry describes the activities this service implements for BPMN authors:
// task type, input schema and the error codes a job can fail with.
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	apperrors "automatch-workers/internal/common/errors"
	"automatch-workers/internal/common/validation"
	cpu "automatch-workers/internal/workers/matching/candidate-profile-updated"
	jpu "automatch-workers/internal/workers/matching/job-posting-updated"
	rmb "automatch-workers/internal/workers/matching/run-matching-batch"
	ssc "automatch-workers/internal/workers/matching/search-similar-candidates"
	uap "automatch-workers/internal/workers/matching/update-autoapply-preference"
)

type ActivityRegistry struct {
	Version    string     `json:"version"`
	Activities []Activity `json:"activities"`
}

type Activity struct {
	TaskType    string                `json:"taskType"`
	DisplayName string                `json:"displayName"`
	Description string                `json:"description"`
	Category    string                `json:"category"`
	InputSchema json.RawMessage       `json:"inputSchema"`
	ErrorCodes  []apperrors.ErrorCode `json:"errorCodes"`
	Tags        []string              `json:"tags,omitempty"`
}

const Version = "1.0.0"

var storageCodes = []apperrors.ErrorCode{
	apperrors.ErrCodeDatabaseConnectionFailed,
	apperrors.ErrCodeQueryExecutionFailed,
	apperrors.ErrCodeDatabaseInsertFailed,
}

func codes(extra ...apperrors.ErrorCode) []apperrors.ErrorCode {
	out := append([]apperrors.ErrorCode{apperrors.ErrCodeInvalidInput}, extra...)
	return append(out, storageCodes...)
}

// Default lists every activity a worker-manager registers, sorted by task type.
func Default() *ActivityRegistry {
	acts := []Activity{
		{
			TaskType:    rmb.TaskType,
			DisplayName: "Run Matching Batch",
			Description: "Embeds pending profiles, scores unevaluated candidate/job pairs and auto-applies qualifying matches.",
			Category:    "matching",
			InputSchema: json.RawMessage(rmb.InputSchema),
			ErrorCodes: codes(
				apperrors.ErrCodeRunFailed,
				apperrors.ErrCodeProviderNotConfigured,
				apperrors.ErrCodeEmbeddingGenerationFailed,
				apperrors.ErrCodeSearchQueryFailed,
			),
			Tags: []string{"batch"},
		},
		{
			TaskType:    uap.TaskType,
			DisplayName: "Update Auto-Apply Preference",
			Description: "Changes a candidate's auto-apply switch, score threshold or daily limit.",
			Category:    "preferences",
			InputSchema: json.RawMessage(uap.InputSchema),
			ErrorCodes:  codes(apperrors.ErrCodeInvalidPreference),
		},
		{
			TaskType:    cpu.TaskType,
			DisplayName: "Candidate Profile Updated",
			Description: "Stores a candidate profile and clears stale evaluations when matching inputs change.",
			Category:    "lifecycle",
			InputSchema: json.RawMessage(cpu.InputSchema),
			ErrorCodes:  codes(),
		},
		{
			TaskType:    jpu.TaskType,
			DisplayName: "Job Posting Updated",
			Description: "Stores or closes a job posting and clears stale evaluations when requirements change.",
			Category:    "lifecycle",
			InputSchema: json.RawMessage(jpu.InputSchema),
			ErrorCodes:  codes(apperrors.ErrCodeEntityNotFound),
		},
		{
			TaskType:    ssc.TaskType,
			DisplayName: "Search Similar Candidates",
			Description: "Lists candidates whose embeddings are closest to a job posting.",
			Category:    "search",
			InputSchema: json.RawMessage(ssc.InputSchema),
			ErrorCodes: codes(
				apperrors.ErrCodeInvalidFilterFormat,
				apperrors.ErrCodeEmbeddingNotFound,
				apperrors.ErrCodeSearchQueryFailed,
			),
		},
	}
	sort.Slice(acts, func(i, j int) bool { return acts[i].TaskType < acts[j].TaskType })
	return &ActivityRegistry{Version: Version, Activities: acts}
}

// Find returns the activity for a task type.
func (r *ActivityRegistry) Find(taskType string) (Activity, bool) {
	for _, a := range r.Activities {
		if a.TaskType == taskType {
			return a, true
		}
	}
	return Activity{}, false
}

// Validate checks that task types are unique and every input schema compiles.
func (r *ActivityRegistry) Validate() error {
	seen := make(map[string]struct{}, len(r.Activities))
	for _, a := range r.Activities {
		if a.TaskType == "" {
			return fmt.Errorf("activity %q has no task type", a.DisplayName)
		}
		if _, dup := seen[a.TaskType]; dup {
			return fmt.Errorf("duplicate task type %q", a.TaskType)
		}
		seen[a.TaskType] = struct{}{}

		if _, err := validation.Compile(string(a.InputSchema)); err != nil {
			return fmt.Errorf("activity %s: %w", a.TaskType, err)
		}
	}
	return nil
}

// LoadRegistry reads a registry previously written with Save.
func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &reg, nil
}

// Save writes the registry as indented JSON.
func (r *ActivityRegistry) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
