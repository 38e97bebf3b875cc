package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"automatch-workers/internal/common/aws"
	"automatch-workers/internal/common/config"
	apperrors "automatch-workers/internal/common/errors"
	"automatch-workers/internal/common/logger"
	"automatch-workers/internal/models"
)

type fakeSNS struct {
	inputs []*sns.PublishInput
	err    error
}

func (f *fakeSNS) Publish(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.inputs = append(f.inputs, in)
	return &sns.PublishOutput{}, f.err
}

type fakeSES struct {
	inputs []*ses.SendEmailInput
	err    error
}

func (f *fakeSES) SendEmail(_ context.Context, in *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.inputs = append(f.inputs, in)
	return &ses.SendEmailOutput{}, f.err
}

func fixtures() (*models.ApplicationRecord, *models.CandidateProfile, *models.JobPosting) {
	app := &models.ApplicationRecord{
		ID: "app-1", CandidateID: "cand-1", JobPostingID: "job-1", AutoApplied: true,
		MatchScore: 84, MatchReasons: []string{"All 3 required skills present", "Semantic match: 90%"},
		CreatedAt: time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC),
	}
	cand := &models.CandidateProfile{ID: "cand-1", FullName: "Ana", Email: "ana@example.com"}
	job := &models.JobPosting{ID: "job-1", RecruiterID: "rec-1", Title: "Backend Engineer", Company: "Acme"}
	return app, cand, job
}

func TestApplicationSubmitted_PublishesAndEmails(t *testing.T) {
	snsFake, sesFake := &fakeSNS{}, &fakeSES{}
	n := New(
		aws.NewSNSClientWith(snsFake, "arn:aws:sns:eu-west-1:123:matches"),
		aws.NewSESClientWith(sesFake, "noreply@example.com"),
		logger.NewTestLogger(t),
	)
	app, cand, job := fixtures()

	require.NoError(t, n.ApplicationSubmitted(context.Background(), app, cand, job))

	require.Len(t, snsFake.inputs, 1)
	in := snsFake.inputs[0]
	assert.Equal(t, "arn:aws:sns:eu-west-1:123:matches", *in.TopicArn)
	assert.Equal(t, EventApplicationSubmitted, *in.MessageAttributes["eventType"].StringValue)

	var event applicationEvent
	require.NoError(t, json.Unmarshal([]byte(*in.Message), &event))
	assert.Equal(t, "rec-1", event.RecruiterID)
	assert.Equal(t, 84.0, event.MatchScore)
	assert.Equal(t, "2026-10-18T09:00:00Z", event.CreatedAt)

	require.Len(t, sesFake.inputs, 1)
	mail := sesFake.inputs[0]
	assert.Equal(t, []string{"ana@example.com"}, mail.Destination.ToAddresses)
	assert.Equal(t, "Application submitted: Backend Engineer at Acme", *mail.Message.Subject.Data)
	assert.Contains(t, *mail.Message.Body.Text.Data, "Semantic match: 90%")
}

func TestApplicationSubmitted_FailureIsReportedAfterAllChannels(t *testing.T) {
	snsFake, sesFake := &fakeSNS{err: errors.New("throttled")}, &fakeSES{}
	n := New(aws.NewSNSClientWith(snsFake, "arn"), aws.NewSESClientWith(sesFake, "noreply@example.com"), logger.NewNoOpLogger())
	app, cand, job := fixtures()

	err := n.ApplicationSubmitted(context.Background(), app, cand, job)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeNotificationSendFailed, apperrors.CodeOf(err))
	assert.Len(t, sesFake.inputs, 1)
}

func TestApplicationSubmitted_SkipsEmailWithoutAddress(t *testing.T) {
	sesFake := &fakeSES{}
	n := New(nil, aws.NewSESClientWith(sesFake, "noreply@example.com"), logger.NewNoOpLogger())
	app, cand, job := fixtures()
	cand.Email = ""

	require.NoError(t, n.ApplicationSubmitted(context.Background(), app, cand, job))
	assert.Empty(t, sesFake.inputs)
}

func TestNewFromConfig_DisabledIsNoop(t *testing.T) {
	n, err := NewFromConfig(context.Background(), config.NotificationConfig{}, logger.NewNoOpLogger())
	require.NoError(t, err)

	app, cand, job := fixtures()
	assert.NoError(t, n.ApplicationSubmitted(context.Background(), app, cand, job))
}
