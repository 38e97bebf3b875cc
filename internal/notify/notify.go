// Package notify announces auto-submitted applications: an SNS event for recruiter-side
// consumers and an SES email to the candidate.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"automatch-workers/internal/common/aws"
	"automatch-workers/internal/common/config"
	apperrors "automatch-workers/internal/common/errors"
	"automatch-workers/internal/common/logger"
	"automatch-workers/internal/models"
)

const EventApplicationSubmitted = "application.auto_submitted"

type EventPublisher interface {
	PublishEvent(ctx context.Context, eventType, subject, message string) error
}

type Mailer interface {
	SendText(ctx context.Context, to, subject, body string) error
}

// Notifier sends on every configured channel. A Notifier without channels does nothing.
type Notifier struct {
	events EventPublisher
	mail   Mailer
	logger logger.Logger
}

func New(events EventPublisher, mail Mailer, log logger.Logger) *Notifier {
	return &Notifier{events: events, mail: mail, logger: logger.Component(log, "notify")}
}

// NewFromConfig builds the AWS clients enabled in cfg.
func NewFromConfig(ctx context.Context, cfg config.NotificationConfig, log logger.Logger) (*Notifier, error) {
	n := New(nil, nil, log)
	if !cfg.Enabled {
		return n, nil
	}

	if cfg.SNS.Enabled && cfg.SNS.TopicARN != "" {
		client, err := aws.NewSNSClient(ctx, cfg.AWS.Region, cfg.SNS.TopicARN)
		if err != nil {
			return nil, fmt.Errorf("create sns client: %w", err)
		}
		n.events = client
	}
	if cfg.SES.Enabled && cfg.SES.FromEmail != "" {
		client, err := aws.NewSESClient(ctx, cfg.AWS.Region, cfg.SES.FromEmail)
		if err != nil {
			return nil, fmt.Errorf("create ses client: %w", err)
		}
		n.mail = client
	}
	return n, nil
}

type applicationEvent struct {
	EventType     string   `json:"eventType"`
	ApplicationID string   `json:"applicationId"`
	CandidateID   string   `json:"candidateId"`
	JobPostingID  string   `json:"jobPostingId"`
	RecruiterID   string   `json:"recruiterId,omitempty"`
	JobTitle      string   `json:"jobTitle"`
	MatchScore    float64  `json:"matchScore"`
	MatchReasons  []string `json:"matchReasons"`
	CreatedAt     string   `json:"createdAt"`
}

// ApplicationSubmitted tries every channel and returns the first failure.
func (n *Notifier) ApplicationSubmitted(ctx context.Context, app *models.ApplicationRecord, candidate *models.CandidateProfile, job *models.JobPosting) error {
	var firstErr error

	if n.events != nil {
		payload, err := json.Marshal(applicationEvent{
			EventType:     EventApplicationSubmitted,
			ApplicationID: app.ID,
			CandidateID:   app.CandidateID,
			JobPostingID:  app.JobPostingID,
			RecruiterID:   job.RecruiterID,
			JobTitle:      job.Title,
			MatchScore:    app.MatchScore,
			MatchReasons:  app.MatchReasons,
			CreatedAt:     app.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
		if err == nil {
			err = n.events.PublishEvent(ctx, EventApplicationSubmitted, "New auto-applied candidate", string(payload))
		}
		if err != nil {
			firstErr = apperrors.NewNotificationSendFailedError("sns", err)
			n.logFailure("sns", app, err)
		}
	}

	if n.mail != nil && strings.TrimSpace(candidate.Email) != "" {
		subject, body := candidateEmail(app, candidate, job)
		if err := n.mail.SendText(ctx, candidate.Email, subject, body); err != nil {
			if firstErr == nil {
				firstErr = apperrors.NewNotificationSendFailedError("ses", err)
			}
			n.logFailure("ses", app, err)
		}
	}

	return firstErr
}

func candidateEmail(app *models.ApplicationRecord, candidate *models.CandidateProfile, job *models.JobPosting) (string, string) {
	title := job.Title
	if job.Company != "" {
		title += " at " + job.Company
	}

	var b strings.Builder
	name := candidate.FullName
	if name == "" {
		name = "there"
	}
	fmt.Fprintf(&b, "Hi %s,\n\n", name)
	fmt.Fprintf(&b, "We applied to %s on your behalf with a match score of %.1f.\n\n", title, app.MatchScore)
	if len(app.MatchReasons) > 0 {
		b.WriteString("Why it matched:\n")
		for _, r := range app.MatchReasons {
			fmt.Fprintf(&b, "  - %s\n", r)
		}
		b.WriteString("\n")
	}
	b.WriteString("You can change your auto-apply preferences at any time.\n")

	return "Application submitted: " + title, b.String()
}

func (n *Notifier) logFailure(channel string, app *models.ApplicationRecord, err error) {
	n.logger.Warn("notification failed", map[string]interface{}{
		"channel":       channel,
		"applicationId": app.ID,
		"candidateId":   app.CandidateID,
		"jobPostingId":  app.JobPostingID,
		"error":         err.Error(),
	})
}
