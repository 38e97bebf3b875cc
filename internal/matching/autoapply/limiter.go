package autoapply

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"

	apperrors "automatch-workers/internal/common/errors"
	"automatch-workers/internal/common/logger"
	"automatch-workers/internal/common/metrics"
	"automatch-workers/internal/models"
)

// Store is the persistence the limiter needs. GetPreference returns nil, nil when the
// candidate never saved one.
//
// CreateApplicationWithinLimit counts the candidate's applications created at or after
// since and inserts app only when that count is below maxPerDay. Count and insert are
// atomic per candidate. It returns an error matching ErrDailyLimitReached when the cap is
// met and ErrDuplicateApplication on a unique-constraint violation.
type Store interface {
	GetPreference(ctx context.Context, candidateID string) (*models.AutoApplyPreference, error)
	SavePreference(ctx context.Context, pref *models.AutoApplyPreference) error
	ApplicationExists(ctx context.Context, candidateID, jobPostingID string) (bool, error)
	CountApplicationsSince(ctx context.Context, candidateID string, since time.Time) (int, error)
	CreateApplicationWithinLimit(ctx context.Context, app *models.ApplicationRecord, since time.Time, maxPerDay int) error
}

// Defaults apply to candidates without a stored preference.
type Defaults struct {
	MinScoreThreshold     int
	MaxApplicationsPerDay int
}

// Limiter applies the auto-apply policy and writes the applications it allows.
type Limiter struct {
	store    Store
	throttle *Throttle
	defaults Defaults
	logger   logger.Logger
	now      func() time.Time
}

// NewLimiter fills zero Defaults from the model defaults. A nil throttle never waits.
func NewLimiter(store Store, throttle *Throttle, defaults Defaults, log logger.Logger) *Limiter {
	if defaults.MinScoreThreshold == 0 {
		defaults.MinScoreThreshold = models.DefaultMinScoreThreshold
	}
	if defaults.MaxApplicationsPerDay == 0 {
		defaults.MaxApplicationsPerDay = models.DefaultMaxApplicationsPerDay
	}
	return &Limiter{
		store:    store,
		throttle: throttle,
		defaults: defaults,
		logger:   logger.Component(log, "autoapply"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// StartOfUTCDay truncates t to midnight UTC.
func StartOfUTCDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// Preference returns the stored preference or the configured defaults.
func (l *Limiter) Preference(ctx context.Context, candidateID string) (models.AutoApplyPreference, error) {
	pref, err := l.store.GetPreference(ctx, candidateID)
	if err != nil {
		return models.AutoApplyPreference{}, err
	}
	if pref == nil {
		def := models.DefaultPreference(candidateID)
		def.MinScoreThreshold = l.defaults.MinScoreThreshold
		def.MaxApplicationsPerDay = l.defaults.MaxApplicationsPerDay
		return def, nil
	}
	return *pref, nil
}

// SetPreference validates and stores a candidate's preference.
func (l *Limiter) SetPreference(ctx context.Context, pref models.AutoApplyPreference) (models.AutoApplyPreference, error) {
	if err := pref.Validate(); err != nil {
		return models.AutoApplyPreference{}, apperrors.NewInvalidPreferenceError(err.Error())
	}
	pref.UpdatedAt = l.now()
	if err := l.store.SavePreference(ctx, &pref); err != nil {
		return models.AutoApplyPreference{}, err
	}
	return pref, nil
}

// Evaluate loads the policy inputs from storage and applies Decide. The daily count is
// recomputed from application timestamps on every call.
func (l *Limiter) Evaluate(ctx context.Context, candidateID, jobPostingID string, matchScore float64) (Decision, error) {
	decision, _, err := l.evaluate(ctx, candidateID, jobPostingID, matchScore)
	return decision, err
}

func (l *Limiter) evaluate(ctx context.Context, candidateID, jobPostingID string, matchScore float64) (Decision, models.AutoApplyPreference, error) {
	pref, err := l.Preference(ctx, candidateID)
	if err != nil {
		return Decision{}, pref, err
	}
	if !pref.Enabled {
		return Decide(matchScore, pref, false, 0), pref, nil
	}

	exists, err := l.store.ApplicationExists(ctx, candidateID, jobPostingID)
	if err != nil {
		return Decision{}, pref, err
	}
	if exists {
		return Decide(matchScore, pref, true, 0), pref, nil
	}

	today, err := l.store.CountApplicationsSince(ctx, candidateID, StartOfUTCDay(l.now()))
	if err != nil {
		return Decision{}, pref, err
	}
	return Decide(matchScore, pref, false, today), pref, nil
}

// Submit evaluates the policy and, when it allows, waits on the throttle and writes the
// application. The store re-checks the daily cap atomically with the insert, so concurrent
// submissions for one candidate never exceed it. A concurrent duplicate surfaces as an
// "Already applied" decision and a cap reached meanwhile as the daily-limit decision.
func (l *Limiter) Submit(ctx context.Context, candidateID, jobPostingID string, matchScore float64, reasons []string) (Decision, *models.ApplicationRecord, error) {
	decision, pref, err := l.evaluate(ctx, candidateID, jobPostingID, matchScore)
	if err != nil {
		return Decision{}, nil, err
	}
	if !decision.Submit {
		l.record(candidateID, jobPostingID, decision)
		return decision, nil, nil
	}

	if err := l.throttle.Wait(ctx); err != nil {
		return Decision{}, nil, err
	}

	app := &models.ApplicationRecord{
		ID:           uuid.New().String(),
		CandidateID:  candidateID,
		JobPostingID: jobPostingID,
		AutoApplied:  true,
		MatchScore:   matchScore,
		MatchReasons: reasons,
		Status:       models.ApplicationStatusSubmitted,
		CreatedAt:    l.now(),
	}

	err = l.store.CreateApplicationWithinLimit(ctx, app, StartOfUTCDay(app.CreatedAt), pref.MaxApplicationsPerDay)
	switch {
	case err == nil:
	case stderrors.Is(err, apperrors.ErrDuplicateApplication):
		decision = Decision{Submit: false, Reason: ReasonAlreadyApplied}
		l.record(candidateID, jobPostingID, decision)
		return decision, nil, nil
	case stderrors.Is(err, apperrors.ErrDailyLimitReached):
		decision = Decide(matchScore, pref, false, pref.MaxApplicationsPerDay)
		l.record(candidateID, jobPostingID, decision)
		return decision, nil, nil
	default:
		return Decision{}, nil, err
	}

	decision = Decision{Submit: true, Reason: ReasonSubmitted}
	l.record(candidateID, jobPostingID, decision)
	return decision, app, nil
}

func (l *Limiter) record(candidateID, jobPostingID string, d Decision) {
	outcome := "skipped"
	if d.Submit {
		outcome = "submitted"
	}
	metrics.AutoApplyDecisions.WithLabelValues(outcome).Inc()

	l.logger.Info("auto-apply decision", map[string]interface{}{
		"candidateId":  candidateID,
		"jobPostingId": jobPostingID,
		"submit":       d.Submit,
		"reason":       d.Reason,
	})
}
