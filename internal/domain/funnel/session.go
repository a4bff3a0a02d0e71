package funnel

import (
	"errors"
	"github.com/burenotti/go_health_funnel/internal/domain"
	"github.com/burenotti/go_health_funnel/internal/domain/nutrition"
	"time"
)

var (
	ErrSessionExists   = errors.New("session already exists")
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
)

const (
	EventSessionCreated         = "funnel.session_created"
	EventStageChanged           = "funnel.stage_changed"
	EventQuestionnaireCompleted = "funnel.questionnaire_completed"
	EventPlanSelected           = "funnel.plan_selected"
)

// Client describes the device the session was opened from.
type Client struct {
	Browser   string
	OS        string
	Device    string
	IPAddress string
}

type Session struct {
	domain.Aggregate
	SessionID string
	State     State
	Client    Client
	CreatedAt time.Time
	UpdatedAt time.Time
	ExpiresAt time.Time
}

func NewSession(sessionID string, client Client, now time.Time, ttl time.Duration) *Session {
	s := &Session{
		SessionID: sessionID,
		State:     Initial(),
		Client:    client,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	s.PushEvent(SessionCreatedEvent{
		EventBase: domain.EventBase{At: now},
		SessionID: sessionID,
		Client:    client,
	})
	return s
}

func (s *Session) ID() string {
	return s.SessionID
}

func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Apply runs t against the current state. On success the session keeps the
// new state, its expiry slides by ttl and the matching events are recorded.
func (s *Session) Apply(t Transition, now time.Time, ttl time.Duration) error {
	if s.Expired(now) {
		return ErrSessionExpired
	}

	prev := s.State
	next, err := t(prev)
	if err != nil {
		return err
	}

	s.State = next
	s.UpdatedAt = now
	s.ExpiresAt = now.Add(ttl)

	if prev.Stage == next.Stage {
		return nil
	}

	s.PushEvent(StageChangedEvent{
		EventBase: domain.EventBase{At: now},
		SessionID: s.SessionID,
		From:      prev.Stage,
		To:        next.Stage,
	})

	switch next.Stage {
	case StageResults:
		profile, _ := next.Answers.Profile()
		s.PushEvent(QuestionnaireCompletedEvent{
			EventBase: domain.EventBase{At: now},
			SessionID: s.SessionID,
			Email:     next.Answers.Email(),
			Profile:   profile,
		})
	case StagePayment:
		s.PushEvent(PlanSelectedEvent{
			EventBase: domain.EventBase{At: now},
			SessionID: s.SessionID,
			Plan:      string(next.Plan),
		})
	}
	return nil
}

type SessionCreatedEvent struct {
	domain.EventBase
	SessionID string
	Client    Client
}

func (SessionCreatedEvent) Type() string {
	return EventSessionCreated
}

type StageChangedEvent struct {
	domain.EventBase
	SessionID string
	From      Stage
	To        Stage
}

func (StageChangedEvent) Type() string {
	return EventStageChanged
}

type QuestionnaireCompletedEvent struct {
	domain.EventBase
	SessionID string
	Email     string
	Profile   nutrition.Profile
}

func (QuestionnaireCompletedEvent) Type() string {
	return EventQuestionnaireCompleted
}

type PlanSelectedEvent struct {
	domain.EventBase
	SessionID string
	Plan      string
}

func (PlanSelectedEvent) Type() string {
	return EventPlanSelected
}
