package sessionstorage

import (
	"github.com/burenotti/go_health_funnel/internal/domain"
	"github.com/burenotti/go_health_funnel/internal/domain/funnel"
	"github.com/burenotti/go_health_funnel/internal/domain/pricing"
	"github.com/samber/lo"
	"sync"
	"time"
)

// record is the serialized form of a session used by the memory and redis
// backends. Sessions embed a mutex and are never stored by value.
type record struct {
	SessionID string            `json:"session_id"`
	Stage     string            `json:"stage"`
	Step      int               `json:"step"`
	Answers   map[string]string `json:"answers"`
	Plan      string            `json:"plan,omitempty"`
	Browser   string            `json:"browser,omitempty"`
	OS        string            `json:"os,omitempty"`
	Device    string            `json:"device,omitempty"`
	IPAddress string            `json:"ip_address,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	ExpiresAt time.Time         `json:"expires_at"`
}

func toRecord(s *funnel.Session) record {
	return record{
		SessionID: s.SessionID,
		Stage:     string(s.State.Stage),
		Step:      s.State.Step,
		Answers:   encodeAnswers(s.State.Answers),
		Plan:      string(s.State.Plan),
		Browser:   s.Client.Browser,
		OS:        s.Client.OS,
		Device:    s.Client.Device,
		IPAddress: s.Client.IPAddress,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
		ExpiresAt: s.ExpiresAt,
	}
}

func (r record) toDomain() *funnel.Session {
	return &funnel.Session{
		SessionID: r.SessionID,
		State: funnel.State{
			Stage:   funnel.Stage(r.Stage),
			Step:    r.Step,
			Answers: decodeAnswers(r.Answers),
			Plan:    pricing.PlanID(r.Plan),
		},
		Client: funnel.Client{
			Browser:   r.Browser,
			OS:        r.OS,
			Device:    r.Device,
			IPAddress: r.IPAddress,
		},
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
		ExpiresAt: r.ExpiresAt,
	}
}

func encodeAnswers(a funnel.Answers) map[string]string {
	return lo.MapKeys(a.Values(), func(_ string, k funnel.FieldKey) string {
		return string(k)
	})
}

func decodeAnswers(values map[string]string) funnel.Answers {
	return funnel.NewAnswers(lo.MapKeys(values, func(_ string, k string) funnel.FieldKey {
		return funnel.FieldKey(k)
	}))
}

// tracker remembers the sessions touched within one unit of work so their
// events can be collected after commit.
type tracker struct {
	mu   sync.Mutex
	seen map[string]*funnel.Session
}

func newTracker() *tracker {
	return &tracker{seen: make(map[string]*funnel.Session)}
}

func (t *tracker) mark(s *funnel.Session) {
	t.mu.Lock()
	t.seen[s.SessionID] = s
	t.mu.Unlock()
}

func (t *tracker) collect() []domain.Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	var events []domain.Event
	for _, s := range t.seen {
		events = append(events, s.PopEvents()...)
	}
	t.seen = make(map[string]*funnel.Session)
	return events
}

func (t *tracker) clear() {
	t.mu.Lock()
	t.seen = make(map[string]*funnel.Session)
	t.mu.Unlock()
}
