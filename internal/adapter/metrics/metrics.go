package metrics

import (
	"github.com/burenotti/go_health_funnel/internal/domain"
	"github.com/burenotti/go_health_funnel/internal/domain/funnel"
	"github.com/prometheus/client_golang/prometheus"
	"sync"
)

const namespace = "health_funnel"

var (
	once sync.Once

	sessionsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_created_total",
			Help:      "Count of funnel sessions created by client OS.",
		},
		[]string{"os"},
	)

	stageTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_transitions_total",
			Help:      "Count of funnel stage changes by target stage.",
		},
		[]string{"stage"},
	)

	questionnairesCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "questionnaire_completed_total",
			Help:      "Count of finished questionnaires by goal.",
		},
		[]string{"goal"},
	)

	plansSelected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plan_selected_total",
			Help:      "Count of pricing plans chosen at checkout.",
		},
		[]string{"plan"},
	)

	estimates = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "estimates_total",
			Help:      "Count of standalone nutrition estimates served.",
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(sessionsCreated, stageTransitions, questionnairesCompleted, plansSelected, estimates)
	})
}

func IncEstimates() {
	estimates.Inc()
}

// HandleEvent updates counters from funnel events. It matches the message
// bus handler signature.
func HandleEvent(event domain.Event) error {
	switch e := event.(type) {
	case funnel.SessionCreatedEvent:
		sessionsCreated.WithLabelValues(labelOrUnknown(e.Client.OS)).Inc()
	case funnel.StageChangedEvent:
		stageTransitions.WithLabelValues(string(e.To)).Inc()
	case funnel.QuestionnaireCompletedEvent:
		questionnairesCompleted.WithLabelValues(labelOrUnknown(string(e.Profile.Goal))).Inc()
	case funnel.PlanSelectedEvent:
		plansSelected.WithLabelValues(e.Plan).Inc()
	}
	return nil
}

// Events lists the event types HandleEvent understands.
func Events() []string {
	return []string{
		funnel.EventSessionCreated,
		funnel.EventStageChanged,
		funnel.EventQuestionnaireCompleted,
		funnel.EventPlanSelected,
	}
}

func labelOrUnknown(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
