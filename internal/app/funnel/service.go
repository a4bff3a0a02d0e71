package funnelapp

import (
	"context"
	"errors"
	"github.com/burenotti/go_health_funnel/internal/app/unitofwork"
	"github.com/burenotti/go_health_funnel/internal/domain/funnel"
	"github.com/burenotti/go_health_funnel/internal/domain/nutrition"
	"github.com/burenotti/go_health_funnel/internal/domain/pricing"
	"github.com/google/uuid"
	"log/slog"
	"time"
)

var (
	ErrResultsNotReady = errors.New("questionnaire is not finished")
	ErrNoPlanSelected  = errors.New("no plan selected")
)

type UoW = unitofwork.UnitOfWork[*AtomicContext]

type Service struct {
	logger    *slog.Logger
	estimator nutrition.Estimator
	catalog   pricing.Catalog
	ttl       time.Duration
	now       func() time.Time
}

func New(
	logger *slog.Logger,
	estimator nutrition.Estimator,
	catalog pricing.Catalog,
	ttl time.Duration,
) *Service {
	return &Service{
		logger:    logger,
		estimator: estimator,
		catalog:   catalog,
		ttl:       ttl,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) Catalog() pricing.Catalog {
	return s.catalog
}

func (s *Service) Estimate(p nutrition.Profile) nutrition.Plan {
	return s.estimator.Estimate(p)
}

func (s *Service) CreateSession(
	ctx context.Context,
	uow *UoW,
	client funnel.Client,
) (sess *funnel.Session, err error) {
	err = uow.Atomic(ctx, func(a *AtomicContext) error {
		sess = funnel.NewSession(uuid.NewString(), client, s.now(), s.ttl)
		if err := a.SessionStorage.Add(a.Context(), sess); err != nil {
			return err
		}
		return a.Commit()
	})
	if err == nil {
		s.logger.Debug("funnel session created", "session_id", sess.SessionID, "browser", client.Browser)
	}
	return
}

func (s *Service) GetSession(
	ctx context.Context,
	uow *UoW,
	sessionID string,
) (sess *funnel.Session, err error) {
	err = uow.Atomic(ctx, func(a *AtomicContext) error {
		var err error
		if sess, err = s.load(a, sessionID); err != nil {
			return err
		}
		return a.Commit()
	})
	return
}

// Apply loads the session, runs t and persists the result.
func (s *Service) Apply(
	ctx context.Context,
	uow *UoW,
	sessionID string,
	t funnel.Transition,
) (sess *funnel.Session, err error) {
	err = uow.Atomic(ctx, func(a *AtomicContext) error {
		var err error
		if sess, err = s.load(a, sessionID); err != nil {
			return err
		}
		if err := sess.Apply(t, s.now(), s.ttl); err != nil {
			return err
		}
		if err := a.SessionStorage.Persist(a.Context(), sess); err != nil {
			return err
		}
		return a.Commit()
	})
	return
}

func (s *Service) Start(ctx context.Context, uow *UoW, sessionID string) (*funnel.Session, error) {
	return s.Apply(ctx, uow, sessionID, funnel.State.Start)
}

func (s *Service) Answer(ctx context.Context, uow *UoW, sessionID, value string) (*funnel.Session, error) {
	return s.Apply(ctx, uow, sessionID, func(st funnel.State) (funnel.State, error) {
		return st.Answer(value)
	})
}

func (s *Service) Next(ctx context.Context, uow *UoW, sessionID string) (*funnel.Session, error) {
	return s.Apply(ctx, uow, sessionID, funnel.State.Next)
}

func (s *Service) Back(ctx context.Context, uow *UoW, sessionID string) (*funnel.Session, error) {
	return s.Apply(ctx, uow, sessionID, funnel.State.Back)
}

func (s *Service) Checkout(ctx context.Context, uow *UoW, sessionID string) (*funnel.Session, error) {
	return s.Apply(ctx, uow, sessionID, funnel.State.Checkout)
}

func (s *Service) SelectPlan(ctx context.Context, uow *UoW, sessionID string, plan pricing.PlanID) (*funnel.Session, error) {
	return s.Apply(ctx, uow, sessionID, func(st funnel.State) (funnel.State, error) {
		return st.SelectPlan(s.catalog, plan)
	})
}

func (s *Service) ReturnToPricing(ctx context.Context, uow *UoW, sessionID string) (*funnel.Session, error) {
	return s.Apply(ctx, uow, sessionID, funnel.State.ReturnToPricing)
}

// Results computes the macro plan from the session's answers. It is available
// once the questionnaire is finished.
func (s *Service) Results(ctx context.Context, uow *UoW, sessionID string) (nutrition.Plan, error) {
	sess, err := s.GetSession(ctx, uow, sessionID)
	if err != nil {
		return nutrition.Plan{}, err
	}
	return s.results(sess.State)
}

func (s *Service) results(st funnel.State) (nutrition.Plan, error) {
	switch st.Stage {
	case funnel.StageResults, funnel.StagePricing, funnel.StagePayment:
	default:
		return nutrition.Plan{}, ErrResultsNotReady
	}
	profile, ok := st.Answers.Profile()
	if !ok {
		return nutrition.Plan{}, funnel.ErrPlanUnavailable
	}
	return s.estimator.Estimate(profile), nil
}

func (s *Service) PaymentInstructions(ctx context.Context, uow *UoW, sessionID string) (pricing.Instructions, error) {
	sess, err := s.GetSession(ctx, uow, sessionID)
	if err != nil {
		return pricing.Instructions{}, err
	}
	if sess.State.Stage != funnel.StagePayment || sess.State.Plan == "" {
		return pricing.Instructions{}, ErrNoPlanSelected
	}
	return s.catalog.Instructions(sess.State.Plan, sess.State.Answers.Email())
}

// PurgeExpired drops sessions whose expiry has passed.
func (s *Service) PurgeExpired(ctx context.Context, uow *UoW) (n int64, err error) {
	err = uow.Atomic(ctx, func(a *AtomicContext) error {
		var err error
		if n, err = a.SessionStorage.DeleteExpired(a.Context(), s.now()); err != nil {
			return err
		}
		return a.Commit()
	})
	if err == nil && n > 0 {
		s.logger.Info("purged expired funnel sessions", "count", n)
	}
	return
}

func (s *Service) load(a *AtomicContext, sessionID string) (*funnel.Session, error) {
	sess, err := a.SessionStorage.GetByID(a.Context(), sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Expired(s.now()) {
		return nil, funnel.ErrSessionExpired
	}
	return sess, nil
}
