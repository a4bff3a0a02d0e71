package funnel

import (
	"errors"
	"fmt"
	"github.com/burenotti/go_health_funnel/internal/domain/pricing"
)

var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrAnswerRequired    = errors.New("current question is not answered")
	ErrFirstStep         = errors.New("already at the first question")
	ErrPlanUnavailable   = errors.New("age, weight and height are required to build the plan")
)

type Stage string

const (
	StageWelcome       Stage = "welcome"
	StageQuestionnaire Stage = "questionnaire"
	StageResults       Stage = "results"
	StagePricing       Stage = "pricing"
	StagePayment       Stage = "payment"
)

// State is a snapshot of one visitor's progress. Transitions never modify
// the receiver, they return the next State.
type State struct {
	Stage   Stage
	Step    int
	Answers Answers
	Plan    pricing.PlanID
}

func Initial() State {
	return State{Stage: StageWelcome}
}

// Transition is one edge of the funnel.
type Transition func(State) (State, error)

func (s State) Start() (State, error) {
	if s.Stage != StageWelcome {
		return s, s.invalid("start")
	}
	s.Stage = StageQuestionnaire
	s.Step = 1
	return s, nil
}

func (s State) CurrentField() (Field, bool) {
	if s.Stage != StageQuestionnaire {
		return Field{}, false
	}
	return FieldAt(s.Step)
}

// Answer records the answer for the current question.
func (s State) Answer(raw string) (State, error) {
	f, ok := s.CurrentField()
	if !ok {
		return s, s.invalid("answer")
	}
	value, err := f.Normalize(raw)
	if err != nil {
		return s, err
	}
	s.Answers = s.Answers.With(f.Key, value)
	return s, nil
}

// CanAdvance reports whether the current question holds a valid answer.
func (s State) CanAdvance() bool {
	f, ok := s.CurrentField()
	if !ok {
		return false
	}
	v, ok := s.Answers.Get(f.Key)
	if !ok {
		return false
	}
	_, err := f.Normalize(v)
	return err == nil
}

func (s State) Next() (State, error) {
	if s.Stage != StageQuestionnaire {
		return s, s.invalid("next")
	}
	if !s.CanAdvance() {
		return s, ErrAnswerRequired
	}
	if s.Step < TotalSteps() {
		s.Step++
		return s, nil
	}
	s.Stage = StageResults
	return s, nil
}

func (s State) Back() (State, error) {
	if s.Stage != StageQuestionnaire {
		return s, s.invalid("back")
	}
	if s.Step <= 1 {
		return s, ErrFirstStep
	}
	s.Step--
	return s, nil
}

// Checkout moves from the results to the pricing screen. It is refused while
// the plan cannot be computed.
func (s State) Checkout() (State, error) {
	if s.Stage != StageResults {
		return s, s.invalid("checkout")
	}
	if _, ok := s.Answers.Profile(); !ok {
		return s, ErrPlanUnavailable
	}
	s.Stage = StagePricing
	return s, nil
}

func (s State) SelectPlan(catalog pricing.Catalog, id pricing.PlanID) (State, error) {
	if s.Stage != StagePricing {
		return s, s.invalid("select plan")
	}
	if _, err := catalog.Plan(id); err != nil {
		return s, err
	}
	s.Stage = StagePayment
	s.Plan = id
	return s, nil
}

func (s State) ReturnToPricing() (State, error) {
	if s.Stage != StagePayment {
		return s, s.invalid("return to pricing")
	}
	s.Stage = StagePricing
	s.Plan = ""
	return s, nil
}

// Progress is the questionnaire completion in percent.
func (s State) Progress() int {
	switch s.Stage {
	case StageWelcome:
		return 0
	case StageQuestionnaire:
		return s.Step * 100 / TotalSteps()
	default:
		return 100
	}
}

func (s State) invalid(action string) error {
	return fmt.Errorf("%w: cannot %s from %s", ErrInvalidTransition, action, s.Stage)
}
