package funnel

import (
	"errors"
	"github.com/burenotti/go_health_funnel/internal/domain/nutrition"
	"github.com/burenotti/go_health_funnel/internal/domain/pricing"
	"testing"
	"time"
)

var completeAnswers = []string{"nao", "masculino", "28", "75", "175", "perder", "moderado", "joao@example.com"}

// walkQuestionnaire starts a fresh state and answers every question.
func walkQuestionnaire(t *testing.T, answers []string) State {
	t.Helper()
	s, err := Initial().Start()
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	for i, a := range answers {
		if s, err = s.Answer(a); err != nil {
			t.Fatalf("step %d Answer(%q): %v", i+1, a, err)
		}
		if s, err = s.Next(); err != nil {
			t.Fatalf("step %d Next: %v", i+1, err)
		}
	}
	return s
}

func TestState_Start(t *testing.T) {
	s, err := Initial().Start()
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if s.Stage != StageQuestionnaire || s.Step != 1 {
		t.Errorf("after Start: stage=%s step=%d", s.Stage, s.Step)
	}
	if _, err := s.Start(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("second Start: expected ErrInvalidTransition, got %v", err)
	}
}

func TestState_CannotAdvanceWithoutAnswer(t *testing.T) {
	s, _ := Initial().Start()
	if s.CanAdvance() {
		t.Error("CanAdvance() = true before answering")
	}
	if _, err := s.Next(); !errors.Is(err, ErrAnswerRequired) {
		t.Errorf("expected ErrAnswerRequired, got %v", err)
	}
}

func TestState_InvalidAnswersAreRejected(t *testing.T) {
	cases := []struct {
		name  string
		step  int
		value string
	}{
		{"empty account answer", 1, "  "},
		{"unknown sex", 2, "other"},
		{"non-numeric age", 3, "twenty"},
		{"zero weight", 4, "0"},
		{"negative height", 5, "-170"},
		{"unknown goal", 6, "bulk"},
		{"unknown activity", 7, "extreme"},
		{"bad email", 8, "not-an-email"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := walkQuestionnaire(t, completeAnswers[:tc.step-1])
			if s.Step != tc.step {
				t.Fatalf("cursor at %d, want %d", s.Step, tc.step)
			}
			next, err := s.Answer(tc.value)
			if !errors.Is(err, ErrInvalidAnswer) {
				t.Errorf("expected ErrInvalidAnswer, got %v", err)
			}
			if next.CanAdvance() {
				t.Error("CanAdvance() = true after rejected answer")
			}
		})
	}
}

func TestState_AnswerIsNormalized(t *testing.T) {
	s := walkQuestionnaire(t, completeAnswers)
	if v, _ := s.Answers.Get(FieldSex); v != string(nutrition.Male) {
		t.Errorf("sex stored as %q, want %q", v, nutrition.Male)
	}
	if v, _ := s.Answers.Get(FieldActivity); v != string(nutrition.Moderate) {
		t.Errorf("activity stored as %q, want %q", v, nutrition.Moderate)
	}
	if v, _ := s.Answers.Get(FieldHasAccount); v != "no" {
		t.Errorf("has_account stored as %q, want %q", v, "no")
	}
}

func TestState_CompletingQuestionnaireShowsResults(t *testing.T) {
	s := walkQuestionnaire(t, completeAnswers)
	if s.Stage != StageResults {
		t.Fatalf("stage = %s, want %s", s.Stage, StageResults)
	}
	if s.Progress() != 100 {
		t.Errorf("Progress() = %d, want 100", s.Progress())
	}
}

func TestState_Back(t *testing.T) {
	s := walkQuestionnaire(t, completeAnswers[:3])
	s, err := s.Back()
	if err != nil {
		t.Fatalf("Back: %v", err)
	}
	if s.Step != 3 {
		t.Errorf("step = %d, want 3", s.Step)
	}
	if v, ok := s.Answers.Get(FieldAge); !ok || v != "28" {
		t.Errorf("age answer lost after Back: %q", v)
	}
	if !s.CanAdvance() {
		t.Error("CanAdvance() = false on an answered step")
	}

	first, _ := Initial().Start()
	if _, err := first.Back(); !errors.Is(err, ErrFirstStep) {
		t.Errorf("expected ErrFirstStep, got %v", err)
	}
}

func TestState_Progress(t *testing.T) {
	if p := Initial().Progress(); p != 0 {
		t.Errorf("welcome progress = %d", p)
	}
	s := walkQuestionnaire(t, completeAnswers[:3])
	if p := s.Progress(); p != 50 {
		t.Errorf("step 4 progress = %d, want 50", p)
	}
}

func TestState_TransitionsAreImmutable(t *testing.T) {
	s, _ := Initial().Start()
	answered, err := s.Answer("sim")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if _, ok := s.Answers.Get(FieldHasAccount); ok {
		t.Error("Answer modified the receiver's answers")
	}
	if _, err := answered.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if answered.Step != 1 {
		t.Errorf("Next modified the receiver: step=%d", answered.Step)
	}
}

func TestState_CheckoutAndPlanSelection(t *testing.T) {
	catalog := pricing.DefaultCatalog("")
	s := walkQuestionnaire(t, completeAnswers)

	s, err := s.Checkout()
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if s.Stage != StagePricing {
		t.Fatalf("stage = %s, want pricing", s.Stage)
	}

	if _, err := s.SelectPlan(catalog, "weekly"); !errors.Is(err, pricing.ErrUnknownPlan) {
		t.Errorf("expected ErrUnknownPlan, got %v", err)
	}

	s, err = s.SelectPlan(catalog, pricing.Annual)
	if err != nil {
		t.Fatalf("SelectPlan: %v", err)
	}
	if s.Stage != StagePayment || s.Plan != pricing.Annual {
		t.Errorf("after SelectPlan: stage=%s plan=%s", s.Stage, s.Plan)
	}

	s, err = s.ReturnToPricing()
	if err != nil {
		t.Fatalf("ReturnToPricing: %v", err)
	}
	if s.Stage != StagePricing || s.Plan != "" {
		t.Errorf("after ReturnToPricing: stage=%s plan=%s", s.Stage, s.Plan)
	}
}

func TestState_CheckoutRequiresProfile(t *testing.T) {
	s := State{Stage: StageResults, Answers: NewAnswers(map[FieldKey]string{FieldAge: "30"})}
	if _, err := s.Checkout(); !errors.Is(err, ErrPlanUnavailable) {
		t.Errorf("expected ErrPlanUnavailable, got %v", err)
	}
}

func TestState_InvalidTransitions(t *testing.T) {
	catalog := pricing.DefaultCatalog("")
	cases := []struct {
		name string
		from State
		t    Transition
	}{
		{"next from welcome", Initial(), State.Next},
		{"back from welcome", Initial(), State.Back},
		{"checkout from welcome", Initial(), State.Checkout},
		{"answer from results", State{Stage: StageResults}, func(s State) (State, error) { return s.Answer("x") }},
		{"select plan from results", State{Stage: StageResults}, func(s State) (State, error) {
			return s.SelectPlan(catalog, pricing.Monthly)
		}},
		{"return to pricing from pricing", State{Stage: StagePricing}, State.ReturnToPricing},
		{"start from payment", State{Stage: StagePayment}, State.Start},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			next, err := tc.t(tc.from)
			if !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("expected ErrInvalidTransition, got %v", err)
			}
			if next.Stage != tc.from.Stage {
				t.Errorf("stage changed to %s on failed transition", next.Stage)
			}
		})
	}
}

func TestAnswers_ProfileUndefinedWithoutNumbers(t *testing.T) {
	cases := []map[FieldKey]string{
		{},
		{FieldAge: "30", FieldWeight: "70"},
		{FieldAge: "30", FieldHeight: "170"},
		{FieldWeight: "70", FieldHeight: "170"},
		{FieldAge: "abc", FieldWeight: "70", FieldHeight: "170"},
		{FieldAge: "", FieldWeight: "70", FieldHeight: "170"},
	}
	for _, values := range cases {
		if _, ok := NewAnswers(values).Profile(); ok {
			t.Errorf("Profile() defined for %v", values)
		}
	}
}

func TestAnswers_Profile(t *testing.T) {
	a := NewAnswers(map[FieldKey]string{
		FieldSex:      "female",
		FieldAge:      "30.9",
		FieldWeight:   "60,5",
		FieldHeight:   "165",
		FieldActivity: "light",
		FieldGoal:     "maintain",
	})
	p, ok := a.Profile()
	if !ok {
		t.Fatal("Profile() undefined")
	}
	want := nutrition.Profile{
		Sex:      nutrition.Female,
		AgeYears: 30,
		WeightKg: 60.5,
		HeightCm: 165,
		Activity: nutrition.Light,
		Goal:     nutrition.Maintain,
	}
	if p != want {
		t.Errorf("Profile() = %+v, want %+v", p, want)
	}
}

func TestAnswers_NewAnswersCopiesInput(t *testing.T) {
	values := map[FieldKey]string{FieldAge: "30"}
	a := NewAnswers(values)
	values[FieldAge] = "99"
	if v, _ := a.Get(FieldAge); v != "30" {
		t.Errorf("answers aliased caller map: age=%q", v)
	}
	out := a.Values()
	out[FieldAge] = "1"
	if v, _ := a.Get(FieldAge); v != "30" {
		t.Errorf("Values() exposed internal map: age=%q", v)
	}
}

func TestSession_ApplyRecordsEvents(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewSession("s1", Client{Browser: "Firefox"}, now, time.Hour)

	events := s.PopEvents()
	if len(events) != 1 || events[0].Type() != EventSessionCreated {
		t.Fatalf("unexpected creation events %v", events)
	}

	later := now.Add(10 * time.Minute)
	if err := s.Apply(State.Start, later, time.Hour); err != nil {
		t.Fatalf("Apply(Start): %v", err)
	}
	if !s.ExpiresAt.Equal(later.Add(time.Hour)) {
		t.Errorf("ExpiresAt = %v, want sliding expiry", s.ExpiresAt)
	}

	events = s.PopEvents()
	if len(events) != 1 || events[0].Type() != EventStageChanged {
		t.Fatalf("unexpected events after Start %v", events)
	}
	changed := events[0].(StageChangedEvent)
	if changed.From != StageWelcome || changed.To != StageQuestionnaire {
		t.Errorf("stage change %s -> %s", changed.From, changed.To)
	}

	answer := func(st State) (State, error) { return st.Answer("sim") }
	if err := s.Apply(answer, later, time.Hour); err != nil {
		t.Fatalf("Apply(Answer): %v", err)
	}
	if events := s.PopEvents(); len(events) != 0 {
		t.Errorf("answer without stage change produced events %v", events)
	}
}

func TestSession_CompletionEvent(t *testing.T) {
	now := time.Now()
	s := NewSession("s1", Client{}, now, time.Hour)
	s.State = walkQuestionnaire(t, completeAnswers[:7])
	s.PopEvents()

	if err := s.Apply(func(st State) (State, error) { return st.Answer("joao@example.com") }, now, time.Hour); err != nil {
		t.Fatalf("Apply(Answer): %v", err)
	}
	if err := s.Apply(State.Next, now, time.Hour); err != nil {
		t.Fatalf("Apply(Next): %v", err)
	}

	events := s.PopEvents()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %v", events)
	}
	done, ok := events[1].(QuestionnaireCompletedEvent)
	if !ok {
		t.Fatalf("second event is %T", events[1])
	}
	if done.Email != "joao@example.com" || done.Profile.WeightKg != 75 {
		t.Errorf("unexpected completion event %+v", done)
	}
}

func TestSession_Expired(t *testing.T) {
	now := time.Now()
	s := NewSession("s1", Client{}, now, time.Minute)
	if s.Expired(now) {
		t.Error("fresh session reported expired")
	}
	if err := s.Apply(State.Start, now.Add(time.Minute), time.Minute); !errors.Is(err, ErrSessionExpired) {
		t.Errorf("expected ErrSessionExpired, got %v", err)
	}
	if s.State.Stage != StageWelcome {
		t.Errorf("expired session changed stage to %s", s.State.Stage)
	}
}
