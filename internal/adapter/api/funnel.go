package api

import (
	"context"
	funnelapp "github.com/burenotti/go_health_funnel/internal/app/funnel"
	"github.com/burenotti/go_health_funnel/internal/app/unitofwork"
	"github.com/burenotti/go_health_funnel/internal/domain/funnel"
	"github.com/burenotti/go_health_funnel/internal/domain/pricing"
	"github.com/labstack/echo/v4"
	"github.com/mileusna/useragent"
	"github.com/samber/lo"
	"net/http"
	"time"
)

func (s *Server) MountFunnel() {
	s.handler.POST("/funnel/sessions", s.CreateSession)

	g := s.handler.Group("/funnel", SessionRequired(s.authorizer))
	g.GET("", s.GetFunnel)
	g.POST("/start", s.transition(s.funnelService.Start))
	g.POST("/next", s.transition(s.funnelService.Next))
	g.POST("/back", s.transition(s.funnelService.Back))
	g.POST("/checkout", s.transition(s.funnelService.Checkout))
	g.PUT("/answer", s.AnswerQuestion)
	g.GET("/results", s.GetResults)
	g.POST("/plan", s.SelectPlan)
	g.GET("/payment", s.GetPayment)
	g.POST("/payment/back", s.transition(s.funnelService.ReturnToPricing))
}

func (s *Server) getFunnelUoW() *funnelapp.UoW {
	return unitofwork.New[*funnelapp.AtomicContext](
		s.db,
		funnelapp.NewAtomicContext(s.sessions),
		s.msgBus,
		s.logger,
	)
}

type optionView struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Hint  string `json:"hint,omitempty"`
}

type questionView struct {
	Key         funnel.FieldKey  `json:"key"`
	Kind        funnel.FieldKind `json:"kind"`
	Prompt      string           `json:"prompt"`
	Placeholder string           `json:"placeholder,omitempty"`
	Options     []optionView     `json:"options,omitempty"`
	Answer      string           `json:"answer,omitempty"`
	CanAdvance  bool             `json:"can_advance"`
}

type sessionView struct {
	SessionID  string            `json:"session_id"`
	Token      string            `json:"token"`
	Stage      funnel.Stage      `json:"stage"`
	Step       int               `json:"step,omitempty"`
	TotalSteps int               `json:"total_steps"`
	Progress   int               `json:"progress"`
	Question   *questionView     `json:"question,omitempty"`
	Answers    map[string]string `json:"answers"`
	Plan       pricing.PlanID    `json:"plan,omitempty"`
	ExpiresAt  time.Time         `json:"expires_at"`
}

// respondSession renders the session and a token that expires together with
// it, so every response extends the client's credentials.
func (s *Server) respondSession(c echo.Context, status int, sess *funnel.Session) error {
	token, err := s.authorizer.GenerateSessionToken(sess.SessionID, sess.ExpiresAt)
	if err != nil {
		return s.domainError(c, err)
	}

	st := sess.State
	view := sessionView{
		SessionID:  sess.SessionID,
		Token:      token,
		Stage:      st.Stage,
		Step:       st.Step,
		TotalSteps: funnel.TotalSteps(),
		Progress:   st.Progress(),
		Answers:    lo.MapKeys(st.Answers.Values(), func(_ string, k funnel.FieldKey) string { return string(k) }),
		Plan:       st.Plan,
		ExpiresAt:  sess.ExpiresAt,
	}
	if f, ok := st.CurrentField(); ok {
		answer, _ := st.Answers.Get(f.Key)
		view.Question = &questionView{
			Key:         f.Key,
			Kind:        f.Kind,
			Prompt:      f.Prompt,
			Placeholder: f.Placeholder,
			Options: lo.Map(f.Options, func(o funnel.Option, _ int) optionView {
				return optionView{Value: o.Value, Label: o.Label, Hint: o.Hint}
			}),
			Answer:     answer,
			CanAdvance: st.CanAdvance(),
		}
	}
	return c.JSON(status, view)
}

func (s *Server) CreateSession(c echo.Context) error {
	agent := useragent.Parse(c.Request().UserAgent())

	ipAddress := c.Request().RemoteAddr
	if c.Request().Header.Get("X-Forwarded-For") != "" {
		ipAddress = c.Request().Header.Get("X-Forwarded-For")
	}

	client := funnel.Client{
		Browser:   agent.Name,
		OS:        agent.OS,
		Device:    agent.Device,
		IPAddress: ipAddress,
	}

	sess, err := s.funnelService.CreateSession(c.Request().Context(), s.getFunnelUoW(), client)
	if err != nil {
		return s.domainError(c, err)
	}
	return s.respondSession(c, http.StatusCreated, sess)
}

func (s *Server) GetFunnel(c echo.Context) error {
	sess, err := s.funnelService.GetSession(c.Request().Context(), s.getFunnelUoW(), sessionID(c))
	if err != nil {
		return s.domainError(c, err)
	}
	return s.respondSession(c, http.StatusOK, sess)
}

type transitionFunc func(ctx context.Context, uow *funnelapp.UoW, sessionID string) (*funnel.Session, error)

func (s *Server) transition(do transitionFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess, err := do(c.Request().Context(), s.getFunnelUoW(), sessionID(c))
		if err != nil {
			return s.domainError(c, err)
		}
		return s.respondSession(c, http.StatusOK, sess)
	}
}

type answerReq struct {
	Value string `json:"value" validate:"required"`
}

func (s *Server) AnswerQuestion(c echo.Context) error {
	var req answerReq
	if err := s.bind(c, &req); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}

	sess, err := s.funnelService.Answer(c.Request().Context(), s.getFunnelUoW(), sessionID(c), req.Value)
	if err != nil {
		return s.domainError(c, err)
	}
	return s.respondSession(c, http.StatusOK, sess)
}

func (s *Server) GetResults(c echo.Context) error {
	plan, err := s.funnelService.Results(c.Request().Context(), s.getFunnelUoW(), sessionID(c))
	if err != nil {
		return s.domainError(c, err)
	}
	return c.JSON(http.StatusOK, toPlanView(plan))
}

type selectPlanReq struct {
	PlanID string `json:"plan_id" validate:"required"`
}

func (s *Server) SelectPlan(c echo.Context) error {
	var req selectPlanReq
	if err := s.bind(c, &req); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}

	sess, err := s.funnelService.SelectPlan(c.Request().Context(), s.getFunnelUoW(), sessionID(c), pricing.PlanID(req.PlanID))
	if err != nil {
		return s.domainError(c, err)
	}
	return s.respondSession(c, http.StatusOK, sess)
}

type pixView struct {
	Key         string `json:"key"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
}

type paymentView struct {
	Plan          catalogPlanView `json:"plan"`
	Pix           pixView         `json:"pix"`
	ContactEmail  string          `json:"contact_email"`
	CustomerEmail string          `json:"customer_email"`
	Steps         []string        `json:"steps"`
	ReceiptMailto string          `json:"receipt_mailto"`
}

func (s *Server) GetPayment(c echo.Context) error {
	instr, err := s.funnelService.PaymentInstructions(c.Request().Context(), s.getFunnelUoW(), sessionID(c))
	if err != nil {
		return s.domainError(c, err)
	}
	return c.JSON(http.StatusOK, paymentView{
		Plan: toCatalogPlanView(instr.Plan),
		Pix: pixView{
			Key:         instr.Pix.Key,
			Amount:      instr.Pix.Amount.BRL(),
			Description: instr.Pix.Description,
		},
		ContactEmail:  instr.ContactEmail,
		CustomerEmail: instr.CustomerEmail,
		Steps:         instr.Steps,
		ReceiptMailto: instr.ReceiptMailto,
	})
}
