package api

import (
	"errors"
	"fmt"
	funnelapp "github.com/burenotti/go_health_funnel/internal/app/funnel"
	"github.com/burenotti/go_health_funnel/internal/domain/funnel"
	"github.com/burenotti/go_health_funnel/internal/domain/nutrition"
	"github.com/burenotti/go_health_funnel/internal/domain/pricing"
	"github.com/labstack/echo/v4"
	"net/http"
)

type JsonErrorModel struct {
	Message string `json:"message"`
}

func JsonError(c echo.Context, status int, content any) error {
	data := &JsonErrorModel{Message: fmt.Sprintf("%v", content)}
	return c.JSON(status, data)
}

var errorStatuses = []struct {
	err     error
	status  int
	message string
}{
	{funnel.ErrSessionNotFound, http.StatusNotFound, "session not found"},
	{funnel.ErrSessionExpired, http.StatusGone, "session expired"},
	{funnel.ErrInvalidAnswer, http.StatusUnprocessableEntity, ""},
	{funnel.ErrAnswerRequired, http.StatusUnprocessableEntity, "current question is not answered"},
	{funnel.ErrFirstStep, http.StatusUnprocessableEntity, "already at the first question"},
	{funnel.ErrPlanUnavailable, http.StatusUnprocessableEntity, "age, weight and height are required to build the plan"},
	{funnel.ErrInvalidTransition, http.StatusConflict, ""},
	{funnelapp.ErrResultsNotReady, http.StatusConflict, "questionnaire is not finished"},
	{funnelapp.ErrNoPlanSelected, http.StatusConflict, "no plan selected"},
	{pricing.ErrUnknownPlan, http.StatusUnprocessableEntity, "unknown plan"},
	{nutrition.ErrUnknownSex, http.StatusUnprocessableEntity, ""},
	{nutrition.ErrUnknownActivity, http.StatusUnprocessableEntity, ""},
	{nutrition.ErrUnknownGoal, http.StatusUnprocessableEntity, ""},
}

// domainError maps service errors to a response. Entries with an empty
// message expose the innermost wrapped error text.
func (s *Server) domainError(c echo.Context, err error) error {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			if e.message == "" {
				return JsonError(c, e.status, innermost(err, e.err))
			}
			return JsonError(c, e.status, e.message)
		}
	}
	s.logger.Error("request failed", "path", c.Path(), "error", err)
	return JsonError(c, http.StatusInternalServerError, "internal error")
}

// innermost returns the text of the first error in the tree that wraps target,
// skipping the rollback wrappers added by the unit of work.
func innermost(err, target error) string {
	msg := target.Error()
	var walk func(error)
	walk = func(e error) {
		if e == nil || e == target || !errors.Is(e, target) {
			return
		}
		msg = e.Error()
		switch x := e.(type) {
		case interface{ Unwrap() []error }:
			for _, inner := range x.Unwrap() {
				walk(inner)
			}
		case interface{ Unwrap() error }:
			walk(x.Unwrap())
		}
	}
	walk(err)
	return msg
}
