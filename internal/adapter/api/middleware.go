package api

import (
	"errors"
	"github.com/burenotti/go_health_funnel/internal/app/auth"
	"github.com/labstack/echo/v4"
	"net/http"
	"strings"
)

const KeyFunnelSession = "funnel_session"

func SessionRequired(authorizer *auth.Authorizer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			parts := strings.Split(header, " ")
			if len(parts) != 2 {
				return JsonError(c, http.StatusUnauthorized, "Invalid Authorization header")
			}
			if parts[0] != "Bearer" {
				return JsonError(c, http.StatusUnauthorized, "Invalid Authorization header")
			}
			data, err := authorizer.ValidateSessionToken(parts[1])
			if err != nil {
				if errors.Is(err, auth.ErrSessionTokenExpired) {
					return JsonError(c, http.StatusGone, "session expired")
				}
				return JsonError(c, http.StatusUnauthorized, err.Error())
			}
			c.Set(KeyFunnelSession, data.SessionID)
			if err := next(c); err != nil {
				c.Error(err)
			}
			return nil
		}
	}
}

func sessionID(c echo.Context) string {
	id, _ := c.Get(KeyFunnelSession).(string)
	return id
}
