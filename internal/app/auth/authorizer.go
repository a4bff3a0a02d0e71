package auth

import (
	"errors"
	"fmt"
	"github.com/golang-jwt/jwt"
	"time"
)

var (
	ErrSessionTokenInvalid = errors.New("invalid session token")
	ErrSessionTokenExpired = fmt.Errorf("%w: token expired", ErrSessionTokenInvalid)
)

// Authorizer issues the signed tokens that identify an anonymous funnel
// session. There are no accounts; the token only carries the session id.
type Authorizer struct {
	Secret string
	Issuer string
	now    func() time.Time
}

func NewAuthorizer(secret, issuer string) *Authorizer {
	return &Authorizer{
		Secret: secret,
		Issuer: issuer,
		now:    time.Now,
	}
}

func (a *Authorizer) GenerateSessionToken(sessionID string, expiresAt time.Time) (string, error) {
	now := a.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
		Subject:   sessionID,
		Issuer:    a.Issuer,
		IssuedAt:  now.Unix(),
		ExpiresAt: expiresAt.Unix(),
	})
	return token.SignedString([]byte(a.Secret))
}

type SessionTokenData struct {
	SessionID string
	ExpiresAt time.Time
}

func (a *Authorizer) ValidateSessionToken(sessionToken string) (*SessionTokenData, error) {
	claims := &jwt.StandardClaims{}
	_, err := jwt.ParseWithClaims(sessionToken, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(a.Secret), nil
	})

	if err != nil {
		var validationErr *jwt.ValidationError
		if errors.As(err, &validationErr) && validationErr.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, ErrSessionTokenExpired
		}
		return nil, ErrSessionTokenInvalid
	}

	if claims.Subject == "" {
		return nil, ErrSessionTokenInvalid
	}

	return &SessionTokenData{
		SessionID: claims.Subject,
		ExpiresAt: time.Unix(claims.ExpiresAt, 0).UTC(),
	}, nil
}
