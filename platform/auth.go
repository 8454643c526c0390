package platform

import (
	"context"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"github.com/shulehq/shule/core"
)

// Session is the current-user identity decoded from the platform's access
// token. Decoded without verification, for display and request attachment
// only: authorization is evaluated by the platform on every call.
type Session struct {
	AccessToken string
	UserID      string
	Email       string
	Role        string
	ExpiresAt   time.Time
}

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
	ExpiresIn   int64  `json:"expires_in,omitempty"`
}

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var out tokenResponse
	payload := loginPayload{Email: core.CleanString(email, true /* lower */), Password: password}
	if err := c.send(ctx, http.MethodPost, "/auth/v1/token", nil, payload, &out); err != nil {
		return nil, err
	}
	return SessionFromToken(out.AccessToken)
}

// SessionFromToken decodes identity claims from an access token.
func SessionFromToken(token string) (*Session, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, errors.Wrap(err, "platform: decoding access token")
	}
	s := &Session{AccessToken: token}
	if sub, err := claims.GetSubject(); err == nil {
		s.UserID = sub
	}
	if v, ok := claims["email"].(string); ok {
		s.Email = v
	}
	if v, ok := claims["role"].(string); ok {
		s.Role = v
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		s.ExpiresAt = exp.Time
	}
	return s, nil
}

func (s *Session) Expired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}

// Credentials attaches the session token on top of the project anon key.
func (s *Session) Credentials(anonKey string) Credentials {
	return StaticCredentials{Key: anonKey, Token: s.AccessToken}
}
