package emulator

import (
	"net/http"
	stdsync "sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Roles, least to most privileged.
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

const tokenTTL = 12 * time.Hour

type account struct {
	ID       string
	Email    string
	Password string
	Role     string
}

type userTable struct {
	mu      stdsync.RWMutex
	byEmail map[string]account
}

func newUserTable() *userTable {
	return &userTable{byEmail: make(map[string]account)}
}

func (u *userTable) add(email, password, role string) account {
	u.mu.Lock()
	defer u.mu.Unlock()
	acc := account{ID: uuid.NewString(), Email: email, Password: password, Role: role}
	u.byEmail[email] = acc
	return acc
}

func (u *userTable) authenticate(email, password string) (account, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	acc, ok := u.byEmail[email]
	if !ok || acc.Password != password {
		return account{}, false
	}
	return acc, true
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (s *server) token(ctx echo.Context) error {
	var req loginRequest
	if err := ctx.Bind(&req); err != nil {
		return errAuthenticationFailed
	}
	acc, ok := s.users.authenticate(req.Email, req.Password)
	if !ok {
		return errAuthenticationFailed
	}
	tok, err := s.mintToken(acc)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, tokenResponse{
		AccessToken: tok,
		TokenType:   "bearer",
		ExpiresIn:   int64(tokenTTL.Seconds()),
	})
}

func (s *server) mintToken(acc account) (string, error) {
	claims := jwt.MapClaims{
		"sub":   acc.ID,
		"email": acc.Email,
		"role":  acc.Role,
		"exp":   time.Now().Add(tokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.opts.JWTSecret))
}

func (s *server) parseToken(raw string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})).
		ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
			return []byte(s.opts.JWTSecret), nil
		})
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// requireAPIKey checks the project key sent on every request.
func (s *server) requireAPIKey(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		key := ctx.Request().Header.Get("apikey")
		if key == "" {
			key = ctx.QueryParam("apikey")
		}
		if key != s.opts.AnonKey {
			return errMissingAPIKey
		}
		return next(ctx)
	}
}

// requireWriter rejects writes from anonymous callers and from the student
// role. Students read; staff write.
func (s *server) requireWriter(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		auth := ctx.Request().Header.Get(echo.HeaderAuthorization)
		const prefix = "Bearer "
		if len(auth) <= len(prefix) || auth[:len(prefix)] != prefix {
			return errUnauthorized
		}
		claims, err := s.parseToken(auth[len(prefix):])
		if err != nil {
			return errUnauthorized
		}
		if role, _ := claims["role"].(string); role == RoleStudent || role == "" {
			return errHTTPForbidden
		}
		return next(ctx)
	}
}
