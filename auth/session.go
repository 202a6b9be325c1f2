package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/storeops/access-engine/config"
	"github.com/storeops/access-engine/models"
	"github.com/storeops/access-engine/services"
)

// SessionClaims is the JWT payload of a console session. It carries just
// enough identity for the request gate's coarse check; anything finer is
// fetched fresh per request.
type SessionClaims struct {
	EmployeeID   uuid.UUID   `json:"employee_id"`
	Email        string      `json:"email"`
	Role         models.Role `json:"role"`
	PermissionID *uuid.UUID  `json:"permission_id,omitempty"`
	jwt.RegisteredClaims
}

// SessionManager issues and verifies signed session tokens and manages the
// cookie that carries them
type SessionManager struct {
	secret     []byte
	ttl        time.Duration
	cookieName string
	secure     bool
}

// NewSessionManager creates a new SessionManager. secure controls the
// cookie's Secure flag and should follow whether the server terminates TLS.
func NewSessionManager(cfg config.AuthConfig, secure bool) *SessionManager {
	return &SessionManager{
		secret:     []byte(cfg.SessionSecret),
		ttl:        cfg.SessionTTL,
		cookieName: cfg.CookieName,
		secure:     secure,
	}
}

// Issue signs a session token for the employee
func (m *SessionManager) Issue(employee *models.Employee) (string, error) {
	now := time.Now()
	claims := &SessionClaims{
		EmployeeID:   employee.ID,
		Email:        employee.Email,
		Role:         employee.Role,
		PermissionID: employee.PermissionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   employee.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", services.WrapInternal("failed to sign session token", err)
	}
	return signed, nil
}

// Verify parses and validates a session token
func (m *SessionManager) Verify(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, services.ErrTokenExpired
		}
		return nil, services.ErrInvalidToken
	}
	if !token.Valid {
		return nil, services.ErrInvalidToken
	}
	if !claims.Role.Valid() {
		return nil, services.ErrInvalidToken
	}
	return claims, nil
}

// Cookie wraps a signed token in the session cookie
func (m *SessionManager) Cookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearCookie returns an expired session cookie, used on logout
func (m *SessionManager) ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// FromRequest extracts and verifies the session from the request's cookie
func (m *SessionManager) FromRequest(r *http.Request) (*SessionClaims, error) {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil {
		return nil, services.ErrUnauthorized
	}
	return m.Verify(cookie.Value)
}
