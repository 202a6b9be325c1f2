package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/storeops/access-engine/config"
)

// lastPageClaims is the payload of the last-page cookie: a single path, so the
// cookie holds a history of exactly one entry and each write overwrites the
// previous one.
type lastPageClaims struct {
	Page string `json:"page"`
	jwt.RegisteredClaims
}

// LastPageCookie records the last page a session was allowed onto, in a
// signed cookie. The gate redirects denied requests there instead of bouncing
// the user to a page they may also be denied from.
type LastPageCookie struct {
	secret     []byte
	ttl        time.Duration
	cookieName string
	secure     bool
}

// NewLastPageCookie creates a last-page cookie manager
func NewLastPageCookie(cfg config.GateConfig, secure bool) *LastPageCookie {
	return &LastPageCookie{
		secret:     []byte(cfg.LastPageSecret),
		ttl:        cfg.LastPageTTL,
		cookieName: cfg.LastPageCookieName,
		secure:     secure,
	}
}

// Record overwrites the cookie with the page that just passed the gate
func (c *LastPageCookie) Record(w http.ResponseWriter, page string) {
	if !strings.HasPrefix(page, "/") {
		return
	}

	now := time.Now()
	claims := &lastPageClaims{
		Page: page,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     c.cookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(c.ttl.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Read returns the recorded page, or "" when the cookie is missing, expired,
// tampered with, or doesn't hold an absolute path.
func (c *LastPageCookie) Read(r *http.Request) string {
	cookie, err := r.Cookie(c.cookieName)
	if err != nil {
		return ""
	}

	claims := &lastPageClaims{}
	token, err := jwt.ParseWithClaims(cookie.Value, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return c.secret, nil
	})
	if err != nil || !token.Valid {
		return ""
	}
	// a forged path would let an attacker steer redirects off-site
	if !strings.HasPrefix(claims.Page, "/") || strings.HasPrefix(claims.Page, "//") {
		return ""
	}
	return claims.Page
}
