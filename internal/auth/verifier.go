// Package auth verifies the caller's session from request headers.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ErrUnauthenticated is returned when no valid session accompanies the
// request.
var ErrUnauthenticated = errors.New("unauthenticated")

const sessionCookie = "session"

// Session identifies the authenticated caller.
type Session struct {
	UserID string
}

// Claims are the JWT claims issued by the auth provider.
type Claims struct {
	jwt.RegisteredClaims
}

// Verifier validates session tokens minted by the auth provider.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a Verifier for the shared HMAC secret.
func NewVerifier(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	return &Verifier{secret: []byte(secret)}, nil
}

// Verify extracts the session token from the Authorization header (or the
// session cookie) and validates it. Absence and invalidity both report
// ErrUnauthenticated.
func (v *Verifier) Verify(r *http.Request) (Session, error) {
	token := bearerToken(r)
	if token == "" {
		if cookie, err := r.Cookie(sessionCookie); err == nil {
			token = cookie.Value
		}
	}
	if token == "" {
		return Session{}, ErrUnauthenticated
	}
	return v.VerifyToken(token)
}

// VerifyToken validates a raw token string and returns the session.
func (v *Verifier) VerifyToken(tokenString string) (Session, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return Session{}, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return Session{}, ErrUnauthenticated
	}
	return Session{UserID: claims.Subject}, nil
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
