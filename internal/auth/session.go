package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/terrawatch/terrawatch/internal/config"
)

// ErrSignedOut is returned when a user-scoped operation runs without a user
var ErrSignedOut = errors.New("please sign in to continue")

// Session is the signed-in identity used to scope backend calls
type Session struct {
	UserID    string
	Email     string
	Token     string
	ExpiresAt time.Time
}

// SignedIn reports whether the session carries a usable user id
func (s *Session) SignedIn() bool {
	if s == nil || s.UserID == "" {
		return false
	}
	return s.ExpiresAt.IsZero() || time.Now().Before(s.ExpiresAt)
}

// FromToken builds a session from a JWT. With a secret the HS256 signature
// and expiry are verified; without one the claims are read as is, since
// tokens from the identity provider are signed with keys we do not hold.
func FromToken(token, secret string) (*Session, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return nil, errors.New("empty token")
	}

	claims := jwt.MapClaims{}
	if secret != "" {
		parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil {
			return nil, fmt.Errorf("invalid token: %w", err)
		}
		if !parsed.Valid {
			return nil, errors.New("invalid token")
		}
	} else {
		if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
			return nil, fmt.Errorf("malformed token: %w", err)
		}
	}

	session := &Session{
		UserID: subject(claims),
		Token:  token,
	}
	session.Email, _ = claims["email"].(string)
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		session.ExpiresAt = exp.Time
	}

	if session.UserID == "" {
		return nil, errors.New("token carries no user id")
	}
	return session, nil
}

// subject reads the user id, preferring the standard sub claim
func subject(claims jwt.MapClaims) string {
	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		return sub
	}
	for _, key := range []string{"userID", "user_id"} {
		if v, ok := claims[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// Resolve picks the identity from configuration: a token first, then a
// plain user id. A configuration with neither yields a signed-out session.
func Resolve(cfg config.AuthConfig) (*Session, error) {
	if cfg.Token != "" {
		return FromToken(cfg.Token, cfg.JWTSecret)
	}
	return &Session{UserID: strings.TrimSpace(cfg.UserID)}, nil
}

// Require returns the user id of a signed-in session or ErrSignedOut
func Require(s *Session) (string, error) {
	if !s.SignedIn() {
		return "", ErrSignedOut
	}
	return s.UserID, nil
}

// GenerateToken issues an HS256 session token for userID
func GenerateToken(userID, email, secret string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("empty userID passed to GenerateToken")
	}
	if secret == "" {
		return "", errors.New("jwt secret is empty")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
	}
	if email != "" {
		claims["email"] = email
	}
	if ttl > 0 {
		claims["exp"] = now.Add(ttl).Unix()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
