// Package auth turns a bearer token into the id of the signed-in user.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/golang-jwt/jwt/v4"

	"task-calendar/app/store"
)

// CookieName is the cookie a token may be sent in instead of the Authorization header.
const CookieName = "jwt"

// Verifier resolves a token to a user id.
type Verifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// TokenFromRequest reads a bearer token from the Authorization header, falling
// back to the jwt cookie.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}

func noIdentity(format string, args ...any) error {
	return fmt.Errorf("%w: %s", store.ErrNoIdentity, fmt.Sprintf(format, args...))
}

// JWTVerifier issues and checks HS256 tokens whose subject is the user id.
type JWTVerifier struct {
	secret []byte
	now    func() time.Time
}

// NewJWTVerifier creates a verifier signing with secret.
func NewJWTVerifier(secret string) (*JWTVerifier, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	return &JWTVerifier{secret: []byte(secret), now: time.Now}, nil
}

// Issue signs a token for userID that expires after ttl.
func (v *JWTVerifier) Issue(userID string, ttl time.Duration) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", noIdentity("empty user id")
	}
	now := v.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// Verify checks the signature and expiry and returns the subject.
func (v *JWTVerifier) Verify(_ context.Context, token string) (string, error) {
	if token == "" {
		return "", noIdentity("missing token")
	}

	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return "", noIdentity("invalid or expired token: %v", err)
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", noIdentity("token has no subject")
	}
	return claims.Subject, nil
}

type idTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// FirebaseVerifier accepts Firebase ID tokens; the user id is the Firebase uid.
type FirebaseVerifier struct {
	client idTokenVerifier
}

// NewFirebaseVerifier wraps a Firebase auth client.
func NewFirebaseVerifier(client *fbauth.Client) *FirebaseVerifier {
	return &FirebaseVerifier{client: client}
}

// Verify checks the ID token with Firebase.
func (v *FirebaseVerifier) Verify(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", noIdentity("missing token")
	}
	tok, err := v.client.VerifyIDToken(ctx, token)
	if err != nil {
		return "", noIdentity("invalid id token: %v", err)
	}
	if tok.UID == "" {
		return "", noIdentity("id token has no uid")
	}
	return tok.UID, nil
}
