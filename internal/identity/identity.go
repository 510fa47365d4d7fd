// Package identity maps bearer tokens issued by the external identity
// provider to forum viewers.
package identity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/MyNameIsWhaaat/peerthread/internal/comment/model"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is the token payload shared with the identity provider.
type Claims struct {
	UserID   string `json:"uid"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Verified bool   `json:"verified"`
	jwtlib.RegisteredClaims
}

type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Sign issues a token for v. The forum never logs anyone in; this exists
// for local tooling and tests.
func (k *Verifier) Sign(v model.Viewer, ttl time.Duration) (string, error) {
	claims := Claims{
		UserID:   v.ID,
		Username: v.Username,
		Role:     string(v.Role),
		Verified: v.Verified,
		RegisteredClaims: jwtlib.RegisteredClaims{
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwtlib.NewNumericDate(time.Now()),
		},
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(k.secret)
}

// Parse validates tokenStr and returns the viewer it names.
func (k *Verifier) Parse(tokenStr string) (model.Viewer, error) {
	token, err := jwtlib.ParseWithClaims(tokenStr, &Claims{}, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return k.secret, nil
	})
	if err != nil {
		return model.Viewer{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || strings.TrimSpace(claims.UserID) == "" {
		return model.Viewer{}, ErrInvalidToken
	}

	role := model.Role(claims.Role)
	if role == "" {
		role = model.RoleMember
	}
	return model.Viewer{
		ID:       claims.UserID,
		Username: claims.Username,
		Role:     role,
		Verified: claims.Verified,
	}, nil
}

// FromHeader extracts the token from an Authorization header value.
func FromHeader(h string) (string, bool) {
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(h[len(prefix):]), true
}
