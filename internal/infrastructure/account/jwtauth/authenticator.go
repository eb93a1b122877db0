// Package jwtauth issues and verifies HS256 access tokens. Verification
// resolves the token back to the stored user so revoked or deactivated
// accounts are cut off immediately, not at token expiry.
package jwtauth

import (
	"context"
	"strconv"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/golang-jwt/jwt/v5"

	"github.com/peladahub/pelada-api/internal/domain/user"
)

type accessClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type Authenticator struct {
	secret   []byte
	ttl      time.Duration
	userRepo user.Repository
	now      func() time.Time
}

func New(secret string, ttl time.Duration, userRepo user.Repository) *Authenticator {
	return &Authenticator{
		secret:   []byte(secret),
		ttl:      ttl,
		userRepo: userRepo,
		now:      time.Now,
	}
}

// Issue mints an access token for the user.
func (a *Authenticator) Issue(u user.User) (string, time.Time, error) {
	now := a.now().UTC()
	expiresAt := now.Add(a.ttl)

	claims := accessClaims{
		Role: string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(u.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, crerr.Wrap(err, "sign access token")
	}
	return signed, expiresAt, nil
}

// VerifyAccessToken validates the token signature and expiry, then loads the
// account behind it. Any failure is an authentication failure to the caller.
func (a *Authenticator) VerifyAccessToken(ctx context.Context, tokenString string) (user.Principal, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &accessClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, crerr.Newf("unexpected signing method %q", t.Method.Alg())
		}
		return a.secret, nil
	})
	if err != nil {
		return user.Principal{}, crerr.Wrap(err, "parse access token")
	}

	claims, ok := parsed.Claims.(*accessClaims)
	if !ok || !parsed.Valid {
		return user.Principal{}, crerr.New("invalid access token claims")
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return user.Principal{}, crerr.Wrap(err, "parse token subject")
	}

	u, exists, err := a.userRepo.GetByID(ctx, userID)
	if err != nil {
		return user.Principal{}, crerr.Wrap(err, "load token user")
	}
	if !exists || !u.IsActive {
		return user.Principal{}, crerr.New("unknown or inactive account")
	}

	return user.Principal{UserID: u.ID, Role: u.Role, GroupID: u.GroupID}, nil
}
