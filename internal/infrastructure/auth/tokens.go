// Package auth issues and verifies the HS256 bearer tokens the HTTP API
// accepts. The subject claim carries the directory user id.
package auth

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"rncflow/internal/errs"
)

const DefaultTTL = 24 * time.Hour

type Tokens struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewTokens(secret string, issuer string) (*Tokens, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("auth.jwt_secret is required")
	}
	return &Tokens{
		secret: []byte(secret),
		issuer: strings.TrimSpace(issuer),
		now:    time.Now,
	}, nil
}

func (t *Tokens) Issue(userID uint64, ttl time.Duration) (string, error) {
	if userID == 0 {
		return "", errors.New("user id is required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := t.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(userID, 10),
		Issuer:    t.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", errs.Wrap(err, "sign token")
	}
	return signed, nil
}

// Verify returns the user id of a valid token. Every failure is
// Unauthorized.
func (t *Tokens) Verify(raw string) (uint64, error) {
	const op = "auth.verify"
	raw = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "Bearer "))
	if raw == "" {
		return 0, errs.New(errs.KindUnauthorized, op, "bearer token is required")
	}

	var claims jwt.RegisteredClaims
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	token, err := parser.ParseWithClaims(raw, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errs.Validationf(op, "unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		e := errs.New(errs.KindUnauthorized, op, "invalid token")
		e.Err = err
		return 0, e
	}
	if !claims.VerifyExpiresAt(t.now(), true) {
		return 0, errs.New(errs.KindUnauthorized, op, "token expired")
	}
	if t.issuer != "" && !claims.VerifyIssuer(t.issuer, true) {
		return 0, errs.New(errs.KindUnauthorized, op, "unexpected issuer %q", claims.Issuer)
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, errs.New(errs.KindUnauthorized, op, "invalid subject %q", claims.Subject)
	}
	return id, nil
}
