package utils

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessToken is a signed HS256 JWT plus its expiry. The token carries the
// record id in the subject claim and the account role, which the middleware
// extracts back into the request context on protected routes.
type AccessToken struct {
	Token string
	Exp   time.Time
}

// NewAccessToken builds and signs an access token for a user record. The
// claims are subject (record id), role, expiration and issued-at.
func NewAccessToken(secret, userID, role string, ttlMin int) (AccessToken, error) {
	exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"exp":  exp.Unix(),
		"iat":  time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}
