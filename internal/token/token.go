// Package token verifies and issues the console's stateless signed
// credentials. Validity is decided purely by signature and expiry at
// verification time; there is no server-side session table.
package token

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Typed verification failures. All map to 401 at the HTTP boundary but
// carry distinct reason codes.
var (
	// ErrMissing indicates no credential was supplied.
	ErrMissing = errors.New("token: missing")
	// ErrExpired indicates a well-signed token past its expiry.
	ErrExpired = errors.New("token: expired")
	// ErrInvalid indicates a signature or claim failure.
	ErrInvalid = errors.New("token: invalid")
	// ErrMalformed indicates the credential could not be parsed at all.
	ErrMalformed = errors.New("token: malformed")
)

// Identity is the claim extracted from a verified token. It carries
// only the user id; role and attributes are resolved per request from
// the user store, never trusted from the token.
type Identity struct {
	UserID int64
}

// Claims is the only supported claims shape for console tokens.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64 `json:"uid"`
}

// Verifier validates inbound credentials against a shared HMAC secret.
// Verification is a pure function of the token and the key material.
type Verifier struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewVerifier constructs a Verifier for the given key and issuer.
func NewVerifier(secret, issuer string, ttl time.Duration) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: issuer, ttl: ttl}
}

// Verify validates the raw credential and extracts its identity claim.
// Exactly one of {missing, expired, invalid, malformed, valid} holds
// for any input, and the outcome is deterministic for a fixed token
// and key.
func (v *Verifier) Verify(raw string) (Identity, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Identity{}, ErrMissing
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, v.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenMalformed):
		return Identity{}, ErrMalformed
	case errors.Is(err, jwt.ErrTokenExpired):
		return Identity{}, ErrExpired
	default:
		return Identity{}, ErrInvalid
	}
	if claims.UserID <= 0 {
		return Identity{}, ErrInvalid
	}
	return Identity{UserID: claims.UserID}, nil
}

// Issue signs a credential for the identity using the configured TTL.
func (v *Verifier) Issue(identity Identity) (string, time.Time, error) {
	return v.IssueWithTTL(identity, v.ttl)
}

// IssueWithTTL signs a credential with an explicit lifetime.
func (v *Verifier) IssueWithTTL(identity Identity, ttl time.Duration) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    v.issuer,
			Subject:   strconv.FormatInt(identity.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
		UserID: identity.UserID,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// TTL exposes the configured token lifetime.
func (v *Verifier) TTL() time.Duration {
	return v.ttl
}

func (v *Verifier) keyFunc(t *jwt.Token) (any, error) {
	return v.secret, nil
}
