package jwtx

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Signer is our interface for anything that can sign credentials.
type Signer interface {
	Alg() string
	Sign(Claims) (string, error)
}

// Verifier validates a credential and gives you back the claims if it's legit.
type Verifier interface {
	Verify(token string) (Claims, error)
}

// HS256 implements both Signer and Verifier over a shared HMAC secret.
// Symmetric signing is fine here: the service both mints and checks its
// own credentials, there is no third-party verification requirement.
type HS256 struct {
	secret []byte
	issuer string
}

// NewHS256 builds an HS256 signer/verifier from the server secret.
// The issuer is enforced on verification when non-empty.
func NewHS256(secret []byte, issuer string) (*HS256, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwtx: empty signing secret")
	}
	return &HS256{secret: secret, issuer: issuer}, nil
}

func (h *HS256) Alg() string { return "HS256" }

// Sign produces a compact serialized JWT for the given claims.
func (h *HS256) Sign(c Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return token.SignedString(h.secret)
}

// Verify parses and validates a compact JWT. The signature, expiry, nbf
// and (when configured) issuer are all checked. Errors are mapped onto
// the package sentinels so callers can branch on failure modes.
func (h *HS256) Verify(raw string) (Claims, error) {
	var claims Claims

	var opts []jwt.ParserOption
	if h.issuer != "" {
		opts = append(opts, jwt.WithIssuer(h.issuer))
	}

	// The algorithm is pinned in the keyfunc rather than via
	// WithValidMethods so a mismatch is distinguishable from a bad
	// signature.
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return h.secret, nil
	}, opts...)
	if err != nil {
		return Claims{}, mapParseError(err)
	}

	return claims, nil
}

func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return ErrNotYetValid
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrAlgMismatch
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSig
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return ErrIssuer
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	default:
		return ErrInvalidClaim
	}
}
