package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/opencourse/tarpaulin/internal/tarpaulin/domain"
	"github.com/opencourse/tarpaulin/internal/tarpaulin/store"
	"github.com/opencourse/tarpaulin/pkg/cryptox"
	"github.com/opencourse/tarpaulin/pkg/jwtx"
	"github.com/opencourse/tarpaulin/pkg/slogx"
)

// IdentityService mints credentials at login and resolves bearer
// credentials back into caller identities.
type IdentityService struct {
	Signer   jwtx.Signer
	Verifier jwtx.Verifier
	Store    store.Store
	Issuer   string
	TTL      time.Duration
}

// Login checks the email/password pair and returns a signed credential
// valid for the configured window.
func (s *IdentityService) Login(ctx context.Context, email, password string) (string, error) {
	l := slogx.FromContext(ctx)

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("identity: lookup user: %w", err)
	}

	if cryptox.VerifyPassword(password, user.PasswordHash) != nil {
		l.Info("login failed", "email", email)
		return "", ErrInvalidCredentials
	}

	claims := jwtx.NewCredentialClaims(
		user.ID, user.Email, string(user.Role),
		s.TTL, s.Issuer, time.Now().UTC(),
	)

	token, err := s.Signer.Sign(claims)
	if err != nil {
		return "", fmt.Errorf("identity: sign credential: %w", err)
	}
	return token, nil
}

// VerifyCredential resolves an Authorization header value to an Identity.
//
// The role embedded in the token is ignored; the account is re-fetched so
// role changes (or deletion) after issuance take effect immediately. A
// store failure here surfaces as an error rather than a denial: auth
// checks fail closed.
func (s *IdentityService) VerifyCredential(ctx context.Context, authz string) (domain.Identity, error) {
	if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
		return domain.Identity{}, ErrMissingCredential
	}
	raw := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))
	if raw == "" {
		return domain.Identity{}, ErrMissingCredential
	}

	claims, err := s.Verifier.Verify(raw)
	if err != nil {
		if errors.Is(err, jwtx.ErrExpired) {
			return domain.Identity{}, ErrExpiredCredential
		}
		return domain.Identity{}, ErrInvalidCredential
	}

	user, err := s.Store.Users().GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Identity{}, ErrUnknownSubject
		}
		return domain.Identity{}, fmt.Errorf("identity: load subject: %w", err)
	}

	return domain.Identity{ID: user.ID, Email: user.Email, Role: user.Role}, nil
}
