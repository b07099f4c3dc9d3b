package service_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/opencourse/tarpaulin/internal/tarpaulin/domain"
	"github.com/opencourse/tarpaulin/internal/tarpaulin/service"
	"github.com/opencourse/tarpaulin/internal/tarpaulin/store/drivers/sqlite"
	"github.com/opencourse/tarpaulin/pkg/cryptox"
	"github.com/opencourse/tarpaulin/pkg/idx"
	"github.com/opencourse/tarpaulin/pkg/jwtx"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	cryptox.SetPepperPath(filepath.Join(t.TempDir(), "pepper"))

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func seedUser(t *testing.T, st *sqlite.Store, role domain.Role, password string) domain.User {
	t.Helper()

	hash, err := cryptox.HashPassword(password)
	require.NoError(t, err)

	u := domain.User{
		ID:           idx.New().String(),
		Name:         "Test " + string(role),
		Email:        idx.New().String() + "@example.com",
		PasswordHash: hash,
		Role:         role,
	}
	require.NoError(t, st.Users().CreateUser(context.Background(), u))
	return u
}

func newIdentityService(t *testing.T, st *sqlite.Store) *service.IdentityService {
	t.Helper()

	signer, err := jwtx.NewHS256([]byte("test-secret"), "tarpaulin")
	require.NoError(t, err)

	return &service.IdentityService{
		Signer:   signer,
		Verifier: signer,
		Store:    st,
		Issuer:   "tarpaulin",
		TTL:      jwtx.DefaultCredentialTTL,
	}
}

func TestLogin(t *testing.T) {
	st := newTestStore(t)
	svc := newIdentityService(t, st)
	ctx := context.Background()

	user := seedUser(t, st, domain.RoleStudent, "hunter2hunter2")

	t.Run("valid credentials", func(t *testing.T) {
		token, err := svc.Login(ctx, user.Email, "hunter2hunter2")
		require.NoError(t, err)
		require.NotEmpty(t, token)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, user.Email, "wrong")
		require.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(ctx, "nobody@example.com", "hunter2hunter2")
		require.ErrorIs(t, err, service.ErrInvalidCredentials)
	})
}

func TestVerifyCredential(t *testing.T) {
	st := newTestStore(t)
	svc := newIdentityService(t, st)
	ctx := context.Background()

	user := seedUser(t, st, domain.RoleStudent, "hunter2hunter2")
	token, err := svc.Login(ctx, user.Email, "hunter2hunter2")
	require.NoError(t, err)

	t.Run("valid credential", func(t *testing.T) {
		id, err := svc.VerifyCredential(ctx, "Bearer "+token)
		require.NoError(t, err)
		require.Equal(t, user.ID, id.ID)
		require.Equal(t, domain.RoleStudent, id.Role)
	})

	t.Run("missing header", func(t *testing.T) {
		_, err := svc.VerifyCredential(ctx, "")
		require.ErrorIs(t, err, service.ErrMissingCredential)
	})

	t.Run("missing scheme prefix", func(t *testing.T) {
		_, err := svc.VerifyCredential(ctx, token)
		require.ErrorIs(t, err, service.ErrMissingCredential)
	})

	t.Run("tampered credential", func(t *testing.T) {
		_, err := svc.VerifyCredential(ctx, "Bearer "+token+"x")
		require.ErrorIs(t, err, service.ErrInvalidCredential)
	})

	t.Run("expired credential", func(t *testing.T) {
		signer, err := jwtx.NewHS256([]byte("test-secret"), "tarpaulin")
		require.NoError(t, err)

		claims := jwtx.NewCredentialClaims(
			user.ID, user.Email, string(user.Role),
			time.Hour, "tarpaulin", time.Now().UTC().Add(-25*time.Hour),
		)
		stale, err := signer.Sign(claims)
		require.NoError(t, err)

		_, err = svc.VerifyCredential(ctx, "Bearer "+stale)
		require.ErrorIs(t, err, service.ErrExpiredCredential)
	})

	t.Run("role change takes effect immediately", func(t *testing.T) {
		// The token still says student; verification trusts the store.
		_, err := st.DB().ExecContext(ctx, `UPDATE users SET role = 'instructor' WHERE id = ?`, user.ID)
		require.NoError(t, err)

		id, err := svc.VerifyCredential(ctx, "Bearer "+token)
		require.NoError(t, err)
		require.Equal(t, domain.RoleInstructor, id.Role)
	})

	t.Run("deleted subject", func(t *testing.T) {
		_, err := st.DB().ExecContext(ctx, `DELETE FROM users WHERE id = ?`, user.ID)
		require.NoError(t, err)

		_, err = svc.VerifyCredential(ctx, "Bearer "+token)
		require.ErrorIs(t, err, service.ErrUnknownSubject)
	})
}
