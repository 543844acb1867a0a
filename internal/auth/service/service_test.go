package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/cicilan/internal/auth/domain"
	"github.com/smallbiznis/cicilan/internal/auth/repository"
	"github.com/smallbiznis/cicilan/internal/clock"
	"github.com/smallbiznis/cicilan/internal/migration"
	"github.com/smallbiznis/cicilan/internal/usercontext"
	"github.com/smallbiznis/cicilan/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) (domain.Service, *clock.FakeClock) {
	t.Helper()

	conn := db.NewTest(t)
	require.NoError(t, migration.ApplySchema(conn))

	repo, sessionRepo := repository.New(conn)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC))
	return New(Params{
		Log:         zap.NewNop(),
		Repo:        repo,
		SessionRepo: sessionRepo,
		GenID:       node,
		Clock:       fake,
	}), fake
}

func createReseller(t *testing.T, svc domain.Service, email string) *domain.User {
	t.Helper()
	user, err := svc.CreateUser(context.Background(), domain.CreateUserRequest{
		Email:    email,
		Name:     "Rina",
		Password: "reseller123",
		Phone:    "0812000111",
	})
	require.NoError(t, err)
	return user
}

func TestCreateUserDefaultsToReseller(t *testing.T) {
	svc, _ := newTestService(t)

	user := createReseller(t, svc, " Rina@Example.com ")
	assert.Equal(t, "rina@example.com", user.Email)
	assert.Equal(t, domain.RoleReseller, user.Role)
	require.NotNil(t, user.Phone)
	assert.Nil(t, user.Address)

	stored, err := svc.GetUser(context.Background(), user.ID.String())
	require.NoError(t, err)
	assert.Equal(t, user.Email, stored.Email)
	assert.NotEmpty(t, stored.PasswordHash)
}

func TestCreateUserValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, domain.CreateUserRequest{Email: "nope", Name: "A", Password: "secret1"})
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)

	_, err = svc.CreateUser(ctx, domain.CreateUserRequest{Email: "a@example.com", Name: " ", Password: "secret1"})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = svc.CreateUser(ctx, domain.CreateUserRequest{Email: "a@example.com", Name: "A", Password: "secret1", Role: "owner"})
	assert.ErrorIs(t, err, domain.ErrInvalidRole)

	_, err = svc.CreateUser(ctx, domain.CreateUserRequest{Email: "a@example.com", Name: "A", Password: "123"})
	assert.ErrorIs(t, err, domain.ErrWeakPassword)

	createReseller(t, svc, "dup@example.com")
	_, err = svc.CreateUser(ctx, domain.CreateUserRequest{Email: "DUP@example.com", Name: "B", Password: "secret12"})
	assert.ErrorIs(t, err, domain.ErrUserExists)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newTestService(t)
	createReseller(t, svc, "alice@example.com")

	_, err := svc.Login(context.Background(), domain.LoginRequest{
		Email:    "alice@example.com",
		Password: "wrong-password",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), domain.LoginRequest{
		Email:    "ghost@example.com",
		Password: "reseller123",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLoginAuthenticateLogout(t *testing.T) {
	svc, fake := newTestService(t)
	user := createReseller(t, svc, "bob@example.com")
	ctx := context.Background()

	result, err := svc.Login(ctx, domain.LoginRequest{Email: "bob@example.com", Password: "reseller123", IPAddress: "10.0.0.1"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.RawToken)
	assert.Equal(t, fake.Now().Add(sessionTTL), result.ExpiresAt)

	session, authed, err := svc.Authenticate(ctx, result.RawToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, session.UserID)
	assert.Equal(t, user.ID, authed.ID)

	require.NoError(t, svc.Logout(ctx, result.RawToken))
	_, _, err = svc.Authenticate(ctx, result.RawToken)
	assert.ErrorIs(t, err, domain.ErrSessionRevoked)

	_, _, err = svc.Authenticate(ctx, "unknown-token")
	assert.ErrorIs(t, err, domain.ErrInvalidSession)
}

func TestSessionExpires(t *testing.T) {
	svc, fake := newTestService(t)
	createReseller(t, svc, "exp@example.com")
	ctx := context.Background()

	result, err := svc.Login(ctx, domain.LoginRequest{Email: "exp@example.com", Password: "reseller123"})
	require.NoError(t, err)

	fake.Advance(sessionTTL + time.Minute)
	_, _, err = svc.Authenticate(ctx, result.RawToken)
	assert.ErrorIs(t, err, domain.ErrSessionExpired)

	purged, err := svc.PurgeExpiredSessions(ctx, fake.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)
}

func TestChangePassword(t *testing.T) {
	svc, _ := newTestService(t)
	user := createReseller(t, svc, "carol@example.com")
	ctx := context.Background()

	err := svc.ChangePassword(ctx, user.ID.String(), "not-current", "brand-new-pass")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	err = svc.ChangePassword(ctx, user.ID.String(), "reseller123", "reseller123")
	assert.ErrorIs(t, err, domain.ErrPasswordReused)

	require.NoError(t, svc.ChangePassword(ctx, user.ID.String(), "reseller123", "brand-new-pass"))

	_, err = svc.Login(ctx, domain.LoginRequest{Email: "carol@example.com", Password: "reseller123"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = svc.Login(ctx, domain.LoginRequest{Email: "carol@example.com", Password: "brand-new-pass"})
	assert.NoError(t, err)
}

func TestResetPasswordRevokesSessions(t *testing.T) {
	svc, _ := newTestService(t)
	user := createReseller(t, svc, "dave@example.com")
	ctx := context.Background()

	login, err := svc.Login(ctx, domain.LoginRequest{Email: "dave@example.com", Password: "reseller123"})
	require.NoError(t, err)

	generated, err := svc.ResetPassword(ctx, user.ID.String())
	require.NoError(t, err)
	assert.Len(t, generated, 8)

	_, _, err = svc.Authenticate(ctx, login.RawToken)
	assert.ErrorIs(t, err, domain.ErrSessionRevoked)

	refreshed, err := svc.GetUser(ctx, user.ID.String())
	require.NoError(t, err)
	assert.True(t, refreshed.IsDefault)

	_, err = svc.Login(ctx, domain.LoginRequest{Email: "dave@example.com", Password: generated})
	assert.NoError(t, err)
}

func TestUpdateUser(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	first := createReseller(t, svc, "first@example.com")
	createReseller(t, svc, "second@example.com")

	taken := "second@example.com"
	_, err := svc.UpdateUser(ctx, first.ID.String(), domain.UpdateUserRequest{Email: &taken})
	assert.ErrorIs(t, err, domain.ErrUserExists)

	name := "Rina Wijaya"
	role := domain.RoleAdmin
	address := "Jl. Melati 5"
	updated, err := svc.UpdateUser(ctx, first.ID.String(), domain.UpdateUserRequest{Name: &name, Role: &role, Address: &address})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.Equal(t, domain.RoleAdmin, updated.Role)
	require.NotNil(t, updated.Address)
	assert.Equal(t, address, *updated.Address)
	assert.Equal(t, "first@example.com", updated.Email)
}

func TestListAndDeleteUsers(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	admin, err := svc.CreateUser(ctx, domain.CreateUserRequest{Email: "admin@example.com", Name: "Admin", Password: "admin123", Role: domain.RoleAdmin})
	require.NoError(t, err)
	reseller := createReseller(t, svc, "rina@example.com")

	resellers, err := svc.ListUsers(ctx, domain.ListUsersRequest{Role: domain.RoleReseller})
	require.NoError(t, err)
	require.Len(t, resellers, 1)
	assert.Equal(t, reseller.ID, resellers[0].ID)

	matched, err := svc.ListUsers(ctx, domain.ListUsersRequest{Query: "ADMIN"})
	require.NoError(t, err)
	require.Len(t, matched, 1)

	adminCtx := usercontext.WithIdentity(ctx, admin.Identity())
	assert.ErrorIs(t, svc.DeleteUser(adminCtx, admin.ID.String()), domain.ErrCannotDeleteSelf)
	require.NoError(t, svc.DeleteUser(adminCtx, reseller.ID.String()))

	_, err = svc.GetUser(ctx, reseller.ID.String())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.ErrorIs(t, svc.DeleteUser(adminCtx, reseller.ID.String()), domain.ErrUserNotFound)
	_, err = svc.GetUser(ctx, "abc")
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}
