package service

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"dashboard-api/internal/domain"
	"dashboard-api/internal/repository"
	"dashboard-api/internal/repository/sqlite"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type userFixture struct {
	svc    UserService
	users  repository.UserRepository
	tokens TokenManager
}

func newUserFixture(t *testing.T) userFixture {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	users := sqlite.NewUserRepository(db)
	require.NoError(t, users.Init(context.Background()))

	tokens, err := NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)

	return userFixture{
		svc:    NewUserService(users, tokens, bcrypt.MinCost, quietLogger()),
		users:  users,
		tokens: tokens,
	}
}

func TestRegisterThenLogin(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	reg, err := f.svc.Register(ctx, "a@x.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", reg.User.Email)
	assert.NotEmpty(t, reg.User.ID)

	login, err := f.svc.Login(ctx, "a@x.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, reg.User, login.User)

	for _, tok := range []string{reg.Token, login.Token} {
		id, err := f.tokens.Verify(tok)
		require.NoError(t, err)
		assert.Equal(t, reg.User.ID, id.UserID)
	}
}

func TestRegisterStoresHashAndNormalizedEmail(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "  Mixed@Example.COM ", "secret1")
	require.NoError(t, err)

	stored, err := f.users.GetByEmail(ctx, "mixed@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secret1")))
}

func TestRegisterValidation(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	cases := []struct {
		name, email, password string
	}{
		{"empty email", "", "secret1"},
		{"malformed email", "not-an-email", "secret1"},
		{"empty password", "a@x.com", ""},
		{"short password", "a@x.com", "12345"},
		{"short multibyte password", "a@x.com", "ééé"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Register(ctx, tc.email, tc.password)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestRegisterCountsPasswordCharacters(t *testing.T) {
	f := newUserFixture(t)

	_, err := f.svc.Register(context.Background(), "a@x.com", "éééééé")
	assert.NoError(t, err)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "a@x.com", "secret1")
	require.NoError(t, err)

	for _, password := range []string{"secret1", "another-password"} {
		_, err = f.svc.Register(ctx, "a@x.com", password)
		assert.ErrorIs(t, err, domain.ErrConflict)
		assert.ErrorIs(t, err, ErrUserAlreadyExists)
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "a@x.com", "secret1")
	require.NoError(t, err)

	_, wrongPassword := f.svc.Login(ctx, "a@x.com", "wrong-password")
	_, unknownEmail := f.svc.Login(ctx, "nobody@x.com", "secret1")

	require.Error(t, wrongPassword)
	require.Error(t, unknownEmail)
	assert.ErrorIs(t, wrongPassword, domain.ErrAuthentication)
	assert.ErrorIs(t, unknownEmail, domain.ErrAuthentication)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestLoginRequiresFields(t *testing.T) {
	f := newUserFixture(t)

	_, err := f.svc.Login(context.Background(), "", "secret1")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.Login(context.Background(), "a@x.com", "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestChangePassword(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	reg, err := f.svc.Register(ctx, "a@x.com", "secret1")
	require.NoError(t, err)
	identity := Identity{UserID: reg.User.ID}

	err = f.svc.ChangePassword(ctx, identity, "secret1", "secret2", "secret3")
	assert.ErrorIs(t, err, domain.ErrValidation)

	err = f.svc.ChangePassword(ctx, identity, "secret1", "short", "short")
	assert.ErrorIs(t, err, domain.ErrValidation)

	err = f.svc.ChangePassword(ctx, identity, "wrong-one", "secret2", "secret2")
	assert.ErrorIs(t, err, ErrWrongCurrentPassword)

	require.NoError(t, f.svc.ChangePassword(ctx, identity, "secret1", "secret2", "secret2"))

	_, err = f.svc.Login(ctx, "a@x.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	login, err := f.svc.Login(ctx, "a@x.com", "secret2")
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, login.User.ID)
}

func TestChangePasswordUnknownUser(t *testing.T) {
	f := newUserFixture(t)

	err := f.svc.ChangePassword(context.Background(), Identity{UserID: "gone"}, "secret1", "secret2", "secret2")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetCurrentUser(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	reg, err := f.svc.Register(ctx, "a@x.com", "secret1")
	require.NoError(t, err)

	user, err := f.svc.GetCurrentUser(ctx, Identity{UserID: reg.User.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.PublicUser{ID: reg.User.ID, Email: "a@x.com"}, *user)

	_, err = f.svc.GetCurrentUser(ctx, Identity{UserID: "deleted-out-of-band"})
	assert.ErrorIs(t, err, ErrUserNotFound)
}
