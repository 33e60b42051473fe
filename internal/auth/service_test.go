package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/academica-erp/academica/internal/shared"
	_ "github.com/academica-erp/academica/internal/testing/guard"
)

type mockRepository struct {
	users map[int64]*User

	findByEmailError   error
	findByIDError      error
	updatePasswordHash string
}

func newMockRepository() *mockRepository {
	return &mockRepository{users: make(map[int64]*User)}
}

func (m *mockRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	if m.findByEmailError != nil {
		return nil, m.findByEmailError
	}
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, shared.NotFound("user")
}

func (m *mockRepository) FindByID(ctx context.Context, id int64) (*User, error) {
	if m.findByIDError != nil {
		return nil, m.findByIDError
	}
	u, ok := m.users[id]
	if !ok {
		return nil, shared.NotFound("user")
	}
	return u, nil
}

func (m *mockRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	u, ok := m.users[id]
	if !ok {
		return shared.NotFound("user")
	}
	u.PasswordHash = hash
	m.updatePasswordHash = hash
	return nil
}

func newTestService(t *testing.T, repo Repository) (*Service, *RefreshStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	store := NewRefreshStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	issuer := NewIssuer("test-secret", 15*time.Minute, 24*time.Hour)
	return NewService(repo, issuer, store), store
}

func seedUser(t *testing.T, repo *mockRepository, password string) *User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &User{
		ID:           1,
		Email:        "admin.north@academica.test",
		PasswordHash: string(hash),
		Role:         shared.RoleBranchAdmin,
		BranchID:     2,
		IsActive:     true,
	}
	repo.users[user.ID] = user
	return user
}

func TestLogin(t *testing.T) {
	repo := newMockRepository()
	user := seedUser(t, repo, "changeme1")
	svc, store := newTestService(t, repo)

	pair, err := svc.Login(context.Background(), user.Email, "changeme1")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, int64((15*time.Minute).Seconds()), pair.ExpiresIn)

	// The minted refresh JTI is registered as the only valid one.
	jti, err := store.Get(context.Background(), user.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, jti)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	repo := newMockRepository()
	user := seedUser(t, repo, "changeme1")
	svc, _ := newTestService(t, repo)

	_, err := svc.Login(context.Background(), "nobody@academica.test", "changeme1")
	assert.True(t, errors.Is(err, shared.ErrInvalidCredentials))

	_, err = svc.Login(context.Background(), user.Email, "wrongpass")
	assert.True(t, errors.Is(err, shared.ErrInvalidCredentials))

	user.IsActive = false
	_, err = svc.Login(context.Background(), user.Email, "changeme1")
	assert.True(t, errors.Is(err, shared.ErrInvalidCredentials))
}

func TestLoginRepositoryFailureIsNotACredentialError(t *testing.T) {
	repo := newMockRepository()
	seedUser(t, repo, "changeme1")
	repo.findByEmailError = errors.New("dial tcp 10.0.0.4:5432: connection refused")
	svc, _ := newTestService(t, repo)

	_, err := svc.Login(context.Background(), "admin.north@academica.test", "changeme1")
	require.Error(t, err)
	assert.False(t, errors.Is(err, shared.ErrInvalidCredentials))
	assert.Equal(t, shared.KindUpstream, shared.AsError(err).Kind)
}

func TestRefreshRotatesCredential(t *testing.T) {
	repo := newMockRepository()
	user := seedUser(t, repo, "changeme1")
	svc, _ := newTestService(t, repo)

	first, err := svc.Login(context.Background(), user.Email, "changeme1")
	require.NoError(t, err)

	second, err := svc.Refresh(context.Background(), first.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, second.AccessToken)

	// The first refresh credential was rotated out, even though its own
	// expiry has not passed.
	_, err = svc.Refresh(context.Background(), first.RefreshToken)
	require.Error(t, err)
	assert.Equal(t, shared.KindUnauthenticated, shared.AsError(err).Kind)

	// The freshly minted one still works.
	_, err = svc.Refresh(context.Background(), second.RefreshToken)
	require.NoError(t, err)
}

func TestRefreshAfterLogout(t *testing.T) {
	repo := newMockRepository()
	user := seedUser(t, repo, "changeme1")
	svc, _ := newTestService(t, repo)

	pair, err := svc.Login(context.Background(), user.Email, "changeme1")
	require.NoError(t, err)
	require.NoError(t, svc.Logout(context.Background(), user.ID))

	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	require.Error(t, err)
	assert.Equal(t, shared.KindUnauthenticated, shared.AsError(err).Kind)
}

func TestRefreshDeactivatedAccount(t *testing.T) {
	repo := newMockRepository()
	user := seedUser(t, repo, "changeme1")
	svc, _ := newTestService(t, repo)

	pair, err := svc.Login(context.Background(), user.Email, "changeme1")
	require.NoError(t, err)

	user.IsActive = false
	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	require.Error(t, err)
	assert.Equal(t, shared.KindForbidden, shared.AsError(err).Kind)
}

func TestRefreshRepositoryFailureIsUpstream(t *testing.T) {
	repo := newMockRepository()
	user := seedUser(t, repo, "changeme1")
	svc, _ := newTestService(t, repo)

	pair, err := svc.Login(context.Background(), user.Email, "changeme1")
	require.NoError(t, err)

	// An account lookup outage must not read as a revoked credential.
	repo.findByIDError = errors.New("dial tcp 10.0.0.4:5432: connection refused")
	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	require.Error(t, err)
	assert.Equal(t, shared.KindUpstream, shared.AsError(err).Kind)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	repo := newMockRepository()
	user := seedUser(t, repo, "changeme1")
	svc, _ := newTestService(t, repo)

	pair, err := svc.Login(context.Background(), user.Email, "changeme1")
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), pair.AccessToken)
	require.Error(t, err)
	assert.Equal(t, shared.KindUnauthenticated, shared.AsError(err).Kind)
}

func TestChangePassword(t *testing.T) {
	repo := newMockRepository()
	user := seedUser(t, repo, "changeme1")
	svc, store := newTestService(t, repo)

	_, err := svc.Login(context.Background(), user.Email, "changeme1")
	require.NoError(t, err)

	err = svc.ChangePassword(context.Background(), user.ID, "changeme1", "nextpass1")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.updatePasswordHash), []byte("nextpass1")))

	// Old sessions cannot renew after a password change.
	_, err = store.Get(context.Background(), user.ID)
	assert.True(t, errors.Is(err, ErrNoRefreshToken))
}

func TestChangePasswordRejections(t *testing.T) {
	repo := newMockRepository()
	user := seedUser(t, repo, "changeme1")
	svc, _ := newTestService(t, repo)

	err := svc.ChangePassword(context.Background(), user.ID, "changeme1", "short")
	require.Error(t, err)
	assert.Equal(t, shared.KindValidation, shared.AsError(err).Kind)

	err = svc.ChangePassword(context.Background(), user.ID, "wrongpass", "nextpass1")
	require.Error(t, err)
	assert.Equal(t, shared.KindForbidden, shared.AsError(err).Kind)

	repo.findByIDError = errors.New("connection reset by peer")
	err = svc.ChangePassword(context.Background(), user.ID, "changeme1", "nextpass1")
	require.Error(t, err)
	assert.Equal(t, shared.KindUpstream, shared.AsError(err).Kind)
}
