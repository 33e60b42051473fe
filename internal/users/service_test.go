package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/academica-erp/academica/internal/shared"
	"github.com/academica-erp/academica/internal/tenancy"
)

type mockRepository struct {
	users  map[int64]*User
	hashes map[int64]string
	nextID int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{users: make(map[int64]*User), hashes: make(map[int64]string)}
}

func (m *mockRepository) List(ctx context.Context, scope tenancy.Scope, filter Filter, page shared.PageRequest) ([]User, int, error) {
	var out []User
	for _, u := range m.users {
		if !scope.Allows(u.BranchID) && u.Role != shared.RoleSuperAdmin {
			continue
		}
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		out = append(out, *u)
	}
	return out, len(out), nil
}

func (m *mockRepository) FindByID(ctx context.Context, scope tenancy.Scope, id int64) (*User, error) {
	u, ok := m.users[id]
	if !ok || (!scope.Allows(u.BranchID) && u.Role != shared.RoleSuperAdmin) {
		return nil, shared.NotFound("user")
	}
	return u, nil
}

func (m *mockRepository) Create(ctx context.Context, u *User, passwordHash string) (*User, error) {
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return nil, shared.Conflict("email already registered")
		}
	}
	m.nextID++
	u.ID = m.nextID
	u.IsActive = true
	m.users[u.ID] = u
	m.hashes[u.ID] = passwordHash
	return u, nil
}

func (m *mockRepository) Update(ctx context.Context, scope tenancy.Scope, u *User) (*User, error) {
	existing, err := m.FindByID(ctx, scope, u.ID)
	if err != nil {
		return nil, err
	}
	existing.Name = u.Name
	existing.Email = u.Email
	return existing, nil
}

func (m *mockRepository) SetActive(ctx context.Context, scope tenancy.Scope, id int64, active bool) error {
	u, err := m.FindByID(ctx, scope, id)
	if err != nil {
		return err
	}
	u.IsActive = active
	return nil
}

func (m *mockRepository) ListEmails(ctx context.Context, scope tenancy.Scope, role string) ([]string, error) {
	var out []string
	for _, u := range m.users {
		if !u.IsActive || !scope.Allows(u.BranchID) {
			continue
		}
		if role != "" && u.Role != role {
			continue
		}
		out = append(out, u.Email)
	}
	return out, nil
}

const branchNorth int64 = 2

func branchAdmin() *shared.Principal {
	return &shared.Principal{UserID: 1, Role: shared.RoleBranchAdmin, BranchID: branchNorth}
}

func superAdmin() *shared.Principal {
	return &shared.Principal{UserID: 2, Role: shared.RoleSuperAdmin}
}

func TestCreateStampsCreatorBranch(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), branchAdmin(), CreateInput{
		Email: "teacher.new@academica.test", Name: "New Teacher",
		Password: "changeme1", Role: shared.RoleTeacher,
		BranchID: 9, // ignored for scoped creators
	})
	require.NoError(t, err)
	assert.Equal(t, branchNorth, created.BranchID)
	assert.True(t, created.IsActive)

	// The password is stored hashed, never verbatim.
	hash := repo.hashes[created.ID]
	assert.NotEqual(t, "changeme1", hash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("changeme1")))
}

func TestCreateSuperAdminRequiresSuperAdmin(t *testing.T) {
	svc := NewService(newMockRepository())

	_, err := svc.Create(context.Background(), branchAdmin(), CreateInput{
		Email: "root@academica.test", Name: "Root",
		Password: "changeme1", Role: shared.RoleSuperAdmin,
	})
	require.Error(t, err)
	assert.Equal(t, shared.KindForbidden, shared.AsError(err).Kind)

	created, err := svc.Create(context.Background(), superAdmin(), CreateInput{
		Email: "root@academica.test", Name: "Root",
		Password: "changeme1", Role: shared.RoleSuperAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), created.BranchID)
}

func TestCreateSuperAdminCreatorNamesBranch(t *testing.T) {
	svc := NewService(newMockRepository())

	_, err := svc.Create(context.Background(), superAdmin(), CreateInput{
		Email: "teacher@academica.test", Name: "T",
		Password: "changeme1", Role: shared.RoleTeacher,
	})
	require.Error(t, err)
	assert.Equal(t, shared.KindValidation, shared.AsError(err).Kind)

	created, err := svc.Create(context.Background(), superAdmin(), CreateInput{
		Email: "teacher@academica.test", Name: "T",
		Password: "changeme1", Role: shared.RoleTeacher, BranchID: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), created.BranchID)
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newMockRepository())

	_, err := svc.Create(context.Background(), branchAdmin(), CreateInput{
		Email: "x@academica.test", Name: "X", Password: "changeme1", Role: "janitor",
	})
	require.Error(t, err)
	assert.Equal(t, shared.KindValidation, shared.AsError(err).Kind)

	_, err = svc.Create(context.Background(), branchAdmin(), CreateInput{
		Email: "x@academica.test", Name: "X", Password: "short", Role: shared.RoleTeacher,
	})
	require.Error(t, err)
	assert.Equal(t, shared.KindValidation, shared.AsError(err).Kind)
}

func TestCreateDuplicateEmailConflicts(t *testing.T) {
	svc := NewService(newMockRepository())

	in := CreateInput{
		Email: "dup@academica.test", Name: "Dup",
		Password: "changeme1", Role: shared.RoleTeacher,
	}
	_, err := svc.Create(context.Background(), branchAdmin(), in)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), branchAdmin(), in)
	require.Error(t, err)
	assert.Equal(t, shared.KindConflict, shared.AsError(err).Kind)
}

func TestDeactivate(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), branchAdmin(), CreateInput{
		Email: "t@academica.test", Name: "T",
		Password: "changeme1", Role: shared.RoleTeacher,
	})
	require.NoError(t, err)

	// Another branch's admin cannot touch the account.
	otherScope := tenancy.For(&shared.Principal{Role: shared.RoleBranchAdmin, BranchID: 9})
	err = svc.Deactivate(context.Background(), otherScope, created.ID)
	require.Error(t, err)
	assert.Equal(t, shared.KindNotFound, shared.AsError(err).Kind)

	scope := tenancy.For(branchAdmin())
	require.NoError(t, svc.Deactivate(context.Background(), scope, created.ID))
	assert.False(t, repo.users[created.ID].IsActive)
}
