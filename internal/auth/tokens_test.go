package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/academica-erp/academica/internal/shared"
)

func testUser() *User {
	return &User{
		ID:       42,
		Email:    "teacher.north@academica.test",
		Role:     shared.RoleTeacher,
		BranchID: 2,
		IsActive: true,
	}
}

func TestIssuerSignAndVerify(t *testing.T) {
	issuer := NewIssuer("test-secret", 15*time.Minute, 24*time.Hour)

	token, jti, err := issuer.Sign(testUser(), TokenTypeAccess)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.NotEmpty(t, jti)

	claims, err := issuer.Verify(token, TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "teacher.north@academica.test", claims.Email)
	assert.Equal(t, shared.RoleTeacher, claims.Role)
	assert.Equal(t, int64(2), claims.BranchID)
	assert.Equal(t, jti, claims.ID)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)
}

func TestIssuerRejectsTypeMismatch(t *testing.T) {
	issuer := NewIssuer("test-secret", 15*time.Minute, 24*time.Hour)

	refresh, _, err := issuer.Sign(testUser(), TokenTypeRefresh)
	require.NoError(t, err)

	// A refresh credential is never accepted where an access one is expected.
	_, err = issuer.Verify(refresh, TokenTypeAccess)
	require.Error(t, err)
	assert.Equal(t, shared.KindUnauthenticated, shared.AsError(err).Kind)
}

func TestIssuerRejectsExpiredToken(t *testing.T) {
	issuer := NewIssuer("test-secret", -time.Minute, 24*time.Hour)

	token, _, err := issuer.Sign(testUser(), TokenTypeAccess)
	require.NoError(t, err)

	_, err = issuer.Verify(token, TokenTypeAccess)
	require.Error(t, err)
	assert.Equal(t, shared.KindUnauthenticated, shared.AsError(err).Kind)
}

func TestIssuerRejectsForeignSignature(t *testing.T) {
	issuer := NewIssuer("test-secret", 15*time.Minute, 24*time.Hour)
	other := NewIssuer("other-secret", 15*time.Minute, 24*time.Hour)

	token, _, err := other.Sign(testUser(), TokenTypeAccess)
	require.NoError(t, err)

	_, err = issuer.Verify(token, TokenTypeAccess)
	require.Error(t, err)
}

func TestIssuerRejectsGarbage(t *testing.T) {
	issuer := NewIssuer("test-secret", 15*time.Minute, 24*time.Hour)

	_, err := issuer.Verify("not-a-jwt", TokenTypeAccess)
	require.Error(t, err)
	assert.Equal(t, shared.KindUnauthenticated, shared.AsError(err).Kind)
}
