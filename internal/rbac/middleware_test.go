package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/academica-erp/academica/internal/shared"
)

func requestAs(role string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/fees", nil)
	if role == "" {
		return req
	}
	principal := &shared.Principal{UserID: 1, Role: role, BranchID: 2}
	return req.WithContext(shared.ContextWithPrincipal(req.Context(), principal))
}

func TestRequireAnyAdmits(t *testing.T) {
	called := false
	handler := Middleware{}.RequireAny(shared.RoleBranchAdmin, shared.RoleSuperAdmin)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, requestAs(shared.RoleBranchAdmin))

	assert.Equal(t, http.StatusOK, res.Code)
	assert.True(t, called)
}

func TestRequireAnyDeniesWrongRole(t *testing.T) {
	handler := Middleware{}.RequireAny(shared.RoleBranchAdmin)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler must not run on a denied role")
		}))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, requestAs(shared.RoleTeacher))

	assert.Equal(t, http.StatusForbidden, res.Code)
}

func TestRequireAnyWithoutPrincipal(t *testing.T) {
	handler := Middleware{}.RequireAny(shared.RoleBranchAdmin)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler must not run without a principal")
		}))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, requestAs(""))

	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestRequireAnyEmptyListAdmitsAnyAuthenticated(t *testing.T) {
	called := false
	handler := Middleware{}.RequireAny()(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, requestAs(shared.RoleStudent))
	assert.True(t, called)

	res = httptest.NewRecorder()
	handler.ServeHTTP(res, requestAs(""))
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestRequireAnyNormalizesRoles(t *testing.T) {
	called := false
	handler := Middleware{}.RequireAny(" Teacher ", "")(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, requestAs(shared.RoleTeacher))

	assert.True(t, called)
}
