package exams

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/academica-erp/academica/internal/rbac"
	"github.com/academica-erp/academica/internal/shared"
)

func newTestRouter(svc *Service) chi.Router {
	handler := NewHandler(nil, svc, rbac.Middleware{})
	r := chi.NewRouter()
	r.Route("/exams", handler.MountRoutes)
	r.Route("/teacher/exams", handler.MountTeacherRoutes)
	return r
}

func doRequest(router chi.Router, principal *shared.Principal, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if principal != nil {
		req = req.WithContext(shared.ContextWithPrincipal(req.Context(), principal))
	}
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	return res
}

func TestHandlerCreateExam(t *testing.T) {
	svc, _, _ := newFixture()
	router := newTestRouter(svc)
	admin := &shared.Principal{UserID: 3, Role: shared.RoleBranchAdmin, BranchID: branchNorth}

	res := doRequest(router, admin, http.MethodPost, "/exams",
		`{"title":"Final Science","class_name":"8","subject":"Science","exam_date":"2026-05-20","max_marks":50}`)
	require.Equal(t, http.StatusCreated, res.Code)

	var env shared.Envelope
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &env))
	assert.True(t, env.Success)
	assert.Equal(t, "exam scheduled", env.Message)
}

func TestHandlerCreateExamTeacherForbidden(t *testing.T) {
	svc, repo, _ := newFixture()
	router := newTestRouter(svc)
	before := len(repo.exams)

	res := doRequest(router, teacherPrincipal(), http.MethodPost, "/exams",
		`{"title":"Final Science","class_name":"8","subject":"Science","exam_date":"2026-05-20","max_marks":50}`)
	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.Len(t, repo.exams, before)
}

func TestHandlerCreateExamRejectsBadDate(t *testing.T) {
	svc, _, _ := newFixture()
	router := newTestRouter(svc)
	admin := &shared.Principal{UserID: 3, Role: shared.RoleBranchAdmin, BranchID: branchNorth}

	res := doRequest(router, admin, http.MethodPost, "/exams",
		`{"title":"Final","class_name":"8","subject":"Science","exam_date":"20-05-2026","max_marks":50}`)
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestHandlerGetExam(t *testing.T) {
	svc, _, _ := newFixture()
	router := newTestRouter(svc)

	res := doRequest(router, teacherPrincipal(), http.MethodGet, "/exams/10", "")
	assert.Equal(t, http.StatusOK, res.Code)

	// Cross-branch id and nonsense id read identically.
	res = doRequest(router, teacherPrincipal(), http.MethodGet, "/exams/11", "")
	assert.Equal(t, http.StatusNotFound, res.Code)
	res = doRequest(router, teacherPrincipal(), http.MethodGet, "/exams/999", "")
	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestHandlerInvalidID(t *testing.T) {
	svc, _, _ := newFixture()
	router := newTestRouter(svc)

	res := doRequest(router, teacherPrincipal(), http.MethodGet, "/exams/abc", "")
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestHandlerPostResult(t *testing.T) {
	svc, _, _ := newFixture()
	router := newTestRouter(svc)

	res := doRequest(router, teacherPrincipal(), http.MethodPost, "/teacher/exams/10/results",
		`{"student_id":20,"marks":87,"grade":"A"}`)
	require.Equal(t, http.StatusOK, res.Code)

	var env shared.Envelope
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &env))
	assert.Equal(t, "result recorded", env.Message)
}

func TestHandlerPostResultRequiresTeacherRole(t *testing.T) {
	svc, _, _ := newFixture()
	router := newTestRouter(svc)
	admin := &shared.Principal{UserID: 3, Role: shared.RoleBranchAdmin, BranchID: branchNorth}

	res := doRequest(router, admin, http.MethodPost, "/teacher/exams/10/results",
		`{"student_id":20,"marks":87}`)
	assert.Equal(t, http.StatusForbidden, res.Code)
}

func TestHandlerPostResultValidatesBody(t *testing.T) {
	svc, _, _ := newFixture()
	router := newTestRouter(svc)

	res := doRequest(router, teacherPrincipal(), http.MethodPost, "/teacher/exams/10/results",
		`{"marks":87}`)
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestHandlerListScopesByBranch(t *testing.T) {
	svc, _, _ := newFixture()
	router := newTestRouter(svc)

	res := doRequest(router, teacherPrincipal(), http.MethodGet, "/exams", "")
	require.Equal(t, http.StatusOK, res.Code)

	var env struct {
		Data []Exam `json:"data"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &env))
	require.Len(t, env.Data, 1)
	assert.Equal(t, branchNorth, env.Data[0].BranchID)
}

func TestHandlerUnauthenticated(t *testing.T) {
	svc, _, _ := newFixture()
	router := newTestRouter(svc)

	res := doRequest(router, nil, http.MethodGet, "/exams", "")
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}
