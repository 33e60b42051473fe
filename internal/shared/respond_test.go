package shared

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeEnvelope(t *testing.T, res *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &env))
	return env
}

func TestRespondOK(t *testing.T) {
	res := httptest.NewRecorder()
	RespondOK(res, http.StatusCreated, map[string]any{"id": 1})

	assert.Equal(t, http.StatusCreated, res.Code)
	assert.Equal(t, "application/json", res.Header().Get("Content-Type"))
	env := decodeEnvelope(t, res)
	assert.True(t, env.Success)
	assert.NotNil(t, env.Data)
}

func TestRespondList(t *testing.T) {
	res := httptest.NewRecorder()
	RespondList(res, []int{1, 2, 3}, NewPagination(2, 3, 10))

	env := decodeEnvelope(t, res)
	assert.True(t, env.Success)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, 2, env.Pagination.Page)
	assert.Equal(t, 10, env.Pagination.Total)
	assert.Equal(t, 4, env.Pagination.Pages)
}

func TestRespondErrorMapsKinds(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{ValidationError("bad input"), http.StatusBadRequest},
		{Unauthenticated("no token"), http.StatusUnauthorized},
		{Forbidden("no"), http.StatusForbidden},
		{NotFound("exam"), http.StatusNotFound},
		{Conflict("taken"), http.StatusConflict},
		{Upstream(errors.New("boom")), http.StatusInternalServerError},
		{errors.New("bare"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		res := httptest.NewRecorder()
		RespondError(res, nil, tt.err)
		assert.Equal(t, tt.status, res.Code)
		env := decodeEnvelope(t, res)
		assert.False(t, env.Success)
		assert.NotEmpty(t, env.Message)
	}
}

func TestRespondErrorHidesInternalDetail(t *testing.T) {
	res := httptest.NewRecorder()
	RespondError(res, nil, Upstream(errors.New("pq: connection refused")))

	assert.NotContains(t, res.Body.String(), "connection refused")
	env := decodeEnvelope(t, res)
	assert.Equal(t, "internal error", env.Message)
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(0, 0, 45)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 20, p.Limit)
	assert.Equal(t, 3, p.Pages)

	p = NewPagination(1, 10, 0)
	assert.Equal(t, 0, p.Pages)
}

func TestParsePageRequestClamps(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/students?page=-3&limit=9999&search=karim", nil)
	page := ParsePageRequest(req)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 100, page.Limit)
	assert.Equal(t, "karim", page.Search)
	assert.Equal(t, 0, page.Offset())
}
