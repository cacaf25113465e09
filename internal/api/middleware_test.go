package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequireAuth_MissingHeader(t *testing.T) {
	ts := newTestServer(t)

	w := ts.request(t, http.MethodGet, "/api/v1/stories/", "", "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuth_MalformedHeader(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stories/", nil)
	req.Header.Set("Authorization", "Basic abc123")
	w := httptest.NewRecorder()
	ts.server.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	ts := newTestServer(t)

	w := ts.request(t, http.MethodGet, "/api/v1/stories/", "not-a-jwt", "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuth_ValidToken(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.createUser(t, "user-1", false)

	w := ts.request(t, http.MethodGet, "/api/v1/stories/", token, "")

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAuth_QueryTokenFallback(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.createUser(t, "user-1", false)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stories/?token="+token, nil)
	w := httptest.NewRecorder()
	ts.server.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAdmin_Forbidden(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.createUser(t, "user-1", false)

	w := ts.request(t, http.MethodGet, "/api/v1/admin/users", token, "")

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireAdmin_Allowed(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.createUser(t, "admin-1", true)

	w := ts.request(t, http.MethodGet, "/api/v1/admin/users", token, "")

	assert.Equal(t, http.StatusOK, w.Code)
}
