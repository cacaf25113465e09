package api

import (
	"net/http"
	"testing"

	"encoding/json/v2"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviceLogin_CreatesUser(t *testing.T) {
	ts := newTestServer(t)

	w := ts.request(t, http.MethodPost, "/api/v1/auth/device-login", "",
		`{"device_id": "device-abc-123", "name": "Mika"}`)

	require.Equal(t, http.StatusOK, w.Code)

	envelope := decodeEnvelope(t, w)
	require.True(t, envelope.Success)

	raw, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	var authResp AuthResponse
	require.NoError(t, json.Unmarshal(raw, &authResp))

	assert.NotEmpty(t, authResp.Token)
	require.NotNil(t, authResp.User)
	assert.Equal(t, "device-abc-123", authResp.User.DeviceID)
	assert.Equal(t, "Mika", authResp.User.Name)

	// The returned token must work against protected routes.
	w = ts.request(t, http.MethodGet, "/api/v1/stories/", authResp.Token, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDeviceLogin_SameDeviceReturnsSameUser(t *testing.T) {
	ts := newTestServer(t)

	body := `{"device_id": "device-abc-123"}`
	first := ts.request(t, http.MethodPost, "/api/v1/auth/device-login", "", body)
	second := ts.request(t, http.MethodPost, "/api/v1/auth/device-login", "", body)

	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, http.StatusOK, second.Code)

	var a, b AuthResponse
	rawA, _ := json.Marshal(decodeEnvelope(t, first).Data)
	rawB, _ := json.Marshal(decodeEnvelope(t, second).Data)
	require.NoError(t, json.Unmarshal(rawA, &a))
	require.NoError(t, json.Unmarshal(rawB, &b))

	assert.Equal(t, a.User.ID, b.User.ID)
}

func TestDeviceLogin_Validation(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"empty body", `{}`},
		{"device id too short", `{"device_id": "short"}`},
		{"malformed json", `{"device_id": `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.request(t, http.MethodPost, "/api/v1/auth/device-login", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestGoogleLogin_Success(t *testing.T) {
	ts := newTestServer(t)

	w := ts.request(t, http.MethodPost, "/api/v1/auth/google-login", "",
		`{"id_token": "valid-google-token"}`)

	require.Equal(t, http.StatusOK, w.Code)

	var authResp AuthResponse
	raw, _ := json.Marshal(decodeEnvelope(t, w).Data)
	require.NoError(t, json.Unmarshal(raw, &authResp))

	assert.Equal(t, "kid@example.com", authResp.User.Email)
	assert.NotEmpty(t, authResp.Token)
}

func TestGoogleLogin_InvalidToken(t *testing.T) {
	ts := newTestServer(t)

	w := ts.request(t, http.MethodPost, "/api/v1/auth/google-login", "",
		`{"id_token": "forged"}`)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
