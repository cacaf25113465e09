package api

import (
	"net/http"
	"testing"

	"encoding/json/v2"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairytaleapp/fairytale-server/internal/domain"
)

func TestUpdateAndGetUserTags(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.createUser(t, "user-1", false)

	w := ts.request(t, http.MethodPost, "/api/v1/recommendations/tags", token,
		`{"tag_ids": ["tag-space", "tag-dinosaur"]}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.request(t, http.MethodGet, "/api/v1/recommendations/tags", token, "")
	require.Equal(t, http.StatusOK, w.Code)

	raw, _ := json.Marshal(decodeEnvelope(t, w).Data)
	var tags []*domain.UserTag
	require.NoError(t, json.Unmarshal(raw, &tags))
	assert.Len(t, tags, 2)
}

func TestUpdateUserTags_UnknownTag(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.createUser(t, "user-1", false)

	w := ts.request(t, http.MethodPost, "/api/v1/recommendations/tags", token,
		`{"tag_ids": ["tag-unknown"]}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateUserTags_EmptySet(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.createUser(t, "user-1", false)

	w := ts.request(t, http.MethodPost, "/api/v1/recommendations/tags", token,
		`{"tag_ids": []}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetRecommendations(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.createUser(t, "user-1", false)

	w := ts.request(t, http.MethodPost, "/api/v1/recommendations/tags", token,
		`{"tag_ids": ["tag-space"]}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.request(t, http.MethodGet, "/api/v1/recommendations/", token, "")
	require.Equal(t, http.StatusOK, w.Code)

	raw, _ := json.Marshal(decodeEnvelope(t, w).Data)
	var recommendations []*domain.Recommendation
	require.NoError(t, json.Unmarshal(raw, &recommendations))
	require.NotEmpty(t, recommendations)
}
