package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhamdane/knockout-tour/scoring"
	"github.com/mhamdane/knockout-tour/services"
)

func TestReadJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	newRequest := func(body string) (*httptest.ResponseRecorder, *http.Request) {
		return httptest.NewRecorder(),
			httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	}

	t.Run("valid body", func(t *testing.T) {
		w, r := newRequest(`{"name": "test"}`)
		var dst payload
		require.NoError(t, readJSON(w, r, &dst))
		assert.Equal(t, "test", dst.Name)
	})

	t.Run("unknown field", func(t *testing.T) {
		w, r := newRequest(`{"name": "test", "bogus": 1}`)
		var dst payload
		err := readJSON(w, r, &dst)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown key")
	})

	t.Run("empty body", func(t *testing.T) {
		w, r := newRequest("")
		var dst payload
		err := readJSON(w, r, &dst)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must not be empty")
	})

	t.Run("trailing JSON value", func(t *testing.T) {
		w, r := newRequest(`{"name": "a"}{"name": "b"}`)
		var dst payload
		err := readJSON(w, r, &dst)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "single JSON value")
	})

	t.Run("malformed body", func(t *testing.T) {
		w, r := newRequest(`{"name":`)
		var dst payload
		assert.Error(t, readJSON(w, r, &dst))
	})
}

func TestMapServiceErrorToHTTP(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", services.ErrNotFound, http.StatusNotFound},
		{"ranking not published", services.ErrRankingNotPublished, http.StatusNotFound},
		{"duplicate entry", services.ErrDuplicateEntry, http.StatusConflict},
		{"draw not open", services.ErrDrawNotOpen, http.StatusConflict},
		{"result recorded", services.ErrResultAlreadyRecorded, http.StatusConflict},
		{"result differs", services.ErrResultDiffers, http.StatusConflict},
		{"downstream played", services.ErrDownstreamPlayed, http.StatusConflict},
		{"wrong age category", services.ErrWrongAgeCategory, http.StatusBadRequest},
		{"insufficient players", services.ErrInsufficientPlayers, http.StatusBadRequest},
		{"entry closed", services.ErrEntryClosed, http.StatusForbidden},
		{"suspended", services.ErrPlayerSuspended, http.StatusForbidden},
		{"bad credentials", services.ErrInvalidCredentials, http.StatusUnauthorized},
		{"unexpected", assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/", nil)
			mapServiceErrorToHTTP(w, r, tt.err)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestMapServiceErrorToHTTPScoreViolation(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", nil)

	mapServiceErrorToHTTP(w, r, &scoring.ValidationError{
		Violation: scoring.ViolationMissingTiebreak,
		Detail:    "set 1 reads 7-6",
	})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var body struct {
		Error struct {
			Violation string `json:"violation"`
			Detail    string `json:"detail"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, string(scoring.ViolationMissingTiebreak), body.Error.Violation)
	assert.Equal(t, "set 1 reads 7-6", body.Error.Detail)
}
