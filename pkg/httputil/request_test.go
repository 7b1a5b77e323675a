package httputil

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSON(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		expectError bool
	}{
		{
			name:        "valid JSON",
			body:        `{"name": "test"}`,
			expectError: false,
		},
		{
			name:        "invalid JSON",
			body:        `{invalid}`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/test", bytes.NewBufferString(tt.body))
			var dest map[string]string

			err := ParseJSON(req, &dest)

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, "test", dest["name"])
			}
		})
	}
}

func TestParseJSONOrError(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/test", bytes.NewBufferString(`{broken`))
	var dest map[string]string

	ok := ParseJSONOrError(w, req, &dest)

	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestParsePathInt64(t *testing.T) {
	req := httptest.NewRequest("GET", "/orgs/42", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "42"})

	val, err := ParsePathInt64(req, "id")
	require.NoError(t, err)
	assert.Equal(t, int64(42), val)

	_, err = ParsePathInt64(req, "missing")
	assert.Error(t, err)

	req = mux.SetURLVars(req, map[string]string{"id": "not-a-number"})
	_, err = ParsePathInt64(req, "id")
	assert.Error(t, err)
}

func TestParsePathInt64OrError(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/orgs/abc", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "abc"})

	_, ok := ParsePathInt64OrError(w, req, "id")

	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequireNonEmpty(t *testing.T) {
	w := httptest.NewRecorder()

	assert.True(t, RequireNonEmpty(w, "value", "name"))
	assert.False(t, RequireNonEmpty(w, "", "name"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "name is required")
}

func TestRequirePositive(t *testing.T) {
	w := httptest.NewRecorder()

	assert.True(t, RequirePositive(w, 7, "organization_id"))
	assert.False(t, RequirePositive(w, 0, "organization_id"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
