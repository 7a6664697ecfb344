package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-tourease-suggestions/internal/types"
)

func TestErrorResponse(t *testing.T) {
	rr := httptest.NewRecorder()
	ErrorResponse(rr, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusServiceUnavailable, "try again")

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "try again", body["error"])
	assert.Contains(t, body, "request_id")
}

func TestDecodeJSONBody(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "valid", body: `{"name":"Bali"}`},
		{name: "unknown field", body: `{"name":"Bali","extra":1}`, wantErr: `unknown key "extra"`},
		{name: "wrong type", body: `{"name":5}`, wantErr: `incorrect JSON type for field "name"`},
		{name: "empty", body: ``, wantErr: "must not be empty"},
		{name: "two objects", body: `{"name":"a"}{"name":"b"}`, wantErr: "single JSON value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p payload
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			err := DecodeJSONBody(httptest.NewRecorder(), req, &p)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, "Bali", p.Name)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRequireNonEmpty(t *testing.T) {
	assert.NoError(t, RequireNonEmpty(map[string]string{"budget": "Rp 1", "location": "Bali"}))

	err := RequireNonEmpty(map[string]string{"location": " ", "budget": "", "interests": "alam"})
	assert.ErrorIs(t, err, types.ErrInvalidInput)
	assert.Contains(t, err.Error(), "budget, location must not be empty")
}
