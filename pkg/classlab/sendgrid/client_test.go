package sendgrid

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSend(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/mail/send", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var payload mailRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "no-reply@classlab.local", payload.From.Email)
		require.Len(t, payload.Personalizations, 1)
		assert.Equal(t, "user@example.com", payload.Personalizations[0].To[0].Email)
		assert.Equal(t, "Reset your password", payload.Subject)
		require.Len(t, payload.Content, 1)
		assert.Equal(t, "text/html", payload.Content[0].Type)

		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	client := New("test-key", "no-reply@classlab.local")
	client.BaseURL = server.URL

	err := client.Send(context.Background(), "user@example.com", "Reset your password", "<p>hi</p>")
	require.NoError(t, err)
}

func TestSendAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errors": [{"message": "invalid key"}]}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	client := New("bad-key", "no-reply@classlab.local")
	client.BaseURL = server.URL

	err := client.Send(context.Background(), "user@example.com", "s", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
