package content

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const apiSecret = "cms-service-secret"

func TestCMSCreateMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/messages", r.URL.Path)

		// The service token must be a valid, short-lived HS256 JWT.
		auth := r.Header.Get("Authorization")
		require.True(t, strings.HasPrefix(auth, "Bearer "))
		token, err := jwt.Parse(strings.TrimPrefix(auth, "Bearer "), func(*jwt.Token) (any, error) {
			return []byte(apiSecret), nil
		}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithAudience("cms:service"))
		require.NoError(t, err)
		require.True(t, token.Valid)

		var body struct {
			Data map[string]any `json:"data"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Ana", body.Data["nombre"])

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data": {"id": 7, "attributes": {"nombre": "Ana"}}}`))
	}))
	defer srv.Close()

	c := NewCMS(srv.URL, apiSecret)
	created, err := c.CreateMessage(context.Background(), map[string]any{"nombre": "Ana"})
	require.NoError(t, err)

	assert.Equal(t, "7", created.ID)
	assert.Equal(t, "Ana", created.Attributes["nombre"])
}

func TestCMSCreateMessageUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewCMS(srv.URL, apiSecret)
	_, err := c.CreateMessage(context.Background(), map[string]any{"nombre": "Ana"})
	require.Error(t, err)
}

func TestMemoryCreateMessage(t *testing.T) {
	m := NewMemory()

	created, err := m.CreateMessage(context.Background(), map[string]any{"consulta": "hola"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	msgs := m.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "hola", msgs[0].Attributes["consulta"])
}
