//go:build e2e

package test

import (
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpsEndpointsE2E(t *testing.T) {
	env := SetupTestEnvironmentWithEnv(t, map[string]string{"ROUTE_METRICS_ENABLED": "true"})

	t.Run("healthz", func(t *testing.T) {
		var body map[string]any
		status := sendJSON(t, env.Client, http.MethodGet, env.BaseURL+"/healthz", nil, nil, &body)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "ok", body["status"])
	})

	t.Run("metrics", func(t *testing.T) {
		login(t, env.BaseURL, adminEmail, adminPassword)

		resp, err := env.Client.Get(env.BaseURL + "/metrics")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, string(raw), "http_requests_total")
		assert.Contains(t, string(raw), "mentorship_stream_subscribers")
	})

	t.Run("swagger", func(t *testing.T) {
		var doc map[string]any
		status := sendJSON(t, env.Client, http.MethodGet, env.BaseURL+"/docs/doc.json", nil, nil, &doc)
		require.Equal(t, http.StatusOK, status)
		info := doc["info"].(map[string]any)
		assert.Equal(t, "Alumni Portal API", info["title"])
	})
}
