//go:build e2e

package test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	registerEndpoint = "/api/auth/register"
	loginEndpoint    = "/api/auth/login"
	meEndpoint       = "/api/me"

	msgFailedToCloseResponseBody = "failed to close response body: %v"
)

var apiClient = &http.Client{Timeout: 10 * time.Second}

// authResult mirrors the token envelope returned by register and login.
type authResult struct {
	Token string `json:"token"`
	User  struct {
		ID   string `json:"id"`
		Role string `json:"role"`
	} `json:"user"`
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

// register creates an account and returns its token and user id.
func register(t *testing.T, baseURL, email, password, role string) (string, string) {
	t.Helper()
	var res authResult
	status := sendJSON(t, apiClient, http.MethodPost, baseURL+registerEndpoint, nil,
		map[string]string{"email": email, "password": password, "role": role}, &res)
	require.Equal(t, http.StatusCreated, status, "register %s", email)
	require.NotEmpty(t, res.Token)
	require.Equal(t, role, res.User.Role)
	return res.Token, res.User.ID
}

// login signs in and returns the token.
func login(t *testing.T, baseURL, email, password string) string {
	t.Helper()
	var res authResult
	status := sendJSON(t, apiClient, http.MethodPost, baseURL+loginEndpoint, nil,
		map[string]string{"email": email, "password": password}, &res)
	require.Equal(t, http.StatusOK, status, "login %s", email)
	require.NotEmpty(t, res.Token)
	return res.Token
}

// loginExpect attempts a login and only asserts the status code.
func loginExpect(t *testing.T, client *http.Client, baseURL, email, password string, want int) {
	t.Helper()
	status := sendJSON(t, client, http.MethodPost, baseURL+loginEndpoint, nil,
		map[string]string{"email": email, "password": password}, nil)
	assert.Equal(t, want, status, "login %s", email)
}

// sendJSON performs one request and decodes the response into out when out
// is non-nil and the body is not empty.
func sendJSON(t *testing.T, client *http.Client, method, url string, headers map[string]string, body, out any) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer func() {
		if err := resp.Body.Close(); err != nil {
			t.Errorf(msgFailedToCloseResponseBody, err)
		}
	}()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if out != nil && len(bytes.TrimSpace(raw)) > 0 {
		require.NoError(t, json.Unmarshal(raw, out), "decode %s %s: %s", method, url, raw)
	}
	return resp.StatusCode
}

// HTTPJSONStep is one request in a table-driven e2e scenario.
type HTTPJSONStep struct {
	Name           string
	Method         string
	URL            string
	Headers        map[string]string
	Body           any
	ExpectedStatus int
	Validator      func(t *testing.T, body map[string]any)
}

// ExecuteHTTPJSONStep runs step as a subtest and returns the decoded object body.
func ExecuteHTTPJSONStep(t *testing.T, step HTTPJSONStep, baseURL string) map[string]any {
	t.Helper()
	var out map[string]any
	t.Run(step.Name, func(t *testing.T) {
		status := sendJSON(t, apiClient, step.Method, baseURL+step.URL, step.Headers, step.Body, &out)
		require.Equal(t, step.ExpectedStatus, status, "%s %s -> %v", step.Method, step.URL, out)
		if step.Validator != nil {
			step.Validator(t, out)
		}
	})
	return out
}

func ExecuteHTTPJSONSteps(t *testing.T, steps []HTTPJSONStep, baseURL string) {
	t.Helper()
	for _, step := range steps {
		ExecuteHTTPJSONStep(t, step, baseURL)
	}
}

// MessageValidator checks the "message" field of a response.
func MessageValidator(want string) func(*testing.T, map[string]any) {
	return func(t *testing.T, body map[string]any) {
		assert.Equal(t, want, body["message"])
	}
}

// GetJSONArray fetches path and expects a 200 with a JSON array body.
func GetJSONArray(t *testing.T, baseURL, path string, headers map[string]string) []map[string]any {
	t.Helper()
	var out []map[string]any
	status := sendJSON(t, apiClient, http.MethodGet, baseURL+path, headers, nil, &out)
	require.Equal(t, http.StatusOK, status, "GET %s", path)
	return out
}
