// cmd/ping/main.go
//
// Container health probe for the portal:
//   HEALTHCHECK CMD ["/ping"]
//
// PING_URL overrides the probed URL; otherwise APP_PORT on localhost is used.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"
)

const (
	defaultPort          = 3001
	healthEndpoint       = "/healthz"
	expectedHealthStatus = "ok"
	requestTimeout       = 2 * time.Second

	// exit codes
	codeRequestFailed     = 2
	codeBadHTTPStatus     = 3
	codeDecodeError       = 4
	codeReportedUnhealthy = 5

	msgRequestFailed     = "request failed: %v"
	msgBadHTTPStatus     = "unexpected HTTP status %d: %s"
	msgDecodeError       = "decode error: %v"
	msgReportedUnhealthy = "portal reported %q: %s"
	msgHealthy           = "portal healthy at %s"
)

// healthResp mirrors the /healthz body, e.g. {"status":"down","error":"..."}.
type healthResp struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

func main() {
	url := probeURL()
	client := &http.Client{Timeout: requestTimeout}

	resp, err := client.Get(url)
	if err != nil {
		fail(codeRequestFailed, msgRequestFailed, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Printf("failed to close response body: %v", err)
		}
	}()

	var h healthResp
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil && !errors.Is(err, io.EOF) {
		fail(codeDecodeError, msgDecodeError, err)
	}

	if resp.StatusCode != http.StatusOK {
		fail(codeBadHTTPStatus, msgBadHTTPStatus, resp.StatusCode, h.Error)
	}
	if h.Status != "" && h.Status != expectedHealthStatus {
		fail(codeReportedUnhealthy, msgReportedUnhealthy, h.Status, h.Error)
	}

	log.Printf(msgHealthy, url)
}

func probeURL() string {
	if v := os.Getenv("PING_URL"); v != "" {
		return v
	}
	port := defaultPort
	if v := os.Getenv("APP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 && p <= 65535 {
			port = p
		}
	}
	return fmt.Sprintf("http://localhost:%d%s", port, healthEndpoint)
}

func fail(code int, format string, args ...any) {
	log.Printf(format, args...)
	os.Exit(code)
}
