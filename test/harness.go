//go:build e2e

package test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	adminEmail    = "admin@e2e.test"
	adminPassword = "admin-e2e-password"

	e2eJWTSecret = "e2e-secret-with-at-least-32-characters-for-hs256"
	e2eDBName    = "alumni_e2e"

	serverLogLimit = 64 << 10
)

// TestEnvironment is one portal process backed by its own MongoDB container.
type TestEnvironment struct {
	BaseURL string
	Client  *http.Client
}

// SetupTestEnvironment starts MongoDB and the portal with default settings.
func SetupTestEnvironment(t *testing.T) *TestEnvironment {
	return SetupTestEnvironmentWithEnv(t, nil)
}

// SetupTestEnvironmentWithEnv starts MongoDB and the portal with extraEnv
// layered over the defaults. Everything is torn down in t.Cleanup.
func SetupTestEnvironmentWithEnv(t *testing.T, extraEnv map[string]string) *TestEnvironment {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	t.Cleanup(cancel)

	mongoURI := startMongoReplicaSet(ctx, t)
	baseURL, logs := startServer(t, mongoURI, extraEnv)

	if err := waitHealthy(baseURL, 30*time.Second); err != nil {
		t.Logf("server output:\n%s", logs.String())
		require.NoError(t, err)
	}

	return &TestEnvironment{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// startMongoReplicaSet runs a single-node replica set so mentorship
// assignments go through real transactions.
func startMongoReplicaSet(ctx context.Context, t *testing.T) string {
	t.Helper()

	mongoC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:8.0",
			ExposedPorts: []string{"27017/tcp"},
			Cmd:          []string{"--replSet", "rs0", "--bind_ip_all"},
			WaitingFor: wait.ForExec([]string{"mongosh", "--quiet", "--eval", "db.adminCommand('ping')"}).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = mongoC.Terminate(context.Background()) })

	initiate := []string{"mongosh", "--quiet", "--eval",
		"try { rs.status() } catch (e) { rs.initiate({_id: 'rs0', members: [{_id: 0, host: 'localhost:27017'}]}) }"}
	code, _, err := mongoC.Exec(ctx, initiate)
	require.NoError(t, err)
	require.Zero(t, code, "rs.initiate failed")

	isPrimary := []string{"mongosh", "--quiet", "--eval", "quit(db.hello().isWritablePrimary ? 0 : 1)"}
	require.Eventually(t, func() bool {
		code, _, err := mongoC.Exec(ctx, isPrimary)
		return err == nil && code == 0
	}, 30*time.Second, 500*time.Millisecond, "replica set never elected a primary")

	host, err := mongoC.Host(ctx)
	require.NoError(t, err)
	port, err := mongoC.MappedPort(ctx, "27017")
	require.NoError(t, err)

	// the member advertises localhost:27017, so bypass topology discovery
	return fmt.Sprintf("mongodb://%s:%s/?directConnection=true", host, port.Port())
}

// startServer launches the portal as a child process. BIN_SERVER points at a
// prebuilt binary; otherwise the server is started with `go run`.
func startServer(t *testing.T, mongoURI string, extraEnv map[string]string) (string, *cappedBuffer) {
	t.Helper()

	port, err := freePort()
	require.NoError(t, err)

	var cmd *exec.Cmd
	if bin := os.Getenv("BIN_SERVER"); bin != "" {
		cmd = exec.Command(bin)
	} else {
		cmd = exec.Command("go", "run", "./cmd/server")
		cmd.Dir = ".."
	}
	// own process group so `go run` and its child die together
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	env := map[string]string{
		"APP_ENV":                 "test",
		"APP_PORT":                port,
		"MONGODB_URI":             mongoURI,
		"MONGO_DB_NAME":           e2eDBName,
		"JWT_SECRET":              e2eJWTSecret,
		"BCRYPT_COST":             "10",
		"LOG_LEVEL":               "warn",
		"REQUEST_LOGGING_ENABLED": "false",
		"ADMIN_EMAIL":             adminEmail,
		"ADMIN_PASSWORD":          adminPassword,
	}
	for k, v := range extraEnv {
		env[k] = v
	}
	cmd.Env = os.Environ()
	for k, v := range env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	logs := &cappedBuffer{limit: serverLogLimit}
	cmd.Stdout = io.Discard
	cmd.Stderr = logs

	require.NoError(t, cmd.Start())
	t.Logf("portal starting on :%s", port)

	t.Cleanup(func() {
		if pgid, err := syscall.Getpgid(cmd.Process.Pid); err == nil {
			_ = syscall.Kill(-pgid, syscall.SIGTERM)
		}
		done := make(chan struct{})
		go func() {
			_ = cmd.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(10 * time.Second):
			if pgid, err := syscall.Getpgid(cmd.Process.Pid); err == nil {
				_ = syscall.Kill(-pgid, syscall.SIGKILL)
			}
			<-done
		}
		if t.Failed() && logs.Len() > 0 {
			t.Logf("server output:\n%s", logs.String())
		}
	})

	return "http://localhost:" + port, logs
}

func waitHealthy(baseURL string, timeout time.Duration) error {
	client := &http.Client{Timeout: 2 * time.Second}
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		resp, err := client.Get(baseURL + "/healthz")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(200 * time.Millisecond)
	}
	return fmt.Errorf("portal at %s not healthy after %s", baseURL, timeout)
}

func freePort() (string, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", err
	}
	defer l.Close()
	return strconv.Itoa(l.Addr().(*net.TCPAddr).Port), nil
}

// cappedBuffer keeps the first limit bytes of the server output and
// silently discards the rest so the child never blocks on a full pipe.
type cappedBuffer struct {
	mu    sync.Mutex
	buf   bytes.Buffer
	limit int
}

func (c *cappedBuffer) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if room := c.limit - c.buf.Len(); room > 0 {
		c.buf.Write(p[:min(len(p), room)])
	}
	return len(p), nil
}

func (c *cappedBuffer) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.Len()
}

func (c *cappedBuffer) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strings.TrimSpace(c.buf.String())
}
