package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-taskboard/internal/backend/backendtest"
	"github.com/pribylovaa/go-taskboard/internal/clients"
)

type cli struct {
	t      *testing.T
	config string
}

func newCLI(t *testing.T, baseURL string) *cli {
	t.Helper()

	dir := t.TempDir()
	cfg := fmt.Sprintf(`
env: "local"
api:
  base_url: %q
store:
  kind: "file"
  path: %q
log:
  file: %q
`, baseURL, filepath.Join(dir, "session.json"), filepath.Join(dir, "taskboard.log"))

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))

	return &cli{t: t, config: path}
}

func (c *cli) run(args ...string) (code int, stdout, stderr string) {
	c.t.Helper()

	var out, errOut bytes.Buffer
	code = run(context.Background(), append([]string{"--config", c.config}, args...), &out, &errOut)

	return code, out.String(), errOut.String()
}

func TestRun_SessionFlow(t *testing.T) {
	t.Setenv("TASKBOARD_PASSWORD", "")

	srv := backendtest.Start(t, backendtest.Options{})
	c := newCLI(t, srv.URL)

	code, out, errOut := c.run("register", "-email", "Dev@Example.com", "-password", "secret1", "-confirm", "secret1")
	require.Equal(t, exitOK, code, errOut)
	require.Contains(t, out, "registered and logged in as dev@example.com")

	code, out, _ = c.run("me")
	require.Equal(t, exitOK, code)
	require.Contains(t, out, `"email": "dev@example.com"`)

	code, out, _ = c.run("projects", "-create", "Board")
	require.Equal(t, exitOK, code)
	require.Contains(t, out, "created")

	code, out, _ = c.run("projects")
	require.Equal(t, exitOK, code)
	require.Contains(t, out, "\tBoard\n")

	code, out, _ = c.run("get", "/users/me")
	require.Equal(t, exitOK, code)
	require.Contains(t, out, `"_id"`)

	code, out, _ = c.run("token")
	require.Equal(t, exitOK, code)
	require.Contains(t, out, "email:      dev@example.com")

	code, out, _ = c.run("refresh")
	require.Equal(t, exitOK, code)
	require.Contains(t, out, "token refreshed")

	code, out, _ = c.run("logout")
	require.Equal(t, exitOK, code)
	require.Equal(t, "logged out\n", out)

	code, _, errOut = c.run("me")
	require.Equal(t, exitError, code)
	require.Contains(t, errOut, "http 401")

	code, _, errOut = c.run("login", "-email", "dev@example.com", "-password", "wrong")
	require.Equal(t, exitError, code)
	require.Contains(t, errOut, "Invalid password")

	code, out, _ = c.run("login", "-email", "dev@example.com", "-password", "secret1")
	require.Equal(t, exitOK, code)
	require.Contains(t, out, "logged in as dev@example.com")
}

func TestRun_PasswordFromEnv(t *testing.T) {
	t.Setenv("TASKBOARD_PASSWORD", "secret1")

	srv := backendtest.Start(t, backendtest.Options{})
	c := newCLI(t, srv.URL)

	code, _, errOut := c.run("register", "-email", "env@example.com", "-confirm", "secret1")
	require.Equal(t, exitOK, code, errOut)

	code, _, errOut = c.run("login", "-email", "env@example.com")
	require.Equal(t, exitOK, code, errOut)
}

func TestRun_ValidationBeforeNetwork(t *testing.T) {
	t.Setenv("TASKBOARD_PASSWORD", "")

	srv := backendtest.Start(t, backendtest.Options{})
	c := newCLI(t, srv.URL)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "missing_email", args: []string{"login", "-password", "x"}, want: "email is required"},
		{name: "bad_email", args: []string{"login", "-email", "nope", "-password", "x"}, want: "invalid email format"},
		{name: "missing_password", args: []string{"login", "-email", "a@b.co"}, want: "password is required"},
		{name: "mismatch", args: []string{"register", "-email", "a@b.co", "-password", "x1", "-confirm", "x2"}, want: "passwords do not match"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, errOut := c.run(tt.args...)
			require.Equal(t, exitUsage, code)
			require.Contains(t, errOut, tt.want)
		})
	}

	require.Zero(t, srv.Calls(clients.PathLogin))
	require.Zero(t, srv.Calls(clients.PathRegister))
}

func TestRun_Usage(t *testing.T) {
	srv := backendtest.Start(t, backendtest.Options{})
	c := newCLI(t, srv.URL)

	code, _, _ := c.run("frobnicate")
	require.Equal(t, exitUsage, code)

	code, _, _ = c.run("get")
	require.Equal(t, exitUsage, code)

	var errOut bytes.Buffer
	require.Equal(t, exitUsage, run(context.Background(), nil, &bytes.Buffer{}, &errOut))
	require.Contains(t, errOut.String(), "usage: taskboard")
}
