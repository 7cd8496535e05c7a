package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrewlwn77/nocodb-mcp/internal/config"
	"github.com/andrewlwn77/nocodb-mcp/internal/nocodbtest"
	"github.com/andrewlwn77/nocodb-mcp/internal/paths"
	"github.com/andrewlwn77/nocodb-mcp/pkg/types"
)

// isolate clears every variable the configuration reads and moves the test
// into an empty working directory, so no .env file is picked up.
func isolate(t *testing.T) {
	t.Helper()
	for _, key := range []string{config.EnvBaseURL, config.EnvAPIToken, config.EnvAuthToken, config.EnvDefaultBase, paths.EnvConfigDir} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	t.Chdir(t.TempDir())
}

type result struct {
	stdout string
	stderr string
	err    error
}

// run executes the root command with args and stdin.
func run(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	root := NewRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

// connArgs point a command at srv with a fresh config directory.
func connArgs(t *testing.T, srv *nocodbtest.Server) []string {
	return []string{"--config-dir", t.TempDir(), "--base-url", srv.URL, "--api-token", nocodbtest.Token}
}

func TestVersionCommand(t *testing.T) {
	isolate(t)

	res := run(t, "", "version")
	require.NoError(t, res.err)
	assert.Equal(t, fmt.Sprintf("nocodb-mcp v%s\nmodule: %s\n", Version, modulePath), res.stdout)
}

func TestToolsCommand(t *testing.T) {
	isolate(t)
	noColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = noColor })

	t.Run("table", func(t *testing.T) {
		res := run(t, "", "tools")
		require.NoError(t, res.err)

		lines := strings.Split(strings.TrimRight(res.stdout, "\n"), "\n")
		require.Len(t, lines, 26)
		assert.Equal(t, []string{"list_bases", "-"}, strings.Fields(lines[0])[:2])
		assert.Equal(t, []string{"get_base_info", "base_id"}, strings.Fields(lines[1])[:2])
		assert.NotContains(t, res.stdout, "\x1b[", "no escape codes without a terminal")
	})

	t.Run("json", func(t *testing.T) {
		res := run(t, "", "tools", "--json")
		require.NoError(t, res.err)

		var out struct {
			Tools []struct {
				Name        string         `json:"name"`
				InputSchema map[string]any `json:"inputSchema"`
			} `json:"tools"`
		}
		require.NoError(t, json.Unmarshal([]byte(res.stdout), &out))
		require.Len(t, out.Tools, 26)
		assert.Equal(t, "list_bases", out.Tools[0].Name)
		assert.Equal(t, "object", out.Tools[0].InputSchema["type"])
	})
}

func TestInitCommand(t *testing.T) {
	isolate(t)
	dir := filepath.Join(t.TempDir(), "conf")

	res := run(t, "", "init", "--config-dir", dir, "--base-url", "https://noco.example.com", "--api-token", "secret")
	require.NoError(t, res.err)
	path := filepath.Join(dir, paths.ConfigFileName)
	assert.Equal(t, "Wrote "+path+"\n", res.stdout)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "base_url: https://noco.example.com")
	assert.NotContains(t, string(data), "secret")

	res = run(t, "", "init", "--config-dir", dir, "--base-url", "http://other:8080")
	require.NoError(t, res.err)
	assert.Equal(t, "Config already exists at "+path+"\n", res.stdout)

	again, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestCallCommand(t *testing.T) {
	isolate(t)
	srv := nocodbtest.NewServer(t)
	baseID := srv.AddBase("Sales")

	t.Run("arguments on the command line", func(t *testing.T) {
		args := append([]string{"call", "get_base_info", `{"base_id":"` + baseID + `"}`}, connArgs(t, srv)...)
		res := run(t, "", args...)
		require.NoError(t, res.err)

		assert.True(t, strings.HasPrefix(res.stdout, "{\n  \"base\": {"), "indented output, got %q", res.stdout)
		var out map[string]map[string]any
		require.NoError(t, json.Unmarshal([]byte(res.stdout), &out))
		assert.Equal(t, baseID, out["base"]["id"])
		assert.Equal(t, "Sales", out["base"]["title"])
	})

	t.Run("arguments from stdin", func(t *testing.T) {
		args := append([]string{"call", "get_base_info", "-"}, connArgs(t, srv)...)
		res := run(t, `{"base_id":"`+baseID+`"}`, args...)
		require.NoError(t, res.err)
		assert.Contains(t, res.stdout, `"title": "Sales"`)
	})

	t.Run("default base from flag", func(t *testing.T) {
		args := append([]string{"call", "get_base_info", "--default-base", baseID}, connArgs(t, srv)...)
		res := run(t, "", args...)
		require.NoError(t, res.err)
		assert.Contains(t, res.stdout, `"id": "`+baseID+`"`)
	})

	t.Run("credentials from environment", func(t *testing.T) {
		t.Setenv(config.EnvBaseURL, srv.URL)
		t.Setenv(config.EnvAPIToken, nocodbtest.Token)
		res := run(t, "", "call", "list_bases", "--config-dir", t.TempDir())
		require.NoError(t, res.err)
		assert.Contains(t, res.stdout, `"count": 1`)
	})

	t.Run("verbose logs round trips", func(t *testing.T) {
		args := append([]string{"call", "list_bases", "--verbose"}, connArgs(t, srv)...)
		res := run(t, "", args...)
		require.NoError(t, res.err)
		assert.Contains(t, res.stderr, "nocodb-mcp: ")
		assert.Contains(t, res.stderr, "/api/v1/db/meta/projects")
	})
}

func TestCallCommandErrors(t *testing.T) {
	isolate(t)
	srv := nocodbtest.NewServer(t)

	tests := []struct {
		name     string
		args     []string
		prepare  func()
		wantKind error
		wantCode int
		wantText string
	}{
		{
			name:     "missing credentials",
			args:     []string{"call", "list_bases", "--config-dir", t.TempDir(), "--base-url", srv.URL},
			wantKind: types.ErrCredentialsMissing,
			wantCode: exitUserError,
		},
		{
			name:     "invalid base url",
			args:     []string{"call", "list_bases", "--config-dir", t.TempDir(), "--base-url", "noco.local", "--api-token", "x"},
			wantKind: types.ErrBaseURLInvalid,
			wantCode: exitUserError,
		},
		{
			name:     "arguments are not JSON",
			args:     append([]string{"call", "list_bases", "{oops"}, connArgs(t, srv)...),
			wantCode: exitUserError,
			wantText: "arguments are not valid JSON",
		},
		{
			name:     "unknown tool",
			args:     append([]string{"call", "nope"}, connArgs(t, srv)...),
			wantKind: types.ErrNotFound,
			wantCode: exitUserError,
		},
		{
			name:     "missing argument",
			args:     append([]string{"call", "get_base_info"}, connArgs(t, srv)...),
			wantKind: types.ErrInvalidArgument,
			wantCode: exitUserError,
		},
		{
			name:     "backend failure",
			args:     append([]string{"call", "list_bases"}, connArgs(t, srv)...),
			prepare:  func() { srv.FailNext("/api/v1/db/meta/projects", 500, `{"msg":"boom"}`) },
			wantKind: types.ErrTransport,
			wantCode: exitSysError,
			wantText: "boom",
		},
		{
			name:     "too many arguments",
			args:     []string{"call", "a", "{}", "extra"},
			wantCode: exitUserError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.prepare != nil {
				tt.prepare()
			}
			res := run(t, "", tt.args...)
			require.Error(t, res.err)
			if tt.wantKind != nil {
				assert.True(t, errors.Is(res.err, tt.wantKind), "got %v", res.err)
			}
			if tt.wantText != "" {
				assert.Contains(t, res.err.Error(), tt.wantText)
			}
			assert.Equal(t, tt.wantCode, exitCode(res.err))
			assert.Empty(t, res.stdout)
		})
	}
}

func TestCallCommandPrintsBackendDetails(t *testing.T) {
	isolate(t)
	srv := nocodbtest.NewServer(t)
	srv.FailNext("/api/v1/db/meta/projects", 422, `{"msg":"bad","code":"E42"}`)

	res := run(t, "", append([]string{"call", "list_bases"}, connArgs(t, srv)...)...)
	require.Error(t, res.err)
	assert.Equal(t, `{"msg":"bad","code":"E42"}`+"\n", res.stderr)
}

func TestServeCommand(t *testing.T) {
	isolate(t)
	srv := nocodbtest.NewServer(t)
	srv.AddBase("Sales")

	input := `{"id":1,"tool":"list_bases"}` + "\n" + `{"id":2,"tool":"tools/list"}` + "\n"
	res := run(t, input, append([]string{"serve"}, connArgs(t, srv)...)...)
	require.NoError(t, res.err)

	responses := decodeLines(t, res.stdout)
	require.Len(t, responses, 2)
	assert.Equal(t, float64(1), responses[0]["result"].(map[string]any)["count"])
	assert.Len(t, responses[1]["result"].(map[string]any)["tools"], 26)
	assert.Contains(t, res.stderr, "serving 26 tools")
}

func TestServeCommandWarnsOnExpiredSession(t *testing.T) {
	isolate(t)
	srv := nocodbtest.NewServer(t)
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": 1}).SignedString([]byte("k"))
	require.NoError(t, err)

	res := run(t, "", "serve", "--config-dir", t.TempDir(), "--base-url", srv.URL,
		"--api-token", nocodbtest.Token, "--auth-token", expired)
	require.NoError(t, res.err)
	assert.Contains(t, res.stderr, "auth token expired at 1970-01-01T00:00:01Z")
}

func TestServeCommandRefusesInvalidConfig(t *testing.T) {
	isolate(t)

	res := run(t, "", "serve", "--config-dir", t.TempDir())
	require.Error(t, res.err)
	assert.True(t, errors.Is(res.err, types.ErrCredentialsMissing))
	assert.Equal(t, exitUserError, exitCode(res.err))
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, exitSuccess},
		{"plain error", errors.New("unknown flag"), exitUserError},
		{"user error", userError(errors.New("bad")), exitUserError},
		{"system error", sysError(errors.New("disk")), exitSysError},
		{"transport", types.Errorf(types.ErrTransport, "boom"), exitSysError},
		{"wrapped transport", fmt.Errorf("call: %w", types.Errorf(types.ErrTransport, "boom")), exitSysError},
		{"not found", types.Errorf(types.ErrNotFound, "Table x not found"), exitUserError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}
