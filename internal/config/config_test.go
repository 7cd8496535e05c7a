package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/andrewlwn77/nocodb-mcp/pkg/types"
)

// clearEnv unsets the NocoDB variables for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, b := range envBindings {
		t.Setenv(b[1], "")
		require.NoError(t, os.Unsetenv(b[1]))
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(Options{ConfigDir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, types.Config{BaseURL: types.DefaultBaseURL}, cfg)
}

func TestLoadPrecedence(t *testing.T) {
	tests := []struct {
		name      string
		file      string
		dotenv    string
		env       map[string]string
		overrides Overrides
		want      types.Config
	}{
		{
			name: "config file only",
			file: "base_url: http://file:1\napi_token: file-token\ndefault_base: p_file\n",
			want: types.Config{BaseURL: "http://file:1", APIToken: "file-token", DefaultBase: "p_file"},
		},
		{
			name:   "dotenv beats config file",
			file:   "base_url: http://file:1\napi_token: file-token\n",
			dotenv: "NOCODB_API_TOKEN=dotenv-token\n",
			want:   types.Config{BaseURL: "http://file:1", APIToken: "dotenv-token"},
		},
		{
			name:   "environment beats dotenv",
			dotenv: "NOCODB_API_TOKEN=dotenv-token\n",
			env:    map[string]string{EnvAPIToken: "env-token", EnvAuthToken: "session"},
			want:   types.Config{BaseURL: types.DefaultBaseURL, APIToken: "env-token", AuthToken: "session"},
		},
		{
			name:      "overrides beat everything",
			file:      "base_url: http://file:1\n",
			env:       map[string]string{EnvBaseURL: "http://env:2", EnvDefaultBase: "p_env"},
			overrides: Overrides{BaseURL: "http://flag:3", APIToken: "flag-token"},
			want:      types.Config{BaseURL: "http://flag:3", APIToken: "flag-token", DefaultBase: "p_env"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			configDir := t.TempDir()
			if tt.file != "" {
				writeFile(t, configDir, "config.yaml", tt.file)
			}
			var envFile string
			if tt.dotenv != "" {
				envFile = writeFile(t, t.TempDir(), ".env", tt.dotenv)
			}

			cfg, err := Load(Options{ConfigDir: configDir, EnvFile: envFile, Overrides: tt.overrides})
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg)
		})
	}
}

func TestLoadMissingEnvFileIsIgnored(t *testing.T) {
	clearEnv(t)
	_, err := Load(Options{EnvFile: filepath.Join(t.TempDir(), ".env")})
	assert.NoError(t, err)
}

func TestLoadRejectsMalformedConfig(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", "base_url: [unclosed\n")

	_, err := Load(Options{ConfigDir: dir})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestWriteDefault(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "nocodb-mcp")

	path, created, err := WriteDefault(dir, types.Config{DefaultBase: "p_1", APIToken: "secret"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, filepath.Join(dir, "config.yaml"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")

	var got fileConfig
	require.NoError(t, yaml.Unmarshal(data, &got))
	assert.Equal(t, fileConfig{BaseURL: types.DefaultBaseURL, DefaultBase: "p_1"}, got)

	t.Run("idempotent", func(t *testing.T) {
		writeFile(t, dir, "config.yaml", "base_url: http://kept:1\n")
		_, created, err := WriteDefault(dir, types.Config{})
		require.NoError(t, err)
		assert.False(t, created)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "base_url: http://kept:1\n", string(data))
	})
}
