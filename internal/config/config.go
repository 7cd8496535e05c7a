// Package config loads the nocodb-mcp configuration.
//
// Sources, highest precedence first: command-line overrides, the process
// environment, a .env file in the working directory, config.yaml in the
// config directory, and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/andrewlwn77/nocodb-mcp/internal/paths"
	"github.com/andrewlwn77/nocodb-mcp/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"

	// DefaultEnvFile is the dotenv file read from the working directory.
	DefaultEnvFile = ".env"
)

// Config keys, as they appear in config.yaml.
const (
	KeyBaseURL     = "base_url"
	KeyAPIToken    = "api_token"
	KeyAuthToken   = "auth_token"
	KeyDefaultBase = "default_base"
)

// Environment variables bound to each key.
const (
	EnvBaseURL     = "NOCODB_BASE_URL"
	EnvAPIToken    = "NOCODB_API_TOKEN"
	EnvAuthToken   = "NOCODB_AUTH_TOKEN"
	EnvDefaultBase = "NOCODB_DEFAULT_BASE"
)

var envBindings = [][2]string{
	{KeyBaseURL, EnvBaseURL},
	{KeyAPIToken, EnvAPIToken},
	{KeyAuthToken, EnvAuthToken},
	{KeyDefaultBase, EnvDefaultBase},
}

// defaultConfigHeader is written above the values in a new config.yaml.
const defaultConfigHeader = `# nocodb-mcp configuration
#
# Keys: base_url, api_token, auth_token, default_base.
# Environment variables NOCODB_BASE_URL, NOCODB_API_TOKEN, NOCODB_AUTH_TOKEN
# and NOCODB_DEFAULT_BASE take precedence over this file.

`

// Overrides are values given on the command line. Empty fields are unset.
type Overrides struct {
	BaseURL     string
	APIToken    string
	AuthToken   string
	DefaultBase string
}

func (o Overrides) pairs() [][2]string {
	return [][2]string{
		{KeyBaseURL, o.BaseURL},
		{KeyAPIToken, o.APIToken},
		{KeyAuthToken, o.AuthToken},
		{KeyDefaultBase, o.DefaultBase},
	}
}

// Options controls where Load looks.
type Options struct {
	// ConfigDir holds config.yaml. Empty skips the file.
	ConfigDir string
	// EnvFile is a dotenv file loaded into the environment without
	// replacing variables already set. Empty skips it; a missing file is
	// not an error.
	EnvFile   string
	Overrides Overrides
}

// Load resolves the configuration. It does not validate the result.
func Load(opts Options) (types.Config, error) {
	if err := loadEnvFile(opts.EnvFile); err != nil {
		return types.Config{}, err
	}

	v := viper.New()
	v.SetDefault(KeyBaseURL, types.DefaultBaseURL)
	if opts.ConfigDir != "" {
		v.SetConfigName(configFileName)
		v.SetConfigType(configFileType)
		v.AddConfigPath(opts.ConfigDir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return types.Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	for _, b := range envBindings {
		if err := v.BindEnv(b[0], b[1]); err != nil {
			return types.Config{}, fmt.Errorf("bind %s: %w", b[1], err)
		}
	}
	for _, p := range opts.Overrides.pairs() {
		if p[1] != "" {
			v.Set(p[0], p[1])
		}
	}

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// fileConfig is the structure written to a new config.yaml. Tokens are
// left out so that secrets stay in the environment by default.
type fileConfig struct {
	BaseURL     string `yaml:"base_url"`
	DefaultBase string `yaml:"default_base,omitempty"`
}

// WriteDefault creates configDir and a config.yaml holding cfg's base URL
// and default base, unless the file already exists. It returns the file
// path and whether it was created.
func WriteDefault(configDir string, cfg types.Config) (string, bool, error) {
	path := paths.ConfigFile(configDir)
	if _, err := os.Stat(path); err == nil {
		return path, false, nil
	} else if !os.IsNotExist(err) {
		return path, false, fmt.Errorf("stat config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return path, false, fmt.Errorf("create config directory: %w", err)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = types.DefaultBaseURL
	}
	data, err := yaml.Marshal(&fileConfig{BaseURL: baseURL, DefaultBase: cfg.DefaultBase})
	if err != nil {
		return path, false, fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, append([]byte(defaultConfigHeader), data...), 0o644); err != nil {
		return path, false, err
	}
	return path, true, nil
}
