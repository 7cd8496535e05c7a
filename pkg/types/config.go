package types

import (
	"errors"
	"net/url"
)

// Config holds the connection parameters for a NocoDB client. At least one
// of APIToken (sent as xc-token) and AuthToken (sent as xc-auth) is required.
type Config struct {
	BaseURL     string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`
	APIToken    string `json:"api_token,omitempty" yaml:"api_token,omitempty" mapstructure:"api_token"`
	AuthToken   string `json:"auth_token,omitempty" yaml:"auth_token,omitempty" mapstructure:"auth_token"`
	DefaultBase string `json:"default_base,omitempty" yaml:"default_base,omitempty" mapstructure:"default_base"`
}

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://localhost:8080"

// Config validation errors.
var (
	ErrBaseURLEmpty       = errors.New("base url must not be empty")
	ErrBaseURLInvalid     = errors.New("base url must be an absolute http(s) url")
	ErrCredentialsMissing = errors.New("api token or auth token must be set")
)

// Validate checks that the Config is usable. It returns one of the
// sentinel errors above on failure.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return ErrBaseURLEmpty
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ErrBaseURLInvalid
	}
	if c.APIToken == "" && c.AuthToken == "" {
		return ErrCredentialsMissing
	}
	return nil
}
