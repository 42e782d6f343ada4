package middleware

import (
	"encoding/base64"
	"fmt"

	"github.com/kbukum/networkable/validation"
	"github.com/kbukum/networkable/wire"
)

// AuthType identifies the authentication method.
type AuthType string

const (
	AuthNone   AuthType = ""
	AuthBearer AuthType = "bearer"
	AuthBasic  AuthType = "basic"
	AuthAPIKey AuthType = "api_key"
	AuthCustom AuthType = "custom"
)

// DefaultAPIKeyName is the header or query parameter used for API keys when
// AuthConfig.Name is empty.
const DefaultAPIKeyName = "X-API-Key"

// AuthConfig configures request authentication.
type AuthConfig struct {
	// Type is the authentication method.
	Type AuthType `yaml:"type" mapstructure:"type"`
	// Token is the bearer token (AuthBearer).
	Token string `yaml:"token" mapstructure:"token"`
	// Username and Password are the basic auth credentials (AuthBasic).
	Username string `yaml:"username" mapstructure:"username"`
	Password string `yaml:"password" mapstructure:"password"`
	// Key is the API key value (AuthAPIKey).
	Key string `yaml:"key" mapstructure:"key"`
	// In is where the API key goes: "header" (default) or "query".
	In string `yaml:"in" mapstructure:"in"`
	// Name is the header or query parameter name of the API key.
	Name string `yaml:"name" mapstructure:"name"`
	// Apply modifies the request (AuthCustom). It receives a clone.
	Apply func(*wire.Request) error `yaml:"-" mapstructure:"-"`
}

// BearerAuth creates a bearer token auth config.
func BearerAuth(token string) *AuthConfig {
	return &AuthConfig{Type: AuthBearer, Token: token}
}

// BasicAuth creates a basic auth config.
func BasicAuth(username, password string) *AuthConfig {
	return &AuthConfig{Type: AuthBasic, Username: username, Password: password}
}

// APIKeyAuth creates an API key auth config sent in the X-API-Key header.
func APIKeyAuth(key string) *AuthConfig {
	return &AuthConfig{Type: AuthAPIKey, Key: key, In: "header", Name: DefaultAPIKeyName}
}

// APIKeyAuthQuery creates an API key auth config sent as a query parameter.
func APIKeyAuthQuery(key, param string) *AuthConfig {
	return &AuthConfig{Type: AuthAPIKey, Key: key, In: "query", Name: param}
}

// CustomAuth creates an auth config backed by fn.
func CustomAuth(fn func(*wire.Request) error) *AuthConfig {
	return &AuthConfig{Type: AuthCustom, Apply: fn}
}

// IsEnabled reports whether the config authenticates requests.
func (a *AuthConfig) IsEnabled() bool {
	return a != nil && a.Type != AuthNone
}

// Validate checks that the fields the type needs are set.
func (a *AuthConfig) Validate() error {
	if !a.IsEnabled() {
		return nil
	}
	v := validation.New().OneOf("type", string(a.Type),
		string(AuthBearer), string(AuthBasic), string(AuthAPIKey), string(AuthCustom))
	switch a.Type {
	case AuthBearer:
		v.Custom(a.Token != "", "token", "is required for bearer auth")
	case AuthBasic:
		v.Custom(a.Username != "", "username", "is required for basic auth")
	case AuthAPIKey:
		v.Custom(a.Key != "", "key", "is required for api_key auth").
			OneOf("in", a.In, "header", "query")
	case AuthCustom:
		v.Custom(a.Apply != nil, "apply", "is required for custom auth")
	}
	return v.Err()
}

type auth struct {
	Base
	config AuthConfig
}

// Auth sets credentials on every request in Prepare. A nil or disabled
// config yields a middleware that passes requests through.
func Auth(cfg *AuthConfig) Middleware {
	if cfg == nil {
		return &auth{}
	}
	return &auth{config: *cfg}
}

func (*auth) Name() string { return "auth" }

func (a *auth) Prepare(req *wire.Request) (*wire.Request, error) {
	cfg := a.config
	if cfg.Type == AuthNone {
		return req, nil
	}

	out := req.Clone()
	switch cfg.Type {
	case AuthBearer:
		out.Header.Set("Authorization", "Bearer "+cfg.Token)
	case AuthBasic:
		creds := base64.StdEncoding.EncodeToString([]byte(cfg.Username + ":" + cfg.Password))
		out.Header.Set("Authorization", "Basic "+creds)
	case AuthAPIKey:
		name := cfg.Name
		if name == "" {
			name = DefaultAPIKeyName
		}
		if cfg.In == "query" {
			q := out.URL.Query()
			q.Set(name, cfg.Key)
			out.URL.RawQuery = q.Encode()
		} else {
			out.Header.Set(name, cfg.Key)
		}
	case AuthCustom:
		if cfg.Apply == nil {
			return nil, fmt.Errorf("custom auth has no apply function")
		}
		if err := cfg.Apply(out); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown auth type %q", cfg.Type)
	}
	return out, nil
}
