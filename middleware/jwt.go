package middleware

import (
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/kbukum/networkable/validation"
	"github.com/kbukum/networkable/wire"
)

// JWTConfig configures the JWT bearer middleware. Tokens are HMAC-signed.
type JWTConfig struct {
	// Secret is the HMAC signing key.
	Secret string `yaml:"secret" mapstructure:"secret" validate:"required"`
	// Method is HS256 (default), HS384 or HS512.
	Method string `yaml:"method" mapstructure:"method" validate:"omitempty,oneof=HS256 HS384 HS512"`
	// Issuer, Subject and Audience fill the registered claims when set.
	Issuer   string   `yaml:"issuer" mapstructure:"issuer"`
	Subject  string   `yaml:"subject" mapstructure:"subject"`
	Audience []string `yaml:"audience" mapstructure:"audience"`
	// TTL is the token lifetime (default 5m).
	TTL time.Duration `yaml:"ttl" mapstructure:"ttl" validate:"gte=0"`
	// Header receives the token (default Authorization, with a Bearer prefix).
	Header string `yaml:"header" mapstructure:"header"`
}

// ApplyDefaults fills in zero-value fields.
func (c *JWTConfig) ApplyDefaults() {
	if c.Method == "" {
		c.Method = "HS256"
	}
	if c.TTL <= 0 {
		c.TTL = 5 * time.Minute
	}
	if c.Header == "" {
		c.Header = "Authorization"
	}
}

// Validate checks the configuration.
func (c *JWTConfig) Validate() error {
	return validation.Validate(c)
}

func (c *JWTConfig) signingMethod() gojwt.SigningMethod {
	switch c.Method {
	case "HS384":
		return gojwt.SigningMethodHS384
	case "HS512":
		return gojwt.SigningMethodHS512
	default:
		return gojwt.SigningMethodHS256
	}
}

type jwtBearer struct {
	Base
	config JWTConfig
	now    func() time.Time
}

// JWT signs a fresh short-lived token for every request and sets it in
// Prepare. Each token carries a unique jti.
func JWT(cfg JWTConfig) (Middleware, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &jwtBearer{config: cfg, now: time.Now}, nil
}

func (*jwtBearer) Name() string { return "jwt" }

func (j *jwtBearer) Prepare(req *wire.Request) (*wire.Request, error) {
	now := j.now()
	claims := gojwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    j.config.Issuer,
		Subject:   j.config.Subject,
		IssuedAt:  gojwt.NewNumericDate(now),
		NotBefore: gojwt.NewNumericDate(now),
		ExpiresAt: gojwt.NewNumericDate(now.Add(j.config.TTL)),
	}
	if len(j.config.Audience) > 0 {
		claims.Audience = gojwt.ClaimStrings(j.config.Audience)
	}

	signed, err := gojwt.NewWithClaims(j.config.signingMethod(), claims).SignedString([]byte(j.config.Secret))
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	out := req.Clone()
	if j.config.Header == "Authorization" {
		out.Header.Set("Authorization", "Bearer "+signed)
	} else {
		out.Header.Set(j.config.Header, signed)
	}
	return out, nil
}
