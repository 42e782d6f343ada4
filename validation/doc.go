// Package validation checks configuration structs before they are used to
// assemble sessions and transports.
//
// Struct tags are validated with github.com/go-playground/validator/v10.
// Field names in errors are the mapstructure keys, so they match the keys
// in config files:
//
//	type Config struct {
//	    BaseURL string        `mapstructure:"base_url" validate:"required,url"`
//	    Timeout time.Duration `mapstructure:"timeout" validate:"gte=0"`
//	}
//	err := validation.Validate(cfg) // INVALID_CONFIG: base_url: is required
//
// Cross-field rules that tags cannot express go through a Validator:
//
//	v := validation.New()
//	v.Custom(cfg.H2C == false || cfg.Transport == "http", "h2c", "requires the http transport")
//	return v.Err()
package validation
