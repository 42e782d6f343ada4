// Package builder resolves abstract requests into wire requests.
//
// A Builder joins the request path onto a configured base URL, appends the
// query, merges default and request headers, and encodes the body. Build is
// pure: the same request and configuration always produce the same wire
// request.
package builder

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/kbukum/networkable/codec"
	"github.com/kbukum/networkable/errors"
	"github.com/kbukum/networkable/request"
	"github.com/kbukum/networkable/wire"
)

// Config configures a Builder.
type Config struct {
	// BaseURL is prepended to relative request paths. Leave empty to require
	// absolute URLs in every request.
	BaseURL string `yaml:"base_url" mapstructure:"base_url" validate:"omitempty,url"`

	// Headers are default headers applied to all requests. Request headers win.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`

	// Encoder encodes structured bodies. Defaults to codec.JSON.
	Encoder codec.Encoder `yaml:"-" mapstructure:"-"`
}

// Builder turns request.Request values into wire.Request values.
type Builder struct {
	base    string
	headers http.Header
	encoder codec.Encoder
}

// New creates a Builder. It fails if BaseURL is set but is not an absolute URL.
func New(cfg Config) (*Builder, error) {
	b := &Builder{
		headers: make(http.Header, len(cfg.Headers)),
		encoder: cfg.Encoder,
	}
	if b.encoder == nil {
		b.encoder = codec.JSON
	}
	for k, v := range cfg.Headers {
		b.headers.Set(k, v)
	}

	if cfg.BaseURL != "" {
		u, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("builder: invalid base url: %w", err)
		}
		if u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("builder: base url must be absolute (got %q)", cfg.BaseURL)
		}
		b.base = strings.TrimRight(cfg.BaseURL, "/")
	}
	return b, nil
}

// Build resolves req into a wire request. It fails with an INVALID_REQUEST
// error when the method is not a valid token, the URL cannot be resolved, or
// the body cannot be encoded.
func (b *Builder) Build(req request.Request) (*wire.Request, error) {
	method := string(req.Method)
	if method == "" {
		method = http.MethodGet
	}
	if !validMethod(method) {
		return nil, errors.InvalidRequest(fmt.Sprintf("invalid method %q", method), nil)
	}

	u, err := b.resolve(req.Path)
	if err != nil {
		return nil, err
	}
	if q := req.Query.Encode(); q != "" {
		if u.RawQuery != "" {
			u.RawQuery += "&" + q
		} else {
			u.RawQuery = q
		}
	}

	body, contentType, err := b.encodeBody(req.Body)
	if err != nil {
		return nil, errors.InvalidRequest("encode body", err)
	}

	header := b.headers.Clone()
	for k, v := range req.Headers {
		header.Set(k, v)
	}
	if body != nil && contentType != "" && header.Get("Content-Type") == "" {
		header.Set("Content-Type", contentType)
	}

	return &wire.Request{
		Method: method,
		URL:    u,
		Header: header,
		Body:   body,
	}, nil
}

// resolve joins path onto the base URL, or accepts path as an absolute URL.
func (b *Builder) resolve(path string) (*url.URL, error) {
	raw := path
	if !isAbsolute(path) {
		if b.base == "" {
			return nil, errors.InvalidRequest(fmt.Sprintf("relative path %q without base url", path), nil)
		}
		raw = b.base
		if trimmed := strings.TrimLeft(path, "/"); trimmed != "" {
			raw += "/" + trimmed
		}
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, errors.InvalidRequest(fmt.Sprintf("malformed url %q", raw), err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.InvalidRequest(fmt.Sprintf("url %q is not absolute", raw), nil)
	}
	return u, nil
}

// encodeBody converts a body value into bytes and a content type.
func (b *Builder) encodeBody(body any) ([]byte, string, error) {
	if body == nil {
		return nil, "", nil
	}
	switch v := body.(type) {
	case []byte:
		return v, "", nil
	case string:
		return []byte(v), codec.ContentTypeText, nil
	case codec.Multipart:
		return v.Encode()
	case *codec.Multipart:
		return v.Encode()
	case io.Reader:
		data, err := io.ReadAll(v)
		if err != nil {
			return nil, "", err
		}
		return data, "", nil
	default:
		data, err := b.encoder.Encode(v)
		if err != nil {
			return nil, "", err
		}
		return data, b.encoder.ContentType(), nil
	}
}

func isAbsolute(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

// validMethod reports whether m is an RFC 9110 token.
func validMethod(m string) bool {
	for i := 0; i < len(m); i++ {
		c := m[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case strings.IndexByte("!#$%&'*+-.^_`|~", c) >= 0:
		default:
			return false
		}
	}
	return m != ""
}
