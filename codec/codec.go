// Package codec encodes request bodies and decodes response bodies.
//
// The JSON codec is backed by github.com/goccy/go-json and the YAML codec by
// github.com/goccy/go-yaml. Both are drop-in compatible with the standard
// struct tags ("json", "yaml").
package codec

import (
	"bytes"
	"fmt"
	"net/url"

	json "github.com/goccy/go-json"
	"github.com/goccy/go-yaml"
)

// Encoder turns a value into body bytes.
type Encoder interface {
	// ContentType is the media type of the encoded bytes.
	ContentType() string
	// Encode returns the encoded form of v.
	Encode(v any) ([]byte, error)
}

// Decoder turns body bytes into a value.
type Decoder interface {
	// Decode parses data into the value pointed to by v.
	Decode(data []byte, v any) error
}

// Codec is both an Encoder and a Decoder.
type Codec interface {
	Encoder
	Decoder
}

// Content types.
const (
	ContentTypeJSON = "application/json"
	ContentTypeYAML = "application/yaml"
	ContentTypeForm = "application/x-www-form-urlencoded"
	ContentTypeText = "text/plain; charset=utf-8"
)

var (
	// JSON encodes and decodes JSON.
	JSON Codec = jsonCodec{}
	// StrictJSON is JSON that rejects unknown object fields when decoding.
	StrictJSON Codec = jsonCodec{strict: true}
	// YAML encodes and decodes YAML.
	YAML Codec = yamlCodec{}
	// Form encodes url.Values, map[string]string and map[string][]string
	// as application/x-www-form-urlencoded.
	Form Encoder = formEncoder{}
	// Raw decodes into *[]byte or *string without interpretation.
	Raw Decoder = rawDecoder{}
)

type jsonCodec struct {
	strict bool
}

func (jsonCodec) ContentType() string { return ContentTypeJSON }

func (jsonCodec) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (c jsonCodec) Decode(data []byte, v any) error {
	if !c.strict {
		return json.Unmarshal(data, v)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

type yamlCodec struct{}

func (yamlCodec) ContentType() string { return ContentTypeYAML }

func (yamlCodec) Encode(v any) ([]byte, error) {
	return yaml.Marshal(v)
}

func (yamlCodec) Decode(data []byte, v any) error {
	return yaml.Unmarshal(data, v)
}

type formEncoder struct{}

func (formEncoder) ContentType() string { return ContentTypeForm }

func (formEncoder) Encode(v any) ([]byte, error) {
	switch f := v.(type) {
	case url.Values:
		return []byte(f.Encode()), nil
	case map[string][]string:
		return []byte(url.Values(f).Encode()), nil
	case map[string]string:
		values := make(url.Values, len(f))
		for k, val := range f {
			values.Set(k, val)
		}
		return []byte(values.Encode()), nil
	default:
		return nil, fmt.Errorf("codec: form encoder does not support %T", v)
	}
}

type rawDecoder struct{}

func (rawDecoder) Decode(data []byte, v any) error {
	switch p := v.(type) {
	case *[]byte:
		*p = append((*p)[:0], data...)
		return nil
	case *string:
		*p = string(data)
		return nil
	default:
		return fmt.Errorf("codec: raw decoder does not support %T", v)
	}
}
