package codec

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/textproto"
	"sort"
	"strings"
)

// Multipart is a multipart/form-data body. Pass it, or a pointer to it, as
// a request body and the builder encodes it with a fresh boundary.
type Multipart struct {
	// Fields are plain form fields, written in key order.
	Fields map[string]string
	// Files are file parts, written after the fields in slice order.
	Files []File
}

// File is one file part of a Multipart body.
type File struct {
	// FieldName is the form field name, e.g. "file".
	FieldName string
	// FileName is the file name sent to the server.
	FileName string
	// ContentType defaults to application/octet-stream.
	ContentType string
	// Data is the content. Reader is used when Data is nil.
	Data   []byte
	Reader io.Reader
}

// Encode returns the encoded body and its Content-Type, which carries the
// boundary.
func (m *Multipart) Encode() ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(m.Fields))
	for k := range m.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := w.WriteField(k, m.Fields[k]); err != nil {
			return nil, "", err
		}
	}

	for _, f := range m.Files {
		var (
			part io.Writer
			err  error
		)
		if f.ContentType != "" {
			h := make(textproto.MIMEHeader)
			h.Set("Content-Disposition",
				`form-data; name="`+escapeQuotes(f.FieldName)+`"; filename="`+escapeQuotes(f.FileName)+`"`)
			h.Set("Content-Type", f.ContentType)
			part, err = w.CreatePart(h)
		} else {
			part, err = w.CreateFormFile(f.FieldName, f.FileName)
		}
		if err != nil {
			return nil, "", err
		}
		switch {
		case f.Data != nil:
			_, err = part.Write(f.Data)
		case f.Reader != nil:
			_, err = io.Copy(part, f.Reader)
		}
		if err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func escapeQuotes(s string) string { return quoteEscaper.Replace(s) }
