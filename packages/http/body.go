package http

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/abdul-hamid-achik/apictl/packages/core/config"
)

// FormContentType is the content type of urlencoded form payloads.
const FormContentType = "application/x-www-form-urlencoded"

// BuildBody renders a payload into body bytes plus the content type the
// encoding implies, if any. Field values run through resolve; file contents
// are sent verbatim, only their paths resolve.
func BuildBody(p *config.Payload, resolve ResolveFunc, baseDir string) (string, []byte, error) {
	switch p.Kind {
	case "", config.PayloadNone:
		return "", nil, nil
	case config.PayloadRaw:
		return buildRawBody(p.Raw, resolve, baseDir)
	case config.PayloadForm:
		body, err := EncodeForm(p.Form, resolve)
		if err != nil {
			return "", nil, err
		}
		return FormContentType, body, nil
	case config.PayloadMultipart:
		return buildMultipartBody(p.Fields, resolve, baseDir)
	}
	return "", nil, fmt.Errorf("unknown payload type %q", p.Kind)
}

func buildRawBody(raw *config.RawSource, resolve ResolveFunc, baseDir string) (string, []byte, error) {
	if raw == nil {
		return "", nil, nil
	}
	switch raw.Kind {
	case config.RawText:
		data, err := resolve(raw.Data)
		if err != nil {
			return "", nil, err
		}
		return "", []byte(data), nil
	case config.RawFile:
		path, err := resolve(raw.Path)
		if err != nil {
			return "", nil, err
		}
		data, err := readBaseFile(path, baseDir)
		if err != nil {
			return "", nil, fmt.Errorf("read body file: %w", err)
		}
		return "", data, nil
	}
	return "", nil, fmt.Errorf("unknown raw body type %q", raw.Kind)
}

// EncodeForm urlencodes form fields, preserving their declaration order.
func EncodeForm(fields []config.FormField, resolve ResolveFunc) ([]byte, error) {
	var b strings.Builder
	for i, field := range fields {
		value, err := resolve(field.Value)
		if err != nil {
			return nil, err
		}
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(field.Name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(value))
	}
	return []byte(b.String()), nil
}

func buildMultipartBody(fields []config.MultipartField, resolve ResolveFunc, baseDir string) (string, []byte, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for _, field := range fields {
		switch field.Kind {
		case config.FieldText:
			value, err := resolve(field.Data)
			if err != nil {
				return "", nil, err
			}
			if err := writer.WriteField(field.Name, value); err != nil {
				return "", nil, err
			}
		case config.FieldFile:
			path, err := resolve(field.Path)
			if err != nil {
				return "", nil, err
			}
			if err := writeFilePart(writer, field.Name, path, baseDir); err != nil {
				return "", nil, err
			}
		default:
			return "", nil, fmt.Errorf("unknown multipart field type %q", field.Kind)
		}
	}

	if err := writer.Close(); err != nil {
		return "", nil, err
	}
	return writer.FormDataContentType(), body.Bytes(), nil
}

func writeFilePart(writer *multipart.Writer, name, path, baseDir string) error {
	filePath := resolveBasePath(path, baseDir)
	if err := validatePathWithinBase(filePath, baseDir); err != nil {
		return err
	}

	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	part, err := writer.CreateFormFile(name, filepath.Base(filePath))
	if err != nil {
		return err
	}
	_, err = io.Copy(part, file)
	return err
}

func readBaseFile(path, baseDir string) ([]byte, error) {
	filePath := resolveBasePath(path, baseDir)
	if err := validatePathWithinBase(filePath, baseDir); err != nil {
		return nil, err
	}
	return os.ReadFile(filePath)
}

func resolveBasePath(path, baseDir string) string {
	if filepath.IsAbs(path) || baseDir == "" {
		return path
	}
	return filepath.Join(baseDir, path)
}

// validatePathWithinBase checks that the resolved path stays within the base
// directory to prevent path traversal
func validatePathWithinBase(path, baseDir string) error {
	if baseDir == "" {
		return nil
	}

	cleanBase, err := filepath.Abs(baseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base directory: %v", err)
	}

	cleanPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %v", err)
	}

	if !strings.HasPrefix(cleanPath, cleanBase+string(filepath.Separator)) && cleanPath != cleanBase {
		return fmt.Errorf("path traversal detected: %s is outside allowed directory %s", path, baseDir)
	}

	return nil
}
