package http

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"testing"

	"github.com/abdul-hamid-achik/apictl/packages/core/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identity(s string) (string, error) {
	return s, nil
}

func TestBuildBody_None(t *testing.T) {
	contentType, body, err := BuildBody(&config.Payload{}, identity, "")
	require.NoError(t, err)
	assert.Empty(t, contentType)
	assert.Nil(t, body)
}

func TestBuildBody_RawText(t *testing.T) {
	p := &config.Payload{
		Kind: config.PayloadRaw,
		Raw:  &config.RawSource{Kind: config.RawText, Data: `{"title": "hello"}`},
	}

	contentType, body, err := BuildBody(p, identity, "")
	require.NoError(t, err)
	assert.Empty(t, contentType, "raw bodies carry no implied content type")
	assert.Equal(t, `{"title": "hello"}`, string(body))
}

func TestBuildBody_RawFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "post.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"id": 7}`), 0o644))

	p := &config.Payload{
		Kind: config.PayloadRaw,
		Raw:  &config.RawSource{Kind: config.RawFile, Path: "post.json"},
	}

	_, body, err := BuildBody(p, identity, dir)
	require.NoError(t, err)
	assert.Equal(t, `{"id": 7}`, string(body))
}

func TestBuildBody_RawFileMissing(t *testing.T) {
	p := &config.Payload{
		Kind: config.PayloadRaw,
		Raw:  &config.RawSource{Kind: config.RawFile, Path: "missing.json"},
	}

	_, _, err := BuildBody(p, identity, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read body file")
}

func TestEncodeForm_KeepsDeclarationOrder(t *testing.T) {
	fields := []config.FormField{
		{Name: "userId", Value: "1"},
		{Name: "title", Value: "use apictl in my own repo"},
		{Name: "completed", Value: "false"},
	}

	body, err := EncodeForm(fields, identity)
	require.NoError(t, err)
	assert.Equal(t, "userId=1&title=use+apictl+in+my+own+repo&completed=false", string(body))
}

func TestEncodeForm_EscapesReservedCharacters(t *testing.T) {
	fields := []config.FormField{
		{Name: "q", Value: "a&b=c"},
		{Name: "note", Value: "50% done"},
	}

	body, err := EncodeForm(fields, identity)
	require.NoError(t, err)
	assert.Equal(t, "q=a%26b%3Dc&note=50%25+done", string(body))
}

func TestBuildBody_FormContentType(t *testing.T) {
	p := &config.Payload{
		Kind: config.PayloadForm,
		Form: []config.FormField{{Name: "a", Value: "1"}},
	}

	contentType, body, err := BuildBody(p, identity, "")
	require.NoError(t, err)
	assert.Equal(t, FormContentType, contentType)
	assert.Equal(t, "a=1", string(body))
}

func TestBuildBody_Multipart(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "data.bin")
	require.NoError(t, os.WriteFile(filePath, []byte("file-bytes"), 0o644))

	p := &config.Payload{
		Kind: config.PayloadMultipart,
		Fields: []config.MultipartField{
			{Name: "title", Kind: config.FieldText, Data: "a report"},
			{Name: "attachment", Kind: config.FieldFile, Path: "data.bin"},
		},
	}

	contentType, body, err := BuildBody(p, identity, dir)
	require.NoError(t, err)

	mediaType, params, err := mime.ParseMediaType(contentType)
	require.NoError(t, err)
	assert.Equal(t, "multipart/form-data", mediaType)

	reader := multipart.NewReader(bytes.NewReader(body), params["boundary"])

	part, err := reader.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "title", part.FormName())
	data, _ := io.ReadAll(part)
	assert.Equal(t, "a report", string(data))

	part, err = reader.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "attachment", part.FormName())
	assert.Equal(t, "data.bin", part.FileName())
	data, _ = io.ReadAll(part)
	assert.Equal(t, "file-bytes", string(data))

	_, err = reader.NextPart()
	assert.Equal(t, io.EOF, err)
}

func TestBuildBody_MultipartMissingFile(t *testing.T) {
	p := &config.Payload{
		Kind: config.PayloadMultipart,
		Fields: []config.MultipartField{
			{Name: "attachment", Kind: config.FieldFile, Path: "nope.bin"},
		},
	}

	_, _, err := BuildBody(p, identity, t.TempDir())
	assert.Error(t, err)
}

func TestBuildBody_ResolvesValues(t *testing.T) {
	resolve := func(s string) (string, error) {
		if s == "${title}" {
			return "resolved title", nil
		}
		return s, nil
	}

	p := &config.Payload{
		Kind: config.PayloadForm,
		Form: []config.FormField{{Name: "title", Value: "${title}"}},
	}

	_, body, err := BuildBody(p, resolve, "")
	require.NoError(t, err)
	assert.Equal(t, "title=resolved+title", string(body))
}
