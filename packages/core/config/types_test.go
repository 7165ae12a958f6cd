package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestPayloadDecode_None(t *testing.T) {
	var req Request
	require.NoError(t, yaml.Unmarshal([]byte(`url: http://localhost/ping`), &req))
	assert.Equal(t, PayloadNone, req.Payload.Kind)

	require.NoError(t, yaml.Unmarshal([]byte("url: http://localhost/ping\npayload:\n  type: none\n"), &req))
	assert.Equal(t, PayloadNone, req.Payload.Kind)
}

func TestPayloadDecode_RawText(t *testing.T) {
	var p Payload
	require.NoError(t, yaml.Unmarshal([]byte(`
type: raw
body:
  type: raw
  data: '{"title": "hello"}'
`), &p))

	assert.Equal(t, PayloadRaw, p.Kind)
	require.NotNil(t, p.Raw)
	assert.Equal(t, RawText, p.Raw.Kind)
	assert.Equal(t, `{"title": "hello"}`, p.Raw.Data)
}

func TestPayloadDecode_RawFile(t *testing.T) {
	var p Payload
	require.NoError(t, yaml.Unmarshal([]byte(`
type: raw
body:
  type: file
  path: ./fixtures/post.json
`), &p))

	assert.Equal(t, PayloadRaw, p.Kind)
	require.NotNil(t, p.Raw)
	assert.Equal(t, RawFile, p.Raw.Kind)
	assert.Equal(t, "./fixtures/post.json", p.Raw.Path)
}

func TestPayloadDecode_FormKeepsOrder(t *testing.T) {
	var p Payload
	require.NoError(t, yaml.Unmarshal([]byte(`
type: form
data:
  userId: "1"
  title: use apictl in my own repo
  completed: false
`), &p))

	assert.Equal(t, PayloadForm, p.Kind)
	require.Len(t, p.Form, 3)
	assert.Equal(t, FormField{Name: "userId", Value: "1"}, p.Form[0])
	assert.Equal(t, FormField{Name: "title", Value: "use apictl in my own repo"}, p.Form[1])
	assert.Equal(t, FormField{Name: "completed", Value: "false"}, p.Form[2])
}

func TestPayloadDecode_Multipart(t *testing.T) {
	var p Payload
	require.NoError(t, yaml.Unmarshal([]byte(`
type: multipart
data:
  title:
    type: text
    data: a screenshot
  attachment:
    type: file
    path: ./fixtures/screenshot.png
`), &p))

	assert.Equal(t, PayloadMultipart, p.Kind)
	require.Len(t, p.Fields, 2)
	assert.Equal(t, MultipartField{Name: "title", Kind: FieldText, Data: "a screenshot"}, p.Fields[0])
	assert.Equal(t, MultipartField{Name: "attachment", Kind: FieldFile, Path: "./fixtures/screenshot.png"}, p.Fields[1])
}

func TestPayloadDecode_Unknown(t *testing.T) {
	var p Payload
	err := yaml.Unmarshal([]byte(`type: graphql`), &p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown payload type")
}

func TestRawSourceDecode_Unknown(t *testing.T) {
	var p Payload
	err := yaml.Unmarshal([]byte(`
type: raw
body:
  type: base64
  data: aGk=
`), &p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown raw body type")
}

func TestMultipartDecode_UnknownFieldType(t *testing.T) {
	var p Payload
	err := yaml.Unmarshal([]byte(`
type: multipart
data:
  blob:
    type: binary
    data: xx
`), &p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown multipart field type")
}

func TestAssertDecode(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want Assert
	}{
		{
			name: "status code",
			yaml: "type: status_code\nvalue: 201",
			want: Assert{Kind: AssertStatusCode, Status: 201},
		},
		{
			name: "header contains",
			yaml: "type: header_contains\nkey: Content-Type\nvalue: application/json",
			want: Assert{Kind: AssertHeaderContains, Key: "Content-Type", Value: "application/json"},
		},
		{
			name: "header equals",
			yaml: "type: header_equals\nkey: X-Request-Id\nvalue: abc",
			want: Assert{Kind: AssertHeaderEquals, Key: "X-Request-Id", Value: "abc"},
		},
		{
			name: "equals with unquoted number",
			yaml: "type: equals\nkey: userId\nvalue: 1",
			want: Assert{Kind: AssertEquals, Key: "userId", Value: "1"},
		},
		{
			name: "equals with unquoted bool",
			yaml: "type: equals\nkey: completed\nvalue: false",
			want: Assert{Kind: AssertEquals, Key: "completed", Value: "false"},
		},
		{
			name: "not equals",
			yaml: "type: not_equals\nkey: id\nvalue: 0",
			want: Assert{Kind: AssertNotEquals, Key: "id", Value: "0"},
		},
		{
			name: "contains",
			yaml: "type: contains\nkey: title\nvalue: apictl",
			want: Assert{Kind: AssertContains, Key: "title", Value: "apictl"},
		},
		{
			name: "has prefix",
			yaml: "type: has_prefix\nkey: title\nvalue: use",
			want: Assert{Kind: AssertHasPrefix, Key: "title", Value: "use"},
		},
		{
			name: "has suffix",
			yaml: "type: has_suffix\nkey: title\nvalue: repo",
			want: Assert{Kind: AssertHasSuffix, Key: "title", Value: "repo"},
		},
		{
			name: "regex",
			yaml: "type: regex\nkey: email\nvalue: '^[^@]+@[^@]+$'",
			want: Assert{Kind: AssertRegex, Key: "email", Value: "^[^@]+@[^@]+$"},
		},
		{
			name: "schema",
			yaml: "type: schema\nkey: ''\nvalue: ./schemas/post.json",
			want: Assert{Kind: AssertSchema, Value: "./schemas/post.json"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a Assert
			require.NoError(t, yaml.Unmarshal([]byte(tt.yaml), &a))
			assert.Equal(t, tt.want, a)
		})
	}
}

func TestAssertDecode_Errors(t *testing.T) {
	var a Assert
	err := yaml.Unmarshal([]byte("type: greater_than\nkey: id\nvalue: 1"), &a)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown assertion type")

	err = yaml.Unmarshal([]byte("key: id\nvalue: 1"), &a)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing a type")
}

func TestAssertString(t *testing.T) {
	tests := []struct {
		assert Assert
		want   string
	}{
		{Assert{Kind: AssertStatusCode, Status: 201}, "status_code == 201"},
		{Assert{Kind: AssertEquals, Key: "userId", Value: "1"}, "equals(userId, 1)"},
		{Assert{Kind: AssertHeaderContains, Key: "Content-Type", Value: "json"}, "header_contains(Content-Type, json)"},
		{Assert{Kind: AssertSchema, Value: "./post.json"}, "schema(body, ./post.json)"},
		{Assert{Kind: AssertSchema, Key: "0", Value: "./post.json"}, "schema(0, ./post.json)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.assert.String())
	}
}

func TestSQLAssertDecode(t *testing.T) {
	var a SQLAssert
	require.NoError(t, yaml.Unmarshal([]byte(`
connection: sqlite://./test.db
query: SELECT COUNT(*) AS count FROM posts
column: count
value: 1
`), &a))

	assert.Equal(t, "sqlite://./test.db", a.Connection)
	assert.Equal(t, "SELECT COUNT(*) AS count FROM posts", a.Query)
	assert.Equal(t, "count", a.Column)
	assert.Equal(t, "1", a.Value)
	assert.Equal(t, "sql(count, 1)", a.String())
}

func TestRequestRoundTrip(t *testing.T) {
	var req Request
	require.NoError(t, yaml.Unmarshal([]byte(`
url: ${base_url}/posts
method: POST
headers:
  Content-Type: application/json
payload:
  type: form
  data:
    userId: "1"
`), &req))

	out, err := yaml.Marshal(&req)
	require.NoError(t, err)

	var again Request
	require.NoError(t, yaml.Unmarshal(out, &again))
	assert.Equal(t, req.URL, again.URL)
	assert.Equal(t, req.Method, again.Method)
	assert.Equal(t, req.Payload.Kind, again.Payload.Kind)
	assert.Equal(t, req.Payload.Form, again.Payload.Form)
}
