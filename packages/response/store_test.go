package response

import (
	"testing"

	"github.com/abdul-hamid-achik/apictl/packages/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonResponse(body string) *http.Response {
	return &http.Response{
		StatusCode: 200,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       []byte(body),
	}
}

func TestStore_PutGet(t *testing.T) {
	store := NewStore()
	resp := jsonResponse(`{"id": 1}`)

	require.NoError(t, store.Put("create-post", resp))

	got, err := store.Get("create-post")
	require.NoError(t, err)
	assert.Same(t, resp, got)
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, []string{"create-post"}, store.Names())
}

func TestStore_PutDuplicate(t *testing.T) {
	store := NewStore()
	require.NoError(t, store.Put("create-post", jsonResponse(`{}`)))

	err := store.Put("create-post", jsonResponse(`{}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateResponse)

	first, gerr := store.Get("create-post")
	require.NoError(t, gerr)
	assert.NotNil(t, first, "the first record stays in place")
}

func TestStore_GetUnknown(t *testing.T) {
	store := NewStore()
	_, err := store.Get("never-ran")
	assert.ErrorIs(t, err, ErrUnknownResponse)
}

func TestStore_Field(t *testing.T) {
	store := NewStore()
	require.NoError(t, store.Put("get-posts", jsonResponse(
		`[{"userId": 1, "title": "first"}, {"userId": 2, "title": "second"}]`)))
	require.NoError(t, store.Put("hello", jsonResponse(
		`{"name": "Galaxy", "age": 13.61, "nested": {"ok": true}, "gone": null}`)))

	tests := []struct {
		name string
		id   string
		path string
		want string
	}{
		{name: "array index then field", id: "get-posts", path: "0.userId", want: "1"},
		{name: "second element", id: "get-posts", path: "1.title", want: "second"},
		{name: "string unquoted", id: "hello", path: "name", want: "Galaxy"},
		{name: "float literal", id: "hello", path: "age", want: "13.61"},
		{name: "bool literal", id: "hello", path: "nested.ok", want: "true"},
		{name: "null is empty", id: "hello", path: "gone", want: ""},
		{name: "object raw json", id: "hello", path: "nested", want: `{"ok": true}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Field(tt.id, tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStore_FieldErrors(t *testing.T) {
	store := NewStore()
	require.NoError(t, store.Put("hello", jsonResponse(`{"name": "Galaxy"}`)))
	require.NoError(t, store.Put("plain", &http.Response{
		StatusCode: 200,
		Headers:    map[string]string{"Content-Type": "text/plain"},
		Body:       []byte("just text"),
	}))

	_, err := store.Field("missing", "name")
	assert.ErrorIs(t, err, ErrUnknownResponse)

	_, err = store.Field("hello", "some.bad.one")
	assert.ErrorIs(t, err, ErrFieldNotFound)

	_, err = store.Field("plain", "name")
	assert.ErrorIs(t, err, ErrFieldNotFound)
}

func TestStore_FieldWithoutContentType(t *testing.T) {
	// Bodies that parse as JSON are addressable even without a JSON
	// content type.
	store := NewStore()
	require.NoError(t, store.Put("loose", &http.Response{
		StatusCode: 200,
		Headers:    map[string]string{"Content-Type": "text/plain"},
		Body:       []byte(`{"ok": true}`),
	}))

	got, err := store.Field("loose", "ok")
	require.NoError(t, err)
	assert.Equal(t, "true", got)
}

func TestStore_FieldWholeBody(t *testing.T) {
	store := NewStore()
	require.NoError(t, store.Put("hello", jsonResponse(`{"name": "Galaxy"}`)))

	got, err := store.Field("hello", "")
	require.NoError(t, err)
	assert.Equal(t, `{"name": "Galaxy"}`, got)
}
