package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_SingleFile(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "apictl.yaml", `
contexts:
  local:
    base_url: http://localhost:3000
requests:
  get-posts:
    description: fetch all posts
    url: ${base_url}/posts
tests:
  smoke:
    description: basic smoke test
    steps:
      - name: list posts
        request: get-posts
        asserts:
          - type: status_code
            value: 200
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.BaseDir())
	require.Contains(t, cfg.Contexts, "local")
	assert.Equal(t, "http://localhost:3000", cfg.Contexts["local"]["base_url"])

	req := cfg.Requests["get-posts"]
	require.NotNil(t, req)
	assert.Equal(t, "GET", req.Method, "method should default to GET")
	assert.Equal(t, "${base_url}/posts", req.URL)

	test := cfg.Tests["smoke"]
	require.NotNil(t, test)
	require.Len(t, test.Steps, 1)
	assert.Equal(t, "get-posts", test.Steps[0].Request)
	require.Len(t, test.Steps[0].Asserts, 1)
	assert.Equal(t, AssertStatusCode, test.Steps[0].Asserts[0].Kind)
	assert.Equal(t, 200, test.Steps[0].Asserts[0].Status)
}

func TestLoad_Directory(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "01-base.yaml", `
contexts:
  local:
    base_url: http://localhost:3000
requests:
  ping:
    url: ${base_url}/ping
    method: HEAD
`)
	writeConfig(t, dir, "02-override.yml", `
contexts:
  local:
    base_url: http://localhost:8080
requests:
  health:
    url: ${base_url}/health
`)
	writeConfig(t, dir, "notes.txt", "not yaml, ignored")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.BaseDir())
	assert.Equal(t, "http://localhost:8080", cfg.Contexts["local"]["base_url"],
		"later files win on key clashes")
	assert.Len(t, cfg.Requests, 2)
	assert.Equal(t, "HEAD", cfg.Requests["ping"].Method)
}

func TestLoad_MissingPath(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_EmptyDirectory(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "broken.yaml", "requests: [not: valid")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_UnknownKey(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "typo.yaml", `
request:
  get-posts:
    url: http://localhost:3000/posts
`)
	_, err := Load(path)
	require.Error(t, err, "misspelled sections should not be silently dropped")
	assert.Contains(t, err.Error(), "request")
}

func TestLoad_CommentsOnly(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "empty.yaml", "# nothing configured yet\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, cfg.Requests)
	assert.Empty(t, cfg.Tests)
}

func TestMergeContexts(t *testing.T) {
	merged := MergeContexts(
		Context{"base_url": "http://localhost:3000", "token": "abc"},
		Context{"base_url": "https://staging.example.com"},
	)
	assert.Equal(t, "https://staging.example.com", merged["base_url"])
	assert.Equal(t, "abc", merged["token"])

	assert.Empty(t, MergeContexts(), "merging nothing yields an empty set")
}

func TestMergeNamed(t *testing.T) {
	cfg := &Config{
		Contexts: map[string]Context{
			"defaults": {"base_url": "http://localhost:3000", "token": "abc"},
			"staging":  {"base_url": "https://staging.example.com"},
		},
	}

	vars, err := cfg.MergeNamed("defaults", "staging")
	require.NoError(t, err)
	assert.Equal(t, "https://staging.example.com", vars["base_url"],
		"later contexts override earlier ones")
	assert.Equal(t, "abc", vars["token"])

	vars, err = cfg.MergeNamed("staging", "defaults")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3000", vars["base_url"])
}

func TestMergeNamed_Unknown(t *testing.T) {
	cfg := &Config{Contexts: map[string]Context{}}
	_, err := cfg.MergeNamed("production")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context not found")
}

func TestValidate(t *testing.T) {
	valid := &Config{
		Requests: map[string]*Request{
			"create": {URL: "http://localhost/posts", Method: "POST"},
			"fetch":  {URL: "http://localhost/posts/1", Method: "GET"},
		},
		Tests: map[string]*Test{
			"crud": {Steps: []*Step{
				{Name: "create", Request: "create"},
				{Name: "fetch", Request: "fetch"},
			}},
		},
	}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name: "unknown request reference",
			mutate: func(c *Config) {
				c.Tests["crud"].Steps[1].Request = "missing"
			},
			wantErr: "unknown request",
		},
		{
			name: "duplicate request reference",
			mutate: func(c *Config) {
				c.Tests["crud"].Steps[1].Request = "create"
			},
			wantErr: "more than once",
		},
		{
			name: "test without steps",
			mutate: func(c *Config) {
				c.Tests["crud"].Steps = nil
			},
			wantErr: "no steps",
		},
		{
			name: "request without url",
			mutate: func(c *Config) {
				c.Requests["create"].URL = ""
			},
			wantErr: "no url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Requests: map[string]*Request{
					"create": {URL: "http://localhost/posts", Method: "POST"},
					"fetch":  {URL: "http://localhost/posts/1", Method: "GET"},
				},
				Tests: map[string]*Test{
					"crud": {Steps: []*Step{
						{Name: "create", Request: "create"},
						{Name: "fetch", Request: "fetch"},
					}},
				},
			}
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSortedNames(t *testing.T) {
	cfg := &Config{
		Requests: map[string]*Request{"b": {}, "a": {}, "c": {}},
		Tests:    map[string]*Test{"z": {}, "y": {}},
		Contexts: map[string]Context{"local": {}},
	}
	assert.Equal(t, []string{"a", "b", "c"}, cfg.RequestNames())
	assert.Equal(t, []string{"y", "z"}, cfg.TestNames())
	assert.Equal(t, []string{"local"}, cfg.ContextNames())
}
