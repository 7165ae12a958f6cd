package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is a parsed apictl document, the merge of every file that was
// loaded.
type Config struct {
	Contexts map[string]Context  `yaml:"contexts,omitempty"`
	Requests map[string]*Request `yaml:"requests,omitempty"`
	Tests    map[string]*Test    `yaml:"tests,omitempty"`

	baseDir string
}

// Load reads configuration from path. A directory loads every .yaml and .yml
// file in it, in lexical order, merging later documents over earlier ones.
func Load(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}
	if info.IsDir() {
		return loadDir(path)
	}
	cfg, err := loadFile(path)
	if err != nil {
		return nil, err
	}
	cfg.baseDir = filepath.Dir(path)
	return cfg, nil
}

func loadDir(dir string) (*Config, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read config %q: %w", dir, err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".yaml", ".yml":
			names = append(names, entry.Name())
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no configuration files in %q", dir)
	}
	sort.Strings(names)

	merged := &Config{baseDir: dir}
	for _, name := range names {
		cfg, err := loadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		merged.merge(cfg)
	}
	return merged, nil
}

func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	// A file holding only comments decodes to nothing, which is fine.
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config %q: %w", path, err)
	}
	return &cfg, nil
}

// merge folds other into c section by section, other winning on key clashes.
func (c *Config) merge(other *Config) {
	if len(other.Contexts) > 0 {
		if c.Contexts == nil {
			c.Contexts = make(map[string]Context, len(other.Contexts))
		}
		for name, ctx := range other.Contexts {
			c.Contexts[name] = ctx
		}
	}
	if len(other.Requests) > 0 {
		if c.Requests == nil {
			c.Requests = make(map[string]*Request, len(other.Requests))
		}
		for name, req := range other.Requests {
			c.Requests[name] = req
		}
	}
	if len(other.Tests) > 0 {
		if c.Tests == nil {
			c.Tests = make(map[string]*Test, len(other.Tests))
		}
		for name, test := range other.Tests {
			c.Tests[name] = test
		}
	}
}

// BaseDir returns the directory configuration was loaded from. File paths in
// payloads and schema assertions resolve against it.
func (c *Config) BaseDir() string {
	return c.baseDir
}

// MergeContexts flattens contexts into one variable set, later contexts
// overriding earlier ones on key collisions.
func MergeContexts(contexts ...Context) Context {
	merged := make(Context)
	for _, ctx := range contexts {
		for k, v := range ctx {
			merged[k] = v
		}
	}
	return merged
}

// MergeNamed looks up the named contexts and flattens them with
// MergeContexts. Unknown names are an error.
func (c *Config) MergeNamed(names ...string) (Context, error) {
	ordered := make([]Context, 0, len(names))
	for _, name := range names {
		ctx, ok := c.Contexts[name]
		if !ok {
			return nil, fmt.Errorf("context not found: %q", name)
		}
		ordered = append(ordered, ctx)
	}
	return MergeContexts(ordered...), nil
}

// ContextNames returns the context identifiers in sorted order.
func (c *Config) ContextNames() []string {
	return sortedKeys(c.Contexts)
}

// RequestNames returns the request identifiers in sorted order.
func (c *Config) RequestNames() []string {
	return sortedKeys(c.Requests)
}

// TestNames returns the test identifiers in sorted order.
func (c *Config) TestNames() []string {
	return sortedKeys(c.Tests)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Validate checks cross references before execution: every request needs a
// URL, every step must name a known request, and no test may execute the
// same request twice since responses are recorded once per request name.
func (c *Config) Validate() error {
	for _, name := range c.RequestNames() {
		if c.Requests[name].URL == "" {
			return fmt.Errorf("request %q has no url", name)
		}
	}
	for _, name := range c.TestNames() {
		test := c.Tests[name]
		if len(test.Steps) == 0 {
			return fmt.Errorf("test %q has no steps", name)
		}
		seen := make(map[string]bool, len(test.Steps))
		for _, step := range test.Steps {
			if step.Request == "" {
				return fmt.Errorf("test %q: step %q names no request", name, step.Name)
			}
			if _, ok := c.Requests[step.Request]; !ok {
				return fmt.Errorf("test %q: unknown request %q", name, step.Request)
			}
			if seen[step.Request] {
				return fmt.Errorf("test %q: request %q is used more than once", name, step.Request)
			}
			seen[step.Request] = true
		}
	}
	return nil
}
