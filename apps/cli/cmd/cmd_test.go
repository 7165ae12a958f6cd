package cmd

import (
	"bytes"
	"errors"
	"fmt"
	neturl "net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/abdul-hamid-achik/apictl/packages/core/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStarterConfigLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".apictl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(starterConfig), 0644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Len(t, cfg.Contexts, 1)
	assert.Len(t, cfg.Requests, 3)
	assert.Len(t, cfg.Tests, 1)

	create := cfg.Requests["create-item"]
	require.NotNil(t, create)
	assert.Equal(t, "POST", create.Method)
	require.Equal(t, config.PayloadRaw, create.Payload.Kind)
	require.NotNil(t, create.Payload.Raw)
	assert.Equal(t, config.RawText, create.Payload.Raw.Kind)
	assert.Equal(t, `{"name": "example"}`, create.Payload.Raw.Data)

	smoke := cfg.Tests["smoke"]
	require.NotNil(t, smoke)
	require.Len(t, smoke.Steps, 3)
	createStep := smoke.Steps[1]
	require.Len(t, createStep.Asserts, 2)
	assert.Equal(t, config.AssertStatusCode, createStep.Asserts[0].Kind)
	assert.Equal(t, 201, createStep.Asserts[0].Status)
	assert.Equal(t, config.AssertEquals, createStep.Asserts[1].Kind)
	assert.Equal(t, "name", createStep.Asserts[1].Key)
	assert.Equal(t, "example", createStep.Asserts[1].Value)
}

func TestInitRefusesToOverwrite(t *testing.T) {
	target := filepath.Join(t.TempDir(), ".apictl.yaml")
	require.NoError(t, os.WriteFile(target, []byte("contexts: {}\n"), 0644))

	prevCfg, prevForce := configFlag, forceInit
	configFlag, forceInit = target, false
	t.Cleanup(func() { configFlag, forceInit = prevCfg, prevForce })

	initCmd.SetOut(&bytes.Buffer{})
	t.Cleanup(func() { initCmd.SetOut(nil) })

	err := initCommand(initCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file already exists")

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "contexts: {}\n", string(data))
}

func TestInitForceOverwrites(t *testing.T) {
	target := filepath.Join(t.TempDir(), ".apictl.yaml")
	require.NoError(t, os.WriteFile(target, []byte("old"), 0644))

	prevCfg, prevForce := configFlag, forceInit
	configFlag, forceInit = target, true
	t.Cleanup(func() { configFlag, forceInit = prevCfg, prevForce })

	var out bytes.Buffer
	initCmd.SetOut(&out)
	t.Cleanup(func() { initCmd.SetOut(nil) })

	require.NoError(t, initCommand(initCmd, nil))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, starterConfig, string(data))
	assert.Contains(t, out.String(), "Created: "+target)
}

func TestWatchHit(t *testing.T) {
	t.Run("matches the watched file", func(t *testing.T) {
		target := filepath.Join(t.TempDir(), ".apictl.yaml")
		assert.True(t, watchHit(target, target))
		assert.True(t, watchHit(target, filepath.Dir(target)+"//.apictl.yaml"))
	})

	t.Run("ignores sibling files", func(t *testing.T) {
		dir := t.TempDir()
		target := filepath.Join(dir, ".apictl.yaml")
		assert.False(t, watchHit(target, filepath.Join(dir, "notes.txt")))
		assert.False(t, watchHit(target, filepath.Join(dir, "other.yaml")))
	})

	t.Run("accepts any yaml under a watched directory", func(t *testing.T) {
		dir := t.TempDir()
		assert.True(t, watchHit(dir, filepath.Join(dir, "extra.yml")))
		assert.True(t, watchHit(dir, filepath.Join(dir, "requests.YAML")))
		assert.False(t, watchHit(dir, filepath.Join(dir, "README.md")))
	})
}

func TestExitWithCarriesCode(t *testing.T) {
	cause := errors.New("boom")
	err := exitWith(ExitConfigError, cause)

	var ee *exitError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, ExitConfigError, ee.code)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "boom", err.Error())
}

func TestRequestErrClassification(t *testing.T) {
	urlErr := &neturl.Error{Op: "Get", URL: "http://127.0.0.1:1", Err: errors.New("connection refused")}
	err := requestErr(fmt.Errorf("request %q: %w", "get-posts", urlErr))

	var ee *exitError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, ExitNetworkError, ee.code)

	err = requestErr(errors.New(`request not found: "nope"`))
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, ExitConfigError, ee.code)
}

func TestGetEnvHelpers(t *testing.T) {
	t.Run("string", func(t *testing.T) {
		t.Setenv("APICTL_TEST_STR", "from-env")
		assert.Equal(t, "from-env", getEnvString("APICTL_TEST_STR", "fallback"))
		assert.Equal(t, "fallback", getEnvString("APICTL_TEST_MISSING", "fallback"))
	})

	t.Run("bool", func(t *testing.T) {
		t.Setenv("APICTL_TEST_BOOL", "yes")
		assert.True(t, getEnvBool("APICTL_TEST_BOOL", false))
		t.Setenv("APICTL_TEST_BOOL", "0")
		assert.False(t, getEnvBool("APICTL_TEST_BOOL", true))
		assert.True(t, getEnvBool("APICTL_TEST_MISSING", true))
	})

	t.Run("int", func(t *testing.T) {
		t.Setenv("APICTL_TEST_INT", "42")
		assert.Equal(t, 42, getEnvInt("APICTL_TEST_INT", 7))
		t.Setenv("APICTL_TEST_INT", "not-a-number")
		assert.Equal(t, 7, getEnvInt("APICTL_TEST_INT", 7))
	})
}
