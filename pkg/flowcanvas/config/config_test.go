package config_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/config"
)

func TestValues_Accessors(t *testing.T) {
	v := config.NewValues(map[string]any{
		"name":     "demo",
		"enabled":  true,
		"count":    float64(3),
		"fraction": 2.5,
		"timeout":  "250ms",
		"seconds":  2,
		"tags":     []any{"a", "b"},
		"mixed":    []any{"a", 1},
		"nested":   map[string]any{"key": "value"},
	})

	assert.Equal(t, "demo", v.String("name", "x"))
	assert.Equal(t, "x", v.String("missing", "x"))
	assert.Equal(t, "x", v.String("count", "x"))
	assert.True(t, v.Bool("enabled", false))
	assert.Equal(t, 3, v.Int("count", 0))
	assert.Equal(t, 7, v.Int("fraction", 7))
	assert.Equal(t, 250*time.Millisecond, v.Duration("timeout", 0))
	assert.Equal(t, 2*time.Second, v.Duration("seconds", 0))
	assert.Equal(t, 2500*time.Millisecond, v.Duration("fraction", 0))
	assert.Equal(t, []string{"a", "b"}, v.StringSlice("tags", nil))
	assert.Equal(t, []string{"d"}, v.StringSlice("mixed", []string{"d"}))
	assert.Equal(t, "value", v.Section("nested").String("key", ""))
	assert.False(t, v.Section("name").Has("key"))
	assert.True(t, v.Has("name"))
	assert.NotNil(t, config.NewValues(nil).Raw())
}

func TestFromValues_Defaults(t *testing.T) {
	s := config.FromValues(config.NewValues(nil))
	assert.Equal(t, config.Default(), s)
	require.NoError(t, s.Validate())
}

func TestLoad_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flowcanvas.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store:
  driver: memory
catalog:
  path: nodes.yaml
editor:
  id_policy: verbatim
  edge_policy: cascade
log:
  level: DEBUG
  format: json
telemetry:
  metrics: true
retry:
  max_attempts: 5
  initial_backoff: 50ms
  max_backoff: 2
`), 0o600))

	s, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.DriverMemory, s.Store.Driver)
	assert.Equal(t, "nodes.yaml", s.Catalog.Path)
	assert.Equal(t, "verbatim", s.Editor.IDPolicy)
	assert.Equal(t, "cascade", s.Editor.EdgePolicy)
	assert.Equal(t, "debug", s.Log.Level)
	assert.Equal(t, "json", s.Log.Format)
	assert.True(t, s.Telemetry.Metrics)
	assert.False(t, s.Telemetry.Tracing)
	assert.Equal(t, 5, s.Retry.MaxAttempts)
	assert.Equal(t, 50*time.Millisecond, s.Retry.InitialBackoff)
	assert.Equal(t, 2*time.Second, s.Retry.MaxBackoff)

	rc := s.RetryConfig()
	assert.Equal(t, 5, rc.MaxAttempts)
	assert.Equal(t, 50*time.Millisecond, rc.InitialBackoff)
}

func TestLoad_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flowcanvas.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"store":{"driver":"sqlite","path":"x.db"},"retry":{"max_attempts":2}}`), 0o600))

	s, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "x.db", s.Store.Path)
	assert.Equal(t, 2, s.Retry.MaxAttempts)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := config.Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "flowcanvas.toml")
	require.NoError(t, os.WriteFile(bad, []byte("x"), 0o600))
	_, err = config.Load(bad)
	assert.ErrorContains(t, err, "unsupported config file extension")

	broken := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("store: [unterminated"), 0o600))
	_, err = config.Load(broken)
	assert.ErrorContains(t, err, "parse yaml")

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("store:\n  driver: postgres\n"), 0o600))
	_, err = config.Load(invalid)
	assert.ErrorContains(t, err, "store.driver")
}

func TestSettings_ValidateJoinsErrors(t *testing.T) {
	s := config.Default()
	s.Editor.IDPolicy = "random"
	s.Editor.EdgePolicy = "drop"
	s.Log.Format = "xml"
	s.Retry.MaxAttempts = 0

	err := s.Validate()
	require.Error(t, err)
	for _, field := range []string{"editor.id_policy", "editor.edge_policy", "log.format", "retry.max_attempts"} {
		assert.ErrorContains(t, err, field)
	}
}

func TestSettings_Logger(t *testing.T) {
	var buf bytes.Buffer
	s := config.Default()
	s.Log.Format = "json"
	s.Log.Level = "warn"

	logger := s.Logger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "flow_id", "f1")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"flow_id":"f1"`)
}

func TestExpand(t *testing.T) {
	lookup := func(name string) (string, bool) {
		v, ok := map[string]string{"HOME": "/home/ada", "LEVEL": "debug"}[name]
		return v, ok
	}
	v := config.NewValues(map[string]any{
		"store": map[string]any{"path": "${HOME}/flows.db"},
		"log":   map[string]any{"level": "${LEVEL}"},
		"tags":  []any{"${LEVEL}", "x"},
		"price": "$5 and $HOME stay",
	})

	out, err := config.Expand(v, lookup)
	require.NoError(t, err)
	assert.Equal(t, "/home/ada/flows.db", out.Section("store").String("path", ""))
	assert.Equal(t, "debug", out.Section("log").String("level", ""))
	assert.Equal(t, []string{"debug", "x"}, out.StringSlice("tags", nil))
	assert.Equal(t, "$5 and $HOME stay", out.String("price", ""))

	// The input is not modified.
	assert.Equal(t, "${HOME}/flows.db", v.Section("store").String("path", ""))
}

func TestExpand_Undefined(t *testing.T) {
	v := config.NewValues(map[string]any{
		"a": "${NOPE}",
		"b": map[string]any{"c": "${ALSO_NOPE}"},
	})
	_, err := config.Expand(v, func(string) (string, bool) { return "", false })
	var undefined *config.UndefinedVariableError
	require.ErrorAs(t, err, &undefined)
	assert.ElementsMatch(t, []string{"NOPE", "ALSO_NOPE"}, undefined.Names)
}

func TestLoad_ExpandsEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("FLOWCANVAS_TEST_DIR", dir)

	path := filepath.Join(dir, "flowcanvas.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  path: ${FLOWCANVAS_TEST_DIR}/flows.db\n"), 0o600))
	s, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "flows.db"), s.Store.Path)

	unset := filepath.Join(dir, "unset.yaml")
	require.NoError(t, os.WriteFile(unset, []byte("store:\n  path: ${FLOWCANVAS_TEST_UNSET}/flows.db\n"), 0o600))
	_, err = config.Load(unset)
	assert.ErrorContains(t, err, "FLOWCANVAS_TEST_UNSET")
}
