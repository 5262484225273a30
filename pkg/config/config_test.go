package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("data", "ignored.json", "")
	fs.Int("port", 1, "")
	fs.String("route", "", "")
	fs.StringSlice("cors-origins", nil, "")
	fs.CountP("verbose", "v", "")
	require.NoError(t, fs.Parse(args))
	return fs
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg, err := LoadFile(testFlags(t), filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)

	assert.Equal(t, "routes.json", cfg.Data, "unchanged flags must not override defaults")
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "compact", cfg.LogFormat)
	assert.False(t, cfg.Watch)
	assert.Empty(t, cfg.CORSOrigins)
	assert.Equal(t, "localhost:8080", cfg.Addr())
}

func TestFileOverridesDefaults(t *testing.T) {
	path := writeFile(t, `
data = "newton.json"
port = 9000
watch = true
route = "Main St,Elm St"
cors-origins = ["http://localhost:3000"]
`)

	cfg, err := LoadFile(nil, path)
	require.NoError(t, err)
	assert.Equal(t, "newton.json", cfg.Data)
	assert.Equal(t, 9000, cfg.Port)
	assert.True(t, cfg.Watch)
	assert.Equal(t, "Main St,Elm St", cfg.Route)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "port = 9000\n")
	t.Setenv("CROSS_STREETS_PORT", "9100")
	t.Setenv("CROSS_STREETS_LOG_FORMAT", "json")
	t.Setenv("CROSS_STREETS_CORS_ORIGINS", "http://a.example,http://b.example")

	cfg, err := LoadFile(nil, path)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.CORSOrigins)
}

func TestFlagsOverrideEnv(t *testing.T) {
	t.Setenv("CROSS_STREETS_PORT", "9100")
	t.Setenv("CROSS_STREETS_DATA", "env.json")

	cfg, err := LoadFile(testFlags(t, "--port=9200", "-vv", "--route=Oak Ave"), "")
	require.NoError(t, err)
	assert.Equal(t, 9200, cfg.Port)
	assert.Equal(t, "env.json", cfg.Data)
	assert.Equal(t, 2, cfg.VerboseCnt)
	assert.Equal(t, "Oak Ave", cfg.Route)
}

func TestMalformedFile(t *testing.T) {
	path := writeFile(t, "port = = 1\n")
	_, err := LoadFile(nil, path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"valid", Config{Data: "a.json", Port: 80, LogFormat: "json"}, true},
		{"missing data", Config{Port: 80, LogFormat: "compact"}, false},
		{"port out of range", Config{Data: "a.json", Port: 70000, LogFormat: "compact"}, false},
		{"unknown log format", Config{Data: "a.json", Port: 80, LogFormat: "xml"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
