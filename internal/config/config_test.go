package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	require.Equal(t, "localhost:8080", c.Addr())
	require.Equal(t, 3, c.Depth)
	require.Equal(t, "B", c.CPUSide)
}

func TestFromLookup(t *testing.T) {
	env := map[string]string{
		EnvPort:           "9090",
		EnvDepth:          "5",
		EnvReadTimeout:    "5s",
		EnvLogPretty:      "true",
		EnvCPUSide:        "",
		EnvMaxSessions:    "10",
		EnvMaxSlowWorkers: "2",
		EnvExternalAddr:   ":1234",
	}
	c, err := FromLookup(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	require.NoError(t, err)
	require.Equal(t, 9090, c.Port)
	require.Equal(t, 5, c.Depth)
	require.Equal(t, 5*time.Second, c.ReadTimeout)
	require.True(t, c.LogPretty)
	require.Equal(t, "B", c.CPUSide, "empty values keep the default")
	require.Equal(t, 10, c.MaxSessions)
	require.Equal(t, 2, c.MaxSlowWorkers)
	require.Equal(t, "localhost", c.Host)
	require.Equal(t, ":1234", c.ExternalAddr)
}

func TestCPUSideNone(t *testing.T) {
	c, err := FromLookup(func(k string) (string, bool) {
		if k == EnvCPUSide {
			return "none", true
		}
		return "", false
	})
	require.NoError(t, err)
	require.Empty(t, c.CPUSide)
}

func TestFromLookupErrors(t *testing.T) {
	tests := map[string]map[string]string{
		"bad int":      {EnvPort: "eighty"},
		"bad duration": {EnvIdleTimeout: "soon"},
		"bad bool":     {EnvLogPretty: "perhaps"},
		"bad depth":    {EnvDepth: "0"},
		"too deep":     {EnvDepth: "11"},
		"bad side":     {EnvCPUSide: "X"},
		"bad port":     {EnvPort: "70000"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := FromLookup(func(k string) (string, bool) {
				v, ok := env[k]
				return v, ok
			})
			require.Error(t, err)
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(file, []byte("CK_DEPTH=6\nCK_HOST=0.0.0.0\n"), 0o600))

	t.Setenv(EnvDepth, "4")

	c, err := Load(file)
	require.NoError(t, err)
	require.Equal(t, 4, c.Depth, "process environment wins over the file")
	require.Equal(t, "0.0.0.0", c.Host)
}

func TestLoadMissingFile(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	require.Equal(t, Default().Port, c.Port)
}
