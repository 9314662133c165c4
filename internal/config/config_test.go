package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAuthServerMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadAuthServer(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultAuthServer(), cfg)
}

func TestLoadAuthServerOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 4000\nrealms:\n  - name: TestRealm\n    host: 10.0.0.1\n    port: 9000\n"), 0o644))

	cfg, err := LoadAuthServer(path)
	require.NoError(t, err)
	assert.Equal(t, 4000, cfg.Port)
	require.Len(t, cfg.Realms, 1)
	assert.Equal(t, "TestRealm", cfg.Realms[0].Name)
}

func TestDatabaseConfigDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "n", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@db:5432/n?sslmode=disable", d.DSN())
}

func TestDatabaseConfigDSNWithPoolParams(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "n", SSLMode: "disable", MaxConns: 10}
	assert.Contains(t, d.DSN(), "pool_max_conns=10")
}

func TestLoadWorldServerMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadWorldServer(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultWorldServer(), cfg)
}
