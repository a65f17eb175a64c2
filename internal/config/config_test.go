package config

import (
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "env: dev\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, 8000, cfg.ApiPort)
	assert.Equal(t, StoragePostgres, cfg.Storage)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 30*24*time.Hour, cfg.Auth.RememberTTL)
	assert.Equal(t, "10000", cfg.Bank.SeedBalance)
}

func TestPostgres_DSN(t *testing.T) {
	p := Postgres{Host: "db", Port: "5433", User: "u", Pass: "p", Db: "bank", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@db:5433/bank?sslmode=disable", p.DSN())
}

func TestPostgres_DSNEscapesCredentials(t *testing.T) {
	p := Postgres{Host: "db", Port: "5432", User: "bank", Pass: "p@ss/w:rd?", Db: "bank", SSLMode: "require"}

	dsn := p.DSN()
	assert.Equal(t, "postgres://bank:p%40ss%2Fw%3Ard%3F@db:5432/bank?sslmode=require", dsn)

	u, err := url.Parse(dsn)
	require.NoError(t, err)
	pass, _ := u.User.Password()
	assert.Equal(t, "p@ss/w:rd?", pass)
	assert.Equal(t, "db:5432", u.Host)
}

func TestLoad_FileValues(t *testing.T) {
	path := writeConfig(t, `
env: prod
api_port: 9090
storage: memory
auth:
  token_ttl: 1h
bank:
  seed_balance: "250.50"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, 9090, cfg.ApiPort)
	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "250.50", cfg.Bank.SeedBalance)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "api_port: 9090\n")
	t.Setenv("API_PORT", "7070")
	t.Setenv("TOKEN_TTL", "2h")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.ApiPort)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
