package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 4, cfg.GitHub.Concurrency)
	assert.Empty(t, cfg.GitHub.APIURL)
	assert.Equal(t, "localhost", cfg.Mail.Server)
	assert.Zero(t, cfg.Mail.Port)
	assert.Equal(t, "gicowa@lourot.com", cfg.Mail.Sender)
	assert.Empty(t, cfg.State.Driver)
	assert.Equal(t, filepath.Join(home, ".gicowa", "state.yaml"), cfg.State.Path)
	assert.False(t, cfg.Output.ForceColor)
}

func TestLoadDefaultConfigFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".gicowa")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`
mail:
  server: smtp.example.com
  port: 465
  password: secret
`), 0o600))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "smtp.example.com", cfg.Mail.Server)
	assert.Equal(t, 465, cfg.Mail.Port)
	assert.Equal(t, "secret", cfg.Mail.Password)
}

func TestLoadExplicitFileAndEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "gicowa.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  level: debug
github:
  api_url: https://github.example.com/api/v3/
  concurrency: 8
state:
  driver: sqlite3
  dsn: /tmp/gicowa.db
`), 0o600))

	t.Setenv("GICOWA_GITHUB_TOKEN", "env-token")
	t.Setenv("GICOWA_GITHUB_CONCURRENCY", "2")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "https://github.example.com/api/v3/", cfg.GitHub.APIURL)
	assert.Equal(t, "env-token", cfg.GitHub.Token)
	assert.Equal(t, 2, cfg.GitHub.Concurrency)
	assert.Equal(t, "sqlite3", cfg.State.Driver)
	assert.Equal(t, "/tmp/gicowa.db", cfg.State.DSN)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			GitHub: GitHubConfig{Concurrency: 1},
			State:  StateConfig{Path: "/tmp/state.yaml"},
		}
	}

	testCases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "zero concurrency", mutate: func(c *Config) { c.GitHub.Concurrency = 0 }, wantErr: "concurrency"},
		{name: "unknown driver", mutate: func(c *Config) { c.State.Driver = "mysql" }, wantErr: "unsupported"},
		{name: "postgres without dsn", mutate: func(c *Config) { c.State.Driver = "postgres" }, wantErr: "state.dsn"},
		{name: "empty path", mutate: func(c *Config) { c.State.Path = "" }, wantErr: "state.path"},
		{name: "bad port", mutate: func(c *Config) { c.Mail.Port = 70000 }, wantErr: "mail.port"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
			}
		})
	}
}
