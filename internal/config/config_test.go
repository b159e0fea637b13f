package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setCredentials(t *testing.T) {
	t.Helper()
	t.Setenv("SANKHYA_API_URL", "https://api.sankhya.com.br")
	t.Setenv("SANKHYA_APPKEY", "appkey-1")
	t.Setenv("SANKHYA_USERNAME", "INTEGRACAO")
	t.Setenv("SANKHYA_PASSWORD", "s3gredo")
	t.Setenv("SANKHYA_TOKEN", "tok-1")
	t.Setenv("JWT_SECRET", "segredo-de-teste")
}

func TestLoad_DefaultsSemArquivo(t *testing.T) {
	setCredentials(t)

	cfg, err := Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	require.Equal(t, "dev", cfg.App.Env)
	require.Equal(t, ":3030", cfg.Server.Addr)
	require.Equal(t, "sessionToken", cfg.Session.CookieName)
	require.Equal(t, 8*time.Hour, Duration(cfg.Session.TTL))
	require.Equal(t, 10, cfg.Lockout.MaxAttempts)
	require.Equal(t, 15*time.Minute, Duration(cfg.Lockout.Duration))
	require.Equal(t, 200, cfg.Rate.MaxRequests)
	require.False(t, cfg.Rate.Disabled)
	require.Equal(t, "memory", cfg.Cache.Kind)
	require.Equal(t, 10*time.Minute, Duration(cfg.Cache.TTL))
}

func TestLoad_AmbienteSobrepoeYAML(t *testing.T) {
	setCredentials(t)
	t.Setenv("PORT", "8081")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  env: prod
  log_level: warn
server:
  addr: ":9999"
session:
  ttl: 4h
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "prod", cfg.App.Env)
	require.Equal(t, "warn", cfg.App.LogLevel)
	// PORT ganha do YAML
	require.Equal(t, ":8081", cfg.Server.Addr)
	require.Equal(t, 4*time.Hour, Duration(cfg.Session.TTL))
	// fora de dev o cookie é sempre secure
	require.True(t, cfg.Session.Secure)
}

func TestValidate_CredenciaisObrigatorias(t *testing.T) {
	setCredentials(t)
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load("")
	require.NoError(t, err)
	require.ErrorContains(t, cfg.Validate(), "JWT_SECRET")
}

func TestLoad_DuracaoInvalida(t *testing.T) {
	setCredentials(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("session:\n  ttl: oito-horas\n"), 0o644))

	_, err := Load(path)
	require.ErrorContains(t, err, "duração inválida")
}

func TestIsSandbox(t *testing.T) {
	setCredentials(t)
	t.Setenv("SANKHYA_API_URL", "https://api.sandbox.sankhya.com.br")

	cfg, err := Load("")
	require.NoError(t, err)
	require.True(t, cfg.IsSandbox())
}
