package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	config, err := Load()
	require.NoError(t, err)

	require.Equal(t, 8090, config.APIServer.Port)
	require.Equal(t, "tenon", config.APIServer.Name)
	require.Equal(t, 30*time.Second, config.APIServer.RequestTimeout)
	require.Equal(t, "info", config.Log.Level)
	require.Equal(t, "sqlite", config.DB.Dialect)
	require.Equal(t, "memory", config.Cache.Mode)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TENON_SERVER_PORT", "9001")
	t.Setenv("TENON_DB_DIALECT", "postgres")

	config, err := Load()
	require.NoError(t, err)

	require.Equal(t, 9001, config.APIServer.Port)
	require.Equal(t, "postgres", config.DB.Dialect)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()

	contents := `
server:
  port: 7001
  request_timeout: 45s
  cors:
    enabled: true
    allowed_origins:
      - https://app.example.com
auth:
  authn:
    signing_secret: file-secret
  authz:
    super_admin_claim: is_super
db:
  dialect: postgres
  dsn: postgres://localhost/tenon
`

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte(contents), 0o600))
	t.Chdir(dir)

	config, err := Load()
	require.NoError(t, err)

	require.Equal(t, 7001, config.APIServer.Port)
	require.Equal(t, 45*time.Second, config.APIServer.RequestTimeout)
	require.True(t, config.APIServer.CORS.Enabled)
	require.Equal(t, []string{"https://app.example.com"}, config.APIServer.CORS.AllowedOrigins)
	require.Equal(t, "file-secret", config.Auth.Authn.SigningSecret)
	require.Equal(t, "is_super", config.Auth.Authz.SuperAdminClaim)
	require.Equal(t, "postgres://localhost/tenon", config.DB.DSN)
}
