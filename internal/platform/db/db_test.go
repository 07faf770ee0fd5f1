package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CARE_DB_PASSWORD", "")
	t.Setenv("CARE_JWT_SECRET", "")
	t.Setenv("CARE_ADMIN_PASSWORD", "")
}

func TestParseConfig_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := ParseConfig([]byte("mode: dev\n"))
	require.NoError(t, err)

	assert.Equal(t, StorageMySQL, cfg.Storage)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL())
	assert.Equal(t, "0 10 * * 1-5", cfg.Scheduler.Spec)
	assert.Equal(t, "system", cfg.Scheduler.StaffID)
	assert.Equal(t, devJWTSecret, cfg.Auth.JWTSecret)
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestParseConfig_FullFile(t *testing.T) {
	clearEnv(t)
	buf := []byte(`
version: "1.0.0"
mode: release
storage: memory
timezone: Asia/Tokyo
server:
  addr: ":9000"
auth:
  jwt_secret: s3cret
  token_ttl_hours: 8
  bootstrap_admin:
    id: admin
    password: change-me
scheduler:
  enabled: true
  spec: "30 9 * * *"
`)
	cfg, err := ParseConfig(buf)
	require.NoError(t, err)
	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.Equal(t, "Asia/Tokyo", cfg.Location().String())
	assert.Equal(t, 8*time.Hour, cfg.TokenTTL())
	assert.Equal(t, "admin", cfg.Auth.BootstrapAdmin.ID)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, "30 9 * * *", cfg.Scheduler.Spec)
}

func TestParseConfig_EnvOverridesSecrets(t *testing.T) {
	clearEnv(t)
	t.Setenv("CARE_JWT_SECRET", "from-env")
	t.Setenv("CARE_ADMIN_PASSWORD", "env-pass")

	cfg, err := ParseConfig([]byte("mode: release\nauth:\n  jwt_secret: from-file\n  bootstrap_admin:\n    id: admin\n"))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, "env-pass", cfg.Auth.BootstrapAdmin.Password)
}

func TestParseConfig_Invalid(t *testing.T) {
	clearEnv(t)
	cases := map[string]string{
		"bad mode":           "mode: prod\n",
		"bad storage":        "mode: dev\nstorage: redis\n",
		"bad timezone":       "mode: dev\ntimezone: Mars/Olympus\n",
		"release w/o secret": "mode: release\n",
		"half admin":         "mode: dev\nauth:\n  bootstrap_admin:\n    id: admin\n",
		"broken yaml":        "mode: [dev\n",
	}
	for name, in := range cases {
		_, err := ParseConfig([]byte(in))
		assert.Error(t, err, name)
	}
}
