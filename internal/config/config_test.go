package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoad_Defaults(t *testing.T) {
	p := writeYAML(t, `
identity:
  local:
    secret: "`+testSecret+`"
`)
	c, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, ":8080", c.Server.Addr)
	assert.Equal(t, "memory", c.Storage.Driver)
	assert.Equal(t, "memory", c.Cache.Kind)
	assert.Equal(t, "local", c.Identity.Provider)
	assert.Equal(t, 7, c.Stats.DefaultDays)
	assert.Equal(t, 20, c.Users.MaxPageSize)
	assert.Equal(t, 60*time.Second, c.StatsTTL())
	assert.Equal(t, time.Hour, c.TokenTTL())
	assert.Equal(t, "/metrics", c.Metrics.Path)
	assert.Equal(t, time.Local, c.Location())
}

func TestLoad_EnvOverrides(t *testing.T) {
	p := writeYAML(t, `
server:
  addr: ":9000"
storage:
  driver: memory
`)
	t.Setenv("USERCOPY_SERVER_ADDR", ":7000")
	t.Setenv("USERCOPY_LOCAL_TOKEN_SECRET", testSecret)
	t.Setenv("USERCOPY_STATS_DEFAULT_DAYS", "14")
	t.Setenv("USERCOPY_SERVER_CORS_ALLOWED_ORIGINS", "https://a.test, https://b.test,")
	t.Setenv("USERCOPY_STORAGE_TIMEZONE", "America/Argentina/Buenos_Aires")
	t.Setenv("USERCOPY_RATE_ENABLED", "true")

	c, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, ":7000", c.Server.Addr)
	assert.Equal(t, 14, c.Stats.DefaultDays)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, c.Server.CORSAllowedOrigins)
	assert.Equal(t, "America/Argentina/Buenos_Aires", c.Location().String())
	assert.True(t, c.Rate.Enabled)
}

func TestLoad_EmptyPathUsesEnvOnly(t *testing.T) {
	t.Setenv("USERCOPY_LOCAL_TOKEN_SECRET", testSecret)
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "dev", c.App.Env)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{"postgres without dsn", "storage:\n  driver: postgres\n", "storage.dsn"},
		{"unknown driver", "storage:\n  driver: mongo\n", "storage.driver"},
		{"redis without addr", "cache:\n  kind: redis\n", "cache.redis.addr"},
		{"short local secret", "identity:\n  local:\n    secret: short\n", "identity.local.secret"},
		{"bad duration", "stats:\n  ttl: soon\n", "stats.ttl"},
		{"days below two", "stats:\n  default_days: 1\n", "stats.default_days"},
		{"bad timezone", "storage:\n  timezone: Mars/Olympus\n", "storage.timezone"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body := tc.yaml
			if tc.want != "identity.local.secret" {
				body += "identity:\n  local:\n    secret: \"" + testSecret + "\"\n"
			}
			_, err := Load(writeYAML(t, body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestValidate_FirebaseNeedsNoSecret(t *testing.T) {
	c, err := Load(writeYAML(t, "identity:\n  provider: firebase\n  project_id: demo\n"))
	require.NoError(t, err)
	assert.Equal(t, "firebase", c.Identity.Provider)
}
