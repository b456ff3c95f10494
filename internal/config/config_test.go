package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	assert.Error(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, 4005, cfg.Port)
	assert.Equal(t, "https://panel.groupify.gg", cfg.FrontendOrigin)
	assert.Equal(t, 5*time.Second, cfg.Discord.UpstreamTimeout)
	assert.True(t, cfg.Discord.StrictProfile)
	assert.True(t, cfg.DBRoutesRequireSession)
	assert.Equal(t, "Groupify Manager", cfg.Setup.RoleName)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "console", cfg.LogFormat())
}

func TestLoadFromEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "DISCORD_CLIENT_ID=123\nDISCORD_REDIRECT_URI=https://api.example.com/cb\nAPP_ENV=production\nMONGO_URI=mongodb://db\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Cleanup(func() {
		for _, k := range []string{"DISCORD_CLIENT_ID", "DISCORD_REDIRECT_URI", "APP_ENV", "MONGO_URI"} {
			os.Unsetenv(k)
		}
	})

	require.NoError(t, LoadDotEnv(path))
	cfg, err := Parse()
	require.NoError(t, err)

	assert.True(t, cfg.OAuthConfigured())
	assert.False(t, cfg.BotConfigured())
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "json", cfg.LogFormat())
	assert.Equal(t, "mongodb://db", cfg.DatabaseURL())
}

func TestDatabaseURLPrecedence(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{URL: "postgres://a", MongoURI: "mongodb://b"}}
	assert.Equal(t, "postgres://a", cfg.DatabaseURL())

	cfg = &Config{Database: DatabaseConfig{MongoDBURI: "mongodb://c"}}
	assert.Equal(t, "mongodb://c", cfg.DatabaseURL())

	assert.Empty(t, (&Config{}).DatabaseURL())
}
