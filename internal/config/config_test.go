package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "luchafit.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func setOAuthEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GOOGLE_OAUTH_CLIENT_ID", "client-id")
	t.Setenv("GOOGLE_OAUTH_CLIENT_SECRET", "client-secret")
	t.Setenv("GOOGLE_OAUTH_REDIRECT_URL", "http://localhost:8080/oauth/callback")
}

func TestLoadWithDefaults(t *testing.T) {
	setOAuthEnv(t)

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Service.Port)
	assert.Equal(t, "luchafit.db", cfg.Service.DatabasePath)
	assert.Equal(t, 4*time.Second, cfg.Service.NotificationExpiry)
	assert.Equal(t, "client-id", cfg.OAuth.ClientID)
}

func TestLoadFromFile(t *testing.T) {
	setOAuthEnv(t)
	path := writeConfigFile(t, `
[service]
port = 9090
database_path = "data/practice.db"
notification_expiry = "2s"

[schedule]
calendar_id = "consultorio@group.calendar.google.com"
timezone = "America/Argentina/Salta"
`)

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Service.Port)
	assert.Equal(t, "data/practice.db", cfg.Service.DatabasePath)
	assert.Equal(t, 2*time.Second, cfg.Service.NotificationExpiry)
	assert.Equal(t, "consultorio@group.calendar.google.com", cfg.Schedule.CalendarID)
	assert.Equal(t, "America/Argentina/Salta", cfg.Location().String())
}

func TestEnvironmentOverridesFile(t *testing.T) {
	setOAuthEnv(t)
	path := writeConfigFile(t, `
[service]
port = 9090
`)
	t.Setenv("LUCHAFIT_SERVICE__PORT", "7070")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Service.Port)
}

func TestMissingOAuthCredentialsFails(t *testing.T) {
	t.Setenv("GOOGLE_OAUTH_CLIENT_ID", "")
	t.Setenv("GOOGLE_OAUTH_CLIENT_SECRET", "")
	t.Setenv("GOOGLE_OAUTH_REDIRECT_URL", "")

	_, err := Load("")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "GOOGLE_OAUTH_CLIENT_ID")
}

func TestInvalidTimezoneFails(t *testing.T) {
	setOAuthEnv(t)
	path := writeConfigFile(t, `
[schedule]
timezone = "Mars/Olympus_Mons"
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestInvalidPortFails(t *testing.T) {
	setOAuthEnv(t)
	path := writeConfigFile(t, `
[service]
port = -1
`)

	_, err := Load(path)
	assert.Error(t, err)
}
