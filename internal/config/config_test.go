package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("DB_DSN", "postgres://desk@localhost/desk")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, EnvDevelopment, cfg.Environment)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 3, cfg.WeeklyQuota)
	assert.Equal(t, 15, cfg.DefaultDurationMin)
	assert.Equal(t, "0 3 * * *", cfg.BackupCron)
	assert.True(t, cfg.MigrationsEnabled)
	assert.False(t, cfg.IsProduction())
}

func TestLoadOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("DB_DSN", "postgres://desk@localhost/desk")
	t.Setenv("ENV", "production")
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("WEEKLY_QUOTA", "5")
	t.Setenv("MIGRATIONS_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "123:abc", cfg.TelegramToken)
	assert.Equal(t, 5, cfg.WeeklyQuota)
	assert.False(t, cfg.MigrationsEnabled)
}

func TestLoadRequiresDSN(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("DB_DSN", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_DSN")
}

func TestValidateRejectsNonPositiveQuota(t *testing.T) {
	cfg := &Config{DBDSN: "x", WeeklyQuota: 0, DefaultDurationMin: 15}
	assert.ErrorContains(t, cfg.Validate(), "WEEKLY_QUOTA")
}

func TestValidateRejectsDurationOverDay(t *testing.T) {
	cfg := &Config{DBDSN: "x", WeeklyQuota: 3, DefaultDurationMin: 1441}
	assert.ErrorContains(t, cfg.Validate(), "DEFAULT_DURATION_MIN")

	cfg.DefaultDurationMin = 1440
	assert.NoError(t, cfg.Validate())
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
