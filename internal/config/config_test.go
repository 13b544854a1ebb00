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
	cfg := Load()

	assert.Equal(t, BackendPostgres, cfg.Storage.Backend)
	assert.Equal(t, 1.0, cfg.Curation.MinScoreThreshold)
	assert.Equal(t, 50, cfg.Curation.ArticlesPerRun)
	assert.Equal(t, 0.95, cfg.Curation.PriorityRatio)
	assert.Equal(t, 30, cfg.Curation.RetentionDays)
	assert.Equal(t, 2*time.Hour, cfg.Schedule.Interval)
	assert.Equal(t, 8, cfg.Schedule.ActiveHourStart)
	assert.Equal(t, 22, cfg.Schedule.ActiveHourEnd)
	assert.Equal(t, 200, cfg.Source.FetchLimit)
	assert.Equal(t, 587, cfg.Email.Port)
}

func TestLoadMergesConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
logging:
  level: debug
storage:
  backend: file
  statePath: /var/lib/digest/state.json
curation:
  articlesPerRun: 25
  priorityRatio: 0.8
schedule:
  interval: 45m
  activeHourStart: 9
  activeHourEnd: 21
  timezone: Europe/Berlin
`), 0o600))
	t.Setenv("RSS_DIGEST_CONFIG", path)

	cfg := Load()

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, BackendFile, cfg.Storage.Backend)
	assert.Equal(t, "/var/lib/digest/state.json", cfg.Storage.StatePath)
	assert.Equal(t, 25, cfg.Curation.ArticlesPerRun)
	assert.Equal(t, 0.8, cfg.Curation.PriorityRatio)
	assert.Equal(t, 45*time.Minute, cfg.Schedule.Interval)
	assert.Equal(t, 9, cfg.Schedule.ActiveHourStart)
	assert.Equal(t, "Europe/Berlin", cfg.Schedule.Timezone)
	assert.Equal(t, "Europe/Berlin", cfg.Schedule.Location().String())

	// Untouched sections keep their defaults.
	assert.Equal(t, 1.0, cfg.Curation.MinScoreThreshold)
	assert.Equal(t, 200, cfg.Source.FetchLimit)
}

func TestLoadEnvOverridesWinOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
email:
  recipient: file@example.org
source:
  cookie: file-cookie
`), 0o600))
	t.Setenv("RSS_DIGEST_CONFIG", path)
	t.Setenv("NEWSLETTER_RECIPIENT", "env@example.org")
	t.Setenv("SOURCE_COOKIE", "env-cookie")
	t.Setenv("DATABASE_DSN", "postgres://env/dsn")

	cfg := Load()

	assert.Equal(t, "env@example.org", cfg.Email.Recipient)
	assert.Equal(t, "env-cookie", cfg.Source.Cookie)
	assert.Equal(t, "postgres://env/dsn", cfg.Storage.DSN)
}

func TestLoadUnreadableFileFallsBack(t *testing.T) {
	t.Setenv("RSS_DIGEST_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg := Load()
	assert.Equal(t, BackendPostgres, cfg.Storage.Backend)
	assert.Equal(t, 50, cfg.Curation.ArticlesPerRun)
}

func TestValidate(t *testing.T) {
	valid := defaultConfig()
	valid.Email.Recipient = "reader@example.org"

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, valid.Validate())
	})

	t.Run("unknown backend", func(t *testing.T) {
		cfg := valid
		cfg.Storage.Backend = "redis"
		assert.Error(t, cfg.Validate())
	})

	t.Run("postgres without dsn", func(t *testing.T) {
		cfg := valid
		cfg.Storage.DSN = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("file without state path", func(t *testing.T) {
		cfg := valid
		cfg.Storage.Backend = BackendFile
		cfg.Storage.StatePath = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("no recipient", func(t *testing.T) {
		cfg := valid
		cfg.Email.Recipient = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("no list url", func(t *testing.T) {
		cfg := valid
		cfg.Source.ListURL = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("ratio above one", func(t *testing.T) {
		cfg := valid
		cfg.Curation.PriorityRatio = 1.2
		assert.Error(t, cfg.Validate())
	})

	t.Run("zero budget", func(t *testing.T) {
		cfg := valid
		cfg.Curation.ArticlesPerRun = 0
		assert.Error(t, cfg.Validate())
	})
}

func TestInvalidTimezoneRevertsToUTC(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
schedule:
  timezone: Mars/Olympus
`), 0o600))
	t.Setenv("RSS_DIGEST_CONFIG", path)

	cfg := Load()
	assert.Equal(t, "UTC", cfg.Schedule.Location().String())
}
