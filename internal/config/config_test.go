package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "staffplan", cfg.App.Name)
	assert.Equal(t, "standard", cfg.Scheduler.OptimizationLevel)
	assert.Equal(t, 40.0, cfg.Scheduler.MaxHoursPerWeek)
	assert.Equal(t, 11.0, cfg.Scheduler.MinRestHours)
	assert.Equal(t, 6, cfg.Scheduler.MaxConsecutiveDays)
	assert.Equal(t, 3.0, cfg.Scheduler.DefaultSkillLevel)
	assert.True(t, cfg.Scheduler.EnableFairness)
	assert.Equal(t, []string{"*"}, cfg.API.CORS.Origins)
}

func TestLoad_DotenvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	content := "DB_DRIVER=sqlite3\nDB_PATH=/tmp/plan.db\nSCHEDULER_MAX_HOURS_PER_WEEK=44\nAPI_CORS_ORIGINS=https://a.example, https://b.example\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	// godotenv 不覆盖已有变量，先清理
	for _, k := range []string{"DB_DRIVER", "DB_PATH", "SCHEDULER_MAX_HOURS_PER_WEEK", "API_CORS_ORIGINS"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, "/tmp/plan.db?_foreign_keys=on", cfg.Database.DSN())
	assert.Equal(t, "sqlite3:///tmp/plan.db", cfg.Database.URL())
	assert.Equal(t, 44.0, cfg.Scheduler.MaxHoursPerWeek)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.API.CORS.Origins)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"未知驱动", "DB_DRIVER", "mysql"},
		{"未知优化级别", "SCHEDULER_OPTIMIZATION_LEVEL", "extreme"},
		{"周上限为负", "SCHEDULER_MAX_HOURS_PER_WEEK", "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingEnvFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}
