package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"STANDARDS_SOURCE", "STRESS_MORTGAGE_RATE", "STRESS_CREDIT_MARGIN", "DATABASE_URL", "DB_HOST", "PORT"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, SourceDefaults, cfg.StandardsSource)
	assert.Equal(t, 6.5, cfg.StressMortgageRate)
	assert.Equal(t, 2.0, cfg.StressCreditMargin)
	assert.Equal(t, "8080", cfg.Port)
	assert.False(t, cfg.HasDatabase())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STANDARDS_SOURCE", SourceRedis)
	t.Setenv("STRESS_MORTGAGE_RATE", "7.25")
	t.Setenv("STRESS_CREDIT_MARGIN", "not-a-number")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/x")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, SourceRedis, cfg.StandardsSource)
	assert.Equal(t, 7.25, cfg.StressMortgageRate)
	assert.Equal(t, 2.0, cfg.StressCreditMargin)
	assert.Equal(t, "postgres://u:p@db:5432/x", cfg.DatabaseURL())
	assert.True(t, cfg.HasDatabase())
}

func TestDatabaseURL_SSLMode(t *testing.T) {
	local := &Config{DBUser: "postgres", DBHost: "localhost", DBPort: 5432, DBName: "loans"}
	assert.Equal(t, "postgres://postgres:@localhost:5432/loans?sslmode=disable", local.DatabaseURL())

	remote := &Config{DBUser: "app", DBPassword: "s", DBHost: "db.example.com", DBPort: 5432, DBName: "loans"}
	assert.Contains(t, remote.DatabaseURL(), "sslmode=require")
}
