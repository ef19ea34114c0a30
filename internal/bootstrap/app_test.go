package bootstrap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-underwriting-engine/internal/config"
	"loan-underwriting-engine/internal/models"
	"loan-underwriting-engine/internal/services/cache"
	"loan-underwriting-engine/internal/standards"
	"loan-underwriting-engine/internal/underwriting"
)

func testConfig() *config.Config {
	return &config.Config{
		StandardsSource:    config.SourceDefaults,
		StressMortgageRate: 6.5,
		StressCreditMargin: 2.0,
	}
}

func TestNew_DefaultsOnly(t *testing.T) {
	app, err := New(context.Background(), testConfig())
	require.NoError(t, err)
	defer app.Close()

	assert.Nil(t, app.DB)
	assert.Nil(t, app.Redis)
	assert.Nil(t, app.Notifier)
	require.NotNil(t, app.Engine)

	th := app.Engine.Thresholds(context.Background(), models.ProductLineMortgage, "")
	for _, e := range th.Entries() {
		assert.Equal(t, standards.OriginDefault, e.Origin, e.Name)
	}
}

func TestNew_UnknownSource(t *testing.T) {
	cfg := testConfig()
	cfg.StandardsSource = "mongo"

	_, err := New(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mongo")
}

func TestNew_RedisSourceNeedsAddress(t *testing.T) {
	cfg := testConfig()
	cfg.StandardsSource = config.SourceRedis

	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}

func TestNewSource(t *testing.T) {
	cfg := testConfig()
	cfg.RedisAddr = "127.0.0.1:1"
	cfg.StandardsSource = config.SourceRedis

	app, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer app.Close()

	source, err := app.NewSource()
	require.NoError(t, err)
	assert.IsType(t, &cache.RedisSource{}, source)

	// Without a database the postgres sources degrade to defaults.
	for _, kind := range []string{config.SourcePostgres, config.SourcePostgresFunction, config.SourceS3} {
		app.Config.StandardsSource = kind
		source, err := app.NewSource()
		require.NoError(t, err, kind)
		assert.Equal(t, standards.EmptySource{}, source, kind)
	}
}

func TestNew_WithSourceAndLenders(t *testing.T) {
	source := &standards.SnapshotSource{Snapshot: &standards.Snapshot{
		Paths: map[models.ProductLine]standards.Grouped{
			models.ProductLineCredit: {"dti": {"max": 40}},
		},
	}}
	panel := []underwriting.Lender{{BankID: "solo", Name: "Solo Bank", Tier: underwriting.LenderTierTop}}

	app, err := New(context.Background(), testConfig(), WithSource(source), WithLenders(panel))
	require.NoError(t, err)

	th := app.Engine.Thresholds(context.Background(), models.ProductLineCredit, "")
	assert.Equal(t, 40.0, th.Value(standards.KeyDTIMax))
	assert.Equal(t, standards.OriginPath, th.Origin(standards.KeyDTIMax))
}

func TestStressPolicy(t *testing.T) {
	cfg := testConfig()
	cfg.StressMortgageRate = 7.25
	cfg.StressCreditMargin = 0

	policy := StressPolicy(cfg)
	assert.Equal(t, 7.25, policy.MortgageRate)
	assert.Equal(t, 0.0, policy.CreditMargin)

	cfg.StressMortgageRate = 0
	cfg.StressCreditMargin = -1
	assert.Equal(t, underwriting.DefaultStressPolicy(), StressPolicy(cfg))
}
