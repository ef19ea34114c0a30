package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-underwriting-engine/internal/models"
	"loan-underwriting-engine/internal/standards"
	"loan-underwriting-engine/internal/utils"
)

const testConfig = `
logging:
  level: error
standards:
  paths:
    credit:
      dti:
        max: 65
  banks:
    acme:
      credit:
        dti:
          max: 60
lenders:
  - bank_id: solo
    name: Solo Bank
    tier: top
`

const scenarioA = `{"amount": 1000000, "rate": 4.0, "years": 25, "property_value": 1500000,
	"monthly_income": 30000, "monthly_expenses": 2000, "age": 35, "credit_score": 760, "employment_years": 5}`

func isolate(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	for _, key := range []string{"DATABASE_URL", "DB_HOST", "REDIS_ADDR", "SES_SENDER_EMAIL"} {
		t.Setenv(key, "")
	}
	t.Setenv("STANDARDS_SOURCE", "defaults")
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestThresholdsCommand(t *testing.T) {
	isolate(t)
	cfg := writeFile(t, "underwrite.yaml", testConfig)

	out, err := run(t, "", "thresholds", "credit", "--bank", "acme", "--json", "--config", cfg)
	require.NoError(t, err)

	var entries []standards.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	found := false
	for _, e := range entries {
		if e.Category == "dti" && e.Name == "max" {
			found = true
			assert.Equal(t, 60.0, e.Value)
			assert.Equal(t, standards.OriginBank, e.Origin)
		}
	}
	assert.True(t, found)

	out, err = run(t, "", "thresholds", "credit", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "CATEGORY")
	assert.Regexp(t, `dti\s+max\s+65\s+path`, out)
}

func TestEvaluateCommand(t *testing.T) {
	isolate(t)
	cfg := writeFile(t, "underwrite.yaml", testConfig)

	out, err := run(t, scenarioA, "evaluate", "mortgage", "--config", cfg)
	require.NoError(t, err)

	var ev models.Evaluation
	require.NoError(t, json.Unmarshal([]byte(out), &ev))
	assert.True(t, ev.Decision.Approved)
	require.Len(t, ev.Decision.RecommendedLenders, 1)
	assert.Equal(t, "solo", ev.Decision.RecommendedLenders[0].BankID)

	_, err = run(t, `{"amount": 1}`, "evaluate", "mortgage", "--config", cfg)
	assert.ErrorContains(t, err, "missing required field")
}

func TestProbabilityCommand(t *testing.T) {
	isolate(t)
	file := writeFile(t, "request.json", scenarioA)

	out, err := run(t, "", "probability", "mortgage", "--file", file)
	require.NoError(t, err)

	var score models.ProbabilityScore
	require.NoError(t, json.Unmarshal([]byte(out), &score))
	assert.Equal(t, models.ProductLineMortgage, score.ProductLine)
	assert.NotEmpty(t, score.Category)
}

func TestAmortizeCommand(t *testing.T) {
	isolate(t)

	out, err := run(t, "", "amortize", "--amount", "120000", "--rate", "0", "--years", "10")
	require.NoError(t, err)
	assert.Contains(t, out, "Monthly payment:    1000")
	assert.Contains(t, out, "Total interest:     0")

	_, err = run(t, "", "amortize", "--amount", "1000", "--rate", "5", "--years", "0")
	assert.ErrorIs(t, err, models.ErrInvalidTerm)
}

func TestBatchCommand(t *testing.T) {
	isolate(t)
	csv := writeFile(t, "apps.csv", "product_line,amount,rate,years,monthly_income,age\ncredit,20000,9,5,6500,30\n")

	out, err := run(t, "", "batch", csv, "--validate")
	require.NoError(t, err)
	var validation utils.CSVValidationResult
	require.NoError(t, json.Unmarshal([]byte(out), &validation))
	assert.True(t, validation.Valid)
	assert.Equal(t, 1, validation.RowCount)

	out, err = run(t, "", "batch", csv)
	require.NoError(t, err)
	assert.Contains(t, out, `"evaluated": 1`)
}

func TestStandardsExportDefaults(t *testing.T) {
	isolate(t)

	out, err := run(t, "", "standards", "export")
	require.NoError(t, err)

	var snap standards.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.Equal(t, standards.DefaultsVersion, snap.Version)
	assert.Len(t, snap.Paths, len(models.ProductLines()))
	assert.Equal(t,
		standards.Defaults(models.ProductLineMortgage)[standards.KeyDTIMax],
		snap.Paths[models.ProductLineMortgage]["dti"]["max"])
}

func TestStandardsPublishNeedsStore(t *testing.T) {
	isolate(t)

	_, err := run(t, "", "standards", "publish", "--to", "redis")
	assert.ErrorContains(t, err, "REDIS_ADDR")

	_, err = run(t, "", "standards", "publish", "--to", "postgres")
	assert.ErrorContains(t, err, "database")

	_, err = run(t, "", "standards", "publish", "--to", "ftp")
	assert.ErrorContains(t, err, "unknown publish target")
}

func TestSnapshotLevels(t *testing.T) {
	isolate(t)
	cfg := writeFile(t, "underwrite.yaml", testConfig)
	viper.SetConfigFile(cfg)
	require.NoError(t, viper.ReadInConfig())

	snap, err := snapshotFromConfig(viper.GetViper())
	require.NoError(t, err)

	levels := snapshotLevels(snap)
	require.Len(t, levels, 2)
	assert.Equal(t, "", levels[0].bankID)
	assert.Equal(t, "acme", levels[1].bankID)
	assert.Equal(t, 60.0, levels[1].values[standards.KeyDTIMax])

	assert.Len(t, snapshotRows(snap), 2)
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name     string
		config   string
		contains string
	}{
		{
			name:     "unknown product line",
			config:   "standards:\n  paths:\n    boat:\n      ltv:\n        max: 80\n",
			contains: "boat",
		},
		{
			name:     "lender without tier",
			config:   "lenders:\n  - bank_id: x\n    name: X Bank\n",
			contains: "X Bank",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			cfg := writeFile(t, "underwrite.yaml", tt.config)

			_, err := run(t, "", "thresholds", "credit", "--config", cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestVersionCommand(t *testing.T) {
	isolate(t)

	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "underwrite dev\n", out)
}
