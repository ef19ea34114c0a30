package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/viper"

	"loan-underwriting-engine/internal/bootstrap"
	"loan-underwriting-engine/internal/config"
	"loan-underwriting-engine/internal/models"
	"loan-underwriting-engine/internal/standards"
	"loan-underwriting-engine/internal/underwriting"
)

// newApp bootstraps the engine from the environment, letting the config file
// supply standards, lenders and the stress scenario.
func newApp(ctx context.Context, v *viper.Viper) (*bootstrap.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if v.IsSet("stress.mortgage_rate") {
		cfg.StressMortgageRate = v.GetFloat64("stress.mortgage_rate")
	}
	if v.IsSet("stress.credit_margin") {
		cfg.StressCreditMargin = v.GetFloat64("stress.credit_margin")
	}

	var opts []bootstrap.Option
	snap, err := snapshotFromConfig(v)
	if err != nil {
		return nil, err
	}
	if snap != nil {
		opts = append(opts, bootstrap.WithSource(&standards.SnapshotSource{Snapshot: snap}))
	}

	lenders, err := lendersFromConfig(v)
	if err != nil {
		return nil, err
	}
	if len(lenders) > 0 {
		opts = append(opts, bootstrap.WithLenders(lenders))
	}

	return bootstrap.New(ctx, cfg, opts...)
}

// snapshotFromConfig reads the standards section, or returns nil when the
// config file has none.
func snapshotFromConfig(v *viper.Viper) (*standards.Snapshot, error) {
	if !v.IsSet("standards") {
		return nil, nil
	}

	var snap standards.Snapshot
	if err := v.UnmarshalKey("standards", &snap); err != nil {
		return nil, fmt.Errorf("failed to parse standards: %w", err)
	}
	for path := range snap.Paths {
		if !path.IsValid() {
			return nil, fmt.Errorf("%w: %q in standards", models.ErrUnknownProductLine, path)
		}
	}
	for bank, paths := range snap.Banks {
		for path := range paths {
			if !path.IsValid() {
				return nil, fmt.Errorf("%w: %q in standards for bank %s", models.ErrUnknownProductLine, path, bank)
			}
		}
	}
	return &snap, nil
}

func lendersFromConfig(v *viper.Viper) ([]underwriting.Lender, error) {
	if !v.IsSet("lenders") {
		return nil, nil
	}

	var lenders []underwriting.Lender
	if err := v.UnmarshalKey("lenders", &lenders); err != nil {
		return nil, fmt.Errorf("failed to parse lenders: %w", err)
	}
	for _, l := range lenders {
		if l.BankID == "" || (l.Tier != underwriting.LenderTierTop && l.Tier != underwriting.LenderTierMid) {
			return nil, fmt.Errorf("lender %q needs a bank_id and a tier of top or mid", l.Name)
		}
	}
	return lenders, nil
}

// readInput reads a file, or stdin for "-".
func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
