package main

import (
	"context"
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"loan-underwriting-engine/internal/bootstrap"
	"loan-underwriting-engine/internal/models"
	"loan-underwriting-engine/internal/services/cache"
	"loan-underwriting-engine/internal/standards"
	"loan-underwriting-engine/internal/utils"
)

// Publish targets.
const (
	targetPostgres = "postgres"
	targetRedis    = "redis"
	targetS3       = "s3"
)

func thresholdsCmd() *cobra.Command {
	var bankID string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "thresholds <product>",
		Short: "Show the effective banking standards for a product line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			product := models.ParseProductLine(args[0])
			if !product.IsValid() {
				return fmt.Errorf("%w: %q", models.ErrUnknownProductLine, args[0])
			}

			ctx := cmd.Context()
			app, err := newApp(ctx, viper.GetViper())
			if err != nil {
				return err
			}
			defer app.Close()

			entries := app.Engine.Thresholds(ctx, product, bankID).Entries()
			if asJSON {
				return printJSON(cmd.OutOrStdout(), entries)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "CATEGORY\tNAME\tVALUE\tORIGIN")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Category, e.Name, utils.FormatNumber(e.Value), e.Origin)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&bankID, "bank", "", "apply this bank's overrides")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")

	return cmd
}

func standardsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "standards",
		Short: "Manage banking standards stores",
	}

	cmd.AddCommand(standardsExportCmd())
	cmd.AddCommand(standardsPublishCmd())

	return cmd
}

func standardsExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Print the standards snapshot from the config file, or the defaults",
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap, err := publishableSnapshot(viper.GetViper())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), snap)
		},
	}
}

func standardsPublishCmd() *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Write the standards snapshot to PostgreSQL, Redis or S3",
		Long: `Write the standards snapshot from the config file (or the built-in
defaults) to a standards store so the API and Lambda functions pick it up.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			snap, err := publishableSnapshot(viper.GetViper())
			if err != nil {
				return err
			}

			app, err := newApp(ctx, viper.GetViper())
			if err != nil {
				return err
			}
			defer app.Close()

			n, err := publish(ctx, app, target, snap)
			if err != nil {
				return err
			}

			utils.GetLogger().Info("Published standards", zap.String("target", target), zap.Int("entries", n))
			fmt.Fprintf(cmd.OutOrStdout(), "Published %d standards to %s\n", n, target)
			return nil
		},
	}

	cmd.Flags().StringVar(&target, "to", targetPostgres, "target store (postgres, redis, s3)")

	return cmd
}

func publish(ctx context.Context, app *bootstrap.App, target string, snap *standards.Snapshot) (int, error) {
	switch target {
	case targetPostgres:
		if app.Standards == nil {
			return 0, fmt.Errorf("publishing to postgres requires a database connection")
		}
		rows := snapshotRows(snap)
		for i := range rows {
			if err := app.Standards.Upsert(ctx, &rows[i]); err != nil {
				return 0, err
			}
		}
		return len(rows), nil

	case targetRedis:
		if app.Redis == nil {
			return 0, fmt.Errorf("publishing to redis requires REDIS_ADDR")
		}
		redisSource := cache.NewRedisSource(app.Redis)
		n := 0
		for _, level := range snapshotLevels(snap) {
			if err := redisSource.Store(ctx, level.path, level.bankID, level.values); err != nil {
				return 0, err
			}
			n += len(level.values)
		}
		return n, nil

	case targetS3:
		if app.Objects == nil {
			return 0, fmt.Errorf("publishing to s3 requires S3_BUCKET")
		}
		if err := app.Objects.PublishSnapshot(ctx, app.Config.StandardsS3Key, snap); err != nil {
			return 0, err
		}
		return len(snapshotRows(snap)), nil

	default:
		return 0, fmt.Errorf("unknown publish target %q", target)
	}
}

// publishableSnapshot returns the configured snapshot, or one built from the
// default table.
func publishableSnapshot(v *viper.Viper) (*standards.Snapshot, error) {
	snap, err := snapshotFromConfig(v)
	if err != nil || snap != nil {
		return snap, err
	}
	return defaultSnapshot(), nil
}

func defaultSnapshot() *standards.Snapshot {
	snap := &standards.Snapshot{
		Version: standards.DefaultsVersion,
		Paths:   make(map[models.ProductLine]standards.Grouped),
	}
	for _, path := range models.ProductLines() {
		grouped := make(standards.Grouped)
		for key, value := range standards.Defaults(path) {
			if grouped[key.Category] == nil {
				grouped[key.Category] = make(map[string]float64)
			}
			grouped[key.Category][key.Name] = value
		}
		snap.Paths[path] = grouped
	}
	return snap
}

// level is one hash worth of standards: a path, or one bank's overrides.
type level struct {
	path   models.ProductLine
	bankID string
	values map[standards.Key]float64
}

func snapshotLevels(snap *standards.Snapshot) []level {
	var levels []level
	add := func(path models.ProductLine, bankID string, g standards.Grouped) {
		values := make(map[standards.Key]float64)
		for category, names := range g {
			for name, value := range names {
				values[standards.Key{Category: category, Name: name}] = value
			}
		}
		if len(values) > 0 {
			levels = append(levels, level{path: path, bankID: bankID, values: values})
		}
	}

	for _, path := range models.ProductLines() {
		add(path, "", snap.Paths[path])
	}

	banks := make([]string, 0, len(snap.Banks))
	for bank := range snap.Banks {
		banks = append(banks, bank)
	}
	sort.Strings(banks)
	for _, bank := range banks {
		for _, path := range models.ProductLines() {
			add(path, bank, snap.Banks[bank][path])
		}
	}
	return levels
}

func snapshotRows(snap *standards.Snapshot) []models.BankingStandard {
	var rows []models.BankingStandard
	for path, grouped := range snap.Paths {
		rows = append(rows, standards.FlattenGrouped(path, grouped, "")...)
	}
	for bank, paths := range snap.Banks {
		for path, grouped := range paths {
			rows = append(rows, standards.FlattenGrouped(path, grouped, bank)...)
		}
	}
	return rows
}
