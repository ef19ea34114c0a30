package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"loan-underwriting-engine/internal/handlers"
	"loan-underwriting-engine/internal/utils"
)

func batchCmd() *cobra.Command {
	var validateOnly, save bool

	cmd := &cobra.Command{
		Use:   "batch <file.csv>",
		Short: "Evaluate every application in a CSV file",
		Long: `Evaluate a CSV of loan applications, one per row. The file needs at least
product_line, amount, rate, years, monthly_income and age columns; common
aliases such as loan_amount, term or annual_income are accepted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return fmt.Errorf("failed to read CSV: %w", err)
			}

			if validateOnly {
				return printJSON(cmd.OutOrStdout(), utils.ValidateCSVStructure(string(content)))
			}

			ctx := cmd.Context()
			app, err := newApp(ctx, viper.GetViper())
			if err != nil {
				return err
			}
			defer app.Close()

			h := handlers.NewEvaluateHandler(app.Engine)
			if save {
				h = handlers.NewEvaluateHandlerFromApp(app)
			}

			batchID := handlers.GenerateBatchID(filepath.Base(args[0]), time.Now())
			return printJSON(cmd.OutOrStdout(), h.EvaluateBatch(ctx, batchID, string(content)))
		},
	}

	cmd.Flags().BoolVar(&validateOnly, "validate", false, "only check the CSV structure")
	cmd.Flags().BoolVar(&save, "save", false, "store each decision and send notifications when configured")

	return cmd
}
