package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"loan-underwriting-engine/internal/handlers"
	"loan-underwriting-engine/internal/underwriting"
	"loan-underwriting-engine/internal/utils"
)

func evaluateCmd() *cobra.Command {
	var file, bankID string
	var save bool

	cmd := &cobra.Command{
		Use:   "evaluate <product>",
		Short: "Evaluate a loan request",
		Long: `Evaluate a JSON loan request against the effective banking standards and
print the full decision. Products: mortgage, credit, mortgage-refinance,
credit-refinance.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			app, err := newApp(ctx, viper.GetViper())
			if err != nil {
				return err
			}
			defer app.Close()

			body, err := readInput(cmd.InOrStdin(), file)
			if err != nil {
				return fmt.Errorf("failed to read request: %w", err)
			}
			appReq, req, err := handlers.ParseApplication(args[0], string(body))
			if err != nil {
				return err
			}
			if bankID != "" {
				req.BankID = bankID
			}

			ev, err := app.Engine.Evaluate(ctx, req)
			if err != nil {
				return err
			}

			if save {
				handlers.NewEvaluateHandlerFromApp(app).Record(ctx, req, ev, appReq.NotifyEmail)
			}

			return printJSON(cmd.OutOrStdout(), ev)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "-", "request JSON file (- for stdin)")
	cmd.Flags().StringVar(&bankID, "bank", "", "evaluate against this bank's overrides")
	cmd.Flags().BoolVar(&save, "save", false, "store the decision and send notify_email when configured")

	return cmd
}

func probabilityCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "probability <product>",
		Short: "Estimate the approval probability of a loan request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			app, err := newApp(ctx, viper.GetViper())
			if err != nil {
				return err
			}
			defer app.Close()

			body, err := readInput(cmd.InOrStdin(), file)
			if err != nil {
				return fmt.Errorf("failed to read request: %w", err)
			}
			_, req, err := handlers.ParseApplication(args[0], string(body))
			if err != nil {
				return err
			}

			score, err := app.Engine.Probability(ctx, req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), score)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "-", "request JSON file (- for stdin)")

	return cmd
}

func amortizeCmd() *cobra.Command {
	var amount, rate, upfront float64
	var years int

	cmd := &cobra.Command{
		Use:   "amortize",
		Short: "Compute the level monthly payment of a loan",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := underwriting.CalculateAmortization(amount-upfront, rate, years, upfront)
			if err != nil {
				return err
			}

			s := a.Summary()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Principal financed: %s\n", utils.FormatAmount(s.PrincipalFinanced))
			fmt.Fprintf(out, "Monthly payment:    %s\n", utils.FormatAmount(s.MonthlyPayment))
			fmt.Fprintf(out, "Total payment:      %s\n", utils.FormatAmount(s.TotalPayment))
			fmt.Fprintf(out, "Total interest:     %s\n", utils.FormatAmount(s.TotalInterest))
			return nil
		},
	}

	cmd.Flags().Float64Var(&amount, "amount", 0, "loan amount")
	cmd.Flags().Float64Var(&rate, "rate", 0, "annual interest rate in percent")
	cmd.Flags().IntVar(&years, "years", 0, "term in years")
	cmd.Flags().Float64Var(&upfront, "initial-payment", 0, "initial payment deducted from the amount")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("rate")
	_ = cmd.MarkFlagRequired("years")

	return cmd
}
