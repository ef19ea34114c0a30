// Command underwrite evaluates loan requests from the command line and
// manages the banking standards stores.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"loan-underwriting-engine/internal/utils"
)

var version = "dev"

func newRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "underwrite",
		Short: "Loan underwriting and amortization decision engine",
		Long: `underwrite evaluates mortgage and consumer credit requests, including
refinancing, against institutional banking standards.

Standards and the lender panel can be supplied in a YAML file:

  standards:
    paths:
      mortgage:
        ltv:
          max: 80
    banks:
      acme:
        mortgage:
          ltv:
            max: 85
  lenders:
    - bank_id: acme
      name: Acme Bank
      tier: top`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return initConfig(cfgFile)
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./underwrite.yaml or $HOME/.config/underwrite/underwrite.yaml)")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(evaluateCmd())
	rootCmd.AddCommand(probabilityCmd())
	rootCmd.AddCommand(amortizeCmd())
	rootCmd.AddCommand(batchCmd())
	rootCmd.AddCommand(thresholdsCmd())
	rootCmd.AddCommand(standardsCmd())
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	utils.Sync()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(cfgFile string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home + "/.config/underwrite")
		}
		viper.AddConfigPath(".")
		viper.SetConfigName("underwrite")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("UNDERWRITE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	return utils.InitLogger(viper.GetString("logging.level"))
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "underwrite %s\n", version)
		},
	}
}
