// @title                       Thermal Printer API
// @version                     1.0
// @description                 Configure network ESC/POS receipt printers, watch their status and print content or templates.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"os"

	"github.com/spf13/cobra"

	"thermal_printer/internal/config"
	"thermal_printer/internal/logger"
)

var (
	flagConfig  string
	flagEnvFile string

	cfg *config.Config
	log *logger.Logger
)

var rootCmd = &cobra.Command{
	Use:           "thermal-printer",
	Short:         "Network ESC/POS receipt printer service",
	Long:          "thermal-printer keeps track of network receipt printers, prints markdown-like content and templates on them and serves an HTTP API for both.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(flagEnvFile); err != nil {
			return err
		}
		loaded, err := config.Load(flagConfig)
		if err != nil {
			return err
		}
		cfg = loaded
		log = logger.Init(cfg.Log.Level, cfg.Log.Format)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default configs/config.yml)")
	rootCmd.PersistentFlags().StringVar(&flagEnvFile, "env-file", ".env", "dotenv file loaded before the config")
	rootCmd.AddCommand(
		newServeCmd(),
		newPrintCmd(),
		newCheckCmd(),
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Get().Errorw("command failed", "err", err)
		os.Exit(1)
	}
}
