package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/config"
)

var version = "dev"

func newRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "ledger",
		Short: "📒 Multi-tenant income and expense ledger",
		Long: `ledger records income and expense transactions per tenant, summarizes
balances over daily, weekly, monthly or yearly windows, analyses spending by
category, merchant, account or project, and moves data in and out as CSV,
XLSX, OFX or Google Sheets reports.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(cmd, cfgFile)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/ledger/config.yaml)")
	flags.String("db", "", "database path (default: $HOME/.local/share/ledger/ledger.db)")
	flags.StringP("tenant", "t", "", "tenant id or name")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "console", "log format (console, json)")

	_ = viper.BindPFlag(config.KeyDatabasePath, flags.Lookup("db"))
	_ = viper.BindPFlag(config.KeyTenant, flags.Lookup("tenant"))
	_ = viper.BindPFlag(config.KeyLogLevel, flags.Lookup("log-level"))
	_ = viper.BindPFlag(config.KeyLogFormat, flags.Lookup("log-format"))

	rootCmd.AddCommand(
		tenantCmd(),
		categoriesCmd(),
		txCmd(),
		summaryCmd(),
		analysisCmd(),
		importCmd(),
		exportCmd(),
		reportCmd(),
		migrateCmd(),
		versionCmd(),
	)

	return rootCmd
}

func main() {
	interrupts := cli.NewInterruptHandler(os.Stderr, "Pending changes were rolled back.")
	ctx, stop := interrupts.Watch(context.Background())

	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, cli.FormatError(err.Error()))
		os.Exit(exitCode(err))
	}
}

func initConfig(cmd *cobra.Command, cfgFile string) error {
	// .env values feed the environment before viper reads it.
	if err := config.LoadDotEnv(".env", filepath.Join(config.ConfigDir(), ".env")); err != nil {
		return err
	}

	config.SetDefaults(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("LEDGER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("%w: failed to read config: %w", common.ErrInvalidConfig, err)
		}
	}

	if err := setupLogging(cmd); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	return nil
}

func setupLogging(cmd *cobra.Command) error {
	return common.SetupLogger(cmd.ErrOrStderr(),
		viper.GetString(config.KeyLogLevel),
		viper.GetString(config.KeyLogFormat))
}

// exitCode maps error kinds to distinct process exit codes.
func exitCode(err error) int {
	switch common.KindOf(err) {
	case common.KindInvalidInput, common.KindInvalidRange:
		return 2
	case common.KindNotFound:
		return 3
	case common.KindConflict:
		return 4
	case common.KindCanceled:
		return 130
	default:
		return 1
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ledger %s\n", version)
		},
	}
}
