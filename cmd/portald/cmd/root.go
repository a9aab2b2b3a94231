package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/MrEthical07/portalAuth/cmd/portald/cmd/accounts"
	"github.com/MrEthical07/portalAuth/cmd/portald/internal/config"
	"github.com/spf13/cobra"
)

var settings *config.Settings

var rootCmd = &cobra.Command{
	Use:   "portald",
	Short: "Faculty portal authentication server",
	Long: `portald serves the portal's login, logout and whoami endpoints behind the
session gateway, and manages the accounts it authenticates.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if err := applyFlags(cmd, s); err != nil {
			return err
		}
		settings = s
		accounts.Settings = s
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("db-url", "", "Database connection URL (env: DATABASE_URL)")
	rootCmd.PersistentFlags().String("addr", "", "Server bind address (env: PORTAL_ADDR)")
	rootCmd.PersistentFlags().String("redis-addr", "", "Redis address for the login throttle (env: REDIS_ADDR)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging (env: PORTAL_DEBUG)")

	rootCmd.AddCommand(accounts.AccountsCmd)
}

// applyFlags lets explicitly set flags win over the environment.
func applyFlags(cmd *cobra.Command, s *config.Settings) error {
	flags := cmd.Flags()
	for name, dst := range map[string]*string{
		"db-url":     &s.DatabaseURL,
		"addr":       &s.ServerAddr,
		"redis-addr": &s.RedisAddr,
	} {
		if !flags.Changed(name) {
			continue
		}
		v, err := flags.GetString(name)
		if err != nil {
			return err
		}
		*dst = v
	}
	if flags.Changed("debug") {
		v, err := flags.GetBool("debug")
		if err != nil {
			return err
		}
		s.Debug = v
	}
	return nil
}

func newLogger(s *config.Settings) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: s.LogLevel()}))
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
