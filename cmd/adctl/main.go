// Package main is the adctl command line client for ad-placement-service.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"ad-placement-service/internal/infra/adclient"
	"ad-placement-service/internal/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("ADCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use:   "adctl",
		Short: "Command line client for the ad placement service",
		Long: `adctl previews placements, manages the local interest list and
seeds advertisements through the admin API.

Every flag can also be set through an ADCTL_ environment variable,
for example ADCTL_SERVER=http://ads.internal:8080.`,
		SilenceUsage: true,
	}

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.String("server", "http://localhost:8080", "Placement API base URL")
	flags.Duration("timeout", 10*time.Second, "Request timeout")
	flags.String("interests-file", defaultInterestsPath(), "Local interest list")
	flags.Bool("verbose", false, "Log client activity to stderr")
	_ = v.BindPFlags(flags)

	// Add subcommands
	rootCmd.AddCommand(
		newPreviewCmd(v),
		newInterestCmd(v),
		newSeedCmd(v),
	)

	return rootCmd
}

// clientConfig builds the API client settings from flags and environment.
func clientConfig(v *viper.Viper) adclient.ClientConfig {
	cfg := adclient.DefaultConfig(strings.TrimRight(v.GetString("server"), "/"))
	if timeout := v.GetDuration("timeout"); timeout > 0 {
		cfg.Timeout = timeout
	}
	cfg.UserAgent = "adctl"
	return cfg
}

func newLogger(v *viper.Viper) (*zap.Logger, error) {
	level := "error"
	if v.GetBool("verbose") {
		level = "debug"
	}

	log, err := logger.New(logger.Config{Level: level, Format: "console", Output: "stderr"}, logger.SentryConfig{})
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	return log.Component("adctl"), nil
}

func defaultInterestsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".adctl-interests.yaml"
	}
	return filepath.Join(dir, "adctl", "interests.yaml")
}
