package cmd

import (
	"fmt"
	"os"

	"rebelinux-site/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "rebelinux-site",
	Short: "RebelInuX Site Service",
	Long: `rebelinux-site assembles the pages of the RebelInuX site.
Page shells and shared fragments live in S3-compatible storage; the header and
footer are loaded into every shell with retries before the page is served.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Console format with debug level gives ISO8601 timestamps for CLI errors
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			fmt.Println(err)
		}
		os.Exit(1)
	}
}
