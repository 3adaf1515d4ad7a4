package cmd

import (
	"context"
	"fmt"
	"os"

	"rebelinux-site/core/config"
	"rebelinux-site/core/logger"
	"rebelinux-site/core/storage"
	"rebelinux-site/feature/integrity"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var fixFlag bool

// integrityCmd represents the integrity command
var integrityCmd = &cobra.Command{
	Use:   "integrity",
	Short: "Perform integrity checks on the site storage",
	Long:  `Checks if the storage bucket has the required folder structure, page shells and shared fragments.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) > 0 {
			cmd.Help()
			return
		}
		runIntegrityChecks(cmd.Context(), true, true, false)
	},
}

// structureCmd represents the integrity structure command
var structureCmd = &cobra.Command{
	Use:   "structure",
	Short: "Check and fix folder structure",
	Run: func(cmd *cobra.Command, args []string) {
		runIntegrityChecks(cmd.Context(), true, false, fixFlag)
	},
}

// fragmentsCmd represents the integrity fragments command
var fragmentsCmd = &cobra.Command{
	Use:   "fragments",
	Short: "Check shared fragments and page shells",
	Run: func(cmd *cobra.Command, args []string) {
		runIntegrityChecks(cmd.Context(), false, true, false)
	},
}

func init() {
	RootCmd.AddCommand(integrityCmd)
	integrityCmd.AddCommand(structureCmd, fragmentsCmd)

	structureCmd.Flags().BoolVar(&fixFlag, "fix", false, "Fix missing folders")
}

func runIntegrityChecks(ctx context.Context, runStructure, runFragments, fix bool) {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	store, err := storage.NewClient(cfg.Storage)
	if err != nil {
		logg.Fatal("Failed to create storage client", zap.Error(err))
	}

	svc := integrity.NewService(store, cfg.Storage.Bucket, logg)

	if runStructure {
		logg.Info("Checking folder structure...")
		missing, err := svc.CheckStructure(ctx)
		if err != nil {
			logg.Fatal("Structure check failed", zap.Error(err))
		}

		if len(missing) == 0 {
			logg.Info("Structure is intact.")
		} else {
			logg.Warn("Missing folders detected", zap.Strings("missing", missing))

			if fix {
				logg.Info("Fixing missing folders...")
				if err := svc.FixStructure(ctx, missing); err != nil {
					logg.Fatal("Failed to fix structure", zap.Error(err))
				}
				logg.Info("Structure fixed successfully.")
			} else {
				logg.Info("Run 'integrity structure --fix' to create missing folders.")
			}
		}
	}

	if runFragments {
		logg.Info("Checking fragments and page shells...")
		report, err := svc.CheckFragments(ctx)
		if err != nil {
			logg.Fatal("Fragment check failed", zap.Error(err))
		}

		if report.OK() {
			logg.Info("Fragments and page shells are intact.")
		} else {
			if len(report.Missing) > 0 {
				logg.Warn("Missing objects detected", zap.Strings("missing", report.Missing))
			}
			if len(report.Malformed) > 0 {
				logg.Warn("Malformed objects detected", zap.Strings("malformed", report.Malformed))
			}
		}
	}
}
