package commands

import (
	"log/slog"

	"seatwatch-backend/services/watcher"

	"github.com/spf13/cobra"
)

var runSource *string
var runDryRun *bool

func init() {
	runSource = runCmd.Flags().String("source", "", "Only poll the source with this id.")
	runDryRun = runCmd.Flags().Bool("dry-run", false, "Force dry-run claims regardless of config.")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [--source <id>] [--dry-run]",
	Short: "Polls configured sources once, exactly like a cron invocation.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()
		svc, _ := buildService(cfg)

		var sources []watcher.Source
		for _, src := range cfg.Sources {
			if *runSource != "" && src.ID != *runSource {
				continue
			}
			if *runDryRun && src.AutoClaim != nil {
				src.AutoClaim.DryRun = true
			}
			sources = append(sources, src)
		}
		if len(sources) == 0 {
			slog.Warn("no sources matched", "source", *runSource)
			return
		}

		for _, src := range sources {
			if err := svc.Run(cmd.Context(), src); err != nil {
				slog.Error("source run failed", "source", src.ID, "err", err)
			}
		}
	},
}
