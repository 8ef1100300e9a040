package commands

import (
	"fmt"
	"log/slog"
	"os"

	"seatwatch-backend/services/notify"
	"seatwatch-backend/services/registrar"
	"seatwatch-backend/services/watcher"

	"github.com/spf13/cobra"
)

var registerSource *string
var registerOpportunity *string
var registerVariant *string
var registerDryRun *bool

func init() {
	registerSource = registerCmd.Flags().String("source", "home_depot", "Source id whose claimant identity to use.")
	registerOpportunity = registerCmd.Flags().String("opportunity", "", "Opportunity id, e.g. WS00037.")
	registerVariant = registerCmd.Flags().String("variant", "", "Variant code, e.g. KW0005.")
	registerDryRun = registerCmd.Flags().Bool("dry-run", false, "Log the request instead of sending it.")
	registerCmd.MarkFlagRequired("opportunity")
	registerCmd.MarkFlagRequired("variant")
	rootCmd.AddCommand(registerCmd)
}

var registerCmd = &cobra.Command{
	Use:   "register --opportunity <id> --variant <code> [--dry-run]",
	Short: "Fires a single claim attempt directly, bypassing alerting and decision rules.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := readConfig()

		var src *watcher.Source
		for i := range cfg.Sources {
			if cfg.Sources[i].ID == *registerSource {
				src = &cfg.Sources[i]
				break
			}
		}
		if src == nil {
			return fmt.Errorf("source %q is not configured", *registerSource)
		}
		if src.AutoClaim == nil {
			return fmt.Errorf("source %q has no claimant identity configured", *registerSource)
		}

		notifier := notify.NewSlackNotifier(notify.SlackOptions{
			Token:   os.Getenv("SLACK_API_TOKEN"),
			Channel: os.Getenv("CHANNEL_ID"),
		})
		r := registrar.New(cfg.Registrar.BaseUrl, notifier)

		result := r.Register(cmd.Context(), watcher.ClaimRequest{
			OpportunityID:    *registerOpportunity,
			VariantCode:      *registerVariant,
			Claimant:         src.AutoClaim.Claimant,
			LocationID:       src.LocationID,
			ParticipantCount: src.AutoClaim.ParticipantCount,
			DryRun:           *registerDryRun,
		})
		slog.Info("registration attempt finished",
			"success", result.Success, "detail", result.Detail)
		if !result.Success {
			return fmt.Errorf("registration failed: %s", result.Detail)
		}
		return nil
	},
}
