package commands

import (
	"os"
	"sort"

	"seatwatch-backend/lib/serviceutil"
	"seatwatch-backend/services/watcher/ledger"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Prints both ledgers: last alert dates and registration records.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()
		alertStore, registrationStore := openStores(cfg.Ledger)
		alerts := ledger.NewAlertLedger(alertStore)
		registrations := ledger.NewRegistrationLedger(registrationStore)

		dates, err := alerts.All(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to read alert ledger", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Source", "Last alert"})
		sourceIDs := make([]string, 0, len(dates))
		for id := range dates {
			sourceIDs = append(sourceIDs, id)
		}
		sort.Strings(sourceIDs)
		for _, id := range sourceIDs {
			t.AppendRow(table.Row{id, dates[id]})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()

		records, err := registrations.All(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to read registration ledger", err)
		}

		t = table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Source", "Opportunity", "Variant", "Title", "Event date", "Registered"})
		sourceIDs = sourceIDs[:0]
		for id := range records {
			sourceIDs = append(sourceIDs, id)
		}
		sort.Strings(sourceIDs)
		for _, id := range sourceIDs {
			opportunityIDs := make([]string, 0, len(records[id]))
			for oid := range records[id] {
				opportunityIDs = append(opportunityIDs, oid)
			}
			sort.Strings(opportunityIDs)
			for _, oid := range opportunityIDs {
				rec := records[id][oid]
				t.AppendRow(table.Row{
					id, oid, rec.VariantCode, rec.Title, rec.EventDate, rec.IsRegistered,
				})
			}
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
