package cmd

import (
	"log"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(nextCmd)
}

var nextCmd = &cobra.Command{
	Use:   "next",
	Short: "Prints a summary of the next collection for the account.",
	Run: func(cmd *cobra.Command, args []string) {
		var summary struct {
			NextCollectionDate  string            `json:"next_collection_date"`
			BinTypes            string            `json:"bin_types"`
			DaysUntilCollection int               `json:"days_until_collection"`
			CollectionStatus    string            `json:"collection_status"`
			ServiceDisruption   bool              `json:"service_disruption"`
			NextByBin           map[string]string `json:"next_by_bin"`
		}

		res, err := client.R().
			SetContext(cmd.Context()).
			SetQueryParam("id", accountId).
			SetResult(&summary).
			Get("/api/v1/next")
		if err != nil {
			log.Fatal(err)
		}
		if res.IsError() {
			log.Fatalf("%s: %s", res.Status(), strings.TrimSpace(res.String()))
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendRow(table.Row{"Next collection", summary.NextCollectionDate})
		t.AppendRow(table.Row{"Bins", summary.BinTypes})
		t.AppendRow(table.Row{"When", summary.CollectionStatus})
		if summary.ServiceDisruption {
			t.AppendRow(table.Row{"Disruption", "collection cancelled"})
		}
		for bin, date := range summary.NextByBin {
			t.AppendRow(table.Row{"Next " + bin, date})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
