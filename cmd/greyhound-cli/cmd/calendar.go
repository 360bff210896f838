package cmd

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(calendarCmd)
}

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Prints the upcoming collection days for the account.",
	Run: func(cmd *cobra.Command, args []string) {
		var payload struct {
			FetchedAt time.Time `json:"fetched_at"`
			Events    []struct {
				Date      string   `json:"date"`
				Bins      []string `json:"bins"`
				Cancelled bool     `json:"cancelled"`
			} `json:"events"`
		}

		res, err := client.R().
			SetContext(cmd.Context()).
			SetQueryParam("id", accountId).
			SetResult(&payload).
			Get("/api/v1/events")
		if err != nil {
			log.Fatal(err)
		}
		if res.IsError() {
			log.Fatalf("%s: %s", res.Status(), strings.TrimSpace(res.String()))
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Date", "Bins", "Status"})

		for _, event := range payload.Events {
			status := "scheduled"
			if event.Cancelled {
				status = "cancelled"
			}
			t.AppendRow(table.Row{
				event.Date,
				strings.Join(event.Bins, ", "),
				status,
			})
		}

		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
