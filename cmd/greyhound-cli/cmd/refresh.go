package cmd

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(refreshCmd)
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Forces an immediate re-scrape of the account's schedule.",
	Run: func(cmd *cobra.Command, args []string) {
		res, err := client.R().
			SetContext(cmd.Context()).
			SetQueryParam("id", accountId).
			Post("/api/v1/refresh")
		if err != nil {
			log.Fatal(err)
		}
		if res.IsError() {
			log.Fatalf("%s: %s", res.Status(), strings.TrimSpace(res.String()))
		}
		fmt.Println("refreshed.")
	},
}
