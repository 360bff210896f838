package cmd

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(subscribeCmd)
}

var subscribeCmd = &cobra.Command{
	Use:   "subscribe",
	Short: "Mints a calendar subscription feed url for the account.",
	Run: func(cmd *cobra.Command, args []string) {
		var subscription struct {
			Token string `json:"token"`
			Url   string `json:"url"`
		}

		res, err := client.R().
			SetContext(cmd.Context()).
			SetQueryParam("id", accountId).
			SetResult(&subscription).
			Post("/api/v1/subscribe")
		if err != nil {
			log.Fatal(err)
		}
		if res.IsError() {
			log.Fatalf("%s: %s", res.Status(), strings.TrimSpace(res.String()))
		}

		fmt.Println("Add this url to your calendar app:")
		fmt.Println(strings.TrimSuffix(BaseUrl, "/") + subscription.Url)
	},
}
