package cmd

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(addAccountCmd)
}

var addAccountCmd = &cobra.Command{
	Use:   "add-account <account-number> <pin>",
	Short: "Registers portal credentials for the account, verifying them with a live login first.",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		res, err := client.R().
			SetContext(cmd.Context()).
			SetBody(map[string]string{
				"id":             accountId,
				"account_number": args[0],
				"pin":            args[1],
			}).
			Put("/api/v1/accounts")
		if err != nil {
			log.Fatal(err)
		}
		if res.IsError() {
			log.Fatalf("%s: %s", res.Status(), strings.TrimSpace(res.String()))
		}
		fmt.Printf("account %q registered.\n", accountId)
	},
}
