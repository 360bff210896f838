package cmd

import (
	"fmt"
	"os"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
)

var BaseUrl string
var AccessToken string

var client *resty.Client

var accountId string

var rootCmd = &cobra.Command{
	Use:   "greyhound-cli",
	Short: "greyhound-cli is a CLI interface for the greyhound collection schedule server.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&accountId, "id", "home",
		"The account id the command applies to.",
	)
}

func Execute() {
	client = resty.New()
	client.SetBaseURL(BaseUrl)
	if AccessToken != "" {
		client.SetAuthToken(AccessToken)
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
