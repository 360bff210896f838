package main

import (
	"fmt"
	"os"

	"greyhound-backend/cmd/greyhound-cli/cmd"
)

func main() {
	baseUrl, ok := os.LookupEnv("GREYHOUND_BASE_URL")
	if !ok {
		fmt.Println("You should specify the base url of the greyhound server in the environment variable GREYHOUND_BASE_URL.")
		os.Exit(1)
	}
	cmd.BaseUrl = baseUrl
	cmd.AccessToken = os.Getenv("GREYHOUND_ACCESS_TOKEN")

	cmd.Execute()
}
