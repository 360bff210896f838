package main

import (
	"flag"
	"net/http"

	"greyhound-backend/lib/configutil"
	"greyhound-backend/lib/serviceutil"
)

type Config struct {
	// defaults to 8000
	Port int `json:"port"`
	// bearer token guarding the /api/v1 routes, empty disables the check
	AccessToken string          `json:"access_token"`
	Keychain    KeychainConfig  `json:"keychain"`
	Greyhound   GreyhoundConfig `json:"greyhound"`
}

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	flag.Parse()

	ctx := serviceutil.SignalContext()

	InitTelemetry(ctx, *verbose)

	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("read config", err)
	}
	if cfg.Port == 0 {
		cfg.Port = 8000
	}

	mux := http.NewServeMux()

	kc, err := InitKeychain(cfg.Keychain)
	if err != nil {
		serviceutil.Fatal("init keychain", err)
	}
	err = InitGreyhound(ctx, mux, cfg, kc)
	if err != nil {
		serviceutil.Fatal("init greyhound", err)
	}

	go serviceutil.StartHttpServer(cfg.Port, mux)
	<-ctx.Done()
}
