package main

import (
	"context"
	"net/http"
	"time"

	"greyhound-backend/lib/serviceutil"
	greyhoundd "greyhound-backend/services/greyhound"
	"greyhound-backend/services/greyhound/server"
	"greyhound-backend/services/keychain"
)

type SmtpConfig struct {
	Server       string `json:"server"`
	Port         int    `json:"port"`
	EmailAddress string `json:"email_address"`
	Password     string `json:"password"`
}

type NotifyConfig struct {
	Smtp       SmtpConfig `json:"smtp"`
	Recipients []string   `json:"recipients"`
	// local hour at which reminder emails go out
	Hour int `json:"hour"`
}

type GreyhoundConfig struct {
	// overrides the production portal url
	BaseUrl string `json:"base_url"`
	// defaults to 180
	RefreshIntervalMinutes int `json:"refresh_interval_minutes"`
	// reminder emails are disabled when absent
	Notify *NotifyConfig `json:"notify"`
}

func InitGreyhound(ctx context.Context, mux *http.ServeMux, cfg Config, kc keychain.Service) error {
	var notify *greyhoundd.NotifyOptions
	if cfg.Greyhound.Notify != nil {
		notify = &greyhoundd.NotifyOptions{
			Smtp: greyhoundd.SmtpConfig{
				Server:       cfg.Greyhound.Notify.Smtp.Server,
				Port:         cfg.Greyhound.Notify.Smtp.Port,
				EmailAddress: cfg.Greyhound.Notify.Smtp.EmailAddress,
				Password:     cfg.Greyhound.Notify.Smtp.Password,
			},
			Recipients: cfg.Greyhound.Notify.Recipients,
			Hour:       cfg.Greyhound.Notify.Hour,
		}
	}

	svc := greyhoundd.NewService(greyhoundd.Options{
		Keychain:        kc,
		BaseUrl:         cfg.Greyhound.BaseUrl,
		RefreshInterval: time.Duration(cfg.Greyhound.RefreshIntervalMinutes) * time.Minute,
		Notify:          notify,
	})
	svc.StartDaemons(ctx)

	routes := http.NewServeMux()
	server.NewService(svc, kc).Register(routes)

	// calendar apps cannot send an authorization header, the feed relies
	// on its own opaque tokens instead
	mux.Handle("/feed/", routes)
	mux.Handle("/api/v1/", serviceutil.VerifyAccessToken(cfg.AccessToken, routes))

	return nil
}
