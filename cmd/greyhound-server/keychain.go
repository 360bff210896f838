package main

import (
	configlibsql "greyhound-backend/lib/configutil/libsql"
	"greyhound-backend/services/keychain"
	"greyhound-backend/services/keychain/db"
)

type KeychainConfig struct {
	Database configlibsql.Struct `json:"database"`
}

func InitKeychain(cfg KeychainConfig) (keychain.Service, error) {
	database, err := cfg.Database.OpenDB(db.Schema)
	if err != nil {
		return keychain.Service{}, err
	}
	return keychain.NewService(database), nil
}
