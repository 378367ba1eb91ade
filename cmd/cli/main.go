package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/wadjakorntonsri/go-link-redirector/pkg/app"
	"github.com/wadjakorntonsri/go-link-redirector/pkg/config"
	"github.com/wadjakorntonsri/go-link-redirector/pkg/core/domain"
	"github.com/wadjakorntonsri/go-link-redirector/pkg/core/services"
	"github.com/wadjakorntonsri/go-link-redirector/pkg/logging"
	"github.com/wadjakorntonsri/go-link-redirector/pkg/ports"
)

const usage = "expected 'set-api-key', 'hash-key' or 'export' subcommands"

func main() {
	setKeyCmd := flag.NewFlagSet("set-api-key", flag.ExitOnError)
	setKey := setKeyCmd.String("key", "", "plaintext API key to provision")
	hashKeyCmd := flag.NewFlagSet("hash-key", flag.ExitOnError)
	hashKey := hashKeyCmd.String("key", "", "plaintext API key to digest")
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	switch os.Args[1] {
	case "hash-key":
		hashKeyCmd.Parse(os.Args[2:])
		if *hashKey == "" {
			hashKeyCmd.PrintDefaults()
			os.Exit(1)
		}
		fmt.Println(services.HashAPIKey(*hashKey))
		return
	case "set-api-key":
		setKeyCmd.Parse(os.Args[2:])
		if *setKey == "" {
			setKeyCmd.PrintDefaults()
			os.Exit(1)
		}
	case "export":
		exportCmd.Parse(os.Args[2:])
	default:
		fmt.Println(usage)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	logger := logging.New(os.Stderr, cfg.AppEnv, cfg.LogLevel)

	ctx := context.Background()
	repo, err := app.OpenRepository(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to connect to db: %v", err)
	}
	defer repo.Close()

	switch os.Args[1] {
	case "set-api-key":
		if err := doSetAPIKey(ctx, repo, *setKey); err != nil {
			log.Fatalf("Provisioning failed: %v", err)
		}
		logger.Info("api key provisioned", "settings_id", domain.SettingsID)
	case "export":
		if err := doExport(ctx, repo, os.Stdout); err != nil {
			log.Fatalf("Export failed: %v", err)
		}
	}
}

// doSetAPIKey stores only the digest; the plaintext key never reaches the store.
func doSetAPIKey(ctx context.Context, repo ports.LinkRepository, key string) error {
	return repo.SaveSettings(ctx, domain.AuthSettings{
		ID:                    domain.SettingsID,
		EncryptedGlobalAPIKey: services.HashAPIKey(key),
	})
}

func doExport(ctx context.Context, repo ports.LinkRepository, w io.Writer) error {
	links, err := repo.ListLinks(ctx)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(links)
}
