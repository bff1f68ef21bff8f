package main

import (
	"context"
	"log"
	"os"

	"animebot/internal/config"
	"animebot/internal/daemonrun"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, _, _, err := config.Load(os.Getenv("ANIMEBOT_CONFIG"))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if err := daemonrun.Run(context.Background(), cfg, daemonrun.Options{Version: version}); err != nil {
		log.Fatalf("animebotd: %v", err)
	}
}
