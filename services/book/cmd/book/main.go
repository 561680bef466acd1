package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"shelfhub/internal/entityservice"
	"shelfhub/internal/util"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := entityservice.LoadConfig(entityservice.ConfigPath, "book")
	if err != nil {
		log.Printf("failed to load config: %v", err)
		return 1
	}
	logger := util.InitLogger("book", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := entityservice.Run(ctx, "book", cfg); err != nil {
		logger.Error("book service error", "err", err)
		return 1
	}
	return 0
}
