package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"campaignspace/internal/server"
	"campaignspace/internal/server/config"
)

func main() {

	// Missing .env is fine, variables may come from the environment.
	_ = godotenv.Load()

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := server.NewApp(ctx, cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
