package main

import (
	"context"
	"log"

	"github.com/dkrasnov/consentvault/internal/server"
	"github.com/dkrasnov/consentvault/internal/server/config"
)

func main() {
	ctx := context.Background()
	cfg := config.LoadConfig()

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)
}
