package main

import (
	"context"
	"log"
	"os"

	"github.com/dkrasnov/consentvault/internal/client/cli"
	"github.com/dkrasnov/consentvault/internal/client/config"
)

func main() {
	ctx := context.Background()
	cfg := config.LoadConfig()

	app, err := cli.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := app.Run(ctx, os.Args[1:]); err != nil {
		log.Fatalf("%v", err)
	}
}
