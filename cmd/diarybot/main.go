package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/diarybot/internal/bot"
	"github.com/dmitrijs2005/diarybot/internal/bot/config"
)

func main() {

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	// Configuration errors are the only fatal ones.
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v\nSet TELEGRAM_BOT_TOKEN to the token issued by @BotFather.", err)
	}

	ctx := context.Background()
	app, err := bot.NewApp(ctx, cfg, os.Stdout)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer app.Close()

	if err := app.Run(ctx); err != nil {
		log.Printf("%v", err)
	}
}
