package main

import (
	"context"
	"database/sql"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	kongdotenv "github.com/titusjaka/kong-dotenv-go"
	_ "modernc.org/sqlite"

	"github.com/cagomez/forecastbot/internal/api"
	"github.com/cagomez/forecastbot/internal/bot"
	"github.com/cagomez/forecastbot/internal/reddit"
	"github.com/cagomez/forecastbot/internal/store"
	"github.com/cagomez/forecastbot/internal/weather"
)

var cli struct {
	DB           string        `help:"Path to the SQLite reply ledger." default:"data/forecastbot.db"`
	Port         string        `help:"Ops HTTP server port." default:"8080"`
	PollInterval time.Duration `help:"Sleep between polling passes." default:"5s"`
	Subreddits   []string      `help:"Subreddits to poll, one chosen at random each pass." default:"all" env:"FORECASTBOT_SUBREDDITS"`
	NoPoll       bool          `help:"Disable polling (ops server only, for local dev)."`

	RedditClientID     string `env:"REDDIT_CLIENT_ID" required:"" help:"Reddit script-app client id."`
	RedditClientSecret string `env:"REDDIT_CLIENT_SECRET" required:"" help:"Reddit script-app client secret."`
	RedditUsername     string `env:"REDDIT_USERNAME" required:"" help:"Account the bot posts as."`
	RedditPassword     string `env:"REDDIT_PASSWORD" required:"" help:"Password for the bot account."`
	WundergroundAPIKey string `env:"WUNDERGROUND_API_KEY" required:"" help:"Weather Underground API key."`
}

func main() {
	kong.Parse(&cli,
		kong.Name("forecastbot"),
		kong.Description("Reddit bot that replies to forecastbot! comments with a multi-day weather forecast."),
		kong.Configuration(kongdotenv.ENVFileReader, ".env"),
	)

	db, err := sql.Open("sqlite", cli.DB)
	if err != nil {
		log.Fatalf("open ledger database: %v", err)
	}
	defer db.Close()

	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")

	st := store.New(db)
	if err := st.Migrate(); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	log.Println("ledger database migrated")

	source := reddit.NewClient(reddit.Credentials{
		ClientID:     cli.RedditClientID,
		ClientSecret: cli.RedditClientSecret,
		Username:     cli.RedditUsername,
		Password:     cli.RedditPassword,
	})
	fetcher := weather.NewClient(cli.WundergroundAPIKey)
	engine := bot.NewEngine(source, fetcher, st, cli.Subreddits, cli.PollInterval)
	server := api.NewServer(st, cli.Port)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if !cli.NoPoll {
		go engine.Run(ctx)
	} else {
		log.Println("polling disabled (--no-poll)")
	}

	log.Printf("starting ops server on :%s", cli.Port)
	if err := server.Run(ctx); err != nil {
		log.Fatalf("server: %v", err)
	}
}
