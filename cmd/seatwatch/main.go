package main

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	"seatwatch-backend/internal/scrapers/homedepot"
	"seatwatch-backend/internal/scrapers/library"
	"seatwatch-backend/lib/configutil"
	"seatwatch-backend/lib/serviceutil"
	"seatwatch-backend/lib/telemetry"
	"seatwatch-backend/services/notify"
	"seatwatch-backend/services/registrar"
	"seatwatch-backend/services/watcher"
	"seatwatch-backend/services/watcher/ledger"
	ledgerdb "seatwatch-backend/services/watcher/ledger/db"

	_ "modernc.org/sqlite"
)

type LedgerConfig struct {
	// Backend is "file" or "sqlite".
	Backend string `json:"backend"`
	// Dir holds last_alert.json and registrations.json for the file backend.
	Dir string `json:"dir"`
	// DbPath is the sqlite file for the sqlite backend.
	DbPath string `json:"db_path"`
}

type ScraperConfig struct {
	BaseUrl string `json:"base_url"`
}

type EmailConfig struct {
	Server       string   `json:"server"`
	Port         int      `json:"port"`
	SenderName   string   `json:"sender_name"`
	EmailAddress string   `json:"email_address"`
	Password     string   `json:"password"`
	Recipients   []string `json:"recipients"`
}

type Config struct {
	Sources   []watcher.Source `json:"sources"`
	Ledger    LedgerConfig     `json:"ledger"`
	HomeDepot ScraperConfig    `json:"home_depot"`
	Library   ScraperConfig    `json:"library"`
	Registrar ScraperConfig    `json:"registrar"`
	Email     *EmailConfig     `json:"email"`
}

func openStores(cfg LedgerConfig) (alerts, registrations ledger.Store) {
	if cfg.Backend == "sqlite" {
		db, err := sql.Open("sqlite", cfg.DbPath)
		if err != nil {
			serviceutil.Fatal("failed to open ledger database", err)
		}
		if _, err := db.Exec(ledgerdb.Schema); err != nil {
			serviceutil.Fatal("failed to migrate ledger database", err)
		}
		return ledger.NewSQLStore(db, "last_alert"), ledger.NewSQLStore(db, "registrations")
	}

	dir := cfg.Dir
	if dir == "" {
		dir = "."
	}
	return ledger.NewFileStore(filepath.Join(dir, "last_alert.json")),
		ledger.NewFileStore(filepath.Join(dir, "registrations.json"))
}

func buildNotifier(cfg Config) notify.Notifier {
	slack := notify.NewSlackNotifier(notify.SlackOptions{
		Token:   os.Getenv("SLACK_API_TOKEN"),
		Channel: os.Getenv("CHANNEL_ID"),
	})
	if cfg.Email == nil {
		return slack
	}
	return notify.Multi{
		slack,
		notify.NewEmailNotifier(notify.SmtpOptions{
			Server:       cfg.Email.Server,
			Port:         cfg.Email.Port,
			SenderName:   cfg.Email.SenderName,
			EmailAddress: cfg.Email.EmailAddress,
			Password:     cfg.Email.Password,
			Recipients:   cfg.Email.Recipients,
		}),
	}
}

func main() {
	ctx := serviceutil.SignalContext()
	serviceutil.InitSlog(os.Getenv("DEBUG") != "")
	configutil.LoadEnv()

	config, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}

	t, err := telemetry.SetupFromEnv(ctx, "seatwatch")
	if err != nil {
		serviceutil.Fatal("failed to setup telemetry", err)
	}
	defer t.Shutdown(context.Background())
	telemetry.InstrumentPerfStats(ctx)

	notifier := buildNotifier(config)
	alerts, registrations := openStores(config.Ledger)

	svc := &watcher.Service{
		Fetchers: map[string]watcher.Fetcher{
			"homedepot": homedepot.NewClient(homedepot.ClientOptions{
				BaseUrl: config.HomeDepot.BaseUrl,
			}),
			"library": library.NewClient(library.ClientOptions{
				BaseUrl: config.Library.BaseUrl,
			}),
		},
		Notifier:      notifier,
		Alerts:        ledger.NewAlertLedger(alerts),
		Registrations: ledger.NewRegistrationLedger(registrations),
		Registrar:     registrar.New(config.Registrar.BaseUrl, notifier),
	}

	// one invocation is one poll of every source, cron handles cadence.
	// a failed source never blocks the ones after it.
	failed := 0
	for _, src := range config.Sources {
		if err := svc.Run(ctx, src); err != nil {
			failed++
		}
	}
	if failed == len(config.Sources) && failed > 0 {
		os.Exit(1)
	}
}
