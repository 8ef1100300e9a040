package commands

import (
	"database/sql"
	"os"
	"path/filepath"

	"seatwatch-backend/internal/scrapers/homedepot"
	"seatwatch-backend/internal/scrapers/library"
	"seatwatch-backend/lib/configutil"
	"seatwatch-backend/lib/serviceutil"
	"seatwatch-backend/services/notify"
	"seatwatch-backend/services/registrar"
	"seatwatch-backend/services/watcher"
	"seatwatch-backend/services/watcher/ledger"
	ledgerdb "seatwatch-backend/services/watcher/ledger/db"

	_ "modernc.org/sqlite"
)

type LedgerConfig struct {
	Backend string `json:"backend"`
	Dir     string `json:"dir"`
	DbPath  string `json:"db_path"`
}

type ScraperConfig struct {
	BaseUrl string `json:"base_url"`
}

type Config struct {
	Sources   []watcher.Source `json:"sources"`
	Ledger    LedgerConfig     `json:"ledger"`
	HomeDepot ScraperConfig    `json:"home_depot"`
	Library   ScraperConfig    `json:"library"`
	Registrar ScraperConfig    `json:"registrar"`
}

func readConfig() Config {
	configutil.LoadEnv()
	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	return cfg
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

func buildService(cfg Config) (*watcher.Service, notify.Notifier) {
	notifier := notify.NewSlackNotifier(notify.SlackOptions{
		Token:   os.Getenv("SLACK_API_TOKEN"),
		Channel: os.Getenv("CHANNEL_ID"),
	})
	alerts, registrations := openStores(cfg.Ledger)

	return &watcher.Service{
		Fetchers: map[string]watcher.Fetcher{
			"homedepot": homedepot.NewClient(homedepot.ClientOptions{
				BaseUrl: cfg.HomeDepot.BaseUrl,
			}),
			"library": library.NewClient(library.ClientOptions{
				BaseUrl: cfg.Library.BaseUrl,
			}),
		},
		Notifier:      notifier,
		Alerts:        ledger.NewAlertLedger(alerts),
		Registrations: ledger.NewRegistrationLedger(registrations),
		Registrar:     registrar.New(cfg.Registrar.BaseUrl, notifier),
	}, notifier
}
