package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"longevity/internal/analysis"
	"longevity/internal/auth"
	"longevity/internal/config"
	"longevity/internal/garmin"
	"longevity/internal/logging"
	"longevity/internal/service"
	"longevity/internal/store"
	"longevity/internal/strava"
)

const usage = `Usage: longevity <command> [flags]

Commands:
  tui      interactive dashboard (default)
  sync     pull from the configured providers and recompute
  serve    run the HTTP API
  status   print days since last activity, streak and alert level
  add      record a manual activity
  export   write activities, daily metrics and weekly summaries as CSV
  auth     connect a Strava account
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	cmd := "tui"
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		cmd, args = args[0], args[1:]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case "tui":
		return runTUI(ctx, args)
	case "sync":
		return runSync(ctx, args)
	case "serve":
		return runServe(ctx, args)
	case "status":
		return runStatus(ctx, args)
	case "add":
		return runAdd(ctx, args)
	case "export":
		return runExport(ctx, args)
	case "auth":
		return runAuth(ctx, args)
	case "help", "-h", "--help":
		fmt.Print(usage)
		return nil
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// app holds everything a command needs
type app struct {
	cfg    *config.Config
	db     *store.DB
	log    *logging.Logger
	engine *analysis.Engine
	sync   *service.SyncService
	query  *service.QueryService
}

func (a *app) Close() {
	_ = a.log.Sync()
	a.db.Close()
}

// loadConfig reads and validates the config. A missing config file is
// replaced with an example and reported as errNeedsSetup.
var errNeedsSetup = errors.New("config needs editing")

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if errors.Is(err, config.ErrNoConfig) {
		fmt.Println("No config file found. Creating example config...")
		if err := config.CreateExample(); err != nil {
			return nil, fmt.Errorf("creating example config: %w", err)
		}
		configDir, _ := config.GetConfigDir()
		fmt.Printf("\nPlease edit the config file at:\n  %s/config.json\n\n", configDir)
		fmt.Println("Add Strava API credentials (https://www.strava.com/settings/api)")
		fmt.Println("and/or a wearable access token, then run again.")
		return nil, errNeedsSetup
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		configDir, _ := config.GetConfigDir()
		return nil, fmt.Errorf("invalid config (%s/config.json): %w", configDir, err)
	}

	return cfg, nil
}

// setup loads config, opens the database and builds the services. logPaths
// selects where logs go; the TUI logs to a file so it does not draw over the
// screen.
func setup(ctx context.Context, logPaths ...string) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(os.Getenv("LOG_LEVEL"), logPaths...)
	if err != nil {
		return nil, err
	}

	db, err := store.Open("")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	engine := analysis.NewEngineFromConfig(cfg)
	a := &app{
		cfg:    cfg,
		db:     db,
		log:    logger,
		engine: engine,
		sync:   service.NewSyncService(db, engine, logger),
		query:  service.NewQueryService(db, engine),
	}

	if cfg.GarminEnabled() {
		a.sync.WithGarmin(garmin.NewClient(cfg.Garmin), cfg.Sync.Days)
	}

	if cfg.StravaEnabled() {
		client, err := stravaClient(ctx, db, cfg)
		switch {
		case errors.Is(err, store.ErrNoAuth):
			logger.Warn("strava is configured but not connected; run `longevity auth`")
		case err != nil:
			a.Close()
			return nil, err
		default:
			a.sync.WithStrava(client)
		}
	}

	return a, nil
}

func stravaClient(ctx context.Context, db *store.DB, cfg *config.Config) (*strava.Client, error) {
	oauthCfg := auth.NewOAuthConfig(cfg.Strava)
	ts, err := auth.LoadTokenSource(ctx, db, oauthCfg)
	if err != nil {
		return nil, err
	}
	return strava.NewClient(ts), nil
}

func logFilePath() (string, error) {
	dir, err := config.GetConfigDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}
	return filepath.Join(dir, "longevity.log"), nil
}

// authenticate runs the browser OAuth flow and stores the tokens
func authenticate(ctx context.Context, db *store.DB, cfg *config.Config) error {
	oauthCfg := auth.NewOAuthConfig(cfg.Strava)

	result, err := auth.Authenticate(ctx, oauthCfg, cfg.Strava.CallbackPort, os.Stdout)
	if err != nil {
		return err
	}

	if err := auth.SaveResult(ctx, db, result); err != nil {
		return err
	}

	fmt.Println()
	fmt.Printf("Successfully authenticated as athlete %d!\n", result.AthleteID)
	return nil
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: longevity %s [flags]\n", name)
		fs.PrintDefaults()
	}
	return fs
}

func logSyncErrors(logger *logging.Logger, result *service.SyncResult) {
	for _, err := range result.Errors {
		logger.Warn("sync error", zap.Error(err))
	}
}
