package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"longevity/internal/analysis"
	"longevity/internal/api"
	"longevity/internal/auth"
	"longevity/internal/service"
	"longevity/internal/store"
	"longevity/internal/tui"
)

func runTUI(ctx context.Context, args []string) error {
	if err := newFlagSet("tui").Parse(args); err != nil {
		return err
	}

	logPath, err := logFilePath()
	if err != nil {
		return err
	}

	a, err := setup(ctx, logPath)
	if errors.Is(err, errNeedsSetup) {
		return nil
	}
	if err != nil {
		return err
	}
	defer a.Close()

	// First run with Strava configured: connect before opening the dashboard
	if a.cfg.StravaEnabled() {
		if _, err := a.db.GetAuth(ctx, auth.Provider); errors.Is(err, store.ErrNoAuth) {
			fmt.Println("No Strava authentication found. Starting OAuth flow...")
			if err := authenticate(ctx, a.db, a.cfg); err != nil {
				return fmt.Errorf("authentication: %w", err)
			}
			client, err := stravaClient(ctx, a.db, a.cfg)
			if err != nil {
				return err
			}
			a.sync.WithStrava(client)
		}
	}

	p := tea.NewProgram(tui.NewApp(a.sync, a.query, a.cfg.Display), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}

func runSync(ctx context.Context, args []string) error {
	if err := newFlagSet("sync").Parse(args); err != nil {
		return err
	}

	a, err := setup(ctx)
	if errors.Is(err, errNeedsSetup) {
		return nil
	}
	if err != nil {
		return err
	}
	defer a.Close()

	progress := make(chan service.SyncProgress, 16)
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		last := ""
		for p := range progress {
			if p.Phase != last {
				fmt.Printf("==> %s\n", p.Phase)
				last = p.Phase
			}
		}
	}()

	result, err := a.sync.SyncAll(ctx, progress)
	<-printed
	if err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	logSyncErrors(a.log, result)

	fmt.Printf("Synced %d days, %d new activities (%d fetched, %d duplicates skipped)\n",
		result.DaysSynced, result.ActivitiesStored, result.ActivitiesFetched, result.DuplicatesSkipped)
	for _, r := range result.Rejected {
		fmt.Printf("  skipped %s: %v\n", r.Record, r.Err)
	}
	if len(result.Errors) > 0 {
		fmt.Printf("%d errors occurred (see log)\n", len(result.Errors))
	}

	printStatus(service.NewStatusReport(result.Status))
	return nil
}

func runServe(ctx context.Context, args []string) error {
	fs := newFlagSet("serve")
	addr := fs.String("addr", "", "listen address (default from config)")
	exportDir := fs.String("export-dir", ".", "directory for exports")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := setup(ctx)
	if errors.Is(err, errNeedsSetup) {
		return nil
	}
	if err != nil {
		return err
	}
	defer a.Close()

	listen := a.cfg.Server.Addr
	if *addr != "" {
		listen = *addr
	}

	handler := api.NewHandler(a.sync, a.query, *exportDir, a.log.Named("api"))
	return api.Serve(ctx, listen, api.NewRouter(handler, a.log.Named("http")), a.log)
}

func runStatus(ctx context.Context, args []string) error {
	fs := newFlagSet("status")
	asJSON := fs.Bool("json", false, "print JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := setup(ctx)
	if errors.Is(err, errNeedsSetup) {
		return nil
	}
	if err != nil {
		return err
	}
	defer a.Close()

	st, err := a.query.Status(ctx)
	if err != nil {
		return err
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}
	printStatus(st)
	return nil
}

func runAdd(ctx context.Context, args []string) error {
	fs := newFlagSet("add")
	date := fs.String("date", time.Now().Format("2006-01-02"), "date (YYYY-MM-DD)")
	start := fs.String("start", "", "start time (HH:MM), optional")
	kind := fs.String("type", "strength", "activity type")
	name := fs.String("name", "", "workout name")
	duration := fs.Float64("duration", 0, "duration in minutes (required)")
	distance := fs.Float64("distance", 0, "distance in km")
	hr := fs.Int("hr", 0, "average heart rate")
	effort := fs.Int("effort", 0, "perceived effort 1-10")
	notes := fs.String("notes", "", "notes")
	if err := fs.Parse(args); err != nil {
		return err
	}

	m, err := manualFromFlags(*date, *start, *kind, *name, *duration, *distance, *hr, *effort, *notes)
	if err != nil {
		return err
	}

	a, err := setup(ctx)
	if errors.Is(err, errNeedsSetup) {
		return nil
	}
	if err != nil {
		return err
	}
	defer a.Close()

	act, err := a.sync.AddManualActivity(ctx, m)
	if err != nil {
		return fmt.Errorf("adding activity: %w", err)
	}
	a.log.Info("manual activity added", zap.String("external_id", act.ExternalID))

	fmt.Printf("Added %s on %s (%s, %s)\n", act.ActivityType, act.Date.Format("Mon Jan 2"),
		formatMinutes(act.DurationMinutes), act.ZoneClassification)

	st, err := a.query.Status(ctx)
	if err != nil {
		return err
	}
	printStatus(st)
	return nil
}

func manualFromFlags(date, start, kind, name string, duration, distance float64, hr, effort int, notes string) (service.ManualActivity, error) {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return service.ManualActivity{}, fmt.Errorf("invalid -date %q: %w", date, err)
	}
	if duration <= 0 {
		return service.ManualActivity{}, errors.New("-duration is required and must be positive")
	}

	m := service.ManualActivity{
		Date:            d,
		ActivityType:    kind,
		Name:            name,
		DurationMinutes: duration,
		Notes:           notes,
	}
	if start != "" {
		t, err := time.Parse("2006-01-02 15:04", date+" "+start)
		if err != nil {
			return service.ManualActivity{}, fmt.Errorf("invalid -start %q: %w", start, err)
		}
		m.StartTime = &t
	}
	if distance > 0 {
		m.DistanceKm = &distance
	}
	if hr > 0 {
		m.AvgHR = &hr
	}
	if effort != 0 {
		m.PerceivedEffort = &effort
	}
	return m, nil
}

func runExport(ctx context.Context, args []string) error {
	fs := newFlagSet("export")
	dir := fs.String("dir", ".", "parent directory for the export")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := setup(ctx)
	if errors.Is(err, errNeedsSetup) {
		return nil
	}
	if err != nil {
		return err
	}
	defer a.Close()

	out, err := a.query.Export(ctx, *dir)
	if err != nil {
		return fmt.Errorf("exporting: %w", err)
	}
	fmt.Printf("Exported to %s\n", out)
	return nil
}

func runAuth(ctx context.Context, args []string) error {
	if err := newFlagSet("auth").Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if errors.Is(err, errNeedsSetup) {
		return nil
	}
	if err != nil {
		return err
	}
	if !cfg.StravaEnabled() {
		return errors.New("strava client_id and client_secret are not configured")
	}

	db, err := store.Open("")
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	return authenticate(ctx, db, cfg)
}

func printStatus(st *service.StatusReport) {
	if st.DaysSinceLast == nil {
		fmt.Println("No activities recorded yet.")
		return
	}

	fmt.Printf("Status: %s\n", strings.ToUpper(string(st.Alert)))
	fmt.Printf("  Days since last activity: %.1f\n", *st.DaysSinceLast)
	fmt.Printf("  Current streak:           %d\n", st.CurrentStreak)
	if st.LastActivityDate != nil {
		fmt.Printf("  Last activity:            %s (%s)\n", st.LastActivityType,
			humanize.RelTime(*st.LastActivityDate, st.AsOf, "ago", "from now"))
	}
	if st.Alert == analysis.AlertRed {
		fmt.Println("  Time to move!")
	}
}

func formatMinutes(minutes float64) string {
	return fmt.Sprintf("%.0f min", minutes)
}
