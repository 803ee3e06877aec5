package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bartek5186/feedsync/internal/api"
	conf "github.com/bartek5186/feedsync/internal/config"
	"github.com/bartek5186/feedsync/internal/db"
	"github.com/bartek5186/feedsync/internal/feed"
	"github.com/bartek5186/feedsync/internal/fetch"
	"github.com/bartek5186/feedsync/internal/importer"
	logs "github.com/bartek5186/feedsync/internal/logs"
	syncer "github.com/bartek5186/feedsync/internal/syncer"
	"github.com/rs/zerolog"
)

// wersję możesz nadpisać przez: -ldflags "-X 'main.ver=1.0.1'"
var ver = "1.0.0"

// app spina wszystkie zależności procesu; wspólne dla CLI i traya.
type app struct {
	dir     string
	cfgPath string
	logPath string
	cfg     *conf.Config
	log     zerolog.Logger
	dbh     *db.Handle
	svc     *importer.Service
	sync    *syncer.Syncer
}

func boot(appDir string, withConsole, debug bool) (*app, error) {
	if appDir == "" {
		appDir = mustAppDataDir("feedsync")
	}
	_ = os.MkdirAll(appDir, 0o755)

	a := &app{
		dir:     appDir,
		cfgPath: filepath.Join(appDir, "config.json"),
		logPath: filepath.Join(appDir, "app.log"),
	}

	cfg, firstRun, err := conf.LoadOrCreate(a.cfgPath)
	if err != nil {
		return nil, err
	}
	a.setConfig(cfg)

	level := cfg.LogLevel
	if debug {
		level = "debug"
	}
	a.log = logs.New(a.logPath, withConsole, level)
	if firstRun {
		a.log.Info().Str("path", a.cfgPath).Msg("Utworzono domyślną konfigurację")
	}

	if cfg.Database.DSN == "" && (cfg.Database.Driver == "sqlite" || cfg.Database.Driver == "") {
		a.dbh, err = db.OpenAt(appDir)
	} else {
		a.dbh, err = db.Open(cfg.Database.Driver, cfg.Database.DSN, debug)
	}
	if err != nil {
		return nil, fmt.Errorf("DB open: %w", err)
	}
	if err := a.dbh.Migrate(); err != nil {
		_ = a.dbh.Close()
		return nil, fmt.Errorf("DB migrate: %w", err)
	}
	a.log.Info().Str("driver", a.dbh.Driver).Str("db", a.dbh.Path).Msg("DB ready")

	format, err := feed.ParseFormat(cfg.Import.DefaultFormat)
	if err != nil {
		a.log.Warn().Err(err).Msg("import.default_format nieznany, używam google_merchant")
		format = feed.FormatGoogleMerchant
	}
	fetcher := fetch.New(
		time.Duration(cfg.Import.FetchTimeoutSeconds)*time.Second,
		cfg.Import.UserAgent,
		int64(cfg.Import.MaxDocumentMB)<<20,
	)
	a.svc = importer.NewService(fetcher, db.NewStore(a.dbh.DB), a.log, importer.Config{
		BatchSize:     cfg.Import.BatchSize,
		Concurrency:   cfg.Import.Concurrency,
		DefaultFormat: format,
		Locale:        cfg.Import.Locale,
	})
	a.sync = syncer.New(a.log, cfg, a.svc)
	return a, nil
}

// setConfig: względne feeds_dir liczymy od katalogu aplikacji.
func (a *app) setConfig(cfg *conf.Config) {
	if cfg.FeedsDir != "" && !filepath.IsAbs(cfg.FeedsDir) {
		cfg.FeedsDir = filepath.Join(a.dir, cfg.FeedsDir)
	}
	a.cfg = cfg
}

// reload czyta config.json ponownie. Ustawienia importu i bazy wymagają restartu.
func (a *app) reload() error {
	cfg, _, err := conf.LoadOrCreate(a.cfgPath)
	if err != nil {
		return err
	}
	a.setConfig(cfg)
	a.sync.UpdateConfig(cfg)
	a.log.Info().Msg("Konfiguracja przeładowana")
	return nil
}

func (a *app) autoStart(ctx context.Context) {
	if !a.cfg.AutoStart {
		return
	}
	if err := a.sync.Start(ctx); err != nil {
		a.log.Error().Err(err).Msg("AutoStart nieudany")
		return
	}
	a.log.Info().Msgf("feedsync %s: harmonogram działa", ver)
}

func (a *app) runImport(ctx context.Context, user, url, format string) (*importer.ImportResult, error) {
	var f feed.Format
	if strings.TrimSpace(format) != "" {
		var err error
		if f, err = feed.ParseFormat(format); err != nil {
			return nil, err
		}
	}
	return a.svc.Import(ctx, importer.Request{UserID: user, URL: url, Format: f})
}

// serveHTTP blokuje do anulowania ctx, potem zamyka serwer łagodnie.
func (a *app) serveHTTP(ctx context.Context) error {
	handler := api.NewServer(api.NewHandler(a.svc, a.log), a.log, api.Options{
		APIAccessKey:       a.cfg.HTTP.APIAccessKey,
		RateLimitPerMinute: a.cfg.HTTP.RateLimitPerMinute,
	})
	srv := &http.Server{
		Addr:              a.cfg.HTTP.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", srv.Addr).Msg("HTTP API start")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP shutdown: %w", err)
	}
	a.log.Info().Msg("HTTP API stop")
	return nil
}

func (a *app) close() {
	a.sync.Stop()
	if a.dbh != nil {
		_ = a.dbh.Close()
	}
}

func mustAppDataDir(name string) string {
	base, err := os.UserConfigDir()
	if err != nil {
		panic(err)
	}
	p := filepath.Join(base, name)
	_ = os.MkdirAll(p, 0o755)
	return p
}
