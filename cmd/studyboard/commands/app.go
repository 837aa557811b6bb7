package commands

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/Joseda-hg/studyboard/internal/backup"
	"github.com/Joseda-hg/studyboard/internal/config"
	"github.com/Joseda-hg/studyboard/internal/db"
	"github.com/Joseda-hg/studyboard/internal/logger"
	"github.com/Joseda-hg/studyboard/internal/web"
)

// options holds the root persistent flags. Zero values mean "use the config
// file".
type options struct {
	configPath string
	dbPath     string
	web        bool
	webOnly    bool
	port       int
}

type app struct {
	cfg        config.Config
	configPath string
	sqlDB      *sql.DB
	store      *db.Store
	log        *logger.Logger
}

// open loads the config, applies flag overrides, persists the result and
// opens the store. logToFile sends logs next to the config file, which the
// terminal UI needs.
func (o *options) open(ctx context.Context, logToFile bool) (*app, error) {
	cfgPath, err := resolveConfigPath(o.configPath)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if o.dbPath != "" {
		cfg.DBPath = o.dbPath
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(filepath.Dir(cfgPath), "studyboard.db")
	}
	if o.web {
		cfg.WebEnabled = true
	}
	if o.port != 0 {
		cfg.WebPort = o.port
	}
	if err := config.Save(cfgPath, cfg); err != nil {
		return nil, err
	}

	logOpts := logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat}
	if logToFile {
		logOpts.File = config.LogPath(cfgPath)
	}
	log, err := logger.New(logOpts)
	if err != nil {
		return nil, err
	}

	sqlDB, store, err := openStore(cfg.DBPath)
	if err != nil {
		_ = log.Close()
		return nil, err
	}

	a := &app{cfg: cfg, configPath: cfgPath, sqlDB: sqlDB, store: store, log: log}
	if err := a.seedTargetCGPA(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	log.Debugw("store opened", "db", cfg.DBPath, "config", cfgPath)
	return a, nil
}

func (a *app) Close() error {
	err := a.sqlDB.Close()
	_ = a.log.Close()
	return err
}

// seedTargetCGPA copies the configured target into the store until one has
// been saved there.
func (a *app) seedTargetCGPA(ctx context.Context) error {
	academics, err := a.store.Academics(ctx)
	if err != nil {
		return err
	}
	if academics.TargetCGPA > 0 {
		return nil
	}
	academics.TargetCGPA = a.cfg.TargetCGPA
	return a.store.SaveAcademics(ctx, academics)
}

func (a *app) newScheduler() (*backup.Scheduler, error) {
	return backup.NewScheduler(a.store, a.cfg.ResolveBackupDir(a.configPath), a.cfg.BackupCron, a.log)
}

// serveWeb runs the HTTP server and the backup schedule until ctx is done.
func (a *app) serveWeb(ctx context.Context) error {
	scheduler, err := a.newScheduler()
	if err != nil {
		return err
	}
	scheduler.Start()
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		scheduler.Stop(stopCtx)
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.WebPort),
		Handler:           web.NewServer(a.store, a.log).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Infow("web server running", "url", fmt.Sprintf("http://localhost:%d", a.cfg.WebPort))
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a.log.Infow("web server shutting down")
	return srv.Shutdown(shutdownCtx)
}

func resolveConfigPath(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	return config.DefaultConfigPath()
}

func openStore(dbPath string) (*sql.DB, *db.Store, error) {
	if err := config.EnsureDir(dbPath); err != nil {
		return nil, nil, err
	}

	sqlDB, err := db.Open(dbPath)
	if err != nil {
		return nil, nil, err
	}

	return sqlDB, db.NewStore(sqlDB), nil
}
