// Package backup writes YAML snapshots of the store, on demand or on a cron
// schedule while the web server runs.
package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/Joseda-hg/studyboard/internal/logger"
	"github.com/Joseda-hg/studyboard/internal/model"
)

const (
	filePrefix  = "studyboard-"
	fileSuffix  = ".yaml"
	stampLayout = "20060102T150405Z"
	DefaultKeep = 24
)

// Source is satisfied by *db.Store.
type Source interface {
	Snapshot(ctx context.Context) (model.Snapshot, error)
}

func Encode(w io.Writer, snap model.Snapshot) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return enc.Close()
}

func Decode(r io.Reader) (model.Snapshot, error) {
	var snap model.Snapshot
	if err := yaml.NewDecoder(r).Decode(&snap); err != nil {
		return model.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Version == 0 {
		return model.Snapshot{}, errors.New("decode snapshot: missing version")
	}
	return snap, nil
}

// WriteFile replaces path atomically.
func WriteFile(path string, snap model.Snapshot) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".studyboard-backup-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := Encode(tmp, snap); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

func ReadFile(path string) (model.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Snapshot{}, err
	}
	defer f.Close()
	return Decode(f)
}

type Scheduler struct {
	cron   *cron.Cron
	source Source
	dir    string
	keep   int
	log    *logger.Logger
}

// NewScheduler validates spec (standard five-field cron) and registers the
// backup job. Nothing runs until Start.
func NewScheduler(source Source, dir, spec string, log *logger.Logger) (*Scheduler, error) {
	if log == nil {
		log = logger.Nop()
	}
	s := &Scheduler{
		cron:   cron.New(),
		source: source,
		dir:    dir,
		keep:   DefaultKeep,
		log:    log.WithComponent("backup"),
	}
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, fmt.Errorf("backup schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.log.Infow("backup scheduler started", "dir", s.dir)
	s.cron.Start()
}

// Stop waits for a running backup to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	path, err := s.RunOnce(ctx)
	if err != nil {
		s.log.WithError(err).Errorw("backup failed")
		return
	}
	s.log.Infow("backup written", "path", path)
}

// RunOnce writes a timestamped snapshot into the backup directory and prunes
// the oldest files beyond the retention count.
func (s *Scheduler) RunOnce(ctx context.Context) (string, error) {
	snap, err := s.source.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	path := filepath.Join(s.dir, filePrefix+snap.TakenAt.UTC().Format(stampLayout)+fileSuffix)
	if err := WriteFile(path, snap); err != nil {
		return "", err
	}
	if err := Prune(s.dir, s.keep); err != nil {
		s.log.WithError(err).Warnw("prune backups")
	}
	return path, nil
}

// Prune deletes all but the newest keep backups in dir.
func Prune(dir string, keep int) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		names = append(names, name)
	}
	if len(names) <= keep {
		return nil
	}
	// Timestamps sort lexically.
	sort.Strings(names)
	for _, name := range names[:len(names)-keep] {
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			return err
		}
	}
	return nil
}
