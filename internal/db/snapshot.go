package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Joseda-hg/studyboard/internal/calendar"
	"github.com/Joseda-hg/studyboard/internal/isodate"
	"github.com/Joseda-hg/studyboard/internal/model"
	"github.com/Joseda-hg/studyboard/internal/planner"
)

// Snapshot reads every collection into one value for backups and exports.
func (s *Store) Snapshot(ctx context.Context) (model.Snapshot, error) {
	snap := model.Snapshot{Version: model.SnapshotVersion, TakenAt: s.Env().Now.UTC()}

	var err error
	if snap.Tasks, err = s.ListTasks(ctx); err != nil {
		return model.Snapshot{}, err
	}
	if snap.StudiedDates, err = s.StudiedDates(ctx); err != nil {
		return model.Snapshot{}, err
	}
	events, err := s.Events(ctx)
	if err != nil {
		return model.Snapshot{}, err
	}
	snap.Events = events.Strings()
	if snap.Subjects, err = s.ListSubjects(ctx); err != nil {
		return model.Snapshot{}, err
	}
	if snap.Academics, err = s.Academics(ctx); err != nil {
		return model.Snapshot{}, err
	}
	if snap.Placements, err = s.ListPlacements(ctx); err != nil {
		return model.Snapshot{}, err
	}
	sessions, err := s.PomodoroSessions(ctx)
	if err != nil {
		return model.Snapshot{}, err
	}
	snap.PomodoroSessions = make(map[string]int, len(sessions))
	for date, count := range sessions {
		snap.PomodoroSessions[date.String()] = count
	}
	return snap, nil
}

// RestoreSnapshot replaces all stored data with snap in one transaction.
func (s *Store) RestoreSnapshot(ctx context.Context, snap model.Snapshot) error {
	if snap.Version > model.SnapshotVersion {
		return fmt.Errorf("snapshot version %d is newer than supported version %d", snap.Version, model.SnapshotVersion)
	}

	raws := make([]planner.RawTask, 0, len(snap.Tasks))
	for _, task := range snap.Tasks {
		raws = append(raws, planner.Raw(task))
	}
	tasks := planner.Migrate(raws, nil, s.Env())

	sessions := make(map[isodate.Date]int, len(snap.PomodoroSessions))
	for key, count := range snap.PomodoroSessions {
		if date, err := isodate.Parse(key); err == nil {
			sessions[date] += count
		}
	}

	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := replaceTasks(ctx, tx, tasks); err != nil {
			return err
		}
		if err := replaceStudiedDates(ctx, tx, snap.StudiedDates); err != nil {
			return err
		}
		if err := replaceEvents(ctx, tx, calendar.EventsFromStrings(snap.Events)); err != nil {
			return err
		}
		if err := replaceSubjects(ctx, tx, snap.Subjects); err != nil {
			return err
		}
		if err := replaceAcademics(ctx, tx, snap.Academics); err != nil {
			return err
		}
		if err := replacePlacements(ctx, tx, snap.Placements); err != nil {
			return err
		}
		return replaceSessions(ctx, tx, sessions)
	})
}
