package orchestrators

import (
	"bytes"
	"context"
	"encoding/csv"
	"log/slog"
	"time"

	"gymdesk/internal/domain/member"
)

// MarkerDateLayout is the calendar-day format stored in the backup marker.
const MarkerDateLayout = "02-01-2006"

// BackupDeps holds dependencies for ExecuteDailyBackup.
type BackupDeps struct {
	Syncer  MemberSyncer
	Backups BackupStore
	Now     func() time.Time
}

// ExecuteDailyBackup snapshots the member sheet to a dated CSV, at most
// once per calendar day, and prunes expired backups.
// POST: Returns true when a new backup was written; false when today's
// backup already exists
func ExecuteDailyBackup(ctx context.Context, deps BackupDeps) (bool, error) {
	now := nowIn(deps.Now)
	today := now.Format(MarkerDateLayout)

	last, err := deps.Backups.ReadBackupMarker(ctx)
	if err != nil {
		return false, err
	}
	if last == today {
		return false, nil
	}

	records := deps.Syncer.Load(ctx)
	data, err := recordsCSV(records)
	if err != nil {
		return false, err
	}
	if err := deps.Backups.CreateBackupCSV(ctx, today, data); err != nil {
		return false, err
	}
	if err := deps.Backups.WriteBackupMarker(ctx, today); err != nil {
		return false, err
	}

	deleted, err := deps.Backups.CleanupOldBackups(ctx, now)
	if err != nil {
		slog.Warn("backup_event", "event", "cleanup_failed", "error", err)
	} else if deleted > 0 {
		slog.Info("backup_event", "event", "old_backups_deleted", "count", deleted)
	}
	return true, nil
}

// recordsCSV serializes the table in canonical column order.
func recordsCSV(records []member.Record) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(member.Columns); err != nil {
		return nil, err
	}
	for _, rec := range records {
		if err := w.Write(rec.Row()); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// StartBackupWorker runs the daily backup on a timer until stopCh closes.
// An immediate pass runs on start so a freshly booted service still
// backs up days when it was down at the usual tick.
func StartBackupWorker(deps BackupDeps, interval time.Duration, stopCh <-chan struct{}) {
	go func() {
		run := func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			if made, err := ExecuteDailyBackup(ctx, deps); err != nil {
				slog.Error("backup_event", "event", "daily_backup_failed", "error", err)
			} else if made {
				slog.Info("backup_event", "event", "daily_backup_done")
			}
		}
		run()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				run()
			case <-stopCh:
				slog.Info("backup_event", "event", "worker_stopped")
				return
			}
		}
	}()
}
