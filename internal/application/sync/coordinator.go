// Package sync owns the offline-tolerant persistence flow: every member
// write goes to the remote table when it can, and into the durable local
// queue when it cannot. A later drain replays queued work in order.
package sync

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"gymdesk/internal/domain/audit"
	"gymdesk/internal/domain/member"
	"gymdesk/internal/domain/payment"
	queuedomain "gymdesk/internal/domain/queue"
)

// TableGateway is the remote side the coordinator writes through.
type TableGateway interface {
	ReadAll(ctx context.Context) (member.Table, error)
	OverwriteAll(ctx context.Context, records []member.Record) error
	AppendLogRow(ctx context.Context, row []string) error
	ReadLogRows(ctx context.Context) ([][]string, error)
}

// QueueStore is the durable local queue.
type QueueStore interface {
	Load() ([]queuedomain.Operation, error)
	Append(op queuedomain.Operation) error
	Replace(ops []queuedomain.Operation) error
}

// DefaultHistoryLimit bounds History when the caller passes limit <= 0.
const DefaultHistoryLimit = 5

// Coordinator serializes all remote reads and writes (single-writer model)
// and falls back to the queue when the remote is unreachable. Construct one
// per process; there are no package-level singletons.
type Coordinator struct {
	gw    TableGateway
	queue QueueStore

	// Now and Location are injectable for tests.
	Now      func() time.Time
	Location *time.Location

	mu       sync.Mutex
	degraded atomic.Bool
}

// NewCoordinator builds a Coordinator. The degraded flag starts set when
// the queue already holds operations from a previous run.
func NewCoordinator(gw TableGateway, queue QueueStore) *Coordinator {
	c := &Coordinator{
		gw:    gw,
		queue: queue,
		Now:   time.Now,
	}
	if loc, err := time.LoadLocation("Europe/Madrid"); err == nil {
		c.Location = loc
	} else {
		c.Location = time.UTC
	}

	if ops, err := queue.Load(); err == nil && len(ops) > 0 {
		c.degraded.Store(true)
	}
	return c
}

// Degraded reports whether queued work is waiting for the remote.
func (c *Coordinator) Degraded() bool {
	return c.degraded.Load()
}

// PendingCount returns the number of queued operations.
func (c *Coordinator) PendingCount() int {
	ops, err := c.queue.Load()
	if err != nil {
		return 0
	}
	return len(ops)
}

func (c *Coordinator) timestamp() time.Time {
	return c.Now().In(c.Location)
}

// Load reads the member table, normalizes it to the canonical schema and
// applies the payment expiry rules. When the rules changed anything, or the
// sheet was missing schema columns, the corrected table is written back
// best-effort.
// POST: Never returns an error; remote failure yields an empty slice
func (c *Coordinator) Load(ctx context.Context) []member.Record {
	c.mu.Lock()
	defer c.mu.Unlock()

	table, err := c.gw.ReadAll(ctx)
	if err != nil {
		slog.Warn("sync_event", "event", "load_failed", "error", err)
		return []member.Record{}
	}

	missing := member.MissingColumns(table.Columns)
	table = table.EnsureColumns()
	records := member.RecordsFromTable(table)

	records, changed := payment.ApplyRules(records, c.Now())
	if changed || len(missing) > 0 {
		// Corrective write-through. Failure here is not a caller problem;
		// the next successful Save rewrites the full table anyway.
		if err := c.gw.OverwriteAll(ctx, records); err != nil {
			slog.Warn("sync_event", "event", "corrective_flush_failed", "error", err)
		}
	}
	return records
}

// Save overwrites the member table with records. When the remote is
// unreachable the snapshot is queued and the coordinator goes degraded;
// the caller sees success either way.
// POST: Returns nil always; data is durable remotely or locally
func (c *Coordinator) Save(ctx context.Context, records []member.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saveLocked(ctx, records)
}

func (c *Coordinator) saveLocked(ctx context.Context, records []member.Record) error {
	if err := c.gw.OverwriteAll(ctx, records); err != nil {
		slog.Warn("sync_event", "event", "save_queued", "error", err)
		op, encErr := queuedomain.NewSaveSnapshot(records, err.Error())
		if encErr != nil {
			return encErr
		}
		if qErr := c.queue.Append(op); qErr != nil {
			return qErr
		}
		c.degraded.Store(true)
		return nil
	}

	if c.PendingCount() == 0 {
		c.degraded.Store(false)
	}
	return nil
}

// LogAction appends one audit entry to the Logs sub-table, queueing it when
// the remote is unreachable. The main flow is never interrupted.
// PRE: action is one of the audit action constants
// POST: Never returns an error to abort on
func (c *Coordinator) LogAction(ctx context.Context, actor, action, dni, detail string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logActionLocked(ctx, actor, action, dni, detail)
}

func (c *Coordinator) logActionLocked(ctx context.Context, actor, action, dni, detail string) {
	entry := audit.Entry{
		Timestamp: c.timestamp(),
		Actor:     actor,
		Action:    action,
		SubjectID: dni,
		Detail:    detail,
	}
	if err := c.gw.AppendLogRow(ctx, entry.Row()); err != nil {
		slog.Warn("sync_event", "event", "log_queued", "action", action, "dni", dni, "error", err)
		op, encErr := queuedomain.NewAppendLog(actor, action, dni, detail, err.Error())
		if encErr != nil {
			return
		}
		if qErr := c.queue.Append(op); qErr != nil {
			slog.Error("sync_event", "event", "log_enqueue_failed", "error", qErr)
			return
		}
		c.degraded.Store(true)
	}
}

// Drain replays every queued operation once, in order. Operations that fail
// again stay queued with their error text updated; later entries are still
// attempted.
// POST: Returns the number of operations replayed successfully
func (c *Coordinator) Drain(ctx context.Context) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	ops, err := c.queue.Load()
	if err != nil {
		slog.Warn("sync_event", "event", "drain_load_failed", "error", err)
		return 0
	}
	if len(ops) == 0 {
		return 0
	}

	var remaining []queuedomain.Operation
	replayed := 0
	for _, op := range ops {
		if err := c.replay(ctx, op); err != nil {
			remaining = append(remaining, op.WithError(err.Error()))
			continue
		}
		replayed++
	}

	if err := c.queue.Replace(remaining); err != nil {
		slog.Error("sync_event", "event", "drain_save_failed", "error", err)
		return replayed
	}
	if len(remaining) == 0 {
		c.degraded.Store(false)
	}
	if replayed > 0 {
		slog.Info("sync_event", "event", "drained", "replayed", replayed, "remaining", len(remaining))
	}
	return replayed
}

func (c *Coordinator) replay(ctx context.Context, op queuedomain.Operation) error {
	switch op.Type {
	case queuedomain.TypeSaveSnapshot:
		p, err := op.SaveSnapshot()
		if err != nil {
			return err
		}
		return c.gw.OverwriteAll(ctx, p.Records)
	case queuedomain.TypeAppendLog:
		p, err := op.AppendLog()
		if err != nil {
			return err
		}
		// Replayed logs carry the replay time, matching the behavior of a
		// fresh append.
		entry := audit.Entry{
			Timestamp: c.timestamp(),
			Actor:     p.Actor,
			Action:    p.Action,
			SubjectID: p.SubjectID,
			Detail:    p.Detail,
		}
		return c.gw.AppendLogRow(ctx, entry.Row())
	default:
		return queuedomain.ErrUnknownType
	}
}

// History returns the most recent audit entries for a DNI, newest first.
// POST: Never returns an error; remote failure yields an empty slice
func (c *Coordinator) History(ctx context.Context, dni string, limit int) []audit.Entry {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	c.mu.Lock()
	rows, err := c.gw.ReadLogRows(ctx)
	c.mu.Unlock()
	if err != nil {
		slog.Warn("sync_event", "event", "history_failed", "dni", dni, "error", err)
		return []audit.Entry{}
	}
	if len(rows) < 2 {
		return []audit.Entry{}
	}

	var entries []audit.Entry
	for _, row := range rows[1:] {
		entry := audit.FromRow(row)
		if entry.SubjectID == dni {
			entries = append(entries, entry)
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})

	if len(entries) > limit {
		entries = entries[:limit]
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	return entries
}
