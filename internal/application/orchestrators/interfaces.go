package orchestrators

import (
	"context"
	"time"

	accountStore "gymdesk/internal/adapters/storage/account"
	"gymdesk/internal/domain/account"
	"gymdesk/internal/domain/member"
)

// MemberSyncer is the remote-first, queue-backed access point to the
// member sheet. Load never fails; Save and LogAction absorb remote
// outages by queueing.
type MemberSyncer interface {
	Load(ctx context.Context) []member.Record
	Save(ctx context.Context, records []member.Record) error
	LogAction(ctx context.Context, actor, action, dni, detail string)
}

// DocumentStore stores signed consent PDFs in the remote drive.
type DocumentStore interface {
	EnsureMemberFolder(ctx context.Context, name, surname, dni string) (string, error)
	UploadPDF(ctx context.Context, folderID, filename string, pdf []byte) (string, error)
}

// BackupStore persists dated CSV snapshots and the last-backup marker.
type BackupStore interface {
	ReadBackupMarker(ctx context.Context) (string, error)
	WriteBackupMarker(ctx context.Context, date string) error
	CreateBackupCSV(ctx context.Context, date string, csvData []byte) error
	CleanupOldBackups(ctx context.Context, now time.Time) (int, error)
}

// AccountStore defines the interface for staff account persistence.
type AccountStore interface {
	GetByID(ctx context.Context, id string) (account.Account, error)
	GetByUsername(ctx context.Context, username string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter accountStore.ListFilter) ([]account.Account, error)
	Count(ctx context.Context) (int, error)
	CountByRole(ctx context.Context, role string) (int, error)
}

// madrid is the business time zone. All sheet dates are local dates.
var madrid = loadMadrid()

func loadMadrid() *time.Location {
	loc, err := time.LoadLocation("Europe/Madrid")
	if err != nil {
		return time.UTC
	}
	return loc
}

// nowIn applies the injected clock, defaulting to the wall clock, and
// shifts into the business time zone.
func nowIn(now func() time.Time) time.Time {
	if now == nil {
		return time.Now().In(madrid)
	}
	return now().In(madrid)
}
