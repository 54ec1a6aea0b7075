package orchestrators

import (
	"context"
	"time"

	accountStore "gymdesk/internal/adapters/storage/account"
	"gymdesk/internal/domain/account"
	"gymdesk/internal/domain/member"
)

// fixedNow pins the clock for deterministic dates and ages.
func fixedNow() time.Time {
	return time.Date(2026, time.August, 28, 10, 30, 0, 0, madrid)
}

type logCall struct {
	Actor, Action, DNI, Detail string
}

// stubSyncer is an in-memory MemberSyncer.
type stubSyncer struct {
	records []member.Record
	saveErr error
	saves   int
	logs    []logCall
}

func (s *stubSyncer) Load(ctx context.Context) []member.Record {
	out := make([]member.Record, len(s.records))
	copy(out, s.records)
	return out
}

func (s *stubSyncer) Save(ctx context.Context, records []member.Record) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.records = records
	return nil
}

func (s *stubSyncer) LogAction(ctx context.Context, actor, action, dni, detail string) {
	s.logs = append(s.logs, logCall{actor, action, dni, detail})
}

// stubDocs is an in-memory DocumentStore.
type stubDocs struct {
	folderErr error
	uploadErr error
	folders   []string
	uploads   []string // filenames
}

func (d *stubDocs) EnsureMemberFolder(ctx context.Context, name, surname, dni string) (string, error) {
	if d.folderErr != nil {
		return "", d.folderErr
	}
	d.folders = append(d.folders, name+" "+surname+"_"+dni)
	return "folder-1", nil
}

func (d *stubDocs) UploadPDF(ctx context.Context, folderID, filename string, pdf []byte) (string, error) {
	if d.uploadErr != nil {
		return "", d.uploadErr
	}
	d.uploads = append(d.uploads, filename)
	return "https://drive.google.com/file/d/f-" + filename + "/view?usp=drive_link", nil
}

// stubBackups is an in-memory BackupStore.
type stubBackups struct {
	marker     string
	markerErr  error
	createErr  error
	csvs       map[string][]byte
	cleanups   int
	cleanupErr error
}

func (b *stubBackups) ReadBackupMarker(ctx context.Context) (string, error) {
	return b.marker, b.markerErr
}

func (b *stubBackups) WriteBackupMarker(ctx context.Context, date string) error {
	b.marker = date
	return nil
}

func (b *stubBackups) CreateBackupCSV(ctx context.Context, date string, csvData []byte) error {
	if b.createErr != nil {
		return b.createErr
	}
	if b.csvs == nil {
		b.csvs = map[string][]byte{}
	}
	b.csvs[date] = csvData
	return nil
}

func (b *stubBackups) CleanupOldBackups(ctx context.Context, now time.Time) (int, error) {
	if b.cleanupErr != nil {
		return 0, b.cleanupErr
	}
	b.cleanups++
	return 0, nil
}

// stubAccounts is an in-memory AccountStore.
type stubAccounts struct {
	accounts map[string]account.Account // keyed by ID
	saveErr  error
	deleted  []string
}

func newStubAccounts(accs ...account.Account) *stubAccounts {
	s := &stubAccounts{accounts: map[string]account.Account{}}
	for _, a := range accs {
		s.accounts[a.ID] = a
	}
	return s
}

func (s *stubAccounts) GetByID(ctx context.Context, id string) (account.Account, error) {
	a, ok := s.accounts[id]
	if !ok {
		return account.Account{}, account.ErrNotFound
	}
	return a, nil
}

func (s *stubAccounts) GetByUsername(ctx context.Context, username string) (account.Account, error) {
	for _, a := range s.accounts {
		if a.Username == username {
			return a, nil
		}
	}
	return account.Account{}, account.ErrNotFound
}

func (s *stubAccounts) Save(ctx context.Context, a account.Account) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.accounts[a.ID] = a
	return nil
}

func (s *stubAccounts) Delete(ctx context.Context, id string) error {
	delete(s.accounts, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubAccounts) List(ctx context.Context, filter accountStore.ListFilter) ([]account.Account, error) {
	var out []account.Account
	for _, a := range s.accounts {
		out = append(out, a)
	}
	return out, nil
}

func (s *stubAccounts) Count(ctx context.Context) (int, error) {
	return len(s.accounts), nil
}

func (s *stubAccounts) CountByRole(ctx context.Context, role string) (int, error) {
	n := 0
	for _, a := range s.accounts {
		if a.Role == role {
			n++
		}
	}
	return n, nil
}

// activeMember builds a valid adult member for status and edit tests.
func activeMember() member.Record {
	return member.Record{
		Name:          "Laura",
		Surname:       "García Pérez",
		DNI:           "12345678Z",
		Phone:         "612345678",
		Email:         "laura@example.com",
		Discipline:    "Boxeo / Defensa Personal",
		Plan:          "2 días/semana",
		Price:         "50€/mes",
		BirthDate:     "1990-05-12",
		JoinDate:      "01-02-2025 18:30:00",
		Bank:          "Caixa",
		Holder:        "Laura García",
		IBAN:          "ES1234567890123456789012",
		Locality:      "Valencia",
		Status:        member.StatusActive,
		PaymentStatus: member.PaymentUnpaid,
	}
}
