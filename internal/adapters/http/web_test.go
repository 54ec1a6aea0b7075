package web

import (
	"context"
	"sync"
	"time"

	accountStore "gymdesk/internal/adapters/storage/account"
	"gymdesk/internal/domain/account"
	"gymdesk/internal/domain/audit"
	"gymdesk/internal/domain/member"
)

func init() {
	// Keep the per-IP limiter out of the way in tests.
	RateLimitPerSecond = 1000
}

// fakeSyncer is an in-memory Syncer with controllable degraded state.
type fakeSyncer struct {
	mu       sync.Mutex
	records  []member.Record
	logs     []audit.Entry
	pending  int
	degraded bool
	drained  int // total replayed by Drain calls
}

func (f *fakeSyncer) Load(ctx context.Context) []member.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]member.Record, len(f.records))
	copy(out, f.records)
	return out
}

func (f *fakeSyncer) Save(ctx context.Context, records []member.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = records
	return nil
}

func (f *fakeSyncer) LogAction(ctx context.Context, actor, action, dni, detail string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, audit.Entry{
		Timestamp: time.Now(),
		Actor:     actor,
		Action:    action,
		SubjectID: dni,
		Detail:    detail,
	})
}

func (f *fakeSyncer) History(ctx context.Context, dni string, limit int) []audit.Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []audit.Entry
	for _, e := range f.logs {
		if e.SubjectID == dni {
			out = append(out, e)
		}
	}
	return out
}

func (f *fakeSyncer) Drain(ctx context.Context) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	replayed := f.pending
	f.pending = 0
	f.degraded = false
	f.drained += replayed
	return replayed
}

func (f *fakeSyncer) Degraded() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.degraded
}

func (f *fakeSyncer) PendingCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending
}

// fakeDocs is an in-memory DocumentStore.
type fakeDocs struct {
	uploads []string
}

func (d *fakeDocs) EnsureMemberFolder(ctx context.Context, name, surname, dni string) (string, error) {
	return "folder-1", nil
}

func (d *fakeDocs) UploadPDF(ctx context.Context, folderID, filename string, pdf []byte) (string, error) {
	d.uploads = append(d.uploads, filename)
	return "https://drive.google.com/file/d/doc-1/view?usp=drive_link", nil
}

// fakeBackups is an in-memory BackupStore.
type fakeBackups struct {
	marker string
	csvs   int
}

func (b *fakeBackups) ReadBackupMarker(ctx context.Context) (string, error) { return b.marker, nil }
func (b *fakeBackups) WriteBackupMarker(ctx context.Context, date string) error {
	b.marker = date
	return nil
}
func (b *fakeBackups) CreateBackupCSV(ctx context.Context, date string, csvData []byte) error {
	b.csvs++
	return nil
}
func (b *fakeBackups) CleanupOldBackups(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}

// fakeAccounts is an in-memory account store.
type fakeAccounts struct {
	mu       sync.Mutex
	accounts map[string]account.Account
}

func newFakeAccounts(accs ...account.Account) *fakeAccounts {
	s := &fakeAccounts{accounts: map[string]account.Account{}}
	for _, a := range accs {
		s.accounts[a.ID] = a
	}
	return s
}

func (s *fakeAccounts) GetByID(ctx context.Context, id string) (account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return account.Account{}, account.ErrNotFound
	}
	return a, nil
}

func (s *fakeAccounts) GetByUsername(ctx context.Context, username string) (account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.Username == username {
			return a, nil
		}
	}
	return account.Account{}, account.ErrNotFound
}

func (s *fakeAccounts) Save(ctx context.Context, a account.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.accounts {
		if existing.Username == a.Username && existing.ID != a.ID {
			return account.ErrDuplicateUser
		}
	}
	s.accounts[a.ID] = a
	return nil
}

func (s *fakeAccounts) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[id]; !ok {
		return account.ErrNotFound
	}
	delete(s.accounts, id)
	return nil
}

func (s *fakeAccounts) List(ctx context.Context, filter accountStore.ListFilter) ([]account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []account.Account
	for _, a := range s.accounts {
		if filter.Role != "" && a.Role != filter.Role {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *fakeAccounts) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.accounts), nil
}

func (s *fakeAccounts) CountByRole(ctx context.Context, role string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, a := range s.accounts {
		if a.Role == role {
			n++
		}
	}
	return n, nil
}
