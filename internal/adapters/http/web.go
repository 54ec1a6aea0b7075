package web

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"gymdesk/internal/adapters/email"
	"gymdesk/internal/adapters/http/middleware"
	accountStore "gymdesk/internal/adapters/storage/account"
	"gymdesk/internal/domain/audit"
	"gymdesk/internal/domain/member"
)

// Syncer is the coordinator surface the handlers need: fail-soft reads,
// queue-absorbing writes, opportunistic drain and queue introspection.
type Syncer interface {
	Load(ctx context.Context) []member.Record
	Save(ctx context.Context, records []member.Record) error
	LogAction(ctx context.Context, actor, action, dni, detail string)
	History(ctx context.Context, dni string, limit int) []audit.Entry
	Drain(ctx context.Context) int
	Degraded() bool
	PendingCount() int
}

// DocumentStore stores signed consent PDFs.
type DocumentStore interface {
	EnsureMemberFolder(ctx context.Context, name, surname, dni string) (string, error)
	UploadPDF(ctx context.Context, folderID, filename string, pdf []byte) (string, error)
}

// BackupStore persists dated CSV snapshots of the sheet.
type BackupStore interface {
	ReadBackupMarker(ctx context.Context) (string, error)
	WriteBackupMarker(ctx context.Context, date string) error
	CreateBackupCSV(ctx context.Context, date string, csvData []byte) error
	CleanupOldBackups(ctx context.Context, now time.Time) (int, error)
}

// Deps holds all handler dependencies.
type Deps struct {
	Accounts  accountStore.Store
	Syncer    Syncer
	Documents DocumentStore
	Backups   BackupStore
	Email     email.Sender
	EmailFrom string
	LegalText string // Markdown source of the legal/consent notice
}

// Global app deps instance (set by NewMux)
var app *Deps

// Global session store instance
var sessions *middleware.SessionStore

// RateLimitPerSecond controls the per-IP rate limit. Tests can increase this.
var RateLimitPerSecond = 20

// loadCSRFKey reads the CSRF secret from GYM_CSRF_KEY (hex-encoded, 32
// bytes). In production the key MUST be set; in development a random key
// is generated per startup.
func loadCSRFKey() []byte {
	if keyHex := os.Getenv("GYM_CSRF_KEY"); keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil || len(key) != 32 {
			log.Fatal("GYM_CSRF_KEY must be 64 hex characters (32 bytes)")
		}
		return key
	}
	if os.Getenv("GYM_ENV") == "production" {
		log.Fatal("GYM_CSRF_KEY is required in production")
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		log.Fatalf("failed to generate CSRF key: %v", err)
	}
	log.Println("WARNING: using random CSRF key (sessions won't survive restart). Set GYM_CSRF_KEY for production.")
	return key
}

// drainQueue runs an opportunistic replay pass before each authenticated
// request and reports the replayed count in X-Sync-Replayed.
func drainQueue(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetSessionFromContext(r.Context()); ok && app.Syncer.PendingCount() > 0 {
			if replayed := app.Syncer.Drain(r.Context()); replayed > 0 {
				w.Header().Set("X-Sync-Replayed", strconv.Itoa(replayed))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// NewMux wires the HTTP handlers for the service.
func NewMux(d *Deps) http.Handler {
	app = d
	sessions = middleware.NewSessionStore()
	middleware.SecureCookies = os.Getenv("GYM_ENV") == "production"

	mux := http.NewServeMux()
	registerRoutes(mux)

	csrfKey := loadCSRFKey()
	limiter := middleware.NewRateLimiter(RateLimitPerSecond, time.Second)
	trustedOrigins := []string{"localhost:8080", "127.0.0.1:8080"}

	// Middleware order, outermost first: Logging -> SecurityHeaders ->
	// RateLimit -> CSRF -> Auth -> Drain -> Mux
	return middleware.Chain(mux,
		drainQueue,
		middleware.Auth(sessions),
		middleware.CSRF(csrfKey, trustedOrigins),
		middleware.RateLimit(limiter),
		middleware.SecurityHeaders,
		middleware.Logging,
	)
}
