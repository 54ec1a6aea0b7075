package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"

	emailPkg "gymdesk/internal/adapters/email"
	web "gymdesk/internal/adapters/http"
	"gymdesk/internal/adapters/sheets"
	"gymdesk/internal/adapters/storage"
	accountStore "gymdesk/internal/adapters/storage/account"
	queueStore "gymdesk/internal/adapters/storage/queue"
	"gymdesk/internal/application/orchestrators"
	appsync "gymdesk/internal/application/sync"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

// defaultLegalText is served when GYM_LEGAL_FILE is not configured.
const defaultLegalText = `# Aviso legal

Al completar el alta aceptas el tratamiento de tus datos personales por
parte del gimnasio con fines de gestión de la relación contractual.
`

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}

	// Local accounts database with WAL mode and foreign keys
	dbPath := envOrDefault("GYM_DB_PATH", "gymdesk.db")
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	if err := db.Ping(); err != nil {
		log.Fatalf("database unreachable: %v", err)
	}
	if err := storage.InitDB(db); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	timedDB := storage.NewTimedDB(db)
	accounts := accountStore.NewSQLiteStore(timedDB)

	// Seed default admin account if no accounts exist
	adminUser := envOrDefault("GYM_ADMIN_USER", "admin")
	adminPassword := envOrDefault("GYM_ADMIN_PASSWORD", "Cambiar.1ya")
	seedDeps := orchestrators.CreateUserDeps{Accounts: accounts}
	if err := orchestrators.ExecuteSeedAdmin(context.Background(), seedDeps, adminUser, adminPassword); err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}

	// Remote sheet and drive client
	client := sheets.NewClient(sheets.ClientConfig{
		Token: os.Getenv("GYM_SHEETS_TOKEN"),
	})
	gateway := sheets.NewGateway(client, sheets.GatewayConfig{
		SpreadsheetID:   os.Getenv("GYM_SPREADSHEET_ID"),
		SpreadsheetName: envOrDefault("GYM_SPREADSHEET_NAME", sheets.DefaultSpreadsheetName),
	})
	if err := gateway.ResolveTableIdentity(context.Background()); err != nil {
		log.Fatalf("failed to resolve member sheet: %v", err)
	}

	files := sheets.NewFileStore(client)
	files.BaseFolderID = os.Getenv("GYM_DRIVE_FOLDER_ID")

	// Offline queue and sync coordinator
	queuePath := envOrDefault("GYM_QUEUE_PATH", "pending_ops.json")
	coordinator := appsync.NewCoordinator(gateway, queueStore.NewFileStore(queuePath))

	// Email sender for welcome mails
	resendKey := os.Getenv("GYM_RESEND_KEY")
	emailFrom := envOrDefault("GYM_EMAIL_FROM", "Gimnasio <noreply@gimnasio.es>")
	var sender emailPkg.Sender
	if resendKey != "" {
		sender = emailPkg.NewResendSender(resendKey, emailFrom)
		log.Println("Email sender configured (Resend)")
	} else {
		sender = emailPkg.NewNoopSender()
		log.Println("Email sender configured (noop; set GYM_RESEND_KEY for real delivery)")
	}

	// Daily backup worker
	backupStopCh := make(chan struct{})
	orchestrators.StartBackupWorker(orchestrators.BackupDeps{
		Syncer:  coordinator,
		Backups: files,
	}, time.Hour, backupStopCh)
	defer close(backupStopCh)

	mux := web.NewMux(&web.Deps{
		Accounts:  accounts,
		Syncer:    coordinator,
		Documents: files,
		Backups:   files,
		Email:     sender,
		EmailFrom: emailFrom,
		LegalText: loadLegalText(),
	})

	addr := envOrDefault("GYM_ADDR", ":8080")
	log.Printf("gymdesk %s starting on %s (env=%s)", version, addr, envOrDefault("GYM_ENV", "development"))

	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// loadLegalText reads the intake legal notice, falling back to the
// built-in default.
func loadLegalText() string {
	path := os.Getenv("GYM_LEGAL_FILE")
	if path == "" {
		return defaultLegalText
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("WARNING: could not read GYM_LEGAL_FILE %q: %v (using default)", path, err)
		return defaultLegalText
	}
	return string(data)
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
