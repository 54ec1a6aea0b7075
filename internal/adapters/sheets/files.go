package sheets

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Folder and marker names on the file store.
const (
	SignedPDFFolderName  = "FIRMAS_PDF"
	BackupFolderName     = "BACKUPS_SHEETS"
	BackupMarkerFilename = "last_backup_sheets.txt"
)

// BackupRetention is how long CSV backups are kept.
const BackupRetention = 30 * 24 * time.Hour

// FileStore handles the file-API side: per-member consent folders, signed
// PDF uploads, and CSV backups of the member table.
type FileStore struct {
	client *Client

	// BaseFolderID, when set, is used directly instead of searching for
	// SignedPDFFolderName.
	BaseFolderID string
}

// NewFileStore builds a FileStore over client.
func NewFileStore(client *Client) *FileStore {
	return &FileStore{client: client}
}

func escapeQuery(s string) string {
	return strings.ReplaceAll(s, "'", `\'`)
}

// ensureFolder finds or creates a folder by name, optionally inside parentID.
func (f *FileStore) ensureFolder(ctx context.Context, name, parentID string) (string, error) {
	query := fmt.Sprintf("name = '%s' and mimeType = 'application/vnd.google-apps.folder' and trashed = false", escapeQuery(name))
	if parentID != "" {
		query = fmt.Sprintf("'%s' in parents and %s", parentID, query)
	}
	files, err := f.client.FilesList(ctx, query, 1)
	if err != nil {
		return "", fmt.Errorf("search folder %q: %w", name, err)
	}
	if len(files) > 0 {
		return files[0].ID, nil
	}

	created, err := f.client.CreateFolder(ctx, name, parentID)
	if err != nil {
		return "", fmt.Errorf("create folder %q: %w", name, err)
	}
	return created.ID, nil
}

func (f *FileStore) baseFolder(ctx context.Context) (string, error) {
	if f.BaseFolderID != "" {
		return f.BaseFolderID, nil
	}
	return f.ensureFolder(ctx, SignedPDFFolderName, "")
}

// EnsureMemberFolder finds or creates the member's consent-document folder
// "{Nombre} {Apellidos}_{DNI}" inside the signed-PDF base folder.
// PRE: name, surname and dni identify an existing member
// POST: Returns the folder ID; repeated calls reuse the same folder
func (f *FileStore) EnsureMemberFolder(ctx context.Context, name, surname, dni string) (string, error) {
	base, err := f.baseFolder(ctx)
	if err != nil {
		return "", err
	}
	folderName := fmt.Sprintf("%s %s_%s", name, surname, dni)
	return f.ensureFolder(ctx, folderName, base)
}

// UploadPDF uploads signed-consent PDF bytes into folderID and returns a
// view URL for storing in the member's document columns.
// PRE: pdf holds a complete PDF document
// POST: Returns "" only together with an error
func (f *FileStore) UploadPDF(ctx context.Context, folderID, filename string, pdf []byte) (string, error) {
	if folderID == "" {
		base, err := f.baseFolder(ctx)
		if err != nil {
			return "", err
		}
		folderID = base
	}
	created, err := f.client.UploadFile(ctx, filename, folderID, "application/pdf", pdf)
	if err != nil {
		return "", fmt.Errorf("upload pdf %q: %w", filename, err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("upload pdf %q: empty file id", filename)
	}
	return fmt.Sprintf("https://drive.google.com/file/d/%s/view?usp=drive_link", created.ID), nil
}

// ReadBackupMarker returns the date string of the last backup, or "" when
// no marker exists yet.
func (f *FileStore) ReadBackupMarker(ctx context.Context) (string, error) {
	folder, err := f.ensureFolder(ctx, BackupFolderName, "")
	if err != nil {
		return "", err
	}
	query := fmt.Sprintf("'%s' in parents and name = '%s' and trashed = false", folder, BackupMarkerFilename)
	files, err := f.client.FilesList(ctx, query, 1)
	if err != nil {
		return "", fmt.Errorf("search backup marker: %w", err)
	}
	if len(files) == 0 {
		return "", nil
	}
	content, err := f.client.DownloadFile(ctx, files[0].ID)
	if err != nil {
		return "", fmt.Errorf("read backup marker: %w", err)
	}
	return strings.TrimSpace(string(content)), nil
}

// WriteBackupMarker replaces the marker file with date.
// POST: Exactly one marker file exists, containing date
func (f *FileStore) WriteBackupMarker(ctx context.Context, date string) error {
	folder, err := f.ensureFolder(ctx, BackupFolderName, "")
	if err != nil {
		return err
	}

	// Remove any previous marker before writing the new one.
	query := fmt.Sprintf("'%s' in parents and name = '%s' and trashed = false", folder, BackupMarkerFilename)
	files, err := f.client.FilesList(ctx, query, 1)
	if err != nil {
		return fmt.Errorf("search backup marker: %w", err)
	}
	if len(files) > 0 {
		if err := f.client.DeleteFile(ctx, files[0].ID); err != nil {
			return fmt.Errorf("delete old backup marker: %w", err)
		}
	}

	if _, err := f.client.UploadFile(ctx, BackupMarkerFilename, folder, "text/plain", []byte(date)); err != nil {
		return fmt.Errorf("write backup marker: %w", err)
	}
	return nil
}

// CreateBackupCSV stores csvData as a dated CSV inside the backups folder.
// PRE: date is the backup day in DD-MM-YYYY form
func (f *FileStore) CreateBackupCSV(ctx context.Context, date string, csvData []byte) error {
	folder, err := f.ensureFolder(ctx, BackupFolderName, "")
	if err != nil {
		return err
	}
	name := fmt.Sprintf("socios_gimnasio_backup_%s.csv", date)
	if _, err := f.client.UploadFile(ctx, name, folder, "text/csv", csvData); err != nil {
		return fmt.Errorf("upload backup %q: %w", name, err)
	}
	return nil
}

// CleanupOldBackups deletes backup files created more than BackupRetention
// before now. The marker file ages like any other file but is rewritten on
// every backup, so it never crosses the threshold in practice.
// POST: Returns the number of files deleted
func (f *FileStore) CleanupOldBackups(ctx context.Context, now time.Time) (int, error) {
	folder, err := f.ensureFolder(ctx, BackupFolderName, "")
	if err != nil {
		return 0, err
	}
	files, err := f.client.FilesList(ctx, fmt.Sprintf("'%s' in parents and trashed = false", folder), 1000)
	if err != nil {
		return 0, fmt.Errorf("list backups: %w", err)
	}

	cutoff := now.Add(-BackupRetention)
	deleted := 0
	for _, file := range files {
		created, err := time.Parse(time.RFC3339, file.CreatedTime)
		if err != nil {
			continue
		}
		if created.Before(cutoff) {
			if err := f.client.DeleteFile(ctx, file.ID); err != nil {
				continue
			}
			deleted++
		}
	}
	return deleted, nil
}
