package sheets

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gymdesk/internal/domain/audit"
	"gymdesk/internal/domain/member"
)

// DefaultSpreadsheetName is the spreadsheet searched for when no ID is
// configured.
const DefaultSpreadsheetName = "socios_gimnasio"

// dataRange covers the member table: header plus all data columns.
const dataRange = "A:Z"

// Gateway errors.
var (
	ErrSpreadsheetNotFound = errors.New("spreadsheet not found")
	ErrNoSheets            = errors.New("spreadsheet has no sheets")
)

// GatewayConfig selects the backing spreadsheet. SpreadsheetID wins when
// set; otherwise the file API is searched by SpreadsheetName.
type GatewayConfig struct {
	SpreadsheetID   string
	SpreadsheetName string
}

// Gateway exposes the member table and the Logs sub-table over the remote
// service. All methods return errors explicitly; fail-soft policy lives in
// the sync coordinator.
type Gateway struct {
	client *Client
	cfg    GatewayConfig

	mu            sync.Mutex
	spreadsheetID string
	sheetTitle    string
}

// NewGateway builds a Gateway over client.
func NewGateway(client *Client, cfg GatewayConfig) *Gateway {
	if cfg.SpreadsheetName == "" {
		cfg.SpreadsheetName = DefaultSpreadsheetName
	}
	return &Gateway{client: client, cfg: cfg}
}

// ResolveTableIdentity locates the spreadsheet, its first sheet title, and
// ensures the Logs sub-table exists. Results are cached for the lifetime of
// the Gateway.
// PRE: the remote service is reachable
// POST: Subsequent calls are no-ops; identity failures leave no partial cache
func (g *Gateway) ResolveTableIdentity(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, _, err := g.identityLocked(ctx)
	return err
}

func (g *Gateway) identityLocked(ctx context.Context) (spreadsheetID, sheetTitle string, err error) {
	if g.spreadsheetID != "" && g.sheetTitle != "" {
		return g.spreadsheetID, g.sheetTitle, nil
	}

	id := g.cfg.SpreadsheetID
	if id == "" {
		query := fmt.Sprintf("name = '%s' and mimeType = 'application/vnd.google-apps.spreadsheet' and trashed = false", g.cfg.SpreadsheetName)
		files, err := g.client.FilesList(ctx, query, 1)
		if err != nil {
			return "", "", fmt.Errorf("search spreadsheet %q: %w", g.cfg.SpreadsheetName, err)
		}
		if len(files) == 0 {
			return "", "", fmt.Errorf("%w: %s", ErrSpreadsheetNotFound, g.cfg.SpreadsheetName)
		}
		id = files[0].ID
	}

	sheetsList, err := g.client.SpreadsheetSheets(ctx, id)
	if err != nil {
		return "", "", fmt.Errorf("read spreadsheet metadata: %w", err)
	}
	if len(sheetsList) == 0 {
		return "", "", ErrNoSheets
	}

	if err := g.ensureLogsSheetLocked(ctx, id, sheetsList); err != nil {
		return "", "", err
	}

	g.spreadsheetID = id
	g.sheetTitle = sheetsList[0].Title
	return g.spreadsheetID, g.sheetTitle, nil
}

func (g *Gateway) ensureLogsSheetLocked(ctx context.Context, spreadsheetID string, existing []SheetProperties) error {
	for _, s := range existing {
		if s.Title == audit.SheetName {
			return nil
		}
	}
	if err := g.client.AddSheet(ctx, spreadsheetID, audit.SheetName, 1000, len(audit.Header)); err != nil {
		return fmt.Errorf("create %s sheet: %w", audit.SheetName, err)
	}
	headerRange := fmt.Sprintf("%s!A1:E1", audit.SheetName)
	if err := g.client.ValuesUpdate(ctx, spreadsheetID, headerRange, [][]string{audit.Header}); err != nil {
		return fmt.Errorf("write %s header: %w", audit.SheetName, err)
	}
	return nil
}

// ReadAll reads the full member table.
// POST: Ragged rows are padded/truncated to the header width; header-only
// or empty sheets yield an empty table with the canonical columns
func (g *Gateway) ReadAll(ctx context.Context) (member.Table, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	id, title, err := g.identityLocked(ctx)
	if err != nil {
		return member.Table{}, err
	}

	values, err := g.client.ValuesGet(ctx, id, title+"!"+dataRange)
	if err != nil {
		return member.Table{}, fmt.Errorf("read member table: %w", err)
	}
	if len(values) == 0 {
		return member.NewTable(member.Columns, nil), nil
	}
	return member.NewTable(values[0], values[1:]), nil
}

// OverwriteAll replaces the member table with records, header included.
// The clear and the write form one unit: a failed clear aborts the write.
// PRE: records carry final wire values
// POST: Sheet contains exactly the canonical header plus one row per record
func (g *Gateway) OverwriteAll(ctx context.Context, records []member.Record) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	id, title, err := g.identityLocked(ctx)
	if err != nil {
		return err
	}

	if err := g.client.ValuesClear(ctx, id, title+"!"+dataRange); err != nil {
		return fmt.Errorf("clear member table: %w", err)
	}

	values := append([][]string{member.Columns}, member.RowsFromRecords(records)...)
	if err := g.client.ValuesUpdate(ctx, id, title+"!A1", values); err != nil {
		return fmt.Errorf("write member table: %w", err)
	}
	return nil
}

// AppendLogRow appends one audit row to the Logs sub-table.
// PRE: row matches the Logs header width
func (g *Gateway) AppendLogRow(ctx context.Context, row []string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	id, _, err := g.identityLocked(ctx)
	if err != nil {
		return err
	}

	rng := fmt.Sprintf("%s!A:E", audit.SheetName)
	if err := g.client.ValuesAppend(ctx, id, rng, [][]string{row}); err != nil {
		return fmt.Errorf("append log row: %w", err)
	}
	return nil
}

// ReadLogRows reads all rows of the Logs sub-table, header included.
func (g *Gateway) ReadLogRows(ctx context.Context) ([][]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	id, _, err := g.identityLocked(ctx)
	if err != nil {
		return nil, err
	}

	rng := fmt.Sprintf("%s!A:E", audit.SheetName)
	values, err := g.client.ValuesGet(ctx, id, rng)
	if err != nil {
		return nil, fmt.Errorf("read log rows: %w", err)
	}
	return values, nil
}
