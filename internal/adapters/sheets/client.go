// Package sheets talks to the remote spreadsheet-and-file service: a
// Sheets-style tabular API plus a Drive-style file API, both plain REST.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"time"
)

// Default service endpoints.
const (
	DefaultSheetsBaseURL = "https://sheets.googleapis.com/v4"
	DefaultDriveBaseURL  = "https://www.googleapis.com/drive/v3"
	DefaultUploadBaseURL = "https://www.googleapis.com/upload/drive/v3"
)

// ClientConfig carries endpoints and credentials for the remote service.
type ClientConfig struct {
	SheetsBaseURL string
	DriveBaseURL  string
	UploadBaseURL string
	Token         string
	HTTPClient    *http.Client
}

// Client is a thin REST client. It reports transport and status errors
// explicitly; retry and fail-soft policy belong to callers.
type Client struct {
	sheetsBase string
	driveBase  string
	uploadBase string
	token      string
	http       *http.Client
}

// File is the file-API resource shape used by list/create responses.
type File struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MimeType    string `json:"mimeType"`
	CreatedTime string `json:"createdTime"`
}

// SheetProperties describes one tab of a spreadsheet.
type SheetProperties struct {
	Title string
}

// NewClient builds a Client, filling unset config fields with defaults.
// PRE: cfg.Token is non-empty for authenticated endpoints
func NewClient(cfg ClientConfig) *Client {
	if cfg.SheetsBaseURL == "" {
		cfg.SheetsBaseURL = DefaultSheetsBaseURL
	}
	if cfg.DriveBaseURL == "" {
		cfg.DriveBaseURL = DefaultDriveBaseURL
	}
	if cfg.UploadBaseURL == "" {
		cfg.UploadBaseURL = DefaultUploadBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		sheetsBase: cfg.SheetsBaseURL,
		driveBase:  cfg.DriveBaseURL,
		uploadBase: cfg.UploadBaseURL,
		token:      cfg.Token,
		http:       cfg.HTTPClient,
	}
}

func (c *Client) do(ctx context.Context, method, rawURL string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", method, rawURL, resp.StatusCode, snippet)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, rawURL, err)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, rawURL string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	return c.do(ctx, method, rawURL, body, "application/json", out)
}

// --- Tabular API ---

// valueRange mirrors the values-API request/response body. Cells come back
// as arbitrary JSON scalars, so reads decode into any and stringify.
type valueRange struct {
	Values [][]any `json:"values,omitempty"`
}

func stringCells(values [][]any) [][]string {
	rows := make([][]string, len(values))
	for i, row := range values {
		cells := make([]string, len(row))
		for j, v := range row {
			switch t := v.(type) {
			case string:
				cells[j] = t
			case nil:
				cells[j] = ""
			default:
				cells[j] = fmt.Sprint(t)
			}
		}
		rows[i] = cells
	}
	return rows
}

func anyCells(values [][]string) [][]any {
	rows := make([][]any, len(values))
	for i, row := range values {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = v
		}
		rows[i] = cells
	}
	return rows
}

// ValuesGet reads a range of cells.
// PRE: spreadsheetID and rng are non-empty
// POST: Returns the populated rows; trailing empty rows are absent
func (c *Client) ValuesGet(ctx context.Context, spreadsheetID, rng string) ([][]string, error) {
	u := fmt.Sprintf("%s/spreadsheets/%s/values/%s", c.sheetsBase, spreadsheetID, url.PathEscape(rng))
	var vr valueRange
	if err := c.do(ctx, http.MethodGet, u, nil, "", &vr); err != nil {
		return nil, err
	}
	return stringCells(vr.Values), nil
}

// ValuesClear empties a range of cells.
func (c *Client) ValuesClear(ctx context.Context, spreadsheetID, rng string) error {
	u := fmt.Sprintf("%s/spreadsheets/%s/values/%s:clear", c.sheetsBase, spreadsheetID, url.PathEscape(rng))
	return c.doJSON(ctx, http.MethodPost, u, struct{}{}, nil)
}

// ValuesUpdate writes values starting at the top-left of rng.
// PRE: values cells are final wire strings (RAW input mode)
func (c *Client) ValuesUpdate(ctx context.Context, spreadsheetID, rng string, values [][]string) error {
	u := fmt.Sprintf("%s/spreadsheets/%s/values/%s?valueInputOption=RAW", c.sheetsBase, spreadsheetID, url.PathEscape(rng))
	return c.doJSON(ctx, http.MethodPut, u, valueRange{Values: anyCells(values)}, nil)
}

// ValuesAppend appends rows after the last populated row of rng.
func (c *Client) ValuesAppend(ctx context.Context, spreadsheetID, rng string, values [][]string) error {
	u := fmt.Sprintf("%s/spreadsheets/%s/values/%s:append?valueInputOption=RAW", c.sheetsBase, spreadsheetID, url.PathEscape(rng))
	return c.doJSON(ctx, http.MethodPost, u, valueRange{Values: anyCells(values)}, nil)
}

// SpreadsheetSheets returns the tabs of a spreadsheet in document order.
func (c *Client) SpreadsheetSheets(ctx context.Context, spreadsheetID string) ([]SheetProperties, error) {
	u := fmt.Sprintf("%s/spreadsheets/%s", c.sheetsBase, spreadsheetID)
	var meta struct {
		Sheets []struct {
			Properties struct {
				Title string `json:"title"`
			} `json:"properties"`
		} `json:"sheets"`
	}
	if err := c.do(ctx, http.MethodGet, u, nil, "", &meta); err != nil {
		return nil, err
	}
	props := make([]SheetProperties, len(meta.Sheets))
	for i, s := range meta.Sheets {
		props[i] = SheetProperties{Title: s.Properties.Title}
	}
	return props, nil
}

// AddSheet creates a new tab with the given title and grid size.
func (c *Client) AddSheet(ctx context.Context, spreadsheetID, title string, rows, cols int) error {
	u := fmt.Sprintf("%s/spreadsheets/%s:batchUpdate", c.sheetsBase, spreadsheetID)
	body := map[string]any{
		"requests": []any{
			map[string]any{
				"addSheet": map[string]any{
					"properties": map[string]any{
						"title": title,
						"gridProperties": map[string]int{
							"rowCount":    rows,
							"columnCount": cols,
						},
					},
				},
			},
		},
	}
	return c.doJSON(ctx, http.MethodPost, u, body, nil)
}

// --- File API ---

// FilesList searches files with the service's query syntax.
// PRE: query follows the file-API q grammar
// POST: Returns at most pageSize matches
func (c *Client) FilesList(ctx context.Context, query string, pageSize int) ([]File, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("fields", "files(id,name,mimeType,createdTime)")
	q.Set("pageSize", strconv.Itoa(pageSize))
	u := fmt.Sprintf("%s/files?%s", c.driveBase, q.Encode())

	var out struct {
		Files []File `json:"files"`
	}
	if err := c.do(ctx, http.MethodGet, u, nil, "", &out); err != nil {
		return nil, err
	}
	return out.Files, nil
}

// CreateFolder creates a folder, optionally inside parentID.
func (c *Client) CreateFolder(ctx context.Context, name, parentID string) (File, error) {
	metadata := map[string]any{
		"name":     name,
		"mimeType": "application/vnd.google-apps.folder",
	}
	if parentID != "" {
		metadata["parents"] = []string{parentID}
	}
	u := fmt.Sprintf("%s/files?fields=%s", c.driveBase, url.QueryEscape("id,name"))
	var created File
	if err := c.doJSON(ctx, http.MethodPost, u, metadata, &created); err != nil {
		return File{}, err
	}
	return created, nil
}

// UploadFile uploads content as a new file inside parentID using the
// multipart upload endpoint.
// PRE: name is non-empty; content may be empty
// POST: Returns the created file with its ID set
func (c *Client) UploadFile(ctx context.Context, name, parentID, mimeType string, content []byte) (File, error) {
	metadata := map[string]any{"name": name}
	if parentID != "" {
		metadata["parents"] = []string{parentID}
	}
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return File{}, err
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	metaHeader := textproto.MIMEHeader{}
	metaHeader.Set("Content-Type", "application/json; charset=UTF-8")
	part, err := w.CreatePart(metaHeader)
	if err != nil {
		return File{}, err
	}
	part.Write(metaJSON)

	mediaHeader := textproto.MIMEHeader{}
	mediaHeader.Set("Content-Type", mimeType)
	part, err = w.CreatePart(mediaHeader)
	if err != nil {
		return File{}, err
	}
	part.Write(content)
	if err := w.Close(); err != nil {
		return File{}, err
	}

	u := fmt.Sprintf("%s/files?uploadType=multipart&fields=%s", c.uploadBase, url.QueryEscape("id,name"))
	var created File
	contentType := "multipart/related; boundary=" + w.Boundary()
	if err := c.do(ctx, http.MethodPost, u, &buf, contentType, &created); err != nil {
		return File{}, err
	}
	return created, nil
}

// DeleteFile permanently removes a file or folder.
func (c *Client) DeleteFile(ctx context.Context, fileID string) error {
	u := fmt.Sprintf("%s/files/%s", c.driveBase, fileID)
	return c.do(ctx, http.MethodDelete, u, nil, "", nil)
}

// DownloadFile fetches a file's raw content.
func (c *Client) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	u := fmt.Sprintf("%s/files/%s?alt=media", c.driveBase, fileID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", u, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("GET %s: status %d", u, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
