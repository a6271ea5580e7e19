// Package worksheet provides the CSV work list driving zoom-to-vimeo runs
package worksheet

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"zoom-to-vimeo/internal/filename"
)

// Status values recorded in the worksheet status columns. An empty status
// means the phase has not been attempted yet.
type Status string

const (
	StatusPending  Status = ""
	StatusDone     Status = "done"
	StatusFailed   Status = "failed"
	StatusUploaded Status = "uploaded"
)

// Column names the worksheet must carry. Status columns are appended on
// first read when absent; every other column is preserved untouched.
const (
	ColumnMeetingID      = "Meeting ID"
	ColumnFileName       = "File Name"
	ColumnVimeoURI       = "Vimeo URI"
	ColumnDownloadStatus = "zoom_download_status"
	ColumnUploadStatus   = "vimeo_upload_status"
)

// WorkItem is one worksheet row projected into the fields the pipeline
// needs. Row is the item's index in the sheet and is the identity used
// when writing statuses back.
type WorkItem struct {
	Row            int
	MeetingID      string
	FileName       string
	VimeoURI       string
	DownloadStatus Status
	UploadStatus   Status
}

// LocalPath returns the on-disk location of the item's recording under
// the download directory.
func (w WorkItem) LocalPath(downloadDir string) string {
	return filepath.Join(downloadDir, w.FileName)
}

// Sheet holds a worksheet in memory. The file is read once at the start of
// a run and rewritten once at the end; all status updates happen in memory
// between the two.
type Sheet struct {
	mu       sync.Mutex
	header   []string
	rows     [][]string
	colIndex map[string]int
}

// Read loads the worksheet at path, validates the required columns and
// appends the status columns if missing. File names are taken verbatim
// from the sheet apart from the default media extension; only a blank
// name cell falls back to a generated default.
func Read(path string, sanitizer filename.Sanitizer) (*Sheet, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open worksheet: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse worksheet: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("worksheet %s is empty", path)
	}

	sheet := &Sheet{
		header: records[0],
		rows:   records[1:],
	}
	sheet.buildColumnIndex()

	for _, required := range []string{ColumnMeetingID, ColumnFileName, ColumnVimeoURI} {
		if _, ok := sheet.colIndex[required]; !ok {
			return nil, fmt.Errorf("worksheet is missing required column %q", required)
		}
	}

	sheet.ensureColumn(ColumnDownloadStatus)
	sheet.ensureColumn(ColumnUploadStatus)

	for i := range sheet.rows {
		sheet.padRow(i)
		for j, cell := range sheet.rows[i] {
			sheet.rows[i][j] = strings.TrimSpace(cell)
		}
		nameCol := sheet.colIndex[ColumnFileName]
		if name := sheet.rows[i][nameCol]; name == "" {
			sheet.rows[i][nameCol] = sanitizer.Normalize(name)
		} else {
			sheet.rows[i][nameCol] = sanitizer.EnsureExtension(name, filename.DefaultExtension)
		}
	}

	return sheet, nil
}

// buildColumnIndex maps column names to their position in the header
func (s *Sheet) buildColumnIndex() {
	s.colIndex = make(map[string]int, len(s.header))
	for i, name := range s.header {
		s.colIndex[strings.TrimSpace(name)] = i
	}
}

// ensureColumn appends a column to the header if it is not already present
func (s *Sheet) ensureColumn(name string) {
	if _, ok := s.colIndex[name]; ok {
		return
	}
	s.header = append(s.header, name)
	s.colIndex[name] = len(s.header) - 1
}

// padRow extends a short row with empty cells up to the header width
func (s *Sheet) padRow(i int) {
	for len(s.rows[i]) < len(s.header) {
		s.rows[i] = append(s.rows[i], "")
	}
}

// Items returns the worksheet rows as work items, in file order
func (s *Sheet) Items() []WorkItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]WorkItem, 0, len(s.rows))
	for i, row := range s.rows {
		items = append(items, WorkItem{
			Row:            i,
			MeetingID:      row[s.colIndex[ColumnMeetingID]],
			FileName:       row[s.colIndex[ColumnFileName]],
			VimeoURI:       row[s.colIndex[ColumnVimeoURI]],
			DownloadStatus: Status(row[s.colIndex[ColumnDownloadStatus]]),
			UploadStatus:   Status(row[s.colIndex[ColumnUploadStatus]]),
		})
	}
	return items
}

// Len returns the number of work rows in the sheet
func (s *Sheet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

// SetDownloadStatus records the download outcome for a row
func (s *Sheet) SetDownloadStatus(row int, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if row < 0 || row >= len(s.rows) {
		return fmt.Errorf("row %d out of range", row)
	}
	s.rows[row][s.colIndex[ColumnDownloadStatus]] = string(status)
	return nil
}

// SetUploadStatus records the upload outcome for a row. A non-empty
// videoURI replaces the row's Vimeo URI so the sheet points at the
// uploaded video afterwards.
func (s *Sheet) SetUploadStatus(row int, status Status, videoURI string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if row < 0 || row >= len(s.rows) {
		return fmt.Errorf("row %d out of range", row)
	}
	s.rows[row][s.colIndex[ColumnUploadStatus]] = string(status)
	if videoURI != "" {
		s.rows[row][s.colIndex[ColumnVimeoURI]] = videoURI
	}
	return nil
}

// Write rewrites the worksheet at path with the in-memory state, keeping
// the original column order and any columns the pipeline does not use.
func (s *Sheet) Write(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create worksheet: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(s.header); err != nil {
		return fmt.Errorf("failed to write worksheet header: %w", err)
	}
	for _, row := range s.rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write worksheet row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush worksheet: %w", err)
	}

	return file.Sync()
}
