package worksheet

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"zoom-to-vimeo/internal/filename"
)

func writeSheet(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "meetings.csv")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write worksheet: %v", err)
	}
	return path
}

func testSanitizer() filename.Sanitizer {
	return filename.NewSanitizer(filename.SanitizerOptions{})
}

func TestRead_RequiredColumns(t *testing.T) {
	path := writeSheet(t, "Meeting ID,File Name\n111,intro.mp4\n")

	_, err := Read(path, testSanitizer())
	if err == nil {
		t.Fatal("expected error for missing Vimeo URI column, got nil")
	}
	if !strings.Contains(err.Error(), "Vimeo URI") {
		t.Errorf("expected error naming the missing column, got %q", err.Error())
	}
}

func TestRead_AppendsStatusColumnsAndDefaultExtension(t *testing.T) {
	path := writeSheet(t, strings.Join([]string{
		"Meeting ID,File Name,Vimeo URI",
		"111, Weekly Standup ,https://vimeo.com/manage/folders/42",
		"222,review.mov,",
	}, "\n")+"\n")

	sheet, err := Read(path, testSanitizer())
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	items := sheet.Items()
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].FileName != "Weekly Standup.mp4" {
		t.Errorf("expected trimmed name with .mp4 appended, got %q", items[0].FileName)
	}
	if items[1].FileName != "review.mov" {
		t.Errorf("expected existing extension preserved, got %q", items[1].FileName)
	}
	if items[0].DownloadStatus != StatusPending || items[0].UploadStatus != StatusPending {
		t.Errorf("expected pending statuses for fresh sheet, got %q and %q",
			items[0].DownloadStatus, items[0].UploadStatus)
	}
}

func TestRead_KeepsOperatorNamesVerbatim(t *testing.T) {
	path := writeSheet(t, strings.Join([]string{
		"Meeting ID,File Name,Vimeo URI",
		"111,Café: Résumé,",
		"222,Q&A #4.mov,",
		"333,,",
	}, "\n")+"\n")

	sheet, err := Read(path, testSanitizer())
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	items := sheet.Items()
	if items[0].FileName != "Café: Résumé.mp4" {
		t.Errorf("expected operator name kept verbatim with .mp4 appended, got %q", items[0].FileName)
	}
	if items[1].FileName != "Q&A #4.mov" {
		t.Errorf("expected name with extension untouched, got %q", items[1].FileName)
	}
	if items[2].FileName != "untitled.mp4" {
		t.Errorf("expected generated default for blank name, got %q", items[2].FileName)
	}
}

func TestRead_ExistingStatusColumns(t *testing.T) {
	path := writeSheet(t, strings.Join([]string{
		"Meeting ID,File Name,Vimeo URI,zoom_download_status,vimeo_upload_status",
		"111,intro.mp4,/me/projects/9,done,uploaded",
	}, "\n")+"\n")

	sheet, err := Read(path, testSanitizer())
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	item := sheet.Items()[0]
	if item.DownloadStatus != StatusDone {
		t.Errorf("expected download status done, got %q", item.DownloadStatus)
	}
	if item.UploadStatus != StatusUploaded {
		t.Errorf("expected upload status uploaded, got %q", item.UploadStatus)
	}
}

func TestWrite_PreservesUnknownColumns(t *testing.T) {
	path := writeSheet(t, strings.Join([]string{
		"Meeting ID,Host,File Name,Vimeo URI",
		"111,alice@example.com,intro.mp4,https://vimeo.com/manage/folders/42",
	}, "\n")+"\n")

	sheet, err := Read(path, testSanitizer())
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if err := sheet.SetDownloadStatus(0, StatusDone); err != nil {
		t.Fatalf("SetDownloadStatus failed: %v", err)
	}
	if err := sheet.Write(path); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read worksheet back: %v", err)
	}
	content := string(data)

	if !strings.Contains(content, "Meeting ID,Host,File Name,Vimeo URI,zoom_download_status,vimeo_upload_status") {
		t.Errorf("expected original column order with status columns appended, got header in:\n%s", content)
	}
	if !strings.Contains(content, "alice@example.com") {
		t.Errorf("expected unknown Host column preserved, got:\n%s", content)
	}
	if !strings.Contains(content, "done") {
		t.Errorf("expected download status written, got:\n%s", content)
	}
}

func TestSetUploadStatus_WritesBackVideoURI(t *testing.T) {
	path := writeSheet(t, strings.Join([]string{
		"Meeting ID,File Name,Vimeo URI",
		"111,intro.mp4,https://vimeo.com/manage/folders/42",
	}, "\n")+"\n")

	sheet, err := Read(path, testSanitizer())
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	if err := sheet.SetUploadStatus(0, StatusUploaded, "/videos/987654"); err != nil {
		t.Fatalf("SetUploadStatus failed: %v", err)
	}

	item := sheet.Items()[0]
	if item.UploadStatus != StatusUploaded {
		t.Errorf("expected uploaded status, got %q", item.UploadStatus)
	}
	if item.VimeoURI != "/videos/987654" {
		t.Errorf("expected video URI written back, got %q", item.VimeoURI)
	}
}

func TestSetUploadStatus_FailedKeepsFolderURI(t *testing.T) {
	path := writeSheet(t, strings.Join([]string{
		"Meeting ID,File Name,Vimeo URI",
		"111,intro.mp4,https://vimeo.com/manage/folders/42",
	}, "\n")+"\n")

	sheet, err := Read(path, testSanitizer())
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	if err := sheet.SetUploadStatus(0, StatusFailed, ""); err != nil {
		t.Fatalf("SetUploadStatus failed: %v", err)
	}

	item := sheet.Items()[0]
	if item.VimeoURI != "https://vimeo.com/manage/folders/42" {
		t.Errorf("expected folder URI untouched on failure, got %q", item.VimeoURI)
	}
}

func TestSetStatus_RowOutOfRange(t *testing.T) {
	path := writeSheet(t, "Meeting ID,File Name,Vimeo URI\n111,intro.mp4,\n")

	sheet, err := Read(path, testSanitizer())
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	if err := sheet.SetDownloadStatus(5, StatusDone); err == nil {
		t.Error("expected error for out-of-range row, got nil")
	}
	if err := sheet.SetUploadStatus(-1, StatusFailed, ""); err == nil {
		t.Error("expected error for negative row, got nil")
	}
}

func TestRead_ShortRowsPadded(t *testing.T) {
	path := writeSheet(t, strings.Join([]string{
		"Meeting ID,File Name,Vimeo URI,zoom_download_status,vimeo_upload_status",
		"111,intro.mp4,/me/projects/9",
	}, "\n")+"\n")

	sheet, err := Read(path, testSanitizer())
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	item := sheet.Items()[0]
	if item.DownloadStatus != StatusPending || item.UploadStatus != StatusPending {
		t.Errorf("expected padded pending statuses, got %q and %q",
			item.DownloadStatus, item.UploadStatus)
	}
}

func TestLocalPath(t *testing.T) {
	item := WorkItem{FileName: "intro.mp4"}
	if got := item.LocalPath("/tmp/downloads"); got != filepath.Join("/tmp/downloads", "intro.mp4") {
		t.Errorf("unexpected local path: %q", got)
	}
}

func TestWatcher_NotifiesOnWrite(t *testing.T) {
	path := writeSheet(t, "Meeting ID,File Name,Vimeo URI\n111,intro.mp4,\n")

	var mu sync.Mutex
	notified := make(chan struct{}, 1)
	watcher, err := NewWatcher(WatchConfig{FilePath: path, Debounce: 10 * time.Millisecond}, func() {
		mu.Lock()
		defer mu.Unlock()
		select {
		case notified <- struct{}{}:
		default:
		}
	})
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer watcher.Close()

	if err := os.WriteFile(path, []byte("Meeting ID,File Name,Vimeo URI\n222,demo.mp4,\n"), 0644); err != nil {
		t.Fatalf("failed to rewrite worksheet: %v", err)
	}

	select {
	case <-notified:
	case <-time.After(2 * time.Second):
		t.Fatal("expected change notification, got none")
	}
}
