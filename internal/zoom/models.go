// Package zoom provides Zoom API authentication and recording lookup
package zoom

import (
	"strings"
	"time"
)

// RecordingFile represents a single recording file within a meeting recording
type RecordingFile struct {
	ID             string    `json:"id"`
	MeetingID      string    `json:"meeting_id"`
	RecordingStart time.Time `json:"recording_start"`
	RecordingEnd   time.Time `json:"recording_end"`
	FileType       string    `json:"file_type"`
	FileExtension  string    `json:"file_extension,omitempty"`
	FileSize       int64     `json:"file_size"`
	DownloadURL    string    `json:"download_url"`
	PlayURL        string    `json:"play_url,omitempty"`
	Status         string    `json:"status"`
	RecordingType  string    `json:"recording_type,omitempty"`
}

// Recording represents a meeting or webinar recording with all associated files
type Recording struct {
	UUID           string          `json:"uuid"`
	ID             int64           `json:"id"`
	AccountID      string          `json:"account_id"`
	HostID         string          `json:"host_id"`
	Topic          string          `json:"topic"`
	StartTime      time.Time       `json:"start_time"`
	Duration       int             `json:"duration"`
	TotalSize      int64           `json:"total_size"`
	RecordingCount int             `json:"recording_count"`
	RecordingFiles []RecordingFile `json:"recording_files"`
}

// SelectVideoFile picks the recording file worth transferring: the file
// whose type and extension both say MP4, otherwise any file with a
// download URL. A file where the two fields disagree is not treated as
// the video rendition. Returns nil when the recording has nothing
// downloadable.
func (r *Recording) SelectVideoFile() *RecordingFile {
	for i := range r.RecordingFiles {
		f := &r.RecordingFiles[i]
		if f.DownloadURL == "" {
			continue
		}
		if strings.EqualFold(f.FileType, "MP4") && strings.EqualFold(f.FileExtension, "MP4") {
			return f
		}
	}
	for i := range r.RecordingFiles {
		if r.RecordingFiles[i].DownloadURL != "" {
			return &r.RecordingFiles[i]
		}
	}
	return nil
}
