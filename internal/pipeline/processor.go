// Package pipeline provides per-item processing and batch coordination
package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"zoom-to-vimeo/internal/download"
	"zoom-to-vimeo/internal/logging"
	"zoom-to-vimeo/internal/vimeo"
	"zoom-to-vimeo/internal/worksheet"
	"zoom-to-vimeo/internal/zoom"
)

// Mode selects which half of the transfer a run performs
type Mode int

const (
	ModeFetch Mode = iota
	ModePublish
)

func (m Mode) String() string {
	switch m {
	case ModeFetch:
		return "fetch"
	case ModePublish:
		return "publish"
	default:
		return "unknown"
	}
}

// Outcome classifies what happened to one work item
type Outcome int

const (
	OutcomeDownloaded Outcome = iota
	OutcomeUploaded
	OutcomePartialUpload
	OutcomeSkipped
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDownloaded:
		return "downloaded"
	case OutcomeUploaded:
		return "uploaded"
	case OutcomePartialUpload:
		return "partial upload"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RunResult is the outcome of processing one work item
type RunResult struct {
	Row       int
	MeetingID string
	FileName  string
	Outcome   Outcome
	Message   string
	VideoURI  string
	Duration  time.Duration
}

// AssetLocator finds a meeting's recording across the account pool
type AssetLocator interface {
	Locate(ctx context.Context, meetingID string) (*zoom.AssetRef, error)
}

// Downloader streams a recording to local disk
type Downloader interface {
	Download(ctx context.Context, req download.Request, progressCallback download.ProgressCallback) (*download.Result, error)
}

// ProcessorConfig holds configuration for the work-item processor
type ProcessorConfig struct {
	DownloadDir string
	DryRun      bool
}

// Processor runs the per-item state machine for one mode
type Processor struct {
	config     ProcessorConfig
	locator    AssetLocator
	downloader Downloader
	uploader   vimeo.Client
	sinks      *logging.SinkSet
	logger     logging.Logger
}

// NewProcessor creates a work-item processor. The locator and downloader
// are used by fetch runs, the uploader by publish runs; the unused side
// may be nil.
func NewProcessor(config ProcessorConfig, locator AssetLocator, downloader Downloader, uploader vimeo.Client, sinks *logging.SinkSet, logger logging.Logger) *Processor {
	return &Processor{
		config:     config,
		locator:    locator,
		downloader: downloader,
		uploader:   uploader,
		sinks:      sinks,
		logger:     logger,
	}
}

// Process runs one work item through the state machine for the mode
func (p *Processor) Process(ctx context.Context, mode Mode, item worksheet.WorkItem) RunResult {
	start := time.Now()

	var result RunResult
	switch mode {
	case ModeFetch:
		result = p.fetch(ctx, item)
	case ModePublish:
		result = p.publish(ctx, item)
	default:
		result = RunResult{
			Outcome: OutcomeFailed,
			Message: fmt.Sprintf("unknown mode %d", mode),
		}
	}

	result.Row = item.Row
	result.MeetingID = item.MeetingID
	result.FileName = item.FileName
	result.Duration = time.Since(start)
	return result
}

// fetch downloads the item's recording unless it is already on disk
func (p *Processor) fetch(ctx context.Context, item worksheet.WorkItem) RunResult {
	localPath := item.LocalPath(p.config.DownloadDir)

	if _, err := os.Stat(localPath); err == nil {
		p.debug("skipping %s, file already exists at %s", item.MeetingID, localPath)
		return RunResult{Outcome: OutcomeSkipped, Message: "file already exists"}
	}

	if p.config.DryRun {
		return RunResult{Outcome: OutcomeSkipped, Message: "dry run, would download " + item.FileName}
	}

	ref, err := p.locator.Locate(ctx, item.MeetingID)
	if err != nil {
		p.failure("meeting %s: %v", item.MeetingID, err)
		return RunResult{Outcome: OutcomeFailed, Message: err.Error()}
	}

	result, err := p.downloader.Download(ctx, download.Request{
		URL:         ref.DownloadURL,
		Destination: localPath,
		AuthToken:   ref.AccessToken,
		FileSize:    ref.FileSize,
	}, nil)
	if err != nil {
		// The partial file stays behind; the next fetch restarts from zero
		p.warn("download of %s failed, partial file may remain at %s", item.MeetingID, localPath)
		p.failure("download failed for meeting %s (%s): %v", item.MeetingID, item.FileName, err)
		return RunResult{Outcome: OutcomeFailed, Message: err.Error()}
	}

	p.success("downloaded %q for meeting %s from %s (%d bytes)",
		item.FileName, item.MeetingID, ref.Account, result.BytesDownloaded)
	return RunResult{Outcome: OutcomeDownloaded, Message: "downloaded from " + ref.Account}
}

// publish uploads the item's local file and files it into its folder
func (p *Processor) publish(ctx context.Context, item worksheet.WorkItem) RunResult {
	localPath := item.LocalPath(p.config.DownloadDir)
	_, statErr := os.Stat(localPath)
	fileExists := statErr == nil

	if item.UploadStatus == worksheet.StatusUploaded && fileExists {
		p.debug("skipping %s, already uploaded", item.MeetingID)
		return RunResult{Outcome: OutcomeSkipped, Message: "already uploaded", VideoURI: item.VimeoURI}
	}

	if !fileExists {
		p.failure("local file not found for meeting %s: %s", item.MeetingID, localPath)
		return RunResult{Outcome: OutcomeFailed, Message: "local file not found"}
	}

	if p.config.DryRun {
		return RunResult{Outcome: OutcomeSkipped, Message: "dry run, would upload " + item.FileName}
	}

	ref, ok := vimeo.ResolveFolder(item.VimeoURI)
	if !ok && item.VimeoURI != "" {
		p.warn("could not resolve folder from URI %q for meeting %s, uploading to root",
			item.VimeoURI, item.MeetingID)
	}

	videoURI, err := p.uploader.Upload(ctx, localPath, item.FileName)
	if err != nil {
		p.failure("upload failed for meeting %s (%s): %v", item.MeetingID, item.FileName, err)
		return RunResult{Outcome: OutcomeFailed, Message: err.Error()}
	}

	if ref.IsZero() {
		p.success("uploaded %q for meeting %s to root: %s", item.FileName, item.MeetingID, videoURI)
		return RunResult{Outcome: OutcomeUploaded, Message: "uploaded to root", VideoURI: videoURI}
	}

	if err := p.uploader.AddToFolder(ctx, videoURI, ref); err != nil {
		p.failure("uploaded %s but failed to add to folder %s: %v", videoURI, ref.FolderID, err)
		return RunResult{
			Outcome:  OutcomePartialUpload,
			Message:  fmt.Sprintf("uploaded but folder assignment failed: %v", err),
			VideoURI: videoURI,
		}
	}

	p.success("uploaded %q for meeting %s and added to folder %s: %s",
		item.FileName, item.MeetingID, ref.FolderID, videoURI)
	return RunResult{Outcome: OutcomeUploaded, Message: "uploaded to folder " + ref.FolderID, VideoURI: videoURI}
}

func (p *Processor) debug(format string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Debug(format, args...)
	}
}

func (p *Processor) warn(format string, args ...interface{}) {
	if p.sinks != nil {
		p.sinks.Warning(format, args...)
	}
	if p.logger != nil {
		p.logger.Warn(format, args...)
	}
}

func (p *Processor) success(format string, args ...interface{}) {
	if p.sinks != nil {
		p.sinks.Success(format, args...)
	}
	if p.logger != nil {
		p.logger.Info(format, args...)
	}
}

func (p *Processor) failure(format string, args ...interface{}) {
	if p.sinks != nil {
		p.sinks.Failure(format, args...)
	}
	if p.logger != nil {
		p.logger.Error(format, args...)
	}
}
