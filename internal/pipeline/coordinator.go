package pipeline

import (
	"context"
	"fmt"
	"sync"

	"zoom-to-vimeo/internal/logging"
	"zoom-to-vimeo/internal/progress"
	"zoom-to-vimeo/internal/worksheet"
)

// Coordinator fans work items across a bounded pool of workers and merges
// the results back into the worksheet. The sheet is written exactly once,
// after every worker has finished.
type Coordinator struct {
	processor *Processor
	workers   int
	logger    logging.Logger
}

// NewCoordinator creates a coordinator running at most workers items
// concurrently
func NewCoordinator(processor *Processor, workers int, logger logging.Logger) *Coordinator {
	if workers < 1 {
		workers = 1
	}
	if workers > 10 {
		workers = 10
	}
	return &Coordinator{
		processor: processor,
		workers:   workers,
		logger:    logger,
	}
}

// RunAll processes every item and returns one result per item, in item
// order. A panicking worker yields a Failed result instead of taking the
// whole run down.
func (c *Coordinator) RunAll(ctx context.Context, mode Mode, items []worksheet.WorkItem, bar progress.Bar) []RunResult {
	results := make([]RunResult, len(items))

	semaphore := make(chan struct{}, c.workers)
	var wg sync.WaitGroup

	for i, item := range items {
		wg.Add(1)
		go func(i int, item worksheet.WorkItem) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			defer func() {
				if r := recover(); r != nil {
					if c.logger != nil {
						c.logger.Error("worker panic on meeting %s: %v", item.MeetingID, r)
					}
					results[i] = RunResult{
						Row:       item.Row,
						MeetingID: item.MeetingID,
						FileName:  item.FileName,
						Outcome:   OutcomeFailed,
						Message:   fmt.Sprintf("internal error: %v", r),
					}
				}
				if bar != nil {
					bar.SetMessage(item.FileName)
					bar.Increment()
				}
			}()

			results[i] = c.processor.Process(ctx, mode, item)
		}(i, item)
	}

	wg.Wait()
	if bar != nil {
		bar.Finish()
	}

	return results
}

// Apply merges run results into the sheet's status columns. Fetch results
// land in the download status column, publish results in the upload status
// column plus the Vimeo URI write-back.
func Apply(sheet *worksheet.Sheet, mode Mode, results []RunResult) error {
	for _, result := range results {
		var err error
		switch mode {
		case ModeFetch:
			err = sheet.SetDownloadStatus(result.Row, fetchStatus(result.Outcome))
		case ModePublish:
			status, uri := publishStatus(result)
			if status != "" {
				err = sheet.SetUploadStatus(result.Row, status, uri)
			}
		}
		if err != nil {
			return fmt.Errorf("failed to record result for meeting %s: %w", result.MeetingID, err)
		}
	}
	return nil
}

// fetchStatus maps a fetch outcome onto the download status column. A skip
// means the file is on disk, which is what "done" records.
func fetchStatus(outcome Outcome) worksheet.Status {
	switch outcome {
	case OutcomeDownloaded, OutcomeSkipped:
		return worksheet.StatusDone
	default:
		return worksheet.StatusFailed
	}
}

// publishStatus maps a publish outcome onto the upload status column. A
// partial upload keeps the video URI but records failed so the next run
// retries the folder assignment path. Skips leave the column untouched.
func publishStatus(result RunResult) (worksheet.Status, string) {
	switch result.Outcome {
	case OutcomeUploaded:
		return worksheet.StatusUploaded, result.VideoURI
	case OutcomePartialUpload:
		return worksheet.StatusFailed, result.VideoURI
	case OutcomeSkipped:
		return "", ""
	default:
		return worksheet.StatusFailed, ""
	}
}
