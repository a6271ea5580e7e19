package zoom

import (
	"context"
	"errors"
	"fmt"

	"zoom-to-vimeo/internal/config"
	"zoom-to-vimeo/internal/logging"
)

// ErrNotFound is returned when no configured account holds the recording
var ErrNotFound = errors.New("recording not found in any configured account")

// AssetRef points at a downloadable recording file together with the
// account and token that can fetch it.
type AssetRef struct {
	DownloadURL string
	FileSize    int64
	Account     string
	AccessToken string
}

// Locator finds which account in the credential pool holds a meeting's
// recording. Accounts are probed in configuration order and the first hit
// wins; later accounts are never consulted for that meeting.
type Locator struct {
	accounts []config.AccountConfig
	tokens   TokenSource
	api      RecordingsAPI
	logger   logging.Logger
}

// NewLocator creates a locator over the ordered account pool
func NewLocator(accounts []config.AccountConfig, tokens TokenSource, api RecordingsAPI, logger logging.Logger) *Locator {
	return &Locator{
		accounts: accounts,
		tokens:   tokens,
		api:      api,
		logger:   logger,
	}
}

// Locate probes the account pool for the meeting's recording and returns a
// reference to its video file. A failed probe, whether the token exchange
// or the lookup, moves on to the next account; only exhaustion of the pool
// is an error.
func (l *Locator) Locate(ctx context.Context, meetingID string) (*AssetRef, error) {
	for _, account := range l.accounts {
		token, err := l.tokens.Token(ctx, account)
		if err != nil {
			l.warn("token exchange failed for %s: %v", account.Name, err)
			continue
		}

		recording, err := l.api.MeetingRecordings(ctx, meetingID, token.AccessToken)
		if err != nil {
			var apiErr *APIError
			if errors.As(err, &apiErr) && apiErr.IsNotFound() {
				l.debug("meeting %s not in %s", meetingID, account.Name)
			} else {
				l.warn("recording lookup failed in %s: %v", account.Name, err)
			}
			continue
		}

		file := recording.SelectVideoFile()
		if file == nil {
			l.warn("meeting %s in %s has no downloadable file", meetingID, account.Name)
			continue
		}

		l.debug("meeting %s found in %s (%s, %d bytes)",
			meetingID, account.Name, file.FileType, file.FileSize)

		return &AssetRef{
			DownloadURL: file.DownloadURL,
			FileSize:    file.FileSize,
			Account:     account.Name,
			AccessToken: token.AccessToken,
		}, nil
	}

	return nil, fmt.Errorf("meeting %s: %w", meetingID, ErrNotFound)
}

func (l *Locator) warn(format string, args ...interface{}) {
	if l.logger != nil {
		l.logger.Warn(format, args...)
	}
}

func (l *Locator) debug(format string, args ...interface{}) {
	if l.logger != nil {
		l.logger.Debug(format, args...)
	}
}
