package zoom

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// RecordingsAPI defines the recording lookup operations the pipeline needs
type RecordingsAPI interface {
	// MeetingRecordings retrieves the recording set for a meeting using the
	// given access token
	MeetingRecordings(ctx context.Context, meetingID, accessToken string) (*Recording, error)
}

// APIError represents an error response from the Zoom API
type APIError struct {
	StatusCode int
	Code       int    `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("zoom API error %d (code %d): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("zoom API error %d", e.StatusCode)
}

// IsNotFound reports whether the API said the meeting or recording does not
// exist. Also covers 400 responses, which Zoom returns for meeting IDs that
// belong to a different account.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound || e.StatusCode == http.StatusBadRequest
}

// Client implements RecordingsAPI against the Zoom REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new Zoom API client
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// MeetingRecordings retrieves recordings for a specific meeting.
// Meeting IDs are query-escaped so UUID-form IDs with slashes survive.
func (c *Client) MeetingRecordings(ctx context.Context, meetingID, accessToken string) (*Recording, error) {
	endpoint := fmt.Sprintf("%s/meetings/%s/recordings", c.baseURL, url.QueryEscape(meetingID))

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, parseAPIError(resp)
	}

	var result Recording
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &result, nil
}

// parseAPIError builds an APIError from a non-200 response body
func parseAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil && len(body) > 0 {
		// Body may not be JSON for gateway errors; the status code alone
		// is still a usable error
		_ = json.Unmarshal(body, apiErr)
	}

	return apiErr
}
