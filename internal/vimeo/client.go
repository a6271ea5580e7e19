package vimeo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// acceptHeader pins the Vimeo API version for every request
const acceptHeader = "application/vnd.vimeo.*+json;version=3.4"

// Client defines the Vimeo operations the pipeline needs
type Client interface {
	// Upload transfers a local file and returns the new video's URI
	Upload(ctx context.Context, filePath, name string) (string, error)

	// AddToFolder files an uploaded video into a folder (project)
	AddToFolder(ctx context.Context, videoURI string, ref FolderRef) error
}

// APIError represents an error response from the Vimeo API
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("vimeo API error %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("vimeo API error %d", e.StatusCode)
}

// createVideoRequest is the body for the upload creation call. Privacy is
// always anybody-view, matching how transferred recordings are shared.
type createVideoRequest struct {
	Upload struct {
		Approach string `json:"approach"`
		Size     int64  `json:"size"`
	} `json:"upload"`
	Name    string `json:"name"`
	Privacy struct {
		View string `json:"view"`
	} `json:"privacy"`
}

// createVideoResponse is the subset of the creation response we use
type createVideoResponse struct {
	URI    string `json:"uri"`
	Upload struct {
		Approach   string `json:"approach"`
		UploadLink string `json:"upload_link"`
	} `json:"upload"`
}

// client implements Client against the Vimeo REST API using tus uploads
type client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
}

// NewClient creates a Vimeo API client authenticated with a personal
// access token
func NewClient(baseURL, accessToken string, timeout time.Duration) Client {
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	return &client{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		accessToken: accessToken,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Upload creates the video placeholder, then streams the file to the
// returned tus upload link in a single PATCH.
func (c *client) Upload(ctx context.Context, filePath, name string) (string, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to stat upload file: %w", err)
	}

	videoURI, uploadLink, err := c.createVideo(ctx, name, info.Size())
	if err != nil {
		return "", err
	}

	if err := c.uploadFile(ctx, uploadLink, filePath, info.Size()); err != nil {
		return "", err
	}

	return videoURI, nil
}

// createVideo asks the API for a tus upload slot
func (c *client) createVideo(ctx context.Context, name string, size int64) (videoURI, uploadLink string, err error) {
	var body createVideoRequest
	body.Upload.Approach = "tus"
	body.Upload.Size = size
	body.Name = name
	body.Privacy.View = "anybody"

	payload, err := json.Marshal(body)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode upload request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/me/videos", bytes.NewReader(payload))
	if err != nil {
		return "", "", fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", acceptHeader)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("upload creation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", "", readAPIError(resp)
	}

	var created createVideoResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", "", fmt.Errorf("failed to decode upload response: %w", err)
	}
	if created.URI == "" || created.Upload.UploadLink == "" {
		return "", "", fmt.Errorf("upload response missing uri or upload link")
	}

	return created.URI, created.Upload.UploadLink, nil
}

// uploadFile streams the file body to the tus upload link
func (c *client) uploadFile(ctx context.Context, uploadLink, filePath string, size int64) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open upload file: %w", err)
	}
	defer file.Close()

	req, err := http.NewRequestWithContext(ctx, "PATCH", uploadLink, file)
	if err != nil {
		return fmt.Errorf("failed to create tus request: %w", err)
	}
	req.ContentLength = size
	req.Header.Set("Tus-Resumable", "1.0.0")
	req.Header.Set("Upload-Offset", "0")
	req.Header.Set("Content-Type", "application/offset+octet-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("tus upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return readAPIError(resp)
	}

	if offset := resp.Header.Get("Upload-Offset"); offset != "" {
		uploaded, err := strconv.ParseInt(offset, 10, 64)
		if err == nil && uploaded != size {
			return fmt.Errorf("incomplete tus upload: server has %d of %d bytes", uploaded, size)
		}
	}

	return nil
}

// AddToFolder files the video into the folder using the owner context the
// resolver extracted. The API answers 204 on success.
func (c *client) AddToFolder(ctx context.Context, videoURI string, ref FolderRef) error {
	if ref.IsZero() {
		return nil
	}

	videoID := videoURI[strings.LastIndex(videoURI, "/")+1:]
	if videoID == "" {
		return fmt.Errorf("cannot extract video ID from URI %q", videoURI)
	}

	var path string
	switch {
	case ref.UserID != "":
		path = fmt.Sprintf("/users/%s/projects/%s/videos/%s", ref.UserID, ref.FolderID, videoID)
	case ref.TeamID != "":
		path = fmt.Sprintf("/teams/%s/projects/%s/videos/%s", ref.TeamID, ref.FolderID, videoID)
	default:
		path = fmt.Sprintf("/me/projects/%s/videos/%s", ref.FolderID, videoID)
	}

	req, err := http.NewRequestWithContext(ctx, "PUT", c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create folder request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Accept", acceptHeader)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("folder assignment request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		return readAPIError(resp)
	}

	return nil
}

// readAPIError turns a non-success response into an APIError
func readAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &APIError{
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
	}
}
