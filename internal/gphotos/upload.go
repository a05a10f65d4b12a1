package gphotos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-retryablehttp"
)

// Outcome classifies what happened to a single file in a batch. No
// outcome is fatal to the batch; the pipeline always continues to the
// next file.
type Outcome int

const (
	Uploaded Outcome = iota
	SkippedUnreadable
	UploadFailed
	RegistrationFailed
)

func (o Outcome) String() string {
	switch o {
	case Uploaded:
		return "uploaded"
	case SkippedUnreadable:
		return "skipped (unreadable)"
	case UploadFailed:
		return "upload failed"
	case RegistrationFailed:
		return "registration failed"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// FileResult is the per-file outcome of a batch upload. Message carries
// the server-supplied diagnostic for failures.
type FileResult struct {
	Path    string
	Outcome Outcome
	Message string
}

type mediaItemStatus struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// UploadPhotos uploads the given files strictly in order, registering
// each as a library media item and, when albumName is non-empty, adding
// it to that album. The album is resolved before any file is touched.
//
// If an album was requested but could not be resolved (create response
// without an id), the whole batch is skipped and a nil result list is
// returned without error; any other album failure is returned as
// *AlbumError. Per-file failures are recorded in the results and never
// abort the batch.
func (c *Client) UploadPhotos(ctx context.Context, photoPaths []string, albumName string) ([]FileResult, error) {
	var albumID string
	if albumName != "" {
		id, err := c.ResolveAlbum(ctx, albumName)
		if err != nil {
			if errors.Is(err, ErrAlbumUnresolved) {
				c.logger.Error("Album could not be resolved, skipping batch",
					slog.String("album", albumName),
					slog.Int("photos", len(photoPaths)))
				return nil, nil
			}
			return nil, err
		}
		albumID = id
	}

	if len(photoPaths) == 0 {
		return nil, nil
	}

	bar := newProgressBar(len(photoPaths), "Photos")
	defer bar.Finish()

	results := make([]FileResult, 0, len(photoPaths))
	for _, path := range photoPaths {
		bar.Describe(fmt.Sprintf("Uploading %s", filepath.Base(path)))
		results = append(results, c.uploadPhoto(ctx, path, albumID, albumName))
		_ = bar.Add(1)
	}
	return results, nil
}

// uploadPhoto runs the two-phase protocol for one file: raw byte upload
// to obtain an upload token, then a batch-create call redeeming it.
func (c *Client) uploadPhoto(ctx context.Context, path, albumID, albumName string) FileResult {
	base := filepath.Base(path)

	photoBytes, err := os.ReadFile(path)
	if err != nil {
		c.logger.Error("Could not read file, skipping",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return FileResult{Path: path, Outcome: SkippedUnreadable, Message: err.Error()}
	}

	c.logger.Info("Uploading photo", slog.String("file", path))

	if err := c.limiter.Wait(ctx); err != nil {
		return FileResult{Path: path, Outcome: UploadFailed, Message: err.Error()}
	}
	token, err := c.rawUpload(ctx, base, photoBytes)
	if err != nil {
		uploadErr := &UploadError{File: base, Err: err}
		c.logger.Error("Could not upload photo",
			slog.String("file", base),
			slog.String("error", uploadErr.Error()))
		return FileResult{Path: path, Outcome: UploadFailed, Message: uploadErr.Error()}
	}
	if token == "" {
		c.logger.Error("Upload returned an empty token",
			slog.String("file", base))
		return FileResult{Path: path, Outcome: UploadFailed, Message: "empty upload token"}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return FileResult{Path: path, Outcome: RegistrationFailed, Message: err.Error()}
	}
	status, err := c.registerMediaItem(ctx, token, albumID)
	if err != nil {
		uploadErr := &UploadError{File: base, Err: err}
		c.logger.Error("Could not add photo to library",
			slog.String("file", base),
			slog.String("error", uploadErr.Error()))
		return FileResult{Path: path, Outcome: RegistrationFailed, Message: uploadErr.Error()}
	}
	if status.Code > 0 {
		c.logger.Error("Could not add photo to library",
			slog.String("file", base),
			slog.Int("status_code", status.Code),
			slog.String("message", status.Message))
		return FileResult{Path: path, Outcome: RegistrationFailed, Message: status.Message}
	}

	c.logger.Info("Added photo to library",
		slog.String("file", base),
		slog.String("album", albumName))
	return FileResult{Path: path, Outcome: Uploaded}
}

// rawUpload posts the photo bytes and returns the opaque upload token.
// The retry policy applies to this phase only.
func (c *Client) rawUpload(ctx context.Context, filename string, photoBytes []byte) (string, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.session.baseURL+"/uploads", photoBytes)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-type", "application/octet-stream")
	req.Header.Set("X-Goog-Upload-Protocol", "raw")
	req.Header.Set("X-Goog-Upload-File-Name", filename)

	resp, err := c.retry.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if err := checkResponse("raw upload", resp); err != nil {
		return "", err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read upload token: %w", err)
	}
	return string(body), nil
}

// registerMediaItem redeems an upload token as a new media item,
// optionally placing it into albumID, and returns the per-item status.
func (c *Client) registerMediaItem(ctx context.Context, token, albumID string) (*mediaItemStatus, error) {
	type simpleMediaItem struct {
		UploadToken string `json:"uploadToken"`
	}
	type newMediaItem struct {
		Description     string          `json:"description"`
		SimpleMediaItem simpleMediaItem `json:"simpleMediaItem"`
	}
	reqBody := struct {
		AlbumID       string         `json:"albumId,omitempty"`
		NewMediaItems []newMediaItem `json:"newMediaItems"`
	}{
		AlbumID: albumID,
		NewMediaItems: []newMediaItem{
			{SimpleMediaItem: simpleMediaItem{UploadToken: token}},
		},
	}

	resp, err := c.session.PostJSON(ctx, "/mediaItems:batchCreate", reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create media item: %w", err)
	}
	defer resp.Body.Close()
	if err := checkResponse("batch create", resp); err != nil {
		return nil, err
	}

	var result struct {
		NewMediaItemResults []struct {
			Status mediaItemStatus `json:"status"`
		} `json:"newMediaItemResults"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode batch create response: %w", err)
	}
	if len(result.NewMediaItemResults) == 0 {
		return nil, fmt.Errorf("batch create response missing newMediaItemResults")
	}
	return &result.NewMediaItemResults[0].Status, nil
}
