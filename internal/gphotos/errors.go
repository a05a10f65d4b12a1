package gphotos

import (
	"errors"
	"fmt"
)

// ErrAlbumUnresolved signals that an album create call succeeded at the
// HTTP level but the response carried no album id. Callers skip the
// affected batch instead of failing the run.
var ErrAlbumUnresolved = errors.New("could not find or create album")

// APIError is a non-success response from the Photos Library API.
type APIError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s failed with status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s failed with status %d: %s", e.Op, e.StatusCode, e.Body)
}

// AlbumError is a listing or creation failure for a single album. It is
// fatal to that album's batch only.
type AlbumError struct {
	Title string
	Err   error
}

func (e *AlbumError) Error() string {
	return fmt.Sprintf("album %q: %v", e.Title, e.Err)
}

func (e *AlbumError) Unwrap() error { return e.Err }

// UploadError wraps a failure in the two-phase upload protocol for a
// single file.
type UploadError struct {
	File string
	Err  error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %q: %v", e.File, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }
