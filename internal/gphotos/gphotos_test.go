package gphotos

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/adventcavalier/google-photos-upload/internal/config"
)

// batchCreateRequest mirrors the mediaItems:batchCreate wire body for
// assertions.
type batchCreateRequest struct {
	AlbumID       string `json:"albumId"`
	NewMediaItems []struct {
		Description     string `json:"description"`
		SimpleMediaItem struct {
			UploadToken string `json:"uploadToken"`
		} `json:"simpleMediaItem"`
	} `json:"newMediaItems"`
}

// fakePhotos is an in-process Photos Library API that records every
// call so tests can assert on exact request counts and payloads.
type fakePhotos struct {
	t *testing.T

	// albumPages holds pre-existing albums, one slice per listing page.
	albumPages [][]Album

	// createID overrides the id returned by album creation;
	// createOmitID makes the create response carry no id at all.
	createID     string
	createOmitID bool
	createFail   bool

	// listFailures fails that many initial list calls with a 500.
	listFailures int

	// uploadFailures fails that many initial raw-upload attempts with a
	// 500; emptyUploadToken returns a 200 with an empty body.
	uploadFailures   int
	emptyUploadToken bool

	batchFail        bool
	batchOmitResults bool
	batchCode        int
	batchMessage     string

	mu               sync.Mutex
	listCalls        int
	createCalls      int
	uploadAttempts   int
	batchCalls       int
	createdTitles    []string
	lastListQuery    url.Values
	lastListHeader   http.Header
	lastUploadHeader http.Header
	batchBodies      []batchCreateRequest
}

func (h *fakePhotos) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/albums":
		h.listCalls++
		h.lastListQuery = r.URL.Query()
		h.lastListHeader = r.Header.Clone()
		if h.listCalls <= h.listFailures {
			http.Error(w, "listing unavailable", http.StatusInternalServerError)
			return
		}

		idx := 0
		if tok := r.URL.Query().Get("pageToken"); tok != "" {
			fmt.Sscanf(tok, "page-%d", &idx)
		}
		page := struct {
			Albums        []Album `json:"albums,omitempty"`
			NextPageToken string  `json:"nextPageToken,omitempty"`
		}{}
		if idx < len(h.albumPages) {
			page.Albums = h.albumPages[idx]
			if idx+1 < len(h.albumPages) {
				page.NextPageToken = fmt.Sprintf("page-%d", idx+1)
			}
		}
		json.NewEncoder(w).Encode(page)

	case r.Method == http.MethodPost && r.URL.Path == "/albums":
		h.createCalls++
		if h.createFail {
			http.Error(w, "create unavailable", http.StatusInternalServerError)
			return
		}
		var body struct {
			Album struct {
				Title string `json:"title"`
			} `json:"album"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			h.t.Errorf("bad create album body: %v", err)
		}
		h.createdTitles = append(h.createdTitles, body.Album.Title)
		if h.createOmitID {
			fmt.Fprint(w, "{}")
			return
		}
		id := h.createID
		if id == "" {
			id = "created-" + body.Album.Title
		}
		json.NewEncoder(w).Encode(map[string]string{"id": id, "title": body.Album.Title})

	case r.Method == http.MethodPost && r.URL.Path == "/uploads":
		h.uploadAttempts++
		h.lastUploadHeader = r.Header.Clone()
		if h.uploadAttempts <= h.uploadFailures {
			http.Error(w, "upload unavailable", http.StatusInternalServerError)
			return
		}
		if h.emptyUploadToken {
			return
		}
		fmt.Fprintf(w, "token-%d", h.uploadAttempts)

	case r.Method == http.MethodPost && r.URL.Path == "/mediaItems:batchCreate":
		h.batchCalls++
		var body batchCreateRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			h.t.Errorf("bad batch create body: %v", err)
		}
		h.batchBodies = append(h.batchBodies, body)
		if h.batchFail {
			http.Error(w, "batch create unavailable", http.StatusInternalServerError)
			return
		}
		if h.batchOmitResults {
			fmt.Fprint(w, "{}")
			return
		}
		resp := map[string]any{
			"newMediaItemResults": []map[string]any{
				{"status": map[string]any{"code": h.batchCode, "message": h.batchMessage}},
			},
		}
		json.NewEncoder(w).Encode(resp)

	default:
		h.t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		http.Error(w, "unexpected request", http.StatusNotFound)
	}
}

// newTestClient starts a fake Photos server and returns a client
// pointed at it. Retries run without delay.
func newTestClient(t *testing.T, h *fakePhotos) *Client {
	t.Helper()
	h.t = t
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	settings := config.Settings{
		APIBaseURL: srv.URL,
		MaxRetries: 3,
		RetryDelay: 0,
		LogLevel:   "INFO",
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient(NewSession(srv.Client(), srv.URL), settings, logger)
}

// settingsWithRetries mirrors newTestClient but allows tuning the retry
// policy under test.
func newTestClientRetries(t *testing.T, h *fakePhotos, maxRetries int, delay time.Duration) *Client {
	t.Helper()
	h.t = t
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	settings := config.Settings{
		APIBaseURL: srv.URL,
		MaxRetries: maxRetries,
		RetryDelay: delay,
		LogLevel:   "INFO",
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient(NewSession(srv.Client(), srv.URL), settings, logger)
}
