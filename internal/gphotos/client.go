package gphotos

import (
	"log/slog"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/adventcavalier/google-photos-upload/internal/config"
)

// Client is a session-scoped Photos Library API client. It resolves
// album titles to ids, runs the two-phase upload protocol, and keeps a
// per-run memo of resolved albums so each title is looked up at most
// once.
type Client struct {
	session *Session
	logger  *slog.Logger
	limiter *rate.Limiter
	retry   *retryablehttp.Client

	// albumIDs memoizes resolved albums for the lifetime of this client
	// (one run). Keys are lower-cased titles. Not persisted.
	albumIDs map[string]string
}

// NewClient builds a client on top of an authenticated session.
func NewClient(session *Session, settings config.Settings, logger *slog.Logger) *Client {
	return &Client{
		session: session,
		logger:  logger,
		// Limit to 5 operations per second, allowing bursts of up to 10.
		limiter:  rate.NewLimiter(rate.Every(time.Second/5), 10),
		retry:    newRetryClient(session.httpClient, settings.MaxRetries, settings.RetryDelay, logger),
		albumIDs: make(map[string]string),
	}
}
