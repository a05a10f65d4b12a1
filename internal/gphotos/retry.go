package gphotos

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// newRetryClient builds the retrying HTTP client used by the raw upload
// phase: maxRetries total attempts with a fixed pause between them.
// Any transport error or non-2xx status is retried identically; the
// policy does not distinguish 4xx from 5xx.
func newRetryClient(httpClient *http.Client, maxRetries int, retryDelay time.Duration, logger *slog.Logger) *retryablehttp.Client {
	rc := retryablehttp.NewClient()
	rc.HTTPClient = httpClient
	rc.RetryMax = maxRetries - 1
	rc.RetryWaitMin = retryDelay
	rc.RetryWaitMax = retryDelay
	rc.Backoff = func(min, max time.Duration, attemptNum int, resp *http.Response) time.Duration {
		return retryDelay
	}
	rc.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if err != nil {
			return true, nil
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return true, nil
		}
		return false, nil
	}
	// Hand the last response (or error) back to the caller so the final
	// attempt's failure surfaces as-is.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = &retryLogger{logger: logger}
	return rc
}

// retryLogger adapts slog to retryablehttp's LeveledLogger interface.
type retryLogger struct {
	logger *slog.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, keysAndValues...)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, keysAndValues...)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, keysAndValues...)
}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}
