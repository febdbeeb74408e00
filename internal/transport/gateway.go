// Package transport delivers messages through the external mailing gateway.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aniladanir/retry"
	"github.com/google/uuid"
)

type Sender interface {
	Send(ctx context.Context, messageID int64, text string, phone int64) (ok bool, code int)
}

type GatewayConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	// MaxRetry caps the requests of one Send, the first one included.
	// Values below one mean a single request.
	MaxRetry int
	// RetryBackoff is the base of the exponential backoff between requests.
	RetryBackoff time.Duration
}

type Gateway struct {
	baseURL    string
	token      string
	retrier    *retry.Retrier
	httpClient *http.Client
	logger     *slog.Logger
}

type sendRequest struct {
	ID    int64  `json:"id"`
	Phone int64  `json:"phone"`
	Text  string `json:"text"`
}

func NewGateway(cfg GatewayConfig, logger *slog.Logger) (*Gateway, error) {
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = retry.DefaultTimeFactor
	}

	// initialize retrier; an unbounded retrier would never report a failure
	retrier, err := retry.New(
		retry.WithMaxAttemps(max(cfg.MaxRetry, 1)),
		retry.WithTimeFactor(backoff),
		retry.WithMinInterval(backoff/10),
	)
	if err != nil {
		return nil, fmt.Errorf("encountered error when initializing retrier: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = time.Second * 5
	}

	return &Gateway{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		retrier: retrier,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}, nil
}

// Send posts one message to the gateway. Network errors and 5XX responses are
// retried here; 4XX responses fail at once.
func (g *Gateway) Send(ctx context.Context, messageID int64, text string, phone int64) (bool, int) {
	msgLogger := g.logger.With(slog.Int64("messageId", messageID))

	var (
		ok   bool
		code int
	)
	retryFunc := func(attempt int) (terminate bool) {
		retryLogger := msgLogger.With(slog.Int("attempt", attempt))
		requestID := uuid.NewString()

		resp, err := g.doSendRequest(ctx, requestID, messageID, text, phone)
		if err != nil {
			retryLogger.Error("failed to send request", "error", err.Error())
			return false
		}
		resp.Body.Close()
		code = resp.StatusCode

		switch {
		case code >= http.StatusInternalServerError:
			// 5XX status code indicates server error, try retry
			retryLogger.Warn("gateway responded with server error", "requestId", requestID, "statusCode", code)
			return false
		case code >= http.StatusBadRequest:
			// 4XX indicates client error, no need to retry
			retryLogger.Warn("gateway rejected message", "requestId", requestID, "statusCode", code)
			ok = false
		default:
			ok = true
		}
		return true
	}

	if done := <-g.retrier.Retry(ctx, retryFunc, true); !done {
		msgLogger.Error("gateway retries exhausted", "statusCode", code)
		return false, code
	}

	return ok, code
}

func (g *Gateway) doSendRequest(ctx context.Context, requestID string, messageID int64, text string, phone int64) (*http.Response, error) {
	payload, err := json.Marshal(sendRequest{ID: messageID, Phone: phone, Text: text})
	if err != nil {
		return nil, err
	}

	url := g.baseURL + "/send/" + strconv.FormatInt(messageID, 10)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.token)
	req.Header.Set("X-Request-ID", requestID)

	return g.httpClient.Do(req)
}
