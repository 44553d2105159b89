package paymentstatus

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	appErrors "github.com/opaquedelicia/restaurant-platform/internal/errors"
	"github.com/opaquedelicia/restaurant-platform/internal/models"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	DefaultRequestTimeout = 5 * time.Second
	maxBodyBytes          = 1 << 20
	statusPath            = "/api/payments/status/"
	cancelPath            = "/api/payments/%s/cancel"
)

// StatusClient fetches the authoritative status of one payment.
type StatusClient interface {
	FetchStatus(ctx context.Context, reference string) (models.PaymentStatus, error)
}

// HTTPClient talks to the payments API. Every failure it returns is a *errors.PollFailure.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {

	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		timeout:    timeout,
		logger:     slog.Default(),
	}
}

// WithLogger sets the logger used for discarded response diagnostics.
func (c *HTTPClient) WithLogger(logger *slog.Logger) *HTTPClient {

	if logger != nil {
		c.logger = logger
	}

	return c
}

// FetchStatus implements StatusClient.
func (c *HTTPClient) FetchStatus(ctx context.Context, reference string) (models.PaymentStatus, error) {

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.baseURL+statusPath+url.PathEscape(reference), nil)
	if err != nil {
		return "", appErrors.NewPollFailure(appErrors.PollNetworkFailure, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", appErrors.NewPollFailure(appErrors.PollNetworkFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return "", appErrors.HTTPPollFailure(resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", appErrors.NewPollFailure(appErrors.PollNetworkFailure, err)
	}

	payload, err := parseBody(c.logger, body)
	if err != nil {
		return "", err
	}

	status, ok := NormalizeStatus(payload)
	if !ok {
		return "", appErrors.NewPollFailure(appErrors.PollParseError, errors.New("payload carries no known status field"))
	}

	return status, nil
}

// CancelPayment asks the API to cancel a pending payment. A 409 means the payment is
// already settled and is reported as ErrAlreadySettled.
func (c *HTTPClient) CancelPayment(ctx context.Context, reference string) error {

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := c.baseURL + fmt.Sprintf(cancelPath, url.PathEscape(reference))

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build cancel request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to cancel payment %s: %w", reference, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))

	switch {
	case resp.StatusCode == http.StatusConflict:
		return ErrAlreadySettled
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("failed to cancel payment %s: unexpected status %d", reference, resp.StatusCode)
	}

	return nil
}

var ErrAlreadySettled = errors.New("payment already settled")
