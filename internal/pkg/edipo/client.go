package edipo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/cmlabs-hris/edi-backend-go/internal/config"
	"github.com/cmlabs-hris/edi-backend-go/internal/pkg/metrics"
)

const basicEventPath = "/basic_event"

// maxResponseBytes bounds the response body; results embed base64 PDF/XML/ZIP documents.
const maxResponseBytes = 64 << 20

// Client calls the edipo electronic-invoicing gateway.
type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    *metrics.Metrics
}

// NewClient creates a gateway client from the injected configuration.
func NewClient(cfg config.EdipoConfig, m *metrics.Metrics) *Client {
	return &Client{
		baseURL:    cfg.APIURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		metrics:    m,
	}
}

// BasicEventCall is one submission to /basic_event.
type BasicEventCall struct {
	Token     string
	Code      string
	TestSetID string // sent only when non-empty
	Body      []byte
}

// APIError is a non-JSON answer from the gateway.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("edipo API error [%d]: %s", e.StatusCode, e.Body)
}

// BasicEvent posts a Radian event and classifies the answer. Non-2xx answers with a JSON
// body are classified like any other; the gateway reports auth and validation errors that way.
func (c *Client) BasicEvent(ctx context.Context, call BasicEventCall) (Response, error) {
	start := time.Now()
	resp, err := c.basicEvent(ctx, call)
	c.metrics.ObserveGatewayCall(call.Code, outcome(resp, err), time.Since(start))
	return resp, err
}

func (c *Client) basicEvent(ctx context.Context, call BasicEventCall) (Response, error) {
	endpoint, err := c.endpoint(call)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(call.Body))
	if err != nil {
		return nil, fmt.Errorf("edipo: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	slog.DebugContext(ctx, "edipo request", "url", c.baseURL+basicEventPath, "code", call.Code, "test_set", call.TestSetID != "")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("edipo: send request: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("edipo: read response: %w", err)
	}

	slog.DebugContext(ctx, "edipo response", "status", httpResp.StatusCode, "bytes", len(body))

	parsed, err := Parse(body)
	if err != nil {
		if httpResp.StatusCode >= http.StatusBadRequest {
			return nil, &APIError{StatusCode: httpResp.StatusCode, Body: truncate(string(body), 512)}
		}
		return nil, err
	}
	return parsed, nil
}

func (c *Client) endpoint(call BasicEventCall) (string, error) {
	u, err := url.Parse(c.baseURL + basicEventPath)
	if err != nil {
		return "", fmt.Errorf("edipo: invalid api url: %w", err)
	}
	q := url.Values{}
	q.Set("token", call.Token)
	q.Set("code", call.Code)
	if call.TestSetID != "" {
		q.Set("test_set_id", call.TestSetID)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func outcome(resp Response, err error) string {
	if err != nil {
		var incomplete *IncompleteResultError
		if errors.As(err, &incomplete) {
			return metrics.OutcomeInvalidResult
		}
		return metrics.OutcomeTransport
	}
	switch r := resp.(type) {
	case Detail:
		return metrics.OutcomeDetail
	case AuthError:
		return metrics.OutcomeAuth
	case BusinessError:
		return metrics.OutcomeBusiness
	case Result:
		if r.IsValid {
			return metrics.OutcomeValid
		}
		if r.ZipKey != nil {
			return metrics.OutcomeHabilitation
		}
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeUnrecognized
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
