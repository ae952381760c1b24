package webapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrNoEndpoint is returned when the client has no URL to push to.
var ErrNoEndpoint = errors.New("no sync endpoint configured")

// Client pushes the ledger document to a remote receiver.
type Client interface {
	Push(ctx context.Context, document []byte) error
}

// APIClient is a resty-backed implementation of Client. It never retries.
type APIClient struct {
	httpClient *resty.Client
	endpoint   string
}

// NewClient builds a sync client posting to endpoint. A zero timeout waits
// for the receiver indefinitely.
func NewClient(endpoint string, timeout time.Duration) *APIClient {
	restyClient := resty.New().
		SetHeader("Content-Type", "application/json").
		SetRetryCount(0)
	if timeout > 0 {
		restyClient.SetTimeout(timeout)
	}

	return &APIClient{
		httpClient: restyClient,
		endpoint:   endpoint,
	}
}

// Push posts the whole document. Only the status code is consulted; the
// response body is ignored.
func (c *APIClient) Push(ctx context.Context, document []byte) error {
	if c.endpoint == "" {
		return ErrNoEndpoint
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(document).
		Post(c.endpoint)
	if err != nil {
		return fmt.Errorf("push ledger document: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		return fmt.Errorf("sync endpoint error: status=%d", resp.StatusCode())
	}

	return nil
}
