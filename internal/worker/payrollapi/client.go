// Package payrollapi posts closed months to the external payroll system.
package payrollapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"fichaje.balance/internal/ports/messaging"
)

// Client records a closed month in the payroll system.
type Client interface {
	RecordMonthClose(ctx context.Context, event messaging.MonthClosedEvent) error
}

// StatusError is returned when the payroll system answers with a non 2xx code.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("payroll api returned non-successful status code: %d", e.StatusCode)
}

// HTTPClient is the JSON over HTTP implementation of Client.
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL: baseURL,
	}
}

func (c *HTTPClient) RecordMonthClose(ctx context.Context, event messaging.MonthClosedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal payroll payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create payroll request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call payroll api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode}
	}

	log.Ctx(ctx).Info().
		Str("employee_id", event.EmployeeID).
		Int64("month_close_id", event.MonthCloseID).
		Msg("Month close recorded in payroll system")
	return nil
}
