// Package sheets submits rows to a spreadsheet webhook.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"healthcare-crm-backend/config"
	"healthcare-crm-backend/internal/domain/entity"
	"healthcare-crm-backend/pkg/apperr"
)

type Client struct {
	webhookURL string
	secret     string
	http       *http.Client
}

type submitRequest struct {
	Secret  string   `json:"secret"`
	Type    string   `json:"type"`
	RowData []string `json:"rowData"`
}

// NewClient returns nil when no webhook is configured.
func NewClient(cfg config.SheetsConfig) *Client {
	if cfg.WebhookURL == "" {
		return nil
	}
	return &Client{
		webhookURL: cfg.WebhookURL,
		secret:     cfg.Secret,
		http:       &http.Client{Timeout: 30 * time.Second},
	}
}

// Submit posts one row. A 429 is a RateLimit error and 5xx or transport
// failures are Upstream errors; both mean the job must be retried. Any other
// 4xx is a Validation error and the job will never succeed.
func (c *Client) Submit(ctx context.Context, job entity.SheetJob) error {
	body, err := json.Marshal(submitRequest{Secret: c.secret, Type: job.Type, RowData: job.RowData})
	if err != nil {
		return fmt.Errorf("marshal sheet payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return apperr.Upstream("sheet webhook request failed", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	detail := strings.TrimSpace(string(data))
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return apperr.RateLimit("sheet webhook is rate limiting")
	case resp.StatusCode >= http.StatusInternalServerError:
		return apperr.Upstream(fmt.Sprintf("sheet webhook returned %d", resp.StatusCode), fmt.Errorf("%s", detail))
	default:
		return apperr.Validation(fmt.Sprintf("sheet webhook rejected job with %d: %s", resp.StatusCode, detail))
	}
}
