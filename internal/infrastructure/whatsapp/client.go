// Package whatsapp sends text messages through an HTTP WhatsApp gateway.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"healthcare-crm-backend/config"
	"healthcare-crm-backend/pkg/apperr"
	"healthcare-crm-backend/pkg/phone"

	"github.com/sirupsen/logrus"
)

type Client struct {
	baseURL  string
	apiKey   string
	deviceID string
	http     *http.Client
	log      *logrus.Logger
}

type sendRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// NewClient returns nil when no gateway URL is configured; a nil client drops
// every message.
func NewClient(cfg config.WhatsAppConfig, log *logrus.Logger) *Client {
	if cfg.URL == "" {
		return nil
	}

	return &Client{
		baseURL:  strings.TrimRight(cfg.URL, "/"),
		apiKey:   cfg.APIKey,
		deviceID: cfg.DeviceID,
		http:     &http.Client{Timeout: cfg.Timeout},
		log:      log,
	}
}

// Send delivers body to a canonical 10-digit number or to a group id.
func (c *Client) Send(ctx context.Context, destination string, body string) error {
	if c == nil {
		return nil
	}

	target := destination
	if normalized, err := phone.Normalize(destination); err == nil {
		target = strings.TrimPrefix(phone.E164(normalized), "+")
	}

	payload, err := json.Marshal(sendRequest{Phone: target, Message: body})
	if err != nil {
		return fmt.Errorf("marshal whatsapp payload: %w", err)
	}

	url := fmt.Sprintf("%s/send/message", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(payload))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", formatAuthHeader(c.apiKey))
	}
	if c.deviceID != "" {
		req.Header.Set("X-Device-Id", c.deviceID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apperr.Upstream("whatsapp request failed", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return apperr.Upstream(
			fmt.Sprintf("whatsapp gateway returned %d", resp.StatusCode),
			fmt.Errorf("%s", strings.TrimSpace(string(data))),
		)
	}

	c.log.WithField("destination", target).Debug("WhatsApp message sent")
	return nil
}

func formatAuthHeader(apiKey string) string {
	if strings.HasPrefix(strings.ToLower(apiKey), "basic ") {
		return apiKey
	}

	encoded := base64.StdEncoding.EncodeToString([]byte(apiKey))
	return "Basic " + encoded
}
