package data

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/greenbridge/rocketchat-bridge/internal/biz/domain"
	"github.com/greenbridge/rocketchat-bridge/internal/biz/repo"
)

const maxErrorBody = 2048

// greenAPIClient implements the GREEN-API repository over its REST API.
// Every endpoint follows the {base}/waInstance{id}/{method}/{token} shape.
type greenAPIClient struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

// NewGreenAPIClient creates a GREEN-API client.
func NewGreenAPIClient(baseURL string, log zerolog.Logger) repo.GreenAPIRepo {
	return &greenAPIClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     log.With().Str("component", "greenapi").Logger(),
	}
}

func (c *greenAPIClient) endpoint(method string, idInstance int64, apiToken string) string {
	return fmt.Sprintf("%s/waInstance%d/%s/%s", c.baseURL, idInstance, method, apiToken)
}

func (c *greenAPIClient) GetWaSettings(ctx context.Context, idInstance int64, apiToken string) (*domain.WaSettings, error) {
	var settings domain.WaSettings
	err := c.do(ctx, http.MethodGet, c.endpoint("getWaSettings", idInstance, apiToken), nil, &settings)
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (c *greenAPIClient) SetSettings(ctx context.Context, idInstance int64, apiToken string, settings domain.InstanceSettings) error {
	// The wid is bridge-side bookkeeping, not a GREEN-API setting.
	settings.Wid = ""
	return c.do(ctx, http.MethodPost, c.endpoint("setSettings", idInstance, apiToken), settings, nil)
}

func (c *greenAPIClient) SendText(ctx context.Context, idInstance int64, apiToken string, msg domain.TextDispatch) error {
	body := map[string]any{
		"chatId":  msg.ChatID,
		"message": msg.Message,
	}
	if msg.QuotedMessageID != "" {
		body["quotedMessageId"] = msg.QuotedMessageID
	}
	return c.do(ctx, http.MethodPost, c.endpoint("sendMessage", idInstance, apiToken), body, nil)
}

func (c *greenAPIClient) SendFileByURL(ctx context.Context, idInstance int64, apiToken string, msg domain.FileDispatch) error {
	body := map[string]any{
		"chatId":   msg.ChatID,
		"urlFile":  msg.URL,
		"fileName": msg.FileName,
	}
	if msg.Caption != "" {
		body["caption"] = msg.Caption
	}
	if msg.QuotedMessageID != "" {
		body["quotedMessageId"] = msg.QuotedMessageID
	}
	return c.do(ctx, http.MethodPost, c.endpoint("sendFileByUrl", idInstance, apiToken), body, nil)
}

func (c *greenAPIClient) do(ctx context.Context, method, url string, in, out any) error {
	var body io.Reader
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &domain.IntegrationError{Message: fmt.Sprintf("green-api request failed: %v", err)}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &domain.IntegrationError{
			Message: "green-api returned an error",
			Status:  resp.StatusCode,
			Body:    truncate(string(data), maxErrorBody),
		}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
