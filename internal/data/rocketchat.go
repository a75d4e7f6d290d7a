package data

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/greenbridge/rocketchat-bridge/internal/biz/domain"
	"github.com/greenbridge/rocketchat-bridge/internal/biz/repo"
)

// rocketChatClient implements the Rocket.Chat repository over its REST API.
// Credentials are per-call because every workspace and agent brings its own.
type rocketChatClient struct {
	http *http.Client
	log  zerolog.Logger
}

// NewRocketChatClient creates a Rocket.Chat client.
func NewRocketChatClient(log zerolog.Logger) repo.RocketChatRepo {
	return &rocketChatClient{
		http: &http.Client{Timeout: 30 * time.Second},
		log:  log.With().Str("component", "rocketchat").Logger(),
	}
}

func apiURL(creds repo.RocketChatCredentials, path string) string {
	return strings.TrimSuffix(creds.BaseURL, "/") + "/api/v1" + path
}

func (c *rocketChatClient) Me(ctx context.Context, creds repo.RocketChatCredentials) (*repo.WhoAmI, error) {
	var out struct {
		ID     string `json:"_id"`
		Email  string `json:"email"`
		Emails []struct {
			Address string `json:"address"`
		} `json:"emails"`
	}
	if err := c.do(ctx, http.MethodGet, creds, apiURL(creds, "/me"), nil, &out); err != nil {
		return nil, err
	}

	email := out.Email
	if email == "" && len(out.Emails) > 0 {
		email = out.Emails[0].Address
	}
	return &repo.WhoAmI{ID: out.ID, Email: email}, nil
}

func (c *rocketChatClient) RegisterWebhook(ctx context.Context, creds repo.RocketChatCredentials, reg repo.WebhookRegistration) error {
	body := map[string]any{
		"LivechatWebhookUrl":            reg.WebhookURL,
		"LivechatSecretToken":           reg.SecretToken,
		"LivechatWebhookOnAgentMessage": true,
		"LivechatHttpTimeout":           10000,
	}
	return c.do(ctx, http.MethodPost, creds, apiURL(creds, "/omnichannel/integrations"), body, nil)
}

func (c *rocketChatClient) CreateVisitor(ctx context.Context, creds repo.RocketChatCredentials, token, name, phone, username string) (*repo.Visitor, error) {
	body := map[string]any{
		"visitor": map[string]any{
			"token":    token,
			"name":     name,
			"phone":    phone,
			"username": username,
		},
	}
	var out struct {
		Visitor struct {
			ID    string `json:"_id"`
			Token string `json:"token"`
			Name  string `json:"name"`
		} `json:"visitor"`
	}
	if err := c.do(ctx, http.MethodPost, creds, apiURL(creds, "/livechat/visitor"), body, &out); err != nil {
		return nil, err
	}
	return &repo.Visitor{ID: out.Visitor.ID, Token: out.Visitor.Token, Name: out.Visitor.Name}, nil
}

func (c *rocketChatClient) CreateRoom(ctx context.Context, creds repo.RocketChatCredentials, visitorToken, agentID string) (*repo.Room, error) {
	query := url.Values{}
	query.Set("token", visitorToken)
	if agentID != "" {
		query.Set("agentId", agentID)
	}

	var out struct {
		Room struct {
			ID string `json:"_id"`
		} `json:"room"`
	}
	if err := c.do(ctx, http.MethodGet, creds, apiURL(creds, "/livechat/room")+"?"+query.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &repo.Room{RID: out.Room.ID}, nil
}

func (c *rocketChatClient) SendMessage(ctx context.Context, creds repo.RocketChatCredentials, visitorToken, rid, msg, id string) error {
	body := map[string]any{
		"token": visitorToken,
		"rid":   rid,
		"msg":   msg,
	}
	if id != "" {
		body["_id"] = id
	}
	return c.do(ctx, http.MethodPost, creds, apiURL(creds, "/livechat/message"), body, nil)
}

// UploadFile fetches the file at fileURL and forwards it into the room as a
// livechat upload on behalf of the visitor.
func (c *rocketChatClient) UploadFile(ctx context.Context, creds repo.RocketChatCredentials, visitorToken, rid, fileURL, fileName, caption string) error {
	data, err := c.download(ctx, fileURL)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("failed to write upload body: %w", err)
	}
	if caption != "" {
		if err := writer.WriteField("msg", caption); err != nil {
			return fmt.Errorf("failed to write upload caption: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finish upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL(creds, "/livechat/upload/"+rid), &buf)
	if err != nil {
		return fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-Visitor-Token", visitorToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return &domain.IntegrationError{Message: fmt.Sprintf("rocket.chat upload failed: %v", err)}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &domain.IntegrationError{
			Message: "rocket.chat upload rejected",
			Status:  resp.StatusCode,
			Body:    truncate(string(respBody), maxErrorBody),
		}
	}
	return nil
}

func (c *rocketChatClient) download(ctx context.Context, fileURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build download request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &domain.IntegrationError{Message: fmt.Sprintf("file download failed: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &domain.IntegrationError{
			Message: "file download rejected",
			Status:  resp.StatusCode,
		}
	}
	return io.ReadAll(resp.Body)
}

func (c *rocketChatClient) do(ctx context.Context, method string, creds repo.RocketChatCredentials, url string, in, out any) error {
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
	req.Header.Set("X-User-Id", creds.UserID)
	req.Header.Set("X-Auth-Token", creds.Token)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &domain.IntegrationError{Message: fmt.Sprintf("rocket.chat request failed: %v", err)}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &domain.IntegrationError{
			Message: "rocket.chat returned an error",
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
