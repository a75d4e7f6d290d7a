package repo

import "context"

// RocketChatCredentials authenticate one call against a workspace's
// Rocket.Chat REST API.
type RocketChatCredentials struct {
	BaseURL string // workspace base URL, no trailing slash
	UserID  string // X-User-Id
	Token   string // X-Auth-Token
}

// Visitor is the chat platform's representation of an external participant.
type Visitor struct {
	ID    string
	Token string
	Name  string
}

// Room is the livechat conversation object associated with a visitor.
type Room struct {
	RID string
}

// WhoAmI is the identity returned by Rocket.Chat for a credential pair.
type WhoAmI struct {
	ID    string
	Email string
}

// WebhookRegistration configures the omnichannel webhook pointed back at the
// bridge.
type WebhookRegistration struct {
	WebhookURL  string
	SecretToken string
}

// RocketChatRepo talks to the Rocket.Chat REST API.
type RocketChatRepo interface {
	// Me verifies a credential pair and returns the identity it belongs to.
	Me(ctx context.Context, creds RocketChatCredentials) (*WhoAmI, error)

	// RegisterWebhook registers the omnichannel livechat webhook. Requires
	// admin credentials.
	RegisterWebhook(ctx context.Context, creds RocketChatCredentials, reg WebhookRegistration) error

	// CreateVisitor creates or fetches a livechat visitor. Idempotent by
	// visitor token.
	CreateVisitor(ctx context.Context, creds RocketChatCredentials, token, name, phone, username string) (*Visitor, error)

	// CreateRoom creates or fetches the livechat room of a visitor,
	// optionally pinned to an agent.
	CreateRoom(ctx context.Context, creds RocketChatCredentials, visitorToken, agentID string) (*Room, error)

	// SendMessage posts a livechat text message with an explicit message id.
	SendMessage(ctx context.Context, creds RocketChatCredentials, visitorToken, rid, msg, id string) error

	// UploadFile downloads the file at url into memory and forwards it to the
	// room as a multipart upload.
	UploadFile(ctx context.Context, creds RocketChatCredentials, visitorToken, rid, url, fileName, caption string) error
}
