package domain

import "time"

// Workspace is one registered Rocket.Chat tenant. CommandToken authorizes
// admin slash commands, WebhookToken authenticates livechat webhooks the
// workspace sends back to the bridge.
type Workspace struct {
	ID           int64
	URL          string
	CommandToken string
	WebhookToken string
	CreatedAt    time.Time
}
