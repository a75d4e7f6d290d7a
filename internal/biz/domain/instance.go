package domain

import (
	"strings"
	"time"
)

// GREEN-API connectivity states the bridge cares about.
const (
	StateAuthorized    = "authorized"
	StateNotAuthorized = "notAuthorized"
)

// InstanceSettings is the webhook configuration pushed to a GREEN-API
// instance, plus the WhatsApp identity (wid) the instance is bound to. The
// struct is stored as a JSON blob alongside the instance record.
type InstanceSettings struct {
	WebhookURL         string `json:"webhookUrl,omitempty"`
	WebhookURLToken    string `json:"webhookUrlToken,omitempty"`
	IncomingWebhook    string `json:"incomingWebhook,omitempty"`
	PollMessageWebhook string `json:"pollMessageWebhook,omitempty"`
	StateWebhook       string `json:"stateWebhook,omitempty"`
	Wid                string `json:"wid,omitempty"`
}

// Phone returns the bare phone number of the bound WhatsApp identity, or ""
// when the instance has not been authorized yet.
func (s InstanceSettings) Phone() string {
	phone, _, _ := strings.Cut(s.Wid, "@")
	return phone
}

// Instance is one GREEN-API account bound to a user. IDInstance is the
// GREEN-API side identifier and stays unique across workspaces.
type Instance struct {
	ID               int64
	IDInstance       int64
	APITokenInstance string
	UserID           int64
	WorkspaceID      int64
	Settings         InstanceSettings
	StateInstance    string
	CreatedAt        time.Time
}
