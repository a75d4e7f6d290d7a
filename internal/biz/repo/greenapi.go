package repo

import (
	"context"

	"github.com/greenbridge/rocketchat-bridge/internal/biz/domain"
)

// GreenAPIRepo talks to the GREEN-API REST API on behalf of one instance.
// Implementations authenticate with the instance's id/token pair.
type GreenAPIRepo interface {
	// GetWaSettings fetches the instance's live settings (bound phone,
	// connectivity state).
	GetWaSettings(ctx context.Context, idInstance int64, apiToken string) (*domain.WaSettings, error)

	// SetSettings pushes webhook settings to the instance.
	SetSettings(ctx context.Context, idInstance int64, apiToken string, settings domain.InstanceSettings) error

	// SendText sends a text message, optionally quoting a prior message.
	SendText(ctx context.Context, idInstance int64, apiToken string, msg domain.TextDispatch) error

	// SendFileByURL sends a file message by public URL.
	SendFileByURL(ctx context.Context, idInstance int64, apiToken string, msg domain.FileDispatch) error
}
