package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/greenbridge/rocketchat-bridge/internal/biz/domain"
	"github.com/greenbridge/rocketchat-bridge/internal/biz/repo"
)

// StateSync mirrors GREEN-API connectivity state changes onto the stored
// instance record. Instance state is mutated only through these webhooks.
type StateSync struct {
	instances repo.InstanceRepo
	log       zerolog.Logger
}

// NewStateSync creates a StateSync.
func NewStateSync(instances repo.InstanceRepo, log zerolog.Logger) *StateSync {
	return &StateSync{
		instances: instances,
		log:       log.With().Str("component", "statesync").Logger(),
	}
}

// Handle applies a stateInstanceChanged webhook. Unknown instances are
// ignored: the webhook may arrive before create-instance completed or after
// remove-instance.
func (s *StateSync) Handle(ctx context.Context, webhook *domain.GreenAPIWebhook) error {
	instance, err := s.instances.GetByIDInstance(ctx, webhook.InstanceData.IDInstance)
	if err != nil {
		return err
	}
	if instance == nil {
		s.log.Debug().Int64("idInstance", webhook.InstanceData.IDInstance).Msg("state change for unknown instance, ignoring")
		return nil
	}

	wid := webhook.InstanceData.Wid
	if wid == "" {
		wid = instance.Settings.Wid
	}

	s.log.Info().
		Int64("idInstance", instance.IDInstance).
		Str("state", webhook.StateInstance).
		Msg("instance state changed")

	return s.instances.UpdateState(ctx, instance.IDInstance, wid, webhook.StateInstance)
}
