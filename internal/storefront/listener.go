package storefront

import (
	"context"
	"encoding/json"
	"errors"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/hugotzc/oasa-backend/internal/entitlements"
	"github.com/hugotzc/oasa-backend/pkg/logger"
)

// Listener refreshes the capability cache when entitlement change events
// arrive, so every API instance converges after a write on any of them.
type Listener struct {
	subscriber *pubsub.Subscriber
	cache      *Cache
	logger     *logger.Logger
}

// NewListener builds a change-event listener. A nil subscriber yields a
// listener whose Run is a no-op, for deployments without Pub/Sub.
func NewListener(subscriber *pubsub.Subscriber, cache *Cache, logg *logger.Logger) (*Listener, error) {
	if cache == nil {
		return nil, errors.New("cache is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &Listener{subscriber: subscriber, cache: cache, logger: logg}, nil
}

// Run blocks receiving events until the context is canceled.
func (l *Listener) Run(ctx context.Context) error {
	if l.subscriber == nil {
		l.logger.Warn(ctx, "no entitlements subscription configured, cache refresh is local only")
		<-ctx.Done()
		return nil
	}
	return l.subscriber.Receive(ctx, func(msgCtx context.Context, msg *pubsub.Message) {
		var event entitlements.ChangeEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			l.logger.Error(msgCtx, "dropping undecodable entitlement event", err)
			msg.Ack()
			return
		}
		if event.ClientID != "" {
			l.cache.Refresh(msgCtx, event.ClientID)
		}
		msg.Ack()
	})
}
