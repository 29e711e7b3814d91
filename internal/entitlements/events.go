package entitlements

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
)

// Event kinds published on the entitlements topic.
const (
	EventOverrideUpdated = "entitlement.override_updated"
	EventPlanChanged     = "entitlement.plan_changed"
)

// ChangeEvent notifies other instances that a client's entitlements moved.
type ChangeEvent struct {
	Kind       string    `json:"kind"`
	ClientID   string    `json:"client_id"`
	FeatureKey string    `json:"feature_key,omitempty"`
	PlanKey    string    `json:"plan_key,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventPublisher broadcasts entitlement change events.
type EventPublisher interface {
	PublishChange(ctx context.Context, event ChangeEvent) error
}

// pubsubPublisher adapts a Pub/Sub publisher handle to EventPublisher.
type pubsubPublisher struct {
	publisher *pubsub.Publisher
}

// NewPubSubPublisher wraps the topic publisher for entitlement events.
func NewPubSubPublisher(publisher *pubsub.Publisher) EventPublisher {
	return &pubsubPublisher{publisher: publisher}
}

func (p *pubsubPublisher) PublishChange(ctx context.Context, event ChangeEvent) error {
	if p == nil || p.publisher == nil {
		return nil
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal change event: %w", err)
	}
	result := p.publisher.Publish(ctx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"kind":      event.Kind,
			"client_id": event.ClientID,
		},
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish change event: %w", err)
	}
	return nil
}
