package notify

import (
	"context"

	"github.com/kailas-cloud/streamscout/internal/domain"
)

// subscriptionStore resolves tags to interested subscribers (ISP).
type subscriptionStore interface {
	SubscribersByTag(ctx context.Context, ns domain.Namespace, name string) ([]string, error)
	GetSubscriber(ctx context.Context, id string) (domain.Subscriber, error)
}

// transport delivers one subscriber's notification, best effort.
type transport interface {
	Send(ctx context.Context, subscriberID string, streams []domain.EnrichedStream) error
}
