package subscription

import (
	"context"

	"github.com/kailas-cloud/streamscout/internal/domain"
)

// store is the durable subscription registry (ISP).
type store interface {
	ReplaceSubscriptions(ctx context.Context, subscriberID string, subs []domain.Subscription) error
	ListSubscriptions(ctx context.Context, subscriberID string) ([]domain.Subscription, error)
	GetSubscriber(ctx context.Context, id string) (domain.Subscriber, error)
	SaveSubscriber(ctx context.Context, sub domain.Subscriber) error
}
