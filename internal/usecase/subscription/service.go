package subscription

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/streamscout/internal/domain"
)

// MaxTagsPerSubscriber bounds one subscriber's interest list.
const MaxTagsPerSubscriber = 50

// Service manages subscriber interest lists and delivery settings.
type Service struct {
	store store
}

// New creates a subscription service.
func New(s store) *Service {
	return &Service{store: s}
}

// Replace swaps a subscriber's tag list in one namespace. Names are
// trimmed, lowercased, and deduplicated; subscriptions in the other
// namespace are untouched.
func (s *Service) Replace(ctx context.Context, subscriberID string, ns domain.Namespace, names []string) error {
	if subscriberID == "" {
		return fmt.Errorf("subscriber id is required: %w", domain.ErrValidation)
	}

	cleaned := normalizeNames(names)
	if len(cleaned) > MaxTagsPerSubscriber {
		return fmt.Errorf("at most %d tags per subscriber, got %d: %w",
			MaxTagsPerSubscriber, len(cleaned), domain.ErrValidation)
	}

	existing, err := s.store.ListSubscriptions(ctx, subscriberID)
	if err != nil {
		return fmt.Errorf("list subscriptions: %w", err)
	}

	next := make([]domain.Subscription, 0, len(existing)+len(cleaned))
	for _, sub := range existing {
		if sub.Namespace != ns {
			next = append(next, sub)
		}
	}
	for _, name := range cleaned {
		next = append(next, domain.Subscription{
			SubscriberID: subscriberID,
			TagName:      name,
			Namespace:    ns,
		})
	}

	if err := s.store.ReplaceSubscriptions(ctx, subscriberID, next); err != nil {
		return fmt.Errorf("replace subscriptions: %w", err)
	}
	return nil
}

// List returns a subscriber's tags across both namespaces, sorted for a
// stable API surface.
func (s *Service) List(ctx context.Context, subscriberID string) ([]domain.Subscription, error) {
	subs, err := s.store.ListSubscriptions(ctx, subscriberID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}

	sort.Slice(subs, func(i, j int) bool {
		if subs[i].Namespace != subs[j].Namespace {
			return subs[i].Namespace < subs[j].Namespace
		}
		return subs[i].TagName < subs[j].TagName
	})
	return subs, nil
}

// SetNotifications toggles a subscriber's delivery opt-in. An unknown
// subscriber is created with the requested setting.
func (s *Service) SetNotifications(ctx context.Context, subscriberID string, enabled bool) error {
	sub, err := s.store.GetSubscriber(ctx, subscriberID)
	if err != nil && !errors.Is(err, domain.ErrSubscriberNotFound) {
		return fmt.Errorf("get subscriber: %w", err)
	}

	sub.ID = subscriberID
	sub.NotificationsEnabled = enabled
	if err := s.store.SaveSubscriber(ctx, sub); err != nil {
		return fmt.Errorf("save subscriber: %w", err)
	}
	return nil
}

func normalizeNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
