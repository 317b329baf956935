package notify

import (
	"context"
	"errors"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/streamscout/internal/domain"
	"github.com/kailas-cloud/streamscout/internal/logger"
	"github.com/kailas-cloud/streamscout/internal/metrics"
)

// Service fans changed-stream notifications out to subscribers. Each
// subscriber receives at most one message per cycle, listing every
// matched stream exactly once. Dispatch failures are per-subscriber and
// never propagate.
type Service struct {
	subs      subscriptionStore
	transport transport
}

// New creates a notification service.
func New(subs subscriptionStore, t transport) *Service {
	return &Service{subs: subs, transport: t}
}

// Notify matches the changed streams against subscriptions and
// dispatches one deduplicated message per enabled subscriber. It blocks
// until all sends finish; run it in a goroutine for async delivery.
func (s *Service) Notify(ctx context.Context, changed map[string]struct{}, streams []domain.EnrichedStream) {
	log := logger.FromContext(ctx)

	perSubscriber := s.collectMatches(ctx, changed, streams)
	if len(perSubscriber) == 0 {
		return
	}

	var wg sync.WaitGroup
	for subscriberID, matched := range perSubscriber {
		enabled, err := s.isEnabled(ctx, subscriberID)
		if err != nil {
			log.Warn("subscriber lookup failed",
				zap.String("subscriber_id", subscriberID),
				zap.Error(err),
			)
			continue
		}
		if !enabled {
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.transport.Send(ctx, subscriberID, matched); err != nil {
				metrics.NotificationsTotal.WithLabelValues("error").Inc()
				log.Warn("notification dispatch failed",
					zap.String("subscriber_id", subscriberID),
					zap.Error(err),
				)
				return
			}
			metrics.NotificationsTotal.WithLabelValues("sent").Inc()
		}()
	}
	wg.Wait()
}

// collectMatches builds the deduplicated per-subscriber stream sets.
// A stream matches a subscriber through its category (category
// namespace) or any of its derived tags (custom namespace).
func (s *Service) collectMatches(
	ctx context.Context, changed map[string]struct{}, streams []domain.EnrichedStream,
) map[string][]domain.EnrichedStream {
	log := logger.FromContext(ctx)

	// memoize reverse-index lookups; many streams share tags
	type tagKey struct {
		ns   domain.Namespace
		name string
	}
	subscriberCache := make(map[tagKey][]string)

	lookup := func(ns domain.Namespace, name string) []string {
		if name == "" {
			return nil
		}
		key := tagKey{ns, name}
		if ids, ok := subscriberCache[key]; ok {
			return ids
		}
		ids, err := s.subs.SubscribersByTag(ctx, ns, name)
		if err != nil {
			log.Warn("subscription lookup failed",
				zap.String("namespace", string(ns)),
				zap.String("tag", name),
				zap.Error(err),
			)
			ids = nil
		}
		subscriberCache[key] = ids
		return ids
	}

	seen := make(map[string]map[string]struct{})
	matched := make(map[string][]domain.EnrichedStream)

	add := func(subscriberID string, stream domain.EnrichedStream) {
		if seen[subscriberID] == nil {
			seen[subscriberID] = make(map[string]struct{})
		}
		if _, dup := seen[subscriberID][stream.ChannelID]; dup {
			return
		}
		seen[subscriberID][stream.ChannelID] = struct{}{}
		matched[subscriberID] = append(matched[subscriberID], stream)
	}

	for _, stream := range streams {
		if _, ok := changed[stream.ChannelID]; !ok {
			continue
		}

		for _, id := range lookup(domain.NamespaceCategory, stream.Category) {
			add(id, stream)
		}
		for _, tag := range stream.AITags {
			for _, id := range lookup(domain.NamespaceCustom, tag) {
				add(id, stream)
			}
		}
	}

	for id := range matched {
		sort.Slice(matched[id], func(i, j int) bool {
			return matched[id][i].ChannelID < matched[id][j].ChannelID
		})
	}
	return matched
}

func (s *Service) isEnabled(ctx context.Context, subscriberID string) (bool, error) {
	sub, err := s.subs.GetSubscriber(ctx, subscriberID)
	if errors.Is(err, domain.ErrSubscriberNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return sub.NotificationsEnabled, nil
}
