package tags

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/kailas-cloud/streamscout/internal/domain"
)

// Badger key patterns:
//
//	sub/{subscriberID}/{namespace}/{name}       subscription record
//	subidx/{namespace}/{name}/{subscriberID}    reverse index for fan-out
//	subscriber/{subscriberID}                   subscriber settings
func subKey(subscriberID string, ns domain.Namespace, name string) []byte {
	return []byte(fmt.Sprintf("sub/%s/%s/%s", subscriberID, ns, name))
}

func subPrefix(subscriberID string) []byte {
	return []byte(fmt.Sprintf("sub/%s/", subscriberID))
}

func subIdxKey(ns domain.Namespace, name, subscriberID string) []byte {
	return []byte(fmt.Sprintf("subidx/%s/%s/%s", ns, name, subscriberID))
}

func subIdxPrefix(ns domain.Namespace, name string) []byte {
	return []byte(fmt.Sprintf("subidx/%s/%s/", ns, name))
}

func subscriberKey(id string) []byte {
	return []byte("subscriber/" + id)
}

// ReplaceSubscriptions swaps a subscriber's tag list in one transaction,
// keeping the reverse index in sync. A subscriber record is created on
// first use with notifications enabled.
func (s *Store) ReplaceSubscriptions(ctx context.Context, subscriberID string, subs []domain.Subscription) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		old, err := collectSubscriptions(txn, subscriberID)
		if err != nil {
			return err
		}
		for _, sub := range old {
			if err := txn.Delete(subKey(subscriberID, sub.Namespace, sub.TagName)); err != nil {
				return fmt.Errorf("delete subscription: %w", err)
			}
			if err := txn.Delete(subIdxKey(sub.Namespace, sub.TagName, subscriberID)); err != nil {
				return fmt.Errorf("delete subscription index: %w", err)
			}
		}

		for _, sub := range subs {
			sub.SubscriberID = subscriberID
			data, err := json.Marshal(sub)
			if err != nil {
				return fmt.Errorf("encode subscription: %w", err)
			}
			if err := txn.Set(subKey(subscriberID, sub.Namespace, sub.TagName), data); err != nil {
				return fmt.Errorf("set subscription: %w", err)
			}
			if err := txn.Set(subIdxKey(sub.Namespace, sub.TagName, subscriberID), nil); err != nil {
				return fmt.Errorf("set subscription index: %w", err)
			}
		}

		_, err = txn.Get(subscriberKey(subscriberID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return putSubscriber(txn, domain.Subscriber{ID: subscriberID, NotificationsEnabled: true})
		}
		if err != nil {
			return fmt.Errorf("get subscriber %s: %w", subscriberID, err)
		}
		return nil
	})
}

// ListSubscriptions returns all subscriptions of one subscriber.
func (s *Store) ListSubscriptions(ctx context.Context, subscriberID string) ([]domain.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var subs []domain.Subscription
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		subs, err = collectSubscriptions(txn, subscriberID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return subs, nil
}

// SubscribersByTag returns the IDs of all subscribers of one tag via the
// reverse index.
func (s *Store) SubscribersByTag(ctx context.Context, ns domain.Namespace, name string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var ids []string
	prefix := subIdxPrefix(ns, name)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := string(it.Item().Key())
			ids = append(ids, key[len(prefix):])
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// GetSubscriber returns a subscriber record.
// Returns domain.ErrSubscriberNotFound when absent.
func (s *Store) GetSubscriber(ctx context.Context, id string) (domain.Subscriber, error) {
	if err := ctx.Err(); err != nil {
		return domain.Subscriber{}, err
	}

	var sub domain.Subscriber
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(subscriberKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return domain.ErrSubscriberNotFound
		}
		if err != nil {
			return fmt.Errorf("get subscriber %s: %w", id, err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &sub)
		})
	})
	if err != nil {
		return domain.Subscriber{}, err
	}
	return sub, nil
}

// SaveSubscriber upserts a subscriber record.
func (s *Store) SaveSubscriber(ctx context.Context, sub domain.Subscriber) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return putSubscriber(txn, sub)
	})
}

func putSubscriber(txn *badger.Txn, sub domain.Subscriber) error {
	data, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("encode subscriber %s: %w", sub.ID, err)
	}
	if err := txn.Set(subscriberKey(sub.ID), data); err != nil {
		return fmt.Errorf("set subscriber %s: %w", sub.ID, err)
	}
	return nil
}

func collectSubscriptions(txn *badger.Txn, subscriberID string) ([]domain.Subscription, error) {
	var subs []domain.Subscription
	prefix := subPrefix(subscriberID)

	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix

	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		var sub domain.Subscription
		if err := it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &sub)
		}); err != nil {
			key := string(it.Item().Key())
			return nil, fmt.Errorf("decode subscription %s: %w", key, err)
		}
		subs = append(subs, sub)
	}

	return subs, nil
}
