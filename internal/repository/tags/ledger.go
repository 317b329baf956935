package tags

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/kailas-cloud/streamscout/internal/domain"
)

// Badger key patterns: tag/{namespace}/{name}

func tagKey(ns domain.Namespace, name string) []byte {
	return []byte(fmt.Sprintf("tag/%s/%s", ns, name))
}

func tagPrefix(ns domain.Namespace) []byte {
	return []byte(fmt.Sprintf("tag/%s/", ns))
}

// FindByNames returns the ledger entries matching the given names,
// including soft-deleted ones. Names without an entry are simply absent
// from the result.
func (s *Store) FindByNames(ctx context.Context, ns domain.Namespace, names []string) ([]domain.Tag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	found := make([]domain.Tag, 0, len(names))
	err := s.db.View(func(txn *badger.Txn) error {
		for _, name := range names {
			item, err := txn.Get(tagKey(ns, name))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return fmt.Errorf("get tag %s/%s: %w", ns, name, err)
			}

			var tag domain.Tag
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &tag)
			}); err != nil {
				return fmt.Errorf("decode tag %s/%s: %w", ns, name, err)
			}
			found = append(found, tag)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// SaveTags writes all entries in a single transaction.
func (s *Store) SaveTags(ctx context.Context, tags []domain.Tag) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(tags) == 0 {
		return nil
	}

	return s.db.Update(func(txn *badger.Txn) error {
		for _, tag := range tags {
			data, err := json.Marshal(tag)
			if err != nil {
				return fmt.Errorf("encode tag %s/%s: %w", tag.Namespace, tag.Name, err)
			}
			if err := txn.Set(tagKey(tag.Namespace, tag.Name), data); err != nil {
				return fmt.Errorf("set tag %s/%s: %w", tag.Namespace, tag.Name, err)
			}
		}
		return nil
	})
}

// ListActive returns all non-deleted entries in a namespace.
func (s *Store) ListActive(ctx context.Context, ns domain.Namespace) ([]domain.Tag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var tags []domain.Tag
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		prefix := tagPrefix(ns)
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var tag domain.Tag
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &tag)
			}); err != nil {
				return fmt.Errorf("decode tag %s: %w", it.Item().Key(), err)
			}
			if tag.Deleted {
				continue
			}
			tags = append(tags, tag)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tags, nil
}
