package tags

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

// Store is the durable tag ledger and subscription registry, backed by
// an embedded badger database. Unlike the Redis caches it never expires;
// usage counts and subscriptions survive restarts and cache churn.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) the badger database at path.
// inMemory is for tests.
func Open(path string, inMemory bool, log *zap.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path).
		WithInMemory(inMemory).
		WithLogger(badgerLogger{log: log})
	if inMemory {
		opts = opts.WithDir("").WithValueDir("")
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open ledger at %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close ledger: %w", err)
	}
	return nil
}

// badgerLogger adapts zap to badger's Logger interface.
type badgerLogger struct {
	log *zap.Logger
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Sugar().Errorf(format, args...)
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Sugar().Warnf(format, args...)
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.log.Sugar().Debugf(format, args...)
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.log.Sugar().Debugf(format, args...)
}
