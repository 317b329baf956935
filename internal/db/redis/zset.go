package redis

import (
	"context"

	"github.com/kailas-cloud/streamscout/internal/db"
)

// ZAdd inserts members into a sorted set with score 0, so the set can
// be range-scanned lexicographically via ZRANGEBYLEX.
func (s *Store) ZAdd(ctx context.Context, key string, members []string) error {
	if len(members) == 0 {
		return nil
	}

	cmd := s.b().Zadd().Key(key).ScoreMember()
	for _, m := range members {
		cmd = cmd.ScoreMember(0, m)
	}
	if err := s.do(ctx, cmd.Build()).Error(); err != nil {
		return &db.Error{Op: db.OpZAdd, Err: err}
	}
	return nil
}

// ZRangeByLex returns up to count members in the lexicographic range
// [min, max]. Bounds use Redis lex syntax ("[prefix", "(prefix", "-", "+").
func (s *Store) ZRangeByLex(ctx context.Context, key, min, max string, count int) ([]string, error) {
	cmd := s.b().Zrangebylex().Key(key).Min(min).Max(max).Limit(0, int64(count)).Build()
	members, err := s.do(ctx, cmd).AsStrSlice()
	if err != nil {
		return nil, &db.Error{Op: db.OpZRangeByLex, Err: err}
	}
	return members, nil
}
