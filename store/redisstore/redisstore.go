// Package redisstore implements gaudit.Store with one Redis list per audited entity.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/mickamy/gaudit"
)

// DefaultKeyPrefix is used when no prefix is given.
const DefaultKeyPrefix = "gaudit"

// Store appends JSON-encoded records to lists keyed by scope and association chain.
type Store struct {
	rdb    redis.Cmdable
	prefix string
}

var _ gaudit.Store = (*Store)(nil)

// New creates a Store on an existing client.
func New(rdb redis.Cmdable, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Store{rdb: rdb, prefix: prefix}
}

// Open parses a redis:// URL, verifies the connection and returns a Store
// together with the client so the caller can close it.
func Open(ctx context.Context, url, prefix string) (*Store, *redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, nil, fmt.Errorf("redisstore: parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redisstore: redis ping failed: %w", err)
	}
	return New(client, prefix), client, nil
}

// Create validates r and appends it to its entity's list.
func (s *Store) Create(ctx context.Context, r *gaudit.Record) error {
	if err := r.Validate(); err != nil {
		return err
	}
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("redisstore: failed to marshal record: %w", err)
	}
	key, err := s.Key(gaudit.Filter{Scope: r.Scope, AssociationChain: r.AssociationChain})
	if err != nil {
		return err
	}
	if err := s.rdb.RPush(ctx, key, b).Err(); err != nil {
		return fmt.Errorf("redisstore: failed to append record: %w", err)
	}
	return nil
}

// Query returns the records of the filter's list, oldest first.
func (s *Store) Query(ctx context.Context, f gaudit.Filter) ([]gaudit.Record, error) {
	key, err := s.Key(f)
	if err != nil {
		return nil, err
	}
	vals, err := s.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redisstore: failed to read records: %w", err)
	}
	out := make([]gaudit.Record, 0, len(vals))
	for _, v := range vals {
		var r gaudit.Record
		if err := json.Unmarshal([]byte(v), &r); err != nil {
			return nil, fmt.Errorf("redisstore: failed to decode record: %w", err)
		}
		out = append(out, r)
	}
	return out, nil
}

// Key returns the list key for a scope and association chain, built from
// their JSON encodings so that distinct filters never share a list,
// e.g. `gaudit:"accounts":[{"id":42,"name":"User"}]`.
func (s *Store) Key(f gaudit.Filter) (string, error) {
	scope, err := json.Marshal(f.Scope)
	if err != nil {
		return "", fmt.Errorf("redisstore: failed to encode scope: %w", err)
	}
	chain := f.AssociationChain
	if chain == nil {
		chain = []gaudit.Association{}
	}
	enc, err := json.Marshal(chain)
	if err != nil {
		return "", fmt.Errorf("redisstore: failed to encode association chain: %w", err)
	}
	return s.prefix + ":" + string(scope) + ":" + string(enc), nil
}
