package idempotency

import (
	"context"
	"time"

	"github.com/flexprice/invoicer/internal/cache"
)

// Response is a successful response remembered for replay
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
	StoredAt    time.Time
}

// Store remembers successful responses by idempotency key
type Store struct {
	cache cache.Cache
	ttl   time.Duration
}

func NewStore(c cache.Cache, ttl time.Duration) *Store {
	return &Store{cache: c, ttl: ttl}
}

func (s *Store) Get(ctx context.Context, key string) (*Response, bool) {
	v, ok := s.cache.Get(ctx, cache.GenerateKey(cache.PrefixIdempotency, key))
	if !ok {
		return nil, false
	}
	resp, ok := v.(*Response)
	return resp, ok
}

func (s *Store) Save(ctx context.Context, key string, resp *Response) {
	if resp.StoredAt.IsZero() {
		resp.StoredAt = time.Now().UTC()
	}
	s.cache.Set(ctx, cache.GenerateKey(cache.PrefixIdempotency, key), resp, s.ttl)
}
