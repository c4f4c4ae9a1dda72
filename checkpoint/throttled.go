package checkpoint

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// ThrottledStore paces writes to an inner Store.
//
// The trainer's checkpoint interval is derived from dataset and batch size
// and can become very small for tiny datasets; wrapping a remote store in a
// ThrottledStore keeps that from hammering object storage. Writes block until
// the limiter grants a slot (or the context is canceled); reads pass through
// untouched.
type ThrottledStore struct {
	inner   Store
	limiter *rate.Limiter
}

// NewThrottledStore wraps inner so that at most one write per minInterval is
// admitted, with a burst of one.
func NewThrottledStore(inner Store, minInterval time.Duration) *ThrottledStore {
	return &ThrottledStore{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Every(minInterval), 1),
	}
}

// Put waits for the rate limiter, then delegates to the inner store.
func (s *ThrottledStore) Put(ctx context.Context, name string, data []byte) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	return s.inner.Put(ctx, name, data)
}

// Open delegates to the inner store.
func (s *ThrottledStore) Open(ctx context.Context, name string) (Blob, error) {
	return s.inner.Open(ctx, name)
}

// Delete delegates to the inner store.
func (s *ThrottledStore) Delete(ctx context.Context, name string) error {
	return s.inner.Delete(ctx, name)
}

// List delegates to the inner store.
func (s *ThrottledStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}
