package legitimacy

import (
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// Watchlist counts, per client fingerprint, how often a request was trusted
// only because no Referer was ever recorded. Counts reset after the window.
type Watchlist struct {
	mu        sync.Mutex
	cache     *ttlcache.Cache[string, int]
	threshold int
}

// NewWatchlist starts a watchlist flagging a fingerprint once it has been
// observed threshold times within window. Call Stop to release it.
func NewWatchlist(window time.Duration, threshold int) *Watchlist {
	if threshold <= 0 {
		threshold = 1
	}
	cache := ttlcache.New(
		ttlcache.WithTTL[string, int](window),
		ttlcache.WithDisableTouchOnHit[string, int](),
	)
	go cache.Start()

	return &Watchlist{cache: cache, threshold: threshold}
}

// Observe records one more hit for fp. It returns the count in the current
// window and whether that count reached the threshold.
func (w *Watchlist) Observe(fp string) (int, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n, ttl := 1, ttlcache.DefaultTTL
	if item := w.cache.Get(fp); item != nil {
		switch remaining := time.Until(item.ExpiresAt()); {
		case item.ExpiresAt().IsZero():
			n = item.Value() + 1
		case remaining > 0:
			n, ttl = item.Value()+1, remaining
		}
	}
	w.cache.Set(fp, n, ttl)
	return n, n >= w.threshold
}

// Count returns the hits recorded for fp in the current window.
func (w *Watchlist) Count(fp string) int {
	if item := w.cache.Get(fp); item != nil {
		return item.Value()
	}
	return 0
}

// Suspicious reports whether fp reached the threshold.
func (w *Watchlist) Suspicious(fp string) bool {
	return w.Count(fp) >= w.threshold
}

// Stop halts the expiry goroutine.
func (w *Watchlist) Stop() {
	w.cache.Stop()
}
