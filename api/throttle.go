package main

import (
	"sync"
	"time"
)

const (
	throttleBucketUser = "user"
	throttleBucketAnon = "anon"
)

type throttleEntry struct {
	count   int
	resetAt time.Time
}

// throttler counts requests per (bucket, key) within fixed windows and
// rejects requests once a bucket's budget for the current window is
// spent. Each bucket carries an independent budget. The increment and
// the comparison happen under one lock so concurrent bursts cannot
// undercount.
type throttler struct {
	mu      sync.Mutex
	now     func() time.Time
	window  time.Duration
	rates   map[string]int
	entries map[string]*throttleEntry
}

func newThrottler(window time.Duration, rates map[string]int) *throttler {
	t := &throttler{
		now:     time.Now,
		window:  window,
		rates:   rates,
		entries: make(map[string]*throttleEntry),
	}
	go func(t *throttler) {
		ticker := time.NewTicker(time.Minute)
		for {
			<-ticker.C
			func() {
				t.mu.Lock()
				defer t.mu.Unlock()
				for k, e := range t.entries {
					if t.now().After(e.resetAt) {
						delete(t.entries, k)
					}
				}
			}()
		}
	}(t)
	return t
}

// allow records one request for key in bucket and reports whether it
// fits in the current window. Buckets with no configured rate are never
// throttled.
func (t *throttler) allow(bucket, key string) bool {
	limit, ok := t.rates[bucket]
	if !ok {
		return true
	}
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	k := bucket + ":" + key
	e, ok := t.entries[k]
	if !ok || !now.Before(e.resetAt) {
		e = &throttleEntry{resetAt: now.Add(t.window)}
		t.entries[k] = e
	}
	if e.count >= limit {
		return false
	}
	e.count++
	return true
}
