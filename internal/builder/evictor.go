// evictor.go houses the eviction loop for Sessions.  Every EvictInterval it
// scans the map and removes:
//
//   - sessions idle longer than IdleTTL
//   - least-recently-used sessions when map size exceeds MaxEntries
//
// Each eviction cancels the session's pending auto-save, is logged, and
// updates Prometheus counters.
package builder

import (
	"context"
	"sort"
	"time"

	"github.com/yanizio/adept-forms/internal/metrics"
)

// Run evicts on a ticker until ctx is done or Close is called.
func (r *Sessions) Run(ctx context.Context) {
	t := time.NewTicker(r.opts.EvictInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stop:
			return
		case <-t.C:
			r.Evict()
		}
	}
}

// Evict runs one idle pass and one LRU pass.  It returns how many sessions
// were removed.
func (r *Sessions) Evict() int {
	now := r.opts.Clock.Now().UnixNano()
	var count, evicted int

	// ----------------------------------------------------------------
	// Idle eviction pass
	// ----------------------------------------------------------------
	r.m.Range(func(k, v any) bool {
		idle := time.Duration(now - lastSeen(v.(*Session)))
		if idle > r.opts.IdleTTL {
			if r.remove(k.(string), "idle "+idle.Truncate(time.Second).String()) {
				metrics.BuilderSessionEvictTotal.Inc()
				evicted++
			}
			return true
		}
		count++
		return true
	})

	// ----------------------------------------------------------------
	// LRU eviction pass
	// ----------------------------------------------------------------
	if r.opts.MaxEntries > 0 && count > r.opts.MaxEntries {
		type kv struct {
			key string
			at  int64
		}
		var all []kv
		r.m.Range(func(k, v any) bool {
			all = append(all, kv{key: k.(string), at: lastSeen(v.(*Session))})
			return true
		})
		sort.Slice(all, func(i, j int) bool { return all[i].at < all[j].at })
		for i := 0; i < len(all)-r.opts.MaxEntries; i++ {
			if r.remove(all[i].key, "LRU pressure") {
				metrics.BuilderSessionEvictTotal.Inc()
				evicted++
			}
		}
	}
	return evicted
}
