package analyzer

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/penwyp/go-agent-timeline/internal/data/cache"
	"github.com/penwyp/go-agent-timeline/internal/util"
)

// CacheStats accumulates cache outcomes across one analyzer run so a
// final log line can report the hit rate.
type CacheStats struct {
	totalLookups int64
	cacheHits    int64
	cacheMisses  int64
	mu           sync.Mutex
	missDetails  []MissDetail
}

// MissDetail records one cache miss and why it happened.
type MissDetail struct {
	Key    string
	Reason cache.MissReason
}

func NewCacheStats() *CacheStats {
	return &CacheStats{
		missDetails: make([]MissDetail, 0),
	}
}

// Record counts one lookup outcome.
func (cs *CacheStats) Record(key string, reason cache.MissReason) {
	atomic.AddInt64(&cs.totalLookups, 1)
	if reason == cache.MissReasonNone {
		atomic.AddInt64(&cs.cacheHits, 1)
		return
	}
	atomic.AddInt64(&cs.cacheMisses, 1)

	cs.mu.Lock()
	cs.missDetails = append(cs.missDetails, MissDetail{Key: key, Reason: reason})
	cs.mu.Unlock()
}

// GetStats returns the current counters and hit rate.
func (cs *CacheStats) GetStats() (total, hits, misses int64, hitRate float64) {
	total = atomic.LoadInt64(&cs.totalLookups)
	hits = atomic.LoadInt64(&cs.cacheHits)
	misses = atomic.LoadInt64(&cs.cacheMisses)

	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	return
}

// PrintFinalStats logs the run's cache outcome with a per-reason miss
// breakdown.
func (cs *CacheStats) PrintFinalStats() {
	total, hits, misses, hitRate := cs.GetStats()
	if total == 0 {
		return
	}

	util.LogDebug(fmt.Sprintf("Cache statistics: %d lookups, hit rate %.1f%% (%d hits/%d misses)",
		total, hitRate, hits, misses))

	if misses > 0 {
		cs.mu.Lock()
		reasonCounts := make(map[cache.MissReason]int)
		for _, detail := range cs.missDetails {
			reasonCounts[detail.Reason]++
		}
		cs.mu.Unlock()

		for reason, count := range reasonCounts {
			util.LogDebug(fmt.Sprintf("  %s: %d entries", reason, count))
		}
	}
}
