package pep

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dotrongnhan/xacml-pdp/model"
)

// DecisionCache caches AuthzDecisions keyed by request content, so a PEP
// sitting in front of a hot path doesn't re-run the full policy tree for
// an identical (subject, resource, action, environment, policy) tuple
// within its TTL.
type DecisionCache struct {
	cache   map[string]*cacheEntry
	maxSize int
	ttl     time.Duration
	mu      sync.RWMutex
	stats   CacheStats
}

type cacheEntry struct {
	decision  *model.AuthzDecision
	timestamp time.Time
	hits      int64
}

// CacheStats holds cache performance statistics.
type CacheStats struct {
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Evictions int64   `json:"evictions"`
	Size      int     `json:"size"`
	HitRatio  float64 `json:"hit_ratio"`
}

// NewDecisionCache creates a decision cache with the given capacity and TTL.
func NewDecisionCache(maxSize int, ttl time.Duration) *DecisionCache {
	cache := &DecisionCache{
		cache:   make(map[string]*cacheEntry),
		maxSize: maxSize,
		ttl:     ttl,
	}
	go cache.cleanup()
	return cache
}

// Get retrieves a cached decision for req, or nil on a miss or expiry. It
// takes the write lock, not a read lock, because a hit also updates the
// entry's hit count (which eviction uses) and the cache's hit/miss
// counters.
func (c *DecisionCache) Get(req *model.AuthzRequest) *model.AuthzDecision {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(req)
	entry, exists := c.cache[key]
	if !exists {
		c.stats.Misses++
		return nil
	}
	if time.Since(entry.timestamp) > c.ttl {
		c.stats.Misses++
		return nil
	}

	entry.hits++
	c.stats.Hits++
	decision := *entry.decision
	return &decision
}

// Set stores decision for req, first evicting the entry with the fewest
// hits (the oldest-inserted one among ties) if the cache is at capacity.
// Eviction does not track recency of access.
func (c *DecisionCache) Set(req *model.AuthzRequest, decision *model.AuthzDecision) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(req)
	if len(c.cache) >= c.maxSize {
		c.evictLRU()
	}
	c.cache[key] = &cacheEntry{decision: decision, timestamp: time.Now()}
	c.stats.Size = len(c.cache)
}

// cacheKey hashes the parts of req that can affect the decision.
// RootPolicy is deliberately excluded from the JSON payload and instead
// identified by its principal id: the tree itself is immutable for the
// service lifetime, so the id is a stable proxy for "which policy was
// evaluated".
func cacheKey(req *model.AuthzRequest) string {
	keyData := struct {
		Subject     *model.Subject     `json:"subject"`
		Resource    *model.Resource    `json:"resource"`
		Action      *model.Action      `json:"action"`
		Environment *model.Environment `json:"environment"`
		PolicyID    string             `json:"policy_id"`
	}{
		Subject:     req.Subject,
		Resource:    req.Resource,
		Action:      req.Action,
		Environment: req.Environment,
	}
	if req.RootPolicy != nil {
		keyData.PolicyID = req.RootPolicy.PrincipleID()
	}

	data, _ := json.Marshal(keyData)
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash)
}

func (c *DecisionCache) evictLRU() {
	var oldestKey string
	var oldestTime time.Time
	var minHits int64 = -1

	for key, entry := range c.cache {
		if minHits == -1 || entry.hits < minHits ||
			(entry.hits == minHits && entry.timestamp.Before(oldestTime)) {
			oldestKey = key
			oldestTime = entry.timestamp
			minHits = entry.hits
		}
	}
	if oldestKey != "" {
		delete(c.cache, oldestKey)
		c.stats.Evictions++
	}
}

func (c *DecisionCache) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		now := time.Now()
		for key, entry := range c.cache {
			if now.Sub(entry.timestamp) > c.ttl {
				delete(c.cache, key)
			}
		}
		c.stats.Size = len(c.cache)
		c.mu.Unlock()
	}
}

// Stats returns a snapshot of cache performance counters.
func (c *DecisionCache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := c.stats
	stats.Size = len(c.cache)
	if total := stats.Hits + stats.Misses; total > 0 {
		stats.HitRatio = float64(stats.Hits) / float64(total)
	}
	return stats
}

// Clear removes every cached entry.
func (c *DecisionCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]*cacheEntry)
	c.stats = CacheStats{}
}
