package middleware

import (
	"net/http"
	"sync"
	"time"

	"distriflow/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ipBudget tracks request counts per IP over an hourly and a daily window.
// Both budgets must have room for a request to pass.
type ipBudget struct {
	hourCount int
	hourEnd   time.Time
	dayCount  int
	dayEnd    time.Time
	mu        sync.Mutex
}

var (
	budgetMap   = make(map[string]*ipBudget)
	budgetMapMu sync.Mutex
)

// RateLimiter limits unauthenticated endpoints per client IP. Defaults come
// from config: 50 requests/hour and 200 requests/day.
func RateLimiter(perHour, perDay int) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		budgetMapMu.Lock()
		entry, exists := budgetMap[ip]
		if !exists {
			entry = &ipBudget{}
			budgetMap[ip] = entry
		}
		budgetMapMu.Unlock()

		entry.mu.Lock()
		defer entry.mu.Unlock()

		now := time.Now()
		if now.After(entry.hourEnd) {
			entry.hourCount = 0
			entry.hourEnd = now.Add(time.Hour)
		}
		if now.After(entry.dayEnd) {
			entry.dayCount = 0
			entry.dayEnd = now.Add(24 * time.Hour)
		}

		entry.hourCount++
		entry.dayCount++
		if entry.hourCount > perHour || entry.dayCount > perDay {
			c.Header("Retry-After", entry.hourEnd.Format(time.RFC1123))
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				apierror.RateLimited("Demasiadas solicitudes. Intente nuevamente mas tarde."))
			return
		}
		c.Next()
	}
}

// ── Purge goroutine ───────────────────────────────────────────────────────────
// Periodically removes expired entries so IPs that never return do not
// accumulate forever.

const purgeInterval = 30 * time.Minute

func init() {
	go purgeExpiredBudgets()
}

func purgeExpiredBudgets() {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		budgetMapMu.Lock()
		purged := 0
		for ip, entry := range budgetMap {
			entry.mu.Lock()
			if now.After(entry.dayEnd) {
				delete(budgetMap, ip)
				purged++
			}
			entry.mu.Unlock()
		}
		remaining := len(budgetMap)
		budgetMapMu.Unlock()

		if purged > 0 {
			log.Debug().
				Int("entries_purged", purged).
				Int("entries_remaining", remaining).
				Msg("rate limiter map purged")
		}
	}
}
