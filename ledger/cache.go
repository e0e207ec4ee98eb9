package ledger

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"coinbot/models"
)

type cacheEntry struct {
	account   models.Account
	expiresAt time.Time
}

// AccountCache holds recently read or written accounts for a fixed TTL
type AccountCache struct {
	data          map[int64]cacheEntry
	mutex         sync.RWMutex
	ttl           time.Duration
	cleanupTicker *time.Ticker
	done          chan struct{}
	closeOnce     sync.Once
}

// NewAccountCache starts a cache whose expired entries are swept every cleanupEvery
func NewAccountCache(ttl, cleanupEvery time.Duration) *AccountCache {
	c := &AccountCache{
		data: make(map[int64]cacheEntry),
		ttl:  ttl,
		done: make(chan struct{}),
	}
	c.cleanupTicker = time.NewTicker(cleanupEvery)
	go c.cleanupRoutine()
	return c
}

// Close stops the cleanup routine
func (c *AccountCache) Close() {
	c.closeOnce.Do(func() {
		c.cleanupTicker.Stop()
		close(c.done)
	})
}

// Get returns a copy of the cached account
func (c *AccountCache) Get(userID int64) (*models.Account, bool) {
	c.mutex.RLock()
	entry, exists := c.data[userID]
	c.mutex.RUnlock()

	if !exists {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		c.Delete(userID)
		return nil, false
	}
	return copyAccount(&entry.account), true
}

// Set stores a copy of acc and extends its expiry
func (c *AccountCache) Set(acc *models.Account) {
	if acc == nil {
		return
	}
	entry := cacheEntry{account: *copyAccount(acc), expiresAt: time.Now().Add(c.ttl)}

	c.mutex.Lock()
	c.data[acc.UserID] = entry
	c.mutex.Unlock()
}

func (c *AccountCache) Delete(userID int64) {
	c.mutex.Lock()
	delete(c.data, userID)
	c.mutex.Unlock()
}

func (c *AccountCache) cleanupRoutine() {
	for {
		select {
		case <-c.cleanupTicker.C:
			c.cleanup()
		case <-c.done:
			return
		}
	}
}

func (c *AccountCache) cleanup() {
	now := time.Now()
	removed := 0

	c.mutex.Lock()
	for userID, entry := range c.data {
		if now.After(entry.expiresAt) {
			delete(c.data, userID)
			removed++
		}
	}
	size := len(c.data)
	c.mutex.Unlock()

	if removed > 0 {
		log.Debug().Int("removed", removed).Int("size", size).Msg("cleaned up expired account cache entries")
	}
}
