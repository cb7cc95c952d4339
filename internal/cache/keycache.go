// Package cache holds a single unwrapped master key in memory for a sliding
// time window so that a consumer is not forced to re-request it (and
// re-prompt a user, or re-round-trip a remote key-holder) on every document
// operation.
package cache

import (
	"log/slog"
	"sync"
	"time"

	"github.com/vaultline/lockbox/masterkey"
)

const defaultTimeout = 60 * time.Second

// KeyCache holds a *masterkey.MasterKey for up to timeout since it was last
// touched by Update or Get. Each touch slides the expiry forward; once it
// elapses without a touch the key is zeroized and dropped. A generation
// counter, bumped on every Update and Clear, lets a stale timer callback
// recognize that the key it would expire has already been replaced or
// cleared and must not touch the new one.
type KeyCache struct {
	mu         sync.Mutex
	masterKey  *masterkey.MasterKey
	timeout    time.Duration
	timer      *time.Timer
	generation uint64
	logger     *slog.Logger
}

// NewKeyCache creates an empty KeyCache. defaultTimeout is used by Update
// calls that pass a zero timeout; a nil logger falls back to slog.Default.
func NewKeyCache(timeout time.Duration, logger *slog.Logger) *KeyCache {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &KeyCache{timeout: timeout, logger: logger}
}

// Update stores mk as the cached key and (re)arms the expiry timer. If a
// key was already cached it is zeroized first. A zero timeout keeps the
// cache's configured default.
func (c *KeyCache) Update(mk *masterkey.MasterKey, timeout time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if timeout <= 0 {
		timeout = c.timeout
	}

	if c.masterKey != nil {
		c.masterKey.Close()
	}
	c.masterKey = mk
	c.generation++
	c.rearmLocked(timeout)
}

// Get returns the cached key and slides its expiry forward by the cache's
// configured timeout. ok is false if nothing is cached or it has expired.
func (c *KeyCache) Get() (*masterkey.MasterKey, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.masterKey == nil {
		return nil, false
	}
	c.rearmLocked(c.timeout)
	return c.masterKey, true
}

// Clear drops and zeroizes the cached key immediately, regardless of the
// timer.
func (c *KeyCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearLocked()
}

// Close is an alias for Clear that also stops the underlying timer
// permanently; the KeyCache must not be used afterward.
func (c *KeyCache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.clearLocked()
}

// clearLocked assumes c.mu is held.
func (c *KeyCache) clearLocked() {
	if c.masterKey != nil {
		c.masterKey.Close()
		c.masterKey = nil
	}
	c.generation++
}

// rearmLocked assumes c.mu is held. It cancels any pending timer and starts
// a fresh one tagged with the current generation, so that a callback firing
// after a later Update or Clear has run is a no-op.
func (c *KeyCache) rearmLocked(timeout time.Duration) {
	if c.timer != nil {
		c.timer.Stop()
	}

	gen := c.generation
	c.timer = time.AfterFunc(timeout, func() {
		c.expire(gen)
	})
}

func (c *KeyCache) expire(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		return
	}
	c.logger.Debug("master key cache entry expired")
	c.clearLocked()
}
