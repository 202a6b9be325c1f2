package permcache

import (
	"context"
	"sync"
	"time"

	"github.com/storeops/access-engine/models"
	"go.uber.org/zap"
)

// DenialFetcher loads a role's denied codes from the restriction store
type DenialFetcher interface {
	RoleDenials(ctx context.Context, role models.Role) ([]string, error)
}

// SessionCache holds one session's denial set and keeps it in sync with the
// session's identity. Lookups are synchronous and never block: while a fetch
// is in flight the cache fails open and answers every code as allowed, which
// keeps UI controls visible until real data arrives rather than flashing
// everything hidden.
//
// An identity change starts an asynchronous refetch; a generation counter
// discards results from fetches that were superseded before they finished,
// so a slow fetch for a previous identity can never overwrite the current
// one's data.
type SessionCache struct {
	fetcher      DenialFetcher
	logger       *zap.Logger
	fetchTimeout time.Duration

	mu          sync.RWMutex
	role        models.Role
	hasIdentity bool
	loading     bool
	denied      models.DeniedSet
	err         error
	gen         uint64
}

// NewSessionCache creates a new SessionCache
func NewSessionCache(fetcher DenialFetcher, fetchTimeout time.Duration, logger *zap.Logger) *SessionCache {
	if fetchTimeout <= 0 {
		fetchTimeout = 10 * time.Second
	}
	return &SessionCache{
		fetcher:      fetcher,
		logger:       logger,
		fetchTimeout: fetchTimeout,
		denied:       models.DeniedSet{},
	}
}

// SetIdentity switches the cache to a new identity and starts a refetch.
// Until that fetch completes, lookups answer allowed.
func (c *SessionCache) SetIdentity(role models.Role) {
	c.mu.Lock()
	c.role = role
	c.hasIdentity = true
	c.loading = true
	c.err = nil
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	go c.fetch(gen, role)
}

// Clear drops the identity and its denial set, returning to the initial
// allow-everything state. Used on logout.
func (c *SessionCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.role = ""
	c.hasIdentity = false
	c.loading = false
	c.denied = models.DeniedSet{}
	c.err = nil
	c.gen++
}

// Refetch re-reads the current identity's denials, for callers that know the
// restriction data changed server-side. No-op without an identity.
func (c *SessionCache) Refetch() {
	c.mu.Lock()
	if !c.hasIdentity {
		c.mu.Unlock()
		return
	}
	c.loading = true
	c.gen++
	gen := c.gen
	role := c.role
	c.mu.Unlock()

	go c.fetch(gen, role)
}

// HasPermission reports whether the code is allowed for the cached identity.
// Fails open while loading and after a failed fetch, which empties the
// denial set; Err exposes the failure.
func (c *SessionCache) HasPermission(code string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.loading {
		return true
	}
	if c.hasIdentity && c.role.IsAdministrator() {
		return true
	}
	return !c.denied.Contains(code)
}

// HasAllPermissions reports whether every code is allowed
func (c *SessionCache) HasAllPermissions(codes ...string) bool {
	for _, code := range codes {
		if !c.HasPermission(code) {
			return false
		}
	}
	return true
}

// HasAnyPermission reports whether at least one code is allowed
func (c *SessionCache) HasAnyPermission(codes ...string) bool {
	for _, code := range codes {
		if c.HasPermission(code) {
			return true
		}
	}
	return len(codes) == 0
}

// Loading reports whether a fetch is in flight
func (c *SessionCache) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

// Err returns the error from the most recent completed fetch, nil when it
// succeeded or none has run
func (c *SessionCache) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// Denied returns a snapshot of the current denial set
func (c *SessionCache) Denied() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.denied.Codes()
}

func (c *SessionCache) fetch(gen uint64, role models.Role) {
	var (
		codes    []string
		fetchErr error
	)

	// the administrator's answer never depends on the store
	if !role.IsAdministrator() {
		ctx, cancel := context.WithTimeout(context.Background(), c.fetchTimeout)
		defer cancel()
		codes, fetchErr = c.fetcher.RoleDenials(ctx, role)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// a newer identity or refetch superseded this fetch
	if gen != c.gen {
		return
	}

	c.loading = false
	if fetchErr != nil {
		// fail open: a fetch error must never deny; the error is kept for
		// display only
		c.err = fetchErr
		c.denied = models.DeniedSet{}
		c.logger.Warn("denial fetch failed, failing open",
			zap.String("role", string(role)),
			zap.Error(fetchErr))
		return
	}

	c.err = nil
	c.denied = models.NewDeniedSet(codes)
}
