// Package capture arbitrates exclusive access to a user's media stream
// between the camera capture and QR scan views.
package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

var (
	ErrStreamBusy    = errors.New("media stream already held by another view")
	ErrLeaseNotFound = errors.New("media stream lease not found")
	ErrUnknownView   = errors.New("unknown capture view")
)

type View string

const (
	ViewCamera View = "camera"
	ViewQR     View = "qr"
)

func (v View) Valid() bool { return v == ViewCamera || v == ViewQR }

// Lease is the exclusive right of one view to hold the media stream. Its
// context is cancelled when the lease is released or expires.
type Lease struct {
	ID         string    `json:"id"`
	Owner      string    `json:"owner"`
	View       View      `json:"view"`
	AcquiredAt time.Time `json:"acquired_at"`
	ExpiresAt  time.Time `json:"expires_at"`

	ctx    context.Context
	cancel context.CancelFunc
}

func (l *Lease) Context() context.Context { return l.ctx }

// Manager holds at most one lease per owner.
type Manager struct {
	mu     sync.Mutex
	ttl    time.Duration
	leases *cache.Cache
}

func NewManager(ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	c := cache.New(ttl, ttl/2)
	c.OnEvicted(func(_ string, v interface{}) {
		if l, ok := v.(*Lease); ok {
			l.cancel()
		}
	})
	return &Manager{ttl: ttl, leases: c}
}

// Acquire grants owner the stream for view. The current lease must be
// released before another view can acquire.
func (m *Manager) Acquire(parent context.Context, owner string, view View) (*Lease, error) {
	if !view.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownView, view)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if x, found := m.leases.Get(owner); found {
		held := x.(*Lease)
		return nil, fmt.Errorf("%w: %s view holds it", ErrStreamBusy, held.View)
	}
	// drops an expired entry the janitor has not collected yet
	m.leases.Delete(owner)

	ctx, cancel := context.WithCancel(parent)
	now := time.Now()
	l := &Lease{
		ID:         uuid.NewString(),
		Owner:      owner,
		View:       view,
		AcquiredAt: now,
		ExpiresAt:  now.Add(m.ttl),
		ctx:        ctx,
		cancel:     cancel,
	}
	m.leases.Set(owner, l, cache.DefaultExpiration)
	return l, nil
}

// Renew extends the lease expiry. Leases handed out earlier keep the
// expiry they were returned with; a stored lease is never modified.
func (m *Manager) Renew(owner, leaseID string) (*Lease, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, err := m.lookup(owner, leaseID)
	if err != nil {
		return nil, err
	}
	next := *l
	next.ExpiresAt = time.Now().Add(m.ttl)
	m.leases.Set(owner, &next, cache.DefaultExpiration)
	return &next, nil
}

// Release ends the lease and cancels its context.
func (m *Manager) Release(owner, leaseID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.lookup(owner, leaseID); err != nil {
		return err
	}
	m.leases.Delete(owner)
	return nil
}

// ReleaseAll drops every lease held by owner, e.g. on logout.
func (m *Manager) ReleaseAll(owner string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leases.Delete(owner)
}

func (m *Manager) Current(owner string) (*Lease, bool) {
	x, found := m.leases.Get(owner)
	if !found {
		return nil, false
	}
	return x.(*Lease), true
}

func (m *Manager) lookup(owner, leaseID string) (*Lease, error) {
	x, found := m.leases.Get(owner)
	if !found {
		return nil, ErrLeaseNotFound
	}
	l := x.(*Lease)
	if l.ID != leaseID {
		return nil, ErrLeaseNotFound
	}
	return l, nil
}
