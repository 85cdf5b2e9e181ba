package capture

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOnlyOneViewHoldsTheStream(t *testing.T) {
	m := NewManager(time.Minute)

	camera, err := m.Acquire(context.Background(), "user-1", ViewCamera)
	require.NoError(t, err)

	_, err = m.Acquire(context.Background(), "user-1", ViewQR)
	assert.ErrorIs(t, err, ErrStreamBusy)

	other, err := m.Acquire(context.Background(), "user-2", ViewQR)
	require.NoError(t, err)
	assert.NotEqual(t, camera.ID, other.ID)

	require.NoError(t, m.Release("user-1", camera.ID))
	assert.ErrorIs(t, camera.Context().Err(), context.Canceled)

	qr, err := m.Acquire(context.Background(), "user-1", ViewQR)
	require.NoError(t, err)
	assert.Equal(t, ViewQR, qr.View)
	assert.NoError(t, qr.Context().Err())
}

func TestReleaseRequiresMatchingLease(t *testing.T) {
	m := NewManager(time.Minute)
	l, err := m.Acquire(context.Background(), "user-1", ViewCamera)
	require.NoError(t, err)

	assert.ErrorIs(t, m.Release("user-1", "not-a-lease"), ErrLeaseNotFound)
	assert.ErrorIs(t, m.Release("user-2", l.ID), ErrLeaseNotFound)
	assert.NoError(t, l.Context().Err())

	require.NoError(t, m.Release("user-1", l.ID))
	assert.ErrorIs(t, m.Release("user-1", l.ID), ErrLeaseNotFound)
}

func TestExpiredLeaseIsCancelled(t *testing.T) {
	m := NewManager(20 * time.Millisecond)
	l, err := m.Acquire(context.Background(), "user-1", ViewCamera)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return l.Context().Err() != nil
	}, time.Second, 5*time.Millisecond)

	_, err = m.Acquire(context.Background(), "user-1", ViewQR)
	assert.NoError(t, err)
}

func TestParentCancellationEndsLease(t *testing.T) {
	m := NewManager(time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	l, err := m.Acquire(ctx, "user-1", ViewQR)
	require.NoError(t, err)

	cancel()
	assert.ErrorIs(t, l.Context().Err(), context.Canceled)
}

func TestRenewDoesNotTouchHandedOutLeases(t *testing.T) {
	m := NewManager(time.Minute)
	l, err := m.Acquire(context.Background(), "user-1", ViewCamera)
	require.NoError(t, err)
	firstExpiry := l.ExpiresAt

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			_, err := m.Renew("user-1", l.ID)
			assert.NoError(t, err)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			cur, ok := m.Current("user-1")
			if assert.True(t, ok) {
				_, err := json.Marshal(cur)
				assert.NoError(t, err)
			}
		}
	}()
	wg.Wait()

	assert.Equal(t, firstExpiry, l.ExpiresAt)
	cur, ok := m.Current("user-1")
	require.True(t, ok)
	assert.Equal(t, l.ID, cur.ID)
	assert.False(t, cur.ExpiresAt.Before(firstExpiry))

	// renewal keeps the original stream context
	require.NoError(t, m.Release("user-1", l.ID))
	assert.ErrorIs(t, l.Context().Err(), context.Canceled)
}

func TestUnknownView(t *testing.T) {
	_, err := NewManager(time.Minute).Acquire(context.Background(), "user-1", View("microphone"))
	assert.ErrorIs(t, err, ErrUnknownView)
}

func TestPermissionMessage(t *testing.T) {
	tests := map[string]string{
		ReasonNotAllowed:       "Camera access denied. Please allow camera permissions and try again.",
		ReasonNotFound:         "No camera found on this device.",
		"OverconstrainedError": "Unable to access camera. Please check your device settings.",
		"":                     "Unable to access camera. Please check your device settings.",
	}
	for reason, want := range tests {
		assert.Equal(t, want, PermissionMessage(reason), reason)
	}
}
