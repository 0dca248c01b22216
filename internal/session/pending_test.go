package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingAddRejectsDuplicate(t *testing.T) {
	p := newPendingTable(time.Hour)
	defer p.stop()

	require.True(t, p.add("corr-1"))
	assert.False(t, p.add("corr-1"), "second add for the same key must be rejected")
	assert.True(t, p.add("corr-2"))
}

func TestPendingResolveStopsTimer(t *testing.T) {
	p := newPendingTable(30 * time.Millisecond)
	defer p.stop()

	require.True(t, p.add("corr-1"))
	assert.True(t, p.resolve("corr-1"))
	assert.False(t, p.resolve("corr-1"), "resolved key cannot resolve twice")

	select {
	case key := <-p.Fires():
		t.Fatalf("resolved key %q still fired", key)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestPendingFiresAfterTimeout(t *testing.T) {
	p := newPendingTable(20 * time.Millisecond)
	defer p.stop()

	require.True(t, p.add("corr-1"))

	select {
	case key := <-p.Fires():
		assert.Equal(t, "corr-1", key)
		assert.True(t, p.expired(key))
		assert.False(t, p.expired(key), "expiry is consumed exactly once")
	case <-time.After(time.Second):
		t.Fatal("timeout never fired")
	}

	assert.True(t, p.add("corr-1"), "key is reusable after it expired")
}

func TestPendingFireAfterResolveIsStale(t *testing.T) {
	p := newPendingTable(time.Hour)
	defer p.stop()

	require.True(t, p.add("corr-1"))
	require.True(t, p.resolve("corr-1"))
	assert.False(t, p.expired("corr-1"))
}

func TestTypeKey(t *testing.T) {
	assert.Equal(t, "type:authorization:authorize", typeKey("authorization:authorize"))
}
