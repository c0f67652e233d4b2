package redis

import (
	"context"
	"log"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a Redis client backed by miniredis so no real
// server is needed.
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to create miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		mr.Close()
		t.Fatalf("Failed to connect to miniredis: %v", err)
	}

	return client, mr
}

func cleanupTestRedis(client *redis.Client, mr *miniredis.Miniredis) {
	if client != nil {
		client.Close()
	}
	if mr != nil {
		mr.Close()
	}
}

func TestLockSlots_AtomicOperation(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer cleanupTestRedis(client, mr)

	r := &Redis{Client: client, Logger: log.Default()}

	date := "2025-06-02"
	slots := []string{"19:00", "20:00"}

	locked, err := r.LockSlots(date, slots, "booking-123")
	require.NoError(t, err)
	assert.True(t, locked, "Should lock all slots successfully")

	// Second attempt on the same interval fails
	locked, err = r.LockSlots(date, slots, "booking-456")
	require.NoError(t, err)
	assert.False(t, locked, "Should not lock already locked slots")

	// A partial overlap fails too, and must not leave the free hour locked
	locked, err = r.LockSlots(date, []string{"20:00", "21:00"}, "booking-789")
	require.NoError(t, err)
	assert.False(t, locked)

	locked, err = r.LockSlots(date, []string{"21:00"}, "booking-789")
	require.NoError(t, err)
	assert.True(t, locked, "Rollback should have released the untaken hour")

	err = r.UnlockSlots(date, slots, "booking-123")
	require.NoError(t, err)

	locked, err = r.LockSlots(date, slots, "booking-456")
	require.NoError(t, err)
	assert.True(t, locked)
}

func TestUnlockSlot_OnlyOwnerReleases(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer cleanupTestRedis(client, mr)

	r := &Redis{Client: client, Logger: log.Default()}

	locked, err := r.LockSlot("2025-06-02", "10:00", "booking-1")
	require.NoError(t, err)
	require.True(t, locked)

	// A different booking cannot release the lock
	require.NoError(t, r.UnlockSlot("2025-06-02", "10:00", "booking-2"))
	locked, err = r.LockSlot("2025-06-02", "10:00", "booking-3")
	require.NoError(t, err)
	assert.False(t, locked)

	// Unlocking an already free slot is a no-op
	require.NoError(t, r.UnlockSlot("2025-06-02", "11:00", "booking-1"))
}

func TestSameSlotDifferentDates(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer cleanupTestRedis(client, mr)

	r := &Redis{Client: client, Logger: log.Default()}

	locked, err := r.LockSlot("2025-06-02", "14:00", "booking-1")
	require.NoError(t, err)
	assert.True(t, locked)

	locked, err = r.LockSlot("2025-06-03", "14:00", "booking-2")
	require.NoError(t, err)
	assert.True(t, locked, "Locks are per date, not per time of day")
}
