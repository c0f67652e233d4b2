package redis

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// Redis holds short-lived slot locks taken between availability check and
// booking persistence. The lock is what closes the race where two clients
// submit the same slot at once; the TTL guarantees an abandoned submission
// frees the slot again.
type Redis struct {
	Client *redis.Client
	Logger *log.Logger
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{
		Client: client,
		Logger: log.Default(),
	}
}

func slotKey(date, slot string) string {
	return fmt.Sprintf("slot_lock:%s:%s", date, slot)
}

func (r *Redis) getSlotLockDuration() time.Duration {
	defaultDuration := 5 * time.Minute

	lockTTLStr := os.Getenv("SLOT_LOCK_TTL_MINUTES")
	if lockTTLStr == "" {
		return defaultDuration
	}

	lockTTLMin, err := strconv.Atoi(lockTTLStr)
	if err != nil {
		r.Logger.Println("REDIS: Invalid SLOT_LOCK_TTL_MINUTES value '" + lockTTLStr + "', using default 5 minutes")
		return defaultDuration
	}

	return time.Duration(lockTTLMin) * time.Minute
}

// LockSlot locks one hourly slot on a date for a booking attempt.
func (r *Redis) LockSlot(date, slot, bookingID string) (bool, error) {
	ok, err := r.Client.SetNX(context.Background(), slotKey(date, slot), bookingID, r.getSlotLockDuration()).Result()
	return ok, err
}

// UnlockSlot releases a slot, but only if this booking attempt holds it.
func (r *Redis) UnlockSlot(date, slot, bookingID string) error {
	ctx := context.Background()
	key := slotKey(date, slot)
	val, err := r.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil // already unlocked
	}
	if err != nil {
		return err
	}
	if val == bookingID {
		_, err := r.Client.Del(ctx, key).Result()
		return err
	}
	return nil
}

// LockSlots locks every hour of a booking interval, rolling back the ones
// already taken if any single hour is held by another attempt.
func (r *Redis) LockSlots(date string, slots []string, bookingID string) (bool, error) {
	locked := []string{}
	for _, slot := range slots {
		ok, err := r.LockSlot(date, slot, bookingID)
		if err != nil {
			for _, l := range locked {
				_ = r.UnlockSlot(date, l, bookingID)
			}
			return false, err
		}
		if !ok {
			for _, l := range locked {
				_ = r.UnlockSlot(date, l, bookingID)
			}
			return false, nil
		}
		locked = append(locked, slot)
	}
	return true, nil
}

// UnlockSlots releases every hour of a booking interval.
func (r *Redis) UnlockSlots(date string, slots []string, bookingID string) error {
	var firstErr error
	for _, slot := range slots {
		err := r.UnlockSlot(date, slot, bookingID)
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
