package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"github.com/rl1809/asset-vault/internal/core/domain"
)

const (
	forestKeyPrefix   = "forest:"
	lockKeyPrefix     = "lock:owner:"
	idempotencyKeyTTL = 24 * time.Hour
	forestTTL         = 7 * 24 * time.Hour
)

// storeForestScript writes the snapshot unless a newer version is stored.
var storeForestScript = redis.NewScript(`
local key = KEYS[1]
local version = tonumber(ARGV[1])

local current = redis.call('HGET', key, 'version')
if current and tonumber(current) > version then
	return 0
end

redis.call('HSET', key, 'version', ARGV[1], 'data', ARGV[2])
redis.call('PEXPIRE', key, ARGV[3])
return 1
`)

type RedisAdapter struct {
	client *redis.Client
	locker *redislock.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{
		client: client,
		locker: redislock.New(client),
	}
}

func (r *RedisAdapter) SetIdempotency(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, key, 1, idempotencyKeyTTL).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

func (r *RedisAdapter) ReleaseIdempotency(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *RedisAdapter) StoreForest(ctx context.Context, ownerID int64, version int, forest domain.Forest) (bool, error) {
	data, err := encodeForest(forest)
	if err != nil {
		return false, err
	}

	key := forestKey(ownerID)
	result, err := storeForestScript.Run(ctx, r.client, []string{key}, version, data, forestTTL.Milliseconds()).Int()
	if err != nil {
		return false, err
	}

	return result == 1, nil
}

func (r *RedisAdapter) LoadForest(ctx context.Context, ownerID int64) (domain.Forest, int, bool, error) {
	fields, err := r.client.HMGet(ctx, forestKey(ownerID), "version", "data").Result()
	if err != nil {
		return nil, 0, false, err
	}
	rawVersion, ok := fields[0].(string)
	if !ok {
		return nil, 0, false, nil
	}
	data, ok := fields[1].(string)
	if !ok {
		return nil, 0, false, nil
	}

	version, err := strconv.Atoi(rawVersion)
	if err != nil {
		return nil, 0, false, fmt.Errorf("snapshot version: %w", err)
	}
	forest, err := decodeForest([]byte(data))
	if err != nil {
		return nil, 0, false, err
	}
	return forest, version, true, nil
}

// LockOwner obtains the per-owner refresh lock without retrying.
func (r *RedisAdapter) LockOwner(ctx context.Context, ownerID int64, ttl time.Duration) (func(context.Context) error, bool, error) {
	lock, err := r.locker.Obtain(ctx, lockKeyPrefix+strconv.FormatInt(ownerID, 10), ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return lock.Release, true, nil
}

func forestKey(ownerID int64) string {
	return forestKeyPrefix + strconv.FormatInt(ownerID, 10)
}
