package cache

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const flightsListTTL = 30 * time.Second

type ValkeyClient struct {
	client       *redis.Client
	usersHashKey string
}

func NewValkeyClient() (*ValkeyClient, error) {
	addr := os.Getenv("VALKEY_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	password := os.Getenv("VALKEY_PASSWORD")
	usersHashKey := os.Getenv("VALKEY_USERS_HASH_KEY")
	if usersHashKey == "" {
		usersHashKey = "users:auth"
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Valkey: %w", err)
	}

	return &ValkeyClient{
		client:       rdb,
		usersHashKey: usersHashKey,
	}, nil
}

func authCacheKey(email, passwordHash string) string {
	return base64.StdEncoding.EncodeToString([]byte(fmt.Sprintf("%s:%s", email, passwordHash)))
}

// GetUserIDByAuth looks up a user id by credential hash, avoiding a database
// round trip on every BasicAuth request.
func (v *ValkeyClient) GetUserIDByAuth(ctx context.Context, email, passwordHash string) (int64, error) {
	userIDStr, err := v.client.HGet(ctx, v.usersHashKey, authCacheKey(email, passwordHash)).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, fmt.Errorf("user not found in cache")
		}
		return 0, fmt.Errorf("cache lookup error: %w", err)
	}

	userID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid user ID in cache: %w", err)
	}

	return userID, nil
}

// SetUserAuth warms the credential cache; called after registration.
func (v *ValkeyClient) SetUserAuth(ctx context.Context, email, passwordHash string, userID int64) error {
	return v.client.HSet(ctx, v.usersHashKey, authCacheKey(email, passwordHash), strconv.FormatInt(userID, 10)).Err()
}

// InvalidateUserAuth drops a cached credential, e.g. after a password change.
func (v *ValkeyClient) InvalidateUserAuth(ctx context.Context, email, passwordHash string) error {
	return v.client.HDel(ctx, v.usersHashKey, authCacheKey(email, passwordHash)).Err()
}

func flightsListKey(page, pageSize int) string {
	return fmt.Sprintf("flights:list:%d:%d", page, pageSize)
}

// GetFlightsListRaw returns the cached raw JSON for an unfiltered flight
// list page, skipping unmarshal/marshal overhead on the hot path.
func (v *ValkeyClient) GetFlightsListRaw(ctx context.Context, page, pageSize int) ([]byte, error) {
	return v.client.Get(ctx, flightsListKey(page, pageSize)).Bytes()
}

// SetFlightsList stores a flight list page with a short TTL.
func (v *ValkeyClient) SetFlightsList(ctx context.Context, page, pageSize int, response interface{}) {
	payload, err := json.Marshal(response)
	if err != nil {
		return
	}
	v.client.Set(ctx, flightsListKey(page, pageSize), payload, flightsListTTL)
}

func (v *ValkeyClient) Close() error {
	return v.client.Close()
}
