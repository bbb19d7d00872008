package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Spok95/cowork-booking/internal/domain/catalog"
)

const referenceKey = "cowork:catalog:reference"

// Reference keeps catalog reference data in Redis.
type Reference struct {
	client *redis.Client
	ttl    time.Duration
}

func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func NewReference(client *redis.Client, ttl time.Duration) *Reference {
	return &Reference{client: client, ttl: ttl}
}

func (c *Reference) GetReference(ctx context.Context) (*catalog.Reference, bool, error) {
	raw, err := c.client.Get(ctx, referenceKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var ref catalog.Reference
	if err := json.Unmarshal(raw, &ref); err != nil {
		return nil, false, err
	}
	return &ref, true, nil
}

func (c *Reference) SetReference(ctx context.Context, ref catalog.Reference) error {
	raw, err := json.Marshal(ref)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, referenceKey, raw, c.ttl).Err()
}

func (c *Reference) InvalidateReference(ctx context.Context) error {
	return c.client.Del(ctx, referenceKey).Err()
}
