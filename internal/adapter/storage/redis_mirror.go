package storage

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// inventorySlot is the single named slot holding the serialized collection.
const inventorySlot = "inventory:records"

type RedisMirror struct {
	client *redis.Client
	slot   string
}

func NewRedisMirror(client *redis.Client) *RedisMirror {
	return &RedisMirror{client: client, slot: inventorySlot}
}

func (r *RedisMirror) Load(ctx context.Context) ([]byte, error) {
	payload, err := r.client.Get(ctx, r.slot).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return payload, nil
}

func (r *RedisMirror) Save(ctx context.Context, payload []byte) error {
	return r.client.Set(ctx, r.slot, payload, 0).Err()
}
