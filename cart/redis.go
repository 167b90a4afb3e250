package cart

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/velora-store/velora-backend-go/models"
)

// Carts are kept for 30 days of inactivity, then expire server-side.
const cartTTL = 30 * 24 * time.Hour

// RedisStorage persists serialized carts under Namespace:<session>.
type RedisStorage struct {
	client *redis.Client
}

func NewRedisStorage(addr string) *RedisStorage {
	return &RedisStorage{
		client: redis.NewClient(&redis.Options{Addr: addr}),
	}
}

func (r *RedisStorage) Load(ctx context.Context, session string) (models.Cart, error) {
	data, err := r.client.Get(ctx, Namespace+":"+session).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Cart{}, ErrCartNotFound
	}
	if err != nil {
		return models.Cart{}, err
	}

	var cart models.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return models.Cart{}, err
	}
	return cart, nil
}

func (r *RedisStorage) Save(ctx context.Context, session string, cart models.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, Namespace+":"+session, data, cartTTL).Err()
}

func (r *RedisStorage) Delete(ctx context.Context, session string) error {
	return r.client.Del(ctx, Namespace+":"+session).Err()
}
