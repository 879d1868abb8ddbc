package genomestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/starford/subtaste/internal/apperr"
	"github.com/starford/subtaste/internal/genome"
)

// Redis keeps each genome as a JSON string and a sorted set of owners
// scored by update time for listing.
type Redis struct {
	client *redis.Client
	prefix string
}

var _ Store = (*Redis)(nil)

// OpenRedis connects and pings the server.
func OpenRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("genomestore: redis ping: %w", err)
	}
	return NewRedis(client, cfg.KeyPrefix), nil
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = "subtaste"
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) key(ownerID string) string {
	return fmt.Sprintf("%s:genome:%s", r.prefix, ownerID)
}

func (r *Redis) indexKey() string {
	return r.prefix + ":genomes"
}

func (r *Redis) Get(ctx context.Context, ownerID string) (genome.Genome, error) {
	data, err := r.client.Get(ctx, r.key(ownerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return genome.Genome{}, apperr.ErrNotFound
	}
	if err != nil {
		return genome.Genome{}, fmt.Errorf("genomestore: redis get: %w", err)
	}
	return genome.Deserialize(data)
}

func (r *Redis) Create(ctx context.Context, g genome.Genome) error {
	body, err := genome.Serialize(g)
	if err != nil {
		return err
	}
	ok, err := r.client.SetNX(ctx, r.key(g.OwnerID), body, 0).Result()
	if err != nil {
		return fmt.Errorf("genomestore: redis create: %w", err)
	}
	if !ok {
		return apperr.ErrAlreadyExists
	}
	return r.client.ZAdd(ctx, r.indexKey(), redis.Z{Score: score(g.UpdatedAt), Member: g.OwnerID}).Err()
}

// Update runs a WATCH/MULTI transaction so a concurrent writer aborts the
// exec instead of being overwritten.
func (r *Redis) Update(ctx context.Context, g genome.Genome, expectedVersion int) error {
	body, err := genome.Serialize(g)
	if err != nil {
		return err
	}
	key := r.key(g.OwnerID)

	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return apperr.ErrNotFound
		}
		if err != nil {
			return err
		}
		cur, err := genome.Deserialize(data)
		if err != nil {
			return err
		}
		if cur.Version != expectedVersion {
			return apperr.ErrConflict
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, body, 0)
			pipe.ZAdd(ctx, r.indexKey(), redis.Z{Score: score(g.UpdatedAt), Member: g.OwnerID})
			return nil
		})
		return err
	}, key)

	switch {
	case errors.Is(err, redis.TxFailedErr):
		return apperr.ErrConflict
	case errors.Is(err, apperr.ErrNotFound), errors.Is(err, apperr.ErrConflict):
		return err
	case err != nil:
		return fmt.Errorf("genomestore: redis update: %w", err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, ownerID string) error {
	var del *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, r.key(ownerID))
		pipe.ZRem(ctx, r.indexKey(), ownerID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("genomestore: redis delete: %w", err)
	}
	if del.Val() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *Redis) List(ctx context.Context, limit, offset int) ([]Summary, int, error) {
	limit, offset = normalizePage(limit, offset)
	total, err := r.client.ZCard(ctx, r.indexKey()).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("genomestore: redis count: %w", err)
	}
	owners, err := r.client.ZRevRange(ctx, r.indexKey(), int64(offset), int64(offset+limit-1)).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("genomestore: redis list: %w", err)
	}
	out := make([]Summary, 0, len(owners))
	if len(owners) == 0 {
		return out, int(total), nil
	}

	keys := make([]string, len(owners))
	for i, o := range owners {
		keys[i] = r.key(o)
	}
	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("genomestore: redis mget: %w", err)
	}
	for _, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		g, err := genome.Deserialize([]byte(s))
		if err != nil {
			continue
		}
		out = append(out, summarize(g))
	}
	return out, int(total), nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func score(t time.Time) float64 {
	return float64(t.UnixMilli())
}
