// Package remote implements the authoritative document store on top of
// Redis. Entities are stored as JSON blobs keyed by id, with a per-user
// SET as the ownership index, a capped LIST as the scan event log and a
// pub/sub channel per user for change notifications.
package remote

import (
	"context"
	"errors"
	"time"

	"github.com/Nathino/UQRCODE/config"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
)

const (
	qrKeyPrefix       = "qr:"
	qrUserSetPrefix   = "qr_user:"
	docKeyPrefix      = "doc:"
	docUserSetPrefix  = "doc_user:"
	scanEventsPrefix  = "scan_events:"
	profileKeyPrefix  = "profile:"
	changeChanPrefix  = "changes:"
	maxScanEventsKept = 1000
)

// ErrNotFound is returned when an entity id is absent from the store.
var ErrNotFound = errors.New("entity not found")

// NewClient connects to Redis and fails fast when it is unreachable at
// startup. Later transport failures are the caller's concern (the
// persistence layer degrades to its local mirror).
func NewClient(cfg config.RedisConfig) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}

	log.Info().Str("address", cfg.Address).Msg("Connected to Redis successfully")
	return rdb
}

// Store is the remote store client. All operations honor the configured
// operation timeout on top of the caller's context.
type Store struct {
	rdb     *redis.Client
	timeout time.Duration
}

// NewStore wraps an existing Redis client.
func NewStore(rdb *redis.Client, cfg config.RedisConfig) *Store {
	timeout := time.Duration(cfg.OperationTimeout) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Store{rdb: rdb, timeout: timeout}
}

func (s *Store) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// Ping reports whether the remote store is reachable.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	return s.rdb.Ping(ctx).Err()
}

func (s *Store) publishChange(ctx context.Context, userID string) {
	if err := s.rdb.Publish(ctx, changeChanPrefix+userID, "changed").Err(); err != nil {
		log.Warn().Err(err).Str("userID", userID).Msg("Failed to publish change notification")
	}
}
