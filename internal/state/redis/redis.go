// Package redis_state keeps run state in redis so several API replicas can
// serve status polls for the same run.
package redis_state

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/yashsmehta/auto-apply/internal/state"
	"github.com/yashsmehta/auto-apply/models"
)

const keyPrefix = "autoapply:run:"

// DefaultTTL keeps finished runs around long enough for late pollers without
// letting abandoned keys pile up.
const DefaultTTL = 24 * time.Hour

type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func New(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{client: client, ttl: ttl}
}

func (s *Store) Create(ctx context.Context, appName string) (state.Run, error) {
	now := time.Now()
	run := state.Run{
		ID:        uuid.NewString(),
		AppName:   appName,
		Status:    state.StatusPending,
		StartedAt: now,
		UpdatedAt: now,
	}
	if err := s.put(ctx, run); err != nil {
		return state.Run{}, err
	}
	return run, nil
}

func (s *Store) Get(ctx context.Context, id string) (state.Run, error) {
	val, err := s.client.Get(ctx, keyPrefix+id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return state.Run{}, models.ErrRunNotFound
		}
		return state.Run{}, err
	}
	var run state.Run
	if err := json.Unmarshal([]byte(val), &run); err != nil {
		return state.Run{}, err
	}
	return run, nil
}

func (s *Store) Update(ctx context.Context, id string, fn func(*state.Run)) (state.Run, error) {
	run, err := s.Get(ctx, id)
	if err != nil {
		return state.Run{}, err
	}
	fn(&run)
	run.UpdatedAt = time.Now()
	if err := s.put(ctx, run); err != nil {
		return state.Run{}, err
	}
	return run, nil
}

// List returns all tracked runs, most recently started first. Keys that
// expire between the scan and the read are skipped.
func (s *Store) List(ctx context.Context) ([]state.Run, error) {
	keys, err := s.client.Keys(ctx, keyPrefix+"*").Result()
	if err != nil {
		return nil, err
	}
	runs := make([]state.Run, 0, len(keys))
	for _, key := range keys {
		val, err := s.client.Get(ctx, key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return nil, err
		}
		var run state.Run
		if err := json.Unmarshal([]byte(val), &run); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	return runs, nil
}

func (s *Store) put(ctx context.Context, run state.Run) error {
	data, err := json.Marshal(run)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, keyPrefix+run.ID, data, s.ttl).Err()
}
