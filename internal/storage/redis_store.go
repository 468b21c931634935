package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/farhan-ahmed1/seedcheck/internal/task"
)

const (
	// Redis key prefixes for storage
	taskStorePrefix   = "seedcheck:store:task:"
	resultStorePrefix = "seedcheck:store:result:"
	stateIndexPrefix  = "seedcheck:index:state:"

	// TTL for task data (7 days)
	taskTTL = 7 * 24 * time.Hour
	// TTL for result data (30 days)
	resultTTL = 30 * 24 * time.Hour
)

// RedisStorage implements Storage using Redis
type RedisStorage struct {
	client *redis.Client
	owned  bool
}

// NewRedisStorage wraps an existing client. The caller keeps ownership.
func NewRedisStorage(client *redis.Client) *RedisStorage {
	return &RedisStorage{client: client}
}

// DialRedis connects to addr and verifies the connection with a ping.
// The returned storage closes the client on Close.
func DialRedis(ctx context.Context, addr, password string, db, poolSize int) (*RedisStorage, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis address cannot be empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     poolSize,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStorage{client: client, owned: true}, nil
}

// SaveTask persists a task and moves it to its state index
func (rs *RedisStorage) SaveTask(ctx context.Context, t *task.Task) error {
	if t == nil || t.ID == "" {
		return fmt.Errorf("invalid task")
	}

	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	pipe := rs.client.TxPipeline()
	pipe.Set(ctx, taskStorePrefix+t.ID, data, taskTTL)
	for _, s := range []task.State{task.StateCreated, task.StateRunning, task.StateCompleted} {
		if s != t.State {
			pipe.SRem(ctx, stateIndexPrefix+string(s), t.ID)
		}
	}
	pipe.SAdd(ctx, stateIndexPrefix+string(t.State), t.ID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}
	return nil
}

// GetTask retrieves a task by ID
func (rs *RedisStorage) GetTask(ctx context.Context, taskID string) (*task.Task, error) {
	if taskID == "" {
		return nil, fmt.Errorf("task ID cannot be empty")
	}

	data, err := rs.client.Get(ctx, taskStorePrefix+taskID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("task %s: %w", taskID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	var t task.Task
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task: %w", err)
	}
	return &t, nil
}

// SaveResult persists a task result
func (rs *RedisStorage) SaveResult(ctx context.Context, result *task.Result) error {
	if result == nil || result.TaskID == "" {
		return fmt.Errorf("invalid result")
	}

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	if err := rs.client.Set(ctx, resultStorePrefix+result.TaskID, data, resultTTL).Err(); err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}
	return nil
}

// GetResult retrieves a task result by task ID
func (rs *RedisStorage) GetResult(ctx context.Context, taskID string) (*task.Result, error) {
	if taskID == "" {
		return nil, fmt.Errorf("task ID cannot be empty")
	}

	data, err := rs.client.Get(ctx, resultStorePrefix+taskID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("result for task %s: %w", taskID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get result: %w", err)
	}

	var result task.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return &result, nil
}

// CountByState returns the size of a state index
func (rs *RedisStorage) CountByState(ctx context.Context, state task.State) (int64, error) {
	n, err := rs.client.SCard(ctx, stateIndexPrefix+string(state)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	return n, nil
}

// Close closes the client if this storage created it
func (rs *RedisStorage) Close() error {
	if rs.owned {
		return rs.client.Close()
	}
	return nil
}
