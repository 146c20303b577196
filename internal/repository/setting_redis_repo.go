package repository

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type redisSettingRepository struct {
	client *redis.Client
	key    string
}

// NewRedisSettingRepository stores settings in a single Redis hash.
func NewRedisSettingRepository(client *redis.Client, key string) SettingRepository {
	if key == "" {
		key = "siswa:settings"
	}
	return &redisSettingRepository{client: client, key: key}
}

func (r *redisSettingRepository) All(ctx context.Context) (map[string]string, error) {
	values, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("read settings hash: %w", err)
	}
	return values, nil
}

func (r *redisSettingRepository) SetMany(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}

	fields := make([]interface{}, 0, len(values)*2)
	for key, value := range values {
		fields = append(fields, key, value)
	}
	if err := r.client.HSet(ctx, r.key, fields...).Err(); err != nil {
		return fmt.Errorf("write settings hash: %w", err)
	}
	return nil
}

func (r *redisSettingRepository) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.HDel(ctx, r.key, keys...).Err(); err != nil {
		return fmt.Errorf("delete settings fields: %w", err)
	}
	return nil
}

func (r *redisSettingRepository) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("clear settings hash: %w", err)
	}
	return nil
}
