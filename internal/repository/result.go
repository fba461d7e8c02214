package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/denyconquer-backend/internal/apperror"
	"github.com/rocketscienceinc/denyconquer-backend/internal/entity"
)

const (
	resultKeyPrefix = "round:"
	recentKey       = "rounds:recent"
	recentLimit     = 100
)

type ResultRepository interface {
	Save(ctx context.Context, result *entity.RoundResult) error
	GetByID(ctx context.Context, id string) (*entity.RoundResult, error)
	Recent(ctx context.Context, limit int) ([]string, error)
}

type dbResult struct {
	client *redis.Client
}

func NewResultRepository(client *redis.Client) ResultRepository {
	return &dbResult{
		client: client,
	}
}

// Save - stores the result and pushes its id onto the recent list.
func (that *dbResult) Save(ctx context.Context, result *entity.RoundResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("could not marshal round result: %w", err)
	}

	_, err = that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, resultKeyPrefix+result.ID, resultJSON, 0)
		pipe.LPush(ctx, recentKey, result.ID)
		pipe.LTrim(ctx, recentKey, 0, recentLimit-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save round result: %w", err)
	}

	return nil
}

func (that *dbResult) GetByID(ctx context.Context, id string) (*entity.RoundResult, error) {
	response, err := that.client.Get(ctx, resultKeyPrefix+id).Result()

	if errors.Is(err, redis.Nil) {
		return nil, apperror.ErrResultNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get round result by id: %w", err)
	}

	var result entity.RoundResult
	if err = json.Unmarshal([]byte(response), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal round result: %w", err)
	}

	return &result, nil
}

// Recent - ids of the latest archived rounds, newest first.
func (that *dbResult) Recent(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 || limit > recentLimit {
		limit = recentLimit
	}

	ids, err := that.client.LRange(ctx, recentKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list recent rounds: %w", err)
	}

	return ids, nil
}
