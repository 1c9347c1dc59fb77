package service

import (
	"context"
	"time"

	"cmci-cr/backend/internal/dto"
	"cmci-cr/backend/pkg/redis"
)

// AlertSnapshotTTL 预警快照缓存有效期，与每日扫描周期一致
const AlertSnapshotTTL = 24 * time.Hour

const alertSnapshotPrefix = "alert:snapshot:"

// AlertCache 预警快照缓存；未命中时返回 (nil, nil)
type AlertCache interface {
	GetSnapshot(ctx context.Context, overseerID string) (*dto.AlertSnapshot, error)
	SetSnapshot(ctx context.Context, snapshot *dto.AlertSnapshot, ttl time.Duration) error
}

type redisAlertCache struct {
	rdb *redis.Client
}

// NewRedisAlertCache 基于 Redis 的预警快照缓存
func NewRedisAlertCache(rdb *redis.Client) AlertCache {
	return &redisAlertCache{rdb: rdb}
}

func (c *redisAlertCache) GetSnapshot(ctx context.Context, overseerID string) (*dto.AlertSnapshot, error) {
	var snap dto.AlertSnapshot
	found, err := c.rdb.GetJSON(ctx, alertSnapshotPrefix+overseerID, &snap)
	if err != nil || !found {
		return nil, err
	}
	return &snap, nil
}

func (c *redisAlertCache) SetSnapshot(ctx context.Context, snapshot *dto.AlertSnapshot, ttl time.Duration) error {
	return c.rdb.SetJSON(ctx, alertSnapshotPrefix+snapshot.OverseerID, snapshot, ttl)
}
