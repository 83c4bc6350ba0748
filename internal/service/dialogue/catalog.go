package dialogue

import (
	"context"
	"errors"
	"time"

	"healthbot/internal/model"
	"healthbot/internal/pkg/cache"
	"healthbot/internal/pkg/logger"
	"healthbot/internal/repository"
)

// Cache 目录缓存，*cache.RedisCache 实现了该接口
type Cache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// MoodCatalog 情绪维度目录
// 读取顺序：缓存 -> mood_dim 表 -> 内置默认目录。缓存通过 Invalidate 显式失效。
type MoodCatalog struct {
	repo  repository.MoodDimensionRepository
	cache Cache // 可为 nil
	ttl   time.Duration
}

// NewMoodCatalog 创建情绪维度目录
func NewMoodCatalog(repo repository.MoodDimensionRepository, c Cache, ttl time.Duration) *MoodCatalog {
	return &MoodCatalog{repo: repo, cache: c, ttl: ttl}
}

// Dimensions 返回当前目录，不会返回空列表
func (c *MoodCatalog) Dimensions(ctx context.Context) []model.MoodDimension {
	log := logger.Component("mood_catalog")

	if c.cache != nil {
		var cached []model.MoodDimension
		err := c.cache.Get(ctx, cache.MoodCatalogKey, &cached)
		switch {
		case err == nil && len(cached) > 0:
			return cached
		case err != nil && !errors.Is(err, cache.ErrMiss):
			log.Warn().Err(err).Msg("failed to read cached mood catalog")
		}
	}

	if c.repo == nil {
		return model.DefaultMoodDimensions()
	}

	dims, err := c.repo.List(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to load mood catalog, using defaults")
		return model.DefaultMoodDimensions()
	}
	if len(dims) == 0 {
		return model.DefaultMoodDimensions()
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, cache.MoodCatalogKey, dims, c.ttl); err != nil {
			log.Warn().Err(err).Msg("failed to cache mood catalog")
		}
	}
	return dims
}

// Invalidate 丢弃缓存的目录，下一次读取回源
func (c *MoodCatalog) Invalidate(ctx context.Context) error {
	if c.cache == nil {
		return nil
	}
	return c.cache.Delete(ctx, cache.MoodCatalogKey)
}
