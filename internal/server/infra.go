package server

import (
	"context"

	"github.com/rs/zerolog/log"

	"healthbot/internal/ai"
	"healthbot/internal/config"
	"healthbot/internal/handler"
	"healthbot/internal/pkg/cache"
	"healthbot/internal/pkg/mongodb"
	"healthbot/internal/repository"
	"healthbot/internal/repository/memstore"
	"healthbot/internal/repository/mongostore"
	"healthbot/internal/service/dialogue"
)

// Infra 进程级依赖：存储、缓存、模型客户端
// serve 与命令行子命令共用
type Infra struct {
	Mongo *mongodb.Client   // 未配置或连接失败时为 nil
	Redis *cache.RedisCache // 未配置或连接失败时为 nil
	Store *repository.Store
	AI    *ai.Client
}

// NewInfra 连接外部依赖
// MongoDB 不可用时退回内存存储，Redis 不可用时目录直接读存储
func NewInfra(ctx context.Context, cfg *config.Config) (*Infra, error) {
	infra := &Infra{}

	if cfg.Mongo.URI != "" {
		client, err := mongodb.New(&cfg.Mongo)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to MongoDB, falling back to in-memory store")
		} else {
			infra.Mongo = client
			log.Info().Str("database", cfg.Mongo.Database).Msg("connected to MongoDB")

			if err := mongodb.EnsureIndexes(client.Database()); err != nil {
				log.Warn().Err(err).Msg("failed to ensure indexes")
			}
		}
	}
	if infra.Mongo != nil {
		infra.Store = mongostore.NewStore(infra.Mongo.Database())
	} else {
		log.Warn().Msg("using in-memory store, data will not survive restarts")
		infra.Store = memstore.New().Repositories()
	}

	if cfg.Redis.Addr != "" {
		rc, err := cache.NewRedisCache(&cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to Redis, continuing without it")
		} else {
			infra.Redis = rc
			log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to Redis")
		}
	}

	aiClient, err := ai.NewClient(ctx, &cfg.AI)
	if err != nil {
		infra.Close(context.Background())
		return nil, err
	}
	infra.AI = aiClient
	log.Info().Str("provider", cfg.AI.Provider).Str("model", cfg.AI.Model).Msg("initialized AI client")

	return infra, nil
}

// DialogueService 基于当前依赖创建对话引擎
func (i *Infra) DialogueService(cfg config.DialogueConfig) *dialogue.Service {
	var c dialogue.Cache
	if i.Redis != nil {
		c = i.Redis
	}
	return dialogue.NewService(i.Store, i.AI, c, cfg)
}

// Pingers 就绪检查项
func (i *Infra) Pingers() map[string]handler.Pinger {
	deps := make(map[string]handler.Pinger)
	if i.Mongo != nil {
		deps["mongo"] = i.Mongo
	}
	if i.Redis != nil {
		deps["redis"] = i.Redis
	}
	return deps
}

// Close 关闭连接
func (i *Infra) Close(ctx context.Context) {
	if i.Mongo != nil {
		if err := i.Mongo.Close(ctx); err != nil {
			log.Error().Err(err).Msg("failed to close MongoDB connection")
		}
	}
	if i.Redis != nil {
		if err := i.Redis.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close Redis connection")
		}
	}
}
