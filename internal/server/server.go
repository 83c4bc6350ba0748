package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"healthbot/internal/config"
	"healthbot/internal/handler"
	conversationHandler "healthbot/internal/handler/conversation"
	"healthbot/internal/pkg/jwt"
	"healthbot/internal/server/middleware"
	"healthbot/internal/service/dialogue"

	_ "healthbot/docs"
)

// Server HTTP 服务器
type Server struct {
	cfg      *config.Config
	engine   *gin.Engine
	infra    *Infra
	dialogue *dialogue.Service
}

// New 创建服务器实例
func New(ctx context.Context, cfg *config.Config) (*Server, error) {
	switch cfg.Server.Mode {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	infra, err := NewInfra(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return NewWithInfra(cfg, infra), nil
}

// NewWithInfra 使用已有依赖创建服务器
func NewWithInfra(cfg *config.Config, infra *Infra) *Server {
	srv := &Server{
		cfg:      cfg,
		engine:   gin.New(),
		infra:    infra,
		dialogue: infra.DialogueService(cfg.Dialogue),
	}
	srv.setupRoutes()
	return srv
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() {
	// 全局中间件
	s.engine.Use(middleware.Recovery())
	s.engine.Use(middleware.RequestID())
	s.engine.Use(middleware.Logger())
	s.engine.Use(middleware.CORS())

	// 健康检查
	healthHandler := handler.NewHealthHandler(s.infra.Pingers())
	s.engine.GET("/health", healthHandler.Health)
	s.engine.GET("/ready", healthHandler.Ready)

	// Swagger 文档
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := s.engine.Group("/api/v1")
	if s.cfg.Auth.JWTSecret != "" {
		v1.Use(middleware.Auth(jwt.NewJWT(s.cfg.Auth.JWTSecret, s.cfg.Auth.AccessTokenExpiry)))
	} else {
		log.Warn().Msg("JWT secret not configured, identity is read from query parameters (NOT SECURE for production)")
		v1.Use(middleware.QueryIdentity())
	}

	convHdl := conversationHandler.NewHandler(s.dialogue)
	{
		v1.POST("/conversations", convHdl.CreateConversation)
		v1.GET("/conversations", convHdl.ListConversations)
		v1.POST("/conversations/:id/messages", convHdl.PostMessage)
		v1.GET("/conversations/:id/messages", convHdl.ListMessages)
		v1.GET("/conversations/:id/scores", convHdl.GetScores)
		v1.POST("/conversations/:id/analyze", convHdl.Analyze)
		v1.POST("/messages", convHdl.CreateMessage)

		v1.POST("/admin/mood-catalog/invalidate", convHdl.InvalidateCatalog)
	}
}

// Run 启动服务器，ctx 取消后优雅退出
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	// 后台分析任务不使用请求 context
	s.dialogue.Start(context.Background())

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		// 请求结束后再排空分析队列，最后关闭连接
		s.dialogue.Close()
		s.infra.Close(shutdownCtx)
		return err
	case err := <-errCh:
		s.dialogue.Close()
		s.infra.Close(context.Background())
		return err
	}
}

// Engine 获取 Gin 引擎 (用于测试)
func (s *Server) Engine() *gin.Engine {
	return s.engine
}
