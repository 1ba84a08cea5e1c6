package main

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/recipebook/internal/config"
	"github.com/recipebook/internal/db"
	"github.com/recipebook/internal/handler"
	"github.com/recipebook/internal/logging"
	"github.com/recipebook/internal/router"
	"github.com/recipebook/internal/service"
)

func main() {
	cfg := config.Load()

	logger := logging.New(cfg)
	defer logger.Sync()

	gin.SetMode(cfg.GinMode)

	// 初始化数据库
	gdb, err := db.Open(cfg, logging.Gorm(logger, logging.ParseLevel(cfg.LogLevel)))
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}

	if err := db.EnsureUser(gdb, cfg.SuperRootUserName, cfg.SuperRootPassword); err != nil {
		logger.Fatal("failed to ensure admin user", zap.Error(err))
	}

	store := service.NewLocalImageStore(cfg.UploadDir, cfg.UploadURLPath)
	api := handler.NewAPI(gdb, store, logger)

	// 设置并运行 Gin 服务器
	r, err := router.SetupRouter(api, cfg, logger)
	if err != nil {
		logger.Fatal("failed to set up router", zap.Error(err))
	}

	logger.Info("server starting", zap.String("addr", cfg.ListenAddr))
	if err := r.Run(cfg.ListenAddr); err != nil {
		logger.Fatal("failed to run server", zap.Error(err))
	}
}
