// 排班引擎服务
// 主程序入口

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/paiban/staffplan/internal/config"
	"github.com/paiban/staffplan/internal/database"
	"github.com/paiban/staffplan/internal/handler"
	"github.com/paiban/staffplan/internal/middleware"
	"github.com/paiban/staffplan/internal/repository"
	"github.com/paiban/staffplan/pkg/logger"
)

// 构建信息（通过 ldflags 注入）
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	envFile := flag.String("env", "", "环境变量文件路径")
	flag.Parse()

	var files []string
	if *envFile != "" {
		files = append(files, *envFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	logCfg := logger.DefaultConfig()
	logCfg.Level = cfg.App.LogLevel
	logCfg.Format = cfg.App.LogFormat
	logger.Init(logCfg)

	fmt.Printf("%s 排班引擎 v%s\n", cfg.App.Name, Version)
	fmt.Printf("Build: %s (%s)\n", BuildTime, GitCommit)
	fmt.Println()

	// 数据库为可选项，未启用时只提供无状态接口
	var (
		store *repository.Store
		ping  func(context.Context) error
	)
	if cfg.Database.Enabled {
		db, err := database.New(&cfg.Database)
		if err != nil {
			logger.Error().Err(err).Msg("数据库连接失败")
			os.Exit(1)
		}
		defer db.Close()

		if cfg.Database.AutoMigrate {
			if err := database.RunMigrations(db); err != nil {
				logger.Error().Err(err).Msg("数据库迁移失败")
				os.Exit(1)
			}
		}
		store = repository.NewStore(db)
		ping = db.Health
	} else {
		logger.Warn().Msg("未启用数据库，商户排班接口不可用")
	}

	var limiter *middleware.RateLimiter
	if cfg.API.RateLimit > 0 && cfg.API.RateWindow > 0 {
		limiter = middleware.NewRateLimiter(cfg.API.RateLimit, cfg.API.RateWindow)
	}
	h := handler.NewHandler(&cfg.Scheduler, store)
	router := handler.NewRouter(h, cfg, handler.RouterOptions{
		Build:   handler.BuildInfo{Version: Version, BuildTime: BuildTime, GitCommit: GitCommit},
		Ping:    ping,
		Limiter: limiter,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  cfg.API.Timeout,
		WriteTimeout: 2 * cfg.API.Timeout,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 定期清理限流记录
	if limiter != nil {
		go sweep(ctx, limiter, cfg.API.RateWindow)
	}

	// 启动服务器（非阻塞）
	go func() {
		logger.Info().
			Int("port", cfg.App.Port).
			Str("env", cfg.App.Env).
			Str("version", Version).
			Bool("database", store != nil).
			Str("api_docs", fmt.Sprintf("http://localhost:%d/api/v1/", cfg.App.Port)).
			Msg("服务器启动")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("服务器启动失败")
			stop()
		}
	}()

	// 优雅关闭
	<-ctx.Done()
	logger.Info().Msg("正在关闭服务器...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("服务器关闭失败")
		return
	}
	logger.Info().Msg("服务器已关闭")
}

func sweep(ctx context.Context, rl *middleware.RateLimiter, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.Sweep()
		}
	}
}
