package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"bonus-wheel/config"
	"bonus-wheel/internal/api/handler"
	"bonus-wheel/internal/api/middleware"
	"bonus-wheel/internal/api/router"
	"bonus-wheel/internal/bot"
	"bonus-wheel/internal/repository"
	"bonus-wheel/internal/service"
	"bonus-wheel/pkg/database"
	"bonus-wheel/pkg/jwt"
	applogger "bonus-wheel/pkg/logger"
	"bonus-wheel/pkg/redis"
	"bonus-wheel/pkg/telegram"
)

func main() {
	// 0. 加载 .env（不覆盖已有环境变量，文件不存在时忽略）
	_ = godotenv.Load()

	// 1. 加载配置
	cfg, err := config.Load(os.Getenv("WHEEL_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.Bool("bot_enabled", cfg.Telegram.BotEnabled),
	)

	// 3. 连接数据库
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}

	// 3.1 执行数据库迁移
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：连接失败时降级运行，不中断启动）
	var (
		cache   service.Cache
		limiter middleware.RateLimiter
	)
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，扇区缓存与限流将不可用", zap.Error(err))
		rdb = nil
	} else {
		cache = rdb
		limiter = rdb
	}

	// 5. Telegram：领奖机器人与核销通知共用同一个 BotAPI
	var (
		notifier service.Notifier
		tgAPI    bot.API
	)
	if cfg.Telegram.BotToken != "" {
		api, err := telegram.NewBotAPI(cfg.Telegram.BotToken)
		if err != nil {
			logger.Warn("Telegram 初始化失败，领奖机器人与通知将不可用", zap.Error(err))
		} else {
			tgAPI = api
			if cfg.Telegram.NotifyChatID != 0 {
				notifier = telegram.New(api, cfg.Telegram.NotifyChatID)
			}
		}
	}

	// 6. 初始化 JWT 管理器（仅校验商城签发的令牌）
	jwtMgr := jwt.NewManager(&cfg.Auth)

	// 7. 依赖注入: Repository → Service → Handler
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, cache, notifier, logger)
	h := handler.NewHandler(svc)

	// 8. 初始化路由
	engine := router.Setup(cfg, h, jwtMgr, limiter, sqlDB, logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// 9. 运行：HTTP 服务器与领奖机器人，收到信号后统一退出
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP 服务器异常: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("开始优雅关闭...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.Telegram.BotEnabled {
		if tgAPI == nil {
			logger.Warn("领奖机器人已启用但 Telegram 不可用，跳过启动")
		} else {
			claimBot := bot.NewClaimBot(tgAPI, svc.Wheel, cfg.Telegram.PollTimeout, logger)
			g.Go(func() error {
				return claimBot.Run(gctx)
			})
		}
	}

	if err := g.Wait(); err != nil {
		logger.Error("服务异常退出", zap.Error(err))
	}

	// 关闭数据库连接
	if err := sqlDB.Close(); err != nil {
		logger.Warn("关闭数据库连接失败", zap.Error(err))
	}

	// 关闭 Redis 连接
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}
