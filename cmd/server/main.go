// @title           Recipe Community API
// @version         1.0
// @description     家庭菜谱社区：菜谱、论坛、私信、打印订单
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "recipe_community/docs"
	_ "recipe_community/internal/domain/common"
	_ "recipe_community/internal/domain/forum"
	_ "recipe_community/internal/domain/like"
	_ "recipe_community/internal/domain/messaging"
	_ "recipe_community/internal/domain/payment"
	_ "recipe_community/internal/domain/recipe"
	_ "recipe_community/internal/domain/user"
	"recipe_community/internal/pkg/config"
	"recipe_community/internal/pkg/middleware"
	"recipe_community/internal/pkg/moderation"
	"recipe_community/internal/pkg/push"
	"recipe_community/internal/pkg/realtime"
	"recipe_community/internal/pkg/registry"
	"recipe_community/internal/pkg/translate"
	"recipe_community/internal/pkg/uploader"
	"recipe_community/internal/pkg/worker"
	"recipe_community/pkg/cache"
	"recipe_community/pkg/database"
	"recipe_community/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	config.LoadConfig()
	cfg := config.GlobalConfig

	if err := logger.InitLogger(cfg.App.Debug); err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	gin.SetMode(cfg.Server.Mode)
	if err := middleware.SetupValidator(); err != nil {
		logger.Log.Fatal("setup validator", zap.Error(err))
	}
	realtime.SetAllowedOrigins(cfg.App.CORSOrigins)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db := database.InitDatabase()
	sqlxDB, err := database.NewSQLX(db)
	if err != nil {
		logger.Log.Fatal("init sqlx", zap.Error(err))
	}
	rdb := database.InitRedis()
	appCache := cache.NewRedisCache(rdb, "recipe:")

	// 审核：分类器可选，关键词表始终生效
	var classifier moderation.Classifier
	if gc, err := moderation.NewGreenClassifier(cfg.Moderation); err != nil {
		logger.Log.Warn("content classifier disabled, keyword filter only", zap.Error(err))
	} else {
		classifier = gc
	}
	gate := moderation.NewGate(classifier, moderation.NewKeywordFilter(cfg.Moderation.Blocklist))

	hub := realtime.NewHub()
	go hub.Run(ctx)
	relay := realtime.NewRedisRelay(rdb, hub, cfg.Realtime.ChannelPrefix)
	if err := relay.Start(ctx); err != nil {
		logger.Log.Fatal("start realtime relay", zap.Error(err))
	}

	pool := worker.NewWorkerPool(push.New(cfg.Push), 4, 256)
	pool.Start()
	defer pool.Stop()

	var translator translate.Translator
	if t, err := translate.NewAliyunTranslator(cfg.Translation); err != nil {
		logger.Log.Warn("translation disabled", zap.Error(err))
	} else {
		translator = translate.NewCachedTranslator(t, appCache, time.Duration(cfg.Translation.CacheTTL)*time.Second)
	}

	var up uploader.Uploader
	if u, err := uploader.NewAliyunOSSUploader(cfg.OSS); err != nil {
		logger.Log.Warn("uploads disabled", zap.Error(err))
	} else {
		up = u
	}

	limiter := middleware.NewIPRateLimiter(rate.Limit(20), 40)
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				limiter.Cleanup(10 * time.Minute)
			}
		}
	}()

	r := gin.New()
	r.Use(
		middleware.TraceMiddleware(),
		middleware.LoggerMiddleware(),
		middleware.RecoveryMiddleware(),
		middleware.SecurityHeadersMiddleware(),
		cors.New(corsConfig(cfg.App.CORSOrigins)),
		middleware.RateLimitMiddleware(limiter),
		middleware.MetricsMiddleware(),
	)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if cfg.App.Debug {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	if err := registry.InitModules(&registry.ModuleContext{
		DB:         db,
		SQLX:       sqlxDB,
		Redis:      rdb,
		Router:     r,
		Cache:      appCache,
		Moderator:  gate,
		Hub:        hub,
		Publisher:  relay,
		Notifier:   pool,
		Translator: translator,
		Uploader:   up,
	}); err != nil {
		logger.Log.Fatal("init modules", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("listen", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("server shutdown", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = rdb.Close()
}

func corsConfig(origins []string) cors.Config {
	c := cors.DefaultConfig()
	if len(origins) == 0 {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	c.AllowHeaders = append(c.AllowHeaders, "Authorization", "X-Trace-ID")
	c.ExposeHeaders = []string{"X-Trace-ID"}
	return c
}
