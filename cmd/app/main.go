package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"golink-redirect/internal/alert"
	"golink-redirect/internal/geo"
	"golink-redirect/internal/handler"
	"golink-redirect/internal/i18n"
	"golink-redirect/internal/repository"
	"golink-redirect/internal/service"
	"golink-redirect/pkg/config"
	"golink-redirect/pkg/logging"
)

func startServer(srv *http.Server, dispatcher *service.Dispatcher, shutdownTimeout time.Duration) {
	go func() {
		logging.Logger.Info("Server is running on " + srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 等待中断信号以优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logging.Logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// 尽量让在途的点击记录写完，超时则放弃
	if err := dispatcher.Wait(ctx); err != nil {
		logging.Logger.Warn("Detached tasks still running at shutdown", zap.Error(err))
	}
}

func main() {
	settings, err := config.Load(viper.GetViper())
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logging.InitLoggerFromConfig(); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer func() { _ = logging.Logger.Sync() }()
	logging.Logger.Info("Application started")

	gin.SetMode(settings.Server.GinMode)

	if err := repository.InitDB(settings.DB, logging.Logger, logging.AtomicLevel); err != nil {
		logging.Logger.Fatal("Failed to init database", zap.Error(err))
	}
	repository.InitRedis(settings.Redis)

	catalog, err := i18n.InitI18n([]string{
		"./i18n/en.toml",
		"./i18n/zh.toml",
	}, "en")
	if err != nil {
		logging.Logger.Fatal("Failed to init i18n", zap.Error(err))
	}

	// 存储：数据库 + 可选的 Redis 旁路缓存
	dbStore := repository.NewGormLinkStore(repository.DB)
	linkStore := repository.WithLinkCache(dbStore, repository.RedisPool, settings.Cache)

	// IP 反向解析 + 地理位置
	var geolocator geo.Geolocator
	if settings.Geo.Enabled {
		geolocator = geo.NewHTTPGeolocator(settings.Geo.URLTemplate, &http.Client{Timeout: settings.Geo.Timeout})
	}
	ipResolver := geo.NewResolver(net.DefaultResolver, geolocator, settings.Geo.DNSTimeout, settings.Geo.Timeout)

	// 点击告警
	var alerts service.AlertPublisher
	if len(settings.Alerts.Brokers) > 0 {
		publisher := alert.NewKafkaPublisher(settings.Alerts.Brokers, settings.Alerts.Topic)
		defer func() {
			if err := publisher.Close(); err != nil {
				logging.Logger.Warn("Failed to close alert publisher", zap.Error(err))
			}
		}()
		alerts = publisher
	}

	dispatcher := service.NewDispatcher(context.Background(), logging.Logger)
	recorder := service.NewClickRecorder(dbStore, ipResolver, alerts)
	resolver := service.NewRedirectService(linkStore, settings.Redirect.LookupTimeout)

	// PV/UV 统计 + 定时同步
	var visits handler.VisitRecorder
	var c *cron.Cron
	if repository.RedisPool != nil {
		visitStats := service.NewVisitStats(repository.RedisPool)
		visits = visitStats
		syncer := service.NewStatsSyncer(visitStats, repository.NewStatsStore(repository.DB))

		c = cron.New()
		_, addErr := c.AddFunc(settings.Stats.Cron, func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if err := syncer.Sync(ctx); err != nil {
				logging.Logger.Error("Stats sync failed", zap.Error(err))
			}
		})
		if addErr != nil {
			logging.Logger.Fatal("Failed to schedule stats sync", zap.Error(addErr))
		}
		c.Start()
	}

	redirectHandler := handler.NewRedirectHandler(resolver, dbStore, recorder, visits, dispatcher)
	healthHandler := handler.NewHealthHandler(repository.DB, repository.RedisPool)
	r := handler.NewRouter(redirectHandler, healthHandler, handler.RouterOptions{
		Logger:         logging.Logger,
		Catalog:        catalog,
		AllowedOrigins: settings.Server.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:              settings.Server.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	startServer(srv, dispatcher, settings.Server.ShutdownTimeout)

	if c != nil {
		<-c.Stop().Done()
	}
	if repository.RedisPool != nil {
		if err := repository.RedisPool.Close(); err != nil {
			logging.Logger.Warn("Redis pool close failed", zap.Error(err))
		}
	}

	logging.Logger.Info("Server exiting")
}
