package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/httplog"

	"github.com/marcelsud/bot-gateway/archive"
	"github.com/marcelsud/bot-gateway/bot"
	"github.com/marcelsud/bot-gateway/config"
	"github.com/marcelsud/bot-gateway/filecache"
	"github.com/marcelsud/bot-gateway/gateway"
	chihandlers "github.com/marcelsud/bot-gateway/internal/http/chi"
	"github.com/marcelsud/bot-gateway/library"
	"github.com/marcelsud/bot-gateway/metrics"
	"github.com/marcelsud/bot-gateway/registry"
	"github.com/marcelsud/bot-gateway/telegram"
	"github.com/marcelsud/bot-gateway/usersettings"
	memorycache "github.com/marcelsud/bot-gateway/usersettings/memory"
	rediscache "github.com/marcelsud/bot-gateway/usersettings/redis"
)

const TIMEOUT = 30 * time.Second

/* Entry point: wires config, the registry client, the supervisor and the
 * HTTP surface together. All dependency construction happens here; the
 * packages below never reach for the environment themselves.
 */

func main() {
	cfg, err := config.GetConfig()
	if err != nil {
		fmt.Println(err)
		return
	}

	logger := httplog.NewLogger("bot-gateway", httplog.Options{JSON: true})

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT,
	)
	defer stop()

	regClient := registry.NewClient(cfg.ManagerURL, cfg.ManagerAPIKey)
	if cfg.StaticInstancesFile != "" {
		static, err := registry.LoadStatic(cfg.StaticInstancesFile)
		if err != nil {
			logger.Error().Err(err).Msg("loading static instances")
			return
		}
		regClient = regClient.WithStatic(static)
		logger.Info().Int("count", len(static)).Msg("static instances loaded")
	}

	var langCache usersettings.LangCache
	if cfg.RedisAddr != "" {
		cache, err := rediscache.NewCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Error().Err(err).Msg("connecting settings cache")
			return
		}
		defer cache.Close()
		langCache = cache
	} else {
		langCache = memorycache.NewCache()
	}

	usersClient := usersettings.NewClient(cfg.UserSettingsURL, cfg.UserSettingsAPIKey)
	settings := usersettings.NewService(usersClient, langCache)

	table := gateway.NewTable()
	snapshot := registry.NewSnapshot()
	stats := gateway.NewStats(table, snapshot)

	botFactory := gateway.BotFactory(func(token string) telegram.BotAPI {
		return telegram.NewBot(token, cfg.TelegramBotAPI)
	})

	handlerFactory := bot.NewHandlerFactory(bot.Deps{
		Logger:      logger,
		Registry:    regClient,
		Library:     library.NewClient(cfg.BookServerURL, cfg.BookServerAPIKey),
		FileCache:   filecache.NewClient(cfg.CacheServerURL, cfg.CacheServerAPIKey),
		Archive:     archive.NewClient(cfg.BatchDownloaderURL, cfg.PublicBatchDownloaderURL, cfg.BatchDownloaderAPIKey),
		Settings:    settings,
		Users:       usersClient,
		Recorder:    stats,
		Bots:        botFactory,
		AdminChatID: cfg.AdminChatID,
	})

	supervisor := gateway.NewSupervisor(
		table, snapshot, regClient,
		botFactory, handlerFactory,
		cfg.WebhookBaseURL, stats, logger,
	)
	supervisorDone := make(chan struct{})
	go func() {
		defer close(supervisorDone)
		supervisor.Run(ctx)
	}()

	exporter, err := metrics.NewOTelExporter(stats)
	if err != nil {
		logger.Error().Err(err).Msg("creating metrics exporter")
		return
	}
	defer exporter.Shutdown(context.Background())

	r := chihandlers.Handlers(logger, table, snapshot, supervisor, stats, exporter.ServeHTTP())
	srv := &http.Server{
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		Addr:         ":" + cfg.Port,
		Handler:      r,
	}

	errShutdown := make(chan error, 1)
	go shutdown(srv, ctx, errShutdown)
	logger.Info().Str("port", cfg.Port).Msg("listening")
	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("server stopped")
		return
	}
	if err := <-errShutdown; err != nil {
		logger.Error().Err(err).Msg("shutdown")
	}

	// Pipelines stop within the supervisor's bounded per-pipeline waits.
	<-supervisorDone
	logger.Info().Msg("all pipelines stopped")
}

func shutdown(server *http.Server, ctxShutdown context.Context, errShutdown chan error) {
	<-ctxShutdown.Done()

	ctxTimeout, stop := context.WithTimeout(context.Background(), TIMEOUT)
	defer stop()

	err := server.Shutdown(ctxTimeout)
	switch err {
	case nil:
		errShutdown <- nil
	default:
		errShutdown <- fmt.Errorf("forcing the server closed: %w", err)
	}
}
