package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eventoensina-backend/internal/app"
	"eventoensina-backend/internal/certificates"
	"eventoensina-backend/internal/config"
	"eventoensina-backend/internal/database"
	"eventoensina-backend/internal/events"
	"eventoensina-backend/internal/metrics"
	"eventoensina-backend/internal/notifications"
	"eventoensina-backend/internal/storage"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	if cfg.Env == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("database migration failed")
	}
	log.Info().Msg("database connected")

	metrics.Init()

	media := &storage.Media{Root: cfg.MediaRoot}
	certSvc := &certificates.Service{
		DB:       db,
		Renderer: certificates.NewRenderer(cfg.FontDir),
		Media:    media,
		SiteURL:  cfg.SiteURL,
	}
	notifSvc := &notifications.Service{
		DB:         db,
		Transport:  notifications.NewSMTPTransport(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
		From:       cfg.MailFrom,
		QueuePort:  cfg.EmailQueuePort,
		MaxRetries: cfg.EmailMaxRetries,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dispatcher := notifications.NewDispatcher(
		notifSvc,
		cfg.EmailQueuePort,
		cfg.EmailWorkers,
		time.Duration(cfg.EmailPollSecs)*time.Second,
	)
	if err := dispatcher.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("dispatcher start failed")
	}
	notifSvc.Dispatcher = dispatcher

	eventSvc := &events.Service{
		DB:            db,
		Certificates:  certSvc,
		Notifications: notifSvc,
		SiteURL:       cfg.SiteURL,
	}

	fiberApp := app.CreateApp(app.Deps{
		Config:        cfg,
		DB:            db,
		Certificates:  certSvc,
		Notifications: notifSvc,
		Events:        eventSvc,
		Dispatcher:    dispatcher,
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Info().Str("signal", sig.String()).Msg("shutdown signal received")
		cancel()
	}()

	go func() {
		log.Info().Str("port", cfg.Port).Msg("api server started")
		if err := fiberApp.Listen(":" + cfg.Port); err != nil {
			log.Fatal().Err(err).Msg("api server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down services")

	dispatcher.Stop()
	if err := fiberApp.ShutdownWithTimeout(5 * time.Second); err != nil {
		log.Error().Err(err).Msg("api shutdown failed")
	}
	log.Info().Msg("application shutdown complete")
}
