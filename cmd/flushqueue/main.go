package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"eventoensina-backend/internal/config"
	"eventoensina-backend/internal/database"
	"eventoensina-backend/internal/notifications"

	"github.com/rs/zerolog/log"
)

// flushqueue drains pending email jobs synchronously, for environments
// where the api process is down or a backlog needs clearing by hand.
func main() {
	max := flag.Int("max", 50, "maximum number of jobs to process in this run")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}

	svc := &notifications.Service{
		DB:         db,
		Transport:  notifications.NewSMTPTransport(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
		From:       cfg.MailFrom,
		MaxRetries: cfg.EmailMaxRetries,
	}

	processed := svc.ProcessPending(context.Background(), *max)
	fmt.Fprintf(os.Stdout, "processed %d email job(s)\n", processed)
}
