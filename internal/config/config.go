package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env         string
	Port        string
	DatabaseURL string

	// SiteURL is the public base URL used to build verification links embedded
	// in certificate QR codes. Empty means relative URLs.
	SiteURL   string
	MediaRoot string
	FontDir   string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	MailFrom     string

	EmailQueuePort  int
	EmailWorkers    int
	EmailPollSecs   int
	EmailMaxRetries int
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("MEDIA_ROOT", "media")
	viper.SetDefault("FONT_DIR", "static/fonts")
	viper.SetDefault("SMTP_HOST", "localhost")
	viper.SetDefault("SMTP_PORT", 25)
	viper.SetDefault("MAIL_FROM", "noreply@eventoensina.com")
	viper.SetDefault("EMAIL_QUEUE_PORT", 9099)
	viper.SetDefault("EMAIL_WORKERS", 2)
	viper.SetDefault("EMAIL_POLL_SECONDS", 5)
	viper.SetDefault("EMAIL_MAX_RETRIES", 5)

	return &Config{
		Env:             viper.GetString("APP_ENV"),
		Port:            viper.GetString("PORT"),
		DatabaseURL:     viper.GetString("DATABASE_URL"),
		SiteURL:         strings.TrimRight(viper.GetString("SITE_URL"), "/"),
		MediaRoot:       viper.GetString("MEDIA_ROOT"),
		FontDir:         viper.GetString("FONT_DIR"),
		SMTPHost:        viper.GetString("SMTP_HOST"),
		SMTPPort:        viper.GetInt("SMTP_PORT"),
		SMTPUser:        viper.GetString("SMTP_USER"),
		SMTPPassword:    viper.GetString("SMTP_PASSWORD"),
		MailFrom:        viper.GetString("MAIL_FROM"),
		EmailQueuePort:  viper.GetInt("EMAIL_QUEUE_PORT"),
		EmailWorkers:    viper.GetInt("EMAIL_WORKERS"),
		EmailPollSecs:   viper.GetInt("EMAIL_POLL_SECONDS"),
		EmailMaxRetries: viper.GetInt("EMAIL_MAX_RETRIES"),
	}, nil
}
