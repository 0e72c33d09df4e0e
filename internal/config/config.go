package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/stayloop/stays-service/internal/utils"
)

type Config struct {
	AppName string
	AppPort string

	// Database
	DBUrl string

	// Auth
	JWTSecret []byte

	// Kafka
	KafkaBrokers       []string
	BookingEventsTopic string
	BookingEventsDLQ   string
	ConsumerGroupID    string

	// Notifications
	SendGridAPIKey      string
	SendgridFromEmail   string
	SendgridSandboxMode bool
	TwilioAccountSID    string
	TwilioAuthToken     string
	TwilioFromPhone     string

	// Image storage
	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	CloudinaryFolder    string

	CORSAllowedOrigins []string
}

func LoadConfig() *Config {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err == nil {
		utils.Logger.Info("Loaded environment from .env")
	}

	cfg := &Config{
		AppName:             getEnv("APP_NAME", "stays-service"),
		AppPort:             getEnv("APP_PORT", "8080"),
		DBUrl:               mustEnv("DATABASE_URL"),
		JWTSecret:           []byte(mustEnv("JWT_SECRET")),
		KafkaBrokers:        splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
		BookingEventsTopic:  getEnv("BOOKING_EVENTS_TOPIC", "booking-events"),
		BookingEventsDLQ:    getEnv("BOOKING_EVENTS_DLQ_TOPIC", "booking-events-dlq"),
		ConsumerGroupID:     getEnv("BOOKING_EVENTS_GROUP_ID", "stays-notifications"),
		SendGridAPIKey:      os.Getenv("SENDGRID_API_KEY"),
		SendgridFromEmail:   getEnv("SENDGRID_FROM_EMAIL", "no-reply@stayloop.io"),
		SendgridSandboxMode: getEnv("SENDGRID_SANDBOX_MODE", "true") == "true",
		TwilioAccountSID:    os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:     os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFromPhone:     os.Getenv("TWILIO_FROM_PHONE"),
		CloudinaryCloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:    os.Getenv("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret: os.Getenv("CLOUDINARY_API_SECRET"),
		CloudinaryFolder:    getEnv("CLOUDINARY_FOLDER", "stays"),
		CORSAllowedOrigins:  splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
	}

	return cfg
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		utils.Logger.Fatalf("%s env var missing", key)
	}
	return v
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
