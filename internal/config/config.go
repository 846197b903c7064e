package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Kafka struct {
		Broker  string
		Topic   string
		GroupID string
	}
	DB struct {
		DSN string
	}
	API struct {
		Port     string
		BasePath string
	}
	Analysis struct {
		Clusters        int     // k for cluster assignment
		Horizon         int     // forecast steps ahead
		Window          int     // lookback size for correlation/forecast
		HighThreshold   float64 // intensity above this is High severity
		MediumThreshold float64 // intensity in [medium, high) is Medium severity
		AnomalySigma    float64 // standard deviations for anomaly detection
	}
	Dispatch struct {
		QueueSize   int
		MaxWorkers  int
		MinSeverity string // lowest severity worth notifying about
	}
	Telegram struct {
		BotToken  string
		ChatID    int64
		RateLimit int
	}
	Email struct {
		SMTPServer string
		SMTPPort   int
		Username   string
		Password   string
		Recipient  string
	}
	Logging struct {
		Dir   string
		Level string
	}
}

// Load reads environment variables, applies defaults, and returns a Config.
func Load() (Config, error) {
	// Load .env if present
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("failed to load .env file: %w", err)
	}

	var cfg Config

	// Kafka settings
	cfg.Kafka.Broker = os.Getenv("KAFKA_BROKER")
	cfg.Kafka.Topic = os.Getenv("KAFKA_TOPIC")
	cfg.Kafka.GroupID = os.Getenv("KAFKA_GROUP_ID")

	// Database DSN
	cfg.DB.DSN = os.Getenv("DB_DSN")

	// API settings
	cfg.API.Port = os.Getenv("API_PORT")
	cfg.API.BasePath = os.Getenv("API_BASE_PATH")

	// Analysis settings
	if k, err := strconv.Atoi(os.Getenv("ANALYSIS_CLUSTERS")); err == nil {
		cfg.Analysis.Clusters = k
	}
	if h, err := strconv.Atoi(os.Getenv("ANALYSIS_HORIZON")); err == nil {
		cfg.Analysis.Horizon = h
	}
	if w, err := strconv.Atoi(os.Getenv("ANALYSIS_WINDOW")); err == nil {
		cfg.Analysis.Window = w
	}
	if t, err := strconv.ParseFloat(os.Getenv("ALERT_HIGH_THRESHOLD"), 64); err == nil {
		cfg.Analysis.HighThreshold = t
	}
	if t, err := strconv.ParseFloat(os.Getenv("ALERT_MEDIUM_THRESHOLD"), 64); err == nil {
		cfg.Analysis.MediumThreshold = t
	}
	if s, err := strconv.ParseFloat(os.Getenv("ALERT_ANOMALY_SIGMA"), 64); err == nil {
		cfg.Analysis.AnomalySigma = s
	}

	// Dispatch worker settings
	if qs, err := strconv.Atoi(os.Getenv("DISPATCH_QUEUE_SIZE")); err == nil {
		cfg.Dispatch.QueueSize = qs
	}
	if mw, err := strconv.Atoi(os.Getenv("DISPATCH_MAX_WORKERS")); err == nil {
		cfg.Dispatch.MaxWorkers = mw
	}
	cfg.Dispatch.MinSeverity = os.Getenv("DISPATCH_MIN_SEVERITY")

	// Telegram settings
	cfg.Telegram.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	if id, err := strconv.ParseInt(os.Getenv("TELEGRAM_CHAT_ID"), 10, 64); err == nil {
		cfg.Telegram.ChatID = id
	}
	if rl, err := strconv.Atoi(os.Getenv("TELEGRAM_RATE_LIMIT")); err == nil {
		cfg.Telegram.RateLimit = rl
	}

	// Email settings
	cfg.Email.SMTPServer = os.Getenv("EMAIL_SMTP_SERVER")
	if p, err := strconv.Atoi(os.Getenv("EMAIL_SMTP_PORT")); err == nil {
		cfg.Email.SMTPPort = p
	}
	cfg.Email.Username = os.Getenv("EMAIL_USERNAME")
	cfg.Email.Password = os.Getenv("EMAIL_PASSWORD")
	cfg.Email.Recipient = os.Getenv("EMAIL_RECIPIENT")

	// Logging settings
	cfg.Logging.Dir = os.Getenv("LOG_DIR")
	cfg.Logging.Level = os.Getenv("LOG_LEVEL")

	// Validate required settings
	missing := []string{}
	if cfg.DB.DSN == "" {
		missing = append(missing, "DB_DSN")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required configurations: %v", missing)
	}

	// Apply defaults
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = "sep_observations"
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = "solar-analytics"
	}
	if cfg.API.Port == "" {
		cfg.API.Port = ":8080"
	}
	if cfg.API.BasePath == "" {
		cfg.API.BasePath = "/api/v1"
	}
	if cfg.Analysis.Clusters == 0 {
		cfg.Analysis.Clusters = 3
	}
	if cfg.Analysis.Horizon == 0 {
		cfg.Analysis.Horizon = 7
	}
	if cfg.Analysis.Window == 0 {
		cfg.Analysis.Window = 30
	}
	if cfg.Analysis.HighThreshold == 0 {
		cfg.Analysis.HighThreshold = 5.0
	}
	if cfg.Analysis.MediumThreshold == 0 {
		cfg.Analysis.MediumThreshold = 4.0
	}
	if cfg.Analysis.AnomalySigma == 0 {
		cfg.Analysis.AnomalySigma = 2.0
	}
	if cfg.Analysis.MediumThreshold >= cfg.Analysis.HighThreshold {
		return Config{}, fmt.Errorf("ALERT_MEDIUM_THRESHOLD (%.2f) must be below ALERT_HIGH_THRESHOLD (%.2f)",
			cfg.Analysis.MediumThreshold, cfg.Analysis.HighThreshold)
	}
	if cfg.Dispatch.QueueSize == 0 {
		cfg.Dispatch.QueueSize = 500
	}
	if cfg.Dispatch.MaxWorkers == 0 {
		cfg.Dispatch.MaxWorkers = 4
	}
	if cfg.Dispatch.MinSeverity == "" {
		cfg.Dispatch.MinSeverity = "Medium"
	}
	if cfg.Telegram.RateLimit == 0 {
		cfg.Telegram.RateLimit = 1
	}
	if cfg.Logging.Dir == "" {
		cfg.Logging.Dir = "logs"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	return cfg, nil
}
