package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort int
	Database   DatabaseConfig
	Auth       AuthConfig
	MQ         MQConfig
	Email      EmailConfig
	Logging    LoggingConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	UseSSL   bool
}

// AuthConfig holds token-signing settings. The secret is required at
// startup; the server refuses to boot without it.
type AuthConfig struct {
	JWTSecret string
}

// MQConfig selects and configures the message broker used for
// registration notifications. An empty Backend disables publishing.
type MQConfig struct {
	Backend              string
	NotificationsChannel string
	RabbitMQ             RabbitMQConfig
	PubSub               PubSubConfig
}

type RabbitMQConfig struct {
	URL             string
	PrefetchCount   int
	QueueDurable    bool
	QueueAutoDelete bool
}

type PubSubConfig struct {
	ProjectID          string
	CredentialsFile    string
	SubscriptionSuffix string
}

// EmailConfig configures outbound confirmation mail. When Enabled is
// false the mailer logs and skips instead of calling the provider.
type EmailConfig struct {
	Enabled bool
	APIKey  string
	From    string
}

type LoggingConfig struct {
	Level  string
	Format string
}

func LoadConfig() Config {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	dbConfig := DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvInt("DB_PORT", 5432),
		User:     getEnv("DB_USER", "gatherly"),
		Password: getEnv("DB_PASSWORD", "password"),
		DBName:   getEnv("DB_NAME", "gatherly_db"),
		UseSSL:   getEnvBool("DB_USE_SSL", false),
	}

	mqConfig := MQConfig{
		Backend:              getEnv("MQ_BACKEND", ""),
		NotificationsChannel: getEnv("MQ_NOTIFICATIONS_CHANNEL", "registration-confirmations"),
		RabbitMQ: RabbitMQConfig{
			URL:             getEnv("RABBITMQ_URL", ""),
			PrefetchCount:   getEnvInt("RABBITMQ_PREFETCH_COUNT", 1),
			QueueDurable:    getEnvBool("RABBITMQ_QUEUE_DURABLE", true),
			QueueAutoDelete: getEnvBool("RABBITMQ_QUEUE_AUTO_DELETE", false),
		},
		PubSub: PubSubConfig{
			ProjectID:          getEnv("PUBSUB_PROJECT_ID", ""),
			CredentialsFile:    getEnv("PUBSUB_CREDENTIALS_FILE", ""),
			SubscriptionSuffix: getEnv("PUBSUB_SUBSCRIPTION_SUFFIX", "-sub"),
		},
	}

	emailConfig := EmailConfig{
		Enabled: getEnvBool("EMAIL_ENABLED", false),
		APIKey:  getEnv("RESEND_API_KEY", ""),
		From:    getEnv("EMAIL_FROM", "no-reply@gatherly.events"),
	}

	return Config{
		ServerPort: getEnvInt("SERVER_PORT", 8080),
		Database:   dbConfig,
		Auth: AuthConfig{
			JWTSecret: strings.TrimSpace(getEnv("JWT_SECRET", "")),
		},
		MQ:    mqConfig,
		Email: emailConfig,
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		var value int
		fmt.Sscanf(valueStr, "%d", &value)
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		switch strings.ToLower(strings.TrimSpace(valueStr)) {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return defaultValue
}
