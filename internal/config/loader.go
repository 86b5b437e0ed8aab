package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rpattn/stockhist/internal/db"

	"github.com/spf13/viper"
)

// Kafka holds broker addresses and the topics the service consumes and
// produces on.
type Kafka struct {
	Brokers      []string
	GroupID      string
	RequestTopic string
	SuccessTopic string
	FailedTopic  string
}

// Enrichment holds the base URLs of the two upstream read services and the
// timeout applied to every outbound lookup.
type Enrichment struct {
	PartsBaseURL string
	UserBaseURL  string
	Timeout      time.Duration
}

// Config is the full service configuration resolved once at startup.
type Config struct {
	HTTPAddr   string
	Database   db.Config
	Kafka      Kafka
	Enrichment Enrichment
}

// Load reads config.yaml from configPath when present and applies environment
// overrides (prefix STOCKHIST, e.g. STOCKHIST_DATABASE_HOST). A missing file
// is not an error; defaults cover every key.
func Load(configPath string) (Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AutomaticEnv()
	v.SetEnvPrefix("STOCKHIST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	dbDefaults := db.DefaultConfig()
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("database.host", dbDefaults.Host)
	v.SetDefault("database.port", dbDefaults.Port)
	v.SetDefault("database.user", dbDefaults.User)
	v.SetDefault("database.password", dbDefaults.Password)
	v.SetDefault("database.dbname", dbDefaults.DBName)
	v.SetDefault("database.sslmode", dbDefaults.SSLMode)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.group_id", "stockhist-information")
	v.SetDefault("kafka.topics.history_request", "receiving-history-request")
	v.SetDefault("kafka.topics.history_success", "receiving-history-success")
	v.SetDefault("kafka.topics.history_failed", "receiving-history-failed")
	v.SetDefault("enrichment.parts_url", "http://localhost:8081")
	v.SetDefault("enrichment.user_url", "http://localhost:8082")
	v.SetDefault("enrichment.timeout", 3*time.Second)

	v.BindEnv("http.addr")
	v.BindEnv("database.host")
	v.BindEnv("database.port")
	v.BindEnv("database.user")
	v.BindEnv("database.password")
	v.BindEnv("database.dbname")
	v.BindEnv("database.sslmode")
	v.BindEnv("kafka.brokers")
	v.BindEnv("kafka.group_id")
	v.BindEnv("enrichment.parts_url")
	v.BindEnv("enrichment.user_url")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := Config{
		HTTPAddr: v.GetString("http.addr"),
		Database: db.Config{
			Host:     v.GetString("database.host"),
			Port:     v.GetInt("database.port"),
			User:     v.GetString("database.user"),
			Password: v.GetString("database.password"),
			DBName:   v.GetString("database.dbname"),
			SSLMode:  v.GetString("database.sslmode"),
		},
		Kafka: Kafka{
			Brokers:      v.GetStringSlice("kafka.brokers"),
			GroupID:      v.GetString("kafka.group_id"),
			RequestTopic: v.GetString("kafka.topics.history_request"),
			SuccessTopic: v.GetString("kafka.topics.history_success"),
			FailedTopic:  v.GetString("kafka.topics.history_failed"),
		},
		Enrichment: Enrichment{
			PartsBaseURL: v.GetString("enrichment.parts_url"),
			UserBaseURL:  v.GetString("enrichment.user_url"),
			Timeout:      v.GetDuration("enrichment.timeout"),
		},
	}

	if len(cfg.Kafka.Brokers) == 0 {
		return Config{}, fmt.Errorf("kafka.brokers must not be empty")
	}

	return cfg, nil
}
