package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config with TOML-friendly types. Durations are strings and
// booleans are pointers so that an absent key leaves the default untouched.
type FileConfig struct {
	HTTPAddress    string `toml:"http_address"`
	MetricsAddress string `toml:"metrics_address"`

	Store struct {
		Backend       string `toml:"backend"`
		PostgresURL   string `toml:"postgres_url"`
		MongoURI      string `toml:"mongo_uri"`
		MongoDatabase string `toml:"mongo_database"`
	} `toml:"store"`

	Kafka struct {
		Brokers         []string `toml:"brokers"`
		ConsumerGroupID string   `toml:"consumer_group_id"`
		WorkloadTopic   string   `toml:"workload_topic"`
		ResponseTopic   string   `toml:"response_topic"`
		DeadLetterTopic string   `toml:"dead_letter_topic"`
		Concurrency     int      `toml:"concurrency"`
	} `toml:"kafka"`

	Ledger struct {
		ConflictRetries       int   `toml:"conflict_retries"`
		QueryDegradeOnFailure *bool `toml:"query_degrade_on_failure"`
	} `toml:"ledger"`

	Dedupe struct {
		Backend   string `toml:"backend"`
		RedisAddr string `toml:"redis_addr"`
		TTL       string `toml:"ttl"`
	} `toml:"dedupe"`

	Auth struct {
		Enabled   *bool  `toml:"enabled"`
		JWTSecret string `toml:"jwt_secret"`
		JWTIssuer string `toml:"jwt_issuer"`
	} `toml:"auth"`

	Log struct {
		Level  string `toml:"level"`
		Format string `toml:"format"`
	} `toml:"log"`

	DeadLetter struct {
		Record *bool `toml:"record"`
	} `toml:"dead_letter"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// ApplyFileConfig copies every value set in fc onto cfg.
func ApplyFileConfig(cfg *Config, fc FileConfig) error {
	setString(fc.HTTPAddress, &cfg.HTTPAddress)
	setString(fc.MetricsAddress, &cfg.MetricsAddress)

	setString(strings.ToLower(fc.Store.Backend), &cfg.StoreBackend)
	setString(fc.Store.PostgresURL, &cfg.PostgresURL)
	setString(fc.Store.MongoURI, &cfg.MongoURI)
	setString(fc.Store.MongoDatabase, &cfg.MongoDatabase)

	if len(fc.Kafka.Brokers) > 0 {
		cfg.KafkaBrokers = append([]string(nil), fc.Kafka.Brokers...)
	}
	setString(fc.Kafka.ConsumerGroupID, &cfg.ConsumerGroupID)
	setString(fc.Kafka.WorkloadTopic, &cfg.WorkloadTopic)
	setString(fc.Kafka.ResponseTopic, &cfg.ResponseTopic)
	setString(fc.Kafka.DeadLetterTopic, &cfg.DeadLetterTopic)
	setInt(fc.Kafka.Concurrency, &cfg.ConsumerConcurrency)

	setInt(fc.Ledger.ConflictRetries, &cfg.LedgerConflictRetries)
	setBool(fc.Ledger.QueryDegradeOnFailure, &cfg.QueryDegradeOnFailure)

	setString(strings.ToLower(fc.Dedupe.Backend), &cfg.DedupeBackend)
	setString(fc.Dedupe.RedisAddr, &cfg.RedisAddr)
	if fc.Dedupe.TTL != "" {
		d, err := time.ParseDuration(fc.Dedupe.TTL)
		if err != nil {
			return fmt.Errorf("dedupe.ttl: %w", err)
		}
		cfg.DedupeTTL = d
	}

	setBool(fc.Auth.Enabled, &cfg.AuthEnabled)
	setString(fc.Auth.JWTSecret, &cfg.JWTSecret)
	setString(fc.Auth.JWTIssuer, &cfg.JWTIssuer)

	setString(fc.Log.Level, &cfg.LogLevel)
	setString(fc.Log.Format, &cfg.LogFormat)

	setBool(fc.DeadLetter.Record, &cfg.DeadLetterRecord)
	return nil
}

func setString(value string, dst *string) {
	if value != "" {
		*dst = value
	}
}

func setInt(value int, dst *int) {
	if value != 0 {
		*dst = value
	}
}

func setBool(value *bool, dst *bool) {
	if value != nil {
		*dst = *value
	}
}
