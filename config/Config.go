package config

import (
	"fmt"
	"time"

	"github.com/mohitkumar/actionhandler/analytics"
)

type BrokerType string

type TenancyType string

const BROKER_TYPE_REDIS BrokerType = "redis"
const BROKER_TYPE_NATS BrokerType = "nats"

const TENANCY_SINGLE TenancyType = "single"
const TENANCY_MULTIPLE TenancyType = "multiple"

type Config struct {
	RedisConfig     RedisConfig
	NatsConfig      NatsConfig
	TenancyConfig   TenancyConfig
	QueueConfig     QueueConfig
	WebhookConfig   WebhookConfig
	AnalyticsConfig analytics.DataCollectorConfig
	BrokerType      BrokerType
	HttpPort        int
	MaxConcurrency  int
	EncryptionKey   string
	LogLevel        string
}

type QueueConfig struct {
	MessageQueue    string
	ErrorQueue      string
	MaxRetryCount   int
	ConsumerName    string
	PollInterval    time.Duration
	ConsumerTimeout time.Duration
}

type TenancyConfig struct {
	Type                   TenancyType
	AdminDatabaseUrl       string
	TenantDatabaseUrl      string
	TenantId               string
	CacheExpirationMinutes int
}

func (c TenancyConfig) CacheExpiration() time.Duration {
	return time.Duration(c.CacheExpirationMinutes) * time.Minute
}

type WebhookConfig struct {
	RetryInterval     time.Duration
	ConnectionTimeout time.Duration
}

type RedisConfig struct {
	Addrs     []string
	Namespace string
	Password  string
}

type NatsConfig struct {
	Url        string
	StreamName string
}

func (c Config) Validate() error {
	switch c.BrokerType {
	case BROKER_TYPE_REDIS, BROKER_TYPE_NATS:
	default:
		return fmt.Errorf("unsupported broker %s", c.BrokerType)
	}
	switch c.TenancyConfig.Type {
	case TENANCY_SINGLE:
		if c.TenancyConfig.TenantDatabaseUrl == "" {
			return fmt.Errorf("tenant-db-url is required in single tenancy mode")
		}
	case TENANCY_MULTIPLE:
		if c.TenancyConfig.AdminDatabaseUrl == "" {
			return fmt.Errorf("admin-db-url is required in multiple tenancy mode")
		}
	default:
		return fmt.Errorf("unsupported tenancy %s", c.TenancyConfig.Type)
	}
	if c.MaxConcurrency < 1 {
		return fmt.Errorf("max-concurrency must be at least 1")
	}
	if c.QueueConfig.MessageQueue == "" || c.QueueConfig.ErrorQueue == "" {
		return fmt.Errorf("message and error queue names are required")
	}
	return nil
}
