package main

import (
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mohitkumar/actionhandler/agent"
	"github.com/mohitkumar/actionhandler/analytics"
	"github.com/mohitkumar/actionhandler/config"
	"github.com/mohitkumar/actionhandler/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type cfg struct {
	config.Config
}
type cli struct {
	cfg cfg
}

func setupFlags(cmd *cobra.Command) error {
	cmd.Flags().String("config-file", "", "Path to config file.")
	cmd.Flags().String("message-queue", "actions", "queue or subject the handler consumes")
	cmd.Flags().String("error-queue", "actions.error", "queue or subject dead lettered messages go to")
	cmd.Flags().Int("max-concurrency", 8, "messages handled concurrently")
	cmd.Flags().Int("max-retry-count", 5, "deliveries before a failing message is dead lettered")
	cmd.Flags().String("consumer-name", "", "consumer name, generated when empty")
	cmd.Flags().Duration("poll-interval", time.Second, "interval retries are moved back to the queue")
	cmd.Flags().Duration("consumer-timeout", 30*time.Second, "missed heartbeat window after which a consumer's in-flight messages are re-queued")
	cmd.Flags().Int("cache-expiration-minutes", 1440, "minutes tenants are cached")
	cmd.Flags().Duration("webhook-retry-interval", 1800*time.Second, "delay before a failed webhook is retried")
	cmd.Flags().Duration("webhook-connection-timeout", 30*time.Second, "timeout of outbound webhook and smtp calls")
	cmd.Flags().String("tenancy", "single", "single or multiple")
	cmd.Flags().String("admin-db-url", "", "admin database holding the tenant list")
	cmd.Flags().String("tenant-db-url", "", "tenant database in single tenancy mode")
	cmd.Flags().String("tenant-id", "default", "tenant id in single tenancy mode")
	cmd.Flags().String("broker", "redis", "message broker, redis or nats")
	cmd.Flags().String("redis-addr", "localhost:6379", "comma separated list of redis host:port")
	cmd.Flags().String("redis-password", "", "redis password")
	cmd.Flags().String("namespace", "actionhandler", "namespace used in redis keys")
	cmd.Flags().String("nats-url", "nats://localhost:4222", "nats server url")
	cmd.Flags().String("nats-stream", "ACTIONS", "jetstream stream holding the queues")
	cmd.Flags().String("encryption-key", "", "base64 AES-256 key of stored secrets")
	cmd.Flags().Int("http-port", 8080, "http port for health, metrics and status")
	cmd.Flags().String("analytics-file", "", "file message outcomes are written to")
	cmd.Flags().String("log-level", "info", "log level")
	return viper.BindPFlags(cmd.Flags())
}

func (c *cli) setupConfig(cmd *cobra.Command, args []string) error {
	var err error

	configFile, err := cmd.Flags().GetString("config-file")
	if err != nil {
		return err
	}
	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err = viper.ReadInConfig(); err != nil {
			// it's ok if config file doesn't exist
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return err
			}
		}
	}
	viper.SetEnvPrefix("ACTIONHANDLER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	c.cfg.QueueConfig.MessageQueue = viper.GetString("message-queue")
	c.cfg.QueueConfig.ErrorQueue = viper.GetString("error-queue")
	c.cfg.QueueConfig.MaxRetryCount = viper.GetInt("max-retry-count")
	c.cfg.QueueConfig.ConsumerName = viper.GetString("consumer-name")
	c.cfg.QueueConfig.PollInterval = viper.GetDuration("poll-interval")
	c.cfg.QueueConfig.ConsumerTimeout = viper.GetDuration("consumer-timeout")
	c.cfg.MaxConcurrency = viper.GetInt("max-concurrency")
	c.cfg.TenancyConfig.CacheExpirationMinutes = viper.GetInt("cache-expiration-minutes")
	c.cfg.TenancyConfig.Type = config.TenancyType(viper.GetString("tenancy"))
	c.cfg.TenancyConfig.AdminDatabaseUrl = viper.GetString("admin-db-url")
	c.cfg.TenancyConfig.TenantDatabaseUrl = viper.GetString("tenant-db-url")
	c.cfg.TenancyConfig.TenantId = viper.GetString("tenant-id")
	c.cfg.WebhookConfig.RetryInterval = viper.GetDuration("webhook-retry-interval")
	c.cfg.WebhookConfig.ConnectionTimeout = viper.GetDuration("webhook-connection-timeout")
	c.cfg.BrokerType = config.BrokerType(viper.GetString("broker"))
	c.cfg.RedisConfig.Addrs = strings.Split(viper.GetString("redis-addr"), ",")
	c.cfg.RedisConfig.Password = viper.GetString("redis-password")
	c.cfg.RedisConfig.Namespace = viper.GetString("namespace")
	c.cfg.NatsConfig.Url = viper.GetString("nats-url")
	c.cfg.NatsConfig.StreamName = viper.GetString("nats-stream")
	c.cfg.EncryptionKey = viper.GetString("encryption-key")
	c.cfg.HttpPort = viper.GetInt("http-port")
	c.cfg.AnalyticsConfig = analytics.DataCollectorConfig{
		FileName:      viper.GetString("analytics-file"),
		CollectorType: analytics.LOG_FILE_DATA_COLLECTOR,
	}
	c.cfg.LogLevel = viper.GetString("log-level")
	logger.SetLevel(c.cfg.LogLevel)
	return c.cfg.Validate()
}

func (c *cli) run(cmd *cobra.Command, args []string) error {
	var err error
	agent, err := agent.New(c.cfg.Config)
	if err != nil {
		return err
	}
	err = agent.Start()
	if err != nil {
		return err
	}
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	return agent.Shutdown()
}

func main() {
	cli := &cli{}

	cmd := &cobra.Command{
		Use:     "actionhandler",
		Short:   "Runs workflow event triggers and delivers their notifications, webhooks and generation jobs",
		PreRunE: cli.setupConfig,
		RunE:    cli.run,
	}

	if err := setupFlags(cmd); err != nil {
		log.Fatal(err)
	}

	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
