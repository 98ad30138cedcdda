package container

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mohitkumar/actionhandler/analytics"
	"github.com/mohitkumar/actionhandler/config"
	"github.com/mohitkumar/actionhandler/logger"
	"github.com/mohitkumar/actionhandler/persistence"
	"github.com/mohitkumar/actionhandler/persistence/postgres"
	rd "github.com/mohitkumar/actionhandler/persistence/redis"
	"github.com/mohitkumar/actionhandler/secret"
	"github.com/mohitkumar/actionhandler/tenant"
	"github.com/mohitkumar/actionhandler/transport"
	"github.com/mohitkumar/actionhandler/transport/nats"
	"go.uber.org/zap"
)

// DIContiner builds the implementations selected by the configuration.
type DIContiner struct {
	initialized  bool
	transport    transport.Transport
	jobQueue     persistence.JobQueue
	tenants      *tenant.Registry
	repositories persistence.RepositoryFactory
	decrypter    secret.Decrypter
	collector    analytics.DataCollector
	closers      []func() error
}

func (d *DIContiner) setInitialized() {
	d.initialized = true
}

func NewDiContainer() *DIContiner {
	return &DIContiner{
		initialized: false,
	}
}

func (d *DIContiner) Init(ctx context.Context, conf config.Config) error {
	var err error
	rdConf := rd.Config{
		Addrs:     conf.RedisConfig.Addrs,
		Namespace: conf.RedisConfig.Namespace,
		Password:  conf.RedisConfig.Password,
		PoolSize:  conf.MaxConcurrency * 2,
	}

	switch conf.BrokerType {
	case config.BROKER_TYPE_REDIS:
		queue := rd.NewRedisQueue(rdConf, rd.QueueConfig{
			MessageQueue:    conf.QueueConfig.MessageQueue,
			ErrorQueue:      conf.QueueConfig.ErrorQueue,
			ConsumerName:    conf.QueueConfig.ConsumerName,
			PollInterval:    conf.QueueConfig.PollInterval,
			ConsumerTimeout: conf.QueueConfig.ConsumerTimeout,
		})
		if err := queue.Start(ctx); err != nil {
			return err
		}
		d.transport = queue
	case config.BROKER_TYPE_NATS:
		d.transport, err = nats.Connect(ctx, nats.Config{
			Url:          conf.NatsConfig.Url,
			StreamName:   conf.NatsConfig.StreamName,
			Subject:      conf.QueueConfig.MessageQueue,
			ErrorSubject: conf.QueueConfig.ErrorQueue,
			ConsumerName: conf.QueueConfig.ConsumerName,
		})
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported broker %s", conf.BrokerType)
	}
	d.closers = append(d.closers, d.transport.Close)

	jobQueue := rd.NewRedisJobQueue(rdConf)
	d.jobQueue = jobQueue
	d.closers = append(d.closers, jobQueue.Close)

	var source tenant.Source
	switch conf.TenancyConfig.Type {
	case config.TENANCY_SINGLE:
		pool, err := d.openPool(ctx, conf.TenancyConfig.TenantDatabaseUrl)
		if err != nil {
			return err
		}
		source = tenant.NewSingleSource(conf.TenancyConfig.TenantId, conf.TenancyConfig.TenantDatabaseUrl, pool)
	case config.TENANCY_MULTIPLE:
		pool, err := d.openPool(ctx, conf.TenancyConfig.AdminDatabaseUrl)
		if err != nil {
			return err
		}
		source = tenant.NewPostgresSource(pool)
	default:
		return fmt.Errorf("unsupported tenancy %s", conf.TenancyConfig.Type)
	}
	d.tenants = tenant.NewRegistry(tenant.Config{
		Source:          source,
		Expiration:      conf.TenancyConfig.CacheExpiration(),
		DefaultTenantId: conf.TenancyConfig.TenantId,
	})

	factory := postgres.NewPoolFactory()
	d.repositories = factory
	d.closers = append(d.closers, func() error { factory.Close(); return nil })

	if d.decrypter, err = secret.NewDecrypter(conf.EncryptionKey); err != nil {
		return err
	}
	if d.collector, err = analytics.NewDataCollector(conf.AnalyticsConfig); err != nil {
		return err
	}
	d.closers = append(d.closers, d.collector.Close)
	d.setInitialized()
	return nil
}

func (d *DIContiner) openPool(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	d.closers = append(d.closers, func() error { pool.Close(); return nil })
	return pool, nil
}

func (d *DIContiner) GetTransport() transport.Transport {
	if !d.initialized {
		panic("container not initalized")
	}
	return d.transport
}

func (d *DIContiner) GetJobQueue() persistence.JobQueue {
	if !d.initialized {
		panic("container not initalized")
	}
	return d.jobQueue
}

func (d *DIContiner) GetTenantRegistry() *tenant.Registry {
	if !d.initialized {
		panic("container not initalized")
	}
	return d.tenants
}

func (d *DIContiner) GetRepositoryFactory() persistence.RepositoryFactory {
	if !d.initialized {
		panic("container not initalized")
	}
	return d.repositories
}

func (d *DIContiner) GetDecrypter() secret.Decrypter {
	if !d.initialized {
		panic("container not initalized")
	}
	return d.decrypter
}

func (d *DIContiner) GetDataCollector() analytics.DataCollector {
	if !d.initialized {
		panic("container not initalized")
	}
	return d.collector
}

// Close releases everything Init opened, last opened first.
func (d *DIContiner) Close() error {
	var firstErr error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			logger.Error("error closing resource", zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	d.closers = nil
	return firstErr
}
