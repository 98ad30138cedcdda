package postgres

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mohitkumar/actionhandler/logger"
	"github.com/mohitkumar/actionhandler/metrics"
	"github.com/mohitkumar/actionhandler/model"
	"github.com/mohitkumar/actionhandler/persistence"
	"go.uber.org/zap"
)

// PoolFactory keeps one connection pool per tenant for the life of the process.
type PoolFactory struct {
	mu    sync.Mutex
	pools map[string]*pgxpool.Pool
}

var _ persistence.RepositoryFactory = new(PoolFactory)

func NewPoolFactory() *PoolFactory {
	return &PoolFactory{
		pools: make(map[string]*pgxpool.Pool),
	}
}

func (f *PoolFactory) ForTenant(ctx context.Context, tenant *model.Tenant) (persistence.Repository, error) {
	pool, err := f.pool(ctx, tenant)
	if err != nil {
		return nil, err
	}
	return NewRepository(Config{
		DB:          pool,
		Permissions: NewSqlPermissions(pool),
		Users:       NewSqlUsers(pool),
	}), nil
}

func (f *PoolFactory) pool(ctx context.Context, tenant *model.Tenant) (*pgxpool.Pool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if pool, ok := f.pools[tenant.TenantId]; ok {
		return pool, nil
	}
	pool, err := pgxpool.New(ctx, tenant.ConnectionString)
	if err != nil {
		logger.Error("error opening tenant database", zap.String("tenant", tenant.TenantId), zap.Error(err))
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	metrics.RegisterPgxPoolMetrics(tenant.TenantId, pool)
	f.pools[tenant.TenantId] = pool
	logger.Info("opened tenant database", zap.String("tenant", tenant.TenantId))
	return pool, nil
}

func (f *PoolFactory) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, pool := range f.pools {
		pool.Close()
		delete(f.pools, id)
	}
}
