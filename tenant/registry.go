package tenant

import (
	"context"
	"time"

	"github.com/mohitkumar/actionhandler/cache"
	"github.com/mohitkumar/actionhandler/logger"
	"github.com/mohitkumar/actionhandler/metrics"
	"github.com/mohitkumar/actionhandler/model"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Source loads every tenant the process may serve.
type Source interface {
	LoadTenants(ctx context.Context) (map[string]*model.Tenant, error)
}

type Config struct {
	Source     Source
	Expiration time.Duration
	// DefaultTenantId resolves messages that carry no tenant id.
	DefaultTenantId string
}

// Registry resolves tenants from a time bounded cache. When the cache expires
// the first caller reloads it and concurrent callers share that reload.
type Registry struct {
	source          Source
	cache           *cache.TenantCache
	group           singleflight.Group
	defaultTenantId string
}

func NewRegistry(conf Config) *Registry {
	if conf.Expiration <= 0 {
		conf.Expiration = 24 * time.Hour
	}
	return &Registry{
		source:          conf.Source,
		cache:           cache.NewTenantCache(conf.Expiration),
		defaultTenantId: conf.DefaultTenantId,
	}
}

func (r *Registry) GetTenant(ctx context.Context, tenantId string) (*model.Tenant, error) {
	if tenantId == "" {
		tenantId = r.defaultTenantId
	}
	tenants, err := r.tenants(ctx)
	if err != nil {
		return nil, err
	}
	t, ok := tenants[tenantId]
	if !ok {
		return nil, model.TenantNotFoundError{TenantId: tenantId}
	}
	return t, nil
}

func (r *Registry) GetTenants(ctx context.Context) ([]*model.Tenant, error) {
	tenants, err := r.tenants(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Tenant, 0, len(tenants))
	for _, t := range tenants {
		out = append(out, t)
	}
	return out, nil
}

// Refresh drops the cached tenants and reloads them from the source.
func (r *Registry) Refresh(ctx context.Context) ([]*model.Tenant, error) {
	r.cache.Invalidate()
	return r.GetTenants(ctx)
}

func (r *Registry) tenants(ctx context.Context) (map[string]*model.Tenant, error) {
	if tenants, ok := r.cache.GetTenants(); ok {
		return tenants, nil
	}
	v, err, _ := r.group.Do(cache.TENANTS_KEY, func() (any, error) {
		if tenants, ok := r.cache.GetTenants(); ok {
			return tenants, nil
		}
		tenants, err := r.source.LoadTenants(ctx)
		if err != nil {
			logger.Error("error loading tenants", zap.Error(err))
			return nil, err
		}
		r.cache.SaveTenants(tenants)
		metrics.TenantCacheRefreshes.Inc()
		logger.Info("tenant registry refreshed", zap.Int("tenants", len(tenants)))
		return tenants, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]*model.Tenant), nil
}
