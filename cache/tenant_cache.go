package cache

import (
	"time"

	"github.com/mohitkumar/actionhandler/model"
	c "github.com/patrickmn/go-cache"
)

const TENANTS_KEY = "tenants"

// TenantCache holds the whole tenant map as one entry, it expires as a unit.
type TenantCache struct {
	cache      *c.Cache
	expiration time.Duration
}

func NewTenantCache(expiration time.Duration) *TenantCache {
	return &TenantCache{
		cache:      c.New(expiration, 10*time.Minute),
		expiration: expiration,
	}
}

func (ch *TenantCache) SaveTenants(tenants map[string]*model.Tenant) {
	ch.cache.Set(TENANTS_KEY, tenants, ch.expiration)
}

func (ch *TenantCache) GetTenants() (map[string]*model.Tenant, bool) {
	v, found := ch.cache.Get(TENANTS_KEY)
	if !found {
		return nil, false
	}
	return v.(map[string]*model.Tenant), true
}

func (ch *TenantCache) Invalidate() {
	ch.cache.Delete(TENANTS_KEY)
}
