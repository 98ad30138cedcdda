package tenant

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/mohitkumar/actionhandler/logger"
	"github.com/mohitkumar/actionhandler/model"
	"github.com/mohitkumar/actionhandler/persistence"
	"github.com/mohitkumar/actionhandler/persistence/postgres"
	"go.uber.org/zap"
)

// PostgresSource reads the tenant list from the admin database.
type PostgresSource struct {
	db postgres.DB
}

var _ Source = new(PostgresSource)

func NewPostgresSource(db postgres.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

func (s *PostgresSource) LoadTenants(ctx context.Context) (map[string]*model.Tenant, error) {
	rows, err := s.db.Query(ctx, `SELECT tenant_id, tenant_name, connection_string, settings FROM tenants`)
	if err != nil {
		return nil, persistence.StorageLayerError{Message: "load tenants: " + err.Error()}
	}
	defer rows.Close()
	tenants := make(map[string]*model.Tenant)
	for rows.Next() {
		t := &model.Tenant{}
		var settings []byte
		if err := rows.Scan(&t.TenantId, &t.TenantName, &t.ConnectionString, &settings); err != nil {
			return nil, persistence.StorageLayerError{Message: "scan tenant: " + err.Error()}
		}
		if t.Settings, err = model.ParseTenantSettings(settings); err != nil {
			logger.Warn("ignoring invalid tenant settings", zap.String("tenant", t.TenantId), zap.Error(err))
		}
		tenants[t.TenantId] = t
	}
	if err := rows.Err(); err != nil {
		return nil, persistence.StorageLayerError{Message: "load tenants: " + err.Error()}
	}
	return tenants, nil
}

// SingleSource serves the one tenant configured for the process, its
// settings are read from the tenant database itself.
type SingleSource struct {
	tenantId         string
	connectionString string
	db               postgres.DB
}

var _ Source = new(SingleSource)

func NewSingleSource(tenantId string, connectionString string, db postgres.DB) *SingleSource {
	return &SingleSource{
		tenantId:         tenantId,
		connectionString: connectionString,
		db:               db,
	}
}

func (s *SingleSource) LoadTenants(ctx context.Context) (map[string]*model.Tenant, error) {
	t := &model.Tenant{
		TenantId:         s.tenantId,
		TenantName:       s.tenantId,
		ConnectionString: s.connectionString,
	}
	if s.db != nil {
		var settings []byte
		err := s.db.QueryRow(ctx, `SELECT settings FROM get_tenant_settings()`).Scan(&settings)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
		case err != nil:
			return nil, persistence.StorageLayerError{Message: "load tenant settings: " + err.Error()}
		default:
			if t.Settings, err = model.ParseTenantSettings(settings); err != nil {
				logger.Warn("ignoring invalid tenant settings", zap.String("tenant", t.TenantId), zap.Error(err))
			}
		}
	}
	return map[string]*model.Tenant{t.TenantId: t}, nil
}
