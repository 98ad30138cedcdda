package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mohitkumar/actionhandler/model"
	"github.com/mohitkumar/actionhandler/persistence"
)

// DB defines the database operations used by the repositories.
// *pgxpool.Pool satisfies this interface.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PermissionsSource filters artifacts down to the ones a user may edit.
type PermissionsSource interface {
	FilterEditableArtifacts(ctx context.Context, userId int, artifactIds []int) ([]int, error)
}

// UsersSource loads the users and groups property values are checked against.
type UsersSource interface {
	GetUsersAndGroups(ctx context.Context, userIds []int, groupIds []int) ([]model.UserGroup, []model.UserGroup, error)
}

// Config is everything a tenant repository is built from.
type Config struct {
	DB          DB
	Permissions PermissionsSource
	Users       UsersSource
}

func storageError(op string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	return persistence.StorageLayerError{Message: op + ": " + err.Error()}
}
