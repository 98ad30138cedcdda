package postgres

import (
	"context"

	"github.com/mohitkumar/actionhandler/model"
)

type sqlPermissions struct {
	db DB
}

var _ PermissionsSource = new(sqlPermissions)

func NewSqlPermissions(db DB) *sqlPermissions {
	return &sqlPermissions{db: db}
}

func (p *sqlPermissions) FilterEditableArtifacts(ctx context.Context, userId int, artifactIds []int) ([]int, error) {
	if len(artifactIds) == 0 {
		return nil, nil
	}
	rows, err := p.db.Query(ctx, `SELECT artifact_id FROM get_editable_artifacts($1, $2)`, userId, artifactIds)
	if err != nil {
		return nil, storageError("filter editable artifacts", err)
	}
	defer rows.Close()
	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, storageError("scan editable artifact", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("filter editable artifacts", err)
	}
	return ids, nil
}

type sqlUsers struct {
	db DB
}

var _ UsersSource = new(sqlUsers)

func NewSqlUsers(db DB) *sqlUsers {
	return &sqlUsers{db: db}
}

func (u *sqlUsers) GetUsersAndGroups(ctx context.Context, userIds []int, groupIds []int) ([]model.UserGroup, []model.UserGroup, error) {
	rows, err := u.db.Query(ctx,
		`SELECT id, is_group, display_name, email FROM get_users_and_groups($1, $2)`, userIds, groupIds)
	if err != nil {
		return nil, nil, storageError("get users and groups", err)
	}
	defer rows.Close()
	var users, groups []model.UserGroup
	for rows.Next() {
		var ug model.UserGroup
		var email *string
		if err := rows.Scan(&ug.Id, &ug.IsGroup, &ug.DisplayName, &email); err != nil {
			return nil, nil, storageError("scan user or group", err)
		}
		if email != nil {
			ug.Email = *email
		}
		if ug.IsGroup {
			groups = append(groups, ug)
		} else {
			users = append(users, ug)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, storageError("get users and groups", err)
	}
	return users, groups, nil
}
