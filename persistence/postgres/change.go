package postgres

import (
	"context"
)

func (r *repository) GetArtifactIdsForWorkflows(ctx context.Context, workflowIds []int) ([]int, error) {
	if len(workflowIds) == 0 {
		return nil, nil
	}
	return r.queryIds(ctx, "get artifacts for workflows",
		`SELECT artifact_id FROM get_artifacts_for_workflows($1)`, workflowIds)
}

func (r *repository) GetArtifactIdsForUsersGroups(ctx context.Context, userIds []int, groupIds []int) ([]int, error) {
	if len(userIds) == 0 && len(groupIds) == 0 {
		return nil, nil
	}
	return r.queryIds(ctx, "get artifacts for users and groups",
		`SELECT artifact_id FROM get_artifacts_for_users_groups($1, $2)`, userIds, groupIds)
}

func (r *repository) GetArtifactIdsForItemTypes(ctx context.Context, itemTypeIds []int, propertyTypeIds []int) ([]int, error) {
	if len(itemTypeIds) == 0 && len(propertyTypeIds) == 0 {
		return nil, nil
	}
	return r.queryIds(ctx, "get artifacts for item types",
		`SELECT artifact_id FROM get_artifacts_for_item_types($1, $2)`, itemTypeIds, propertyTypeIds)
}

func (r *repository) Ping(ctx context.Context) error {
	var one int
	if err := r.db.QueryRow(ctx, `SELECT 1`).Scan(&one); err != nil {
		return storageError("ping", err)
	}
	return nil
}

func (r *repository) queryIds(ctx context.Context, op string, sql string, args ...any) ([]int, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, storageError(op, err)
	}
	defer rows.Close()
	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, storageError(op, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError(op, err)
	}
	return ids, nil
}
