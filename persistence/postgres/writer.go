package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mohitkumar/actionhandler/model"
)

func (r *repository) UpdateArtifactProperty(ctx context.Context, userId int, artifactId int, revisionId int, value *model.PropertyLite) error {
	var number *string
	if value.NumberValue != nil {
		s := value.NumberValue.String()
		number = &s
	}
	var usersGroups []byte
	if len(value.UsersAndGroups) > 0 {
		data, err := json.Marshal(value.UsersAndGroups)
		if err != nil {
			return fmt.Errorf("encode users and groups: %w", err)
		}
		usersGroups = data
	}
	_, err := r.db.Exec(ctx,
		`CALL update_artifact_property($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		userId, artifactId, revisionId, value.PropertyTypeId,
		value.TextOrChoiceValue, number, value.DateValue, usersGroups, value.ChoiceIds)
	if err != nil {
		return storageError("update artifact property", err)
	}
	return nil
}
