package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/mohitkumar/actionhandler/action"
	"github.com/mohitkumar/actionhandler/logger"
	"github.com/mohitkumar/actionhandler/model"
	"github.com/mohitkumar/actionhandler/persistence"
	"github.com/mohitkumar/actionhandler/trigger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type repository struct {
	db          DB
	permissions PermissionsSource
	users       UsersSource
}

var _ persistence.Repository = new(repository)

func NewRepository(conf Config) *repository {
	if conf.Permissions == nil {
		conf.Permissions = NewSqlPermissions(conf.DB)
	}
	if conf.Users == nil {
		conf.Users = NewSqlUsers(conf.DB)
	}
	return &repository{
		db:          conf.DB,
		permissions: conf.Permissions,
		users:       conf.Users,
	}
}

func (r *repository) GetWorkflowEventTriggersForTransition(ctx context.Context, userId int, artifactId int, workflowId int, fromStateId int, toStateId int) (*trigger.WorkflowTriggersContainer, error) {
	rows, err := r.db.Query(ctx,
		`SELECT name, artifact_id, required_previous_state_id, action_definition
		 FROM get_workflow_event_triggers_for_transition($1, $2, $3, $4, $5)`,
		userId, artifactId, workflowId, fromStateId, toStateId)
	if err != nil {
		return nil, storageError("get transition triggers", err)
	}
	return scanTriggers(rows)
}

func (r *repository) GetWorkflowEventTriggersForNewArtifactEvent(ctx context.Context, userId int, artifactIds []int, revisionId int) (*trigger.WorkflowTriggersContainer, error) {
	editable, err := r.permissions.FilterEditableArtifacts(ctx, userId, artifactIds)
	if err != nil {
		return nil, err
	}
	if len(editable) == 0 {
		return trigger.NewWorkflowTriggersContainer(), nil
	}
	rows, err := r.db.Query(ctx,
		`SELECT name, artifact_id, required_previous_state_id, action_definition
		 FROM get_workflow_event_triggers_for_new_artifact($1, $2)`,
		editable, revisionId)
	if err != nil {
		return nil, storageError("get new artifact triggers", err)
	}
	return scanTriggers(rows)
}

func (r *repository) GetWorkflowEventTriggersForPropertyChange(ctx context.Context, userId int, artifactIds []int, revisionId int, instancePropertyTypeIds []int) (*trigger.WorkflowTriggersContainer, error) {
	editable, err := r.permissions.FilterEditableArtifacts(ctx, userId, artifactIds)
	if err != nil {
		return nil, err
	}
	if len(editable) == 0 || len(instancePropertyTypeIds) == 0 {
		return trigger.NewWorkflowTriggersContainer(), nil
	}
	rows, err := r.db.Query(ctx,
		`SELECT name, artifact_id, required_previous_state_id, action_definition, event_property_type_id
		 FROM get_workflow_event_triggers_for_property_change($1, $2, $3)`,
		editable, revisionId, instancePropertyTypeIds)
	if err != nil {
		return nil, storageError("get property change triggers", err)
	}
	return scanPropertyChangeTriggers(rows)
}

// scanTriggers keeps load order. A definition that can not be parsed is
// skipped so one broken trigger does not block the workflow.
func scanTriggers(rows pgx.Rows) (*trigger.WorkflowTriggersContainer, error) {
	return scanTriggerRows(rows, false)
}

func scanPropertyChangeTriggers(rows pgx.Rows) (*trigger.WorkflowTriggersContainer, error) {
	return scanTriggerRows(rows, true)
}

func scanTriggerRows(rows pgx.Rows, withEventProperty bool) (*trigger.WorkflowTriggersContainer, error) {
	defer rows.Close()
	container := trigger.NewWorkflowTriggersContainer()
	for rows.Next() {
		var name string
		var artifactId, previousStateId, eventPropertyTypeId *int
		var definition []byte
		dest := []any{&name, &artifactId, &previousStateId, &definition}
		if withEventProperty {
			dest = append(dest, &eventPropertyTypeId)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, storageError("scan trigger", err)
		}
		act, err := action.ParseDefinition(definition)
		if err != nil {
			logger.Warn("skipping trigger with invalid action definition", zap.String("trigger", name), zap.Error(err))
			continue
		}
		t := trigger.NewWorkflowEventTrigger(name, act)
		if artifactId != nil {
			t.ArtifactId = *artifactId
		}
		if eventPropertyTypeId != nil {
			t.EventPropertyTypeId = *eventPropertyTypeId
		}
		if previousStateId != nil {
			t.Condition = &trigger.PreviousStateCondition{StateId: *previousStateId}
		}
		container.Add(t)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("read triggers", err)
	}
	return container, nil
}

func (r *repository) GetWorkflowStatesForArtifacts(ctx context.Context, userId int, artifactIds []int, revisionId int) (map[int]model.WorkflowState, error) {
	states := make(map[int]model.WorkflowState)
	if len(artifactIds) == 0 {
		return states, nil
	}
	rows, err := r.db.Query(ctx,
		`SELECT artifact_id, workflow_id, state_id, state_name
		 FROM get_workflow_states_for_artifacts($1, $2, $3)`,
		userId, artifactIds, revisionId)
	if err != nil {
		return nil, storageError("get workflow states", err)
	}
	defer rows.Close()
	for rows.Next() {
		var artifactId int
		var ws model.WorkflowState
		if err := rows.Scan(&artifactId, &ws.WorkflowId, &ws.StateId, &ws.StateName); err != nil {
			return nil, storageError("scan workflow state", err)
		}
		states[artifactId] = ws
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("get workflow states", err)
	}
	return states, nil
}

func (r *repository) GetInstancePropertyTypeIdsMap(ctx context.Context, customPropertyTypeIds []int) (map[int][]int, error) {
	result := make(map[int][]int)
	if len(customPropertyTypeIds) == 0 {
		return result, nil
	}
	rows, err := r.db.Query(ctx,
		`SELECT property_type_id, instance_property_type_id
		 FROM get_instance_property_type_ids($1)`, customPropertyTypeIds)
	if err != nil {
		return nil, storageError("get instance property type ids", err)
	}
	defer rows.Close()
	for rows.Next() {
		var propertyTypeId, instanceId int
		if err := rows.Scan(&propertyTypeId, &instanceId); err != nil {
			return nil, storageError("scan instance property type id", err)
		}
		result[propertyTypeId] = append(result[propertyTypeId], instanceId)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("get instance property type ids", err)
	}
	return result, nil
}

func (r *repository) GetProjectNameByIds(ctx context.Context, projectIds []int) ([]model.ProjectNameIdPair, error) {
	if len(projectIds) == 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx, `SELECT id, name FROM get_project_names($1)`, projectIds)
	if err != nil {
		return nil, storageError("get project names", err)
	}
	defer rows.Close()
	var pairs []model.ProjectNameIdPair
	for rows.Next() {
		var p model.ProjectNameIdPair
		if err := rows.Scan(&p.Id, &p.Name); err != nil {
			return nil, storageError("scan project name", err)
		}
		pairs = append(pairs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("get project names", err)
	}
	return pairs, nil
}

func (r *repository) GetPropertyTypesForArtifact(ctx context.Context, artifactId int, revisionId int) ([]*model.WorkflowPropertyType, error) {
	rows, err := r.db.Query(ctx,
		`SELECT instance_property_type_id, property_type_id, name, primitive_type, is_required, is_validate,
		        number_min, number_max, date_min, date_max, decimal_places, valid_values, allow_multiple
		 FROM get_property_types_for_artifact($1, $2)`, artifactId, revisionId)
	if err != nil {
		return nil, storageError("get property types", err)
	}
	defer rows.Close()
	var types []*model.WorkflowPropertyType
	for rows.Next() {
		pt := &model.WorkflowPropertyType{}
		var primitive int
		var numberMin, numberMax *string
		var dateMin, dateMax *time.Time
		var validValues []byte
		if err := rows.Scan(&pt.InstancePropertyTypeId, &pt.PropertyTypeId, &pt.Name, &primitive, &pt.IsRequired, &pt.IsValidate,
			&numberMin, &numberMax, &dateMin, &dateMax, &pt.DecimalPlaces, &validValues, &pt.AllowMultiple); err != nil {
			return nil, storageError("scan property type", err)
		}
		pt.PrimitiveType = model.PrimitiveType(primitive)
		if pt.NumberRange.Start, err = parseDecimal(numberMin); err != nil {
			return nil, err
		}
		if pt.NumberRange.End, err = parseDecimal(numberMax); err != nil {
			return nil, err
		}
		pt.DateRange = model.DateRange{Start: dateMin, End: dateMax}
		if len(validValues) > 0 {
			if err := json.Unmarshal(validValues, &pt.ValidValues); err != nil {
				return nil, fmt.Errorf("decode valid values of property type %d: %w", pt.InstancePropertyTypeId, err)
			}
		}
		types = append(types, pt)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("get property types", err)
	}
	return types, nil
}

func parseDecimal(v *string) (*decimal.Decimal, error) {
	if v == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(*v)
	if err != nil {
		return nil, fmt.Errorf("decode numeric range bound %q: %w", *v, err)
	}
	return &d, nil
}

func (r *repository) GetArtifactsInfo(ctx context.Context, artifactIds []int, revisionId int) (map[int]*model.ArtifactInfo, error) {
	infos := make(map[int]*model.ArtifactInfo)
	if len(artifactIds) == 0 {
		return infos, nil
	}
	rows, err := r.db.Query(ctx,
		`SELECT id, project_id, project_name, name, item_type_id, predefined_type
		 FROM get_artifacts_info($1, $2)`, artifactIds, revisionId)
	if err != nil {
		return nil, storageError("get artifacts info", err)
	}
	defer rows.Close()
	for rows.Next() {
		info := &model.ArtifactInfo{}
		if err := rows.Scan(&info.Id, &info.ProjectId, &info.ProjectName, &info.Name, &info.ItemTypeId, &info.PredefinedType); err != nil {
			return nil, storageError("scan artifact info", err)
		}
		infos[info.Id] = info
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("get artifacts info", err)
	}
	return infos, nil
}

func (r *repository) GetValidationContext(ctx context.Context, userIds []int, groupIds []int) (*model.ValidationContext, error) {
	if len(userIds) == 0 && len(groupIds) == 0 {
		return &model.ValidationContext{}, nil
	}
	users, groups, err := r.users.GetUsersAndGroups(ctx, userIds, groupIds)
	if err != nil {
		return nil, err
	}
	return &model.ValidationContext{Users: users, Groups: groups}, nil
}
