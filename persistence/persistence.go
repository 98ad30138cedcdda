package persistence

import (
	"context"
	"fmt"

	"github.com/mohitkumar/actionhandler/model"
	"github.com/mohitkumar/actionhandler/trigger"
)

type StorageLayerError struct {
	Message string
}

func (e StorageLayerError) Error() string {
	return fmt.Sprintf("storage layer error %s", e.Message)
}

// TriggerRepository is the read side of a tenant database.
type TriggerRepository interface {
	GetWorkflowEventTriggersForTransition(ctx context.Context, userId int, artifactId int, workflowId int, fromStateId int, toStateId int) (*trigger.WorkflowTriggersContainer, error)
	GetWorkflowEventTriggersForNewArtifactEvent(ctx context.Context, userId int, artifactIds []int, revisionId int) (*trigger.WorkflowTriggersContainer, error)
	GetWorkflowEventTriggersForPropertyChange(ctx context.Context, userId int, artifactIds []int, revisionId int, instancePropertyTypeIds []int) (*trigger.WorkflowTriggersContainer, error)
	GetWorkflowStatesForArtifacts(ctx context.Context, userId int, artifactIds []int, revisionId int) (map[int]model.WorkflowState, error)
	GetInstancePropertyTypeIdsMap(ctx context.Context, customPropertyTypeIds []int) (map[int][]int, error)
	GetProjectNameByIds(ctx context.Context, projectIds []int) ([]model.ProjectNameIdPair, error)
	GetPropertyTypesForArtifact(ctx context.Context, artifactId int, revisionId int) ([]*model.WorkflowPropertyType, error)
	GetArtifactsInfo(ctx context.Context, artifactIds []int, revisionId int) (map[int]*model.ArtifactInfo, error)
	GetValidationContext(ctx context.Context, userIds []int, groupIds []int) (*model.ValidationContext, error)
}

// PropertyWriter persists the values produced by synchronous actions.
type PropertyWriter interface {
	UpdateArtifactProperty(ctx context.Context, userId int, artifactId int, revisionId int, value *model.PropertyLite) error
}

// ChangeRepository answers which artifacts a configuration change affects.
type ChangeRepository interface {
	GetArtifactIdsForWorkflows(ctx context.Context, workflowIds []int) ([]int, error)
	GetArtifactIdsForUsersGroups(ctx context.Context, userIds []int, groupIds []int) ([]int, error)
	GetArtifactIdsForItemTypes(ctx context.Context, itemTypeIds []int, propertyTypeIds []int) ([]int, error)
	Ping(ctx context.Context) error
}

// Repository is everything a message handler needs from one tenant database.
type Repository interface {
	TriggerRepository
	PropertyWriter
	ChangeRepository
}

// RepositoryFactory opens the repository bound to a tenant store.
type RepositoryFactory interface {
	ForTenant(ctx context.Context, tenant *model.Tenant) (Repository, error)
	Close()
}

// JobQueue holds the generation and indexing jobs handed to other services.
type JobQueue interface {
	AddJob(ctx context.Context, job *model.GenerationJob) error
	PendingJobs(ctx context.Context, tenantId string) ([]*model.GenerationJob, error)
}
