package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mohitkumar/actionhandler/action"
	"github.com/mohitkumar/actionhandler/logger"
	"github.com/mohitkumar/actionhandler/metrics"
	"github.com/mohitkumar/actionhandler/model"
	"github.com/mohitkumar/actionhandler/persistence"
	"github.com/mohitkumar/actionhandler/transport"
	"github.com/mohitkumar/actionhandler/trigger"
	"github.com/mohitkumar/actionhandler/util"
	"github.com/mohitkumar/actionhandler/validation"
	"go.uber.org/zap"
)

const EVENT_ARTIFACT_CREATED = "ArtifactCreated"
const EVENT_PROPERTY_CHANGED = "PropertyChanged"
const EVENT_STATE_CHANGED = "StateChanged"

// event describes what happened to the artifact a trigger run is about.
type event struct {
	eventType string
	stateName string
}

// pipeline runs the triggers of one artifact and turns the surviving actions
// into property writes and follow-up messages.
type pipeline struct {
	publisher  transport.Publisher
	validators *validation.Validators
}

func (p *pipeline) run(ctx context.Context, tenant *model.Tenant, msg *model.ActionMessage, repo persistence.Repository, artifact *model.ArtifactInfo, triggers *trigger.WorkflowTriggersContainer, previousStateId int, ev event) (*trigger.Result, error) {
	propertyTypes, err := repo.GetPropertyTypesForArtifact(ctx, artifact.Id, msg.RevisionId)
	if err != nil {
		return nil, err
	}
	all := triggers.AllTriggers()
	vctx := &model.ValidationContext{}
	if userIds, groupIds := userGroupRefs(all); len(userIds)+len(groupIds) > 0 {
		vctx, err = repo.GetValidationContext(ctx, userIds, groupIds)
		if err != nil {
			return nil, err
		}
	}
	params := action.NewExecutionParameters(msg.UserId, msg.RevisionId, artifact, propertyTypes, p.validators, vctx)
	params.UserName = msg.UserName
	params.PreviousStateId = previousStateId

	processor := trigger.NewProcessor(
		&propertyExecutor{writer: repo},
		&followUpDispatcher{publisher: p.publisher, tenant: tenant, parent: msg, event: ev},
	)
	res, err := processor.Process(ctx, all, params)
	if res != nil && len(res.Errors) > 0 {
		metrics.TriggerValidationErrors.Add(float64(len(res.Errors)))
	}
	return res, err
}

// userGroupRefs collects the users and groups the actions refer to, so they
// can be resolved in one query.
func userGroupRefs(triggers []*trigger.WorkflowEventTrigger) ([]int, []int) {
	var userIds, groupIds []int
	add := func(refs []model.UserGroup) {
		for _, ref := range refs {
			if ref.IsGroup {
				groupIds = append(groupIds, ref.Id)
			} else {
				userIds = append(userIds, ref.Id)
			}
		}
	}
	for _, t := range triggers {
		switch act := t.Action.(type) {
		case *action.PropertyChangeUserGroupsAction:
			add(act.UserGroups)
		case *action.EmailNotificationAction:
			add(act.UserGroups)
		}
	}
	return util.Unique(userIds), util.Unique(groupIds)
}

var _ trigger.SyncExecutor = new(propertyExecutor)

type propertyExecutor struct {
	writer persistence.PropertyWriter
}

func (e *propertyExecutor) ExecuteSynchronousActions(ctx context.Context, params *action.ExecutionParameters, actions []action.SynchronousAction) error {
	for _, act := range actions {
		var value *model.PropertyLite
		switch a := act.(type) {
		case *action.PropertyChangeAction:
			value = a.PropertyLiteValue
		case *action.PropertyChangeUserGroupsAction:
			value = a.PropertyLiteValue
		default:
			return fmt.Errorf("synchronous action %s is not supported", act.GetActionType())
		}
		if err := e.writer.UpdateArtifactProperty(ctx, params.UserId, params.Artifact.Id, params.RevisionId, value); err != nil {
			return err
		}
		logger.Debug("artifact property updated", zap.Int("artifact", params.Artifact.Id), zap.Int("propertyType", value.PropertyTypeId))
	}
	return nil
}

var _ trigger.AsyncDispatcher = new(followUpDispatcher)

// followUpDispatcher publishes one message per asynchronous action. Message
// ids derive from the parent message so a redelivered parent produces the
// same ids.
type followUpDispatcher struct {
	publisher transport.Publisher
	tenant    *model.Tenant
	parent    *model.ActionMessage
	event     event
}

func (d *followUpDispatcher) DispatchAsynchronousActions(ctx context.Context, params *action.ExecutionParameters, actions []action.AsynchronousAction) error {
	artifact := params.Artifact
	for i, act := range actions {
		actionType, payload, err := d.followUp(act, artifact)
		if err != nil {
			return err
		}
		id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s/%d/%d", d.parent.MessageId, artifact.Id, i))).String()
		msg, err := model.NewActionMessage(id, d.tenant.TenantId, actionType, params.UserId, params.RevisionId, payload)
		if err != nil {
			return err
		}
		msg.UserName = params.UserName
		if err := d.publisher.Publish(ctx, msg); err != nil {
			return err
		}
		logger.Info("follow up message published", zap.String("parent", d.parent.MessageId), zap.String("message", id), zap.String("actionType", string(actionType)), zap.Int("artifact", artifact.Id))
	}
	return nil
}

func (d *followUpDispatcher) followUp(act action.AsynchronousAction, artifact *model.ArtifactInfo) (model.ActionType, any, error) {
	artifactUrl := ArtifactUrl(d.tenant.Settings.BaseUrl, artifact.Id)
	switch a := act.(type) {
	case *action.EmailNotificationAction:
		return model.ACTION_NOTIFICATION, &model.NotificationMessage{
			To:                     a.Recipients(),
			Subject:                a.Subject,
			Header:                 a.Header,
			Message:                a.Message,
			ArtifactId:             artifact.Id,
			ArtifactName:           artifact.Name,
			ProjectId:              artifact.ProjectId,
			ProjectName:            artifact.ProjectName,
			ArtifactUrl:            artifactUrl,
			ArtifactTypeId:         artifact.ItemTypeId,
			ArtifactTypePredefined: artifact.PredefinedType,
		}, nil
	case *action.WebhookAction:
		body, err := json.Marshal(&model.WebhookPayload{
			EventType:    d.event.eventType,
			ArtifactId:   artifact.Id,
			ArtifactName: artifact.Name,
			ProjectId:    artifact.ProjectId,
			ProjectName:  artifact.ProjectName,
			ArtifactUrl:  artifactUrl,
			State:        d.event.stateName,
			RevisionId:   d.parent.RevisionId,
		})
		if err != nil {
			return "", nil, err
		}
		return model.ACTION_WEBHOOK, &model.WebhookMessage{
			WebhookId:                   a.WebhookId,
			Url:                         a.Url,
			IgnoreInvalidSSLCertificate: a.IgnoreInvalidSSLCertificate,
			HttpHeaders:                 a.HttpHeaders,
			BasicAuthUsername:           a.BasicAuthUsername,
			BasicAuthPassword:           a.BasicAuthPassword,
			SignatureSecretToken:        a.SignatureSecretToken,
			SignatureAlgorithm:          a.SignatureAlgorithm,
			PayloadContent:              string(body),
		}, nil
	case *action.GenerateChildrenAction:
		return model.ACTION_GENERATE_DESCENDANTS, &model.GenerateDescendantsMessage{
			ArtifactId:        artifact.Id,
			ProjectId:         artifact.ProjectId,
			ChildCount:        a.ChildCount,
			DesiredItemTypeId: a.ArtifactTypeId,
		}, nil
	case *action.GenerateTestCasesAction:
		return model.ACTION_GENERATE_TESTS, &model.GenerateTestsMessage{ArtifactId: artifact.Id, ProjectId: artifact.ProjectId}, nil
	case *action.GenerateUserStoriesAction:
		return model.ACTION_GENERATE_USER_STORIES, &model.GenerateUserStoriesMessage{ArtifactId: artifact.Id, ProjectId: artifact.ProjectId}, nil
	}
	return "", nil, fmt.Errorf("asynchronous action %s is not supported", act.GetActionType())
}

// ArtifactUrl links to the artifact in the web client of a tenant.
func ArtifactUrl(baseUrl string, artifactId int) string {
	if baseUrl == "" {
		return ""
	}
	return fmt.Sprintf("%s/Web/#/Main/%d", strings.TrimRight(baseUrl, "/"), artifactId)
}
