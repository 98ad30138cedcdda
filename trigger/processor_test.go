package trigger

import (
	"context"
	"errors"
	"testing"

	"github.com/mohitkumar/actionhandler/action"
	"github.com/mohitkumar/actionhandler/model"
	"github.com/mohitkumar/actionhandler/validation"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type recordingExecutor struct {
	executed []action.SynchronousAction
	err      error
}

func (r *recordingExecutor) ExecuteSynchronousActions(_ context.Context, _ *action.ExecutionParameters, actions []action.SynchronousAction) error {
	r.executed = append(r.executed, actions...)
	return r.err
}

type recordingDispatcher struct {
	dispatched []action.AsynchronousAction
}

func (r *recordingDispatcher) DispatchAsynchronousActions(_ context.Context, _ *action.ExecutionParameters, actions []action.AsynchronousAction) error {
	r.dispatched = append(r.dispatched, actions...)
	return nil
}

type panickingAction struct {
	*action.PropertyChangeAction
}

func (a *panickingAction) ValidateAction(_ *action.ExecutionParameters) *model.PropertySetResult {
	panic("boom")
}

type panickingCondition struct{}

func (panickingCondition) IsSatisfied(_ *action.ExecutionParameters) bool {
	panic("condition lookup failed")
}

func decimalPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func testParams() *action.ExecutionParameters {
	propertyTypes := []*model.WorkflowPropertyType{
		{InstancePropertyTypeId: 1, Name: "Title", PrimitiveType: model.PRIMITIVE_TEXT, IsRequired: true},
		{
			InstancePropertyTypeId: 2,
			Name:                   "Priority",
			PrimitiveType:          model.PRIMITIVE_NUMBER,
			IsRequired:             true,
			IsValidate:             true,
			NumberRange:            model.NumberRange{Start: decimalPtr("1"), End: decimalPtr("5")},
		},
	}
	vctx := &model.ValidationContext{Users: []model.UserGroup{{Id: 3, Email: "dev@example.com"}}}
	artifact := &model.ArtifactInfo{Id: 42, ProjectId: 1, Name: "Login"}
	return action.NewExecutionParameters(3, 9, artifact, propertyTypes, validation.NewValidators(), vctx)
}

func TestProcessor(t *testing.T) {
	for scenario, fn := range map[string]func(
		t *testing.T, p *Processor, exec *recordingExecutor, disp *recordingDispatcher,
	){
		"duplicate names collapse":        testDuplicateNames,
		"evaluation is idempotent":        testIdempotent,
		"panic is isolated":               testPanicIsolated,
		"no triggers":                     testNoTriggers,
		"sync actions run in order":       testSyncOrder,
		"unmet condition is skipped":      testConditionSkipped,
		"invalid priority not sent":       testPriorityOutOfRange,
		"failure withholds named action":  testFailureWithholdsEarlierAction,
		"panicking condition is isolated": testPanickingCondition,
		"sync failure stops dispatch":     testSyncFailure,
	} {
		t.Run(scenario, func(t *testing.T) {
			exec := &recordingExecutor{}
			disp := &recordingDispatcher{}
			fn(t, NewProcessor(exec, disp), exec, disp)
		})
	}
}

func testDuplicateNames(t *testing.T, p *Processor, _ *recordingExecutor, _ *recordingDispatcher) {
	triggers := []*WorkflowEventTrigger{
		NewWorkflowEventTrigger("X", action.NewPropertyChangeAction(1, "", nil)),
		NewWorkflowEventTrigger("X", action.NewPropertyChangeAction(99, "value", nil)),
	}
	res, err := p.Process(context.Background(), triggers, testParams())
	require.NoError(t, err)
	require.Len(t, res.Errors, 1)
	require.Contains(t, res.Errors, "X")
	require.False(t, res.HasActions())
}

func testIdempotent(t *testing.T, p *Processor, _ *recordingExecutor, _ *recordingDispatcher) {
	triggers := []*WorkflowEventTrigger{
		NewWorkflowEventTrigger("A", action.NewPropertyChangeAction(2, "9", nil)),
		NewWorkflowEventTrigger("B", action.NewPropertyChangeAction(1, "ok", nil)),
		NewWorkflowEventTrigger("C", action.NewWebhookAction(1, "not a url")),
	}
	params := testParams()
	first := p.Evaluate(triggers, params)
	second := p.Evaluate(triggers, params)
	require.Equal(t, first.Errors, second.Errors)
	require.Len(t, first.Errors, 2)
	require.Len(t, first.SyncActions, 1)
}

func testPanicIsolated(t *testing.T, p *Processor, exec *recordingExecutor, disp *recordingDispatcher) {
	triggers := []*WorkflowEventTrigger{
		NewWorkflowEventTrigger("broken", &panickingAction{action.NewPropertyChangeAction(1, "x", nil)}),
		NewWorkflowEventTrigger("title", action.NewPropertyChangeAction(1, "new title", nil)),
		NewWorkflowEventTrigger("notify", action.NewEmailNotificationAction([]string{"qa@example.com"}, nil, "s", "h", "m")),
	}
	res, err := p.Process(context.Background(), triggers, testParams())
	require.NoError(t, err)
	require.Len(t, res.Errors, 1)
	require.Equal(t, model.ERROR_ACTION_EVALUATION_FAILED, res.Errors["broken"].ErrorCode)
	require.Len(t, exec.executed, 1)
	require.Len(t, disp.dispatched, 1)
}

func testNoTriggers(t *testing.T, p *Processor, exec *recordingExecutor, disp *recordingDispatcher) {
	res, err := p.Process(context.Background(), NewWorkflowTriggersContainer().AllTriggers(), testParams())
	require.NoError(t, err)
	require.Empty(t, res.SyncActions)
	require.Empty(t, res.AsyncActions)
	require.Empty(t, res.Errors)
	require.Empty(t, exec.executed)
	require.Empty(t, disp.dispatched)
}

func testSyncOrder(t *testing.T, p *Processor, exec *recordingExecutor, _ *recordingDispatcher) {
	first := action.NewPropertyChangeAction(1, "first", nil)
	second := action.NewPropertyChangeAction(2, "3", nil)
	container := NewWorkflowTriggersContainer(
		NewWorkflowEventTrigger("hook", action.NewWebhookAction(5, "https://example.com/hook")),
		NewWorkflowEventTrigger("one", first),
		NewWorkflowEventTrigger("two", second),
	)
	require.Len(t, container.SynchronousTriggers, 2)
	require.Len(t, container.AsynchronousTriggers, 1)

	_, err := p.Process(context.Background(), container.AllTriggers(), testParams())
	require.NoError(t, err)
	require.Equal(t, []action.SynchronousAction{first, second}, exec.executed)
}

func testConditionSkipped(t *testing.T, p *Processor, exec *recordingExecutor, _ *recordingDispatcher) {
	params := testParams()
	params.PreviousStateId = 7
	skipped := NewWorkflowEventTrigger("from draft", action.NewPropertyChangeAction(1, "", nil))
	skipped.Condition = &PreviousStateCondition{StateId: 6}
	kept := NewWorkflowEventTrigger("from review", action.NewPropertyChangeAction(1, "approved", nil))
	kept.Condition = &PreviousStateCondition{StateId: 7}

	res, err := p.Process(context.Background(), []*WorkflowEventTrigger{skipped, kept}, params)
	require.NoError(t, err)
	require.Empty(t, res.Errors)
	require.Len(t, exec.executed, 1)
}

func testPriorityOutOfRange(t *testing.T, p *Processor, exec *recordingExecutor, disp *recordingDispatcher) {
	other := action.NewEmailNotificationAction([]string{"qa@example.com"}, nil, "s", "h", "m")
	triggers := []*WorkflowEventTrigger{
		NewWorkflowEventTrigger("NotifyOnPriorityChange", action.NewPropertyChangeAction(2, "6", nil)),
		NewWorkflowEventTrigger("NotifyOnPriorityChange", action.NewEmailNotificationAction([]string{"dev@example.com"}, nil, "Priority", "h", "m")),
		NewWorkflowEventTrigger("NotifyQa", other),
	}
	res, err := p.Process(context.Background(), triggers, testParams())
	require.NoError(t, err)
	require.Len(t, res.Errors, 1)
	require.Equal(t, model.ERROR_INVALID_ARTIFACT_PROPERTY, res.Errors["NotifyOnPriorityChange"].ErrorCode)
	require.Empty(t, exec.executed)
	require.Equal(t, []action.AsynchronousAction{other}, disp.dispatched)
}

func testFailureWithholdsEarlierAction(t *testing.T, p *Processor, exec *recordingExecutor, _ *recordingDispatcher) {
	triggers := []*WorkflowEventTrigger{
		NewWorkflowEventTrigger("SetPriority", action.NewPropertyChangeAction(1, "valid title", nil)),
		NewWorkflowEventTrigger("SetPriority", action.NewPropertyChangeAction(2, "0", nil)),
	}
	res, err := p.Process(context.Background(), triggers, testParams())
	require.NoError(t, err)
	require.Contains(t, res.Errors, "SetPriority")
	require.False(t, res.HasActions())
	require.Empty(t, exec.executed)
}

func testPanickingCondition(t *testing.T, p *Processor, exec *recordingExecutor, _ *recordingDispatcher) {
	params := testParams()
	broken := NewWorkflowEventTrigger("broken condition", action.NewPropertyChangeAction(1, "x", nil))
	broken.Condition = panickingCondition{}
	sibling := NewWorkflowEventTrigger("title", action.NewPropertyChangeAction(1, "new title", nil))

	res, err := p.Process(context.Background(), []*WorkflowEventTrigger{broken, sibling}, params)
	require.NoError(t, err)
	require.Len(t, res.Errors, 1)
	require.Equal(t, model.ERROR_ACTION_EVALUATION_FAILED, res.Errors["broken condition"].ErrorCode)
	require.Equal(t, []action.SynchronousAction{sibling.Action.(action.SynchronousAction)}, exec.executed)
}

func testSyncFailure(t *testing.T, p *Processor, exec *recordingExecutor, disp *recordingDispatcher) {
	exec.err = errors.New("database unavailable")
	triggers := []*WorkflowEventTrigger{
		NewWorkflowEventTrigger("title", action.NewPropertyChangeAction(1, "x", nil)),
		NewWorkflowEventTrigger("notify", action.NewEmailNotificationAction([]string{"qa@example.com"}, nil, "s", "h", "m")),
	}
	_, err := p.Process(context.Background(), triggers, testParams())
	require.Error(t, err)
	require.Empty(t, disp.dispatched)
}

func TestContainerForArtifact(t *testing.T) {
	shared := NewWorkflowEventTrigger("all", action.NewGenerateTestCasesAction())
	own := NewWorkflowEventTrigger("own", action.NewPropertyChangeAction(1, "x", nil))
	own.ArtifactId = 10
	other := NewWorkflowEventTrigger("other", action.NewPropertyChangeAction(1, "y", nil))
	other.ArtifactId = 11

	c := NewWorkflowTriggersContainer(shared, own, other).ForArtifact(10)
	require.Equal(t, []*WorkflowEventTrigger{own, shared}, c.AllTriggers())
	require.True(t, NewWorkflowTriggersContainer().IsEmpty())
}

func TestContainerForPropertyChange(t *testing.T) {
	onTitle := NewWorkflowEventTrigger("title changed", action.NewPropertyChangeAction(1, "x", nil))
	onTitle.EventPropertyTypeId = 21
	onPriority := NewWorkflowEventTrigger("priority changed", action.NewGenerateTestCasesAction())
	onPriority.EventPropertyTypeId = 22
	otherArtifact := NewWorkflowEventTrigger("title changed elsewhere", action.NewGenerateTestCasesAction())
	otherArtifact.ArtifactId = 11
	otherArtifact.EventPropertyTypeId = 21
	c := NewWorkflowTriggersContainer(onTitle, onPriority, otherArtifact)

	require.Equal(t, []*WorkflowEventTrigger{onTitle}, c.ForPropertyChange(10, []int{21}).AllTriggers())
	require.Equal(t, []*WorkflowEventTrigger{onPriority}, c.ForPropertyChange(10, []int{22}).AllTriggers())
	require.Equal(t, []*WorkflowEventTrigger{otherArtifact}, c.ForPropertyChange(11, []int{21}).AllTriggers())
	require.True(t, c.ForPropertyChange(10, nil).IsEmpty())
}
