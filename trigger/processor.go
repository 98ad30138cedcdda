package trigger

import (
	"context"
	"fmt"

	"github.com/mohitkumar/actionhandler/action"
	"github.com/mohitkumar/actionhandler/logger"
	"github.com/mohitkumar/actionhandler/model"
	"go.uber.org/zap"
)

// SyncExecutor runs synchronous actions in order before processing returns.
type SyncExecutor interface {
	ExecuteSynchronousActions(ctx context.Context, params *action.ExecutionParameters, actions []action.SynchronousAction) error
}

// AsyncDispatcher hands asynchronous actions off for later execution.
type AsyncDispatcher interface {
	DispatchAsynchronousActions(ctx context.Context, params *action.ExecutionParameters, actions []action.AsynchronousAction) error
}

type Result struct {
	SyncActions  []action.SynchronousAction
	AsyncActions []action.AsynchronousAction
	Errors       map[string]*model.PropertySetResult
}

func (r *Result) HasActions() bool {
	return len(r.SyncActions)+len(r.AsyncActions) > 0
}

type Processor struct {
	syncExecutor    SyncExecutor
	asyncDispatcher AsyncDispatcher
}

func NewProcessor(syncExecutor SyncExecutor, asyncDispatcher AsyncDispatcher) *Processor {
	return &Processor{
		syncExecutor:    syncExecutor,
		asyncDispatcher: asyncDispatcher,
	}
}

// Evaluate validates every trigger and partitions the valid actions. Failures
// are keyed by trigger name so duplicate names collapse into one entry. An
// action is withheld when any trigger sharing its name failed in this pass.
func (p *Processor) Evaluate(triggers []*WorkflowEventTrigger, params *action.ExecutionParameters) *Result {
	res := &Result{
		Errors: make(map[string]*model.PropertySetResult),
	}
	applicable := make([]*WorkflowEventTrigger, 0, len(triggers))
	for _, t := range triggers {
		if t == nil || t.Action == nil {
			continue
		}
		applies, failure := p.validate(t, params)
		if failure != nil {
			res.Errors[t.Name] = failure
			continue
		}
		if applies {
			applicable = append(applicable, t)
		}
	}
	for _, t := range applicable {
		if _, failed := res.Errors[t.Name]; failed {
			continue
		}
		switch act := t.Action.(type) {
		case action.SynchronousAction:
			res.SyncActions = append(res.SyncActions, act)
		case action.AsynchronousAction:
			res.AsyncActions = append(res.AsyncActions, act)
		}
	}
	return res
}

func (p *Processor) validate(t *WorkflowEventTrigger, params *action.ExecutionParameters) (applies bool, failure *model.PropertySetResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("trigger evaluation panicked", zap.String("trigger", t.Name), zap.Any("panic", r))
			applies = false
			failure = model.NewPropertySetResult(0, model.ERROR_ACTION_EVALUATION_FAILED, fmt.Sprintf("Evaluation of trigger %s failed: %v", t.Name, r))
		}
	}()
	if t.Condition != nil && !t.Condition.IsSatisfied(params) {
		return false, nil
	}
	return true, t.Action.ValidateAction(params)
}

// Process evaluates the triggers, runs the synchronous actions and dispatches
// the asynchronous ones. Validation failures never fail processing.
func (p *Processor) Process(ctx context.Context, triggers []*WorkflowEventTrigger, params *action.ExecutionParameters) (*Result, error) {
	res := p.Evaluate(triggers, params)
	for name, failure := range res.Errors {
		logger.Warn("trigger action is invalid", zap.String("trigger", name), zap.Int("artifact", artifactId(params)), zap.Int("errorCode", int(failure.ErrorCode)), zap.String("message", failure.Message))
	}
	if len(res.SyncActions) > 0 && p.syncExecutor != nil {
		if err := p.syncExecutor.ExecuteSynchronousActions(ctx, params, res.SyncActions); err != nil {
			return res, err
		}
	}
	if len(res.AsyncActions) > 0 && p.asyncDispatcher != nil {
		if err := p.asyncDispatcher.DispatchAsynchronousActions(ctx, params, res.AsyncActions); err != nil {
			return res, err
		}
	}
	return res, nil
}

func artifactId(params *action.ExecutionParameters) int {
	if params == nil || params.Artifact == nil {
		return 0
	}
	return params.Artifact.Id
}
