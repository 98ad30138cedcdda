package trigger

import (
	"github.com/mohitkumar/actionhandler/action"
)

// Condition gates a trigger, an unmet condition skips the trigger silently.
type Condition interface {
	IsSatisfied(params *action.ExecutionParameters) bool
}

// PreviousStateCondition requires the artifact to come from the given workflow state.
type PreviousStateCondition struct {
	StateId int
}

var _ Condition = new(PreviousStateCondition)

func (c *PreviousStateCondition) IsSatisfied(params *action.ExecutionParameters) bool {
	return params.PreviousStateId == c.StateId
}

// WorkflowEventTrigger is a named condition and action pair attached to a
// workflow event. Names are not unique. EventPropertyTypeId is the instance
// property type a property change trigger listens to, zero for other events.
type WorkflowEventTrigger struct {
	Name                string
	ArtifactId          int
	EventPropertyTypeId int
	Condition           Condition
	Action              action.Action
}

func NewWorkflowEventTrigger(name string, act action.Action) *WorkflowEventTrigger {
	return &WorkflowEventTrigger{
		Name:   name,
		Action: act,
	}
}

// AppliesTo reports whether the trigger was loaded for the artifact, a zero
// ArtifactId applies to every artifact of the event.
func (t *WorkflowEventTrigger) AppliesTo(artifactId int) bool {
	return t.ArtifactId == 0 || t.ArtifactId == artifactId
}

type WorkflowTriggersContainer struct {
	SynchronousTriggers  []*WorkflowEventTrigger
	AsynchronousTriggers []*WorkflowEventTrigger
}

func NewWorkflowTriggersContainer(triggers ...*WorkflowEventTrigger) *WorkflowTriggersContainer {
	c := &WorkflowTriggersContainer{}
	for _, t := range triggers {
		c.Add(t)
	}
	return c
}

func (c *WorkflowTriggersContainer) Add(t *WorkflowEventTrigger) {
	if action.IsSynchronous(t.Action) {
		c.SynchronousTriggers = append(c.SynchronousTriggers, t)
		return
	}
	c.AsynchronousTriggers = append(c.AsynchronousTriggers, t)
}

// AllTriggers returns synchronous triggers first, each group in load order.
func (c *WorkflowTriggersContainer) AllTriggers() []*WorkflowEventTrigger {
	all := make([]*WorkflowEventTrigger, 0, len(c.SynchronousTriggers)+len(c.AsynchronousTriggers))
	all = append(all, c.SynchronousTriggers...)
	return append(all, c.AsynchronousTriggers...)
}

func (c *WorkflowTriggersContainer) IsEmpty() bool {
	return c == nil || len(c.SynchronousTriggers)+len(c.AsynchronousTriggers) == 0
}

func (c *WorkflowTriggersContainer) ForArtifact(artifactId int) *WorkflowTriggersContainer {
	return c.filter(func(t *WorkflowEventTrigger) bool {
		return t.AppliesTo(artifactId)
	})
}

// ForPropertyChange keeps the triggers of the artifact that listen to one of
// the instance property types the artifact changed.
func (c *WorkflowTriggersContainer) ForPropertyChange(artifactId int, instancePropertyTypeIds []int) *WorkflowTriggersContainer {
	return c.filter(func(t *WorkflowEventTrigger) bool {
		if !t.AppliesTo(artifactId) {
			return false
		}
		if t.EventPropertyTypeId == 0 {
			return true
		}
		for _, id := range instancePropertyTypeIds {
			if id == t.EventPropertyTypeId {
				return true
			}
		}
		return false
	})
}

func (c *WorkflowTriggersContainer) filter(keep func(t *WorkflowEventTrigger) bool) *WorkflowTriggersContainer {
	out := &WorkflowTriggersContainer{}
	if c == nil {
		return out
	}
	for _, t := range c.AllTriggers() {
		if keep(t) {
			out.Add(t)
		}
	}
	return out
}
