package action

import (
	"fmt"

	"github.com/mohitkumar/actionhandler/model"
)

const MAX_CHILD_COUNT = 10

var _ AsynchronousAction = new(GenerateChildrenAction)
var _ AsynchronousAction = new(GenerateTestCasesAction)
var _ AsynchronousAction = new(GenerateUserStoriesAction)

type GenerateChildrenAction struct {
	asynchronousAction
	ChildCount     int
	ArtifactTypeId int
}

func NewGenerateChildrenAction(childCount int, artifactTypeId int) *GenerateChildrenAction {
	return &GenerateChildrenAction{
		asynchronousAction: asynchronousAction{baseAction{actType: ACTION_TYPE_GENERATE_CHILDREN}},
		ChildCount:         childCount,
		ArtifactTypeId:     artifactTypeId,
	}
}

func (a *GenerateChildrenAction) ValidateAction(_ *ExecutionParameters) *model.PropertySetResult {
	if a.ChildCount < 1 || a.ChildCount > MAX_CHILD_COUNT {
		return model.NewPropertySetResult(0, model.ERROR_INVALID_ARTIFACT_PROPERTY, fmt.Sprintf("Child count must be between 1 and %d", MAX_CHILD_COUNT))
	}
	if a.ArtifactTypeId <= 0 {
		return model.NewPropertySetResult(0, model.ERROR_INVALID_ARTIFACT_PROPERTY, "Artifact type of generated children is required")
	}
	return nil
}

type GenerateTestCasesAction struct {
	asynchronousAction
}

func NewGenerateTestCasesAction() *GenerateTestCasesAction {
	return &GenerateTestCasesAction{
		asynchronousAction: asynchronousAction{baseAction{actType: ACTION_TYPE_GENERATE_TEST_CASES}},
	}
}

func (a *GenerateTestCasesAction) ValidateAction(params *ExecutionParameters) *model.PropertySetResult {
	return requireProcess(params, "Test cases")
}

type GenerateUserStoriesAction struct {
	asynchronousAction
}

func NewGenerateUserStoriesAction() *GenerateUserStoriesAction {
	return &GenerateUserStoriesAction{
		asynchronousAction: asynchronousAction{baseAction{actType: ACTION_TYPE_GENERATE_USER_STORIES}},
	}
}

func (a *GenerateUserStoriesAction) ValidateAction(params *ExecutionParameters) *model.PropertySetResult {
	return requireProcess(params, "User stories")
}

func requireProcess(params *ExecutionParameters, what string) *model.PropertySetResult {
	if params.Artifact == nil || params.Artifact.PredefinedType != model.PREDEFINED_PROCESS {
		return model.NewPropertySetResult(0, model.ERROR_INVALID_ARTIFACT_PROPERTY, fmt.Sprintf("%s can only be generated from process artifacts", what))
	}
	return nil
}
