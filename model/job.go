package model

import "time"

type JobType string

const JOB_GENERATE_DESCENDANTS JobType = "GenerateDescendants"
const JOB_GENERATE_TESTS JobType = "GenerateProcessTests"
const JOB_GENERATE_USER_STORIES JobType = "GenerateUserStories"
const JOB_SEARCH_INDEX JobType = "SearchIndex"

type GenerationJob struct {
	JobId      string         `json:"jobId"`
	JobType    JobType        `json:"jobType"`
	TenantId   string         `json:"tenantId"`
	UserId     int            `json:"userId"`
	UserName   string         `json:"userName"`
	ArtifactId int            `json:"artifactId"`
	ProjectId  int            `json:"projectId"`
	Parameters map[string]any `json:"parameters,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}
