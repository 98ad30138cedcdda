package model

import (
	"fmt"
	"time"
)

// RetryPolicyError asks the transport to redeliver the message after RetryInterval.
type RetryPolicyError struct {
	Message       string
	RetryInterval time.Duration
	Err           error
}

func (e RetryPolicyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (retry in %s): %v", e.Message, e.RetryInterval, e.Err)
	}
	return fmt.Sprintf("%s (retry in %s)", e.Message, e.RetryInterval)
}

func (e RetryPolicyError) Unwrap() error {
	return e.Err
}

// DoNotRetryError marks a failure that redelivery can not fix.
type DoNotRetryError struct {
	Message string
	Err     error
}

func (e DoNotRetryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e DoNotRetryError) Unwrap() error {
	return e.Err
}

type TenantNotFoundError struct {
	TenantId string
}

func (e TenantNotFoundError) Error() string {
	return fmt.Sprintf("tenant %s not found", e.TenantId)
}

type MalformedMessageError struct {
	Message string
	Err     error
}

func (e MalformedMessageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed message, %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("malformed message, %s", e.Message)
}

func (e MalformedMessageError) Unwrap() error {
	return e.Err
}
