package action

import (
	"fmt"

	"github.com/mohitkumar/actionhandler/model"
	"github.com/mohitkumar/actionhandler/validation"
)

var _ AsynchronousAction = new(EmailNotificationAction)

type EmailNotificationAction struct {
	asynchronousAction
	Emails     []string
	UserGroups []model.UserGroup
	Subject    string
	Header     string
	Message    string
	recipients []string
}

func NewEmailNotificationAction(emails []string, userGroups []model.UserGroup, subject string, header string, message string) *EmailNotificationAction {
	return &EmailNotificationAction{
		asynchronousAction: asynchronousAction{baseAction{actType: ACTION_TYPE_EMAIL_NOTIFICATION}},
		Emails:             emails,
		UserGroups:         userGroups,
		Subject:            subject,
		Header:             header,
		Message:            message,
	}
}

// ValidateAction resolves the recipients. Every user or group reference must
// exist and at least one email address must remain.
func (a *EmailNotificationAction) ValidateAction(params *ExecutionParameters) *model.PropertySetResult {
	seen := make(map[string]bool)
	var recipients []string
	add := func(email string) {
		if email == "" || seen[email] {
			return
		}
		seen[email] = true
		recipients = append(recipients, email)
	}
	for _, email := range a.Emails {
		if err := model.ValidateVar(email, "email"); err != nil {
			return model.NewPropertySetResult(0, model.ERROR_INVALID_ARTIFACT_PROPERTY, fmt.Sprintf("Email address %q is invalid", email))
		}
		add(email)
	}
	for _, ref := range a.UserGroups {
		ug, ok := params.ValidationContext.Resolve(ref)
		if !ok {
			return model.NewPropertySetResult(0, model.ERROR_INVALID_ARTIFACT_PROPERTY, validation.MSG_USER_NOT_FOUND)
		}
		add(ug.Email)
	}
	if len(recipients) == 0 {
		return model.NewPropertySetResult(0, model.ERROR_INVALID_ARTIFACT_PROPERTY, "Email notification has no recipients")
	}
	a.recipients = recipients
	return nil
}

// Recipients returns the addresses resolved by the last successful validation.
func (a *EmailNotificationAction) Recipients() []string {
	return a.recipients
}
