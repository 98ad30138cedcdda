package action

import (
	"fmt"
	"net/url"

	"github.com/mohitkumar/actionhandler/model"
)

var _ AsynchronousAction = new(WebhookAction)

type WebhookAction struct {
	asynchronousAction
	WebhookId                   int
	Url                         string
	IgnoreInvalidSSLCertificate bool
	HttpHeaders                 []string
	BasicAuthUsername           string
	BasicAuthPassword           string
	SignatureSecretToken        string
	SignatureAlgorithm          model.SignatureAlgorithm
}

func NewWebhookAction(webhookId int, webhookUrl string) *WebhookAction {
	return &WebhookAction{
		asynchronousAction: asynchronousAction{baseAction{actType: ACTION_TYPE_WEBHOOK}},
		WebhookId:          webhookId,
		Url:                webhookUrl,
		SignatureAlgorithm: model.SIGNATURE_HMACSHA256,
	}
}

func (a *WebhookAction) ValidateAction(_ *ExecutionParameters) *model.PropertySetResult {
	u, err := url.Parse(a.Url)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return model.NewPropertySetResult(0, model.ERROR_INVALID_ARTIFACT_PROPERTY, fmt.Sprintf("Webhook %d has an invalid url", a.WebhookId))
	}
	switch a.SignatureAlgorithm {
	case "", model.SIGNATURE_HMACSHA1, model.SIGNATURE_HMACSHA256:
	default:
		return model.NewPropertySetResult(0, model.ERROR_INVALID_ARTIFACT_PROPERTY, fmt.Sprintf("Webhook %d has an unsupported signature algorithm %s", a.WebhookId, a.SignatureAlgorithm))
	}
	return nil
}
