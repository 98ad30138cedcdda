package dispatch

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/mohitkumar/actionhandler/logger"
	"github.com/mohitkumar/actionhandler/model"
	"github.com/mohitkumar/actionhandler/secret"
	"github.com/mohitkumar/actionhandler/util"
	"go.uber.org/zap"
)

type SmtpConfig struct {
	Host      string
	Port      int
	EnableSSL bool
	UserName  string
	Password  string
}

type Email struct {
	From     string
	To       []string
	Subject  string
	HtmlBody string
}

type MailTransport interface {
	SendEmail(ctx context.Context, conf SmtpConfig, email *Email) error
}

const DEFAULT_SUBJECT = "You are being notified of a change to {$.artifactName}"

var bodyTemplate = template.Must(template.New("notification").Parse(`<html><body>
{{- if .Header}}<h3>{{.Header}}</h3>{{end}}
{{- if .Message}}<p>{{.Message}}</p>{{end}}
{{- if .ArtifactUrl}}<p><a href="{{.ArtifactUrl}}">{{.ArtifactName}}</a> in project {{.ProjectName}}</p>{{end}}
</body></html>`))

type notificationBody struct {
	Header       string
	Message      string
	ArtifactName string
	ArtifactUrl  string
	ProjectName  string
}

// NotificationDispatcher sends email notifications through the tenant SMTP server.
type NotificationDispatcher struct {
	mail          MailTransport
	decrypter     secret.Decrypter
	retryInterval time.Duration
}

func NewNotificationDispatcher(mail MailTransport, decrypter secret.Decrypter, retryInterval time.Duration) *NotificationDispatcher {
	return &NotificationDispatcher{
		mail:          mail,
		decrypter:     decrypter,
		retryInterval: retryInterval,
	}
}

func (d *NotificationDispatcher) Send(ctx context.Context, tenant *model.Tenant, msg *model.NotificationMessage) error {
	settings := tenant.Settings.Email
	if settings.Host == "" {
		return model.DoNotRetryError{Message: fmt.Sprintf("tenant %s has no smtp settings", tenant.TenantId)}
	}
	userName, err := d.decrypter.Decrypt(settings.UserName)
	if err != nil {
		return model.DoNotRetryError{Message: "decrypt smtp user name", Err: err}
	}
	password, err := d.decrypter.Decrypt(settings.Password)
	if err != nil {
		return model.DoNotRetryError{Message: "decrypt smtp password", Err: err}
	}
	from := msg.From
	if from == "" {
		from = settings.FromAddress
	}
	if from == "" {
		return model.DoNotRetryError{Message: fmt.Sprintf("tenant %s has no sender address", tenant.TenantId)}
	}

	email, err := composeEmail(from, msg)
	if err != nil {
		return model.DoNotRetryError{Message: "compose notification", Err: err}
	}
	conf := SmtpConfig{
		Host:      settings.Host,
		Port:      settings.Port,
		EnableSSL: settings.EnableSSL,
		UserName:  userName,
		Password:  password,
	}
	if err := d.mail.SendEmail(ctx, conf, email); err != nil {
		logger.Error("error sending notification", zap.String("tenant", tenant.TenantId), zap.Int("artifact", msg.ArtifactId), zap.Error(err))
		return model.RetryPolicyError{Message: "send notification", RetryInterval: d.retryInterval, Err: err}
	}
	logger.Info("notification sent", zap.String("tenant", tenant.TenantId), zap.Int("artifact", msg.ArtifactId), zap.Int("recipients", len(email.To)))
	return nil
}

func composeEmail(from string, msg *model.NotificationMessage) (*Email, error) {
	data := map[string]any{
		"artifactId":   msg.ArtifactId,
		"artifactName": msg.ArtifactName,
		"projectId":    msg.ProjectId,
		"projectName":  msg.ProjectName,
		"artifactUrl":  msg.ArtifactUrl,
	}
	subject := msg.Subject
	if subject == "" {
		subject = DEFAULT_SUBJECT
	}
	var body bytes.Buffer
	err := bodyTemplate.Execute(&body, notificationBody{
		Header:       util.ResolveTemplate(msg.Header, data),
		Message:      util.ResolveTemplate(msg.Message, data),
		ArtifactName: msg.ArtifactName,
		ArtifactUrl:  msg.ArtifactUrl,
		ProjectName:  msg.ProjectName,
	})
	if err != nil {
		return nil, err
	}
	return &Email{
		From:     from,
		To:       util.Unique(msg.To),
		Subject:  util.ResolveTemplate(subject, data),
		HtmlBody: body.String(),
	}, nil
}
