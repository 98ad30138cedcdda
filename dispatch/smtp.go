package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/mohitkumar/actionhandler/logger"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

var _ MailTransport = new(SmtpTransport)

// SmtpTransport delivers mail with a short in-process retry before the failure
// is handed back to the message transport.
type SmtpTransport struct {
	timeout    time.Duration
	maxRetries uint64
}

func NewSmtpTransport(timeout time.Duration, maxRetries uint64) *SmtpTransport {
	return &SmtpTransport{
		timeout:    timeout,
		maxRetries: maxRetries,
	}
}

func (t *SmtpTransport) SendEmail(ctx context.Context, conf SmtpConfig, email *Email) error {
	msg := mail.NewMsg()
	if err := msg.From(email.From); err != nil {
		return fmt.Errorf("invalid sender %s: %w", email.From, err)
	}
	if err := msg.To(email.To...); err != nil {
		return fmt.Errorf("invalid recipients: %w", err)
	}
	msg.Subject(email.Subject)
	msg.SetBodyString(mail.TypeTextHTML, email.HtmlBody)

	opts := []mail.Option{
		mail.WithPort(conf.Port),
		mail.WithTimeout(t.timeout),
	}
	if conf.UserName != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(conf.UserName),
			mail.WithPassword(conf.Password))
	}
	if conf.EnableSSL {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}
	client, err := mail.NewClient(conf.Host, opts...)
	if err != nil {
		return fmt.Errorf("create smtp client for %s: %w", conf.Host, err)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), t.maxRetries), ctx)
	return backoff.RetryNotify(func() error {
		return client.DialAndSendWithContext(ctx, msg)
	}, policy, func(err error, next time.Duration) {
		logger.Warn("smtp send failed, retrying", zap.String("host", conf.Host), zap.Duration("in", next), zap.Error(err))
	})
}
