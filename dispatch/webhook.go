package dispatch

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
	"hash"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mohitkumar/actionhandler/logger"
	"github.com/mohitkumar/actionhandler/metrics"
	"github.com/mohitkumar/actionhandler/model"
	"github.com/mohitkumar/actionhandler/secret"
	"go.uber.org/zap"
)

type cachedClient struct {
	client    *http.Client
	ignoreTLS bool
}

// WebhookDispatcher posts signed webhook payloads and classifies the outcome.
type WebhookDispatcher struct {
	decrypter     secret.Decrypter
	retryInterval time.Duration
	timeout       time.Duration
	mu            sync.Mutex
	clients       map[string]*cachedClient
}

func NewWebhookDispatcher(decrypter secret.Decrypter, retryInterval time.Duration, timeout time.Duration) *WebhookDispatcher {
	return &WebhookDispatcher{
		decrypter:     decrypter,
		retryInterval: retryInterval,
		timeout:       timeout,
		clients:       make(map[string]*cachedClient),
	}
}

// clientFor reuses the client of a host only while its trust policy matches.
func (d *WebhookDispatcher) clientFor(host string, ignoreTLS bool) *http.Client {
	d.mu.Lock()
	defer d.mu.Unlock()
	old, ok := d.clients[host]
	if ok && old.ignoreTLS == ignoreTLS {
		return old.client
	}
	if ok {
		old.client.CloseIdleConnections()
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if ignoreTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	c := &cachedClient{
		client:    &http.Client{Timeout: d.timeout, Transport: transport},
		ignoreTLS: ignoreTLS,
	}
	d.clients[host] = c
	return c.client
}

// Deliver returns nil on 2xx, DoNotRetryError on 410 and RetryPolicyError
// for every other status or transport failure.
func (d *WebhookDispatcher) Deliver(ctx context.Context, msg *model.WebhookMessage, messageId string, retryNumber int) error {
	target, err := url.Parse(msg.Url)
	if err != nil || target.Host == "" {
		return model.DoNotRetryError{Message: fmt.Sprintf("webhook %d has an invalid url %q", msg.WebhookId, msg.Url), Err: err}
	}
	payload := []byte(msg.PayloadContent)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), bytes.NewReader(payload))
	if err != nil {
		return model.DoNotRetryError{Message: "create webhook request", Err: err}
	}
	if err := d.addHeaders(req, msg, payload, messageId, retryNumber); err != nil {
		return err
	}

	resp, err := d.clientFor(target.Host, msg.IgnoreInvalidSSLCertificate).Do(req)
	if err != nil {
		return d.classifyTransportError(msg, err)
	}
	defer func() { io.Copy(io.Discard, resp.Body); resp.Body.Close() }()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		metrics.WebhookDeliveries.WithLabelValues("success").Inc()
		logger.Info("webhook delivered", zap.Int("webhook", msg.WebhookId), zap.String("messageId", messageId), zap.Int("status", resp.StatusCode))
		return nil
	case resp.StatusCode == http.StatusGone:
		metrics.WebhookDeliveries.WithLabelValues("gone").Inc()
		logger.Error("webhook endpoint is gone, delivery suspended", zap.Int("webhook", msg.WebhookId), zap.String("url", msg.Url))
		return model.DoNotRetryError{Message: fmt.Sprintf("webhook %d returned %d", msg.WebhookId, resp.StatusCode)}
	default:
		metrics.WebhookDeliveries.WithLabelValues("retry").Inc()
		logger.Error("webhook delivery failed", zap.Int("webhook", msg.WebhookId), zap.String("url", msg.Url), zap.Int("status", resp.StatusCode), zap.Duration("retryInterval", d.retryInterval))
		return model.RetryPolicyError{Message: fmt.Sprintf("webhook %d returned %d", msg.WebhookId, resp.StatusCode), RetryInterval: d.retryInterval}
	}
}

func (d *WebhookDispatcher) addHeaders(req *http.Request, msg *model.WebhookMessage, payload []byte, messageId string, retryNumber int) error {
	for _, encrypted := range msg.HttpHeaders {
		header, err := d.decrypter.Decrypt(encrypted)
		if err != nil {
			logger.Warn("skipping webhook header that can not be decrypted", zap.Int("webhook", msg.WebhookId), zap.Error(err))
			continue
		}
		key, value, ok := strings.Cut(header, ":")
		if !ok || strings.TrimSpace(key) == "" {
			logger.Warn("skipping malformed webhook header", zap.Int("webhook", msg.WebhookId))
			continue
		}
		req.Header.Add(strings.TrimSpace(key), strings.TrimSpace(value))
	}
	if msg.BasicAuthUsername != "" {
		username, err := d.decrypter.Decrypt(msg.BasicAuthUsername)
		if err != nil {
			return model.DoNotRetryError{Message: fmt.Sprintf("decrypt basic auth username of webhook %d", msg.WebhookId), Err: err}
		}
		password, err := d.decrypter.Decrypt(msg.BasicAuthPassword)
		if err != nil {
			return model.DoNotRetryError{Message: fmt.Sprintf("decrypt basic auth password of webhook %d", msg.WebhookId), Err: err}
		}
		credentials := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		req.Header.Set("Authorization", "Basic "+credentials)
	}
	if msg.SignatureSecretToken != "" {
		token, err := d.decrypter.Decrypt(msg.SignatureSecretToken)
		if err != nil {
			return model.DoNotRetryError{Message: fmt.Sprintf("decrypt signature secret of webhook %d", msg.WebhookId), Err: err}
		}
		req.Header.Set(model.HEADER_SIGNATURE, Sign(msg.SignatureAlgorithm, token, payload))
	}
	req.Header.Set(model.HEADER_MESSAGE_ID, messageId)
	req.Header.Set(model.HEADER_RETRY_NUMBER, strconv.Itoa(retryNumber))
	req.Header.Set("Content-Type", "application/json")
	return nil
}

// Sign computes the base64 HMAC of payload, HMACSHA256 unless SHA1 is asked for.
func Sign(algorithm model.SignatureAlgorithm, secretToken string, payload []byte) string {
	var fn func() hash.Hash = sha256.New
	if algorithm == model.SIGNATURE_HMACSHA1 {
		fn = sha1.New
	}
	mac := hmac.New(fn, []byte(secretToken))
	mac.Write(payload)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func (d *WebhookDispatcher) classifyTransportError(msg *model.WebhookMessage, err error) error {
	metrics.WebhookDeliveries.WithLabelValues("retry").Inc()
	reason := "connection failed"
	var netErr net.Error
	switch {
	case isTrustFailure(err):
		reason = "certificate is not trusted"
	case errors.As(err, &netErr) && netErr.Timeout():
		reason = "timed out"
	}
	logger.Error("webhook delivery failed", zap.Int("webhook", msg.WebhookId), zap.String("url", msg.Url), zap.String("reason", reason), zap.Duration("retryInterval", d.retryInterval), zap.Error(err))
	return model.RetryPolicyError{
		Message:       fmt.Sprintf("webhook %d %s", msg.WebhookId, reason),
		RetryInterval: d.retryInterval,
		Err:           err,
	}
}

func isTrustFailure(err error) bool {
	var unknownAuthority x509.UnknownAuthorityError
	var hostname x509.HostnameError
	var invalid x509.CertificateInvalidError
	var verification *tls.CertificateVerificationError
	return errors.As(err, &unknownAuthority) || errors.As(err, &hostname) ||
		errors.As(err, &invalid) || errors.As(err, &verification)
}
