package dispatch

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/mohitkumar/actionhandler/model"
	"github.com/mohitkumar/actionhandler/secret"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	header http.Header
	body   []byte
}

type recorder struct {
	mu       sync.Mutex
	requests []recordedRequest
	status   int
}

func (r *recorder) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	body, _ := io.ReadAll(req.Body)
	r.mu.Lock()
	r.requests = append(r.requests, recordedRequest{header: req.Header.Clone(), body: body})
	status := r.status
	r.mu.Unlock()
	w.WriteHeader(status)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.requests)
}

func (r *recorder) last() recordedRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.requests[len(r.requests)-1]
}

func plainDispatcher(t *testing.T) *WebhookDispatcher {
	decrypter, err := secret.NewDecrypter("")
	require.NoError(t, err)
	return NewWebhookDispatcher(decrypter, 30*time.Minute, 2*time.Second)
}

func TestWebhookStatusClassification(t *testing.T) {
	for scenario, tc := range map[string]struct {
		status int
		check  func(t *testing.T, err error)
	}{
		"ok": {status: http.StatusOK, check: func(t *testing.T, err error) {
			require.NoError(t, err)
		}},
		"accepted": {status: http.StatusAccepted, check: func(t *testing.T, err error) {
			require.NoError(t, err)
		}},
		"gone": {status: http.StatusGone, check: func(t *testing.T, err error) {
			var doNotRetry model.DoNotRetryError
			require.True(t, errors.As(err, &doNotRetry), err)
		}},
		"server error": {status: http.StatusInternalServerError, check: func(t *testing.T, err error) {
			var retry model.RetryPolicyError
			require.True(t, errors.As(err, &retry), err)
			require.Equal(t, 30*time.Minute, retry.RetryInterval)
		}},
		"unauthorized": {status: http.StatusUnauthorized, check: func(t *testing.T, err error) {
			var retry model.RetryPolicyError
			require.True(t, errors.As(err, &retry), err)
		}},
	} {
		t.Run(scenario, func(t *testing.T) {
			rec := &recorder{status: tc.status}
			srv := httptest.NewServer(rec)
			defer srv.Close()

			err := plainDispatcher(t).Deliver(context.Background(), &model.WebhookMessage{
				WebhookId:      1,
				Url:            srv.URL,
				PayloadContent: `{"EventType":"ArtifactPublished"}`,
			}, "msg-1", 0)
			tc.check(t, err)
			require.Equal(t, 1, rec.count())
		})
	}
}

func TestWebhookHeaders(t *testing.T) {
	key, err := secret.GenerateKey()
	require.NoError(t, err)
	decrypter, err := secret.NewDecrypter(key)
	require.NoError(t, err)
	encrypt := func(v string) string {
		out, err := secret.Encrypt(key, v)
		require.NoError(t, err)
		return out
	}

	rec := &recorder{status: http.StatusOK}
	srv := httptest.NewServer(rec)
	defer srv.Close()

	payload := `{"ArtifactId":42}`
	msg := &model.WebhookMessage{
		WebhookId:            7,
		Url:                  srv.URL + "/hook",
		HttpHeaders:          []string{encrypt("X-Team: blue"), encrypt("no separator"), "not encrypted"},
		BasicAuthUsername:    encrypt("ada"),
		BasicAuthPassword:    encrypt("s3cret"),
		SignatureSecretToken: encrypt("token"),
		SignatureAlgorithm:   model.SIGNATURE_HMACSHA1,
		PayloadContent:       payload,
	}
	d := NewWebhookDispatcher(decrypter, time.Minute, 2*time.Second)
	require.NoError(t, d.Deliver(context.Background(), msg, "msg-42", 3))

	got := rec.last()
	require.Equal(t, payload, string(got.body))
	require.Equal(t, "blue", got.header.Get("X-Team"))
	require.Empty(t, got.header.Get("no separator"))
	require.Equal(t, "Basic YWRhOnMzY3JldA==", got.header.Get("Authorization"))
	require.Equal(t, Sign(model.SIGNATURE_HMACSHA1, "token", []byte(payload)), got.header.Get(model.HEADER_SIGNATURE))
	require.Equal(t, "msg-42", got.header.Get(model.HEADER_MESSAGE_ID))
	require.Equal(t, "3", got.header.Get(model.HEADER_RETRY_NUMBER))
	require.Equal(t, "application/json", got.header.Get("Content-Type"))
}

func TestSign(t *testing.T) {
	payload := []byte("hello")
	sha256Sig := Sign(model.SIGNATURE_HMACSHA256, "key", payload)
	require.Equal(t, sha256Sig, Sign("", "key", payload))
	require.NotEqual(t, sha256Sig, Sign(model.SIGNATURE_HMACSHA1, "key", payload))
	require.Equal(t, "s0zqxFFv8joUPmHXnQ+npPvl8mY=", Sign(model.SIGNATURE_HMACSHA1, "key", payload))
}

func TestWebhookNoSignatureWithoutSecret(t *testing.T) {
	rec := &recorder{status: http.StatusOK}
	srv := httptest.NewServer(rec)
	defer srv.Close()

	require.NoError(t, plainDispatcher(t).Deliver(context.Background(), &model.WebhookMessage{Url: srv.URL, PayloadContent: "{}"}, "m", 0))
	got := rec.last()
	require.Empty(t, got.header.Get(model.HEADER_SIGNATURE))
	require.Empty(t, got.header.Get("Authorization"))
}

func TestWebhookUntrustedCertificate(t *testing.T) {
	srv := httptest.NewTLSServer(&recorder{status: http.StatusOK})
	defer srv.Close()
	d := plainDispatcher(t)
	msg := &model.WebhookMessage{WebhookId: 3, Url: srv.URL, PayloadContent: "{}"}

	err := d.Deliver(context.Background(), msg, "m", 0)
	var retry model.RetryPolicyError
	require.True(t, errors.As(err, &retry), err)
	require.Contains(t, retry.Message, "certificate is not trusted")

	msg.IgnoreInvalidSSLCertificate = true
	require.NoError(t, d.Deliver(context.Background(), msg, "m", 1))
	require.Len(t, d.clients, 1)

	msg.IgnoreInvalidSSLCertificate = false
	require.Error(t, d.Deliver(context.Background(), msg, "m", 2))
}

func TestWebhookTrustChangeClosesIdleConnections(t *testing.T) {
	var mu sync.Mutex
	closed := 0
	srv := httptest.NewUnstartedServer(&recorder{status: http.StatusOK})
	srv.Config.ConnState = func(_ net.Conn, state http.ConnState) {
		if state == http.StateClosed {
			mu.Lock()
			closed++
			mu.Unlock()
		}
	}
	srv.StartTLS()
	defer srv.Close()
	d := plainDispatcher(t)
	msg := &model.WebhookMessage{WebhookId: 3, Url: srv.URL, PayloadContent: "{}", IgnoreInvalidSSLCertificate: true}

	require.NoError(t, d.Deliver(context.Background(), msg, "m", 0))
	host := srv.Listener.Addr().String()
	insecure := d.clientFor(host, true)
	require.Same(t, insecure, d.clientFor(host, true))

	strict := d.clientFor(host, false)
	require.NotSame(t, insecure, strict)
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return closed == 1
	}, time.Second, 10*time.Millisecond)
}

func TestWebhookTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	decrypter, _ := secret.NewDecrypter("")
	d := NewWebhookDispatcher(decrypter, time.Minute, 50*time.Millisecond)
	err := d.Deliver(context.Background(), &model.WebhookMessage{Url: srv.URL, PayloadContent: "{}"}, "m", 0)
	var retry model.RetryPolicyError
	require.True(t, errors.As(err, &retry), err)
	require.Equal(t, time.Minute, retry.RetryInterval)
}

func TestWebhookInvalidUrl(t *testing.T) {
	err := plainDispatcher(t).Deliver(context.Background(), &model.WebhookMessage{Url: "::not a url", PayloadContent: "{}"}, "m", 0)
	var doNotRetry model.DoNotRetryError
	require.True(t, errors.As(err, &doNotRetry), err)
}
