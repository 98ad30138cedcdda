package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const OUTCOME_SUCCEEDED = "succeeded"
const OUTCOME_RETRY_SCHEDULED = "retry_scheduled"
const OUTCOME_DEAD_LETTERED = "dead_lettered"

var (
	MessagesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "actionhandler_messages_processed_total",
		Help: "Action messages processed by action type and outcome",
	}, []string{"action_type", "outcome"})

	MessageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "actionhandler_message_duration_seconds",
		Help:    "Time spent handling one action message",
		Buckets: prometheus.DefBuckets,
	}, []string{"action_type"})

	TriggerValidationErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "actionhandler_trigger_validation_errors_total",
		Help: "Triggers whose action failed validation",
	})

	WebhookDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "actionhandler_webhook_deliveries_total",
		Help: "Webhook delivery attempts by result",
	}, []string{"result"})

	TenantCacheRefreshes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "actionhandler_tenant_cache_refreshes_total",
		Help: "Reloads of the tenant registry",
	})
)
