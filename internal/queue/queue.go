// Package queue moves report-dispatch jobs through RabbitMQ so email sending
// can run on worker processes instead of the request path.
package queue

import (
	"encoding/json"
	"time"

	"loadtrack/internal/registry"
)

// QueueName is the durable queue report jobs travel on.
const QueueName = "load_reports"

// Retry policy for a single job. Attempts beyond MaxAttempts, or jobs older
// than JobTTL, are abandoned; the flow is idempotent (duplicate-upload
// suppression plus append-on-success history) so a rerun from scratch is safe.
const (
	MaxAttempts = 3
	Backoff     = 10 * time.Second
	JobTTL      = 30 * time.Minute
)

// ReportJob asks a worker to send the pickup or delivery report for a load.
type ReportJob struct {
	LoadID        uint                  `json:"load_id"`
	Channel       registry.EmailChannel `json:"channel"`
	CorrelationID string                `json:"correlation_id"`
	EnqueuedAt    time.Time             `json:"enqueued_at"`
}

// Expired reports whether the job has outlived its wall-clock budget.
func (j ReportJob) Expired(now time.Time) bool {
	return now.Sub(j.EnqueuedAt) > JobTTL
}

func (j ReportJob) Encode() ([]byte, error) {
	return json.Marshal(j)
}

func DecodeJob(body []byte) (ReportJob, error) {
	var j ReportJob
	err := json.Unmarshal(body, &j)
	return j, err
}
