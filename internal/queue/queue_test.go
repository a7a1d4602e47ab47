package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loadtrack/internal/registry"
)

func TestReportJobCodec(t *testing.T) {
	job := ReportJob{
		LoadID:        42,
		Channel:       registry.ChannelDelivery,
		CorrelationID: "corr-9",
		EnqueuedAt:    time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
	}
	body, err := job.Encode()
	require.NoError(t, err)

	decoded, err := DecodeJob(body)
	require.NoError(t, err)
	assert.Equal(t, job, decoded)

	_, err = DecodeJob([]byte("{not json"))
	assert.Error(t, err)
}

func TestReportJobExpired(t *testing.T) {
	enqueued := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	job := ReportJob{EnqueuedAt: enqueued}

	assert.False(t, job.Expired(enqueued.Add(JobTTL)))
	assert.True(t, job.Expired(enqueued.Add(JobTTL+time.Second)))
}

func TestRunWithRetryEventualSuccess(t *testing.T) {
	attempts := 0
	var slept []time.Duration
	handler := func(context.Context, ReportJob) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	}

	err := RunWithRetry(context.Background(), ReportJob{LoadID: 1}, handler, func(d time.Duration) {
		slept = append(slept, d)
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []time.Duration{Backoff, Backoff}, slept)
}

func TestRunWithRetryExhausted(t *testing.T) {
	attempts := 0
	wantErr := errors.New("smtp down")
	handler := func(context.Context, ReportJob) error {
		attempts++
		return wantErr
	}

	err := RunWithRetry(context.Background(), ReportJob{LoadID: 1}, handler, func(time.Duration) {})
	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, MaxAttempts, attempts)
}

func TestRunWithRetryNoSleepAfterLastAttempt(t *testing.T) {
	sleeps := 0
	handler := func(context.Context, ReportJob) error { return errors.New("always") }

	_ = RunWithRetry(context.Background(), ReportJob{}, handler, func(time.Duration) { sleeps++ })
	assert.Equal(t, MaxAttempts-1, sleeps)
}
