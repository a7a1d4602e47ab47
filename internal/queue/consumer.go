package queue

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	logrus "github.com/sirupsen/logrus"
)

// Handler processes one report job attempt.
type Handler func(ctx context.Context, job ReportJob) error

// Consumer drains the report queue on a worker process, retrying each job
// per the fixed policy before abandoning it.
type Consumer struct {
	conn *amqp.Connection
	ch   *amqp.Channel

	// sleep is swapped out in tests.
	sleep func(time.Duration)
	now   func() time.Time
}

func NewConsumer(url string) (*Consumer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if _, err := ch.QueueDeclare(QueueName, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		conn.Close()
		return nil, err
	}
	return &Consumer{conn: conn, ch: ch, sleep: time.Sleep, now: time.Now}, nil
}

// Run blocks consuming jobs until the context is cancelled.
func (c *Consumer) Run(ctx context.Context, handler Handler) error {
	deliveries, err := c.ch.Consume(QueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			c.handleDelivery(ctx, d, handler)
		}
	}
}

func (c *Consumer) handleDelivery(ctx context.Context, d amqp.Delivery, handler Handler) {
	job, err := DecodeJob(d.Body)
	if err != nil {
		logrus.WithError(err).Error("dropping undecodable report job")
		d.Ack(false)
		return
	}

	log := logrus.WithFields(logrus.Fields{
		"load_id":        job.LoadID,
		"channel":        job.Channel,
		"correlation_id": job.CorrelationID,
	})

	if job.Expired(c.now()) {
		log.Warn("abandoning expired report job")
		d.Ack(false)
		return
	}

	err = RunWithRetry(ctx, job, handler, c.sleep)
	if err != nil {
		// Terminal failure: retries are exhausted. The job is dropped and
		// logged; the original HTTP requester was answered long ago.
		log.WithError(err).Error("report job failed after all retries")
	}
	d.Ack(false)
}

// RunWithRetry runs the handler up to MaxAttempts times with a fixed backoff
// between attempts, returning the last error when every attempt failed.
func RunWithRetry(ctx context.Context, job ReportJob, handler Handler, sleep func(time.Duration)) error {
	var lastErr error
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		lastErr = handler(ctx, job)
		if lastErr == nil {
			return nil
		}
		logrus.WithError(lastErr).WithFields(logrus.Fields{
			"load_id": job.LoadID,
			"attempt": attempt,
		}).Warn("report job attempt failed")
		if attempt < MaxAttempts {
			sleep(Backoff)
		}
	}
	return lastErr
}

func (c *Consumer) Close() error {
	if c.ch != nil {
		c.ch.Close()
	}
	return c.conn.Close()
}
