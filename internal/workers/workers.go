// Package workers hosts the cron-scheduled background jobs.
package workers

import (
	"time"

	"github.com/robfig/cron/v3"
)

// Worker is one scheduled background job.
type Worker interface {
	Schedule() string
	Ready(now time.Time) bool
	Execute()
}

// StartAll registers every worker on a cron scheduler and starts it.
func StartAll(workers []Worker) (*cron.Cron, error) {
	c := cron.New()
	for _, w := range workers {
		w := w
		_, err := c.AddFunc(w.Schedule(), func() {
			if w.Ready(time.Now()) {
				go w.Execute()
			}
		})
		if err != nil {
			return nil, err
		}
	}
	c.Start()
	return c, nil
}
