package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	logrus "github.com/sirupsen/logrus"

	"loadtrack/internal/config"
	"loadtrack/internal/logger"
	"loadtrack/internal/notify"
	"loadtrack/internal/photos"
	"loadtrack/internal/queue"
	"loadtrack/internal/registry"
	"loadtrack/internal/report"
	"loadtrack/internal/storage"
	"loadtrack/internal/workers"
)

// The worker process drains the report queue and runs the scheduled jobs
// (in-transit reminders). It shares the database and storage backend with the
// HTTP server but holds its own broker connection.
func main() {
	logger.Setup()
	config.InitDB()

	media, err := storage.FromEnv(config.GetEnv)
	if err != nil {
		log.Fatalf("storage init failed: %v", err)
	}

	reg := registry.New(config.DB)
	ledger := photos.NewLedger(config.DB, media)

	reports := &notify.Service{
		Loads:     reg,
		Directory: notify.NewDBDirectory(config.DB),
		Photos:    &notify.LedgerPhotoSource{Ledger: ledger},
		Renderer:  report.NewRenderer(),
		Mailer:    notify.NewSMTPMailer(config.LoadSMTP()),
		Now:       time.Now,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pusher notify.Pusher = notify.NopPusher{}
	if creds := config.FirebaseCredentialsFile(); creds != "" {
		fcm, err := notify.NewFCMPusher(ctx, creds)
		if err != nil {
			logrus.WithError(err).Warn("firebase init failed, push reminders disabled")
		} else {
			pusher = fcm
		}
	}

	cronRunner, err := workers.StartAll([]workers.Worker{
		workers.NewReminderWorker(reg, pusher),
	})
	if err != nil {
		log.Fatalf("could not start scheduled workers: %v", err)
	}
	defer cronRunner.Stop()

	consumer, err := queue.NewConsumer(config.AMQPURL())
	if err != nil {
		log.Fatalf("could not connect to broker: %v", err)
	}
	defer consumer.Close()

	handler := func(ctx context.Context, job queue.ReportJob) error {
		_, err := reports.SendReport(ctx, job.LoadID, job.Channel, job.CorrelationID)
		return err
	}

	log.Println("worker consuming report jobs")
	if err := consumer.Run(ctx, handler); err != nil && ctx.Err() == nil {
		log.Fatalf("consumer stopped: %v", err)
	}
}
