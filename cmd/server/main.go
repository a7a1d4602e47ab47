package main

import (
	"log"
	"net/http"
	"time"

	logrus "github.com/sirupsen/logrus"

	"loadtrack/internal/config"
	"loadtrack/internal/controllers"
	"loadtrack/internal/geocode"
	"loadtrack/internal/logger"
	"loadtrack/internal/middleware"
	"loadtrack/internal/notify"
	"loadtrack/internal/photos"
	"loadtrack/internal/queue"
	"loadtrack/internal/registry"
	"loadtrack/internal/report"
	"loadtrack/internal/routes"
	"loadtrack/internal/storage"
)

func main() {
	// Initialize structured logging to file
	logger.Setup()

	// Connect to the database
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

	// The broker is optional; without it report sends run on the request path.
	var jobs *queue.Publisher
	if config.GetEnv("AMQP_URL", "") != "" {
		jobs, err = queue.NewPublisher(config.AMQPURL())
		if err != nil {
			logrus.WithError(err).Warn("broker unavailable, report sends will run synchronously")
			jobs = nil
		} else {
			defer jobs.Close()
		}
	}

	controllers.Init(reg, ledger, reports, geocode.NewClient(config.AzureMapsKey()), media, jobs)

	// Setup Gin router
	r := routes.SetupRouter()

	// Wrap with CORS
	handler := middleware.EnableCORS(r)

	log.Println("🚀 Server running at :8080")
	log.Fatal(http.ListenAndServe("0.0.0.0:8080", handler))
}
