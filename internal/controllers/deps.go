package controllers

import (
	"loadtrack/internal/geocode"
	"loadtrack/internal/notify"
	"loadtrack/internal/photos"
	"loadtrack/internal/queue"
	"loadtrack/internal/registry"
	"loadtrack/internal/storage"
)

// Shared handler dependencies, wired once at startup. Jobs may be nil when no
// broker is configured; report sends then always run synchronously.
var (
	Reg     *registry.Registry
	Ledger  *photos.Ledger
	Reports *notify.Service
	Geo     *geocode.Client
	Media   storage.Backend
	Jobs    *queue.Publisher
)

func Init(reg *registry.Registry, ledger *photos.Ledger, reports *notify.Service, geo *geocode.Client, media storage.Backend, jobs *queue.Publisher) {
	Reg = reg
	Ledger = ledger
	Reports = reports
	Geo = geo
	Media = media
	Jobs = jobs
}
