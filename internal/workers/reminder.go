package workers

import (
	"context"
	"fmt"
	"sync"
	"time"

	logrus "github.com/sirupsen/logrus"

	"loadtrack/internal/models"
	"loadtrack/internal/notify"
	"loadtrack/internal/registry"
)

// reminderWindow suppresses repeat reminders for the same load. The check is
// best-effort check-then-act; a second worker instance could race it, and a
// duplicate push is acceptable.
const reminderWindow = time.Hour

// ReminderWorker pushes an hourly "still in transit" nudge to drivers whose
// loads have not moved past in_transit.
type ReminderWorker struct {
	Loads  *registry.Registry
	Pusher notify.Pusher
	Now    func() time.Time

	mu   sync.Mutex
	busy bool
}

func NewReminderWorker(loads *registry.Registry, pusher notify.Pusher) *ReminderWorker {
	return &ReminderWorker{Loads: loads, Pusher: pusher, Now: time.Now}
}

func (w *ReminderWorker) Schedule() string {
	return "0 * * * *"
}

func (w *ReminderWorker) Ready(time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return !w.busy
}

func (w *ReminderWorker) Execute() {
	w.mu.Lock()
	w.busy = true
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		w.busy = false
		w.mu.Unlock()
	}()

	loads, err := w.Loads.InTransitLoads()
	if err != nil {
		logrus.WithError(err).Error("reminder worker could not list loads")
		return
	}

	now := w.Now()
	ctx := context.Background()
	for i := range loads {
		load := &loads[i]
		if !ShouldRemind(load.LastNotificationSent, now) {
			continue
		}
		title, body := ReminderMessage(load.Driver.Language, load.LoadNumber)
		if err := w.Pusher.Push(ctx, load.Driver.DeviceToken, title, body); err != nil {
			continue
		}
		if err := w.Loads.MarkNotified(load.ID, now); err != nil {
			logrus.WithError(err).WithField("load_id", load.ID).Error("could not stamp reminder time")
		}
	}
}

// ShouldRemind reports whether enough time has passed since the last
// notification for this load.
func ShouldRemind(last *time.Time, now time.Time) bool {
	return last == nil || now.Sub(*last) >= reminderWindow
}

// ReminderMessage picks the push text for the driver's language preference.
func ReminderMessage(language, loadNumber string) (title, body string) {
	if language == models.LanguageFrench {
		return "Mise à jour du chargement",
			fmt.Sprintf("Le chargement %s est toujours en transit. N'oubliez pas d'envoyer le rapport de ramassage.", loadNumber)
	}
	return "Load Update",
		fmt.Sprintf("Load %s is still in transit. Don't forget to send the pickup report.", loadNumber)
}
