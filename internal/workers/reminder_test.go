package workers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"loadtrack/internal/models"
)

func TestShouldRemind(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	assert.True(t, ShouldRemind(nil, now), "never notified")

	recent := now.Add(-30 * time.Minute)
	assert.False(t, ShouldRemind(&recent, now), "notified within the window")

	exact := now.Add(-time.Hour)
	assert.True(t, ShouldRemind(&exact, now), "window boundary counts as elapsed")

	old := now.Add(-2 * time.Hour)
	assert.True(t, ShouldRemind(&old, now))
}

func TestReminderMessage(t *testing.T) {
	title, body := ReminderMessage(models.LanguageEnglish, "L-100")
	assert.Equal(t, "Load Update", title)
	assert.Contains(t, body, "L-100")
	assert.Contains(t, body, "still in transit")

	title, body = ReminderMessage(models.LanguageFrench, "L-100")
	assert.Equal(t, "Mise à jour du chargement", title)
	assert.Contains(t, body, "L-100")
	assert.Contains(t, body, "en transit")

	// unknown preference falls back to English
	title, _ = ReminderMessage("de", "L-100")
	assert.Equal(t, "Load Update", title)
}
