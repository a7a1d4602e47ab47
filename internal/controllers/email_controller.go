package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	logrus "github.com/sirupsen/logrus"

	"loadtrack/internal/apperrors"
	"loadtrack/internal/queue"
	"loadtrack/internal/registry"
)

// SendPickupEmail dispatches the pickup report for a load. With a broker
// configured and ?async=true the job is queued and the request returns 202;
// otherwise the send runs inline.
func SendPickupEmail(c *gin.Context) {
	sendReportEmail(c, registry.ChannelPickup)
}

// SendDeliveryEmail dispatches the delivery report, threading the email under
// the load's pickup report.
func SendDeliveryEmail(c *gin.Context) {
	sendReportEmail(c, registry.ChannelDelivery)
}

func sendReportEmail(c *gin.Context, channel registry.EmailChannel) {
	loadID, err := strconv.ParseUint(c.Param("loadId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid load ID format"})
		return
	}
	correlationID := uuid.NewString()

	if Jobs != nil && c.Query("async") == "true" {
		job := queue.ReportJob{
			LoadID:        uint(loadID),
			Channel:       channel,
			CorrelationID: correlationID,
			EnqueuedAt:    time.Now().UTC(),
		}
		if err := Jobs.Publish(c.Request.Context(), job); err != nil {
			logrus.WithError(err).WithField("load_id", loadID).Error("could not enqueue report job")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to queue report"})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{
			"message":        "Report queued for delivery",
			"correlation_id": correlationID,
		})
		return
	}

	result, err := Reports.SendReport(c.Request.Context(), uint(loadID), channel, correlationID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":        "Email sent successfully",
		"recipients":     result.Recipients,
		"load_data":      result.LoadData,
		"message_id":     result.MessageID,
		"correlation_id": correlationID,
	})
}
