package server

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/voicebrief/logger"
	"github.com/kbukum/voicebrief/telegram"
)

// HeaderSecretToken carries the secret registered with setWebhook.
const HeaderSecretToken = "X-Telegram-Bot-Api-Secret-Token"

const (
	welcomeText      = "Welcome to the Audio Transcribe Bot!"
	webhookStatusText = "Webhook is working. Send a POST request with a Telegram update to use the bot."
)

// Dispatcher accepts an update for background processing. An error means
// the update was not accepted.
type Dispatcher interface {
	Dispatch(update telegram.Update) error
}

// Welcome answers the landing page.
func Welcome() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.String(http.StatusOK, welcomeText)
	}
}

// WebhookStatus answers GET on the webhook path so operators can check it.
func WebhookStatus() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.String(http.StatusOK, webhookStatusText)
	}
}

// Webhook decodes a Telegram update and hands it to d. It acknowledges
// immediately so Telegram does not redeliver while the update is processed.
func Webhook(d Dispatcher, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var update telegram.Update
		if err := c.ShouldBindJSON(&update); err != nil {
			log.WithContext(c.Request.Context()).Warn("Malformed webhook payload", logger.ErrorFields("decode update", err))
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
			return
		}

		log.WithContext(c.Request.Context()).Debug("Update received", logger.Fields("update_id", update.UpdateID))
		if err := d.Dispatch(update); err != nil {
			// Telegram retries non-2xx deliveries.
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "message": "update not accepted"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// SecretToken rejects webhook deliveries whose secret token header does not
// match secret. An empty secret accepts everything.
func SecretToken(secret string, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}
		got := c.GetHeader(HeaderSecretToken)
		if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			log.WithContext(c.Request.Context()).Warn("Webhook secret mismatch", logger.Fields("client", c.ClientIP()))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "invalid secret token"})
			return
		}
		c.Next()
	}
}
