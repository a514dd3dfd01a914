// Package http serves the Telegram webhook and the health check.
package http

import (
	"github.com/DenisKhanov/RemindBOT/internal/tg_bot/api/http/middleware"
	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
	"net/http"
)

const (
	HookPath   = "/telegram_hook"
	HealthPath = "/health"
)

// UpdateDecoder reads an update pushed by Telegram; *tgbotapi.BotAPI is one.
type UpdateDecoder interface {
	HandleUpdate(r *http.Request) (*tgbotapi.Update, error)
}

// Handler feeds webhook updates into the same channel long polling uses.
type Handler struct {
	decoder UpdateDecoder
	updates chan<- tgbotapi.Update
}

// NewHandler creates a Handler publishing to updates.
func NewHandler(decoder UpdateDecoder, updates chan<- tgbotapi.Update) *Handler {
	return &Handler{
		decoder: decoder,
		updates: updates,
	}
}

// NewRouter builds the gin engine with logging and both routes.
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.LogrusLog())
	router.POST(HookPath, h.TelegramHook)
	router.GET(HealthPath, h.Health)
	return router
}

// TelegramHook accepts one update. It answers only after the update was
// queued, so Telegram redelivers it if the bot is shutting down.
func (h *Handler) TelegramHook(c *gin.Context) {
	update, err := h.decoder.HandleUpdate(c.Request)
	if err != nil {
		logrus.WithError(err).Warn("Bad webhook request")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	select {
	case h.updates <- *update:
		c.Status(http.StatusOK)
	case <-c.Request.Context().Done():
		c.Status(http.StatusServiceUnavailable)
	}
}

// Health reports that the process is up.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
