package handlers

import (
	"log/slog"

	"github.com/crosswire-app/crosswire/internal/queue"
	"github.com/crosswire-app/crosswire/internal/transfer"
	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
)

type WebhookHandler struct {
	asynqClient *asynq.Client
}

func NewWebhookHandler(asynqClient *asynq.Client) *WebhookHandler {
	return &WebhookHandler{asynqClient: asynqClient}
}

// HandleAyrshare accepts provider callbacks for scheduled posts going live.
// The payload only triggers a history sync; the sync itself decides which
// variants to move, so a replayed or malformed event is harmless.
func (h *WebhookHandler) HandleAyrshare(c *fiber.Ctx) error {
	var event transfer.WebhookEvent
	if err := c.BodyParser(&event); err != nil {
		slog.Warn("webhook: unparseable payload")
		return c.SendStatus(fiber.StatusOK)
	}

	slog.Info("webhook received", "event", event.Event, "id", event.ID, "status", event.Status)

	if err := queue.EnqueueHistorySync(h.asynqClient); err != nil {
		slog.Error(err.Error())
	}

	return c.SendStatus(fiber.StatusOK)
}
