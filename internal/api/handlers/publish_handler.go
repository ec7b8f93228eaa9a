package handlers

import (
	"errors"
	"log/slog"
	"time"

	"github.com/crosswire-app/crosswire/internal/models"
	"github.com/crosswire-app/crosswire/internal/queue"
	"github.com/crosswire-app/crosswire/internal/service"
	"github.com/crosswire-app/crosswire/internal/transfer"
	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
)

type PublishHandler struct {
	editor      *service.EditorService
	posts       service.PostService
	accounts    service.AccountService
	replies     service.ReplyLookupService
	asynqClient *asynq.Client
}

func NewPublishHandler(editor *service.EditorService, posts service.PostService, accounts service.AccountService, replies service.ReplyLookupService, asynqClient *asynq.Client) *PublishHandler {
	return &PublishHandler{
		editor:      editor,
		posts:       posts,
		accounts:    accounts,
		replies:     replies,
		asynqClient: asynqClient,
	}
}

// Publish fires the active variant immediately, or enqueues it when the
// requested schedule is far enough out for the worker to pick up.
func (h *PublishHandler) Publish(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var payload transfer.PublishCreation
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	session, err := h.editor.Session(c.Context(), payload.PostID, userID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if payload.VariantKey != "" {
		if err := session.SetActiveVariant(payload.VariantKey); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
	}

	scheduleAt, err := service.ParseScheduleAt(payload.ScheduleAt)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if scheduleAt != nil {
		if delay := time.Until(*scheduleAt); delay >= service.MinScheduleLead {
			return h.schedule(c, session, userID, &payload, delay)
		}
		// Under the minimum lead the post goes out immediately; the
		// builder logs the downgrade.
	}

	profileKey, err := h.accounts.ProfileKey(c.Context(), userID, payload.GroupID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	missed, err := session.Publish(c.Context(), payload.Platforms, payload.ScheduleAt, profileKey)
	if err != nil {
		var partial *service.PartialPlatformFailure
		if errors.As(err, &partial) {
			return c.Status(fiber.StatusOK).JSON(fiber.Map{
				"message": "Published with failures",
				"missed":  missed,
				"errors":  partial.Reasons,
			})
		}
		var validation *service.ValidationError
		if errors.As(err, &validation) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": validation.Error(),
			})
		}
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Published",
		"missed":  missed,
	})
}

func (h *PublishHandler) schedule(c *fiber.Ctx, session *service.EditorSession, userID int64, payload *transfer.PublishCreation, delay time.Duration) error {
	at := time.Now().Add(delay).UTC()

	key := payload.VariantKey
	if key == "" {
		key = session.ActiveVariantKey()
	}
	if err := session.Document().SetVariantStatus(key, models.VariantStatusScheduled, &at); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if err := h.posts.PersistDocument(c.Context(), session.Document()); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	err := queue.EnqueuePublish(h.asynqClient, queue.PublishPostPayload{
		PostID:     payload.PostID,
		UserID:     userID,
		VariantKey: key,
		Platforms:  payload.Platforms,
		GroupID:    payload.GroupID,
		Thread:     session.IsThread(),
	}, delay)
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to schedule post",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message":      "Scheduled",
		"scheduled_at": at.Format(time.RFC3339),
	})
}

func (h *PublishHandler) ReplyPreview(c *fiber.Ctx) error {
	url := c.Query("url")

	reply, err := h.replies.Lookup(c.Context(), url)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(reply)
}

func (h *PublishHandler) SetReplyURL(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID := c.Query("id")
	key := c.Query("key")
	url := c.Query("url")

	session, err := h.editor.Session(c.Context(), postID, userID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if key != "" {
		if err := session.SetActiveVariant(key); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
	}

	if url == "" {
		session.ExitReplyMode()
	} else {
		session.EnterReplyMode()
		session.SetReplyURL(url)
	}

	return c.SendStatus(fiber.StatusOK)
}
