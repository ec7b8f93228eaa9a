package handlers

import (
	"log/slog"

	"github.com/crosswire-app/crosswire/internal/service"
	"github.com/crosswire-app/crosswire/internal/transfer"
	"github.com/gofiber/fiber/v2"
)

type PostHandler struct {
	posts  service.PostService
	editor *service.EditorService
	media  service.MediaService
}

func NewPostHandler(posts service.PostService, editor *service.EditorService, media service.MediaService) *PostHandler {
	return &PostHandler{posts: posts, editor: editor, media: media}
}

func (h *PostHandler) CreatePost(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var pc transfer.PostCreation
	if err := c.BodyParser(&pc); err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	postID, err := h.posts.Create(c.Context(), userID, &pc)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"post_id": postID,
	})
}

func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID := c.Query("id")

	if postID != "" {
		doc, err := h.posts.LoadDocument(c.Context(), postID, userID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Unable to load post",
			})
		}
		return c.Status(fiber.StatusOK).JSON(doc.Snapshot())
	}

	posts, err := h.posts.List(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to list posts",
		})
	}

	return c.Status(fiber.StatusOK).JSON(posts)
}

func (h *PostHandler) RemovePost(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID := c.Query("id")

	if err := h.posts.Remove(c.Context(), userID, postID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to remove post",
		})
	}

	h.editor.Close(postID, userID)
	return c.SendStatus(fiber.StatusOK)
}

func (h *PostHandler) SaveVariant(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var payload transfer.VariantSave
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

	if err := session.SetActiveVariant(payload.Key); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	session.UpdateDraftText(payload.Text)

	if err := session.Save(c.Context()); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Saved",
	})
}

func (h *PostHandler) AddPlatform(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID := c.Query("id")
	platform := c.Query("platform")

	session, err := h.editor.Session(c.Context(), postID, userID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	variant := session.AddPlatform(platform)
	if err := session.Save(c.Context()); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(variant)
}

func (h *PostHandler) RemovePlatform(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID := c.Query("id")
	platform := c.Query("platform")

	session, err := h.editor.Session(c.Context(), postID, userID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if err := session.RemovePlatform(c.Context(), platform); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *PostHandler) UploadMedia(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID := c.FormValue("post_id")
	variantKey := c.FormValue("key")

	form, err := c.MultipartForm()
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse form",
		})
	}

	files := form.File["files"]
	if len(files) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No files selected",
		})
	}

	session, err := h.editor.Session(c.Context(), postID, userID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	for _, file := range files {
		item, err := h.media.SaveUpload(c.Context(), userID, file)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		if err := session.Document().AppendMedia(variantKey, *item); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
	}

	if err := session.Save(c.Context()); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Media uploaded",
	})
}

func (h *PostHandler) ThreadPreview(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var payload transfer.VariantSave
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

	if err := session.SetActiveVariant(payload.Key); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	session.UpdateDraftText(payload.Text)

	segments, err := session.ThreadPreview()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"is_thread": session.IsThread(),
		"segments":  segments,
	})
}
