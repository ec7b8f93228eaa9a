package document

import (
	"log/slog"
	"time"

	"github.com/crosswire-app/crosswire/internal/models"
)

// Repair normalizes a freshly loaded post in place. Variants written by older
// clients (or half-created by an interrupted inbound call) can be missing
// required sub-fields; they are fixed to well-formed defaults here, once, so
// no downstream consumer needs defensive nil checks.
func Repair(post *models.Post) {
	if post.Variants == nil {
		post.Variants = make(map[string]*models.PostVariant)
	}
	if _, ok := post.Variants[models.VariantKeyBase]; !ok {
		post.Variants[models.VariantKeyBase] = &models.PostVariant{
			Key:          models.VariantKeyBase,
			Media:        []models.MediaItem{},
			Status:       models.VariantStatusDraft,
			LastModified: time.Now(),
		}
	}

	for key, v := range post.Variants {
		if v == nil {
			slog.Warn("dropping nil variant", "post_id", post.ID, "key", key)
			delete(post.Variants, key)
			continue
		}
		v.Key = key
		if v.Media == nil {
			v.Media = []models.MediaItem{}
		}
		if v.ReplyTo != nil && v.ReplyTo.URL == "" {
			v.ReplyTo = nil
		}

		switch v.Status {
		case models.VariantStatusScheduled:
			if v.ScheduledFor == nil {
				slog.Warn("scheduled variant without timestamp, demoting to draft",
					"post_id", post.ID, "key", key)
				v.Status = models.VariantStatusDraft
			}
			v.PublishedAt = nil
		case models.VariantStatusPublished:
			if v.AyrsharePostID == "" {
				slog.Warn("published variant without external id, demoting to draft",
					"post_id", post.ID, "key", key)
				v.Status = models.VariantStatusDraft
				v.PublishedAt = nil
			}
			v.ScheduledFor = nil
		default:
			v.Status = models.VariantStatusDraft
			v.ScheduledFor = nil
			v.PublishedAt = nil
			v.AyrsharePostID = ""
			v.SocialPostURL = ""
		}
	}
}
