package service

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/crosswire-app/crosswire/internal/document"
	"github.com/crosswire-app/crosswire/internal/models"
	"github.com/crosswire-app/crosswire/internal/transfer"
)

// socialPostURLTemplates derive a public URL from a provider platform name
// and external id. Platforms without a stable template get no URL.
var socialPostURLTemplates = map[string]string{
	"twitter":   "https://twitter.com/i/web/status/%s",
	"instagram": "https://www.instagram.com/p/%s/",
	"facebook":  "https://www.facebook.com/%s",
	"linkedin":  "https://www.linkedin.com/feed/update/%s/",
	"youtube":   "https://www.youtube.com/watch?v=%s",
}

// SocialPostURL builds the public URL for a published post, or "" when the
// platform has no template.
func SocialPostURL(providerPlatform, externalID string) string {
	tmpl, ok := socialPostURLTemplates[providerPlatform]
	if !ok || externalID == "" {
		return ""
	}
	return fmt.Sprintf(tmpl, externalID)
}

// ReconcileService writes a settled publish outcome back onto the shared
// document. It touches only publish bookkeeping fields, never text, media or
// title, so edits made while the call was in flight survive.
type ReconcileService interface {
	// Reconcile applies the outcome. The derived status comes from the
	// response, not the caller's intent: the provider may have silently
	// converted an under-lead schedule into an immediate post. Returns the
	// requested platforms that did not end up reconciled.
	Reconcile(doc *document.Document, outcome *transfer.PublishOutcome, requestedPlatforms []string, scheduledFor *time.Time) []string
}

type reconcileService struct{}

func NewReconcileService() ReconcileService {
	return &reconcileService{}
}

func (s *reconcileService) Reconcile(doc *document.Document, outcome *transfer.PublishOutcome, requestedPlatforms []string, scheduledFor *time.Time) []string {
	if outcome == nil {
		return requestedPlatforms
	}

	status := models.VariantStatusPublished
	if outcome.IsScheduled {
		status = models.VariantStatusScheduled
	} else {
		// Provider's actual behavior wins over the schedule the caller
		// asked for.
		scheduledFor = nil
	}

	reconciled := make(map[string]bool)
	var firstID, firstURL string

	for _, providerPlatform := range outcome.SucceededPlatforms {
		key := ToInternalPlatform(providerPlatform)
		externalID := outcome.IDFor(providerPlatform)
		socialURL := SocialPostURL(providerPlatform, externalID)

		if _, ok := doc.Variant(key); !ok {
			slog.Info("no variant for succeeded platform, skipping", "platform", key)
			continue
		}
		if err := doc.SetPublishResult(key, status, externalID, socialURL, scheduledFor); err != nil {
			slog.Info(err.Error())
			continue
		}
		reconciled[key] = true
		if firstID == "" {
			firstID, firstURL = externalID, socialURL
		}
	}

	// The base variant mirrors the outcome as a representative summary even
	// though it was never sent itself.
	if len(reconciled) > 0 {
		if _, ok := doc.Variant(models.VariantKeyBase); ok {
			if err := doc.SetPublishResult(models.VariantKeyBase, status, firstID, firstURL, scheduledFor); err != nil {
				slog.Info(err.Error())
			}
		}
	}

	var missed []string
	for _, p := range requestedPlatforms {
		if !reconciled[p] {
			missed = append(missed, p)
		}
	}
	return missed
}
