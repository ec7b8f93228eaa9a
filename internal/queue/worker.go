package queue

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"github.com/crosswire-app/crosswire/internal/models"
	"github.com/crosswire-app/crosswire/internal/service"
	"github.com/hibiken/asynq"
)

func (q *Queue) HandlePublishPostTask(ctx context.Context, task *asynq.Task) error {
	var payload PublishPostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	return q.PublishPost(ctx, payload)
}

func (q *Queue) HandleSyncHistoryTask(ctx context.Context, task *asynq.Task) error {
	return q.syncer.SyncOnce(ctx)
}

// PublishPost runs a previously scheduled publish at fire time. The schedule
// already elapsed, so the post goes out immediately; the settled outcome is
// reconciled onto the document and logged to history.
func (q *Queue) PublishPost(ctx context.Context, payload PublishPostPayload) error {
	doc, err := q.posts.LoadDocument(ctx, payload.PostID, payload.UserID)
	if err != nil {
		return err
	}

	variantKey := payload.VariantKey
	if variantKey == "" {
		variantKey = models.VariantKeyBase
	}
	variant, ok := doc.Variant(variantKey)
	if !ok {
		log.Printf("Variant %s missing for scheduled post %s", variantKey, payload.PostID)
		return nil
	}

	profileKey, err := q.accounts.ProfileKey(ctx, payload.UserID, payload.GroupID)
	if err != nil {
		log.Printf("Error resolving profile key for post %s: %v", payload.PostID, err)
	}

	outcome, scheduledFor, err := q.publisher.Publish(ctx, variant, service.PublishOptions{
		Platforms:  payload.Platforms,
		ProfileKey: profileKey,
		Thread:     payload.Thread,
	})

	history := models.PublishHistory{
		UserID:    payload.UserID,
		PostID:    payload.PostID,
		Platforms: strings.Join(payload.Platforms, ","),
	}
	if err != nil {
		history.ErrorMessage = err.Error()
		log.Printf("Error publishing scheduled post %s: %v", payload.PostID, err)
	}

	if outcome != nil {
		history.ExternalID = outcome.ExternalID
		q.reconciler.Reconcile(doc, outcome, payload.Platforms, scheduledFor)
		if perr := q.posts.PersistDocument(ctx, doc); perr != nil {
			log.Printf("Error persisting post %s after publish: %v", payload.PostID, perr)
		}
	}

	if _, herr := q.history.Create(ctx, &history); herr != nil {
		log.Printf("Error saving publish history for post %s: %v", payload.PostID, herr)
	}

	// Partial failures are recorded but not retried; a retry would re-send
	// the platforms that already succeeded.
	return nil
}
