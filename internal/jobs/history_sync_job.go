package job

import (
	"context"
	"log/slog"

	"github.com/crosswire-app/crosswire/internal/repository"
	"github.com/crosswire-app/crosswire/internal/service"
	"github.com/crosswire-app/crosswire/internal/transfer"
)

const historyWindowHours = 24

// HistorySyncJob reconciles provider-side scheduled posts that fired while we
// were not watching: it pulls recent history and flips any local variant still
// marked scheduled whose provider post has since gone out.
type HistorySyncJob struct {
	client     service.AyrshareClient
	posts      service.PostService
	reconciler service.ReconcileService
	vr         repository.VariantRepository
}

func NewHistorySyncJob(
	client service.AyrshareClient,
	posts service.PostService,
	reconciler service.ReconcileService,
	vr repository.VariantRepository) *HistorySyncJob {
	return &HistorySyncJob{
		client:     client,
		posts:      posts,
		reconciler: reconciler,
		vr:         vr,
	}
}

// Run is the cron entrypoint.
func (j *HistorySyncJob) Run() {
	if err := j.SyncOnce(context.Background()); err != nil {
		slog.Error("history sync failed", "error", err)
	}
}

func (j *HistorySyncJob) SyncOnce(ctx context.Context) error {
	scheduled, err := j.vr.ListScheduled(ctx)
	if err != nil {
		return err
	}
	if len(scheduled) == 0 {
		return nil
	}

	records, err := j.client.History(ctx, historyWindowHours, "")
	if err != nil {
		return err
	}

	byID := make(map[string]transfer.AyrshareHistoryRecord, len(records))
	for _, rec := range records {
		byID[rec.ID] = rec
	}

	for _, sv := range scheduled {
		rec, ok := byID[sv.Variant.AyrsharePostID]
		if !ok || (rec.Status != "success" && rec.Status != "posted") {
			continue
		}

		doc, err := j.posts.LoadDocument(ctx, sv.PostID, sv.UserID)
		if err != nil {
			slog.Info(err.Error())
			continue
		}

		outcome := &transfer.PublishOutcome{
			ExternalID:  rec.ID,
			ExternalIDs: rec.PostIDs,
		}
		if len(rec.PostIDs) > 0 {
			for platform := range rec.PostIDs {
				outcome.SucceededPlatforms = append(outcome.SucceededPlatforms, platform)
			}
		} else {
			outcome.SucceededPlatforms = []string{service.ToProviderPlatform(sv.Variant.Key)}
		}

		j.reconciler.Reconcile(doc, outcome, []string{sv.Variant.Key}, nil)
		if err := j.posts.PersistDocument(ctx, doc); err != nil {
			slog.Info(err.Error())
		}
	}

	return nil
}
