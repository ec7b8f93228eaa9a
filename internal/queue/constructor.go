package queue

import (
	"context"

	"github.com/crosswire-app/crosswire/internal/repository"
	"github.com/crosswire-app/crosswire/internal/service"
)

// HistorySyncer lets the webhook path reuse the cron job's reconciliation
// without importing the jobs package here.
type HistorySyncer interface {
	SyncOnce(ctx context.Context) error
}

type Queue struct {
	posts      service.PostService
	publisher  service.PublishService
	reconciler service.ReconcileService
	accounts   service.AccountService
	history    repository.PublishHistoryRepository
	syncer     HistorySyncer
}

func NewQueue(
	posts service.PostService,
	publisher service.PublishService,
	reconciler service.ReconcileService,
	accounts service.AccountService,
	history repository.PublishHistoryRepository,
	syncer HistorySyncer) *Queue {
	return &Queue{
		posts:      posts,
		publisher:  publisher,
		reconciler: reconciler,
		accounts:   accounts,
		history:    history,
		syncer:     syncer,
	}
}

const (
	TaskTypePublishPost = "publish:post"
	TaskTypeSyncHistory = "history:sync"
)

type PublishPostPayload struct {
	PostID     string   `json:"post_id"`
	UserID     int64    `json:"user_id"`
	VariantKey string   `json:"variant_key"`
	Platforms  []string `json:"platforms"`
	GroupID    int64    `json:"group_id"`
	Thread     bool     `json:"thread"`
}
