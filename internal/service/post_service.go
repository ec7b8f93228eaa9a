package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/crosswire-app/crosswire/internal/document"
	"github.com/crosswire-app/crosswire/internal/models"
	"github.com/crosswire-app/crosswire/internal/repository"
	"github.com/crosswire-app/crosswire/internal/transfer"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// PostService owns loading and persisting post documents. Everything past
// LoadDocument works on the document's command API; this is the only place
// rows and documents meet.
type PostService interface {
	Create(ctx context.Context, userID int64, pc *transfer.PostCreation) (string, error)
	List(ctx context.Context, userID int64) ([]*models.Post, error)
	LoadDocument(ctx context.Context, postID string, userID int64) (*document.Document, error)
	PersistDocument(ctx context.Context, doc *document.Document) error
	RemoveVariant(ctx context.Context, postID, key string) error
	Remove(ctx context.Context, userID int64, postID string) error
}

type postService struct {
	db *sql.DB
	pr repository.PostRepository
	vr repository.VariantRepository
}

func NewPostService(db *sql.DB, pr repository.PostRepository, vr repository.VariantRepository) PostService {
	return &postService{db: db, pr: pr, vr: vr}
}

func (s *postService) Create(ctx context.Context, userID int64, pc *transfer.PostCreation) (string, error) {
	if pc == nil {
		err := errors.New("post creation data is nil")
		slog.Error(err.Error())
		return "", err
	}

	id, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	post := &models.Post{
		ID:     id,
		UserID: userID,
		Title:  pc.Title,
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if err = s.pr.Create(ctx, tx, post); err != nil {
		return "", fmt.Errorf("error creating post: %w", err)
	}

	doc := document.Load(post)
	if pc.Text != "" {
		patch := document.MakePatch("", pc.Text)
		if err = doc.ApplyTextDiff(models.VariantKeyBase, patch); err != nil {
			return "", err
		}
	}

	base, _ := doc.Variant(models.VariantKeyBase)
	if err = s.vr.Upsert(ctx, tx, post.ID, base); err != nil {
		return "", fmt.Errorf("error saving base variant: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	return id, nil
}

func (s *postService) List(ctx context.Context, userID int64) ([]*models.Post, error) {
	posts, err := s.pr.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing posts: %w", err)
	}
	return posts, nil
}

func (s *postService) LoadDocument(ctx context.Context, postID string, userID int64) (*document.Document, error) {
	isValid, err := s.pr.CheckByUserID(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	if !isValid {
		err = errors.New("post doesn't exist")
		slog.Info(err.Error())
		return nil, err
	}

	post, err := s.pr.GetByID(ctx, postID)
	if err != nil || post == nil {
		return nil, fmt.Errorf("error getting post info")
	}

	variants, err := s.vr.ListByPostID(ctx, postID)
	if err != nil {
		return nil, err
	}
	post.Variants = make(map[string]*models.PostVariant, len(variants))
	for _, v := range variants {
		post.Variants[v.Key] = v
	}

	return document.Load(post), nil
}

// PersistDocument snapshots the document and upserts every variant. The
// repository's last-writer-wins guard keeps stale snapshots from rolling back
// newer writes.
func (s *postService) PersistDocument(ctx context.Context, doc *document.Document) error {
	snapshot := doc.Snapshot()

	if err := s.pr.UpdateTitle(ctx, snapshot.ID, snapshot.Title); err != nil {
		return err
	}
	for _, v := range snapshot.Variants {
		if err := s.vr.Upsert(ctx, nil, snapshot.ID, v); err != nil {
			return err
		}
	}
	return nil
}

func (s *postService) RemoveVariant(ctx context.Context, postID, key string) error {
	if key == models.VariantKeyBase {
		return document.ErrBaseNotRemovable
	}
	return s.vr.Remove(ctx, postID, key)
}

func (s *postService) Remove(ctx context.Context, userID int64, postID string) error {
	isValid, err := s.pr.CheckByUserID(ctx, postID, userID)
	if err != nil {
		return err
	}
	if !isValid {
		err = errors.New("post doesn't exist")
		slog.Info(err.Error())
		return err
	}

	if err := s.pr.Remove(ctx, postID); err != nil {
		return fmt.Errorf("error removing post: %w", err)
	}
	return nil
}
