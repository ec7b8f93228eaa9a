package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"

	"github.com/crosswire-app/crosswire/internal/models"
)

// ScheduledVariant pairs a scheduled variant with its owning post, for the
// history sync job.
type ScheduledVariant struct {
	PostID  string
	UserID  int64
	Variant *models.PostVariant
}

type VariantRepository interface {
	Upsert(ctx context.Context, tx *sql.Tx, postID string, v *models.PostVariant) error
	ListByPostID(ctx context.Context, postID string) ([]*models.PostVariant, error)
	ListScheduled(ctx context.Context) ([]*ScheduledVariant, error)
	Remove(ctx context.Context, postID, key string) error
}

type variantRepository struct {
	db *sql.DB
}

func NewVariantRepository(db *sql.DB) VariantRepository {
	return &variantRepository{db: db}
}

// Upsert writes a variant snapshot. The WHERE guard on last_modified makes the
// write last-writer-wins: a stale snapshot from a slower session never rolls
// back a newer one.
func (r *variantRepository) Upsert(ctx context.Context, tx *sql.Tx, postID string, v *models.PostVariant) error {
	media, err := json.Marshal(v.Media)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	var replyTo []byte
	if v.ReplyTo != nil {
		replyTo, err = json.Marshal(v.ReplyTo)
		if err != nil {
			slog.Info(err.Error())
			return err
		}
	}

	query := `
		INSERT INTO post_variants
			(post_id, variant_key, content, media, reply_to, status,
			 scheduled_for, published_at, ayrshare_post_id, social_post_url,
			 edited, last_modified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (post_id, variant_key) DO UPDATE SET
			content = EXCLUDED.content,
			media = EXCLUDED.media,
			reply_to = EXCLUDED.reply_to,
			status = EXCLUDED.status,
			scheduled_for = EXCLUDED.scheduled_for,
			published_at = EXCLUDED.published_at,
			ayrshare_post_id = EXCLUDED.ayrshare_post_id,
			social_post_url = EXCLUDED.social_post_url,
			edited = EXCLUDED.edited,
			last_modified = EXCLUDED.last_modified
		WHERE post_variants.last_modified <= EXCLUDED.last_modified
	`

	args := []interface{}{
		postID, v.Key, v.Text, media, replyTo, v.Status,
		v.ScheduledFor, v.PublishedAt, v.AyrsharePostID, v.SocialPostURL,
		v.Edited, v.LastModified,
	}

	if tx != nil {
		_, err = tx.ExecContext(ctx, query, args...)
	} else {
		_, err = r.db.ExecContext(ctx, query, args...)
	}
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *variantRepository) ListByPostID(ctx context.Context, postID string) ([]*models.PostVariant, error) {
	query := `
		SELECT variant_key, content, media, reply_to, status, scheduled_for,
		       published_at, ayrshare_post_id, social_post_url, edited, last_modified
		FROM post_variants WHERE post_id = $1
	`

	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var variants []*models.PostVariant
	for rows.Next() {
		var v models.PostVariant
		var media, replyTo []byte
		err := rows.Scan(&v.Key, &v.Text, &media, &replyTo, &v.Status, &v.ScheduledFor,
			&v.PublishedAt, &v.AyrsharePostID, &v.SocialPostURL, &v.Edited, &v.LastModified)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		if len(media) > 0 {
			if err := json.Unmarshal(media, &v.Media); err != nil {
				slog.Info(err.Error())
			}
		}
		if len(replyTo) > 0 {
			if err := json.Unmarshal(replyTo, &v.ReplyTo); err != nil {
				slog.Info(err.Error())
			}
		}
		variants = append(variants, &v)
	}
	return variants, nil
}

func (r *variantRepository) ListScheduled(ctx context.Context) ([]*ScheduledVariant, error) {
	query := `
		SELECT p.id, p.user_id, v.variant_key, v.content, v.status, v.scheduled_for,
		       v.ayrshare_post_id, v.last_modified
		FROM post_variants v
		JOIN posts p ON p.id = v.post_id
		WHERE v.status = $1 AND v.ayrshare_post_id <> ''
	`

	rows, err := r.db.QueryContext(ctx, query, models.VariantStatusScheduled)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var scheduled []*ScheduledVariant
	for rows.Next() {
		var sv ScheduledVariant
		var v models.PostVariant
		err := rows.Scan(&sv.PostID, &sv.UserID, &v.Key, &v.Text, &v.Status, &v.ScheduledFor,
			&v.AyrsharePostID, &v.LastModified)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		sv.Variant = &v
		scheduled = append(scheduled, &sv)
	}
	return scheduled, nil
}

func (r *variantRepository) Remove(ctx context.Context, postID, key string) error {
	query := `DELETE FROM post_variants WHERE post_id = $1 AND variant_key = $2`
	_, err := r.db.ExecContext(ctx, query, postID, key)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
