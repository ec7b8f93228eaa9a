package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	config "github.com/crosswire-app/crosswire/configs"
	"github.com/crosswire-app/crosswire/internal/models"
	"github.com/crosswire-app/crosswire/internal/transfer"
	"github.com/crosswire-app/crosswire/pkg/socialurl"
	"github.com/redis/go-redis/v9"
)

const replyCacheTTL = 10 * time.Minute

// ReplyLookupService resolves a post URL into author/content metadata for the
// reply preview. Lookups are cached briefly since the same URL is re-validated
// on every debounce tick while the user types.
type ReplyLookupService interface {
	Lookup(ctx context.Context, postURL string) (*models.ReplyTo, error)
}

type replyLookupService struct {
	cfg    config.Config
	rdb    *redis.Client
	client *http.Client
}

func NewReplyLookupService(cfg config.Config, rdb *redis.Client) ReplyLookupService {
	return &replyLookupService{
		cfg:    cfg,
		rdb:    rdb,
		client: &http.Client{Timeout: ayrshareTimeout},
	}
}

func (s *replyLookupService) Lookup(ctx context.Context, postURL string) (*models.ReplyTo, error) {
	platform := socialurl.DetectPlatform(postURL)
	if platform == "" || !socialurl.IsValidPostURL(postURL) {
		return nil, &ValidationError{Reason: fmt.Sprintf("not a recognized post URL: %q", postURL)}
	}

	cacheKey := "replymeta:" + postURL
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
			var reply models.ReplyTo
			if err := json.Unmarshal(cached, &reply); err == nil {
				return &reply, nil
			}
		}
	}

	preview, err := s.fetchPreview(ctx, postURL)
	if err != nil {
		return nil, err
	}

	reply := &models.ReplyTo{
		URL:               postURL,
		Platform:          platform,
		PostID:            socialurl.ExtractPostID(postURL),
		Author:            preview.Author,
		AuthorUsername:    preview.AuthorUsername,
		AuthorPostContent: preview.AuthorPostContent,
		AuthorAvatar:      preview.AuthorAvatar,
		LikesCount:        preview.LikesCount,
	}

	if s.rdb != nil {
		if payload, err := json.Marshal(reply); err == nil {
			if err := s.rdb.Set(ctx, cacheKey, payload, replyCacheTTL).Err(); err != nil {
				slog.Info(err.Error())
			}
		}
	}

	return reply, nil
}

func (s *replyLookupService) fetchPreview(ctx context.Context, postURL string) (*transfer.ReplyPreview, error) {
	endpoint := fmt.Sprintf("%s/post/lookup?url=%s", s.cfg.AyrshareBaseURL, url.QueryEscape(postURL))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.AyrshareAPIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, &NetworkError{Op: "GET /post/lookup", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("post lookup returned status %d", resp.StatusCode)
	}

	var preview transfer.ReplyPreview
	if err := json.NewDecoder(resp.Body).Decode(&preview); err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("failed to decode post lookup response: %w", err)
	}

	return &preview, nil
}
