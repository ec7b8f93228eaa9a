package models

import "time"

// VariantKeyBase is the canonical variant every post starts with. Platform
// variants are cloned from it when the user targets a platform.
const VariantKeyBase = "base"

const (
	VariantStatusDraft     = "draft"
	VariantStatusScheduled = "scheduled"
	VariantStatusPublished = "published"
)

const (
	MediaTypeImage    = "image"
	MediaTypeVideo    = "video"
	MediaTypeURLImage = "url-image"
	MediaTypeURLVideo = "url-video"
)

type Post struct {
	ID        string                  `db:"id" json:"id"`
	UserID    int64                   `db:"user_id" json:"user_id"`
	Title     string                  `db:"title" json:"title"`
	Variants  map[string]*PostVariant `json:"variants"`
	CreatedAt time.Time               `db:"created_at" json:"created_at"`
	UpdatedAt time.Time               `db:"updated_at" json:"updated_at"`
}

type PostVariant struct {
	Key            string      `db:"variant_key" json:"key"`
	Text           string      `db:"content" json:"text"`
	Media          []MediaItem `json:"media"`
	ReplyTo        *ReplyTo    `json:"reply_to,omitempty"`
	Status         string      `db:"status" json:"status"`
	ScheduledFor   *time.Time  `db:"scheduled_for" json:"scheduled_for,omitempty"`
	PublishedAt    *time.Time  `db:"published_at" json:"published_at,omitempty"`
	AyrsharePostID string      `db:"ayrshare_post_id" json:"ayrshare_post_id,omitempty"`
	SocialPostURL  string      `db:"social_post_url" json:"social_post_url,omitempty"`
	Edited         bool        `db:"edited" json:"edited"`
	LastModified   time.Time   `db:"last_modified" json:"last_modified"`
}

// MediaItem is a tagged union: image/video items hold an AssetID referencing a
// binary stream owned exclusively by this variant's media list; url-image and
// url-video items carry an external URL instead.
type MediaItem struct {
	Type    string `json:"type"`
	AssetID string `json:"asset_id,omitempty"`
	URL     string `json:"url,omitempty"`
	Alt     string `json:"alt,omitempty"`
}

type ReplyTo struct {
	URL               string `json:"url"`
	Platform          string `json:"platform"`
	PostID            string `json:"post_id,omitempty"`
	Author            string `json:"author,omitempty"`
	AuthorUsername    string `json:"author_username,omitempty"`
	AuthorPostContent string `json:"author_post_content,omitempty"`
	AuthorAvatar      string `json:"author_avatar,omitempty"`
	LikesCount        int    `json:"likes_count,omitempty"`
}

// ThreadPost is derived from a variant's live text by the segmenter. It is
// never persisted.
type ThreadPost struct {
	Content        string `json:"content"`
	CharacterCount int    `json:"character_count"`
	Index          int    `json:"index"`
	Total          int    `json:"total"`
}

type PublishHistory struct {
	ID           int64     `db:"id" json:"id"`
	UserID       int64     `db:"user_id" json:"user_id"`
	PostID       string    `db:"post_id" json:"post_id"`
	Platforms    string    `db:"platforms" json:"platforms"`
	ExternalID   string    `db:"external_id" json:"external_id"`
	ErrorMessage string    `db:"error_message" json:"error_message"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
