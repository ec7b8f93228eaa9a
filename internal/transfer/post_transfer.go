package transfer

type PostCreation struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

type VariantSave struct {
	PostID string `json:"post_id"`
	Key    string `json:"key"`
	Text   string `json:"text"`
}

type PublishCreation struct {
	PostID     string   `json:"post_id"`
	VariantKey string   `json:"variant_key"`
	Platforms  []string `json:"platforms"`
	ScheduleAt string   `json:"schedule_at,omitempty"`
	GroupID    int64    `json:"group_id,omitempty"`
}

type ReplyPreview struct {
	URL               string `json:"url"`
	Platform          string `json:"platform"`
	Author            string `json:"author"`
	AuthorUsername    string `json:"author_username"`
	AuthorPostContent string `json:"author_post_content"`
	AuthorAvatar      string `json:"author_avatar"`
	LikesCount        int    `json:"likes_count"`
}

// WebhookEvent is the provider-pushed payload; handlers key off Event and
// defer any document updates to the queue.
type WebhookEvent struct {
	Event   string            `json:"event"`
	ID      string            `json:"id,omitempty"`
	Status  string            `json:"status,omitempty"`
	RefID   string            `json:"refId,omitempty"`
	PostIDs map[string]string `json:"postIds,omitempty"`
}
