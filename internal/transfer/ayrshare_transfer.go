package transfer

// AyrsharePostRequest is the body of POST /post. Fields with zero values are
// omitted; TwitterOptions is a pointer so an explicitly provided options
// object survives serialization even when empty.
type AyrsharePostRequest struct {
	Post           string          `json:"post"`
	Platforms      []string        `json:"platforms"`
	MediaURLs      []string        `json:"mediaUrls,omitempty"`
	ScheduleDate   string          `json:"scheduleDate,omitempty"`
	TwitterOptions *TwitterOptions `json:"twitterOptions,omitempty"`
}

type TwitterOptions struct {
	Thread         bool   `json:"thread,omitempty"`
	ThreadNumber   bool   `json:"threadNumber,omitempty"`
	ReplyToTweetID string `json:"replyToTweetId,omitempty"`
}

// AyrshareCommentRequest targets a single platform's existing post.
type AyrshareCommentRequest struct {
	Post      string   `json:"post"`
	ID        string   `json:"id"`
	Platforms []string `json:"platforms"`
}

// AyrshareResponse is a superset of the provider's three success shapes:
// a platform->id map (PostIDs), a single scheduled object (ID + Status), or an
// array of per-post results (Posts). Error payloads reuse the same struct.
type AyrshareResponse struct {
	Status  string            `json:"status,omitempty"`
	ID      string            `json:"id,omitempty"`
	PostIDs map[string]string `json:"postIds,omitempty"`
	Posts   []AyrsharePost    `json:"posts,omitempty"`
	Errors  []AyrshareError   `json:"errors,omitempty"`
	Code    int               `json:"code,omitempty"`
	Message string            `json:"message,omitempty"`
}

type AyrsharePost struct {
	ID       string          `json:"id"`
	Status   string          `json:"status"`
	Platform string          `json:"platform,omitempty"`
	Errors   []AyrshareError `json:"errors,omitempty"`
}

type AyrshareError struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	Platform string `json:"platform,omitempty"`
}

// AyrshareHistoryRecord is one entry from GET /history.
type AyrshareHistoryRecord struct {
	ID           string            `json:"id"`
	Status       string            `json:"status"`
	Post         string            `json:"post"`
	Platforms    []string          `json:"platforms"`
	ScheduleDate string            `json:"scheduleDate,omitempty"`
	PostIDs      map[string]string `json:"postIds,omitempty"`
	Created      string            `json:"created,omitempty"`
}

// PublishOutcome is the normalized result of one provider call, regardless of
// which response shape came back.
type PublishOutcome struct {
	SucceededPlatforms []string
	ExternalIDs        map[string]string
	ExternalID         string
	IsScheduled        bool
}

// Succeeded reports whether the provider delivered (or scheduled) the post on
// the given provider platform name.
func (o *PublishOutcome) Succeeded(platform string) bool {
	for _, p := range o.SucceededPlatforms {
		if p == platform {
			return true
		}
	}
	return false
}

// IDFor returns the external post id for a provider platform name, falling
// back to the call-wide id when the provider returned a single one.
func (o *PublishOutcome) IDFor(platform string) string {
	if id, ok := o.ExternalIDs[platform]; ok && id != "" {
		return id
	}
	return o.ExternalID
}
