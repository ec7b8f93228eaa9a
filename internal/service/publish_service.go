package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/crosswire-app/crosswire/internal/models"
	"github.com/crosswire-app/crosswire/internal/transfer"
	"github.com/crosswire-app/crosswire/pkg/socialurl"
	"github.com/crosswire-app/crosswire/pkg/threadutil"
)

// PublishOptions carries everything one publish invocation needs beyond the
// variant itself. Platforms use internal names.
type PublishOptions struct {
	Platforms  []string
	ScheduleAt string
	ProfileKey string
	Thread     bool
}

// PublishService drives the call sequence against the provider: a standard
// post, a reply onto an existing post, or a multi-segment thread. It never
// retries; callers may wrap it in bounded backoff for NetworkError only.
type PublishService interface {
	// Publish runs the whole sequence and returns the normalized outcome
	// along with the schedule time that actually went out (nil when the
	// post went immediately). The outcome is non-nil whenever at least one
	// platform succeeded, even if err is a PartialPlatformFailure.
	Publish(ctx context.Context, variant *models.PostVariant, opts PublishOptions) (*transfer.PublishOutcome, *time.Time, error)
}

type publishService struct {
	client  AyrshareClient
	builder *PublishBuilder
}

func NewPublishService(client AyrshareClient, builder *PublishBuilder) PublishService {
	return &publishService{client: client, builder: builder}
}

func (s *publishService) Publish(ctx context.Context, variant *models.PostVariant, opts PublishOptions) (*transfer.PublishOutcome, *time.Time, error) {
	if variant == nil {
		return nil, nil, &ValidationError{Reason: "variant is nil"}
	}

	if variant.ReplyTo != nil && variant.ReplyTo.URL != "" {
		return s.publishReply(ctx, variant, opts)
	}
	if opts.Thread {
		return s.publishThread(ctx, variant, opts)
	}
	return s.publishStandard(ctx, variant, opts, nil)
}

func (s *publishService) publishStandard(ctx context.Context, variant *models.PostVariant, opts PublishOptions, twOpts *transfer.TwitterOptions) (*transfer.PublishOutcome, *time.Time, error) {
	req, scheduledFor, err := s.builder.Build(variant, opts.Platforms, opts.ScheduleAt, twOpts)
	if err != nil {
		return nil, nil, err
	}

	resp, err := s.client.CreatePost(ctx, req, opts.ProfileKey)
	if err != nil {
		return nil, nil, err
	}

	outcome, err := normalizeOutcome(resp, req.Platforms)
	return outcome, scheduledFor, err
}

// publishReply resolves the reply target from the variant's reply URL. Only
// the URL's own platform receives the reply: natively for twitter, as a
// comment on the foreign post for everything else. The target platform must
// be among the requested ones.
func (s *publishService) publishReply(ctx context.Context, variant *models.PostVariant, opts PublishOptions) (*transfer.PublishOutcome, *time.Time, error) {
	replyURL := variant.ReplyTo.URL
	platform := socialurl.DetectPlatform(replyURL)
	if platform == "" || !socialurl.IsValidPostURL(replyURL) {
		return nil, nil, &ValidationError{Reason: fmt.Sprintf("invalid reply URL %q", replyURL)}
	}
	postID := socialurl.ExtractPostID(replyURL)
	if postID == "" {
		return nil, nil, &ValidationError{Reason: fmt.Sprintf("could not extract a post id from %q", replyURL)}
	}

	if !containsPlatform(opts.Platforms, platform) {
		return nil, nil, &ValidationError{
			Reason: fmt.Sprintf("reply URL belongs to %s, which is not among the selected platforms; select %s to publish this reply", platform, platform),
		}
	}

	target := PublishOptions{
		Platforms:  []string{platform},
		ScheduleAt: opts.ScheduleAt,
		ProfileKey: opts.ProfileKey,
	}

	if platform == models.ThreadCapablePlatform {
		return s.publishStandard(ctx, variant, target, &transfer.TwitterOptions{ReplyToTweetID: postID})
	}

	// Non-native reply: comment on the existing foreign post.
	if strings.TrimSpace(variant.Text) == "" {
		return nil, nil, &ValidationError{Reason: "post content is empty"}
	}
	resp, err := s.client.CreateComment(ctx, &transfer.AyrshareCommentRequest{
		Post:      variant.Text,
		ID:        postID,
		Platforms: []string{ToProviderPlatform(platform)},
	}, opts.ProfileKey)
	if err != nil {
		return nil, nil, err
	}
	outcome, err := normalizeOutcome(resp, []string{ToProviderPlatform(platform)})
	return outcome, nil, err
}

// publishThread segments the text, posts segment 1 as a standard post, then
// chains every remaining segment as a comment per platform that succeeded.
// Each platform's chain targets its own external id; chains are independent.
func (s *publishService) publishThread(ctx context.Context, variant *models.PostVariant, opts PublishOptions) (*transfer.PublishOutcome, *time.Time, error) {
	limit := threadLimit(opts.Platforms)
	segments, err := threadutil.Segment(variant.Text, limit)
	if err != nil {
		return nil, nil, &ValidationError{Reason: err.Error()}
	}
	if len(segments) <= 1 {
		return s.publishStandard(ctx, variant, opts, nil)
	}

	total := len(segments)
	first := *variant
	first.Text = threadutil.FormatWithNumbering(segments[0].Content, 1, total)

	// Explicit empty options: we chain segments ourselves, so the provider
	// must not auto-thread the first post.
	outcome, scheduledFor, err := s.publishStandard(ctx, &first, opts, &transfer.TwitterOptions{})
	if err != nil && outcome == nil {
		return nil, nil, err
	}
	if outcome == nil || len(outcome.SucceededPlatforms) == 0 {
		if err == nil {
			err = errors.New("no platform accepted the first thread segment")
		}
		return nil, nil, err
	}
	firstErr := err

	if outcome.IsScheduled {
		// Comments cannot target a post that does not exist yet.
		slog.Warn("thread was scheduled, remaining segments will not be chained",
			"segments", total)
		return outcome, scheduledFor, firstErr
	}

	var (
		mu        sync.Mutex
		commentEs []string
		wg        sync.WaitGroup
		semaphore = make(chan struct{}, 5)
	)

	for _, seg := range segments[1:] {
		for _, platform := range outcome.SucceededPlatforms {
			wg.Add(1)
			semaphore <- struct{}{}
			go func(seg models.ThreadPost, platform string) {
				defer wg.Done()
				defer func() { <-semaphore }()

				req := &transfer.AyrshareCommentRequest{
					Post:      threadutil.FormatWithNumbering(seg.Content, seg.Index, seg.Total),
					ID:        outcome.IDFor(platform),
					Platforms: []string{platform},
				}
				resp, err := s.client.CreateComment(ctx, req, opts.ProfileKey)
				if err == nil {
					_, err = normalizeOutcome(resp, []string{platform})
				}
				if err != nil {
					mu.Lock()
					commentEs = append(commentEs, fmt.Sprintf("segment %d on %s: %v", seg.Index, platform, err))
					mu.Unlock()
				}
			}(seg, platform)
		}
	}
	wg.Wait()

	if len(commentEs) > 0 || firstErr != nil {
		reasons := commentEs
		if firstErr != nil {
			reasons = append([]string{firstErr.Error()}, reasons...)
		}
		return outcome, scheduledFor, &PartialPlatformFailure{Outcome: outcome, Reasons: reasons}
	}
	return outcome, scheduledFor, nil
}

// threadLimit picks the tightest character limit among the requested
// platforms so every segment fits everywhere it is sent.
func threadLimit(platforms []string) int {
	limit := 0
	for _, p := range platforms {
		if l := models.CharacterLimit(p); l > 0 && (limit == 0 || l < limit) {
			limit = l
		}
	}
	if limit == 0 {
		limit = models.CharacterLimit(models.ThreadCapablePlatform)
	}
	return limit
}

// normalizeOutcome collapses the provider's three success shapes into one
// result and classifies any embedded errors. A duplicate-content error
// short-circuits into a single top-level error with no per-platform
// breakdown. When some platforms succeeded and some failed, the outcome is
// returned together with a PartialPlatformFailure.
func normalizeOutcome(resp *transfer.AyrshareResponse, requested []string) (*transfer.PublishOutcome, error) {
	outcome := &transfer.PublishOutcome{
		ExternalIDs: make(map[string]string),
	}

	var failures []string
	collect := func(ayErr transfer.AyrshareError) error {
		classified := classifyPlatformError(ayErr)
		var dup *DuplicateContentError
		if errors.As(classified, &dup) {
			return dup
		}
		failures = append(failures, classified.Error())
		return nil
	}

	for _, ayErr := range resp.Errors {
		if dup := collect(ayErr); dup != nil {
			return nil, dup
		}
	}
	if resp.Status == "error" && resp.Code != 0 {
		if dup := collect(transfer.AyrshareError{Code: resp.Code, Message: resp.Message}); dup != nil {
			return nil, dup
		}
	}

	switch {
	case len(resp.PostIDs) > 0:
		for platform, id := range resp.PostIDs {
			outcome.SucceededPlatforms = append(outcome.SucceededPlatforms, platform)
			outcome.ExternalIDs[platform] = id
		}

	case len(resp.Posts) > 0:
		if resp.Posts[0].Status == "scheduled" {
			outcome.IsScheduled = true
		}
		for _, post := range resp.Posts {
			if len(post.Errors) > 0 {
				for _, ayErr := range post.Errors {
					if ayErr.Platform == "" {
						ayErr.Platform = post.Platform
					}
					if dup := collect(ayErr); dup != nil {
						return nil, dup
					}
				}
				continue
			}
			platform := post.Platform
			if platform == "" && len(requested) == 1 {
				platform = requested[0]
			}
			if platform != "" {
				outcome.SucceededPlatforms = append(outcome.SucceededPlatforms, platform)
				outcome.ExternalIDs[platform] = post.ID
			}
			if outcome.ExternalID == "" {
				outcome.ExternalID = post.ID
			}
		}
		// A scheduled result often carries no per-platform breakdown; the
		// provider accepted the schedule for every requested platform.
		if outcome.IsScheduled && len(outcome.SucceededPlatforms) == 0 && len(failures) == 0 {
			outcome.SucceededPlatforms = append(outcome.SucceededPlatforms, requested...)
		}

	case resp.ID != "":
		outcome.ExternalID = resp.ID
		outcome.IsScheduled = resp.Status == "scheduled"
		if resp.Status == "scheduled" || resp.Status == "success" {
			outcome.SucceededPlatforms = append(outcome.SucceededPlatforms, requested...)
		}

	case resp.Status == "success":
		outcome.SucceededPlatforms = append(outcome.SucceededPlatforms, requested...)
	}

	if len(failures) > 0 {
		if len(outcome.SucceededPlatforms) == 0 {
			return nil, errors.New(strings.Join(failures, "\n"))
		}
		return outcome, &PartialPlatformFailure{Outcome: outcome, Reasons: failures}
	}
	if len(outcome.SucceededPlatforms) == 0 {
		return nil, fmt.Errorf("provider accepted the call but reported no published platforms (status %q)", resp.Status)
	}
	return outcome, nil
}
