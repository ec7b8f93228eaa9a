package service

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	config "github.com/crosswire-app/crosswire/configs"
	"github.com/crosswire-app/crosswire/internal/models"
	"github.com/crosswire-app/crosswire/internal/transfer"
)

// MinScheduleLead is the shortest lead time the provider will honor for a
// scheduled post. Anything under it is sent as an immediate publish instead.
const MinScheduleLead = 5 * time.Minute

// ParseScheduleAt parses a requested schedule timestamp. Empty input means no
// schedule; an unparsable value is always a ValidationError naming it, never
// a silent fallthrough to an immediate publish.
func ParseScheduleAt(scheduleAt string) (*time.Time, error) {
	if scheduleAt == "" {
		return nil, nil
	}

	t, err := time.Parse(time.RFC3339, scheduleAt)
	if err != nil {
		t, err = time.Parse("2006-01-02T15:04", scheduleAt)
	}
	if err != nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("invalid schedule date %q", scheduleAt)}
	}
	return &t, nil
}

var providerPlatforms = map[string]string{
	models.PlatformX: "twitter",
}

var internalPlatforms = map[string]string{
	"twitter": models.PlatformX,
}

// ToProviderPlatform maps an internal platform name into the provider's
// vocabulary. Unknown names pass through unchanged.
func ToProviderPlatform(platform string) string {
	if p, ok := providerPlatforms[platform]; ok {
		return p
	}
	return platform
}

// ToInternalPlatform maps a provider platform name back to the variant key.
func ToInternalPlatform(platform string) string {
	if p, ok := internalPlatforms[platform]; ok {
		return p
	}
	return platform
}

type PublishBuilder struct {
	cfg config.Config
}

func NewPublishBuilder(cfg config.Config) *PublishBuilder {
	return &PublishBuilder{cfg: cfg}
}

// Build turns a variant plus the selected platforms into the provider's wire
// payload. It returns the validated schedule time when one survived the
// lead-time rule, so the reconciler later knows what was actually requested.
func (b *PublishBuilder) Build(
	variant *models.PostVariant,
	platforms []string,
	scheduleAt string,
	opts *transfer.TwitterOptions,
) (*transfer.AyrsharePostRequest, *time.Time, error) {
	if variant == nil || strings.TrimSpace(variant.Text) == "" {
		return nil, nil, &ValidationError{Reason: "post content is empty"}
	}
	if len(platforms) == 0 {
		return nil, nil, &ValidationError{Reason: "no platforms selected"}
	}

	mapped := make([]string, 0, len(platforms))
	for _, p := range platforms {
		mapped = append(mapped, ToProviderPlatform(p))
	}

	req := &transfer.AyrsharePostRequest{
		Post:           variant.Text,
		Platforms:      mapped,
		MediaURLs:      b.resolveMediaURLs(variant.Media),
		TwitterOptions: opts,
	}

	// Auto-threading: only when twitter is targeted, the text exceeds its
	// limit, and the caller supplied no explicit threading options.
	if opts == nil && containsPlatform(mapped, "twitter") {
		limit := models.CharacterLimit(models.ThreadCapablePlatform)
		if utf8.RuneCountInString(variant.Text) > limit {
			req.TwitterOptions = &transfer.TwitterOptions{Thread: true, ThreadNumber: true}
		}
	}

	scheduledFor, err := b.validateSchedule(scheduleAt)
	if err != nil {
		return nil, nil, err
	}
	if scheduledFor != nil {
		req.ScheduleDate = scheduledFor.UTC().Format(time.RFC3339)
	}

	return req, scheduledFor, nil
}

// validateSchedule applies the lead-time rule on top of ParseScheduleAt: a
// parseable timestamp under the minimum lead is dropped so the request
// becomes an immediate publish, with the downgrade reported.
func (b *PublishBuilder) validateSchedule(scheduleAt string) (*time.Time, error) {
	t, err := ParseScheduleAt(scheduleAt)
	if err != nil || t == nil {
		return nil, err
	}

	if time.Until(*t) < MinScheduleLead {
		slog.Warn("schedule time under minimum lead, publishing immediately",
			"schedule_at", scheduleAt)
		return nil, nil
	}

	return t, nil
}

// resolveMediaURLs flattens the media list into plain public URLs. Owned
// assets resolve through the public bucket URL; malformed items are skipped
// rather than failing the whole request. Only http(s) URLs survive.
func (b *PublishBuilder) resolveMediaURLs(media []models.MediaItem) []string {
	var urls []string
	for _, item := range media {
		var u string
		switch item.Type {
		case models.MediaTypeURLImage, models.MediaTypeURLVideo:
			u = item.URL
		case models.MediaTypeImage, models.MediaTypeVideo:
			if item.AssetID == "" || strings.ContainsAny(item.AssetID, "/ ") {
				slog.Warn("skipping media item with malformed asset id", "asset_id", item.AssetID)
				continue
			}
			u = fmt.Sprintf("%s/%s", strings.TrimRight(b.cfg.R2.PublicURL, "/"), item.AssetID)
		default:
			slog.Warn("skipping media item with unknown type", "type", item.Type)
			continue
		}
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			continue
		}
		urls = append(urls, u)
	}
	return urls
}

func containsPlatform(platforms []string, platform string) bool {
	for _, p := range platforms {
		if p == platform {
			return true
		}
	}
	return false
}
