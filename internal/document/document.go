package document

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/crosswire-app/crosswire/internal/models"
)

var (
	ErrVariantNotFound  = errors.New("variant not found")
	ErrBaseNotRemovable = errors.New("base variant cannot be removed")
)

// Document wraps one collaboratively edited post behind a command API. All
// mutation goes through the commands below so the storage engine's merge
// semantics never leak field-by-field assignment into the rest of the code.
// Non-text fields are last-writer-wins at the field level; text changes are
// applied as patches.
type Document struct {
	mu   sync.Mutex
	post *models.Post
}

// Load wraps a post, repairing malformed variants once at this boundary (see
// Repair). Consumers past this point can assume well-formed variants.
func Load(post *models.Post) *Document {
	Repair(post)
	return &Document{post: post}
}

func (d *Document) ID() string {
	return d.post.ID
}

// Snapshot returns a deep copy for readers; the live post is never handed out.
func (d *Document) Snapshot() *models.Post {
	d.mu.Lock()
	defer d.mu.Unlock()

	cp := *d.post
	cp.Variants = make(map[string]*models.PostVariant, len(d.post.Variants))
	for k, v := range d.post.Variants {
		cp.Variants[k] = copyVariant(v)
	}
	return &cp
}

// Variant returns a copy of one variant.
func (d *Document) Variant(key string) (*models.PostVariant, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	v, ok := d.post.Variants[key]
	if !ok {
		return nil, false
	}
	return copyVariant(v), true
}

func (d *Document) VariantKeys() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	keys := make([]string, 0, len(d.post.Variants))
	for k := range d.post.Variants {
		keys = append(keys, k)
	}
	return keys
}

func (d *Document) SetTitle(title string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.post.Title = title
	d.post.UpdatedAt = time.Now()
}

// AddVariant materializes a platform variant cloned from base's current text.
// Re-adding an existing key is a no-op, not an error.
func (d *Document) AddVariant(key string) *models.PostVariant {
	d.mu.Lock()
	defer d.mu.Unlock()

	if v, ok := d.post.Variants[key]; ok {
		return copyVariant(v)
	}

	text := ""
	if base, ok := d.post.Variants[models.VariantKeyBase]; ok {
		text = base.Text
	}
	v := &models.PostVariant{
		Key:          key,
		Text:         text,
		Media:        []models.MediaItem{},
		Status:       models.VariantStatusDraft,
		LastModified: time.Now(),
	}
	d.post.Variants[key] = v
	return copyVariant(v)
}

func (d *Document) RemoveVariant(key string) error {
	if key == models.VariantKeyBase {
		return ErrBaseNotRemovable
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.post.Variants[key]; !ok {
		return fmt.Errorf("%w: %s", ErrVariantNotFound, key)
	}
	delete(d.post.Variants, key)
	return nil
}

// ApplyTextDiff merges a patch into the variant's shared text and stamps the
// edit bookkeeping.
func (d *Document) ApplyTextDiff(key string, p Patch) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	v, ok := d.post.Variants[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrVariantNotFound, key)
	}
	v.Text = ApplyPatch(v.Text, p)
	v.Edited = true
	v.LastModified = time.Now()
	return nil
}

// SetVariantStatus moves a variant between draft/scheduled/published while
// keeping the status-dependent fields consistent: draft carries none of
// scheduledFor/publishedAt/externalID, scheduled carries only scheduledFor,
// published carries publishedAt and the external id.
func (d *Document) SetVariantStatus(key, status string, scheduledFor *time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	v, ok := d.post.Variants[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrVariantNotFound, key)
	}
	switch status {
	case models.VariantStatusDraft:
		v.Status = status
		v.ScheduledFor = nil
		v.PublishedAt = nil
		v.AyrsharePostID = ""
		v.SocialPostURL = ""
	case models.VariantStatusScheduled:
		v.Status = status
		v.ScheduledFor = scheduledFor
		v.PublishedAt = nil
		// A locally scheduled variant has no provider-side post yet; a
		// stale external id would make the history sync treat it as one.
		v.AyrsharePostID = ""
		v.SocialPostURL = ""
	default:
		return fmt.Errorf("invalid variant status %q", status)
	}
	v.LastModified = time.Now()
	return nil
}

// SetPublishResult records a successful provider outcome on one variant. It
// writes only the publish bookkeeping fields; text, media and title are left
// alone so edits made while the call was in flight survive.
func (d *Document) SetPublishResult(key, status, externalID, socialURL string, scheduledFor *time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	v, ok := d.post.Variants[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrVariantNotFound, key)
	}
	v.AyrsharePostID = externalID
	v.SocialPostURL = socialURL
	switch status {
	case models.VariantStatusScheduled:
		v.Status = status
		v.ScheduledFor = scheduledFor
		v.PublishedAt = nil
	case models.VariantStatusPublished:
		now := time.Now()
		v.Status = status
		v.PublishedAt = &now
		v.ScheduledFor = nil
	default:
		return fmt.Errorf("invalid publish status %q", status)
	}
	v.LastModified = time.Now()
	return nil
}

func (d *Document) SetReplyMeta(key string, reply *models.ReplyTo) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	v, ok := d.post.Variants[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrVariantNotFound, key)
	}
	v.ReplyTo = reply
	v.LastModified = time.Now()
	return nil
}

func (d *Document) ClearReplyMeta(key string) error {
	return d.SetReplyMeta(key, nil)
}

func (d *Document) AppendMedia(key string, item models.MediaItem) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	v, ok := d.post.Variants[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrVariantNotFound, key)
	}
	v.Media = append(v.Media, item)
	v.LastModified = time.Now()
	return nil
}

func (d *Document) RemoveMedia(key string, index int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	v, ok := d.post.Variants[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrVariantNotFound, key)
	}
	if index < 0 || index >= len(v.Media) {
		return fmt.Errorf("media index %d out of range", index)
	}
	v.Media = append(v.Media[:index], v.Media[index+1:]...)
	v.LastModified = time.Now()
	return nil
}

func copyVariant(v *models.PostVariant) *models.PostVariant {
	cp := *v
	cp.Media = append([]models.MediaItem(nil), v.Media...)
	if v.ReplyTo != nil {
		r := *v.ReplyTo
		cp.ReplyTo = &r
	}
	if v.ScheduledFor != nil {
		t := *v.ScheduledFor
		cp.ScheduledFor = &t
	}
	if v.PublishedAt != nil {
		t := *v.PublishedAt
		cp.PublishedAt = &t
	}
	return &cp
}
