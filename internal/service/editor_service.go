package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/crosswire-app/crosswire/internal/document"
	"github.com/crosswire-app/crosswire/internal/models"
	"github.com/crosswire-app/crosswire/pkg/socialurl"
	"github.com/crosswire-app/crosswire/pkg/threadutil"
)

const (
	SeriesTypeNone   = "none"
	SeriesTypeReply  = "reply"
	SeriesTypeThread = "thread"
)

// replyDebounce delays URL validation while the user is still typing.
const replyDebounce = 500 * time.Millisecond

var blankLineBreak = regexp.MustCompile(`\n\s*\n`)

// EditorService hands out one editing session per (user, post) pair.
type EditorService struct {
	mu       sync.Mutex
	sessions map[string]*EditorSession

	posts      PostService
	publisher  PublishService
	reconciler ReconcileService
	replies    ReplyLookupService
}

func NewEditorService(posts PostService, publisher PublishService, reconciler ReconcileService, replies ReplyLookupService) *EditorService {
	return &EditorService{
		sessions:   make(map[string]*EditorSession),
		posts:      posts,
		publisher:  publisher,
		reconciler: reconciler,
		replies:    replies,
	}
}

func (s *EditorService) Session(ctx context.Context, postID string, userID int64) (*EditorSession, error) {
	key := fmt.Sprintf("%d:%s", userID, postID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if session, ok := s.sessions[key]; ok {
		return session, nil
	}

	doc, err := s.posts.LoadDocument(ctx, postID, userID)
	if err != nil {
		return nil, err
	}

	session := newEditorSession(doc, s.posts, s.publisher, s.reconciler, s.replies)
	s.sessions[key] = session
	return session, nil
}

func (s *EditorService) Close(postID string, userID int64) {
	key := fmt.Sprintf("%d:%s", userID, postID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[key]; ok {
		session.cancelDebounce()
		delete(s.sessions, key)
	}
}

// EditorSession tracks the interactive state of one post being edited: which
// variant is active, the live-typed text, reply and thread modes, and the
// in-flight save/publish flags. The shared document can change underneath it
// at any time; all derived state is recomputed against the document's current
// contents.
type EditorSession struct {
	mu sync.Mutex

	doc        *document.Document
	posts      PostService
	publisher  PublishService
	reconciler ReconcileService
	replies    ReplyLookupService

	activeKey    string
	draftText    string
	replyMode    bool
	replyURL     string
	quoteFlag    bool
	threadMode   bool
	isSaving     bool
	isScheduling bool
	debounce     *time.Timer
}

func newEditorSession(doc *document.Document, posts PostService, publisher PublishService, reconciler ReconcileService, replies ReplyLookupService) *EditorSession {
	s := &EditorSession{
		doc:        doc,
		posts:      posts,
		publisher:  publisher,
		reconciler: reconciler,
		replies:    replies,
	}
	s.activateLocked(models.VariantKeyBase)
	return s
}

func (s *EditorSession) Document() *document.Document {
	return s.doc
}

func (s *EditorSession) ActiveVariantKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeKey
}

// SetActiveVariant switches tabs. Series state is re-derived from the target
// variant; reply state never silently carries over from one platform to
// another.
func (s *EditorSession) SetActiveVariant(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.doc.Variant(key); !ok {
		return fmt.Errorf("%w: %s", document.ErrVariantNotFound, key)
	}
	s.activateLocked(key)
	return nil
}

func (s *EditorSession) activateLocked(key string) {
	s.cancelDebounceLocked()
	s.activeKey = key
	s.quoteFlag = false
	s.replyMode = false
	s.replyURL = ""

	v, ok := s.doc.Variant(key)
	if !ok {
		s.draftText = ""
		return
	}
	s.draftText = v.Text
	if v.ReplyTo != nil && v.ReplyTo.URL != "" {
		s.replyMode = true
		s.replyURL = v.ReplyTo.URL
	}
}

func (s *EditorSession) UpdateDraftText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draftText = text
}

func (s *EditorSession) DraftText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draftText
}

func (s *EditorSession) HasUnsavedChanges() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasUnsavedLocked()
}

func (s *EditorSession) hasUnsavedLocked() bool {
	v, ok := s.doc.Variant(s.activeKey)
	if !ok {
		return s.draftText != ""
	}
	return s.draftText != v.Text
}

// CanPublish requires persisted, non-empty content on the active variant, at
// least one platform variant besides base, and nothing unsaved (save before
// publish is mandatory).
func (s *EditorSession) CanPublish() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.doc.Variant(s.activeKey)
	if !ok || v.Text == "" {
		return false
	}
	if len(s.doc.VariantKeys()) <= 1 {
		return false
	}
	return !s.hasUnsavedLocked()
}

func (s *EditorSession) SeriesType() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.replyMode {
		return SeriesTypeReply
	}
	if s.isThreadLocked() {
		return SeriesTypeThread
	}
	return SeriesTypeNone
}

// EnterReplyMode discards in-progress unsaved text and the URL field.
func (s *EditorSession) EnterReplyMode() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.replyMode = true
	s.replyURL = ""
	if v, ok := s.doc.Variant(s.activeKey); ok {
		s.draftText = v.Text
	} else {
		s.draftText = ""
	}
}

func (s *EditorSession) ExitReplyMode() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelDebounceLocked()
	s.replyMode = false
	s.replyURL = ""
	s.quoteFlag = false
	if err := s.doc.ClearReplyMeta(s.activeKey); err != nil {
		slog.Info(err.Error())
	}
}

func (s *EditorSession) SetQuoteFlag(quote bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quoteFlag = quote
}

// SetReplyURL records the typed URL and debounces validation. A valid URL
// triggers the metadata fetch; an invalid or cleared one proactively clears
// any previously fetched reply metadata.
func (s *EditorSession) SetReplyURL(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.replyURL = url
	s.cancelDebounceLocked()

	if url == "" || !socialurl.IsValidPostURL(url) {
		if err := s.doc.ClearReplyMeta(s.activeKey); err != nil {
			slog.Info(err.Error())
		}
		return
	}

	key := s.activeKey
	s.debounce = time.AfterFunc(replyDebounce, func() {
		s.fetchReplyMeta(key, url)
	})
}

func (s *EditorSession) fetchReplyMeta(variantKey, url string) {
	ctx, cancel := context.WithTimeout(context.Background(), ayrshareTimeout)
	defer cancel()

	meta, err := s.replies.Lookup(ctx, url)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// The field may have changed or the tab switched while we were fetching.
	if s.replyURL != url || s.activeKey != variantKey {
		return
	}
	if err := s.doc.SetReplyMeta(variantKey, meta); err != nil {
		slog.Info(err.Error())
	}
}

func (s *EditorSession) cancelDebounce() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelDebounceLocked()
}

func (s *EditorSession) cancelDebounceLocked() {
	if s.debounce != nil {
		s.debounce.Stop()
		s.debounce = nil
	}
}

func (s *EditorSession) SetThreadMode(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.threadMode = enabled
}

// IsThread is true when thread mode is on and the text has a paragraph break
// (explicit), or when the live text exceeds the active platform's character
// limit (implicit).
func (s *EditorSession) IsThread() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isThreadLocked()
}

func (s *EditorSession) isThreadLocked() bool {
	if s.threadMode && blankLineBreak.MatchString(s.draftText) {
		return true
	}
	limit := s.activeLimitLocked()
	return limit > 0 && utf8.RuneCountInString(s.draftText) > limit
}

func (s *EditorSession) activeLimitLocked() int {
	if limit := models.CharacterLimit(s.activeKey); limit > 0 {
		return limit
	}
	return models.CharacterLimit(models.ThreadCapablePlatform)
}

// ThreadPreview segments the live text the way the publish flow will.
func (s *EditorSession) ThreadPreview() ([]models.ThreadPost, error) {
	s.mu.Lock()
	draft := s.draftText
	limit := s.activeLimitLocked()
	s.mu.Unlock()

	return threadutil.Segment(draft, limit)
}

// AddPlatform materializes a variant cloned from base if one does not exist.
// Re-adding is a no-op.
func (s *EditorSession) AddPlatform(key string) *models.PostVariant {
	return s.doc.AddVariant(key)
}

// RemovePlatform deletes the platform's variant; if it was active, the
// session falls back to base.
func (s *EditorSession) RemovePlatform(ctx context.Context, key string) error {
	if err := s.doc.RemoveVariant(key); err != nil {
		return err
	}
	if err := s.posts.RemoveVariant(ctx, s.doc.ID(), key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeKey == key {
		s.activateLocked(models.VariantKeyBase)
	}
	return nil
}

// Save merges the live text into the variant as a diff (not a full
// overwrite) and persists the document.
func (s *EditorSession) Save(ctx context.Context) error {
	s.mu.Lock()
	if s.isSaving {
		s.mu.Unlock()
		return errors.New("save already in progress")
	}
	s.isSaving = true
	key := s.activeKey
	draft := s.draftText
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isSaving = false
		s.mu.Unlock()
	}()

	v, ok := s.doc.Variant(key)
	if !ok {
		return fmt.Errorf("%w: %s", document.ErrVariantNotFound, key)
	}

	patch := document.MakePatch(v.Text, draft)
	if !patch.IsZero() {
		if err := s.doc.ApplyTextDiff(key, patch); err != nil {
			return err
		}
	}

	return s.posts.PersistDocument(ctx, s.doc)
}

// Publish runs the full publish flow for the active variant and reconciles
// the settled outcome back onto the document. Unsaved changes block
// publishing. The returned slice lists requested platforms that did not end
// up reconciled; err may be a PartialPlatformFailure alongside a usable
// outcome.
func (s *EditorSession) Publish(ctx context.Context, platforms []string, scheduleAt, profileKey string) ([]string, error) {
	s.mu.Lock()
	if s.isSaving {
		s.mu.Unlock()
		return platforms, errors.New("save in progress")
	}
	if s.hasUnsavedLocked() {
		s.mu.Unlock()
		return platforms, &ValidationError{Reason: "save your changes before publishing"}
	}
	key := s.activeKey
	thread := !s.replyMode && s.isThreadLocked()
	s.isScheduling = scheduleAt != ""
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isScheduling = false
		s.mu.Unlock()
	}()

	if len(platforms) == 0 {
		for _, k := range s.doc.VariantKeys() {
			if k != models.VariantKeyBase {
				platforms = append(platforms, k)
			}
		}
	}

	variant, ok := s.doc.Variant(key)
	if !ok {
		return platforms, fmt.Errorf("%w: %s", document.ErrVariantNotFound, key)
	}

	outcome, scheduledFor, err := s.publisher.Publish(ctx, variant, PublishOptions{
		Platforms:  platforms,
		ScheduleAt: scheduleAt,
		ProfileKey: profileKey,
		Thread:     thread,
	})

	// Reconciliation happens once, after the whole sequence settled, and
	// only for the platforms that actually succeeded.
	if outcome != nil {
		missed := s.reconciler.Reconcile(s.doc, outcome, platforms, scheduledFor)
		if perr := s.posts.PersistDocument(ctx, s.doc); perr != nil {
			slog.Error(perr.Error())
		}
		return missed, err
	}
	return platforms, err
}
