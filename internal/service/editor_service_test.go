package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/crosswire-app/crosswire/internal/document"
	"github.com/crosswire-app/crosswire/internal/models"
	"github.com/crosswire-app/crosswire/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePostService struct {
	mu       sync.Mutex
	doc      *document.Document
	persists int
	removed  []string
}

func (f *fakePostService) Create(ctx context.Context, userID int64, pc *transfer.PostCreation) (string, error) {
	return "p_new", nil
}

func (f *fakePostService) List(ctx context.Context, userID int64) ([]*models.Post, error) {
	return nil, nil
}

func (f *fakePostService) LoadDocument(ctx context.Context, postID string, userID int64) (*document.Document, error) {
	return f.doc, nil
}

func (f *fakePostService) PersistDocument(ctx context.Context, doc *document.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.persists++
	return nil
}

func (f *fakePostService) RemoveVariant(ctx context.Context, postID, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, key)
	return nil
}

func (f *fakePostService) Remove(ctx context.Context, userID int64, postID string) error {
	return nil
}

type fakePublisher struct {
	mu      sync.Mutex
	calls   []PublishOptions
	outcome *transfer.PublishOutcome
	err     error
}

func (f *fakePublisher) Publish(ctx context.Context, variant *models.PostVariant, opts PublishOptions) (*transfer.PublishOutcome, *time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, opts)
	return f.outcome, nil, f.err
}

type fakeReplyLookup struct {
	mu    sync.Mutex
	calls []string
	meta  *models.ReplyTo
}

func (f *fakeReplyLookup) Lookup(ctx context.Context, postURL string) (*models.ReplyTo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, postURL)
	if f.meta != nil {
		return f.meta, nil
	}
	return &models.ReplyTo{URL: postURL, Platform: models.PlatformX, PostID: "123"}, nil
}

func (f *fakeReplyLookup) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type editorFixture struct {
	session   *EditorSession
	posts     *fakePostService
	publisher *fakePublisher
	replies   *fakeReplyLookup
}

func newEditorFixture(t *testing.T, text string, platforms ...string) *editorFixture {
	t.Helper()

	doc := document.Load(&models.Post{
		ID: "p_ed",
		Variants: map[string]*models.PostVariant{
			models.VariantKeyBase: {Text: text, Status: models.VariantStatusDraft},
		},
	})
	for _, p := range platforms {
		doc.AddVariant(p)
	}

	posts := &fakePostService{doc: doc}
	publisher := &fakePublisher{}
	replies := &fakeReplyLookup{}
	editor := NewEditorService(posts, publisher, NewReconcileService(), replies)

	session, err := editor.Session(context.Background(), "p_ed", 1)
	require.NoError(t, err)
	return &editorFixture{session: session, posts: posts, publisher: publisher, replies: replies}
}

func TestSessionReuse(t *testing.T) {
	f := newEditorFixture(t, "draft")
	editor := NewEditorService(f.posts, f.publisher, NewReconcileService(), f.replies)

	s1, err := editor.Session(context.Background(), "p_ed", 1)
	require.NoError(t, err)
	s2, err := editor.Session(context.Background(), "p_ed", 1)
	require.NoError(t, err)
	assert.Same(t, s1, s2)

	editor.Close("p_ed", 1)
	s3, err := editor.Session(context.Background(), "p_ed", 1)
	require.NoError(t, err)
	assert.NotSame(t, s1, s3)
}

func TestUnsavedChangeTracking(t *testing.T) {
	f := newEditorFixture(t, "persisted text")

	assert.False(t, f.session.HasUnsavedChanges())
	f.session.UpdateDraftText("persisted text plus edits")
	assert.True(t, f.session.HasUnsavedChanges())

	require.NoError(t, f.session.Save(context.Background()))
	assert.False(t, f.session.HasUnsavedChanges())
	assert.Equal(t, 1, f.posts.persists)

	v, _ := f.session.Document().Variant(models.VariantKeyBase)
	assert.Equal(t, "persisted text plus edits", v.Text)
}

func TestSaveIsDiffBasedNotOverwrite(t *testing.T) {
	f := newEditorFixture(t, "The quick brown fox jumps over the lazy dog")

	// Another session's edit lands on the document after this session last
	// refreshed its draft.
	other := document.MakePatch(
		"The quick brown fox jumps over the lazy dog",
		"The quick brown fox jumps over the sleepy dog")
	require.NoError(t, f.session.Document().ApplyTextDiff(models.VariantKeyBase, other))

	f.session.UpdateDraftText("A quick brown fox jumps over the lazy dog")
	require.NoError(t, f.session.Save(context.Background()))

	v, _ := f.session.Document().Variant(models.VariantKeyBase)
	assert.Equal(t, "A quick brown fox jumps over the sleepy dog", v.Text)
}

func TestSetActiveVariantSwitchesDraft(t *testing.T) {
	f := newEditorFixture(t, "base text", models.PlatformX)
	require.NoError(t, f.session.Document().ApplyTextDiff(models.PlatformX,
		document.MakePatch("base text", "x-specific text")))

	f.session.UpdateDraftText("typed but never saved")
	require.NoError(t, f.session.SetActiveVariant(models.PlatformX))

	assert.Equal(t, models.PlatformX, f.session.ActiveVariantKey())
	assert.Equal(t, "x-specific text", f.session.DraftText())
	assert.False(t, f.session.HasUnsavedChanges())

	assert.ErrorIs(t, f.session.SetActiveVariant("tiktok"), document.ErrVariantNotFound)
}

func TestCanPublishGating(t *testing.T) {
	f := newEditorFixture(t, "")

	// Empty text, no platform variants.
	assert.False(t, f.session.CanPublish())

	f.session.UpdateDraftText("ready to go")
	require.NoError(t, f.session.Save(context.Background()))
	// Still no platform variant besides base.
	assert.False(t, f.session.CanPublish())

	f.session.AddPlatform(models.PlatformX)
	assert.True(t, f.session.CanPublish())

	// Unsaved edits block publishing again.
	f.session.UpdateDraftText("ready to go, plus more")
	assert.False(t, f.session.CanPublish())
}

func TestSeriesTypeDerivation(t *testing.T) {
	f := newEditorFixture(t, "short", models.PlatformX)
	require.NoError(t, f.session.SetActiveVariant(models.PlatformX))

	assert.Equal(t, SeriesTypeNone, f.session.SeriesType())

	// Implicit thread: text over the platform limit.
	f.session.UpdateDraftText(strings.Repeat("a", 300))
	assert.Equal(t, SeriesTypeThread, f.session.SeriesType())

	// Explicit thread: thread mode plus a blank-line break.
	f.session.UpdateDraftText("part one\n\npart two")
	assert.Equal(t, SeriesTypeNone, f.session.SeriesType())
	f.session.SetThreadMode(true)
	assert.Equal(t, SeriesTypeThread, f.session.SeriesType())

	// Reply mode wins, and entering it resets the draft to the persisted
	// text, so leaving it lands back on none.
	f.session.EnterReplyMode()
	assert.Equal(t, SeriesTypeReply, f.session.SeriesType())

	f.session.ExitReplyMode()
	assert.Equal(t, SeriesTypeNone, f.session.SeriesType())
}

func TestEnterReplyModeDiscardsUnsavedDraft(t *testing.T) {
	f := newEditorFixture(t, "persisted")

	f.session.UpdateDraftText("persisted plus unsaved")
	f.session.EnterReplyMode()

	assert.Equal(t, "persisted", f.session.DraftText())
	assert.False(t, f.session.HasUnsavedChanges())
}

func TestSetReplyURLDebouncedFetch(t *testing.T) {
	f := newEditorFixture(t, "replying", models.PlatformX)
	require.NoError(t, f.session.SetActiveVariant(models.PlatformX))
	f.session.EnterReplyMode()

	f.session.SetReplyURL("https://x.com/someone/status/123")
	assert.Equal(t, 0, f.replies.callCount())

	require.Eventually(t, func() bool {
		return f.replies.callCount() == 1
	}, 3*time.Second, 20*time.Millisecond)

	v, _ := f.session.Document().Variant(models.PlatformX)
	require.NotNil(t, v.ReplyTo)
	assert.Equal(t, "123", v.ReplyTo.PostID)
}

func TestSetReplyURLInvalidClearsMeta(t *testing.T) {
	f := newEditorFixture(t, "replying", models.PlatformX)
	require.NoError(t, f.session.SetActiveVariant(models.PlatformX))
	require.NoError(t, f.session.Document().SetReplyMeta(models.PlatformX,
		&models.ReplyTo{URL: "https://x.com/a/status/1", Platform: models.PlatformX, PostID: "1"}))
	f.session.EnterReplyMode()

	f.session.SetReplyURL("not a post url")

	v, _ := f.session.Document().Variant(models.PlatformX)
	assert.Nil(t, v.ReplyTo)
	assert.Equal(t, 0, f.replies.callCount())
}

func TestTabSwitchCancelsPendingReplyFetch(t *testing.T) {
	f := newEditorFixture(t, "replying", models.PlatformX)
	require.NoError(t, f.session.SetActiveVariant(models.PlatformX))
	f.session.EnterReplyMode()

	f.session.SetReplyURL("https://x.com/someone/status/123")
	require.NoError(t, f.session.SetActiveVariant(models.VariantKeyBase))

	time.Sleep(replyDebounce + 200*time.Millisecond)
	assert.Equal(t, 0, f.replies.callCount())

	v, _ := f.session.Document().Variant(models.PlatformX)
	assert.Nil(t, v.ReplyTo)
}

func TestRemovePlatformFallsBackToBase(t *testing.T) {
	f := newEditorFixture(t, "base", models.PlatformX)
	require.NoError(t, f.session.SetActiveVariant(models.PlatformX))

	require.NoError(t, f.session.RemovePlatform(context.Background(), models.PlatformX))
	assert.Equal(t, models.VariantKeyBase, f.session.ActiveVariantKey())
	assert.Equal(t, []string{models.PlatformX}, f.posts.removed)

	assert.ErrorIs(t, f.session.RemovePlatform(context.Background(), models.VariantKeyBase),
		document.ErrBaseNotRemovable)
}

func TestPublishBlocksOnUnsavedChanges(t *testing.T) {
	f := newEditorFixture(t, "ready", models.PlatformX)
	f.session.UpdateDraftText("ready plus unsaved")

	_, err := f.session.Publish(context.Background(), nil, "", "")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Empty(t, f.publisher.calls)
}

func TestPublishDefaultsToAllPlatformVariants(t *testing.T) {
	f := newEditorFixture(t, "ready", models.PlatformX, models.PlatformInstagram)
	f.publisher.outcome = &transfer.PublishOutcome{
		SucceededPlatforms: []string{"twitter", "instagram"},
		ExternalIDs: map[string]string{
			"twitter":   "tw-1",
			"instagram": "ig-1",
		},
	}

	missed, err := f.session.Publish(context.Background(), nil, "", "")
	require.NoError(t, err)
	assert.Empty(t, missed)

	require.Len(t, f.publisher.calls, 1)
	assert.ElementsMatch(t, []string{models.PlatformX, models.PlatformInstagram},
		f.publisher.calls[0].Platforms)

	// The outcome was reconciled and persisted.
	x, _ := f.session.Document().Variant(models.PlatformX)
	assert.Equal(t, models.VariantStatusPublished, x.Status)
	assert.GreaterOrEqual(t, f.posts.persists, 1)
}

func TestPublishReportsMissedPlatforms(t *testing.T) {
	f := newEditorFixture(t, "ready", models.PlatformX, models.PlatformFacebook)
	f.publisher.outcome = &transfer.PublishOutcome{
		SucceededPlatforms: []string{"twitter"},
		ExternalIDs:        map[string]string{"twitter": "tw-1"},
	}
	f.publisher.err = &PartialPlatformFailure{
		Outcome: f.publisher.outcome,
		Reasons: []string{"FACEBOOK: authorization expired. Reconnect this platform's account"},
	}

	missed, err := f.session.Publish(context.Background(),
		[]string{models.PlatformX, models.PlatformFacebook}, "", "")

	var partial *PartialPlatformFailure
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, []string{models.PlatformFacebook}, missed)

	fb, _ := f.session.Document().Variant(models.PlatformFacebook)
	assert.Equal(t, models.VariantStatusDraft, fb.Status)
}

func TestPublishThreadFlagFollowsSeriesState(t *testing.T) {
	f := newEditorFixture(t, "", models.PlatformX)
	require.NoError(t, f.session.SetActiveVariant(models.PlatformX))
	f.session.UpdateDraftText(strings.Repeat("a", 300))
	require.NoError(t, f.session.Save(context.Background()))

	f.publisher.outcome = &transfer.PublishOutcome{
		SucceededPlatforms: []string{"twitter"},
		ExternalIDs:        map[string]string{"twitter": "tw-1"},
	}

	_, err := f.session.Publish(context.Background(), []string{models.PlatformX}, "", "")
	require.NoError(t, err)

	require.Len(t, f.publisher.calls, 1)
	assert.True(t, f.publisher.calls[0].Thread)
}

func TestThreadPreviewUsesDraft(t *testing.T) {
	f := newEditorFixture(t, "", models.PlatformX)
	require.NoError(t, f.session.SetActiveVariant(models.PlatformX))

	para1 := strings.Repeat("alpha ", 40) + "end."
	para2 := strings.Repeat("bravo ", 40) + "end."
	f.session.UpdateDraftText(para1 + "\n\n" + para2)

	segments, err := f.session.ThreadPreview()
	require.NoError(t, err)
	require.Len(t, segments, 2)
	assert.Equal(t, 2, segments[0].Total)
}
