package service

import (
	"testing"
	"time"

	"github.com/crosswire-app/crosswire/internal/document"
	"github.com/crosswire-app/crosswire/internal/models"
	"github.com/crosswire-app/crosswire/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReconcileDoc(keys ...string) *document.Document {
	post := &models.Post{
		ID: "p_rec",
		Variants: map[string]*models.PostVariant{
			models.VariantKeyBase: {Text: "shared", Status: models.VariantStatusDraft},
		},
	}
	doc := document.Load(post)
	for _, k := range keys {
		doc.AddVariant(k)
	}
	return doc
}

func TestReconcilePublished(t *testing.T) {
	doc := newReconcileDoc(models.PlatformX, models.PlatformInstagram)
	svc := NewReconcileService()

	outcome := &transfer.PublishOutcome{
		SucceededPlatforms: []string{"twitter", "instagram"},
		ExternalIDs: map[string]string{
			"twitter":   "tw-1",
			"instagram": "ig-1",
		},
	}

	missed := svc.Reconcile(doc, outcome, []string{models.PlatformX, models.PlatformInstagram}, nil)
	assert.Empty(t, missed)

	x, _ := doc.Variant(models.PlatformX)
	assert.Equal(t, models.VariantStatusPublished, x.Status)
	assert.Equal(t, "tw-1", x.AyrsharePostID)
	assert.Equal(t, "https://twitter.com/i/web/status/tw-1", x.SocialPostURL)
	require.NotNil(t, x.PublishedAt)

	base, _ := doc.Variant(models.VariantKeyBase)
	assert.Equal(t, models.VariantStatusPublished, base.Status)
	assert.NotEmpty(t, base.AyrsharePostID)
}

func TestReconcileScheduled(t *testing.T) {
	doc := newReconcileDoc(models.PlatformX)
	svc := NewReconcileService()
	at := time.Now().Add(time.Hour)

	outcome := &transfer.PublishOutcome{
		SucceededPlatforms: []string{"twitter"},
		ExternalIDs:        map[string]string{},
		ExternalID:         "sch-1",
		IsScheduled:        true,
	}

	missed := svc.Reconcile(doc, outcome, []string{models.PlatformX}, &at)
	assert.Empty(t, missed)

	x, _ := doc.Variant(models.PlatformX)
	assert.Equal(t, models.VariantStatusScheduled, x.Status)
	assert.Equal(t, "sch-1", x.AyrsharePostID)
	require.NotNil(t, x.ScheduledFor)
	assert.Nil(t, x.PublishedAt)
}

func TestReconcileProviderImmediateWinsOverRequestedSchedule(t *testing.T) {
	doc := newReconcileDoc(models.PlatformX)
	svc := NewReconcileService()
	at := time.Now().Add(time.Minute)

	// Caller asked for a schedule but the provider posted immediately.
	outcome := &transfer.PublishOutcome{
		SucceededPlatforms: []string{"twitter"},
		ExternalIDs:        map[string]string{"twitter": "tw-1"},
	}

	svc.Reconcile(doc, outcome, []string{models.PlatformX}, &at)

	x, _ := doc.Variant(models.PlatformX)
	assert.Equal(t, models.VariantStatusPublished, x.Status)
	assert.Nil(t, x.ScheduledFor)
}

func TestReconcilePartialLeavesFailedVariantAlone(t *testing.T) {
	doc := newReconcileDoc(models.PlatformX, models.PlatformFacebook)
	svc := NewReconcileService()

	outcome := &transfer.PublishOutcome{
		SucceededPlatforms: []string{"twitter"},
		ExternalIDs:        map[string]string{"twitter": "tw-1"},
	}

	missed := svc.Reconcile(doc, outcome, []string{models.PlatformX, models.PlatformFacebook}, nil)
	assert.Equal(t, []string{models.PlatformFacebook}, missed)

	fb, _ := doc.Variant(models.PlatformFacebook)
	assert.Equal(t, models.VariantStatusDraft, fb.Status)
	assert.Empty(t, fb.AyrsharePostID)

	x, _ := doc.Variant(models.PlatformX)
	assert.Equal(t, models.VariantStatusPublished, x.Status)
}

func TestReconcileSkipsMissingVariant(t *testing.T) {
	doc := newReconcileDoc(models.PlatformX)
	svc := NewReconcileService()

	outcome := &transfer.PublishOutcome{
		SucceededPlatforms: []string{"twitter", "linkedin"},
		ExternalIDs: map[string]string{
			"twitter":  "tw-1",
			"linkedin": "li-1",
		},
	}

	missed := svc.Reconcile(doc, outcome, []string{models.PlatformX, models.PlatformLinkedin}, nil)
	assert.Equal(t, []string{models.PlatformLinkedin}, missed)
}

func TestReconcileNilOutcome(t *testing.T) {
	doc := newReconcileDoc(models.PlatformX)
	svc := NewReconcileService()

	missed := svc.Reconcile(doc, nil, []string{models.PlatformX}, nil)
	assert.Equal(t, []string{models.PlatformX}, missed)

	x, _ := doc.Variant(models.PlatformX)
	assert.Equal(t, models.VariantStatusDraft, x.Status)
}

func TestReconcileDoesNotTouchText(t *testing.T) {
	doc := newReconcileDoc(models.PlatformX)
	require.NoError(t, doc.ApplyTextDiff(models.PlatformX, document.MakePatch("shared", "edited while publishing")))
	svc := NewReconcileService()

	outcome := &transfer.PublishOutcome{
		SucceededPlatforms: []string{"twitter"},
		ExternalIDs:        map[string]string{"twitter": "tw-1"},
	}
	svc.Reconcile(doc, outcome, []string{models.PlatformX}, nil)

	x, _ := doc.Variant(models.PlatformX)
	assert.Equal(t, "edited while publishing", x.Text)
	assert.Equal(t, models.VariantStatusPublished, x.Status)
}

func TestSocialPostURL(t *testing.T) {
	assert.Equal(t, "https://twitter.com/i/web/status/123", SocialPostURL("twitter", "123"))
	assert.Equal(t, "https://www.instagram.com/p/abc/", SocialPostURL("instagram", "abc"))
	assert.Empty(t, SocialPostURL("tiktok", "123"))
	assert.Empty(t, SocialPostURL("twitter", ""))
}
