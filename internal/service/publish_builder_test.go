package service

import (
	"strings"
	"testing"
	"time"

	config "github.com/crosswire-app/crosswire/configs"
	"github.com/crosswire-app/crosswire/internal/models"
	"github.com/crosswire-app/crosswire/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBuilder() *PublishBuilder {
	return NewPublishBuilder(config.Config{
		R2: config.R2{PublicURL: "https://media.crosswire.app"},
	})
}

func TestBuildRejectsEmptyContent(t *testing.T) {
	b := testBuilder()

	_, _, err := b.Build(&models.PostVariant{Text: "   "}, []string{"twitter"}, "", nil)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)

	_, _, err = b.Build(nil, []string{"twitter"}, "", nil)
	require.ErrorAs(t, err, &ve)
}

func TestBuildRejectsNoPlatforms(t *testing.T) {
	b := testBuilder()

	_, _, err := b.Build(&models.PostVariant{Text: "hello"}, nil, "", nil)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestBuildMapsPlatformVocabulary(t *testing.T) {
	b := testBuilder()

	req, _, err := b.Build(&models.PostVariant{Text: "hello"},
		[]string{models.PlatformX, models.PlatformInstagram, models.PlatformLinkedin}, "", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"twitter", "instagram", "linkedin"}, req.Platforms)
}

func TestBuildAutoThreadsLongTwitterText(t *testing.T) {
	b := testBuilder()
	long := strings.Repeat("a", 300)

	req, _, err := b.Build(&models.PostVariant{Text: long}, []string{models.PlatformX}, "", nil)
	require.NoError(t, err)
	require.NotNil(t, req.TwitterOptions)
	assert.True(t, req.TwitterOptions.Thread)
	assert.True(t, req.TwitterOptions.ThreadNumber)

	// Short text never threads.
	req, _, err = b.Build(&models.PostVariant{Text: "short"}, []string{models.PlatformX}, "", nil)
	require.NoError(t, err)
	assert.Nil(t, req.TwitterOptions)

	// Long text without twitter targeted never threads.
	req, _, err = b.Build(&models.PostVariant{Text: long}, []string{models.PlatformInstagram}, "", nil)
	require.NoError(t, err)
	assert.Nil(t, req.TwitterOptions)
}

func TestBuildKeepsExplicitTwitterOptions(t *testing.T) {
	b := testBuilder()
	long := strings.Repeat("a", 300)

	opts := &transfer.TwitterOptions{ReplyToTweetID: "123"}
	req, _, err := b.Build(&models.PostVariant{Text: long}, []string{models.PlatformX}, "", opts)
	require.NoError(t, err)

	require.NotNil(t, req.TwitterOptions)
	assert.False(t, req.TwitterOptions.Thread)
	assert.Equal(t, "123", req.TwitterOptions.ReplyToTweetID)
}

func TestParseScheduleAt(t *testing.T) {
	at, err := ParseScheduleAt("")
	require.NoError(t, err)
	assert.Nil(t, at)

	// Parse failure is an error naming the value, never a silent drop, even
	// for past or under-lead times that would later be downgraded.
	_, err = ParseScheduleAt("next tuesday")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Reason, "next tuesday")

	at, err = ParseScheduleAt("2026-09-01T15:04")
	require.NoError(t, err)
	require.NotNil(t, at)

	past := time.Now().Add(-time.Hour).Format(time.RFC3339)
	at, err = ParseScheduleAt(past)
	require.NoError(t, err)
	require.NotNil(t, at)
	assert.Less(t, time.Until(*at), MinScheduleLead)
}

func TestBuildScheduleValidation(t *testing.T) {
	b := testBuilder()
	variant := &models.PostVariant{Text: "hello"}

	_, _, err := b.Build(variant, []string{"twitter"}, "not-a-date", nil)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)

	// Past and near-future schedules are dropped, not rejected.
	req, scheduledFor, err := b.Build(variant, []string{"twitter"},
		time.Now().Add(-time.Hour).Format(time.RFC3339), nil)
	require.NoError(t, err)
	assert.Nil(t, scheduledFor)
	assert.Empty(t, req.ScheduleDate)

	req, scheduledFor, err = b.Build(variant, []string{"twitter"},
		time.Now().Add(time.Minute).Format(time.RFC3339), nil)
	require.NoError(t, err)
	assert.Nil(t, scheduledFor)
	assert.Empty(t, req.ScheduleDate)

	// A far-enough schedule survives.
	at := time.Now().Add(2 * time.Hour)
	req, scheduledFor, err = b.Build(variant, []string{"twitter"}, at.Format(time.RFC3339), nil)
	require.NoError(t, err)
	require.NotNil(t, scheduledFor)
	assert.Equal(t, at.UTC().Format(time.RFC3339), req.ScheduleDate)
}

func TestBuildResolvesMediaURLs(t *testing.T) {
	b := testBuilder()
	variant := &models.PostVariant{
		Text: "with media",
		Media: []models.MediaItem{
			{Type: models.MediaTypeImage, AssetID: "img_abc123"},
			{Type: models.MediaTypeURLVideo, URL: "https://cdn.example.com/v.mp4"},
			{Type: models.MediaTypeImage, AssetID: "../etc/passwd x"},
			{Type: models.MediaTypeURLImage, URL: "ftp://nope/file.jpg"},
			{Type: "weird", URL: "https://cdn.example.com/x.jpg"},
		},
	}

	req, _, err := b.Build(variant, []string{"twitter"}, "", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://media.crosswire.app/img_abc123",
		"https://cdn.example.com/v.mp4",
	}, req.MediaURLs)
}

func TestPlatformVocabularyRoundTrip(t *testing.T) {
	assert.Equal(t, "twitter", ToProviderPlatform(models.PlatformX))
	assert.Equal(t, models.PlatformX, ToInternalPlatform("twitter"))
	assert.Equal(t, "instagram", ToProviderPlatform("instagram"))
	assert.Equal(t, "instagram", ToInternalPlatform("instagram"))
}
