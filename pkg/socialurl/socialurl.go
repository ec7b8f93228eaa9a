package socialurl

import (
	"regexp"
	"strings"

	"github.com/crosswire-app/crosswire/internal/models"
)

// Domain checks are ordered; the first match wins so twitter.com/x.com never
// fall through to a later pattern.
var platformDomains = []struct {
	platform string
	domains  []string
}{
	{models.PlatformX, []string{"twitter.com", "x.com"}},
	{models.PlatformInstagram, []string{"instagram.com"}},
	{models.PlatformFacebook, []string{"facebook.com"}},
	{models.PlatformLinkedin, []string{"linkedin.com"}},
	{models.PlatformYoutube, []string{"youtube.com"}},
}

var (
	xStatusRe        = regexp.MustCompile(`(?:twitter\.com|x\.com)/[^/]+/status/(\d+)`)
	instagramPostRe  = regexp.MustCompile(`instagram\.com/p/([A-Za-z0-9_-]+)`)
	facebookPostRe   = regexp.MustCompile(`facebook\.com/.*(?:posts/|story_fbid=|videos/)(\d+)`)
	linkedinPostRe   = regexp.MustCompile(`linkedin\.com/(?:posts/([A-Za-z0-9_-]+)|feed/update/(urn:li:activity:\d+))`)
	youtubeWatchRe   = regexp.MustCompile(`youtube\.com/watch\?.*v=([A-Za-z0-9_-]+)`)
	linkedinPostsNum = regexp.MustCompile(`linkedin\.com/posts/.*?(\d{19})`)
)

// DetectPlatform returns the internal platform name a post URL belongs to, or
// "" when no known domain matches.
func DetectPlatform(url string) string {
	lower := strings.ToLower(url)
	for _, entry := range platformDomains {
		for _, d := range entry.domains {
			if strings.Contains(lower, d) {
				return entry.platform
			}
		}
	}
	return ""
}

// IsValidPostURL reports whether the URL matches one of the fixed
// platform-specific post shapes (status URL, /p/<id>, /posts/<id>, watch?v=).
func IsValidPostURL(url string) bool {
	return ExtractPostID(url) != ""
}

// ExtractPostID pulls the provider-specific post identifier out of a post URL.
// Returns "" when the platform is undetected or the expected pattern is absent.
func ExtractPostID(url string) string {
	switch DetectPlatform(url) {
	case models.PlatformX:
		if m := xStatusRe.FindStringSubmatch(url); m != nil {
			return m[1]
		}
	case models.PlatformInstagram:
		if m := instagramPostRe.FindStringSubmatch(url); m != nil {
			return m[1]
		}
	case models.PlatformFacebook:
		if m := facebookPostRe.FindStringSubmatch(url); m != nil {
			return m[1]
		}
	case models.PlatformLinkedin:
		if m := linkedinPostsNum.FindStringSubmatch(url); m != nil {
			return m[1]
		}
		if m := linkedinPostRe.FindStringSubmatch(url); m != nil {
			if m[1] != "" {
				return m[1]
			}
			return m[2]
		}
	case models.PlatformYoutube:
		if m := youtubeWatchRe.FindStringSubmatch(url); m != nil {
			return m[1]
		}
	}
	return ""
}
