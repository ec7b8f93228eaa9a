package models

const (
	PlatformX         = "x"
	PlatformInstagram = "instagram"
	PlatformFacebook  = "facebook"
	PlatformLinkedin  = "linkedin"
	PlatformYoutube   = "youtube"
	PlatformTiktok    = "tiktok"
)

// CharacterLimits holds the per-platform caption/post length caps used for
// implicit thread detection and for segmenting thread content.
var CharacterLimits = map[string]int{
	PlatformX:         280,
	PlatformInstagram: 2200,
	PlatformFacebook:  63206,
	PlatformLinkedin:  3000,
	PlatformYoutube:   5000,
	PlatformTiktok:    2200,
}

// ThreadCapablePlatform is the only platform the provider can auto-thread.
const ThreadCapablePlatform = PlatformX

// CharacterLimit returns the platform's cap, or 0 when the platform has no
// known limit (callers treat 0 as unlimited).
func CharacterLimit(platform string) int {
	return CharacterLimits[platform]
}
