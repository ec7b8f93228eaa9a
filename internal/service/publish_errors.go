package service

import (
	"fmt"
	"strings"

	"github.com/crosswire-app/crosswire/internal/transfer"
)

// Provider error codes we translate into actionable messages. Anything else
// falls through to the templated "<PLATFORM>: <message> (code N)" form.
const (
	errCodeAuthExpired   = 110
	errCodeNotLinked     = 156
	errCodeMediaRequired = 140
	errCodeDuplicate     = 188
)

// ValidationError covers malformed input knowable before any network call.
// Never retried.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// PlatformAuthError means the provider reports an account's authorization
// expired or was never linked. Requires user action, never retried.
type PlatformAuthError struct {
	Platform string
	Message  string
}

func (e *PlatformAuthError) Error() string {
	return e.Message
}

// MediaRejectedError means a platform that requires visual media got none.
type MediaRejectedError struct {
	Platform string
	Message  string
}

func (e *MediaRejectedError) Error() string {
	return e.Message
}

// DuplicateContentError surfaces the provider's anti-duplicate policy
// verbatim. Never retried, never bypassed.
type DuplicateContentError struct {
	Message string
}

func (e *DuplicateContentError) Error() string {
	return e.Message
}

// NetworkError is a transport failure or timeout talking to the provider.
// Safe for the caller to retry with backoff.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// PartialPlatformFailure reports a call where some platforms succeeded and
// some failed. The Outcome's successes must still be reconciled.
type PartialPlatformFailure struct {
	Outcome *transfer.PublishOutcome
	Reasons []string
}

func (e *PartialPlatformFailure) Error() string {
	return strings.Join(e.Reasons, "\n")
}

// classifyPlatformError maps one provider error onto the taxonomy above with
// a human-readable, platform-attributed message.
func classifyPlatformError(ayErr transfer.AyrshareError) error {
	platform := strings.ToUpper(ayErr.Platform)
	if platform == "" {
		platform = "PROVIDER"
	}
	switch ayErr.Code {
	case errCodeAuthExpired:
		return &PlatformAuthError{
			Platform: ayErr.Platform,
			Message:  fmt.Sprintf("%s: authorization expired. Reconnect this platform's account", platform),
		}
	case errCodeNotLinked:
		return &PlatformAuthError{
			Platform: ayErr.Platform,
			Message:  fmt.Sprintf("%s: account not linked. Connect this account", platform),
		}
	case errCodeMediaRequired:
		return &MediaRejectedError{
			Platform: ayErr.Platform,
			Message:  fmt.Sprintf("%s: %s. Add media or remove this platform", platform, ayErr.Message),
		}
	case errCodeDuplicate:
		return &DuplicateContentError{Message: ayErr.Message}
	default:
		return fmt.Errorf("%s: %s (code %d)", platform, ayErr.Message, ayErr.Code)
	}
}
