package greyhoundd

import (
	"errors"

	scraper "greyhound-backend/lib/scrapers/greyhound"
)

// Category tells the caller how to react to a failed fetch: re-prompt
// for credentials, or keep the last snapshot and retry later.
type Category int

const (
	// transient or structural, retry on the next cycle
	CategoryUpdateFailed Category = iota
	// credentials are wrong or the session is gone, retrying without
	// operator intervention will not help
	CategoryAuthFailed
)

func (c Category) String() string {
	switch c {
	case CategoryAuthFailed:
		return "auth_failed"
	default:
		return "update_failed"
	}
}

// Classify buckets a fetch error into a Category. Unknown errors land
// in CategoryUpdateFailed, the retrying bucket, on purpose: wrongly
// pausing refreshes is worse than one wasted retry.
func Classify(err error) Category {
	switch {
	case scraper.IsApiKind(err, scraper.KindInvalidCredentials),
		scraper.IsApiKind(err, scraper.KindTokenNotFound),
		scraper.IsApiKind(err, scraper.KindSessionExpired):
		return CategoryAuthFailed
	}
	// a transport failure mid-login leaves the session in an unknown
	// state, hand it to the re-auth path rather than polling into it
	var commErr *scraper.CommunicationError
	if errors.As(err, &commErr) && commErr.DuringLogin {
		return CategoryAuthFailed
	}
	return CategoryUpdateFailed
}
