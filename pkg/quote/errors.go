package quote

import (
	"errors"

	"github.com/tournevent/postage/pkg/rules"
)

// Errors returned by Service.Quote. Carrier failures never appear here.
var (
	// ErrInvalidRequest wraps every request validation failure.
	ErrInvalidRequest = errors.New("invalid quote request")

	// ErrUnknownItem indicates an item selection references a missing item.
	ErrUnknownItem = errors.New("unknown item")

	// ErrUnknownPackaging indicates the packaging id is not in the catalog.
	ErrUnknownPackaging = errors.New("unknown packaging")

	// ErrOriginNotConfigured indicates the merchant origin was never saved.
	ErrOriginNotConfigured = errors.New("origin settings must be configured before calculating quotes")
)

// IsClientError reports whether err was caused by the request itself rather
// than by server state.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrUnknownItem) ||
		errors.Is(err, ErrUnknownPackaging) ||
		errors.Is(err, rules.ErrNoBracketMatch)
}
