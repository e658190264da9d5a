package calendar

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAuthExchange means the provider rejected an authorization code or
	// returned an incomplete token set.
	ErrAuthExchange = errors.New("failed to exchange authorization code")

	// ErrAuthRefresh means no new access token could be minted. The session
	// is no longer usable and the user has to log in again.
	ErrAuthRefresh = errors.New("failed to refresh access token")

	// ErrUnknownProvider is returned for provider names missing from the catalog.
	ErrUnknownProvider = errors.New("unsupported calendar provider")

	// ErrProviderNotImplemented is returned for cataloged providers without
	// an implementation.
	ErrProviderNotImplemented = errors.New("calendar provider not implemented")
)

// InvalidColorError is returned when a color id is not in the provider's palette.
type InvalidColorError struct {
	ID    string
	Valid []string
}

func (e *InvalidColorError) Error() string {
	return fmt.Sprintf("Invalid color ID: %s. Valid IDs are: %s", e.ID, strings.Join(e.Valid, ", "))
}
