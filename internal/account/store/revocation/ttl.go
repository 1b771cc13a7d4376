// Package revocation keeps the list of access token ids revoked by logout until
// the tokens would have expired anyway.
package revocation

import (
	"fmt"
	"time"

	"coliving/pkg/platform/sentinel"
)

// Clock returns the current time.
type Clock func() time.Time

func validateTTL(ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive: %w", sentinel.ErrInvalidState)
	}
	return nil
}
