// Package revocation holds the token revocation list consulted on every
// authenticated request. Entries live until the token would have expired
// anyway, so the list never grows beyond the set of live tokens. Issued
// tokens are also tracked per user so an account change can revoke every
// live session at once.
package revocation

import (
	"fmt"
	"time"

	"civic/pkg/platform/sentinel"
)

func validateTTL(ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive: %w", sentinel.ErrInvalidState)
	}
	return nil
}
