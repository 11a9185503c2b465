package utils

import (
	"fmt"
	"strings"

	"github.com/badoux/checkmail"
)

// ValidateLeadEmail checks that a submitted email address is plausible before
// we store it or subscribe it to a sequence. Syntax is always checked; the
// DNS/MX check is optional since it does a network lookup on the request path.
func ValidateLeadEmail(email string, checkHost bool) error {
	email = strings.TrimSpace(email)

	// 1. Basic syntax validation using checkmail
	if err := checkmail.ValidateFormat(email); err != nil {
		return fmt.Errorf("invalid email format: %v", err)
	}

	// 2. DNS/MX record check with checkmail
	if checkHost {
		if err := checkmail.ValidateHost(email); err != nil {
			return fmt.Errorf("email domain not reachable: %v", err)
		}
	}

	return nil
}
