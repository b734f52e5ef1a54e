package utils

import (
	"fmt"
	"regexp"
)

var (
	emailRegex      = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	receiptRefRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._/\-]{0,127}$`)
)

// ValidateEmail validates an email address
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}
	return nil
}

// ValidateReceiptRef validates a receipt reference string. References are
// opaque keys into the object store, not paths, so traversal characters
// are rejected.
func ValidateReceiptRef(ref string) error {
	if !receiptRefRegex.MatchString(ref) {
		return fmt.Errorf("invalid receipt reference: %q", ref)
	}
	return nil
}

// ValidateAmountCents validates an expense amount in cents
func ValidateAmountCents(cents int64) error {
	if cents <= 0 {
		return fmt.Errorf("amount must be positive: %d", cents)
	}
	// Single-item cap; larger purchases go through procurement
	if cents > 10_000_000 {
		return fmt.Errorf("amount exceeds single-item limit: %d", cents)
	}
	return nil
}
