package utils

import "testing"

func TestValidateEmail(t *testing.T) {
	valid := []string{"alex.chen@example.edu", "finance+copy@uni.ac.uk"}
	for _, email := range valid {
		if err := ValidateEmail(email); err != nil {
			t.Errorf("ValidateEmail(%q) = %v, want nil", email, err)
		}
	}

	invalid := []string{"", "not-an-email", "missing@tld", "@example.edu"}
	for _, email := range invalid {
		if err := ValidateEmail(email); err == nil {
			t.Errorf("ValidateEmail(%q) = nil, want error", email)
		}
	}
}

func TestValidateReceiptRef(t *testing.T) {
	valid := []string{"r-001.pdf", "2025/conf/r-001.pdf", "a"}
	for _, ref := range valid {
		if err := ValidateReceiptRef(ref); err != nil {
			t.Errorf("ValidateReceiptRef(%q) = %v, want nil", ref, err)
		}
	}

	invalid := []string{"", "../escape", ".dotfile", "has space", "-leading-dash"}
	for _, ref := range invalid {
		if err := ValidateReceiptRef(ref); err == nil {
			t.Errorf("ValidateReceiptRef(%q) = nil, want error", ref)
		}
	}
}

func TestValidateAmountCents(t *testing.T) {
	if err := ValidateAmountCents(1); err != nil {
		t.Errorf("ValidateAmountCents(1) = %v", err)
	}
	if err := ValidateAmountCents(10_000_000); err != nil {
		t.Errorf("ValidateAmountCents(cap) = %v", err)
	}
	for _, cents := range []int64{0, -100, 10_000_001} {
		if err := ValidateAmountCents(cents); err == nil {
			t.Errorf("ValidateAmountCents(%d) = nil, want error", cents)
		}
	}
}
