package report

import "time"

// ItemPatch carries partial updates for an expense item. Nil fields are
// left untouched.
type ItemPatch struct {
	Date          *time.Time
	Category      *Category
	Vendor        *string
	Description   *string
	AmountCents   *int64
	PaymentMethod *PaymentMethod
	ReceiptRef    *string
	ChargeToGrant *bool
}

// AddItem appends an item to the ledger and recomputes totals.
// Items may only be added while the report is in DRAFT.
func (r *ExpenseReport) AddItem(item ExpenseItem) error {
	if err := r.requireDraft("add item"); err != nil {
		return err
	}
	if err := validateItem(&item); err != nil {
		return err
	}

	r.Items = append(r.Items, item)
	r.RecalculateTotals()
	return nil
}

// UpdateItem applies a patch to the item with the given id and recomputes
// totals. Returns NotFoundError if the item does not exist.
func (r *ExpenseReport) UpdateItem(itemID string, patch ItemPatch) error {
	if err := r.requireDraft("update item"); err != nil {
		return err
	}

	item, idx := r.Item(itemID)
	if idx < 0 {
		return &NotFoundError{Kind: "item", ID: itemID}
	}

	// Validate against a patched copy so a bad patch leaves the item intact
	updated := *item
	applyPatch(&updated, patch)
	if err := validateItem(&updated); err != nil {
		return err
	}

	r.Items[idx] = updated
	r.RecalculateTotals()
	return nil
}

// RemoveItem deletes the item with the given id and recomputes totals.
// Returns NotFoundError if the item does not exist.
func (r *ExpenseReport) RemoveItem(itemID string) error {
	if err := r.requireDraft("remove item"); err != nil {
		return err
	}

	_, idx := r.Item(itemID)
	if idx < 0 {
		return &NotFoundError{Kind: "item", ID: itemID}
	}

	r.Items = append(r.Items[:idx], r.Items[idx+1:]...)
	r.RecalculateTotals()
	return nil
}

func (r *ExpenseReport) requireDraft(action string) error {
	if r.Status != StatusDraft {
		return &ForbiddenTransitionError{
			Status:   r.Status,
			FundType: r.FundType,
			Role:     r.SubmitterRole,
			Action:   action,
		}
	}
	return nil
}

func applyPatch(item *ExpenseItem, patch ItemPatch) {
	if patch.Date != nil {
		item.Date = *patch.Date
	}
	if patch.Category != nil {
		item.Category = *patch.Category
	}
	if patch.Vendor != nil {
		item.Vendor = *patch.Vendor
	}
	if patch.Description != nil {
		item.Description = *patch.Description
	}
	if patch.AmountCents != nil {
		item.AmountCents = *patch.AmountCents
	}
	if patch.PaymentMethod != nil {
		item.PaymentMethod = *patch.PaymentMethod
	}
	if patch.ReceiptRef != nil {
		item.ReceiptRef = *patch.ReceiptRef
	}
	if patch.ChargeToGrant != nil {
		item.ChargeToGrant = *patch.ChargeToGrant
	}
}

func validateItem(item *ExpenseItem) error {
	if item.Date.IsZero() {
		return &ValidationError{Field: "date", Reason: "expense date is required"}
	}
	if !item.Category.IsValid() {
		return &ValidationError{Field: "category", Reason: "unknown expense category"}
	}
	if item.Vendor == "" {
		return &ValidationError{Field: "vendor", Reason: "vendor is required"}
	}
	if item.Description == "" {
		return &ValidationError{Field: "description", Reason: "description is required"}
	}
	if item.AmountCents <= 0 {
		return &ValidationError{Field: "amount", Reason: "amount must be positive"}
	}
	if !item.PaymentMethod.IsValid() {
		return &ValidationError{Field: "payment_method", Reason: "unknown payment method"}
	}
	return nil
}
