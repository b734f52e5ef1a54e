package report

// RecalculateTotals rederives the report-level aggregates from the item
// ledger. It is a pure function of Items and NonReimbursableCents, writes
// only the four derived fields, and is idempotent.
//
//	total          = Σ amount
//	universityCard = Σ amount where paid by P-Card
//	personal       = Σ amount where paid from personal funds
//	net            = personal − nonReimbursable
func (r *ExpenseReport) RecalculateTotals() {
	var total, card, personal int64
	for i := range r.Items {
		amount := r.Items[i].AmountCents
		total += amount
		switch r.Items[i].PaymentMethod {
		case PaymentUniversityCard:
			card += amount
		case PaymentPersonal:
			personal += amount
		}
	}

	r.TotalCents = total
	r.UniversityCardCents = card
	r.PersonalCents = personal
	r.NetReimbursementCents = personal - r.NonReimbursableCents
}
