package invoice

import "errors"

var (
	// ErrEmptySelection is returned when no appointments were selected for
	// invoicing. It is raised before any store access.
	ErrEmptySelection = errors.New("no appointments selected")

	// ErrNotBillable is returned when a selected appointment is not in
	// ATTENDED state. The whole selection is rejected; ineligible
	// appointments are never silently dropped.
	ErrNotBillable = errors.New("appointment is not billing-eligible")

	// ErrNotIssued is returned when a payment is recorded against an invoice
	// that is not in ISSUED state.
	ErrNotIssued = errors.New("invoice is not issued")
)
