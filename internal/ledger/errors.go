package ledger

import "errors"

var (
	// ErrAmountRequired is returned for a deposit or withdrawal without an amount.
	ErrAmountRequired = errors.New("amount required")
	// ErrInsufficientFunds is returned for a withdrawal larger than the available funds.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrBalanceOverflow is returned when applying an event would push a
	// balance out of the Amount range.
	ErrBalanceOverflow = errors.New("balance overflow")
)
