package model

import "github.com/goodnatureofminers/ledger-replay/pkg/money"

// AccountView is the externally visible state of one account.
type AccountView struct {
	Client    ClientID
	Available money.Amount
	Held      money.Amount
	Total     money.Amount
	Locked    bool
}
