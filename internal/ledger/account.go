package ledger

import (
	"github.com/goodnatureofminers/ledger-replay/internal/ledger/model"
	"github.com/goodnatureofminers/ledger-replay/pkg/money"
)

// Account is the mutable state of one client.
//
// total == available + held holds after every mutation. An id is present in
// disputed only while it is present in history.
type Account struct {
	client    model.ClientID
	available money.Amount
	held      money.Amount
	total     money.Amount
	locked    bool

	// deposits still eligible for dispute
	history  map[model.TxID]money.Amount
	disputed map[model.TxID]struct{}
}

func newAccount(client model.ClientID) *Account {
	return &Account{
		client:   client,
		history:  make(map[model.TxID]money.Amount),
		disputed: make(map[model.TxID]struct{}),
	}
}

func (a *Account) Client() model.ClientID  { return a.client }
func (a *Account) Available() money.Amount { return a.available }
func (a *Account) Held() money.Amount      { return a.held }
func (a *Account) Total() money.Amount     { return a.total }
func (a *Account) Locked() bool            { return a.locked }

// View returns a copy of the balances.
func (a *Account) View() model.AccountView {
	return model.AccountView{
		Client:    a.client,
		Available: a.available,
		Held:      a.held,
		Total:     a.total,
		Locked:    a.locked,
	}
}

// Deposit returns the recorded amount of a deposit still eligible for dispute.
func (a *Account) Deposit(id model.TxID) (money.Amount, bool) {
	amount, ok := a.history[id]
	return amount, ok
}

// Disputed reports whether id has an open dispute.
func (a *Account) Disputed(id model.TxID) bool {
	_, ok := a.disputed[id]
	return ok
}

func (a *Account) recordDeposit(id model.TxID, amount money.Amount) {
	// keep the frozen amount of an open dispute stable
	if a.Disputed(id) {
		return
	}
	a.history[id] = amount
}

func (a *Account) openDispute(id model.TxID) {
	a.disputed[id] = struct{}{}
}

// concludeDispute drops id from both the dispute set and the history, so the
// deposit can never be disputed again.
func (a *Account) concludeDispute(id model.TxID) {
	delete(a.disputed, id)
	delete(a.history, id)
}
