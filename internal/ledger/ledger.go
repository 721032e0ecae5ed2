// Package ledger holds client accounts and the rules that replay events against them.
package ledger

import (
	"cmp"
	"slices"

	"github.com/goodnatureofminers/ledger-replay/internal/ledger/model"
)

// Ledger owns every account referenced during a replay. Accounts are created
// on first reference and never removed. A Ledger is not safe for concurrent use.
type Ledger struct {
	accounts map[model.ClientID]*Account
}

func NewLedger() *Ledger {
	return &Ledger{accounts: make(map[model.ClientID]*Account)}
}

// GetOrCreate returns the account of id, creating a zeroed unlocked one if needed.
func (l *Ledger) GetOrCreate(id model.ClientID) *Account {
	if acc, ok := l.accounts[id]; ok {
		return acc
	}
	acc := newAccount(id)
	l.accounts[id] = acc
	return acc
}

// Get returns the account of id without creating it.
func (l *Ledger) Get(id model.ClientID) (*Account, bool) {
	acc, ok := l.accounts[id]
	return acc, ok
}

func (l *Ledger) Len() int {
	return len(l.accounts)
}

// Snapshot returns the state of every account ordered by client id.
func (l *Ledger) Snapshot() []model.AccountView {
	views := make([]model.AccountView, 0, len(l.accounts))
	for _, acc := range l.accounts {
		views = append(views, acc.View())
	}
	SortViews(views)
	return views
}

// SortViews orders views by ascending client id.
func SortViews(views []model.AccountView) {
	slices.SortFunc(views, func(a, b model.AccountView) int {
		return cmp.Compare(a.Client, b.Client)
	})
}
