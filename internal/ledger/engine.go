package ledger

import (
	"cmp"
	"fmt"

	"github.com/goodnatureofminers/ledger-replay/internal/ledger/model"
)

// Engine applies events to the accounts of a Ledger, one at a time and in
// the order given.
type Engine struct {
	ledger *Ledger
}

func NewEngine(l *Ledger) *Engine {
	if l == nil {
		l = NewLedger()
	}
	return &Engine{ledger: l}
}

func (e *Engine) Ledger() *Ledger {
	return e.ledger
}

// Snapshot returns the state of every account referenced so far.
func (e *Engine) Snapshot() []model.AccountView {
	return e.ledger.Snapshot()
}

// Apply runs ev against its account. The account is created on first
// reference even when the event is rejected or ignored. Events for a locked
// account are dropped without error. A non-nil error always comes with
// model.OutcomeRejected and leaves the account unchanged, including when a
// balance would overflow.
func (e *Engine) Apply(ev model.Event) (model.Outcome, error) {
	acc := e.ledger.GetOrCreate(ev.Client())
	if acc.locked {
		return model.OutcomeLocked, nil
	}

	switch ev := ev.(type) {
	case model.Deposit:
		return deposit(acc, ev)
	case model.Withdrawal:
		return withdraw(acc, ev)
	case model.Dispute:
		return dispute(acc, ev)
	case model.Resolve:
		return resolve(acc, ev)
	case model.Chargeback:
		return chargeback(acc, ev)
	default:
		panic(fmt.Sprintf("ledger: unexpected event type %T", ev))
	}
}

func overflow(kind string, ev model.Event, err error) (model.Outcome, error) {
	return model.OutcomeRejected, fmt.Errorf("%s tx %d client %d: %w: %w", kind, ev.Tx(), ev.Client(), ErrBalanceOverflow, err)
}

func deposit(acc *Account, ev model.Deposit) (model.Outcome, error) {
	if !ev.Amount.Valid {
		return model.OutcomeRejected, fmt.Errorf("deposit tx %d client %d: %w", ev.TxID, ev.ClientID, ErrAmountRequired)
	}
	amount := ev.Amount.Amount
	available, err1 := acc.available.CheckedAdd(amount)
	total, err2 := acc.total.CheckedAdd(amount)
	if err := cmp.Or(err1, err2); err != nil {
		return overflow("deposit", ev, err)
	}
	acc.available, acc.total = available, total
	acc.recordDeposit(ev.TxID, amount)
	return model.OutcomeApplied, nil
}

func withdraw(acc *Account, ev model.Withdrawal) (model.Outcome, error) {
	if !ev.Amount.Valid {
		return model.OutcomeRejected, fmt.Errorf("withdrawal tx %d client %d: %w", ev.TxID, ev.ClientID, ErrAmountRequired)
	}
	amount := ev.Amount.Amount
	if acc.available < amount {
		return model.OutcomeRejected, fmt.Errorf("withdrawal tx %d client %d: available %s, requested %s: %w",
			ev.TxID, ev.ClientID, acc.available, amount, ErrInsufficientFunds)
	}
	available, err1 := acc.available.CheckedSub(amount)
	total, err2 := acc.total.CheckedSub(amount)
	if err := cmp.Or(err1, err2); err != nil {
		return overflow("withdrawal", ev, err)
	}
	acc.available, acc.total = available, total
	return model.OutcomeApplied, nil
}

// dispute holds the deposit amount again on every call while the deposit is
// in history, including when it is already disputed.
func dispute(acc *Account, ev model.Dispute) (model.Outcome, error) {
	amount, ok := acc.history[ev.TxID]
	if !ok {
		return model.OutcomeIgnored, nil
	}
	available, err1 := acc.available.CheckedSub(amount)
	held, err2 := acc.held.CheckedAdd(amount)
	if err := cmp.Or(err1, err2); err != nil {
		return overflow("dispute", ev, err)
	}
	acc.available, acc.held = available, held
	acc.openDispute(ev.TxID)
	return model.OutcomeApplied, nil
}

func resolve(acc *Account, ev model.Resolve) (model.Outcome, error) {
	if !acc.Disputed(ev.TxID) {
		return model.OutcomeIgnored, nil
	}
	amount := acc.history[ev.TxID]
	available, err1 := acc.available.CheckedAdd(amount)
	held, err2 := acc.held.CheckedSub(amount)
	if err := cmp.Or(err1, err2); err != nil {
		return overflow("resolve", ev, err)
	}
	acc.available, acc.held = available, held
	acc.concludeDispute(ev.TxID)
	return model.OutcomeApplied, nil
}

func chargeback(acc *Account, ev model.Chargeback) (model.Outcome, error) {
	if !acc.Disputed(ev.TxID) {
		return model.OutcomeIgnored, nil
	}
	amount := acc.history[ev.TxID]
	total, err1 := acc.total.CheckedSub(amount)
	held, err2 := acc.held.CheckedSub(amount)
	if err := cmp.Or(err1, err2); err != nil {
		return overflow("chargeback", ev, err)
	}
	acc.total, acc.held = total, held
	acc.locked = true
	acc.concludeDispute(ev.TxID)
	return model.OutcomeApplied, nil
}
