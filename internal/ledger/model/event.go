// Package model defines domain types shared by the ledger, its sources and its sinks.
package model

import (
	"fmt"
	"strings"

	"github.com/goodnatureofminers/ledger-replay/pkg/money"
)

// ClientID identifies one account.
type ClientID uint16

// TxID identifies one deposit or withdrawal. Dispute, resolve and chargeback
// records reuse the id of the deposit they refer to.
type TxID uint32

// EventKind names one of the five event variants.
type EventKind string

const (
	KindDeposit    EventKind = "deposit"
	KindWithdrawal EventKind = "withdrawal"
	KindDispute    EventKind = "dispute"
	KindResolve    EventKind = "resolve"
	KindChargeback EventKind = "chargeback"
)

// Event is a closed sum type: Deposit, Withdrawal, Dispute, Resolve and
// Chargeback are its only implementations.
type Event interface {
	Kind() EventKind
	Client() ClientID
	Tx() TxID
	isEvent()
}

// Deposit credits an account and becomes eligible for dispute.
type Deposit struct {
	ClientID ClientID
	TxID     TxID
	Amount   money.NullAmount
}

// Withdrawal debits available funds.
type Withdrawal struct {
	ClientID ClientID
	TxID     TxID
	Amount   money.NullAmount
}

// Dispute freezes the amount of an earlier deposit.
type Dispute struct {
	ClientID ClientID
	TxID     TxID
}

// Resolve releases a disputed amount back to available funds.
type Resolve struct {
	ClientID ClientID
	TxID     TxID
}

// Chargeback removes a disputed amount and locks the account.
type Chargeback struct {
	ClientID ClientID
	TxID     TxID
}

func (Deposit) Kind() EventKind    { return KindDeposit }
func (Withdrawal) Kind() EventKind { return KindWithdrawal }
func (Dispute) Kind() EventKind    { return KindDispute }
func (Resolve) Kind() EventKind    { return KindResolve }
func (Chargeback) Kind() EventKind { return KindChargeback }

func (e Deposit) Client() ClientID    { return e.ClientID }
func (e Withdrawal) Client() ClientID { return e.ClientID }
func (e Dispute) Client() ClientID    { return e.ClientID }
func (e Resolve) Client() ClientID    { return e.ClientID }
func (e Chargeback) Client() ClientID { return e.ClientID }

func (e Deposit) Tx() TxID    { return e.TxID }
func (e Withdrawal) Tx() TxID { return e.TxID }
func (e Dispute) Tx() TxID    { return e.TxID }
func (e Resolve) Tx() TxID    { return e.TxID }
func (e Chargeback) Tx() TxID { return e.TxID }

func (Deposit) isEvent()    {}
func (Withdrawal) isEvent() {}
func (Dispute) isEvent()    {}
func (Resolve) isEvent()    {}
func (Chargeback) isEvent() {}

// ParseEventKind maps a record type name to its kind. "withdraw" is accepted
// as an alias of "withdrawal".
func ParseEventKind(s string) (EventKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "deposit":
		return KindDeposit, nil
	case "withdrawal", "withdraw":
		return KindWithdrawal, nil
	case "dispute":
		return KindDispute, nil
	case "resolve":
		return KindResolve, nil
	case "chargeback":
		return KindChargeback, nil
	default:
		return "", fmt.Errorf("unknown event type %q", s)
	}
}

// NewEvent builds the variant for kind. The amount is kept only by deposits
// and withdrawals; the other kinds ignore it.
func NewEvent(kind EventKind, client ClientID, tx TxID, amount money.NullAmount) (Event, error) {
	switch kind {
	case KindDeposit:
		return Deposit{ClientID: client, TxID: tx, Amount: amount}, nil
	case KindWithdrawal:
		return Withdrawal{ClientID: client, TxID: tx, Amount: amount}, nil
	case KindDispute:
		return Dispute{ClientID: client, TxID: tx}, nil
	case KindResolve:
		return Resolve{ClientID: client, TxID: tx}, nil
	case KindChargeback:
		return Chargeback{ClientID: client, TxID: tx}, nil
	default:
		return nil, fmt.Errorf("unknown event kind %q", kind)
	}
}
