package model

// Outcome classifies what applying an event did to its account.
type Outcome string

var (
	// OutcomeApplied marks an event that mutated the account.
	OutcomeApplied Outcome = "applied"
	// OutcomeIgnored marks a dispute, resolve or chargeback that referenced an
	// unknown or already concluded transaction.
	OutcomeIgnored Outcome = "ignored"
	// OutcomeLocked marks an event dropped because the account is frozen.
	OutcomeLocked Outcome = "locked"
	// OutcomeRejected marks an event that failed a precondition.
	OutcomeRejected Outcome = "rejected"
)

// EventOutcome is one audit row describing how an event was handled in a run.
type EventOutcome struct {
	RunID   string
	Seq     uint64
	Kind    EventKind
	Client  ClientID
	Tx      TxID
	Outcome Outcome
	Reason  string
}
