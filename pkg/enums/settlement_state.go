package enums

// SettlementState is the canonical outcome of a provider status query.
// Any provider value that is not exactly success or failure maps to pending.
type SettlementState string

const (
	SettlementSuccess SettlementState = "success"
	SettlementFailure SettlementState = "failure"
	SettlementPending SettlementState = "pending"
)

// String implements fmt.Stringer.
func (s SettlementState) String() string {
	return string(s)
}

// ParseSettlementState normalizes a raw provider status string.
func ParseSettlementState(value string) SettlementState {
	switch value {
	case string(SettlementSuccess):
		return SettlementSuccess
	case string(SettlementFailure):
		return SettlementFailure
	default:
		return SettlementPending
	}
}
