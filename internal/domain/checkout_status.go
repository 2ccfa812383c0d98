package domain

type CheckoutStatus string

const (
	CheckoutStatusInitiated       CheckoutStatus = "INITIATED"
	CheckoutStatusVerifying       CheckoutStatus = "VERIFYING"
	CheckoutStatusReserving       CheckoutStatus = "RESERVING"
	CheckoutStatusCommitting      CheckoutStatus = "COMMITTING"
	CheckoutStatusCompleted       CheckoutStatus = "COMPLETED"
	CheckoutStatusFailed          CheckoutStatus = "FAILED"
	CheckoutStatusPartiallyFailed CheckoutStatus = "PARTIALLY_FAILED"
)

func (s CheckoutStatus) IsTerminal() bool {
	return s == CheckoutStatusCompleted || s == CheckoutStatusFailed || s == CheckoutStatusPartiallyFailed
}

// String representation (for logging)
func (s CheckoutStatus) String() string {
	return string(s)
}

// CanTransitionTo encodes the legal checkout state machine. Failure is
// reachable from any non-terminal state; PARTIALLY_FAILED only from
// COMMITTING, since it means stock was already touched.
func CanTransitionTo(from, to CheckoutStatus) bool {
	if from.IsTerminal() {
		return false
	}
	switch to {
	case CheckoutStatusVerifying:
		return from == CheckoutStatusInitiated
	case CheckoutStatusReserving:
		return from == CheckoutStatusVerifying
	case CheckoutStatusCommitting:
		return from == CheckoutStatusReserving
	case CheckoutStatusCompleted:
		return from == CheckoutStatusCommitting
	case CheckoutStatusFailed:
		return true
	case CheckoutStatusPartiallyFailed:
		return from == CheckoutStatusCommitting
	default:
		return false
	}
}
