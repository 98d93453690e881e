package domain

type CheckoutState string

const (
	CheckoutStateIdle            CheckoutState = "IDLE"
	CheckoutStateFormEntry       CheckoutState = "FORM_ENTRY"
	CheckoutStateSubmitting      CheckoutState = "SUBMITTING"
	CheckoutStateAwaitingPayment CheckoutState = "AWAITING_PAYMENT"
	CheckoutStateReconciling     CheckoutState = "RECONCILING"
	CheckoutStateCompleted       CheckoutState = "COMPLETED"
	CheckoutStateFailed          CheckoutState = "FAILED"
)

func (s CheckoutState) IsTerminal() bool {
	return s == CheckoutStateCompleted || s == CheckoutStateFailed
}

// InFlight reports whether an attempt is running and resubmission must be refused.
func (s CheckoutState) InFlight() bool {
	return s == CheckoutStateSubmitting || s == CheckoutStateAwaitingPayment || s == CheckoutStateReconciling
}

// String representation (for logging)
func (s CheckoutState) String() string {
	return string(s)
}

var checkoutTransitions = map[CheckoutState][]CheckoutState{
	CheckoutStateIdle:            {CheckoutStateFormEntry},
	CheckoutStateFormEntry:       {CheckoutStateSubmitting},
	CheckoutStateSubmitting:      {CheckoutStateAwaitingPayment, CheckoutStateFailed},
	CheckoutStateAwaitingPayment: {CheckoutStateReconciling},
	CheckoutStateReconciling:     {CheckoutStateCompleted, CheckoutStateFailed},
	CheckoutStateCompleted:       {CheckoutStateFormEntry},
	CheckoutStateFailed:          {CheckoutStateFormEntry},
}

func CanTransitionTo(from, to CheckoutState) bool {
	for _, next := range checkoutTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
