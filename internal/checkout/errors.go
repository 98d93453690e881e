package checkout

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrPersistence        = errors.New("checkout could not be saved")
	ErrPaymentLoad        = errors.New("payment widget could not be loaded")
	ErrPaymentDeclined    = errors.New("payment was declined")
	ErrPaymentCancelled   = errors.New("payment was cancelled")
	ErrCheckoutInProgress = errors.New("a checkout is already in progress for this cart")
	ErrEmptyCart          = errors.New("cart is empty, nothing to checkout")
	ErrIllegalTransition  = errors.New("illegal transition of checkout state")
)

// ValidationError lists the form fields that failed, keyed by their JSON name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("invalid checkout form: %s", strings.Join(names, ", "))
}

// ReconciliationWarning means the payment went through but recording it did not.
// The cart is still cleared because the charge happened.
type ReconciliationWarning struct {
	Err error
}

func (w *ReconciliationWarning) Error() string {
	return fmt.Sprintf("payment succeeded but reconciliation failed: %v", w.Err)
}

func (w *ReconciliationWarning) Unwrap() error {
	return w.Err
}
