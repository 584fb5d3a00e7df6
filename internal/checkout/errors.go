package checkout

import (
	"errors"
	"fmt"
)

var (
	ErrMissingCustomer   = errors.New("customer identity is required to check out")
	ErrEmptyCart         = errors.New("cart is empty, nothing to checkout")
	ErrIllegalTransition = errors.New("illegal transition of checkout state")
)

// Reason classifies a failed checkout.
type Reason string

const (
	ReasonPrecondition Reason = "precondition_failure"
	ReasonSubmission   Reason = "submission_failure"
	ReasonTransport    Reason = "transport_error"
)

// SubmissionError means the order service rejected the order or could not be
// reached. Err is the collaborator's error as returned, payload included.
type SubmissionError struct {
	OrderID string
	Err     error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("order %s submission failed: %v", e.OrderID, e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// TransportError is an unexpected failure while talking to the backends.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("checkout transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
