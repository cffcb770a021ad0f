package paystack

import "fmt"

// Error reports a failed provider call. StatusCode is zero when the failure
// happened before a response arrived.
type Error struct {
	Op         string
	Message    string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("paystack %s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("paystack %s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }
