package auth

import "fmt"

// CallbackError reports that the sign-in callback could not be completed:
// the authorization artifact was missing, expired, forged or rejected by
// the provider. No session is persisted when it is returned.
type CallbackError struct {
	Reason string
	Err    error
}

func (e *CallbackError) Error() string {
	if e.Err == nil {
		return "sign-in callback failed: " + e.Reason
	}
	return fmt.Sprintf("sign-in callback failed: %s: %v", e.Reason, e.Err)
}

func (e *CallbackError) Unwrap() error {
	return e.Err
}
