package apiclient

import (
	"fmt"
)

// UnauthorizedError is returned when the backend rejected the request with
// 401 or 403. By the time it is returned the session has been purged and
// sign-in has been started; Err carries the outcome of that redirect, so
// navigation.IsRedirect reports true when the page is already leaving.
type UnauthorizedError struct {
	Status int
	Err    error
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("unauthorized: backend returned %d", e.Status)
}

func (e *UnauthorizedError) Unwrap() error {
	return e.Err
}

// HTTPError is any other non-2xx response from the backend.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("backend returned %d", e.Status)
	}
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Body)
}
