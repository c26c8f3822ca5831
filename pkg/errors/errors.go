package errors

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a resource does not exist
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrUnauthorized is returned when a credential is missing or rejected
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	return e.Message
}

// ErrValidation is returned when user input is missing or malformed
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ErrAPI is returned for a non-2xx platform response.
// Message carries the server's message verbatim when it sent one.
type ErrAPI struct {
	Status  int
	Message string
}

func (e *ErrAPI) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("platform API error: status %d", e.Status)
	}
	return e.Message
}

// ErrInvalidStep is returned for a checkout step change the flow does not allow
type ErrInvalidStep struct {
	From string
	To   string
}

func (e *ErrInvalidStep) Error() string {
	return fmt.Sprintf("invalid checkout step transition from %s to %s", e.From, e.To)
}

var (
	ErrCheckoutInFlight      = errors.New("order submission already in progress")
	ErrEmptySelection        = errors.New("no cart items selected")
	ErrPaymentMethodRequired = errors.New("please select a payment method")
	ErrNoCheckout            = errors.New("no checkout in progress")
)

// IsNotFound reports whether err wraps an *ErrNotFound
func IsNotFound(err error) bool {
	var target *ErrNotFound
	return errors.As(err, &target)
}

// UserMessage returns the text that should be shown to the shopper for err
func UserMessage(err error) string {
	var apiErr *ErrAPI
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return "Something went wrong. Please try again."
	}
	var valErr *ErrValidation
	if errors.As(err, &valErr) {
		return valErr.Error()
	}
	var nf *ErrNotFound
	if errors.As(err, &nf) {
		return nf.Error()
	}
	switch {
	case errors.Is(err, ErrCheckoutInFlight),
		errors.Is(err, ErrEmptySelection),
		errors.Is(err, ErrPaymentMethodRequired),
		errors.Is(err, ErrNoCheckout):
		return err.Error()
	}
	return "Network error. Please check your connection and try again."
}
