package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnauthenticated is returned when the session is missing, invalid or expired
type ErrUnauthenticated struct {
	Message string
}

func (e *ErrUnauthenticated) Error() string {
	if e.Message == "" {
		return "unauthenticated"
	}
	return "unauthenticated: " + e.Message
}

// ErrUnavailable wraps transport failures and unusable backend responses
type ErrUnavailable struct {
	Service string
	Err     error
}

func (e *ErrUnavailable) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s service unavailable", e.Service)
	}
	return fmt.Sprintf("%s service unavailable: %v", e.Service, e.Err)
}

func (e *ErrUnavailable) Unwrap() error {
	return e.Err
}

// ErrRemote is a non-2xx backend response decoded at the client boundary
type ErrRemote struct {
	Service    string
	StatusCode int
	Message    string
}

func (e *ErrRemote) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s service returned status %d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s service returned status %d: %s", e.Service, e.StatusCode, e.Message)
}

// ErrValidation lists every required field that was left empty
type ErrValidation struct {
	Fields []string
}

func (e *ErrValidation) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// ErrEmptyCart is returned when a checkout is attempted without cart lines
type ErrEmptyCart struct{}

func (e *ErrEmptyCart) Error() string {
	return "cart is empty"
}

// ErrCheckoutRejected carries the checkout service's rejection message
type ErrCheckoutRejected struct {
	Message string
}

func (e *ErrCheckoutRejected) Error() string {
	return "checkout rejected: " + e.Message
}

// ErrPaymentRejected carries the payment service's rejection message
type ErrPaymentRejected struct {
	Message string
}

func (e *ErrPaymentRejected) Error() string {
	return "payment rejected: " + e.Message
}

// ErrInvalidStateTransition is returned when the order flow is driven out of order
type ErrInvalidStateTransition struct {
	From interface{}
	To   interface{}
}

func (e *ErrInvalidStateTransition) Error() string {
	return fmt.Sprintf("invalid state transition from %v to %v", e.From, e.To)
}

// ErrBusy is returned while a request for the same resource is still in flight
type ErrBusy struct {
	Resource string
}

func (e *ErrBusy) Error() string {
	return fmt.Sprintf("request for %s already in progress", e.Resource)
}

// ErrNotFound is returned when a resource does not exist
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// Is* helpers keep callers free of errors.As boilerplate.

func IsUnauthenticated(err error) bool {
	var target *ErrUnauthenticated
	return errors.As(err, &target)
}

func IsEmptyCart(err error) bool {
	var target *ErrEmptyCart
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target *ErrNotFound
	return errors.As(err, &target)
}

func IsCheckoutRejected(err error) bool {
	var target *ErrCheckoutRejected
	return errors.As(err, &target)
}
