package shared

import (
	"errors"
	"fmt"
)

// DomainError is the base for all typed domain errors. Specialized errors
// embed it so errors.As can match at any level of the hierarchy.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NotFoundError marks lookups that came back empty. Never retried.
type NotFoundError struct {
	DomainError
	Entity string
	ID     string
}

func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{
		DomainError: DomainError{
			Code:    "NOT_FOUND",
			Message: fmt.Sprintf("%s %s not found", entity, id),
		},
		Entity: entity,
		ID:     id,
	}
}

// DuplicateError marks unique-constraint violations on create
type DuplicateError struct {
	DomainError
	Entity string
	ID     string
}

func NewDuplicateError(entity, id string) *DuplicateError {
	return &DuplicateError{
		DomainError: DomainError{
			Code:    "DUPLICATE",
			Message: fmt.Sprintf("%s %s already exists", entity, id),
		},
		Entity: entity,
		ID:     id,
	}
}

// ShipError is the base for errors scoped to a single ship
type ShipError struct {
	DomainError
	ShipSymbol string
}

// InvalidNavStatusError reports a ship action attempted from the wrong
// nav-status, e.g. docking while in transit
type InvalidNavStatusError struct {
	ShipError
	CurrentStatus  string
	RequiredStatus string
}

func NewInvalidNavStatusError(shipSymbol, current, required string) *InvalidNavStatusError {
	return &InvalidNavStatusError{
		ShipError: ShipError{
			DomainError: DomainError{
				Code:    "INVALID_NAV_STATUS",
				Message: fmt.Sprintf("ship %s is %s, requires %s", shipSymbol, current, required),
			},
			ShipSymbol: shipSymbol,
		},
		CurrentStatus:  current,
		RequiredStatus: required,
	}
}

// InsufficientFuelError reports a leg that needs more fuel than the tank holds
type InsufficientFuelError struct {
	ShipError
	Required  int
	Available int
}

func NewInsufficientFuelError(shipSymbol string, required, available int) *InsufficientFuelError {
	return &InsufficientFuelError{
		ShipError: ShipError{
			DomainError: DomainError{
				Code:    "INSUFFICIENT_FUEL",
				Message: fmt.Sprintf("ship %s needs %d fuel, has %d", shipSymbol, required, available),
			},
			ShipSymbol: shipSymbol,
		},
		Required:  required,
		Available: available,
	}
}

// ShipAssignmentError reports a failed attempt to take a ship lease
type ShipAssignmentError struct {
	DomainError
	ShipSymbol  string
	ContainerID string
}

func NewShipAssignmentError(shipSymbol, containerID, holder string) *ShipAssignmentError {
	return &ShipAssignmentError{
		DomainError: DomainError{
			Code:    "SHIP_ASSIGNED",
			Message: fmt.Sprintf("ship %s is already assigned to container %s", shipSymbol, holder),
		},
		ShipSymbol:  shipSymbol,
		ContainerID: containerID,
	}
}

// InvalidStateError reports an operation attempted from a state that does not
// allow it, e.g. stopping a container that is already stopped
type InvalidStateError struct {
	DomainError
	Current string
	Wanted  string
}

func NewInvalidStateError(what, current, wanted string) *InvalidStateError {
	return &InvalidStateError{
		DomainError: DomainError{
			Code:    "INVALID_STATE",
			Message: fmt.Sprintf("%s is %s, cannot %s", what, current, wanted),
		},
		Current: current,
		Wanted:  wanted,
	}
}

// APIError carries an upstream 4xx reply with the remote error code preserved
type APIError struct {
	DomainError
	StatusCode int
	APICode    int
}

func NewAPIError(statusCode, apiCode int, message string) *APIError {
	return &APIError{
		DomainError: DomainError{
			Code:    "API_ERROR",
			Message: message,
		},
		StatusCode: statusCode,
		APICode:    apiCode,
	}
}

// RateLimitError is an upstream 429. Non-fatal; callers may retry after the
// advertised delay.
type RateLimitError struct {
	DomainError
	RetryAfterSeconds float64
}

func NewRateLimitError(retryAfter float64, message string) *RateLimitError {
	return &RateLimitError{
		DomainError: DomainError{
			Code:    "RATE_LIMITED",
			Message: message,
		},
		RetryAfterSeconds: retryAfter,
	}
}

// TransientError is an upstream 5xx or a network failure; one retry is
// reasonable, repeated failure is not
type TransientError struct {
	DomainError
	StatusCode int
}

func NewTransientError(statusCode int, message string) *TransientError {
	return &TransientError{
		DomainError: DomainError{
			Code:    "TRANSIENT",
			Message: message,
		},
		StatusCode: statusCode,
	}
}

// Predicate helpers for orchestrators that branch on error kind.

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsInvalidNavStatus(err error) bool {
	var target *InvalidNavStatusError
	return errors.As(err, &target)
}

func IsRateLimit(err error) bool {
	var target *RateLimitError
	return errors.As(err, &target)
}

func IsTransient(err error) bool {
	var target *TransientError
	return errors.As(err, &target)
}

func IsInsufficientFuel(err error) bool {
	var target *InsufficientFuelError
	return errors.As(err, &target)
}
