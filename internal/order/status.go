package order

import (
	"errors"
	"fmt"
)

var ErrIllegalTransition = errors.New("illegal order status transition")

type Status string

const (
	StatusOpen     Status = "open"
	StatusClosed   Status = "closed"
	StatusCanceled Status = "canceled"
)

// CancelRole records who initiated a cancellation.
type CancelRole string

const (
	RoleNone  CancelRole = ""
	RoleUser  CancelRole = "user"
	RoleAdmin CancelRole = "admin"
)

type Action string

const (
	ActionClose       Action = "close"
	ActionAdminCancel Action = "admin_cancel"
	ActionUserCancel  Action = "user_cancel"
)

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusClosed || s == StatusCanceled
}

func (s Status) Valid() bool {
	return s == StatusOpen || s == StatusClosed || s == StatusCanceled
}

// Next is the full transition table. Only open orders move, and only once.
func Next(from Status, action Action) (Status, CancelRole, error) {
	if from != StatusOpen {
		return from, RoleNone, fmt.Errorf("%w: %s from %s", ErrIllegalTransition, action, from)
	}
	switch action {
	case ActionClose:
		return StatusClosed, RoleNone, nil
	case ActionAdminCancel:
		return StatusCanceled, RoleAdmin, nil
	case ActionUserCancel:
		return StatusCanceled, RoleUser, nil
	default:
		return from, RoleNone, fmt.Errorf("%w: unknown action %q", ErrIllegalTransition, action)
	}
}
