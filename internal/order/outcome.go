package order

// Outcome is the result of a conditional status update. When Applied is false the
// fields describe the row as it was found after the update lost.
type Outcome struct {
	Applied    bool
	Found      bool
	Status     Status
	ClosedBy   *int64
	CanceledBy CancelRole
}

// Rejection explains why a transition did not apply.
type Rejection int

const (
	RejectNone Rejection = iota
	RejectNotFound
	RejectClosed
	RejectClosedByOther
	RejectCanceled
	RejectCanceledByUser
	RejectCanceledByOther
)

// Reject classifies a lost transition from the point of view of actor. actor is the
// admin's chat id for admin actions and zero for user cancellations.
func (o Outcome) Reject(actor int64) Rejection {
	switch {
	case o.Applied:
		return RejectNone
	case !o.Found:
		return RejectNotFound
	}

	byOther := actor != 0 && o.ClosedBy != nil && *o.ClosedBy != actor

	switch o.Status {
	case StatusClosed:
		if byOther {
			return RejectClosedByOther
		}
		return RejectClosed
	case StatusCanceled:
		if o.CanceledBy == RoleUser {
			return RejectCanceledByUser
		}
		if byOther {
			return RejectCanceledByOther
		}
		return RejectCanceled
	default:
		// Still open: the row did not match the predicate for another reason
		// (e.g. a user cancelling someone else's order).
		return RejectNotFound
	}
}
