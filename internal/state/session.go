package state

import (
	"fmt"

	"shrot-bot/internal/pricing"
)

// Session is the per-chat conversation state. Only the draft matching the active flow
// is populated.
type Session struct {
	Step Step `json:"step"`

	Order      *OrderDraft      `json:"order,omitempty"`
	AdminOrder *AdminOrderDraft `json:"admin_order,omitempty"`
	Product    *ProductDraft    `json:"product,omitempty"`
	Edit       *EditDraft       `json:"edit,omitempty"`
	Broadcast  *BroadcastDraft  `json:"broadcast,omitempty"`
	Block      *BlockDraft      `json:"block,omitempty"`
	Report     *ReportDraft     `json:"report,omitempty"`

	// OrderID is the order picked in the delete flow.
	OrderID int64 `json:"order_id,omitempty"`
}

type OrderDraft struct {
	ProductID int64            `json:"product_id"`
	Quantity  pricing.Quantity `json:"quantity"`
	Address   string           `json:"address,omitempty"`
	Latitude  *float64         `json:"latitude,omitempty"`
	Longitude *float64         `json:"longitude,omitempty"`
}

// AdminOrderDraft describes an order an admin enters for a customer. UserID is zero
// until the customer is found; a new walk-in is created on confirmation.
type AdminOrderDraft struct {
	UserID      int64            `json:"user_id,omitempty"`
	ChatID      *int64           `json:"chat_id,omitempty"`
	ClientName  string           `json:"client_name,omitempty"`
	ClientPhone string           `json:"client_phone,omitempty"`
	Address     string           `json:"address,omitempty"`
	ProductID   int64            `json:"product_id,omitempty"`
	Quantity    pricing.Quantity `json:"quantity"`
}

type ProductDraft struct {
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description,omitempty"`
}

type EditField string

const (
	EditName        EditField = "name"
	EditPrice       EditField = "price"
	EditDescription EditField = "description"
	EditPhotos      EditField = "photos"
	EditDelete      EditField = "delete"
)

type EditDraft struct {
	ProductID int64     `json:"product_id"`
	Field     EditField `json:"field,omitempty"`
}

type BroadcastKind string

const (
	BroadcastText       BroadcastKind = "text"
	BroadcastPhoto      BroadcastKind = "photo"
	BroadcastVideo      BroadcastKind = "video"
	BroadcastMediaGroup BroadcastKind = "media_group"
)

type BroadcastDraft struct {
	Kind    BroadcastKind `json:"kind"`
	Text    string        `json:"text,omitempty"`
	FileID  string        `json:"file_id,omitempty"`
	Caption string        `json:"caption,omitempty"`
	Items   []MediaItem   `json:"items,omitempty"`
}

type BlockDraft struct {
	Block bool `json:"block"`
}

type ReportDraft struct {
	Start string `json:"start"`
}

// Begin starts flow at its entry step, dropping any previous scratch data.
func Begin(flow Flow) (Session, error) {
	step, ok := EntryStep(flow)
	if !ok {
		return Session{}, fmt.Errorf("%w: unknown flow %q", ErrIllegalStep, flow)
	}
	return Session{Step: step}, nil
}

// Flow returns the active flow, FlowNone when idle.
func (s Session) Flow() Flow {
	return FlowOf(s.Step)
}

func (s Session) Idle() bool {
	return s.Step == StepIdle
}

// In reports whether the session is at one of the given steps.
func (s Session) In(steps ...Step) bool {
	for _, step := range steps {
		if s.Step == step {
			return true
		}
	}
	return false
}

// Advance moves to the next step if the transition table allows it.
func (s *Session) Advance(next Step) error {
	if !CanMove(s.Step, next) {
		return illegal(s.Step, next)
	}
	s.Step = next
	return nil
}
