package state

import (
	"errors"
	"fmt"
	"strings"
)

var ErrIllegalStep = errors.New("illegal conversation step")

// Flow is a multi-step conversation. At most one flow is active per chat.
type Flow string

const (
	FlowNone        Flow = ""
	FlowOrder       Flow = "order"
	FlowAdminOrder  Flow = "admin_order"
	FlowAddProduct  Flow = "add_product"
	FlowEditProduct Flow = "edit_product"
	FlowBroadcast   Flow = "broadcast"
	FlowOrderSearch Flow = "order_search"
	FlowOrderDelete Flow = "order_delete"
	FlowSupport     Flow = "support"
	FlowBlock       Flow = "block"
	FlowReport      Flow = "report"
)

// Step is a position inside a flow. Steps are namespaced by their flow.
type Step string

const (
	StepIdle Step = ""

	StepOrderQuantity Step = "order.quantity"
	StepOrderAddress  Step = "order.address"
	StepOrderConfirm  Step = "order.confirm"

	StepAdminOrderPhone    Step = "admin_order.phone"
	StepAdminOrderName     Step = "admin_order.name"
	StepAdminOrderAddress  Step = "admin_order.address"
	StepAdminOrderProduct  Step = "admin_order.product"
	StepAdminOrderQuantity Step = "admin_order.quantity"
	StepAdminOrderConfirm  Step = "admin_order.confirm"

	StepProductName        Step = "add_product.name"
	StepProductPrice       Step = "add_product.price"
	StepProductDescription Step = "add_product.description"
	StepProductPhoto       Step = "add_product.photo"

	StepEditField  Step = "edit_product.field"
	StepEditValue  Step = "edit_product.value"
	StepEditPhotos Step = "edit_product.photos"

	StepBroadcastContent Step = "broadcast.content"
	StepBroadcastConfirm Step = "broadcast.confirm"

	StepSearchOrderID Step = "order_search.id"

	StepDeleteOrderID Step = "order_delete.id"
	StepDeleteConfirm Step = "order_delete.confirm"

	StepSupportMessage Step = "support.message"

	StepBlockAction Step = "block.action"
	StepBlockPhone  Step = "block.phone"

	StepReportStart Step = "report.start"
	StepReportEnd   Step = "report.end"
)

var entrySteps = map[Flow]Step{
	FlowOrder:       StepOrderQuantity,
	FlowAdminOrder:  StepAdminOrderPhone,
	FlowAddProduct:  StepProductName,
	FlowEditProduct: StepEditField,
	FlowBroadcast:   StepBroadcastContent,
	FlowOrderSearch: StepSearchOrderID,
	FlowOrderDelete: StepDeleteOrderID,
	FlowSupport:     StepSupportMessage,
	FlowBlock:       StepBlockAction,
	FlowReport:      StepReportStart,
}

// transitions lists, for every step, the steps it may move to. A step missing from
// the table is final: the flow can only be finished from it.
var transitions = map[Step][]Step{
	StepOrderQuantity: {StepOrderAddress},
	StepOrderAddress:  {StepOrderConfirm},

	StepAdminOrderPhone:    {StepAdminOrderName, StepAdminOrderAddress},
	StepAdminOrderName:     {StepAdminOrderAddress},
	StepAdminOrderAddress:  {StepAdminOrderProduct},
	StepAdminOrderProduct:  {StepAdminOrderQuantity},
	StepAdminOrderQuantity: {StepAdminOrderConfirm},

	StepProductName:        {StepProductPrice},
	StepProductPrice:       {StepProductDescription},
	StepProductDescription: {StepProductPhoto},

	StepEditField: {StepEditValue, StepEditPhotos},

	StepBroadcastContent: {StepBroadcastConfirm},

	StepDeleteOrderID: {StepDeleteConfirm},

	StepBlockAction: {StepBlockPhone},

	StepReportStart: {StepReportEnd},
}

// EntryStep returns the first step of a flow.
func EntryStep(flow Flow) (Step, bool) {
	step, ok := entrySteps[flow]
	return step, ok
}

// FlowOf returns the flow a step belongs to.
func FlowOf(step Step) Flow {
	flow, _, _ := strings.Cut(string(step), ".")
	return Flow(flow)
}

// CanMove reports whether the table allows from → to.
func CanMove(from, to Step) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func illegal(from, to Step) error {
	return fmt.Errorf("%w: %q -> %q", ErrIllegalStep, from, to)
}
