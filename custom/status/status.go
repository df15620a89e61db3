package status

import (
	"errors"

	"invite_shop/constants"
)

// Order statuses
const ORDER_STATUS_PENDING_PAYMENT = "PENDING_PAYMENT"
const ORDER_STATUS_PAYMENT_REVIEW = "PAYMENT_REVIEW"
const ORDER_STATUS_APPROVED = "APPROVED"
const ORDER_STATUS_PRINTING = "PRINTING"
const ORDER_STATUS_SHIPPED = "SHIPPED"
const ORDER_STATUS_COMPLETED = "COMPLETED"
const ORDER_STATUS_DELETED = "DELETED"

// Workflow events
const EVENT_UPLOAD_SLIP = "upload_slip"
const EVENT_APPROVE = "approve"
const EVENT_REJECT = "reject"
const EVENT_START_PRINTING = "start_printing"
const EVENT_SHIP = "ship"
const EVENT_COMPLETE = "complete"
const EVENT_DELETE = "delete"

var ErrInvalidTransition = errors.New(constants.INVALID_TRANSITION)

// transitions is the full legal transition table. Progression is
// one-directional except the reject path, which sends an order back to
// PENDING_PAYMENT for a slip re-upload. Complete accepts both APPROVED and
// SHIPPED so the short manual path and the full print/ship path are legal.
var transitions = map[string]map[string]string{
	ORDER_STATUS_PENDING_PAYMENT: {
		EVENT_UPLOAD_SLIP: ORDER_STATUS_PAYMENT_REVIEW,
	},
	ORDER_STATUS_PAYMENT_REVIEW: {
		EVENT_APPROVE: ORDER_STATUS_APPROVED,
		EVENT_REJECT:  ORDER_STATUS_PENDING_PAYMENT,
	},
	ORDER_STATUS_APPROVED: {
		EVENT_START_PRINTING: ORDER_STATUS_PRINTING,
		EVENT_COMPLETE:       ORDER_STATUS_COMPLETED,
	},
	ORDER_STATUS_PRINTING: {
		EVENT_SHIP: ORDER_STATUS_SHIPPED,
	},
	ORDER_STATUS_SHIPPED: {
		EVENT_COMPLETE: ORDER_STATUS_COMPLETED,
	},
}

// Next returns the status an order moves to when event fires in state from.
// Any disallowed combination yields ErrInvalidTransition and the caller must
// leave the order untouched. Delete is a tombstone reachable from every
// state except DELETED itself.
func Next(from string, event string) (string, error) {
	if event == EVENT_DELETE {
		if from == ORDER_STATUS_DELETED {
			return "", ErrInvalidTransition
		}
		return ORDER_STATUS_DELETED, nil
	}
	if to, ok := transitions[from][event]; ok {
		return to, nil
	}
	return "", ErrInvalidTransition
}

// TRACKING_STEPS is the customer-facing progression rendered by the tracking
// page, in display order.
var TRACKING_STEPS = []string{
	ORDER_STATUS_PENDING_PAYMENT,
	ORDER_STATUS_PAYMENT_REVIEW,
	ORDER_STATUS_APPROVED,
	ORDER_STATUS_PRINTING,
	ORDER_STATUS_SHIPPED,
	ORDER_STATUS_COMPLETED,
}

// TrackingStep maps a status to its step index in TRACKING_STEPS. Unknown or
// legacy values (and tombstones) clamp to the first step instead of failing.
func TrackingStep(state string) int {
	for i, s := range TRACKING_STEPS {
		if s == state {
			return i
		}
	}
	return 0
}

func StatusToLabel(state string) string {
	switch state {
	case ORDER_STATUS_PENDING_PAYMENT:
		return "AWAITING PAYMENT"
	case ORDER_STATUS_PAYMENT_REVIEW:
		return "PAYMENT UNDER REVIEW"
	case ORDER_STATUS_APPROVED:
		return "APPROVED"
	case ORDER_STATUS_PRINTING:
		return "PRINTING"
	case ORDER_STATUS_SHIPPED:
		return "SHIPPED"
	case ORDER_STATUS_COMPLETED:
		return "COMPLETED"
	case ORDER_STATUS_DELETED:
		return "DELETED"
	}
	return "UNKNOWN"
}
