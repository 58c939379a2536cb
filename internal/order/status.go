package order

import (
	"strings"

	"github.com/vasiliy-maslov/shop-service/internal/apperr"
)

// Слайсы вместо map[Status]bool, чтобы сообщение об ошибке было стабильным.
var allowedTransitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusPaid, StatusCancelled},
	StatusPaid:      {StatusPreparing, StatusCancelled},
	StatusPreparing: {StatusShipped, StatusCancelled},
	StatusShipped:   {StatusDelivered, StatusReturned},
	StatusDelivered: {},
	StatusCancelled: {},
	StatusReturned:  {},
}

func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled || s == StatusReturned
}

// AllowedNext returns the statuses reachable from s in one step.
func (s Status) AllowedNext() []Status {
	return allowedTransitions[s]
}

// CanTransition validates a status change against the lifecycle table.
func CanTransition(from, to Status) error {
	if from.Terminal() {
		return apperr.BadRequest("cannot change the status of a %s order", from)
	}

	next := from.AllowedNext()
	for _, s := range next {
		if s == to {
			return nil
		}
	}

	names := make([]string, len(next))
	for i, s := range next {
		names[i] = string(s)
	}
	return apperr.BadRequest("from %s the order can only move to %s", from, strings.Join(names, " or "))
}
