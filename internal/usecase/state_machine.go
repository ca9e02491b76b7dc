package usecase

import (
	"local-electrician/internal/domain/entity"
)

// transitionKey identifies one row of the transition table.
type transitionKey struct {
	from   entity.Status
	action entity.Action
	role   entity.ActorRole
}

type transitionResult struct {
	next        entity.Status
	description string
}

// transitionTable is the complete set of legal status transitions. Anything
// absent is an illegal transition, including every action against a terminal
// state.
var transitionTable = map[transitionKey]transitionResult{
	{entity.StatusNew, entity.ActionAccept, entity.RoleElectrician}: {
		entity.StatusAccepted, "Request accepted by electrician",
	},
	{entity.StatusNew, entity.ActionDecline, entity.RoleElectrician}: {
		entity.StatusDeclined, "Request declined by electrician",
	},
	{entity.StatusAccepted, entity.ActionStart, entity.RoleElectrician}: {
		entity.StatusInProgress, "Work started",
	},
	{entity.StatusAccepted, entity.ActionComplete, entity.RoleElectrician}: {
		entity.StatusSuccess, "Work completed",
	},
	{entity.StatusInProgress, entity.ActionComplete, entity.RoleElectrician}: {
		entity.StatusSuccess, "Work completed",
	},
	{entity.StatusNew, entity.ActionCancel, entity.RoleCustomer}: {
		entity.StatusCancelled, "Request cancelled by customer",
	},
	{entity.StatusAccepted, entity.ActionCancel, entity.RoleCustomer}: {
		entity.StatusCancelled, "Request cancelled by customer",
	},
	{entity.StatusAccepted, entity.ActionCancel, entity.RoleElectrician}: {
		entity.StatusCancelled, "Request cancelled by electrician",
	},
}

// NextStatus validates a requested transition against the table. It is pure:
// no I/O, no clock. On success it returns the resulting status and the status
// log description for the transition; otherwise ErrIllegalTransition.
func NextStatus(current entity.Status, action entity.Action, role entity.ActorRole) (entity.Status, string, error) {
	res, ok := transitionTable[transitionKey{from: current, action: action, role: role}]
	if !ok {
		return "", "", entity.ErrIllegalTransition
	}
	return res.next, res.description, nil
}
