package statemachine

import (
	"errors"
	"strings"

	"food-ordering-api/models"
)

// ErrInvalidTransition is returned for any status change off the ladder.
var ErrInvalidTransition = errors.New("invalid status transition")

// Transition defines a valid state change and who can perform it
type Transition struct {
	From  models.OrderStatus `json:"from"`
	To    models.OrderStatus `json:"to"`
	Actor string             `json:"actor"`
}

// ladder is the forward-only order lifecycle. Each status may only move to the next one.
var ladder = []models.OrderStatus{
	models.StatusPending,
	models.StatusConfirmed,
	models.StatusPreparing,
	models.StatusDelivering,
	models.StatusDelivered,
}

// validTransitions is the authoritative state machine definition
var validTransitions = func() []Transition {
	ts := make([]Transition, 0, len(ladder)-1)
	for i := 0; i+1 < len(ladder); i++ {
		ts = append(ts, Transition{From: ladder[i], To: ladder[i+1], Actor: "admin"})
	}
	return ts
}()

// Build a lookup map for O(1) validation
var transitionMap = func() map[models.OrderStatus]models.OrderStatus {
	m := make(map[models.OrderStatus]models.OrderStatus, len(validTransitions))
	for _, t := range validTransitions {
		m[t.From] = t.To
	}
	return m
}()

// Next returns the single legal successor of status.
func Next(status models.OrderStatus) (models.OrderStatus, bool) {
	next, ok := transitionMap[status]
	return next, ok
}

// ValidTransitionsFrom returns all valid next states from a given state
func ValidTransitionsFrom(status models.OrderStatus) []models.OrderStatus {
	if next, ok := Next(status); ok {
		return []models.OrderStatus{next}
	}
	return []models.OrderStatus{}
}

// CanTransition checks whether an order in from may move to to.
func CanTransition(from, to models.OrderStatus) error {
	if next, ok := Next(from); ok && next == to {
		return nil
	}
	return &TransitionError{From: from, To: to}
}

// TransitionError describes a rejected transition. It matches ErrInvalidTransition.
type TransitionError struct {
	From models.OrderStatus
	To   models.OrderStatus
}

func (e *TransitionError) Error() string {
	return "invalid transition: " + string(e.From) + " → " + string(e.To) +
		" is not allowed. Valid transitions from " + string(e.From) + " are: " + describeValidFrom(e.From)
}

func (e *TransitionError) Is(target error) bool { return target == ErrInvalidTransition }

func describeValidFrom(status models.OrderStatus) string {
	nexts := ValidTransitionsFrom(status)
	if len(nexts) == 0 {
		return "none (terminal state)"
	}
	parts := make([]string, len(nexts))
	for i, s := range nexts {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}

// IsTerminal reports whether no further transition leaves status.
func IsTerminal(status models.OrderStatus) bool {
	_, ok := Next(status)
	return !ok
}

// Known reports whether status is on the ladder or is canceled.
func Known(status models.OrderStatus) bool {
	return status == models.StatusCanceled || Rank(status) < len(ladder)
}

// Rank gives the sort position used by the admin board:
// the ladder in order, then canceled, then anything unrecognised.
func Rank(status models.OrderStatus) int {
	for i, s := range ladder {
		if s == status {
			return i
		}
	}
	if status == models.StatusCanceled {
		return len(ladder)
	}
	return len(ladder) + 1
}

// Ladder returns a copy of the forward status sequence.
func Ladder() []models.OrderStatus {
	return append([]models.OrderStatus(nil), ladder...)
}

// GetAllTransitions returns the full state machine for documentation
func GetAllTransitions() []Transition {
	return append([]Transition(nil), validTransitions...)
}
