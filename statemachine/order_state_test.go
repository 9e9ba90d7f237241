package statemachine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"food-ordering-api/models"
)

func TestCanTransitionFollowsLadder(t *testing.T) {
	steps := []struct {
		from, to models.OrderStatus
	}{
		{models.StatusPending, models.StatusConfirmed},
		{models.StatusConfirmed, models.StatusPreparing},
		{models.StatusPreparing, models.StatusDelivering},
		{models.StatusDelivering, models.StatusDelivered},
	}
	for _, s := range steps {
		assert.NoError(t, CanTransition(s.from, s.to), "%s -> %s", s.from, s.to)
	}
}

func TestCanTransitionRejectsSkipsAndBackwardMoves(t *testing.T) {
	rejected := []struct {
		from, to models.OrderStatus
	}{
		{models.StatusPending, models.StatusPreparing},
		{models.StatusPending, models.StatusPending},
		{models.StatusDelivering, models.StatusConfirmed},
		{models.StatusDelivered, models.StatusPending},
		{models.StatusPending, models.StatusCanceled},
		{models.StatusConfirmed, "shipped"},
	}
	for _, r := range rejected {
		err := CanTransition(r.from, r.to)
		if assert.Error(t, err, "%s -> %s", r.from, r.to) {
			assert.True(t, errors.Is(err, ErrInvalidTransition))
		}
	}
}

func TestTransitionErrorNamesLegalSuccessor(t *testing.T) {
	err := CanTransition(models.StatusPending, models.StatusDelivered)
	assert.Contains(t, err.Error(), "Valid transitions from pending are: confirmed")

	err = CanTransition(models.StatusDelivered, models.StatusPending)
	assert.Contains(t, err.Error(), "none (terminal state)")
}

func TestRankOrdersLadderThenCanceledThenUnknown(t *testing.T) {
	assert.Less(t, Rank(models.StatusPending), Rank(models.StatusConfirmed))
	assert.Less(t, Rank(models.StatusDelivering), Rank(models.StatusDelivered))
	assert.Less(t, Rank(models.StatusDelivered), Rank(models.StatusCanceled))
	assert.Less(t, Rank(models.StatusCanceled), Rank("on-hold"))
}

func TestTerminalAndKnown(t *testing.T) {
	assert.True(t, IsTerminal(models.StatusDelivered))
	assert.True(t, IsTerminal(models.StatusCanceled))
	assert.False(t, IsTerminal(models.StatusDelivering))

	assert.True(t, Known(models.StatusCanceled))
	assert.True(t, Known(models.StatusPreparing))
	assert.False(t, Known("on-hold"))
}

func TestGetAllTransitionsReturnsCopy(t *testing.T) {
	ts := GetAllTransitions()
	assert.Len(t, ts, 4)
	ts[0].To = models.StatusDelivered

	next, ok := Next(models.StatusPending)
	assert.True(t, ok)
	assert.Equal(t, models.StatusConfirmed, next)
}
