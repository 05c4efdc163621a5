package quizgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	legal := [][2]State{
		{StateIdle, StateBuilding},
		{StateBuilding, StateRequesting},
		{StateRequesting, StateParsing},
		{StateParsing, StateValidating},
		{StateValidating, StateRetrying},
		{StateRetrying, StateRequesting},
		{StateValidating, StateAssembling},
		{StateAssembling, StateDone},
		{StateRequesting, StateFailed},
		{StateIdle, StateFailed},
	}
	for _, tr := range legal {
		assert.True(t, CanTransition(tr[0], tr[1]), "%s -> %s", tr[0], tr[1])
	}

	illegal := [][2]State{
		{StateIdle, StateRequesting},
		{StateParsing, StateDone},
		{StateDone, StateFailed},
		{StateFailed, StateIdle},
		{StateAssembling, StateRetrying},
	}
	for _, tr := range illegal {
		assert.False(t, CanTransition(tr[0], tr[1]), "%s -> %s", tr[0], tr[1])
	}
}

func TestMachine_PanicsOnIllegalMove(t *testing.T) {
	m := newMachine()
	m.to(StateBuilding)
	assert.Panics(t, func() { m.to(StateDone) })
	assert.Equal(t, []State{StateIdle, StateBuilding}, m.states())
}
